package discover

import (
	"fmt"

	"github.com/standardbeagle/keel/internal/enforce"
)

// Step is one link in an explain chain: a human-readable reason plus
// the node it points at, so an agent can follow the chain with
// further `where`/`discover` calls instead of re-deriving it.
type Step struct {
	Detail string    `json:"detail"`
	Node   *NodeInfo `json:"node,omitempty"`
}

// RenameInfo is populated when the requested hash no longer exists but
// is found among a live node's previous hashes (SPEC_FULL.md's
// rename-detection feature).
type RenameInfo struct {
	CurrentHash string `json:"current_hash"`
	File        string `json:"file"`
	Line        int    `json:"line"`
}

// ExplainResult is `explain CODE HASH`'s wire shape.
type ExplainResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Code string    `json:"code"`
	Node *NodeInfo `json:"node,omitempty"`

	Chain      []Step  `json:"chain"`
	Confidence float64 `json:"confidence"`

	Renamed *RenameInfo `json:"renamed,omitempty"`
}

// Explain reconstructs the reasoning behind a violation code for a
// node, drawing only on what is already in the store (§4.7 explain).
// If hash no longer names a live node, it checks whether the node was
// renamed (the hash survives in some other node's previous_hashes) and
// reports that instead of a bare miss.
func (e *Engine) Explain(code, hash string) (*ExplainResult, error) {
	node, err := e.Store.FindNodeByHash(hash)
	if err != nil {
		return nil, err
	}
	if node == nil {
		renamed, err := e.Store.FindNodeByPreviousHash(hash)
		if err != nil {
			return nil, err
		}
		if renamed == nil {
			return nil, errNotFound(hash)
		}
		info := nodeInfo(renamed)
		return &ExplainResult{
			Version:    ResultVersion,
			Command:    "explain",
			Code:       code,
			Confidence: 1,
			Chain: []Step{{
				Detail: fmt.Sprintf("hash %s was renamed to %s (now %s)", hash, renamed.Hash, renamed.Name),
				Node:   &info,
			}},
			Renamed: &RenameInfo{CurrentHash: renamed.Hash, File: renamed.File, Line: renamed.LineStart},
		}, nil
	}

	info := nodeInfo(node)
	result := &ExplainResult{Version: ResultVersion, Command: "explain", Code: code, Node: &info, Confidence: 1}

	switch code {
	case enforce.CodeBrokenCaller, enforce.CodeFunctionRemoved:
		result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s's current hash is %s; anything still calling an older hash for this name is now broken", node.Name, node.Hash)})
		callers, err := e.Store.GetIncomingEdges(node.ID)
		if err != nil {
			return nil, err
		}
		for _, edge := range callers {
			caller, err := e.Store.GetNodeByID(edge.SourceID)
			if err != nil {
				return nil, err
			}
			if caller == nil {
				continue
			}
			ci := nodeInfo(caller)
			result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s calls %s from %s:%d", caller.Name, node.Name, caller.File, edge.Line), Node: &ci})
		}

	case enforce.CodeMissingTypeHints:
		result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s is public and its stored signature lacks complete type hints", node.Name)})

	case enforce.CodeMissingDocstring:
		result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s is public and has no docstring on record", node.Name)})

	case enforce.CodeArityMismatch:
		result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("a call site's argument count no longer matches %s's stored signature %q", node.Name, node.Signature)})

	case enforce.CodePlacement:
		suggestion, err := e.suggestPlacement(node)
		if err != nil {
			return nil, err
		}
		if suggestion != "" {
			result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s's name prefix fits %s's responsibilities better than its own file", node.Name, suggestion)})
		} else {
			result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s's name prefix no longer matches any other module's profile", node.Name)})
		}

	case enforce.CodeDuplicateName:
		dupes, err := e.Store.FindNodesByName(node.Name)
		if err != nil {
			return nil, err
		}
		for i := range dupes {
			d := dupes[i]
			if d.Hash == node.Hash && d.File == node.File {
				continue
			}
			di := nodeInfo(&d)
			result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("%s is also defined in %s", d.Name, d.File), Node: &di})
		}

	default:
		result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("no reasoning template registered for code %s", code)})
	}

	entries, err := e.Store.LoadCircuitBreaker()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Code == code && entry.Hash == hash && entry.Downgraded {
			result.Confidence = 0.5
			result.Chain = append(result.Chain, Step{Detail: fmt.Sprintf("this (code, hash) pair has failed %d consecutive compiles and was auto-downgraded to a warning", entry.ConsecutiveFailures)})
		}
	}

	return result, nil
}
