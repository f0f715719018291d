package discover

import (
	"fmt"

	"github.com/standardbeagle/keel/internal/types"
)

// Thresholds for analyze's code-smell detection (§8 scenario 6 gives
// the file/function/monolith numbers explicitly; fan-in/out and
// all-local-edges are this package's own calibration, chosen to sit a
// notch above check's crossModuleFanInThreshold since a smell worth
// surfacing file-wide should be rarer than a per-edit risk flag).
const (
	oversizedFileLines     = 400
	oversizedFunctionLines = 100
	monolithMinLines       = 100
	monolithMinCallees     = 5
	highFanInThreshold     = 8
	highFanOutThreshold    = 8
)

// Smell is one detected code smell in an analyzed file.
type Smell struct {
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	Node   *NodeInfo `json:"node,omitempty"`
}

// Opportunity is one suggested refactor, named by the same vocabulary
// fix plans use downstream (§4.8): split-file, extract-function,
// inline-function, move-to-module, stabilize-api.
type Opportunity struct {
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	Node   *NodeInfo `json:"node,omitempty"`
}

// FunctionSummary is one function's row in analyze's listing.
type FunctionSummary struct {
	NodeInfo
	CallerCount int `json:"caller_count"`
	CalleeCount int `json:"callee_count"`
}

// AnalyzeResult is `analyze FILE`'s wire shape.
type AnalyzeResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	File      string            `json:"file"`
	LineCount int               `json:"line_count"`
	Functions []FunctionSummary `json:"functions"`

	Smells        []Smell       `json:"smells"`
	Opportunities []Opportunity `json:"opportunities"`
}

// Analyze derives per-file smells and refactoring opportunities from
// stored nodes and edges alone — no file is reread (§4.7 analyze).
func (e *Engine) Analyze(file string) (*AnalyzeResult, error) {
	nodes, err := e.Store.GetNodesInFile(file)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errFileNotFound(file)
	}

	result := &AnalyzeResult{Version: ResultVersion, Command: "analyze", File: file}

	var moduleNode *types.GraphNode
	for i := range nodes {
		n := &nodes[i]
		if n.Kind == types.NodeKindModule {
			moduleNode = n
			break
		}
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Kind == types.NodeKindModule {
			continue
		}

		incoming, err := e.Store.GetIncomingEdges(n.ID)
		if err != nil {
			return nil, err
		}
		outgoing, err := e.Store.GetOutgoingEdges(n.ID)
		if err != nil {
			return nil, err
		}
		callers := countCalls(incoming)
		callees := countCalls(outgoing)
		allLocal := callees > 0 && allEdgesLocal(e, outgoing, file)

		result.Functions = append(result.Functions, FunctionSummary{NodeInfo: nodeInfo(n), CallerCount: callers, CalleeCount: callees})

		funcLines := n.LineEnd - n.LineStart + 1
		info := nodeInfo(n)

		if funcLines > oversizedFunctionLines {
			result.Smells = append(result.Smells, Smell{Kind: "oversized_function", Detail: fmt.Sprintf("%s spans %d lines", n.Name, funcLines), Node: &info})
			result.Opportunities = append(result.Opportunities, Opportunity{Kind: "extract-function", Detail: fmt.Sprintf("break %s into smaller pieces", n.Name), Node: &info})
		}
		if funcLines > monolithMinLines && callees > monolithMinCallees {
			result.Smells = append(result.Smells, Smell{Kind: "monolith", Detail: fmt.Sprintf("%s is %d lines and calls %d other functions", n.Name, funcLines, callees), Node: &info})
		}
		if callers >= highFanInThreshold {
			result.Smells = append(result.Smells, Smell{Kind: "high_fan_in", Detail: fmt.Sprintf("%s has %d callers", n.Name, callers), Node: &info})
			result.Opportunities = append(result.Opportunities, Opportunity{Kind: "stabilize-api", Detail: fmt.Sprintf("treat %s's signature as frozen given its fan-in", n.Name), Node: &info})
		}
		if callees >= highFanOutThreshold {
			result.Smells = append(result.Smells, Smell{Kind: "high_fan_out", Detail: fmt.Sprintf("%s calls %d other functions", n.Name, callees), Node: &info})
		}
		if allLocal && callees >= 2 {
			result.Smells = append(result.Smells, Smell{Kind: "all_local_edges", Detail: fmt.Sprintf("%s calls only functions in this file", n.Name), Node: &info})
			result.Opportunities = append(result.Opportunities, Opportunity{Kind: "move-to-module", Detail: fmt.Sprintf("%s's callees are all in this file; consider whether it belongs in a narrower module", n.Name), Node: &info})
		}
		if callers == 1 && funcLines < oversizedFunctionLines/4 {
			result.Opportunities = append(result.Opportunities, Opportunity{Kind: "inline-function", Detail: fmt.Sprintf("%s has a single caller and is small enough to inline", n.Name), Node: &info})
		}
		if n.IsPublic && (!n.TypeHintsOK || !n.HasDocstring) {
			result.Smells = append(result.Smells, Smell{Kind: "missing_public_contract", Detail: fmt.Sprintf("%s is public but missing type hints or a docstring", n.Name), Node: &info})
		}
	}

	if moduleNode != nil {
		result.LineCount = moduleNode.LineEnd - moduleNode.LineStart + 1
	}
	if result.LineCount == 0 && len(nodes) > 0 {
		for i := range nodes {
			if nodes[i].LineEnd > result.LineCount {
				result.LineCount = nodes[i].LineEnd
			}
		}
	}
	if result.LineCount > oversizedFileLines {
		result.Smells = append(result.Smells, Smell{Kind: "oversized_file", Detail: fmt.Sprintf("%s is %d lines", file, result.LineCount)})
		result.Opportunities = append(result.Opportunities, Opportunity{Kind: "split-file", Detail: fmt.Sprintf("split %s into narrower files", file)})
	}

	return result, nil
}

func countCalls(edges []types.GraphEdge) int {
	n := 0
	for _, e := range edges {
		if e.Kind == types.EdgeKindCalls {
			n++
		}
	}
	return n
}

func allEdgesLocal(e *Engine, edges []types.GraphEdge, file string) bool {
	for _, edge := range edges {
		if edge.Kind != types.EdgeKindCalls {
			continue
		}
		target, err := e.Store.GetNodeByID(edge.TargetID)
		if err != nil || target == nil || target.File != file {
			return false
		}
	}
	return true
}
