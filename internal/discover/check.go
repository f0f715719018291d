package discover

import "github.com/standardbeagle/keel/internal/types"

// RiskLevel classifies how risky an edit to a node looks, purely from
// its stored fan-in shape: zero callers is safe to touch, a handful of
// same-file callers is still contained, anything wider needs care.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// crossModuleFanInThreshold is the caller count past which `check`
// stops calling same-file fan-in "medium" and calls it "high" (any
// cross-file caller is "high" regardless of count) — tuned
// to the same scale as the monolith smell in analyze (more than a
// handful of callers means a change here ripples widely).
const crossModuleFanInThreshold = 4

// CheckResult is `check HASH`'s wire shape: a pre-edit risk read.
type CheckResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Node NodeInfo `json:"node"`

	CallerCount        int  `json:"caller_count"`
	CalleeCount        int  `json:"callee_count"`
	CrossFileCallers   int  `json:"cross_file_callers"`
	CrossModuleCallers int  `json:"cross_module_callers"`
	MissingTypeHints   bool `json:"missing_type_hints"`
	MissingDocstring   bool `json:"missing_docstring"`

	Risk RiskLevel `json:"risk"`

	Suggestions []string `json:"suggestions,omitempty"`
}

// Check assesses the risk of editing the node at hash (§4.7 check).
func (e *Engine) Check(hash string) (*CheckResult, error) {
	node, err := e.Store.FindNodeByHash(hash)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, errNotFound(hash)
	}

	incoming, err := e.Store.GetIncomingEdges(node.ID)
	if err != nil {
		return nil, err
	}
	outgoing, err := e.Store.GetOutgoingEdges(node.ID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{
		Version:          ResultVersion,
		Command:          "check",
		Node:             nodeInfo(node),
		MissingTypeHints: node.IsPublic && !node.TypeHintsOK,
		MissingDocstring: node.IsPublic && !node.HasDocstring,
	}

	callers := 0
	for _, edge := range incoming {
		if edge.Kind != types.EdgeKindCalls {
			continue
		}
		callers++
		caller, err := e.Store.GetNodeByID(edge.SourceID)
		if err != nil {
			return nil, err
		}
		if caller == nil {
			continue
		}
		if caller.File != node.File {
			result.CrossFileCallers++
		}
		if caller.ModuleID != node.ModuleID {
			result.CrossModuleCallers++
		}
	}
	result.CallerCount = callers

	for _, edge := range outgoing {
		if edge.Kind == types.EdgeKindCalls {
			result.CalleeCount++
		}
	}

	result.Risk = classifyRisk(result.CallerCount, result.CrossFileCallers)
	result.Suggestions = buildSuggestions(result)

	return result, nil
}

func classifyRisk(callers, crossFile int) RiskLevel {
	switch {
	case callers == 0:
		return RiskLow
	case crossFile == 0 && callers < crossModuleFanInThreshold:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func buildSuggestions(r *CheckResult) []string {
	var out []string
	if r.CallerCount == 1 && r.CrossFileCallers == 0 {
		out = append(out, "single same-file caller: inlining this function is a safe, low-impact option")
	}
	if r.CallerCount >= crossModuleFanInThreshold {
		out = append(out, "high fan-in: treat the signature as stable, prefer additive changes over renames")
	}
	if r.CrossModuleCallers > 0 {
		out = append(out, "called from outside its own module: verify callers after any behavior change")
	}
	if r.MissingTypeHints || r.MissingDocstring {
		out = append(out, "currently missing type hints or a docstring: fixing this alongside the edit clears an existing violation")
	}
	return out
}
