package fixplan

import (
	"fmt"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/keel/internal/enforce"
)

// renameFuzzyThreshold mirrors the tier 2 resolver's near-miss
// threshold: a "did you mean" suggestion below this similarity is more
// likely to mislead than help.
const renameFuzzyThreshold = 0.82

// buildPlan dispatches to a per-code action generator. Codes with no
// generator (shouldn't occur given the stable taxonomy, but source
// files can carry violations from a future code this binary predates)
// fall back to a single inserted-comment action carrying the
// violation's own fix-hint.
func (e *Engine) buildPlan(v enforce.Violation) (*FixPlan, error) {
	plan := &FixPlan{
		Code:     v.Code,
		Hash:     v.Hash,
		Category: string(v.Category),
		Cause:    v.Message,
	}

	switch v.Code {
	case enforce.CodeBrokenCaller:
		plan.Actions = brokenCallerActions(v)
	case enforce.CodeMissingTypeHints:
		plan.Actions = missingTypeHintsActions(v)
	case enforce.CodeMissingDocstring:
		plan.Actions = missingDocstringActions(v)
	case enforce.CodeFunctionRemoved:
		plan.Actions = e.functionRemovedActions(v)
	case enforce.CodeArityMismatch:
		plan.Actions = arityMismatchActions(v)
	case enforce.CodePlacement:
		plan.Actions = placementActions(v)
	case enforce.CodeDuplicateName:
		plan.Actions = duplicateNameActions(v)
	default:
		plan.Actions = []Action{commentAction(v.File, v.Line, v.FixHint)}
	}

	if len(plan.Actions) > 0 {
		plan.TargetName = nameFromMessage(v.Message)
	}
	return plan, nil
}

// commentAction builds an insertion action for guidance that has no
// synthesizable code change: new_text is the description rendered as
// a line comment, so `--apply` leaves a visible note rather than a
// blank inserted line.
func commentAction(file string, line int, description string) Action {
	return Action{
		File:        file,
		Line:        line,
		NewText:     "// keel: " + description,
		Description: description,
	}
}

func brokenCallerActions(v enforce.Violation) []Action {
	var actions []Action
	for _, a := range v.Affected {
		actions = append(actions, commentAction(a.File, a.Line,
			fmt.Sprintf("caller affected by %s's signature change: %s", v.Hash, v.FixHint)))
	}
	return actions
}

func missingTypeHintsActions(v enforce.Violation) []Action {
	return []Action{commentAction(v.File, v.Line, v.FixHint)}
}

func missingDocstringActions(v enforce.Violation) []Action {
	name := nameFromMessage(v.Message)
	return []Action{{
		File:        v.File,
		Line:        v.Line,
		NewText:     fmt.Sprintf("// %s: document what this does and why.", name),
		Description: "insert a placeholder docstring above the definition",
	}}
}

// functionRemovedActions reports each still-live caller and, when a
// similarly-named function still exists in the project, suggests it as
// the likely rename target — the "did you mean" refinement wired from
// the same fuzzy-match library the structural resolver uses.
func (e *Engine) functionRemovedActions(v enforce.Violation) []Action {
	var actions []Action
	removedName := nameFromMessage(v.Message)
	suggestion := e.nearestLiveName(removedName)

	for _, a := range v.Affected {
		desc := fmt.Sprintf("%s no longer exists but is still called here", removedName)
		if suggestion != "" {
			desc = fmt.Sprintf("%s; did you mean %s?", desc, suggestion)
		}
		actions = append(actions, commentAction(a.File, a.Line, desc))
	}
	return actions
}

func (e *Engine) nearestLiveName(removedName string) string {
	modules, err := e.Store.GetAllModules()
	if err != nil {
		return ""
	}
	best, bestScore := "", 0.0
	for _, m := range modules {
		nodes, err := e.Store.GetNodesInFile(m.File)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			if n.Name == removedName {
				continue
			}
			score, err := edlib.StringsSimilarity(removedName, n.Name, edlib.JaroWinkler)
			if err != nil || float64(score) < renameFuzzyThreshold || float64(score) <= bestScore {
				continue
			}
			bestScore = float64(score)
			best = n.Name
		}
	}
	return best
}

func arityMismatchActions(v enforce.Violation) []Action {
	return []Action{commentAction(v.File, v.Line, v.FixHint)}
}

func placementActions(v enforce.Violation) []Action {
	return []Action{commentAction(v.File, v.Line,
		fmt.Sprintf("consider moving this definition into %s", v.SuggestedModule))}
}

func duplicateNameActions(v enforce.Violation) []Action {
	return []Action{commentAction(v.File, v.Line,
		fmt.Sprintf("also defined in %s; rename one or consolidate", v.Existing))}
}

// nameFromMessage pulls the leading identifier out of a violation
// message built as "<name> ...", the same convention every violation
// constructor in enforce uses.
func nameFromMessage(msg string) string {
	for i, r := range msg {
		if r == ' ' || r == '\'' {
			return msg[:i]
		}
	}
	return msg
}
