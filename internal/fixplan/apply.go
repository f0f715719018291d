package fixplan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/keel/internal/errkit"
)

// applyFuzzyWindow is how far from action.Line old_text may be found
// and still count as a match (§4.8: "on or within ±2 lines").
const applyFuzzyWindow = 2

// applyPlan performs every action in plan against files under the
// engine's project root and reports whether every action succeeded.
func (e *Engine) applyPlan(plan *FixPlan) (bool, error) {
	ok := true
	for i := range plan.Actions {
		applied, err := e.applyAction(&plan.Actions[i])
		if err != nil {
			return false, err
		}
		if !applied {
			ok = false
		}
	}
	return ok, nil
}

// applyAction performs one action: locate old_text within
// applyFuzzyWindow lines of action.Line and replace it, insert
// new_text before action.Line when old_text is empty, or fall back to
// an inserted comment carrying the guidance when nothing matches.
func (e *Engine) applyAction(a *Action) (bool, error) {
	abs := filepath.Join(e.Root, a.File)
	raw, err := os.ReadFile(abs)
	if err != nil {
		return false, &errkit.IoFailureError{Op: "read", Path: abs, Underlying: err}
	}
	lines := strings.Split(string(raw), "\n")

	if a.OldText == "" {
		idx := clampLine(a.Line, len(lines))
		lines = insertLine(lines, idx, a.NewText)
		return writeLines(abs, lines)
	}

	matchIdx := findWithinWindow(lines, a.OldText, a.Line)
	if matchIdx >= 0 {
		lines[matchIdx] = replaceOnLine(lines[matchIdx], a.OldText, a.NewText)
		return writeLines(abs, lines)
	}

	fallback := "// keel: " + a.Description
	idx := clampLine(a.Line, len(lines))
	lines = insertLine(lines, idx, fallback)
	if _, err := writeLines(abs, lines); err != nil {
		return false, err
	}
	// A fallback comment was written, but the intended edit wasn't
	// located — report this action as not fully applied.
	return false, nil
}

func clampLine(line, total int) int {
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	if idx > total {
		idx = total
	}
	return idx
}

func insertLine(lines []string, idx int, text string) []string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:idx]...)
	out = append(out, text)
	out = append(out, lines[idx:]...)
	return out
}

func findWithinWindow(lines []string, oldText string, targetLine int) int {
	center := targetLine - 1
	for delta := 0; delta <= applyFuzzyWindow; delta++ {
		for _, idx := range []int{center - delta, center + delta} {
			if idx < 0 || idx >= len(lines) {
				continue
			}
			if strings.Contains(lines[idx], oldText) {
				return idx
			}
			if delta == 0 {
				break
			}
		}
	}
	return -1
}

func replaceOnLine(line, old, newText string) string {
	return strings.Replace(line, old, newText, 1)
}

func writeLines(path string, lines []string) (bool, error) {
	content := strings.Join(lines, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, &errkit.IoFailureError{Op: "write", Path: path, Underlying: err}
	}
	return true, nil
}
