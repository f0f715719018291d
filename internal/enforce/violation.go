// Package enforce implements the enforcement engine (§4.6): given a
// batch of freshly-parsed files, it updates stored node hashes, runs
// the violation taxonomy, applies the circuit breaker's three-strike
// downgrade, honors batch-mode deferral and suppression, and can
// compute a delta between two compile results.
package enforce

import "github.com/standardbeagle/keel/internal/types"

// Severity is a violation's reported level.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARNING"
	SeverityInfo  Severity = "INFO"
)

// Category groups violation codes by what they check, mirroring the
// taxonomy table in §4.6.
type Category string

const (
	CategoryBrokenCaller     Category = "broken_caller"
	CategoryMissingTypeHints Category = "missing_type_hints"
	CategoryMissingDocstring Category = "missing_docstring"
	CategoryFunctionRemoved  Category = "function_removed"
	CategoryArityMismatch    Category = "arity_mismatch"
	CategoryPlacement        Category = "placement"
	CategoryDuplicateName    Category = "duplicate_name"
	CategorySuppressed       Category = "suppressed"
)

// Stable violation codes (§4.6).
const (
	CodeBrokenCaller     = "E001"
	CodeMissingTypeHints = "E002"
	CodeMissingDocstring = "E003"
	CodeFunctionRemoved  = "E004"
	CodeArityMismatch    = "E005"
	CodePlacement        = "W001"
	CodeDuplicateName    = "W002"
	CodeSuppressed       = "S001"
)

// structuralCodes fire immediately even while a batch is open (§4.6
// "Structural violations ... fire immediately").
var structuralCodes = map[string]bool{
	CodeBrokenCaller:    true,
	CodeFunctionRemoved: true,
	CodeArityMismatch:   true,
}

// AffectedNode is one downstream node named in a violation's affected
// list (e.g. a caller broken by a hash change).
type AffectedNode struct {
	Hash string `json:"hash"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// Violation is one finding from a compile run (§4.6).
type Violation struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Hash       string   `json:"hash"`
	Confidence float64  `json:"confidence"`

	FixHint      string `json:"fix_hint"`
	SuppressHint string `json:"suppress_hint"`

	Affected []AffectedNode `json:"affected,omitempty"`

	SuggestedModule string `json:"suggested_module,omitempty"`
	Existing        string `json:"existing,omitempty"`

	Suppressed bool `json:"suppressed,omitempty"`
}

// key returns the stable (code, hash, file, line) identity used by the
// snapshot/delta logic. (The circuit breaker keys on (code, hash) only,
// and suppression on code only.)
func (v Violation) key() types.ViolationKey {
	return types.ViolationKey{Code: v.Code, Hash: v.Hash, File: v.File, Line: v.Line}
}
