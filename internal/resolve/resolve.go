// Package resolve implements the tiered reference resolver (§4.3): each
// unresolved call or type reference is handed to successively coarser
// tiers until one produces a match, each tier carrying a fixed
// confidence band. Grounded on the teacher's symbollinker resolvers
// (one resolver per source language, each walking from the most local
// evidence outward) and its semantic fuzzy matcher, generalized into a
// single language-agnostic tier ladder operating over the in-memory
// node index rather than a bespoke resolver per language.
package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/keel/internal/types"
)

// Confidence bands per tier, fixed by §4.3.
const (
	ConfidenceSameFile         = 0.95
	ConfidenceImportScope      = 0.80
	ConfidenceImportWildcard   = 0.50
	ConfidenceStructural       = 0.65
	ConfidenceStructuralHigher = 0.70
	ConfidenceTraitEmpty       = 0.30 // interface/trait satisfaction, no required methods
	ConfidenceTrait            = 0.40 // interface/trait satisfaction, non-empty method set
)

// Tier names recorded on a Result for audit (`explain`) and the
// resolution cache.
const (
	TierSameFile    = "tier0_same_file"
	TierImportScope = "tier1_import_scope"
	TierStructural  = "tier2_structural"
	TierSemantic    = "tier3_semantic"
	TierUnresolved  = "unresolved"
)

// Result is what a Resolve call returns: either a matched node with a
// tier and confidence, or a miss (Hash == "").
type Result struct {
	Hash       string
	File       string
	Tier       string
	Confidence float64
}

// Candidate is the resolvable-target projection of a GraphNode: just
// enough to drive the tier ladder without depending on graphstore.
type Candidate struct {
	Hash            string
	Name            string
	File            string
	Package         string
	Receiver        string // receiver/owner type name, for method candidates
	PointerReceiver bool   // declared with a pointer receiver ("func (c *Circle) ...")
}

// FileInfo is the per-file context a resolution needs: its own
// candidates (for Tier 0), its parsed imports (for Tier 1), and its
// type declarations (for Tier 2's structural resolution).
type FileInfo struct {
	Candidates []Candidate
	Imports    []types.Import
	Language   string
	Types      []types.TypeDecl
}

// Index is the project-wide lookup a Resolver consults. It is rebuilt
// once per map run from the current parse results; it is not
// safe for concurrent writes, only concurrent reads once built.
type Index struct {
	files       map[string]FileInfo
	byName      map[string][]Candidate
	byFileName  map[string]map[string][]Candidate // file -> name -> candidates
	types       map[string]*typeInfo // type name -> structural info, across the whole project
	projectRoot string
}

// NewIndex builds an Index from per-file candidate lists, imports, and
// type declarations.
func NewIndex(projectRoot string, files map[string]FileInfo) *Index {
	idx := &Index{
		files:       files,
		byName:      make(map[string][]Candidate),
		byFileName:  make(map[string]map[string][]Candidate),
		types:       make(map[string]*typeInfo),
		projectRoot: projectRoot,
	}
	for file, info := range files {
		if idx.byFileName[file] == nil {
			idx.byFileName[file] = make(map[string][]Candidate)
		}
		for _, c := range info.Candidates {
			idx.byName[c.Name] = append(idx.byName[c.Name], c)
			idx.byFileName[file][c.Name] = append(idx.byFileName[file][c.Name], c)
			if c.Receiver != "" {
				idx.typeInfo(c.Receiver).methods[c.Name] = c
			}
		}
		for _, td := range info.Types {
			ti := idx.typeInfo(td.Name)
			ti.isInterface = ti.isInterface || td.IsInterface
			ti.embeds = append(ti.embeds, td.Embeds...)
			ti.supertraits = append(ti.supertraits, td.Supertraits...)
			ti.reqMethods = append(ti.reqMethods, td.Methods...)
			for _, tp := range td.TypeParams {
				ti.typeParams[tp.Name] = tp.Bounds
			}
		}
	}
	return idx
}

// typeInfo returns (creating if needed) the structural record for a
// type name, merged across every file that contributes to it (a type's
// methods and its declaration can be parsed from the same file, but the
// index doesn't require it).
func (idx *Index) typeInfo(name string) *typeInfo {
	ti, ok := idx.types[name]
	if !ok {
		ti = &typeInfo{methods: make(map[string]Candidate), typeParams: make(map[string][]string)}
		idx.types[name] = ti
	}
	return ti
}

// Resolver runs the tier ladder. Tier3 is optional; a nil provider
// means Tier 3 is skipped entirely rather than attempted and failed,
// matching §4.3's "absent means silently disabled" rule.
type Resolver struct {
	index    *Index
	tier3    Tier3Provider
	timeout  int64 // milliseconds; 0 uses DefaultTier3Timeout
}

// New builds a Resolver over idx. provider may be nil.
func New(idx *Index, provider Tier3Provider) *Resolver {
	return &Resolver{index: idx, tier3: provider}
}

// Resolve attempts to resolve ref, which occurred in sourceFile, against
// the index, trying tiers in order and returning on the first hit.
func (r *Resolver) Resolve(ref types.Reference, sourceFile string) Result {
	if res, ok := r.tier0(ref, sourceFile); ok {
		return res
	}
	if res, ok := r.tier1(ref, sourceFile); ok {
		return res
	}
	if res, ok := r.tier2(ref, sourceFile); ok {
		return res
	}
	if r.tier3 != nil {
		if res, ok := r.tier3Resolve(ref, sourceFile); ok {
			return res
		}
	}
	return Result{Tier: TierUnresolved}
}

// tier0 looks for a same-named candidate defined in the same file.
func (r *Resolver) tier0(ref types.Reference, sourceFile string) (Result, bool) {
	if ref.Receiver != "" && r.index.types[ref.Receiver] != nil {
		// A method call on a receiver type the index knows binds through
		// that type's method set in tier 2, not by bare name.
		return Result{}, false
	}
	candidates := r.index.byFileName[sourceFile][ref.Name]
	if len(candidates) == 0 {
		return Result{}, false
	}
	return Result{Hash: candidates[0].Hash, File: candidates[0].File, Tier: TierSameFile, Confidence: ConfidenceSameFile}, true
}

// tier1 follows the source file's own imports: a reference resolves
// here if its name was imported from a source that maps to a file
// which itself declares a same-named candidate. A wildcard import
// match is scored lower since it is a guess among everything that
// module could have exported.
func (r *Resolver) tier1(ref types.Reference, sourceFile string) (Result, bool) {
	info, ok := r.index.files[sourceFile]
	if !ok {
		return Result{}, false
	}
	for _, imp := range info.Imports {
		if !importBindsName(imp, ref.Name) {
			continue
		}
		for _, target := range resolveImportToFile(r.index, sourceFile, info.Language, imp) {
			if target == "" {
				continue
			}
			candidates := r.index.byFileName[target][ref.Name]
			if len(candidates) == 0 {
				continue
			}
			confidence := ConfidenceImportScope
			if imp.IsWildcard {
				confidence = ConfidenceImportWildcard
			}
			return Result{Hash: candidates[0].Hash, File: candidates[0].File, Tier: TierImportScope, Confidence: confidence}, true
		}
	}
	return Result{}, false
}

func importBindsName(imp types.Import, name string) bool {
	if imp.IsWildcard {
		return true
	}
	for _, n := range imp.Names {
		if n == name {
			return true
		}
	}
	return len(imp.Names) == 0
}

// resolveImportToFile maps an import source string to the project-relative
// file path(s) it could name, per §4.3's per-language Tier 1 forms:
//   - relative forms (a leading "./"/"../", Go-style) are joined against
//     the source file's directory, trying both the bare file and an
//     index/mod-style directory form;
//   - crate/package-prefix forms ("crate::", a dotted Java/C# package, a
//     PHP namespace) are walked from the project root;
//   - parent-reference forms (Rust's "super::") are walked one directory
//     up per segment from the source file's own directory;
//   - bare module paths (a Go import path, an external Rust crate) are
//     matched by their last segment against directory names actually
//     present in the index, since there is no manifest in hand to map
//     the path prefix itself to a filesystem root.
//
// A candidate that isn't actually present in the index is simply never
// matched by the caller's byFileName lookup — nothing here guesses past
// that.
func resolveImportToFile(idx *Index, sourceFile, lang string, imp types.Import) []string {
	dir := filepath.Dir(sourceFile)
	switch lang {
	case "python":
		rel := strings.ReplaceAll(strings.TrimLeft(imp.Source, "."), ".", "/")
		if imp.IsRelative {
			return []string{filepath.ToSlash(filepath.Join(dir, rel) + ".py")}
		}
		return []string{filepath.ToSlash(rel + ".py")}
	case "javascript", "typescript":
		if !strings.HasPrefix(imp.Source, ".") {
			return nil
		}
		ext := ".js"
		if lang == "typescript" {
			ext = ".ts"
		}
		base := filepath.ToSlash(filepath.Join(dir, imp.Source))
		return []string{base + ext, base + "/index" + ext}
	case "go":
		// Bare module path: github.com/foo/bar/shapes -> match "shapes"
		// against a directory name in the index (no go.mod module-path
		// prefix is tracked, so the last segment is all there is to go
		// on).
		return idx.filesInDir(lastPathSegment(imp.Source))
	case "rust":
		return resolveRustImport(dir, imp.Source)
	case "java":
		rel := strings.ReplaceAll(imp.Source, ".", "/")
		return []string{rel + ".java"}
	case "csharp":
		rel := strings.ReplaceAll(imp.Source, ".", "/")
		return []string{rel + ".cs"}
	case "php":
		rel := strings.ReplaceAll(imp.Source, `\`, "/")
		return []string{rel + ".php"}
	case "cpp":
		if imp.IsRelative {
			return []string{filepath.ToSlash(filepath.Join(dir, imp.Source))}
		}
		// Angle-bracket form: try it both as a project-root-relative
		// path (a local header reached via an include search path
		// rooted at the project) and verbatim; a genuine system header
		// simply won't be in the index either way.
		return []string{filepath.ToSlash(imp.Source)}
	case "zig":
		if !imp.IsRelative {
			return nil // package dependency (build.zig.zon), not a project file
		}
		return []string{filepath.ToSlash(filepath.Join(dir, imp.Source))}
	default:
		return nil
	}
}

// resolveRustImport handles the three path forms a Rust "use" can take:
// "crate::" rooted at the project root, "self::"/"super::" walked
// relative to the current file's directory, and anything else (an
// external crate name) left unresolved.
func resolveRustImport(dir, source string) []string {
	segs := strings.Split(source, "::")
	if len(segs) == 0 || segs[0] == "" {
		return nil
	}
	base := dir
	start := 0
	switch segs[0] {
	case "crate":
		base = "."
		start = 1
	case "self":
		start = 1
	case "super":
		for start < len(segs) && segs[start] == "super" {
			base = filepath.Dir(base)
			start++
		}
	default:
		return nil
	}
	if start >= len(segs) {
		return nil
	}
	rel := strings.Join(segs[start:], "/")
	path := filepath.ToSlash(filepath.Join(base, rel))
	return []string{path + ".rs", path + "/mod.rs"}
}

// lastPathSegment returns the final "/"-separated component of s.
func lastPathSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// filesInDir returns every indexed file whose containing directory's
// base name is dirName, sorted for deterministic tier 1 matching order.
func (idx *Index) filesInDir(dirName string) []string {
	if dirName == "" {
		return nil
	}
	var out []string
	for file := range idx.files {
		if filepath.Base(filepath.Dir(file)) == dirName {
			out = append(out, file)
		}
	}
	sort.Strings(out)
	return out
}
