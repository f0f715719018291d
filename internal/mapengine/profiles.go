package mapengine

import (
	"sort"

	"github.com/surgebase/porter2"

	"github.com/standardbeagle/keel/internal/namewords"
	"github.com/standardbeagle/keel/internal/types"
)

// responsibilityWordCount caps how many stemmed keywords a module
// profile carries, keeping placement/cross-module-impact prompts short
// enough for token-budgeted consumption.
const responsibilityWordCount = 8

// stopWords is trimmed to the generic function-name/docstring noise
// that would otherwise dominate every module's top keywords regardless
// of what the module actually does.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "to": true, "and": true,
	"or": true, "for": true, "is": true, "are": true, "with": true, "on": true,
	"in": true, "it": true, "this": true, "that": true, "if": true, "not": true,
	"returns": true, "return": true, "param": true, "params": true, "value": true,
	"get": true, "set": true, "new": true, "func": true, "function": true,
}

// functionNamePrefixes returns the distinct first-segment prefix of
// every function name in defs (§4.5 step 5: "function-name prefixes
// come from splitting names on case/underscore boundaries").
func functionNamePrefixes(defs []types.Definition) []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range defs {
		if d.Kind != types.NodeKindFunction {
			continue
		}
		words := namewords.Split(d.Name)
		if len(words) == 0 {
			continue
		}
		if !seen[words[0]] {
			seen[words[0]] = true
			out = append(out, words[0])
		}
	}
	sort.Strings(out)
	return out
}

// responsibilityKeywords derives a module's top stemmed keywords from
// its docstrings and function-name segments (§9's open question:
// "token frequency across docstrings plus function-name segments, with
// stop-word filtering" — the reference heuristic this adopts verbatim).
func responsibilityKeywords(defs []types.Definition) []string {
	freq := map[string]int{}
	add := func(s string) {
		for _, w := range namewords.Split(s) {
			if len(w) < 3 || stopWords[w] {
				continue
			}
			freq[porter2.Stem(w)]++
		}
	}
	for _, d := range defs {
		add(d.Name)
		add(d.Docstring)
	}

	type kv struct {
		word  string
		count int
	}
	ranked := make([]kv, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, kv{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	n := responsibilityWordCount
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].word
	}
	return out
}

// buildModuleProfile computes the per-module summary for one parsed file
// (§3 ModuleProfile, §4.5 step 5). Each parsed file is its own module
// (§4.2), so the profile's population is exactly that file's
// definitions and imports.
func buildModuleProfile(moduleID int64, pf *types.ParseResult) types.ModuleProfile {
	functionDefs := make([]types.Definition, 0, len(pf.Definitions))
	for _, d := range pf.Definitions {
		if d.Kind == types.NodeKindFunction {
			functionDefs = append(functionDefs, d)
		}
	}

	importSources := make([]string, 0, len(pf.Imports))
	for _, imp := range pf.Imports {
		importSources = append(importSources, imp.Source)
	}

	externalEndpoints := 0
	for _, d := range pf.Definitions {
		externalEndpoints += len(d.Endpoints)
	}

	return types.ModuleProfile{
		ModuleID:              moduleID,
		Path:                  pf.File,
		FunctionCount:         len(functionDefs),
		ClassCount:            0, // no class-kind extraction yet; see DESIGN.md
		LineCount:             pf.LineCount,
		FunctionNamePrefixes:  functionNamePrefixes(pf.Definitions),
		PrimaryTypeNames:      nil,
		ImportSources:         importSources,
		ExportTargets:         nil,
		ExternalEndpointCount: externalEndpoints,
		ResponsibilityWords:   responsibilityKeywords(pf.Definitions),
	}
}
