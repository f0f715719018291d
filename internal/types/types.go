// Package types defines the shared data model used across the parsing,
// resolution, storage, and enforcement layers: graph nodes and edges,
// module profiles, and the ephemeral per-file structures produced by the
// parser front end.
package types

// NodeKind identifies what a GraphNode represents.
type NodeKind string

const (
	NodeKindModule   NodeKind = "module"
	NodeKindClass    NodeKind = "class"
	NodeKindFunction NodeKind = "function"
)

// EdgeKind identifies the relationship a GraphEdge represents.
type EdgeKind string

const (
	EdgeKindCalls    EdgeKind = "calls"
	EdgeKindImports  EdgeKind = "imports"
	EdgeKindInherits EdgeKind = "inherits"
	EdgeKindContains EdgeKind = "contains"
)

// Endpoint is an external HTTP route or RPC method surfaced by a definition.
type Endpoint struct {
	Kind   string // "http" or "rpc"
	Method string // GET, POST, ... or RPC method name
	Path   string
}

// GraphNode is a module, class, or function tracked in the graph.
type GraphNode struct {
	ID              int64
	Kind            NodeKind
	Hash            string // 11-character content hash, unique with Name
	Name            string
	Signature       string
	File            string // repository-relative path
	LineStart       int
	LineEnd         int
	Docstring       string
	IsPublic        bool
	TypeHintsOK     bool
	HasDocstring    bool
	ModuleID        int64 // 0 if none
	Package         string
	PreviousHashes  []string // newest first, capped at 3
	Endpoints       []Endpoint
}

// GraphEdge is a directed relationship between two nodes.
type GraphEdge struct {
	ID         int64
	SourceID   int64
	TargetID   int64
	Kind       EdgeKind
	File       string
	Line       int
	Confidence float64
}

// ModuleProfile is a derived per-module summary consumed by placement
// checks, naming suggestions, and module-context assembly.
type ModuleProfile struct {
	ModuleID              int64
	Path                  string
	FunctionCount         int
	ClassCount            int
	LineCount             int
	FunctionNamePrefixes  []string
	PrimaryTypeNames      []string
	ImportSources         []string
	ExportTargets         []string
	ExternalEndpointCount int
	ResponsibilityWords   []string
}

// Definition is a single parsed definition (function, method, class, or
// the implicit file module) before it is hashed into a GraphNode.
type Definition struct {
	Name         string
	Kind         NodeKind
	Signature    string
	Body         string // retained only long enough to compute the node hash
	LineStart    int
	LineEnd      int
	Docstring    string
	IsPublic     bool
	TypeHintsOK  bool
	Package      string
	Endpoints    []Endpoint
}

// ReferenceKind identifies what kind of reference a Reference represents.
type ReferenceKind string

const (
	ReferenceKindCall     ReferenceKind = "call"
	ReferenceKindImport   ReferenceKind = "import"
	ReferenceKindTypeRef  ReferenceKind = "type_ref"
	ReferenceKindReExport ReferenceKind = "re_export"
)

// Reference is an unresolved (or pre-resolved) use of a name.
type Reference struct {
	Name         string
	File         string
	Line         int
	Kind         ReferenceKind
	ArgCount     int    // for call references, -1 if not parseable
	Receiver     string // for method calls: the static receiver type name, if known
	ResolvedHash string // already-resolved target hash, if any

	// ReceiverViaGenericBound is set when Receiver was reached by
	// resolving a generic type parameter to its bound trait/interface
	// (e.g. "t.Area()" inside "func Foo[T Shape](t T)" resolves
	// Receiver to "Shape" through T), rather than to a concrete type
	// the call-site variable is directly declared as. Tier 2 treats
	// this case as interface satisfaction rather than a direct method
	// lookup.
	ReceiverViaGenericBound bool
}

// Import is a parsed import/use/require statement.
type Import struct {
	Source       string // raw import string as written
	Names        []string
	IsWildcard   bool
	IsBlank      bool
	IsDot        bool
	IsRelative   bool
	File         string
	Line         int
}

const (
	WildcardMarker = "*"
	BlankMarker    = "_"
	DotMarker      = "."
)

// ParseResult is the per-file output of the parser front end.
type ParseResult struct {
	Language    string
	File        string
	Content     []byte
	LineCount   int
	Definitions []Definition
	References  []Reference
	Imports     []Import
	Endpoints   []Endpoint
	Types       []TypeDecl
}

// TypeParam is one generic type parameter and the trait/interface names
// it is bound by (a Go "[T Shape]" constraint, a Rust/TypeScript
// "<T: Shape>"/"<T extends Shape>" bound, or a C#/Rust "where T: Shape"
// clause).
type TypeParam struct {
	Name   string
	Bounds []string
}

// TypeDecl is a parsed struct/interface (or closest per-language
// equivalent) declaration: everything tier 2's structural resolution
// needs beyond the flat per-definition method list — composition,
// trait requirements, and generic bounds.
type TypeDecl struct {
	Name        string
	IsInterface bool
	Embeds      []string // embedded/composed types (struct embedding, interface embedding)
	Supertraits []string // explicit supertrait list, where a language distinguishes it from Embeds
	Methods     []string // interface/trait's own required method names
	TypeParams  []TypeParam
}

// FileIndex is the ephemeral per-file parse output used at the
// parser<->enforcement boundary.
type FileIndex struct {
	File        string
	ContentHash string
	Definitions []Definition
	References  []Reference
	Imports     []Import
	Endpoints   []Endpoint
}

// CircuitBreakerEntry tracks consecutive failures for a (code, hash) pair.
type CircuitBreakerEntry struct {
	Code               string
	Hash               string
	ConsecutiveFailures int
	LastFailureUnixNano int64
	Downgraded          bool
}

// ResolutionCacheEntry caches a Tier 3 resolution keyed by call-site
// fingerprint and source-file content hash.
type ResolutionCacheEntry struct {
	CallSiteFingerprint uint64
	SourceContentHash   string
	TargetNodeID        int64 // 0 if unresolved
	Confidence          float64
	Tier                string
	Provider            string
	TargetFile          string
	TargetName          string
}

// ViolationKey is the stable (code, hash, file, line) identity used by
// violation snapshots and delta computation.
type ViolationKey struct {
	Code string
	Hash string
	File string
	Line int
}

// ViolationSnapshot is a sorted set of violation keys plus counts,
// persisted to disk as an opaque blob and consumed only by delta logic.
type ViolationSnapshot struct {
	Keys        []ViolationKey
	ErrorCount  int
	WarnCount   int
}
