package discover

// WhereResult is `where HASH`'s wire shape: the bare location of a
// node, with no traversal. Kept separate from DiscoverResult since
// `where` is meant to be the cheap one-hop lookup an agent reaches for
// when it just needs a file:line, not a BFS context pull.
type WhereResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Node NodeInfo `json:"node"`
}

// Where locates a node by hash.
func (e *Engine) Where(hash string) (*WhereResult, error) {
	node, err := e.Store.FindNodeByHash(hash)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, errNotFound(hash)
	}
	return &WhereResult{Version: ResultVersion, Command: "where", Node: nodeInfo(node)}, nil
}
