package enforce

import "encoding/json"

// deferViolation appends one violation to the on-disk deferral buffer
// (§4.6 batch mode), surviving across the separate process invocations
// that `compile --batch-start` / `--batch-end` run as.
func (e *Engine) deferViolation(v Violation) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.Store.BatchDefer(string(b))
}

// drainBatch empties the deferral buffer and decodes every entry back
// into a Violation, in the order they were deferred.
func (e *Engine) drainBatch() ([]Violation, error) {
	raw, err := e.Store.BatchDrain()
	if err != nil {
		return nil, err
	}
	out := make([]Violation, 0, len(raw))
	for _, r := range raw {
		var v Violation
		if err := json.Unmarshal([]byte(r), &v); err != nil {
			continue // a corrupt buffer entry is dropped rather than aborting the drain
		}
		out = append(out, v)
	}
	return out, nil
}
