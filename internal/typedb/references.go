package typedb

import "sort"

// tracker records reference edges from members to the symbols their types mention.
type tracker struct {
	reg *registry
}

// track adds one edge of kind from referencerID to every symbol appearing in
// sig, nested container arguments included. Returns the number of new edges.
func (t *tracker) track(kind ReferenceKind, referencerID int, sig *TypeSignature) int {
	if sig == nil || len(sig.Refs) == 0 {
		return 0
	}

	// Map order is random; sort so reference lists are reproducible.
	ids := make([]int, 0, len(sig.Refs))
	for _, id := range sig.Refs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	added := 0
	ref := Reference{ReferencerID: referencerID, Kind: kind}
	for _, id := range ids {
		if id < 0 || id >= len(t.reg.symbols) {
			continue
		}
		if t.reg.addReference(t.reg.symbols[id], ref) {
			added++
		}
	}
	return added
}
