package ecs

// intersect returns slot ids present in both sets, iterating the smaller one.
// The result is a copy so callers may mutate the sets while walking it.
func intersect(a, b *SparseSet) []entityID {
	if a == nil || b == nil {
		return nil
	}
	if len(a.denseEntities) > len(b.denseEntities) {
		a, b = b, a
	}
	out := make([]entityID, 0, len(a.denseEntities))
	for _, id := range a.denseEntities {
		if b.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
