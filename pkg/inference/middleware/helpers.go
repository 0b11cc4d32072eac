package middleware

import (
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// SnapshotBlockIDs captures the set of block IDs currently present on a Turn.
func SnapshotBlockIDs(t *turns.Turn) map[string]struct{} {
	ids := make(map[string]struct{}, 16)
	if t == nil {
		return ids
	}
	for _, b := range t.Blocks {
		if b.ID == "" {
			continue
		}
		ids[b.ID] = struct{}{}
	}
	return ids
}

// NewBlocksNotIn returns the blocks of t whose IDs are not in baseline.
// Blocks without an ID cannot be diffed and are skipped.
func NewBlocksNotIn(t *turns.Turn, baseline map[string]struct{}) []turns.Block {
	if t == nil {
		return nil
	}
	if baseline == nil {
		return append([]turns.Block(nil), t.Blocks...)
	}
	added := make([]turns.Block, 0)
	for _, b := range t.Blocks {
		if b.ID == "" {
			continue
		}
		if _, ok := baseline[b.ID]; !ok {
			added = append(added, b)
		}
	}
	return added
}
