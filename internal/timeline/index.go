package timeline

import (
	"fmt"
	"sort"
	"time"

	"flowlens/internal/changelog"
)

// Index holds the entities of one report generation, keyed by issue key.
// It is read-only once built and safe for concurrent use.
type Index struct {
	entities map[string]*Entity
	order    []string
}

// NewIndex builds entities for every history, failing on the first contract violation.
func NewIndex(histories []changelog.History) (*Index, error) {
	ix := &Index{entities: make(map[string]*Entity, len(histories))}
	for _, h := range histories {
		if _, dup := ix.entities[h.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate history for %s", ErrContractViolation, h.Key)
		}
		e, err := NewEntity(h)
		if err != nil {
			return nil, err
		}
		ix.entities[h.Key] = e
		ix.order = append(ix.order, h.Key)
	}
	sort.Strings(ix.order)
	return ix, nil
}

// Get returns the entity for key.
func (ix *Index) Get(key string) (*Entity, bool) {
	e, ok := ix.entities[key]
	return e, ok
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int { return len(ix.entities) }

// Entities returns all entities in key order.
func (ix *Index) Entities() []*Entity {
	out := make([]*Entity, 0, len(ix.order))
	for _, k := range ix.order {
		out = append(out, ix.entities[k])
	}
	return out
}

// Select returns the entities for keys, skipping unknown ones.
func (ix *Index) Select(keys []string) []*Entity {
	out := make([]*Entity, 0, len(keys))
	for _, k := range keys {
		if e, ok := ix.entities[k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// MembersAt resolves root's members at t to indexed entities. Members that
// were never fetched are left out.
func (ix *Index) MembersAt(root *Entity, t time.Time) []*Entity {
	return ix.Select(root.Membership().MembersAt(t))
}
