package admin

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/debemdeboas/folio/internal/model"
)

type Identifiable interface {
	RecordID() string
}

// Change is a mutation outcome a list view reconciles against. Item is nil for
// deletes and for servers that answered without a body.
type Change[T Identifiable] struct {
	Op   model.ChangeOp
	ID   string
	Item *T
	Err  error
}

// ListView keeps the loaded collection of one resource. Filtering works on the
// loaded copy only; fetching happens in Load alone.
type ListView[T Identifiable] struct {
	fetch func(ctx context.Context) ([]T, error)

	mu     sync.RWMutex
	items  []T
	filter func(T) bool
	err    *LoadError
	loaded bool
}

func NewListView[T Identifiable](fetch func(ctx context.Context) ([]T, error)) *ListView[T] {
	return &ListView[T]{fetch: fetch}
}

// Load fetches the whole collection and makes it the local copy. On failure the
// previous copy is kept and Err reports the failure until a later load succeeds.
func (v *ListView[T]) Load(ctx context.Context) error {
	items, err := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = &LoadError{Err: err}
		adminLogger.Warn().Err(err).Msg("List load failed")
		return v.err
	}
	v.items = items
	v.err = nil
	v.loaded = true
	return nil
}

func (v *ListView[T]) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// Err returns the persistent *LoadError of the last load, if it failed.
func (v *ListView[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.err == nil {
		return nil
	}
	return v.err
}

func (v *ListView[T]) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

func (v *ListView[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.items)
}

func (v *ListView[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// Filter sets the predicate Visible applies. A nil predicate shows everything.
func (v *ListView[T]) Filter(predicate func(T) bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = predicate
}

func (v *ListView[T]) Visible() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.filter == nil {
		return slices.Clone(v.items)
	}
	out := make([]T, 0, len(v.items))
	for _, item := range v.items {
		if v.filter(item) {
			out = append(out, item)
		}
	}
	return out
}

// ApplyMutation reconciles the local copy with a successful mutation: creates
// append, updates replace by id and deletes remove by id. Failed changes are
// ignored. A create without an id is always appended.
func (v *ListView[T]) ApplyMutation(c Change[T]) {
	if c.Err != nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := c.ID
	if c.Item != nil {
		id = (*c.Item).RecordID()
	}
	idx := -1
	if id != "" {
		idx = slices.IndexFunc(v.items, func(item T) bool { return item.RecordID() == id })
	}

	switch c.Op {
	case model.OpCreated:
		if c.Item == nil {
			return
		}
		if idx >= 0 {
			v.items[idx] = *c.Item
			return
		}
		v.items = append(v.items, *c.Item)
	case model.OpUpdated:
		if c.Item != nil && idx >= 0 {
			v.items[idx] = *c.Item
		}
	case model.OpDeleted:
		if idx >= 0 {
			v.items = slices.Delete(v.items, idx, idx+1)
		}
	}
}

// FieldEquals builds a filter predicate matching a record field by its string form,
// ignoring case.
func FieldEquals(name, want string) func(model.ContentRecord) bool {
	return func(r model.ContentRecord) bool {
		return strings.EqualFold(r.Fields.String(name), want)
	}
}

// AllOf combines predicates; records must satisfy every one.
func AllOf[T any](predicates ...func(T) bool) func(T) bool {
	return func(item T) bool {
		for _, p := range predicates {
			if !p(item) {
				return false
			}
		}
		return true
	}
}
