// Package repository persists content records.
package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/model"
)

var ErrNotFound = errors.New("record not found")

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// ListOptions narrows a collection after it is loaded. Where matches field values by
// their string form.
type ListOptions struct {
	Limit     int
	Published *bool
	Where     map[string]string
}

type RecordRepository interface {
	List(ctx context.Context, kind model.Kind, opts ListOptions) ([]model.ContentRecord, error)
	Get(ctx context.Context, kind model.Kind, id model.RecordID) (*model.ContentRecord, error)
	Create(ctx context.Context, record *model.ContentRecord) error
	Update(ctx context.Context, record *model.ContentRecord) error
	Delete(ctx context.Context, kind model.Kind, id model.RecordID) error

	// SetChangeNotifier sets a function that is called after every committed change.
	SetChangeNotifier(notifier func(model.ChangeEvent))
}

// Apply filters records in order and truncates to Limit.
func (o ListOptions) Apply(records []model.ContentRecord) []model.ContentRecord {
	out := make([]model.ContentRecord, 0, len(records))
	for _, r := range records {
		if o.Published != nil && r.Fields.Bool("published") != *o.Published {
			continue
		}
		if !o.matches(r.Fields) {
			continue
		}
		out = append(out, r)
		if o.Limit > 0 && len(out) == o.Limit {
			break
		}
	}
	return out
}

func (o ListOptions) matches(f model.Fields) bool {
	for name, want := range o.Where {
		switch v := f[name].(type) {
		case bool:
			b, err := strconv.ParseBool(want)
			if err != nil || b != v {
				return false
			}
		default:
			if !strings.EqualFold(f.String(name), want) {
				return false
			}
		}
	}
	return true
}
