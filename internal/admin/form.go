package admin

import (
	"net/http"
	"net/url"

	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/util"
)

// Form holds the draft of one record. It never touches the network.
type Form struct {
	schema  *content.Schema
	id      model.RecordID
	editing bool
	draft   model.Fields

	// userSet marks derived fields the user assigned directly.
	userSet     map[string]bool
	lastDerived map[string]string
}

// NewForm starts a create draft from the schema defaults when initial is nil, or an
// edit draft holding a copy of initial's fields.
func NewForm(schema *content.Schema, initial *model.ContentRecord) *Form {
	f := &Form{
		schema:      schema,
		userSet:     map[string]bool{},
		lastDerived: map[string]string{},
	}
	if initial == nil {
		f.draft = schema.Defaults()
		return f
	}

	f.editing = true
	f.id = initial.ID
	f.draft = schema.Defaults().Merge(initial.Fields)
	if initial.ImageURL != "" {
		f.draft[model.ImageURLField] = initial.ImageURL
	}
	return f
}

func (f *Form) Schema() *content.Schema {
	return f.schema
}

func (f *Form) Editing() bool {
	return f.editing
}

func (f *Form) ID() model.RecordID {
	return f.id
}

func (f *Form) Get(name string) any {
	return f.draft[name]
}

// Draft returns a copy of the current field values.
func (f *Form) Draft() model.Fields {
	return f.draft.Clone()
}

// SetField stores value, coerced to the field's type. On a create draft, fields
// derived from name follow it until the user sets them directly.
func (f *Form) SetField(name string, value any) {
	value = f.schema.Coerce(name, value)
	f.draft[name] = value

	if field, ok := f.schema.Field(name); ok && field.DerivedFrom != "" {
		f.userSet[name] = true
	}
	if f.editing {
		return
	}

	for _, derived := range f.schema.Derived(name) {
		if f.userSet[derived.Name] {
			continue
		}
		current := f.draft.String(derived.Name)
		if current != "" && current != f.lastDerived[derived.Name] {
			continue
		}
		next := util.Slugify(f.draft.String(name))
		f.draft[derived.Name] = next
		f.lastDerived[derived.Name] = next
	}
}

// Validate returns every failing constraint; an empty result means submittable.
func (f *Form) Validate() []content.Violation {
	return f.schema.Validate(f.draft)
}

// Endpoint and Method address the request that persists this draft.
func (f *Form) Endpoint() string {
	if f.editing {
		return f.schema.Endpoint() + "/" + url.PathEscape(string(f.id))
	}
	return f.schema.Endpoint()
}

func (f *Form) Method() string {
	if f.editing {
		return http.MethodPatch
	}
	return http.MethodPost
}

// Submission freezes the draft into the payload variant matching the staged image:
// multipart when a file is staged, JSON otherwise. It refuses while an eager upload
// is running and while the draft is invalid.
func (f *Form) Submission(stager *ImageStager) (Submission, error) {
	if stager != nil && stager.Uploading() {
		return nil, ErrUploadInFlight
	}
	if violations := f.Validate(); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	fields := f.Draft()
	if stager != nil {
		if img := stager.Pending(); img != nil {
			delete(fields, stager.Field())
			return MultipartPayload{Fields: fields, Image: *img}, nil
		}
	}
	return JSONPayload{Fields: fields}, nil
}
