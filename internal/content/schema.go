// Package content describes the record kinds the admin manages: their fields,
// constraints and defaults. Both the server and the admin kit validate against it.
package content

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/util"
)

type FieldType int

const (
	Text FieldType = iota
	LongText
	Int
	Bool
	Tags
	URL
	Email
	Date
	Enum
	Slug
)

func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case LongText:
		return "long text"
	case Int:
		return "integer"
	case Bool:
		return "boolean"
	case Tags:
		return "tags"
	case URL:
		return "url"
	case Email:
		return "email"
	case Date:
		return "date"
	case Enum:
		return "enum"
	case Slug:
		return "slug"
	default:
		return "unknown"
	}
}

const DateLayout = "2006-01-02"

type Field struct {
	Name     string
	Type     FieldType
	Required bool
	MinLen   int
	// MinInt applies to Int fields only.
	MinInt  int64
	Options []string
	Default any
	// DerivedFrom names the field this one is slugified from while creating.
	DerivedFrom string
}

// Violation is one failing constraint of a draft.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Message
}

type Schema struct {
	Kind     model.Kind
	Singular string
	Fields   []Field
	// Filters lists the fields a list view may filter on locally.
	Filters []string
	// HasImage is set when records of this kind carry an image URL.
	HasImage bool
	// PublicCreate allows anonymous creation (contact form).
	PublicCreate bool
	// PrivateRead hides the collection from anonymous readers.
	PrivateRead bool
	// TitleField is shown in list tables and confirmation prompts.
	TitleField string
}

var validate = validator.New()

func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// AdminPath is where the admin lands after a successful mutation.
func (s *Schema) AdminPath() string {
	return "/admin/" + string(s.Kind)
}

func (s *Schema) Endpoint() string {
	return "/api/" + string(s.Kind)
}

func (s *Schema) Title(f model.Fields) string {
	if s.TitleField == "" {
		return ""
	}
	return f.String(s.TitleField)
}

// Defaults returns the empty draft of a new record.
func (s *Schema) Defaults() model.Fields {
	out := make(model.Fields, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case f.Default != nil:
			out[f.Name] = f.Default
		case f.Type == Bool:
			out[f.Name] = false
		case f.Type == Tags:
			out[f.Name] = []string{}
		case f.Type == Int:
			// left unset so a required integer is reported missing
		default:
			out[f.Name] = ""
		}
	}
	return out
}

// Derived returns the fields whose value follows source.
func (s *Schema) Derived(source string) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.DerivedFrom == source {
			out = append(out, f)
		}
	}
	return out
}

// Coerce converts loosely typed input (command line strings, form values) into the
// field's native representation. Values that cannot be converted are returned as-is
// so validation can report them.
func (s *Schema) Coerce(name string, value any) any {
	f, ok := s.Field(name)
	if !ok {
		return value
	}
	str, isString := value.(string)
	if !isString {
		return value
	}
	switch f.Type {
	case Int:
		if strings.TrimSpace(str) == "" {
			return nil
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil {
			return n
		}
	case Bool:
		if b, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
			return b
		}
	case Tags:
		tags := model.Fields{name: str}.Strings(name)
		if tags == nil {
			tags = []string{}
		}
		return tags
	}
	return value
}

// Normalize coerces every known field and fills derived fields that are still empty.
func (s *Schema) Normalize(fields model.Fields) model.Fields {
	out := fields.Clone()
	for name, v := range out {
		out[name] = s.Coerce(name, v)
	}
	for _, f := range s.Fields {
		if f.DerivedFrom != "" && out.IsEmpty(f.Name) {
			out[f.Name] = util.Slugify(out.String(f.DerivedFrom))
		}
	}
	return out
}

// Validate returns every failing constraint, in schema order. An empty result means
// the draft can be submitted.
func (s *Schema) Validate(fields model.Fields) []Violation {
	var out []Violation
	for _, f := range s.Fields {
		if msg := f.check(fields); msg != "" {
			out = append(out, Violation{Field: f.Name, Message: msg})
		}
	}
	return out
}

// Describe lists the human readable constraints of every field.
func (s *Schema) Describe() []Violation {
	var out []Violation
	for _, f := range s.Fields {
		for _, c := range f.Constraints() {
			out = append(out, Violation{Field: f.Name, Message: c})
		}
	}
	return out
}

func (f Field) Constraints() []string {
	var out []string
	if f.Required {
		out = append(out, fmt.Sprintf("%s is required", f.Name))
	}
	if f.MinLen > 0 {
		out = append(out, fmt.Sprintf("%s must be at least %d characters", f.Name, f.MinLen))
	}
	switch f.Type {
	case Int:
		out = append(out, f.intConstraint())
	case URL:
		out = append(out, fmt.Sprintf("%s must be a valid URL", f.Name))
	case Email:
		out = append(out, fmt.Sprintf("%s must be a valid email address", f.Name))
	case Date:
		out = append(out, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.Name))
	case Enum:
		out = append(out, fmt.Sprintf("%s must be one of %s", f.Name, strings.Join(f.Options, ", ")))
	case Slug:
		out = append(out, fmt.Sprintf("%s must contain only lowercase letters, numbers and dashes", f.Name))
	}
	return out
}

func (f Field) intConstraint() string {
	if f.MinInt == 1 {
		return fmt.Sprintf("%s must be a positive integer", f.Name)
	}
	return fmt.Sprintf("%s must be an integer of at least %d", f.Name, f.MinInt)
}

func (f Field) check(fields model.Fields) string {
	if fields.IsEmpty(f.Name) {
		if f.Required {
			return fmt.Sprintf("%s is required", f.Name)
		}
		return ""
	}

	switch f.Type {
	case Int:
		n, ok := fields.Int(f.Name)
		if !ok || n < f.MinInt {
			return f.intConstraint()
		}
		return ""
	case Bool:
		if _, ok := fields[f.Name].(bool); !ok {
			return fmt.Sprintf("%s must be true or false", f.Name)
		}
		return ""
	case Tags:
		switch fields[f.Name].(type) {
		case []any, []string:
			return ""
		default:
			return fmt.Sprintf("%s must be a list", f.Name)
		}
	}

	value, ok := fields[f.Name].(string)
	if !ok {
		return fmt.Sprintf("%s must be text", f.Name)
	}
	value = strings.TrimSpace(value)

	if f.MinLen > 0 && len([]rune(value)) < f.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", f.Name, f.MinLen)
	}

	var tag string
	switch f.Type {
	case URL:
		tag = "http_url"
	case Email:
		tag = "email"
	case Date:
		tag = "datetime=" + DateLayout
	case Enum:
		if !slices.Contains(f.Options, value) {
			return fmt.Sprintf("%s must be one of %s", f.Name, strings.Join(f.Options, ", "))
		}
	case Slug:
		if !util.IsSlug(value) {
			return fmt.Sprintf("%s must contain only lowercase letters, numbers and dashes", f.Name)
		}
	}
	if tag != "" {
		if err := validate.Var(value, tag); err != nil {
			return f.Constraints()[len(f.Constraints())-1]
		}
	}
	return ""
}
