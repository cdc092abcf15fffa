// Package model defines core data structures and types for the portfolio content store.
package model

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"
	"time"
)

type Kind string

// ImageURLField is the draft field that carries a record's image URL before it is
// lifted into ContentRecord.ImageURL.
const ImageURLField = "imageUrl"

type RecordID string

type UserID string

// Fields holds the scalar and array values of one record, keyed by field name.
type Fields map[string]any

type ContentRecord struct {
	ID        RecordID   `json:"id"`
	Kind      Kind       `json:"kind,omitempty"`
	Fields    Fields     `json:"fields"`
	ImageURL  string     `json:"imageUrl,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`

	// Hash of the stored fields blob, used to detect changes between reloads.
	FieldsHash string `json:"-"`

	Owner UserID `json:"-"`
}

func (r ContentRecord) RecordID() string {
	return string(r.ID)
}

func (r *ContentRecord) Clone() *ContentRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Fields = r.Fields.Clone()
	return &c
}

func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	c := make(Fields, len(f))
	for k, v := range f {
		if arr, ok := v.([]any); ok {
			v = append([]any(nil), arr...)
		} else if arr, ok := v.([]string); ok {
			v = append([]string(nil), arr...)
		}
		c[k] = v
	}
	return c
}

// Merge returns a copy of f overlaid with every key in other.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	maps.Copy(out, other)
	return out
}

func (f Fields) String(name string) string {
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []any, []string:
		return strings.Join(f.Strings(name), ",")
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (f Fields) Bool(name string) bool {
	switch v := f[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Int reports the integer value of a field and whether it holds a whole number.
func (f Fields) Int(name string) (int64, bool) {
	switch v := f[name].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func (f Fields) Strings(name string) []string {
	switch v := f[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether a field is absent or holds an empty value.
func (f Fields) IsEmpty(name string) bool {
	switch v := f[name].(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
