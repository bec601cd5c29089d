package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// FieldKind describes how a mutable field is decoded and stored.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldOptionalText
	FieldBool
	FieldDate
	FieldPriority
	FieldColor
)

// FieldSpec is the schema entry for one mutable column.
type FieldSpec struct {
	Column string
	Kind   FieldKind
	MaxLen int
}

// Schema lists the fields a client may change on an entity, keyed by JSON name.
type Schema map[string]FieldSpec

// Field is one validated column assignment.
type Field struct {
	Name   string
	Column string
	Value  any
}

// FieldSet is a validated partial update. Fields are kept in name order so
// rendered statements are stable.
type FieldSet struct {
	fields []Field
}

var (
	TaskFields = Schema{
		"title":       {Column: "title", Kind: FieldText, MaxLen: 255},
		"description": {Column: "description", Kind: FieldOptionalText, MaxLen: 10000},
		"priority":    {Column: "priority", Kind: FieldPriority},
		"due_date":    {Column: "due_date", Kind: FieldDate},
	}
	ProjectFields = Schema{
		"name":        {Column: "name", Kind: FieldText, MaxLen: 100},
		"description": {Column: "description", Kind: FieldOptionalText, MaxLen: 10000},
		"color":       {Column: "color", Kind: FieldColor},
	}
	ChecklistFields = Schema{
		"title":        {Column: "title", Kind: FieldText, MaxLen: 255},
		"is_completed": {Column: "is_completed", Kind: FieldBool},
	}
)

// Parse validates raw JSON values against the schema. Ordering fields are not
// part of any schema; callers take them out of raw first.
func (s Schema) Parse(raw map[string]any) (FieldSet, error) {
	var set FieldSet
	for name, value := range raw {
		spec, ok := s[name]
		if !ok {
			return FieldSet{}, Invalid(name, "unknown field")
		}
		v, err := spec.convert(name, value)
		if err != nil {
			return FieldSet{}, err
		}
		set.fields = append(set.fields, Field{Name: name, Column: spec.Column, Value: v})
	}
	sort.Slice(set.fields, func(i, j int) bool { return set.fields[i].Name < set.fields[j].Name })
	return set, nil
}

func (spec FieldSpec) convert(name string, value any) (any, error) {
	switch spec.Kind {
	case FieldText:
		str, ok := value.(string)
		if !ok {
			return nil, Invalid(name, "must be a string")
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil, Invalid(name, "must not be empty")
		}
		if spec.MaxLen > 0 && utf8.RuneCountInString(str) > spec.MaxLen {
			return nil, Invalid(name, "must be at most %d characters", spec.MaxLen)
		}
		return str, nil
	case FieldOptionalText:
		if value == nil {
			return nil, nil
		}
		str, ok := value.(string)
		if !ok {
			return nil, Invalid(name, "must be a string or null")
		}
		if spec.MaxLen > 0 && utf8.RuneCountInString(str) > spec.MaxLen {
			return nil, Invalid(name, "must be at most %d characters", spec.MaxLen)
		}
		return str, nil
	case FieldBool:
		b, ok := value.(bool)
		if !ok {
			return nil, Invalid(name, "must be a boolean")
		}
		return b, nil
	case FieldDate:
		if value == nil {
			return nil, nil
		}
		str, ok := value.(string)
		if !ok {
			return nil, Invalid(name, "must be a date string or null")
		}
		t, err := ParseDate(str)
		if err != nil {
			return nil, Invalid(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		return t, nil
	case FieldColor:
		str, _ := value.(string)
		if !ValidColor(str) {
			return nil, Invalid(name, "must be a #rrggbb color")
		}
		return strings.ToLower(str), nil
	case FieldPriority:
		str, _ := value.(string)
		if !Priority(str).Valid() {
			return nil, Invalid(name, "unknown priority %q", str)
		}
		return str, nil
	}
	return nil, Invalid(name, "unsupported field")
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether s is a six digit hex color.
func ValidColor(s string) bool { return colorPattern.MatchString(s) }

// ParseDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// Len returns the number of assignments.
func (f FieldSet) Len() int { return len(f.fields) }

// Fields returns the assignments in name order.
func (f FieldSet) Fields() []Field { return append([]Field(nil), f.fields...) }

// Get returns the value assigned to name.
func (f FieldSet) Get(name string) (any, bool) {
	for _, field := range f.fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}
