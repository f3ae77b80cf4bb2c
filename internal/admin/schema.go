// Package admin declares the games collection schema the way the CMS
// console defines it: a declarative field-descriptor list. The schema is
// checked against the Game entity shape at startup and validates admin
// create/update payloads at request time.
package admin

import (
	"fmt"
	"reflect"
	"sort"

	"retrodrome/backend/internal/platform"
)

// DataType is the declared type of a collection field.
type DataType string

const (
	TypeString      DataType = "string"
	TypeNumber      DataType = "number"
	TypeBoolean     DataType = "boolean"
	TypeStringArray DataType = "string[]"
)

// Field describes one editable property of a collection document.
type Field struct {
	Name     string // document field name
	GoField  string // corresponding field on the entity struct
	Type     DataType
	Required bool
	Enum     []string // allowed values; empty means unconstrained
	// StoragePath marks fields whose value is a reference into file
	// storage rather than inline content.
	StoragePath string
}

// Collection is a declarative description of one document collection.
type Collection struct {
	ID          string
	Name        string
	Description string
	Fields      []Field
}

// Games mirrors the CMS games collection definition.
var Games = Collection{
	ID:          "games",
	Name:        "Games",
	Description: "Manage your collection of retro video games.",
	Fields: []Field{
		{Name: "title", GoField: "Title", Type: TypeString, Required: true},
		{Name: "description", GoField: "Description", Type: TypeString, Required: true},
		{Name: "slug", GoField: "Slug", Type: TypeString, Required: true},
		{Name: "year", GoField: "Year", Type: TypeNumber, Required: true},
		{Name: "featured", GoField: "Featured", Type: TypeBoolean, Required: true},
		{Name: "platform", GoField: "Platform", Type: TypeString, Required: true, Enum: platform.IDs()},
		{Name: "romUrl", GoField: "RomURL", Type: TypeString, StoragePath: "/games/roms"},
		{Name: "screenshotUrl", GoField: "ScreenshotURL", Type: TypeString},
		{Name: "screenshots", GoField: "Screenshots", Type: TypeStringArray},
		{Name: "tags", GoField: "Tags", Type: TypeStringArray},
	},
}

// CheckModel verifies every descriptor maps to a field of the right kind
// on the entity struct. Called once at startup; a mismatch means the
// schema and the entity drifted apart.
func (c Collection) CheckModel(model interface{}) error {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("collection %s: model is not a struct", c.ID)
	}

	for _, f := range c.Fields {
		sf, ok := t.FieldByName(f.GoField)
		if !ok {
			return fmt.Errorf("collection %s: field %q has no model field %s", c.ID, f.Name, f.GoField)
		}
		if !kindMatches(f.Type, sf.Type.Kind()) {
			return fmt.Errorf("collection %s: field %q declared %s but model field %s is %s",
				c.ID, f.Name, f.Type, f.GoField, sf.Type.Kind())
		}
	}
	return nil
}

func kindMatches(dt DataType, kind reflect.Kind) bool {
	switch dt {
	case TypeString:
		return kind == reflect.String
	case TypeNumber:
		return kind == reflect.Int || kind == reflect.Float64
	case TypeBoolean:
		return kind == reflect.Bool
	case TypeStringArray:
		// Arrays are stored as JSON columns ([]byte under the hood).
		return kind == reflect.Slice
	default:
		return false
	}
}

// Validate checks an incoming document (decoded JSON) against the
// schema: required fields present, value types matching, enum membership
// respected, no fields outside the collection definition.
func (c Collection) Validate(doc map[string]interface{}) error {
	known := make(map[string]Field, len(c.Fields))
	for _, f := range c.Fields {
		known[f.Name] = f
	}

	var names []string
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, ok := known[name]
		if !ok {
			return fmt.Errorf("field %q is not part of the %s collection", name, c.ID)
		}
		if err := checkValue(f, doc[name]); err != nil {
			return err
		}
	}

	for _, f := range c.Fields {
		if !f.Required {
			continue
		}
		if _, ok := doc[f.Name]; !ok {
			return fmt.Errorf("field %q is required", f.Name)
		}
	}
	return nil
}

func checkValue(f Field, value interface{}) error {
	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %q must be a string", f.Name)
		}
		if f.Required && s == "" {
			return fmt.Errorf("field %q is required", f.Name)
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			return fmt.Errorf("field %q: %q is not an allowed value", f.Name, s)
		}
	case TypeNumber:
		switch value.(type) {
		case float64, int:
		default:
			return fmt.Errorf("field %q must be a number", f.Name)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", f.Name)
		}
	case TypeStringArray:
		arr, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("field %q must be an array of strings", f.Name)
		}
		for _, item := range arr {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("field %q must be an array of strings", f.Name)
			}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
