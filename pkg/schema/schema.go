// Package schema derives JSON Schema documents from Go types using their json
// tags plus a few constraint tags (enum, format, minimum, maximum,
// description).
package schema

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Draft is the $schema URI stamped on generated documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Option configures Generate.
type Option func(*config)

type config struct {
	title       string
	id          string
	description string
}

func WithTitle(title string) Option {
	return func(cfg *config) { cfg.title = title }
}

func WithID(id string) Option {
	return func(cfg *config) { cfg.id = id }
}

func WithDescription(description string) Option {
	return func(cfg *config) { cfg.description = description }
}

// Generate returns a schema for the type of value. Only the type matters, so
// empty slices and maps still describe their elements.
func Generate(value any, opts ...Option) (map[string]any, error) {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if value == nil {
		return nil, fmt.Errorf("schema: value is nil")
	}
	root, err := build(reflect.TypeOf(value), map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	root["$schema"] = Draft
	if cfg.id != "" {
		root["$id"] = cfg.id
	}
	if cfg.title != "" {
		root["title"] = cfg.title
	}
	if cfg.description != "" {
		root["description"] = cfg.description
	}
	return root, nil
}

func build(rt reflect.Type, visiting map[reflect.Type]bool) (map[string]any, error) {
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if rt == timeType {
		return map[string]any{"type": "string", "format": "date-time"}, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Interface:
		return map[string]any{}, nil
	case reflect.Struct:
		if rt.Implements(textMarshalerType) {
			return map[string]any{"type": "string"}, nil
		}
		if visiting[rt] {
			return nil, fmt.Errorf("schema: recursive type %s unsupported", rt)
		}
		visiting[rt] = true
		defer delete(visiting, rt)
		return buildStruct(rt, visiting)
	case reflect.Map:
		if rt.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("schema: map key type %s unsupported", rt.Key())
		}
		values, err := build(rt.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": values}, nil
	case reflect.Slice, reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}, nil
		}
		items, err := build(rt.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "array", "items": items}, nil
	default:
		return nil, fmt.Errorf("schema: kind %s unsupported", rt.Kind())
	}
}

func buildStruct(rt reflect.Type, visiting map[reflect.Type]bool) (map[string]any, error) {
	properties := map[string]any{}
	var required []string

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		child, err := build(field.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", field.Name, err)
		}
		if err := applyFieldTags(child, field); err != nil {
			return nil, err
		}
		properties[name] = child
		if !omitEmpty && field.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	node := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		sort.Strings(required)
		node["required"] = required
	}
	return node, nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false, false
	}
	segments := strings.Split(tag, ",")
	if segments[0] == "-" {
		return "", false, true
	}
	name = segments[0]
	if name == "" {
		name = field.Name
	}
	for _, segment := range segments[1:] {
		if segment == "omitempty" || segment == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func applyFieldTags(node map[string]any, field reflect.StructField) error {
	if description := field.Tag.Get("description"); description != "" {
		node["description"] = description
	}
	if format := field.Tag.Get("format"); format != "" {
		node["format"] = format
	}
	if enum := field.Tag.Get("enum"); enum != "" {
		var values []any
		for _, value := range strings.Split(enum, ",") {
			values = append(values, strings.TrimSpace(value))
		}
		node["enum"] = values
	}
	for _, key := range []string{"minimum", "maximum"} {
		raw := field.Tag.Get(key)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("schema: parse %s for field %s: %w", key, field.Name, err)
		}
		node[key] = value
	}
	return nil
}
