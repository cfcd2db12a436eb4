package router

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ParamParser converts string parameters into typed struct fields.
type ParamParser struct{}

// NewParamParser creates a new parameter parser.
func NewParamParser() *ParamParser {
	return &ParamParser{}
}

// Bind populates target, a pointer to a struct, from path parameters
// (`param:"name"` tags) and query values (`query:"name"` tags). Fields whose
// key is absent keep their value.
//
//	var p struct {
//	    Body string `param:"body"`
//	    Zoom int    `query:"zoom"`
//	}
//	err := req.Bind(&p)
func (p *ParamParser) Bind(params, query map[string]string, target any) error {
	if target == nil {
		return nil
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer, got %s", v.Kind())
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct, got pointer to %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		source, tag, name := params, "param", field.Tag.Get("param")
		if name == "" {
			source, tag, name = query, "query", field.Tag.Get("query")
		}
		if name == "" {
			continue
		}

		value, ok := source[name]
		if !ok {
			continue
		}
		fieldValue := v.Field(i)
		if !fieldValue.CanSet() {
			continue
		}
		if err := p.setField(fieldValue, value); err != nil {
			return fmt.Errorf("parsing %s %q: %w", tag, name, err)
		}
	}
	return nil
}

// setField sets a field value from a string.
func (p *ParamParser) setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type().Elem().Kind())
		}
		// "a,b,c" → ["a", "b", "c"]
		var parts []string
		if value != "" {
			parts = strings.Split(value, ",")
		}
		field.Set(reflect.ValueOf(parts))

	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}
	return nil
}
