package flow

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ToCtyValue converts a native Go value into its cty representation so step
// outputs can be referenced from later HCL expressions. Structs expose only
// fields carrying a cty tag; interface-typed leaves are converted from their
// concrete values.
func ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return cty.StringVal(rv.String()), nil
	case reflect.Bool:
		return cty.BoolVal(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cty.NumberIntVal(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cty.NumberUIntVal(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return cty.NumberFloatVal(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := ToCtyValue(rv.Index(i).Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
		}
		return cty.TupleVal(elems), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return cty.NilVal, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		attrs := make(map[string]cty.Value, rv.Len())
		for _, key := range rv.MapKeys() {
			val, err := ToCtyValue(rv.MapIndex(key).Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", key.String(), err)
			}
			attrs[key.String()] = val
		}
		return cty.ObjectVal(attrs), nil
	case reflect.Struct:
		return structToCtyValue(rv)
	default:
		return cty.NilVal, fmt.Errorf("unsupported Go type %s", rv.Type())
	}
}

func structToCtyValue(rv reflect.Value) (cty.Value, error) {
	rt := rv.Type()
	attrs := make(map[string]cty.Value, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("cty"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		val, err := ToCtyValue(rv.Field(i).Interface())
		if err != nil {
			return cty.NilVal, fmt.Errorf("field %q: %w", name, err)
		}
		attrs[name] = val
	}
	return cty.ObjectVal(attrs), nil
}
