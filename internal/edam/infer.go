package edam

import "github.com/zclconf/go-cty/cty"

// Datatype tags assigned by inference.
const (
	DatatypeBool = "bool"
	DatatypeInt  = "int"
	DatatypeReal = "real"
	DatatypeStr  = "str"
)

// InferDatatype derives a datatype tag from an untyped value. Numbers are
// arbitrary precision, so an integral value is tagged "int" and anything
// with a fractional part "real". Null and unknown values degrade to "str".
func InferDatatype(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return DatatypeStr
	}
	switch v.Type() {
	case cty.Bool:
		return DatatypeBool
	case cty.Number:
		if v.AsBigFloat().IsInt() {
			return DatatypeInt
		}
		return DatatypeReal
	default:
		return DatatypeStr
	}
}

// ValueToGo converts a value to its native Go representation for storage
// in the descriptor. Integral numbers become int64 so the serialized form
// reads as an integer; objects and maps become map[string]any, sequences
// []any.
func ValueToGo(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i
		}
		f, _ := bf.Float64()
		return f
	case ty == cty.String:
		return v.AsString()
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			out[k.AsString()] = ValueToGo(elem)
		}
		return out
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			out = append(out, ValueToGo(elem))
		}
		return out
	default:
		return v.GoString()
	}
}
