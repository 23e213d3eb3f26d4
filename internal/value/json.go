package value

// ToJSON converts a Value into a plain Go value made of the types
// encoding/json knows how to marshal natively (spec.md section 6.2):
// records become ordered via a parallel key slice consumers can re-walk,
// but for JSON purposes a map[string]interface{} is sufficient since
// encoding/json does not preserve map key order on marshal — callers that
// need declaration-order output should walk Record.Names() directly rather
// than relying on json.Marshal's map iteration.
func ToJSON(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindDecimal:
		return v.Decimal
	case KindString:
		return v.Str
	case KindDate:
		return v.Str
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = ToJSON(e)
		}
		return out
	case KindRecord:
		out := make(map[string]interface{}, len(v.Record.names))
		for _, name := range v.Record.Names() {
			fv, _ := v.Record.Get(name)
			out[name] = ToJSON(fv)
		}
		return out
	default:
		return nil
	}
}

// RawRecord holds a Record's fields in declaration order and marshals them
// in that order (Go map marshaling sorts keys, so cmd/vague's final output
// uses this instead of a bare map for records).
type RawRecord struct {
	Names  []string
	Values map[string]interface{}
}

// NewRawRecord builds a RawRecord from a value.Record, recursing into
// nested records so the whole tree marshals in declaration order.
func NewRawRecord(r *Record) *RawRecord {
	rr := &RawRecord{Values: make(map[string]interface{})}
	for _, name := range r.Names() {
		fv, _ := r.Get(name)
		rr.Names = append(rr.Names, name)
		rr.Values[name] = rawValue(fv)
	}
	return rr
}

func rawValue(v Value) interface{} {
	switch v.Kind {
	case KindRecord:
		return NewRawRecord(v.Record)
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = rawValue(e)
		}
		return out
	default:
		return ToJSON(v)
	}
}

// MarshalJSON implements json.Marshaler, emitting fields in declaration
// order by hand-building the JSON object rather than delegating to a map.
func (rr *RawRecord) MarshalJSON() ([]byte, error) {
	return marshalOrdered(rr.Names, rr.Values)
}
