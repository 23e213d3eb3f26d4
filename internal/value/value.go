// Package value implements the tagged value model described in spec.md
// section 4.6: Null, Bool, Int, Decimal, String, Date, List, Record.
package value

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind tags a Value's variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindString
	KindDate
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is one tagged value variant. Exactly one of the typed fields is
// meaningful, selected by Kind; this mirrors a sum type without resorting to
// an interface{}-typed payload, keeping equality/ordering rules (section
// 4.6) exhaustive over a closed set of Kinds.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Decimal float64
	// DecimalPrecision records the digits requested by decimal(n); the
	// generator rounds Decimal to that many digits. ToJSON does not read it
	// and emits Decimal as a plain float64, so trailing zeros are not kept;
	// arithmetic always happens at full float64 width.
	DecimalPrecision int
	Str              string // also backs Date (ISO-8601)
	List             []Value
	Record           *Record
}

// Record is an ordered field-name -> Value mapping. Order is preserved for
// JSON emission (spec.md section 6.2): field generation order equals schema
// declaration order.
type Record struct {
	names  []string
	values map[string]Value
}

// NewRecord creates an empty ordered record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set inserts or overwrites a field, preserving first-insertion order.
func (r *Record) Set(name string, v Value) {
	if _, exists := r.values[name]; !exists {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns a field's value and whether it is present.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Delete removes a field (used to strip private fields before emission).
func (r *Record) Delete(name string) {
	if _, exists := r.values[name]; !exists {
		return
	}
	delete(r.values, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Names returns field names in declaration order.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Clone makes a shallow copy of the record (field values are value types or
// shared pointers, matching the "owning alias" model of section 9's design
// notes for `any of` bindings).
func (r *Record) Clone() *Record {
	clone := NewRecord()
	for _, n := range r.names {
		clone.Set(n, r.values[n])
	}
	return clone
}

// Constructors

func Null() Value                  { return Value{Kind: KindNull} }
func Bool(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value            { return Value{Kind: KindInt, Int: i} }
func Decimal(d float64) Value      { return Value{Kind: KindDecimal, Decimal: d} }
func DecimalP(d float64, p int) Value {
	return Value{Kind: KindDecimal, Decimal: d, DecimalPrecision: p}
}
func Str(s string) Value      { return Value{Kind: KindString, Str: s} }
func Date(iso string) Value   { return Value{Kind: KindDate, Str: iso} }
func List(vs []Value) Value   { return Value{Kind: KindList, List: vs} }
func Rec(r *Record) Value     { return Value{Kind: KindRecord, Record: r} }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsFloat promotes Int/Decimal to float64 and returns ok=false for other
// kinds (arithmetic on incompatible tags is a RuntimeError at the eval
// layer, not here).
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindDecimal:
		return v.Decimal, true
	default:
		return 0, false
	}
}

// Truthy reports the boolean interpretation used by guards and conditions.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNull:
		return false
	default:
		return true
	}
}

// Equal implements the cross-tag equality rules of spec.md section 4.6:
// Int and Decimal compare numerically across tags; everything else requires
// matching Kind.
func (v Value) Equal(other Value) bool {
	if (v.Kind == KindInt || v.Kind == KindDecimal) && (other.Kind == KindInt || other.Kind == KindDecimal) {
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		return a == b
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindString, KindDate:
		return v.Str == other.Str
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return v.Record == other.Record
	default:
		return false
	}
}

// Compare orders two values for <, <=, >, >= comparisons. Dates compare as
// strings since ISO-8601 is lexicographically ordered (spec.md section 4.6).
// Returns an error-signalling ok=false for incomparable tag combinations.
func (v Value) Compare(other Value) (int, bool) {
	if (v.Kind == KindInt || v.Kind == KindDecimal) && (other.Kind == KindInt || other.Kind == KindDecimal) {
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.Kind == KindString && other.Kind == KindString || v.Kind == KindDate && other.Kind == KindDate {
		switch {
		case v.Str < other.Str:
			return -1, true
		case v.Str > other.Str:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// UniqueKey returns a string key suitable for per-field uniqueness tracking
// (spec.md section 4.8 step 5).
func (v Value) UniqueKey() string {
	switch v.Kind {
	case KindNull:
		return "n:"
	case KindBool:
		return "b:" + strconv.FormatBool(v.Bool)
	case KindInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return "d:" + strconv.FormatFloat(v.Decimal, 'g', -1, 64)
	case KindString:
		return "s:" + v.Str
	case KindDate:
		return "t:" + v.Str
	case KindList:
		keys := make([]string, len(v.List))
		for i, e := range v.List {
			keys[i] = e.UniqueKey()
		}
		sort.Strings(keys)
		return "l:" + fmt.Sprint(keys)
	default:
		return fmt.Sprintf("%p", v.Record)
	}
}

// String renders a value for debug output and error messages.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return strconv.FormatFloat(v.Decimal, 'f', -1, 64)
	case KindString:
		return v.Str
	case KindDate:
		return v.Str
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindRecord:
		return "<record>"
	default:
		return "?"
	}
}
