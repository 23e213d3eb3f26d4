package generator

import (
	"time"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/value"
)

// referenceDate is the fixed anchor a bare (unranged) `date` field draws
// around, parsed once at init rather than read from the wall clock so the
// same seed always produces the same date (spec.md section 3.2).
var referenceDate = mustParseDate(constants.ReferenceDate)

func mustParseDate(s string) time.Time {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		panic("generator: malformed constants.ReferenceDate: " + err.Error())
	}
	return t
}

const (
	defaultIntLo     int64 = 0
	defaultIntHi     int64 = 1_000_000
	defaultDecimalLo       = 0.0
	defaultDecimalHi       = 1.0
	defaultPrecision       = 2
	defaultStringLen       = 12
	alphanumeric           = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	isoDateLayout          = "2006-01-02"
	defaultDateSpanDays    = 365 * 5
)

// generatePrimitive draws a value for a bare or range-constrained primitive
// type (spec.md section 4.8 step 4). With no corpus-backed faker plugin
// wired into the core generator (that lives in plugin/samplegen, kept out
// of compile by default per spec.md's Non-goal on built-in plugin
// libraries), unconstrained strings draw a fixed-length alphanumeric token
// from the shared PRNG rather than a realistic-looking faker value.
func (g *Generator) generatePrimitive(pt *ast.PrimitiveType, scope *eval.Scope) (value.Value, error) {
	switch pt.Kind {
	case ast.PrimInt:
		lo, hi := defaultIntLo, defaultIntHi
		if pt.HasRange {
			var err error
			lo, hi, err = g.evalIntBounds(pt, scope)
			if err != nil {
				return value.Null(), err
			}
		}
		return value.Int(g.RNG.RangeInt(lo, hi)), nil

	case ast.PrimDecimal:
		lo, hi := defaultDecimalLo, defaultDecimalHi
		if pt.HasRange {
			var err error
			lo, hi, err = g.evalFloatBounds(pt, scope)
			if err != nil {
				return value.Null(), err
			}
		}
		precision := pt.Precision
		if precision == 0 {
			precision = defaultPrecision
		}
		raw := g.RNG.RangeFloat(lo, hi)
		return value.DecimalP(roundTo(raw, precision), precision), nil

	case ast.PrimBoolean:
		return value.Bool(g.RNG.Choice(2) == 1), nil

	case ast.PrimString:
		return value.Str(g.randomToken(defaultStringLen)), nil

	case ast.PrimDate:
		if pt.HasRange {
			return g.generateDateInRange(pt, scope)
		}
		return g.generateDefaultDate(), nil

	default:
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "unsupported primitive kind")
	}
}

func (g *Generator) evalIntBounds(pt *ast.PrimitiveType, scope *eval.Scope) (int64, int64, error) {
	lo, err := g.Eval.Eval(pt.Lo, scope)
	if err != nil {
		return 0, 0, err
	}
	hi, err := g.Eval.Eval(pt.Hi, scope)
	if err != nil {
		return 0, 0, err
	}
	loF, ok1 := lo.AsFloat()
	hiF, ok2 := hi.AsFloat()
	if !ok1 || !ok2 {
		return 0, 0, diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "int range bounds must be numeric")
	}
	return int64(loF), int64(hiF), nil
}

func (g *Generator) evalFloatBounds(pt *ast.PrimitiveType, scope *eval.Scope) (float64, float64, error) {
	lo, err := g.Eval.Eval(pt.Lo, scope)
	if err != nil {
		return 0, 0, err
	}
	hi, err := g.Eval.Eval(pt.Hi, scope)
	if err != nil {
		return 0, 0, err
	}
	loF, ok1 := lo.AsFloat()
	hiF, ok2 := hi.AsFloat()
	if !ok1 || !ok2 {
		return 0, 0, diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "decimal range bounds must be numeric")
	}
	return loF, hiF, nil
}

func roundTo(v float64, precision int) float64 {
	scale := 1.0
	for i := 0; i < precision; i++ {
		scale *= 10
	}
	return float64(int64(v*scale+0.5)) / scale
}

func (g *Generator) randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[g.RNG.Choice(len(alphanumeric))]
	}
	return string(b)
}

// generateDateInRange evaluates Lo/Hi as ISO-8601 date strings and draws a
// uniformly distributed day within the inclusive span (spec.md section 4.6
// Date kind, section 4.8 step 4).
func (g *Generator) generateDateInRange(pt *ast.PrimitiveType, scope *eval.Scope) (value.Value, error) {
	lo, err := g.Eval.Eval(pt.Lo, scope)
	if err != nil {
		return value.Null(), err
	}
	hi, err := g.Eval.Eval(pt.Hi, scope)
	if err != nil {
		return value.Null(), err
	}
	loT, err := parseBoundDate(lo)
	if err != nil {
		return value.Null(), err
	}
	hiT, err := parseBoundDate(hi)
	if err != nil {
		return value.Null(), err
	}
	spanDays := int64(hiT.Sub(loT).Hours() / 24)
	offset := g.RNG.RangeInt(0, spanDays)
	drawn := loT.AddDate(0, 0, int(offset))
	return value.Date(drawn.Format(isoDateLayout)), nil
}

// parseBoundDate accepts either a Date value or a bare year as an Int, the
// two forms a range bound is most naturally written in (`date in 2020..2024`
// or `date in "2020-01-01".."2024-12-31"`).
func parseBoundDate(v value.Value) (time.Time, error) {
	switch v.Kind {
	case value.KindDate, value.KindString:
		t, err := time.Parse(isoDateLayout, v.Str)
		if err != nil {
			return time.Time{}, diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "malformed date bound %q", v.Str)
		}
		return t, nil
	case value.KindInt:
		return time.Date(int(v.Int), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "date range bound must be a date, string, or year")
	}
}

// generateDefaultDate draws a date within defaultDateSpanDays of the fixed
// referenceDate, centered on it, rather than on time.Now() (spec.md section
// 3.2 "Deterministic reproducibility": a bare `date` field must produce the
// same output for the same seed regardless of when the program runs).
func (g *Generator) generateDefaultDate() value.Value {
	base := referenceDate.AddDate(0, 0, -defaultDateSpanDays/2)
	offset := g.RNG.RangeInt(0, defaultDateSpanDays)
	drawn := base.AddDate(0, 0, int(offset))
	return value.Date(drawn.Format(isoDateLayout))
}
