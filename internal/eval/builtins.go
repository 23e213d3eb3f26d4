package eval

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/value"
)

const isoDateLayout = "2006-01-02"

// referenceDate anchors today/now/days_ago/days_from_now to a fixed instant
// rather than the wall clock (spec.md section 3.2 determinism guarantee:
// the same seed must reproduce the same output on every run).
var referenceDate = mustParseISODate(constants.ReferenceDate)

func mustParseISODate(s string) time.Time {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		panic("eval: malformed constants.ReferenceDate: " + err.Error())
	}
	return t
}

var aggregateNames = map[string]bool{
	constants.AggSum: true, constants.AggAvg: true, constants.AggMin: true,
	constants.AggMax: true, constants.AggMedian: true, constants.AggProd: true,
	constants.AggCount: true, constants.AggFirst: true, constants.AggLast: true,
}

var predicateNames = map[string]bool{
	constants.PredAll: true, constants.PredSome: true, constants.PredNone: true,
}

var distributionNames = map[string]bool{
	"gaussian": true, "exponential": true, "poisson": true,
	"beta": true, "uniform": true, "lognormal": true,
}

var stringHelperNames = map[string]bool{
	"upper": true, "lower": true, "capitalize": true, "kebab": true,
	"snake": true, "camel": true, "trim": true, "concat": true,
	"substring": true, "replace": true, "length": true,
}

var dateHelperNames = map[string]bool{
	"today": true, "now": true, "days_ago": true, "days_from_now": true,
	"datetime": true, "date_between": true,
}

var roundHelperNames = map[string]bool{
	"round": true, "floor": true, "ceil": true,
}

var sequenceNames = map[string]bool{
	"sequence": true, "sequence_int": true, "previous": true,
}

func (ev *Evaluator) evalCall(node *ast.Call, scope *Scope) (value.Value, error) {
	if node.Namespace == "" {
		switch {
		case aggregateNames[node.Name]:
			return ev.evalAggregate(node, scope)
		case predicateNames[node.Name]:
			return ev.evalPredicate(node, scope)
		case distributionNames[node.Name]:
			return ev.evalDistribution(node, scope)
		case stringHelperNames[node.Name]:
			return ev.evalStringHelper(node, scope)
		case dateHelperNames[node.Name]:
			return ev.evalDateHelper(node, scope)
		case roundHelperNames[node.Name]:
			return ev.evalRoundHelper(node, scope)
		case sequenceNames[node.Name]:
			return ev.evalSequenceHelper(node, scope)
		}
	}
	if ev.Registry == nil {
		return value.Null(), runtimeErrorf(node.Pos, "no plugin registry configured for call %q", node.Name)
	}
	return ev.Registry.Call(scope, ev, node.Namespace, node.Name, node.Args)
}

// collectionArg evaluates the first argument of an aggregate/predicate call,
// which must name an already-generated dataset collection by bare identifier
// (spec.md section 4.7).
func (ev *Evaluator) collectionArg(node *ast.Call, scope *Scope) ([]*value.Record, error) {
	if len(node.Args) == 0 {
		return nil, runtimeErrorf(node.Pos, "%s: expected a collection argument", node.Name)
	}
	ident, ok := node.Args[0].(*ast.Ident)
	if !ok {
		return nil, runtimeErrorf(node.Pos, "%s: first argument must be a collection name", node.Name)
	}
	coll, ok := scope.Dataset.Collection(ident.Name)
	if !ok {
		return nil, runtimeErrorf(node.Pos, "%s: unknown collection %q", node.Name, ident.Name)
	}
	return coll.Records(), nil
}

func (ev *Evaluator) evalAggregate(node *ast.Call, scope *Scope) (value.Value, error) {
	records, err := ev.collectionArg(node, scope)
	if err != nil {
		return value.Null(), err
	}
	if node.Name == constants.AggCount {
		return value.Int(int64(len(records))), nil
	}
	if len(records) == 0 {
		return value.Null(), nil
	}
	if node.Name == constants.AggFirst {
		return fieldOrRecord(records[0], node)
	}
	if node.Name == constants.AggLast {
		return fieldOrRecord(records[len(records)-1], node)
	}
	if len(node.Args) < 2 {
		return value.Null(), runtimeErrorf(node.Pos, "%s: expected a field selector argument", node.Name)
	}
	fieldIdent, ok := node.Args[1].(*ast.Ident)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "%s: field selector must be a bare identifier", node.Name)
	}
	values := make([]float64, 0, len(records))
	for _, r := range records {
		fv, ok := r.Get(fieldIdent.Name)
		if !ok {
			continue
		}
		f, ok := fv.AsFloat()
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "%s: field %q is not numeric", node.Name, fieldIdent.Name)
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return value.Null(), nil
	}
	switch node.Name {
	case constants.AggSum:
		return value.Decimal(sum(values)), nil
	case constants.AggAvg:
		return value.Decimal(sum(values) / float64(len(values))), nil
	case constants.AggMin:
		return value.Decimal(minOf(values)), nil
	case constants.AggMax:
		return value.Decimal(maxOf(values)), nil
	case constants.AggMedian:
		return value.Decimal(median(values)), nil
	case constants.AggProd:
		p := 1.0
		for _, v := range values {
			p *= v
		}
		return value.Decimal(p), nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported aggregate %q", node.Name)
	}
}

func fieldOrRecord(r *value.Record, node *ast.Call) (value.Value, error) {
	if len(node.Args) < 2 {
		return value.Rec(r), nil
	}
	fieldIdent, ok := node.Args[1].(*ast.Ident)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "%s: field selector must be a bare identifier", node.Name)
	}
	v, _ := r.Get(fieldIdent.Name)
	return v, nil
}

func sum(vs []float64) float64 {
	t := 0.0
	for _, v := range vs {
		t += v
	}
	return t
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func median(vs []float64) float64 {
	sorted := append([]float64(nil), vs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// evalPredicate implements all/some/none(collection, .field op expr)
// (spec.md section 4.7).
func (ev *Evaluator) evalPredicate(node *ast.Call, scope *Scope) (value.Value, error) {
	records, err := ev.collectionArg(node, scope)
	if err != nil {
		return value.Null(), err
	}
	if len(node.Args) < 2 {
		return value.Null(), runtimeErrorf(node.Pos, "%s: expected a predicate argument", node.Name)
	}
	pred := node.Args[1]

	matchCount := 0
	for _, r := range records {
		candidate := scope.Child(r)
		result, err := ev.Eval(pred, candidate)
		if err != nil {
			return value.Null(), err
		}
		if result.Truthy() {
			matchCount++
		}
	}
	switch node.Name {
	case constants.PredAll:
		return value.Bool(matchCount == len(records)), nil
	case constants.PredSome:
		return value.Bool(matchCount > 0), nil
	case constants.PredNone:
		return value.Bool(matchCount == 0), nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported predicate %q", node.Name)
	}
}

// evalDistribution implements the distribution-sampling helpers of
// spec.md section 4.7, drawn from the shared PRNG via standard transforms
// (Box-Muller for gaussian, inverse-CDF for exponential, Knuth's algorithm
// for poisson) so every draw still flows through the one seedable source.
func (ev *Evaluator) evalDistribution(node *ast.Call, scope *Scope) (value.Value, error) {
	args, err := ev.evalArgs(node.Args, scope)
	if err != nil {
		return value.Null(), err
	}
	floats := make([]float64, len(args))
	for i, a := range args {
		f, ok := a.AsFloat()
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "%s: expected numeric arguments", node.Name)
		}
		floats[i] = f
	}
	switch node.Name {
	case "uniform":
		if len(floats) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "uniform(lo, hi) expects 2 arguments")
		}
		return value.Decimal(ev.RNG.RangeFloat(floats[0], floats[1])), nil
	case "gaussian":
		if len(floats) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "gaussian(mean, stddev) expects 2 arguments")
		}
		return value.Decimal(ev.gaussian(floats[0], floats[1])), nil
	case "exponential":
		if len(floats) != 1 {
			return value.Null(), runtimeErrorf(node.Pos, "exponential(rate) expects 1 argument")
		}
		u := ev.RNG.UniformFloat()
		if u <= 0 {
			u = 1e-12
		}
		return value.Decimal(-math.Log(1-u) / floats[0]), nil
	case "poisson":
		if len(floats) != 1 {
			return value.Null(), runtimeErrorf(node.Pos, "poisson(lambda) expects 1 argument")
		}
		return value.Int(int64(ev.poisson(floats[0]))), nil
	case "beta":
		if len(floats) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "beta(alpha, beta) expects 2 arguments")
		}
		return value.Decimal(ev.beta(floats[0], floats[1])), nil
	case "lognormal":
		if len(floats) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "lognormal(mu, sigma) expects 2 arguments")
		}
		return value.Decimal(math.Exp(ev.gaussian(floats[0], floats[1]))), nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported distribution %q", node.Name)
	}
}

func (ev *Evaluator) gaussian(mean, stddev float64) float64 {
	u1 := ev.RNG.UniformFloat()
	u2 := ev.RNG.UniformFloat()
	if u1 <= 0 {
		u1 = 1e-12
	}
	z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + z0*stddev
}

// poisson draws via Knuth's product-of-uniforms algorithm, adequate for the
// small-to-moderate lambda values synthetic test data typically needs.
func (ev *Evaluator) poisson(lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= ev.RNG.UniformFloat()
		if p <= l {
			return k - 1
		}
	}
}

// beta draws via two gamma-distributed variates, each sampled with the
// Marsaglia-Tsang method (shapes below 1 are boosted by one and scaled by
// u^(1/shape)).
func (ev *Evaluator) beta(alpha, betaParam float64) float64 {
	x := ev.gammaSample(alpha)
	y := ev.gammaSample(betaParam)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

func (ev *Evaluator) gammaSample(shape float64) float64 {
	if shape < 1 {
		u := ev.RNG.UniformFloat()
		return ev.gammaSample(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := ev.gaussian(0, 1)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := ev.RNG.UniformFloat()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

func (ev *Evaluator) evalArgs(args []ast.Expr, scope *Scope) ([]value.Value, error) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		v, err := ev.Eval(a, scope)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// evalStringHelper implements the null-safe string helpers of spec.md
// section 4.7: a Null argument yields an empty string (0 for length, and
// concat skips it) rather than an error, so a nullable field can feed a
// derived `then` expression without an extra guard.
func (ev *Evaluator) evalStringHelper(node *ast.Call, scope *Scope) (value.Value, error) {
	args, err := ev.evalArgs(node.Args, scope)
	if err != nil {
		return value.Null(), err
	}
	switch node.Name {
	case "concat":
		var b strings.Builder
		for _, a := range args {
			if a.IsNull() {
				continue
			}
			b.WriteString(a.String())
		}
		return value.Str(b.String()), nil
	case "length":
		if len(args) != 1 {
			return value.Null(), runtimeErrorf(node.Pos, "length(s) expects 1 argument")
		}
		if args[0].IsNull() {
			return value.Int(0), nil
		}
		return value.Int(int64(len(args[0].Str))), nil
	case "upper", "lower", "trim", "capitalize", "kebab", "snake", "camel":
		if len(args) != 1 {
			return value.Null(), runtimeErrorf(node.Pos, "%s(s) expects 1 argument", node.Name)
		}
		if args[0].IsNull() {
			return value.Str(""), nil
		}
		return value.Str(applyStringCase(node.Name, args[0].Str)), nil
	case "substring":
		if len(args) != 2 && len(args) != 3 {
			return value.Null(), runtimeErrorf(node.Pos, "substring(s, start, end?) expects 2 or 3 arguments")
		}
		if args[0].IsNull() {
			return value.Str(""), nil
		}
		s := args[0].Str
		start, ok := args[1].AsFloat()
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "substring: start must be numeric")
		}
		end := float64(len(s))
		if len(args) == 3 {
			end, ok = args[2].AsFloat()
			if !ok {
				return value.Null(), runtimeErrorf(node.Pos, "substring: end must be numeric")
			}
		}
		lo := clampIndex(int(start), len(s))
		hi := clampIndex(int(end), len(s))
		if hi < lo {
			hi = lo
		}
		return value.Str(s[lo:hi]), nil
	case "replace":
		if len(args) != 3 {
			return value.Null(), runtimeErrorf(node.Pos, "replace(s, old, new) expects 3 arguments")
		}
		if args[0].IsNull() {
			return value.Str(""), nil
		}
		return value.Str(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported string helper %q", node.Name)
	}
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

// applyStringCase implements the casing/word-boundary helpers of spec.md
// section 4.7. kebab/snake/camel split words with splitWords (whitespace,
// `-`, `_`, and lower-to-upper case boundaries), so "Order Item" and
// "orderItem" both normalize the same way.
func applyStringCase(name, s string) string {
	switch name {
	case "upper":
		return strings.ToUpper(s)
	case "lower":
		return strings.ToLower(s)
	case "trim":
		return strings.TrimSpace(s)
	case "capitalize":
		if s == "" {
			return s
		}
		r := []rune(s)
		return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
	case "kebab":
		return strings.Join(splitWords(s), "-")
	case "snake":
		return strings.Join(splitWords(s), "_")
	case "camel":
		words := splitWords(s)
		var b strings.Builder
		for i, w := range words {
			if i == 0 {
				b.WriteString(w)
				continue
			}
			r := []rune(w)
			b.WriteString(string(unicode.ToUpper(r[0])) + string(r[1:]))
		}
		return b.String()
	default:
		return s
	}
}

// splitWords breaks s into lowercase words on whitespace, `-`, `_`, and
// lower-to-upper case transitions (so "OrderItem" splits the same as
// "order_item").
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// evalDateHelper implements the date helpers of spec.md section 4.7:
// today/now/days_ago/days_from_now anchor to the fixed referenceDate rather
// than the wall clock (section 3.2's determinism guarantee), while
// datetime/date_between draw a uniformly distributed date from the shared
// PRNG, so the same seed always produces the same date.
func (ev *Evaluator) evalDateHelper(node *ast.Call, scope *Scope) (value.Value, error) {
	args, err := ev.evalArgs(node.Args, scope)
	if err != nil {
		return value.Null(), err
	}
	switch node.Name {
	case "today", "now":
		return value.Date(referenceDate.Format(isoDateLayout)), nil
	case "days_ago", "days_from_now":
		if len(args) != 1 {
			return value.Null(), runtimeErrorf(node.Pos, "%s(n) expects 1 argument", node.Name)
		}
		n, ok := args[0].AsFloat()
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "%s(n) expects a numeric argument", node.Name)
		}
		days := int(n)
		if node.Name == "days_ago" {
			days = -days
		}
		return value.Date(referenceDate.AddDate(0, 0, days).Format(isoDateLayout)), nil
	case "datetime":
		if len(args) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "datetime(y1, y2) expects 2 arguments")
		}
		y1, ok1 := args[0].AsFloat()
		y2, ok2 := args[1].AsFloat()
		if !ok1 || !ok2 {
			return value.Null(), runtimeErrorf(node.Pos, "datetime(y1, y2) expects numeric years")
		}
		lo := time.Date(int(y1), time.January, 1, 0, 0, 0, 0, time.UTC)
		hi := time.Date(int(y2), time.December, 31, 0, 0, 0, 0, time.UTC)
		return ev.randomDateBetween(node, lo, hi)
	case "date_between":
		if len(args) != 2 {
			return value.Null(), runtimeErrorf(node.Pos, "date_between(iso1, iso2) expects 2 arguments")
		}
		lo, err := parseISODateArg(node, args[0])
		if err != nil {
			return value.Null(), err
		}
		hi, err := parseISODateArg(node, args[1])
		if err != nil {
			return value.Null(), err
		}
		return ev.randomDateBetween(node, lo, hi)
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported date helper %q", node.Name)
	}
}

func parseISODateArg(node *ast.Call, v value.Value) (time.Time, error) {
	if v.Kind != value.KindDate && v.Kind != value.KindString {
		return time.Time{}, runtimeErrorf(node.Pos, "%s: expected a date or ISO-8601 string argument", node.Name)
	}
	t, err := time.Parse(isoDateLayout, v.Str)
	if err != nil {
		return time.Time{}, runtimeErrorf(node.Pos, "%s: malformed date %q", node.Name, v.Str)
	}
	return t, nil
}

func (ev *Evaluator) randomDateBetween(node *ast.Call, lo, hi time.Time) (value.Value, error) {
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	spanDays := int64(hi.Sub(lo).Hours() / 24)
	offset := ev.RNG.RangeInt(0, spanDays)
	return value.Date(lo.AddDate(0, 0, int(offset)).Format(isoDateLayout)), nil
}

// evalRoundHelper implements round/floor/ceil(x, n) of spec.md section 4.7.
func (ev *Evaluator) evalRoundHelper(node *ast.Call, scope *Scope) (value.Value, error) {
	args, err := ev.evalArgs(node.Args, scope)
	if err != nil {
		return value.Null(), err
	}
	if len(args) != 2 {
		return value.Null(), runtimeErrorf(node.Pos, "%s(x, n) expects 2 arguments", node.Name)
	}
	x, ok := args[0].AsFloat()
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "%s: x must be numeric", node.Name)
	}
	n, ok := args[1].AsFloat()
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "%s: n must be numeric", node.Name)
	}
	precision := int(n)
	scale := math.Pow(10, float64(precision))
	var result float64
	switch node.Name {
	case "round":
		result = math.Round(x*scale) / scale
	case "floor":
		result = math.Floor(x*scale) / scale
	case "ceil":
		result = math.Ceil(x*scale) / scale
	}
	return value.DecimalP(result, precision), nil
}

// sequenceState tracks sequence/sequence_int counters keyed by the runtime
// value of their key/prefix argument (spec.md section 4.7: "sequence_int(key,
// start?) — integer counter keyed by key", so two call sites sharing a key
// share one counter), plus per-call-site `previous` values keyed by AST node
// identity since `previous` has no key argument to share state by.
type sequenceState struct {
	counters map[string]int64
	previous map[*ast.Call]value.Value
}

func newSequenceState() *sequenceState {
	return &sequenceState{counters: map[string]int64{}, previous: map[*ast.Call]value.Value{}}
}

func (ev *Evaluator) evalSequenceHelper(node *ast.Call, scope *Scope) (value.Value, error) {
	if ev.sequences == nil {
		ev.sequences = newSequenceState()
	}
	switch node.Name {
	case "sequence":
		args, err := ev.evalArgs(node.Args, scope)
		if err != nil {
			return value.Null(), err
		}
		if len(args) == 0 {
			return value.Null(), runtimeErrorf(node.Pos, "sequence(prefix, start?) expects a prefix argument")
		}
		prefix := args[0].String()
		start := int64(0)
		if len(args) >= 2 {
			if f, ok := args[1].AsFloat(); ok {
				start = int64(f)
			}
		}
		key := "sequence:" + prefix
		i := ev.sequences.counters[key]
		ev.sequences.counters[key] = i + 1
		return value.Str(prefix + strconv.FormatInt(start+i, 10)), nil
	case "sequence_int":
		args, err := ev.evalArgs(node.Args, scope)
		if err != nil {
			return value.Null(), err
		}
		if len(args) == 0 {
			return value.Null(), runtimeErrorf(node.Pos, "sequence_int(key, start?) expects a key argument")
		}
		start := int64(0)
		if len(args) >= 2 {
			if f, ok := args[1].AsFloat(); ok {
				start = int64(f)
			}
		}
		key := "sequence_int:" + args[0].UniqueKey()
		i := ev.sequences.counters[key]
		ev.sequences.counters[key] = i + 1
		return value.Int(start + i), nil
	case "previous":
		prev, ok := ev.sequences.previous[node]
		if !ok {
			args, err := ev.evalArgs(node.Args, scope)
			if err != nil {
				return value.Null(), err
			}
			if len(args) >= 1 {
				return args[0], nil
			}
			return value.Null(), nil
		}
		return prev, nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported sequence helper %q", node.Name)
	}
}

// RecordSequenceValue lets the field generator tell the evaluator what a
// `sequence`/`previous` call site produced, so the next record's `previous`
// call observes it (spec.md section 4.7 "previous").
func (ev *Evaluator) RecordSequenceValue(node *ast.Call, v value.Value) {
	if ev.sequences == nil {
		ev.sequences = newSequenceState()
	}
	ev.sequences.previous[node] = v
}
