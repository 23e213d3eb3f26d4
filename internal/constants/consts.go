// Package constants holds the fixed vocabulary of the language: keywords,
// default retry budgets, and environment variable names, grouped the way the
// teacher repo groups its own protocol-level constants.
package constants

// Keyword constants recognized by the lexer (spec.md section 4.3).
const (
	KeywordSchema    = "schema"
	KeywordDataset   = "dataset"
	KeywordLet       = "let"
	KeywordImport    = "import"
	KeywordFrom      = "from"
	KeywordOf        = "of"
	KeywordIn        = "in"
	KeywordAny       = "any"
	KeywordWhere     = "where"
	KeywordAssume    = "assume"
	KeywordIf        = "if"
	KeywordAnd       = "and"
	KeywordOr        = "or"
	KeywordNot       = "not"
	KeywordValidate  = "validate"
	KeywordRefine    = "refine"
	KeywordThen      = "then"
	KeywordUnique    = "unique"
	KeywordPrivate   = "private"
	KeywordWhen      = "when"
	KeywordViolating = "violating"
	KeywordTrue      = "true"
	KeywordFalse     = "false"
	KeywordNull      = "null"
)

// Primitive type-name constants usable in type expressions.
const (
	TypeInt     = "int"
	TypeDecimal = "decimal"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeDate    = "date"
)

// Keywords is the set of reserved words, used by the lexer to distinguish
// identifiers from keywords.
var Keywords = map[string]bool{
	KeywordSchema:    true,
	KeywordDataset:   true,
	KeywordLet:       true,
	KeywordImport:    true,
	KeywordFrom:      true,
	KeywordOf:        true,
	KeywordIn:        true,
	KeywordAny:       true,
	KeywordWhere:     true,
	KeywordAssume:    true,
	KeywordIf:        true,
	KeywordAnd:       true,
	KeywordOr:        true,
	KeywordNot:       true,
	KeywordValidate:  true,
	KeywordRefine:    true,
	KeywordThen:      true,
	KeywordUnique:    true,
	KeywordPrivate:   true,
	KeywordWhen:      true,
	KeywordViolating: true,
	KeywordTrue:      true,
	KeywordFalse:     true,
	KeywordNull:      true,
	TypeInt:          true,
	TypeDecimal:      true,
	TypeString:       true,
	TypeBoolean:      true,
	TypeDate:         true,
}

// Default retry budgets (spec.md section 4.9). R1 guards per-record assume
// constraints, R2 guards dataset-level validate blocks, and the unique budget
// guards per-field distinct-value generation (spec.md section 4.8 step 5).
const (
	DefaultConstraintRetries = 100
	DefaultValidateRetries   = 50
	DefaultUniqueRetries     = 50
)

// ReferenceDate anchors every "current date" computation (bare `date` fields
// with no `in` range, and the `today`/`now` built-ins). spec.md section 3.2's
// determinism guarantee requires a fixed seed to always reproduce the same
// output, which rules out time.Now(): a real wall-clock reference would make
// the same seed draw a different date window on every run.
const ReferenceDate = "2024-01-01"

// Environment variable names consulted by internal/config, renamed from the
// teacher's GO_SPEC_MOCK_* family to this project's domain.
const (
	EnvSeed              = "VAGUE_SEED"
	EnvConstraintRetries = "VAGUE_CONSTRAINT_RETRIES"
	EnvValidateRetries   = "VAGUE_VALIDATE_RETRIES"
	EnvUniqueRetries     = "VAGUE_UNIQUE_RETRIES"
	EnvLogLevel          = "VAGUE_LOG_LEVEL"
	EnvImportRoot        = "VAGUE_IMPORT_ROOT"
)

// Aggregate function names recognized by the expression evaluator
// (spec.md section 4.7).
const (
	AggSum    = "sum"
	AggAvg    = "avg"
	AggMin    = "min"
	AggMax    = "max"
	AggMedian = "median"
	AggProd   = "product"
	AggCount  = "count"
	AggFirst  = "first"
	AggLast   = "last"
)

// Collection predicate helper names (spec.md section 4.7).
const (
	PredAll  = "all"
	PredSome = "some"
	PredNone = "none"
)
