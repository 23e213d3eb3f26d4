// Package binder implements the semantic/name-resolution pass of spec.md
// section 4.5: it turns a parsed *ast.Program into a Bound program where
// schema references, let-binding substitutions, and imported-schema bases
// are all resolved ahead of generation. The teacher repo has no equivalent
// pass of its own (OpenAPI documents arrive pre-resolved), so this package
// is grounded on the teacher's internal/parser.go "load, validate, then
// build a lookup table" shape (its path-to-operation index) generalized to
// a symbol table of schemas, lets, and datasets.
package binder

import (
	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
)

// Loader reads the source text of an imported file, given the path written
// in an `import X from "path"` directive (spec.md section 3.1). The compile
// façade supplies one backed by internal/config's ImportRoot.
type Loader func(path string) (string, error)

// Bound is a fully name-resolved program ready for generation.
type Bound struct {
	Schemas    map[string]*ast.SchemaDefinition
	Datasets   []*ast.DatasetDefinition
	Lets       map[string]*ast.LetBinding
	Collectors *diagnostics.Collector
}

// Binder resolves one parsed program, recursively loading imports through
// the supplied Loader.
type Binder struct {
	load    Loader
	warn    *diagnostics.Collector
	schemas map[string]*ast.SchemaDefinition
	lets    map[string]*ast.LetBinding
}

// New creates a Binder that reads imports through load. Imported sources are
// parsed by the function installed with SetParser.
func New(load Loader, warn *diagnostics.Collector) *Binder {
	return &Binder{
		load:    load,
		warn:    warn,
		schemas: make(map[string]*ast.SchemaDefinition),
		lets:    make(map[string]*ast.LetBinding),
	}
}

// Bind resolves prog, merging in every transitively imported program.
func (b *Binder) Bind(prog *ast.Program) (*Bound, error) {
	if err := b.collect(prog, ""); err != nil {
		return nil, err
	}

	var datasets []*ast.DatasetDefinition
	for _, item := range prog.Items {
		if ds, ok := item.(*ast.DatasetDefinition); ok {
			datasets = append(datasets, ds)
		}
	}

	for name, schema := range b.schemas {
		if err := b.resolveSchema(name, schema); err != nil {
			return nil, err
		}
	}

	declared := make(map[string]bool)
	for _, ds := range datasets {
		for _, coll := range ds.Collections {
			declared[coll.Name] = true
		}
	}
	for _, ds := range datasets {
		seen := make(map[string]bool)
		for _, coll := range ds.Collections {
			if _, ok := b.schemas[coll.SchemaRef]; !ok {
				return nil, bindErrorf(coll.Pos, "dataset %s: collection %s references unknown schema %s", ds.Name, coll.Name, coll.SchemaRef)
			}
			seen[coll.Name] = true
		}
		for _, v := range ds.Validate {
			if err := b.checkAnyOfReferences(v, seen); err != nil {
				return nil, err
			}
		}
	}

	return &Bound{Schemas: b.schemas, Datasets: datasets, Lets: b.lets, Collectors: b.warn}, nil
}

// collect walks one program's items (and, recursively, its imports),
// registering schemas and let-bindings into the shared symbol tables.
// prefix namespaces an imported program's schema names, e.g. "shared.".
func (b *Binder) collect(prog *ast.Program, prefix string) error {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.LetBinding:
			b.lets[prefix+it.Name] = it
		case *ast.SchemaDefinition:
			b.schemas[prefix+it.Name] = it
		case *ast.ImportDirective:
			if b.load == nil {
				return bindErrorf(it.Pos, "import %q: no loader configured", it.Path)
			}
			src, err := b.load(it.Path)
			if err != nil {
				return diagnostics.WrapError(diagnostics.BindError, it.Pos, err, "failed to load import %q", it.Path)
			}
			childProg, parseErr := parseImported(src)
			if parseErr != nil {
				return diagnostics.WrapError(diagnostics.BindError, it.Pos, parseErr, "failed to parse import %q", it.Path)
			}
			if err := b.collect(childProg, it.Name+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseImported is indirected through a package variable rather than a
// direct import of internal/parser, which in turn imports internal/ast and
// internal/lexer but never internal/binder, so a direct call would in fact
// be cycle-free; it is kept as a var hook so the compile façade can supply a
// recovery-mode or strict parser depending on its own configuration.
var parseImported func(src string) (*ast.Program, error)

func bindErrorf(pos diagnostics.Position, format string, args ...any) *diagnostics.Error {
	return diagnostics.NewError(diagnostics.BindError, pos, format, args...)
}

// resolveSchema replaces every RefType in schema's fields that actually
// names a let-binding (rather than another schema) with the let's own
// resolved type expression, shared rather than copied (spec.md section 4.5:
// a bare identifier in type position is ambiguous between "schema name" and
// "let name" until resolution time). It also validates `from` bases. It does
// not check where ParentAccess (`^field`) is used.
func (b *Binder) resolveSchema(name string, schema *ast.SchemaDefinition) error {
	if schema.Base != "" {
		base, ok := b.schemas[schema.Base]
		if !ok {
			return bindErrorf(schema.Pos, "schema %s: unknown base schema %q", name, schema.Base)
		}
		b.mergeBase(schema, base)
	}
	for i := range schema.Fields {
		resolved, err := b.resolveTypeExpr(schema.Fields[i].Type)
		if err != nil {
			return err
		}
		schema.Fields[i].Type = resolved
	}
	return nil
}

// mergeBase prepends the base schema's fields to schema's own, so a
// `schema A from B` carries every field B declares unless A redeclares it
// (spec.md section 3.1 "from <dotted_base>").
func (b *Binder) mergeBase(schema, base *ast.SchemaDefinition) {
	own := make(map[string]bool, len(schema.Fields))
	for _, f := range schema.Fields {
		own[f.Name] = true
	}
	var merged []ast.Field
	for _, f := range base.Fields {
		if own[f.Name] {
			continue
		}
		merged = append(merged, f)
	}
	schema.Fields = append(merged, schema.Fields...)
	schema.Assumes = append(append([]ast.AssumeItem{}, base.Assumes...), schema.Assumes...)
}

func (b *Binder) resolveTypeExpr(t ast.TypeExpr) (ast.TypeExpr, error) {
	switch te := t.(type) {
	case *ast.RefType:
		if let, ok := b.lets[te.SchemaName]; ok {
			return b.resolveTypeExpr(let.Value)
		}
		if _, ok := b.schemas[te.SchemaName]; ok {
			return te, nil
		}
		return nil, bindErrorf(te.Pos, "unknown type or schema reference %q", te.SchemaName)
	case *ast.Superposition:
		for i := range te.Options {
			resolved, err := b.resolveTypeExpr(te.Options[i].Type)
			if err != nil {
				return nil, err
			}
			te.Options[i].Type = resolved
		}
		return te, nil
	case *ast.CardinalityOf:
		if _, ok := b.schemas[te.SchemaRef]; !ok {
			return nil, bindErrorf(te.Pos, "cardinality-of references unknown schema %q", te.SchemaRef)
		}
		for i := range te.Overrides {
			resolved, err := b.resolveTypeExpr(te.Overrides[i].Type)
			if err != nil {
				return nil, err
			}
			te.Overrides[i].Type = resolved
		}
		return te, nil
	default:
		return t, nil
	}
}

// checkAnyOfReferences walks a validate-block expression looking for AnyOf
// nodes and confirms every referenced collection was declared earlier in
// the same dataset (spec.md section 4.5).
func (b *Binder) checkAnyOfReferences(e ast.Expr, declared map[string]bool) error {
	switch ex := e.(type) {
	case *ast.AnyOf:
		if !declared[ex.Collection] {
			return bindErrorf(ex.Position(), "any of %s: unknown collection", ex.Collection)
		}
		if ex.Where != nil {
			return b.checkAnyOfReferences(ex.Where, declared)
		}
	case *ast.Binary:
		if err := b.checkAnyOfReferences(ex.Left, declared); err != nil {
			return err
		}
		return b.checkAnyOfReferences(ex.Right, declared)
	case *ast.Unary:
		return b.checkAnyOfReferences(ex.Operand, declared)
	case *ast.Ternary:
		if err := b.checkAnyOfReferences(ex.Cond, declared); err != nil {
			return err
		}
		if err := b.checkAnyOfReferences(ex.Then, declared); err != nil {
			return err
		}
		return b.checkAnyOfReferences(ex.Else, declared)
	case *ast.Call:
		for _, arg := range ex.Args {
			if err := b.checkAnyOfReferences(arg, declared); err != nil {
				return err
			}
		}
	case *ast.MemberAccess:
		return b.checkAnyOfReferences(ex.Target, declared)
	}
	return nil
}

// SetParser installs the function the binder uses to parse imported sources;
// the binder does not import internal/parser itself. The compile façade
// installs internal/parser's strict Parse once, from its init.
func SetParser(fn func(src string) (*ast.Program, error)) {
	parseImported = fn
}
