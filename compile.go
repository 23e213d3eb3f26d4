// Package vague is the compile façade of spec.md section 6.3: the single
// entry point that lexes, parses, binds, and generates a DSL source string
// into a fully resolved dataset, threading one seed, one warning collector,
// and one logger through the whole run. It is grounded on the teacher's
// internal/server.New/Start pair (construct collaborators, wire them
// together, run), generalized from "serve HTTP forever" to "run once and
// return a result".
package vague

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/binder"
	"github.com/mcclowes/vague/internal/config"
	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/dataset"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/generator"
	"github.com/mcclowes/vague/internal/observability"
	"github.com/mcclowes/vague/internal/parser"
	"github.com/mcclowes/vague/internal/plugin"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/mcclowes/vague/internal/value"
)

func init() {
	binder.SetParser(func(src string) (*ast.Program, error) {
		return parser.Parse(src)
	})
}

// Result is one compile's full output: a flat mapping from dataset
// collection name to its generated records (spec.md section 1: "a mapping
// from each dataset collection name to a list of generated records"; section
// 6.2: "Top-level JSON object: one key per dataset collection"), plus any
// non-fatal diagnostics raised along the way.
type Result struct {
	Collections map[string][]*value.Record
	Warnings    []diagnostics.Warning
	Seed        int64
}

// Compiler holds the registry a caller has opted into and the config that
// governs retry budgets and logging for every Compile call it makes.
type Compiler struct {
	Config   *config.Config
	Registry *plugin.Registry
	Logger   *observability.Logger
}

// New creates a Compiler with cfg (or config.DefaultConfig() if nil) and an
// empty plugin registry; callers add their own plugins via RegisterPlugin,
// or the plugin/samplegen bundle via samplegen.Register(c.Registry), before
// calling Compile (spec.md section 4.11,
// Non-goal: "built-in plugin libraries" are never auto-registered here).
func New(cfg *config.Config) (*Compiler, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Compiler{Config: cfg, Registry: plugin.New(), Logger: logger}, nil
}

// RegisterPlugin registers a plugin function under a dotted name
// (spec.md section 4.11).
func (c *Compiler) RegisterPlugin(dottedName string, fn plugin.Func, pure bool) error {
	if err := plugin.MustValidName(dottedName); err != nil {
		return err
	}
	c.Registry.Register(dottedName, fn, pure)
	return nil
}

// Compile lexes, parses, binds, and generates source, returning every
// dataset's collections. Each call builds a fresh PRNG, evaluator,
// generator, and warning collector, so concurrent calls on the same
// Compiler never share mutable generation state (spec.md Non-goal:
// "concurrency across compilations" is out of scope, but independence
// across sequential calls on one Compiler is not).
func (c *Compiler) Compile(source string) (*Result, error) {
	seed := prng.New().Seed()
	if c.Config.Seed != nil {
		seed = *c.Config.Seed
	}
	rng := prng.NewSeeded(seed)
	warnings := diagnostics.NewCollector()

	prog, parseErr := parser.Parse(source)
	if parseErr != nil {
		c.Logger.Error(parseErr.Error())
		return nil, parseErr
	}

	importLoader := binder.Loader(func(path string) (string, error) {
		full := path
		if c.Config.ImportRoot != "" && !filepath.IsAbs(path) {
			full = filepath.Join(c.Config.ImportRoot, path)
		}
		data, err := os.ReadFile(full) // #nosec G304 - operator-supplied import root
		if err != nil {
			return "", err
		}
		return string(data), nil
	})

	b := binder.New(importLoader, warnings)
	bound, bindErr := b.Bind(prog)
	if bindErr != nil {
		c.Logger.Error(bindErr.Error())
		return nil, bindErr
	}

	ev := eval.New(rng, c.Registry, warnings)
	gen := generator.New(rng, ev, nil, warnings, c.Config.UniqueRetries)
	drv := dataset.New(bound.Schemas, gen, ev, warnings, dataset.Retries{
		Constraint: c.Config.ConstraintRetries,
		Validate:   c.Config.ValidateRetries,
	})
	gen.Resolver = drv

	out := make(map[string][]*value.Record)
	for _, def := range bound.Datasets {
		collections, err := drv.GenerateDataset(def)
		if err != nil {
			c.Logger.Error(err.Error())
			return nil, err
		}
		for name, records := range collections {
			out[name] = records
		}
	}

	for _, w := range warnings.GetAll() {
		c.Logger.Warn(w.String())
	}

	return &Result{Collections: out, Warnings: warnings.GetAll(), Seed: seed}, nil
}

// DefaultUniqueRetries re-exports constants.DefaultUniqueRetries, so callers
// that only import the root package never need internal/constants.
const DefaultUniqueRetries = constants.DefaultUniqueRetries
