// Package plugin implements the plugin/generator-function registry of
// spec.md section 4.11: a flat dotted-name -> callable map that backs
// every namespaced Call the evaluator cannot resolve as a builtin
// aggregate, predicate, distribution, or helper. It is grounded on the
// teacher's internal/security.AuthManager: a small struct guarding a map
// behind a mutex, registered once at startup and looked up per call.
package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/value"
	cache "github.com/patrickmn/go-cache"
)

// Func is a registered plugin generator function. args have already been
// evaluated against scope by the registry before Func is invoked.
type Func func(rng RNG, args []value.Value) (value.Value, error)

// RNG is the subset of *prng.Source a plugin function needs, expressed as
// an interface so plugin does not import internal/prng just for a pointer
// receiver type (keeps the plugin contract narrow, per spec.md section 4.11).
type RNG interface {
	UniformFloat() float64
	RangeInt(lo, hi int64) int64
	RangeFloat(lo, hi float64) float64
	Choice(n int) int
}

// Registry holds every registered plugin function under its fully
// dotted name ("faker.internet.email"). Later registrations under the
// same name win, matching the teacher's "last registration wins" key
// collision behavior for auth keys.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Func
	memo      *cache.Cache
	pure      map[string]bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		functions: make(map[string]Func),
		memo:      cache.New(cache.NoExpiration, cache.NoExpiration),
		pure:      make(map[string]bool),
	}
}

// Register adds a plugin function under a dotted name, e.g.
// "faker.internet.email". pure marks whether repeated calls with identical
// arguments may be memoized (spec.md section 4.11). The memo cache lives as
// long as the Registry, so it spans every Compile call of the Compiler that
// owns it and is never cleared; generator functions that consume PRNG draws
// are never pure.
func (r *Registry) Register(dottedName string, fn Func, pure bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[dottedName] = fn
	r.pure[dottedName] = pure
}

// Call implements eval.Registry: resolves namespace+name to a registered
// function, evaluates args against scope, and invokes it. An unregistered
// name is a RuntimeError (not a warning), since a missing generator leaves
// a field with no way to produce a value at all.
func (r *Registry) Call(scope *eval.Scope, ev *eval.Evaluator, namespace, name string, args []ast.Expr) (value.Value, error) {
	dotted := name
	if namespace != "" {
		dotted = namespace + "." + name
	}

	r.mu.RLock()
	fn, ok := r.functions[dotted]
	pure := r.pure[dotted]
	r.mu.RUnlock()
	if !ok {
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "unknown plugin function %q", dotted)
	}

	argVals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := ev.Eval(a, scope)
		if err != nil {
			return value.Null(), err
		}
		argVals[i] = v
	}

	if pure {
		key := memoKey(dotted, argVals)
		if cached, found := r.memo.Get(key); found {
			return cached.(value.Value), nil
		}
		result, err := fn(ev.RNG, argVals)
		if err != nil {
			return value.Null(), err
		}
		r.memo.Set(key, result, cache.NoExpiration)
		return result, nil
	}

	return fn(ev.RNG, argVals)
}

func memoKey(dotted string, args []value.Value) string {
	var b strings.Builder
	b.WriteString(dotted)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(a.UniqueKey())
	}
	return b.String()
}

// Names returns every registered dotted name, sorted for stable diagnostics
// output.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.functions))
	for name := range r.functions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RegistrationError reports a malformed plugin registration attempt
// (spec.md section 4.11, e.g. an empty dotted name).
type RegistrationError struct {
	Name string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("invalid plugin registration name %q", e.Name)
}

// MustValidName returns an error if dottedName is empty or only whitespace;
// no other check of its shape is made.
func MustValidName(dottedName string) error {
	if strings.TrimSpace(dottedName) == "" {
		return &RegistrationError{Name: dottedName}
	}
	return nil
}
