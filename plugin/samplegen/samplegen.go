// Package samplegen is a companion, opt-in plugin bundle (spec.md section
// 4.11, Non-goal: "no built-in plugin library is auto-registered"). It
// wires github.com/go-faker/faker/v4 for human-shaped string fields and
// github.com/lucasjones/reggen for regex-shaped string fields, grounded on
// the same "register under a dotted name" shape internal/plugin.Registry
// itself uses.
//
// Callers opt in explicitly:
//
//	compiler, _ := vague.New(cfg)
//	samplegen.Register(compiler.Registry)
package samplegen

import (
	"github.com/go-faker/faker/v4"
	"github.com/lucasjones/reggen"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/plugin"
	"github.com/mcclowes/vague/internal/value"
)

// Register adds every samplegen function to reg under the "faker." and
// "regex." namespaces. None are marked pure: faker and reggen both draw
// from their own package-global randomness rather than the compile's
// seeded PRNG, so memoizing them would freeze a field to its first
// generated value across every record in a dataset (spec.md section 4.9's
// determinism guarantee applies to the core language, not to opted-in
// plugins that reach outside it).
func Register(reg *plugin.Registry) {
	reg.Register("faker.name", fakerString(faker.Name), false)
	reg.Register("faker.firstName", fakerString(faker.FirstName), false)
	reg.Register("faker.lastName", fakerString(faker.LastName), false)
	reg.Register("faker.email", fakerString(faker.Email), false)
	reg.Register("faker.phone", fakerString(faker.Phonenumber), false)
	reg.Register("faker.word", fakerString(faker.Word), false)
	reg.Register("faker.sentence", fakerString(faker.Sentence), false)
	reg.Register("faker.uuid", fakerString(faker.UUIDHyphenated), false)
	reg.Register("regex.sample", regexSample, false)
}

// fakerString adapts a zero-argument faker string generator to the
// plugin.Func signature, ignoring any arguments a schema author passes.
func fakerString(gen func() string) plugin.Func {
	return func(_ plugin.RNG, _ []value.Value) (value.Value, error) {
		return value.Str(gen()), nil
	}
}

// regexSample generates a string matching a regular expression pattern:
// regex.sample(pattern) or regex.sample(pattern, maxRepeat).
func regexSample(_ plugin.RNG, args []value.Value) (value.Value, error) {
	if len(args) == 0 || args[0].Kind != value.KindString {
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "regex.sample: expected a string pattern argument")
	}
	limit := 10
	if len(args) > 1 && args[1].Kind == value.KindInt {
		limit = int(args[1].Int)
	}
	out, err := reggen.Generate(args[0].Str, limit)
	if err != nil {
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "regex.sample: %v", err)
	}
	return value.Str(out), nil
}
