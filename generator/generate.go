// Package generator ties the planner and emitter together behind the one
// exported entry point downstream consumers call: Generate takes a parsed
// schema and returns formatted, import-tidied Go source text.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/binarywire/bwcodec/emitter"
	"github.com/binarywire/bwcodec/planner"
	"github.com/binarywire/bwcodec/schema"
)

// Options configures one generation run. Like the teacher's own
// server.Server, this is a plain struct of config rather than a builder
// or functional-options API — the schema itself carries the only
// generation-relevant defaults (endianness, bit order), so Options is
// limited to concerns outside the schema.
type Options struct {
	// Package names the generated file's package clause.
	Package string

	// PlanConcurrency caps how many types are emitted in parallel;
	// planning runs once, sequentially, before emission. Zero means "use
	// a sensible default" (runtime.NumCPU-sized
	// would be reasonable, but a fixed small cap keeps output
	// deterministic-ish without depending on the host's core count).
	PlanConcurrency int
}

const defaultConcurrency = 4

var preamble = template.Must(template.New("preamble").Parse(
	`// Code generated by bwcodec. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"
	"hash/crc32"

	"github.com/binarywire/bwcodec/bitstream"
)

// Union is the shared sum-type shape every discriminated_union field
// decodes to: Go has no native tagged union, so Tag carries the matched
// variant's declared type name and Value its decoded payload. Tag itself
// is never written: encode writes only the variant's payload, and decode
// picks the variant from a peeked value or an earlier discriminator field.
type Union struct {
	Tag   string
	Value any
}

// Choice is the flat-sum shape a choice field decodes to. Unlike Union,
// a choice carries no externally written discriminator: Type records
// which variant was matched by peeking the variant's own leading byte,
// and Value holds that variant's own decoded payload, already including
// whatever field produced the discriminator.
type Choice struct {
	Type  string
	Value any
}
`))

// Generate plans every type in s in one sequential pass, then fans the
// independent per-type emission work out across an errgroup.Group
// (emission only depends on the plan and schema model, so distinct types
// never share mutable state) before assembling and gofmt/goimports-tidying
// the result.
func Generate(s *schema.Schema, opts Options) (string, error) {
	if opts.Package == "" {
		opts.Package = "generated"
	}

	plan, err := planner.New(s).Plan()
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	// Lazy<Target> wrappers are emitted once, sequentially, before the
	// concurrent per-type fan-out below: two composites can share an
	// instance target, and nothing about per-type emission should have to
	// coordinate who "wins" declaring the shared wrapper.
	lazyWrappers := emitter.New(s, plan).EmitLazyWrappers(plan)

	bodies, err := emitConcurrently(s, plan, opts)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	var out bytes.Buffer
	if err := preamble.Execute(&out, opts); err != nil {
		return "", fmt.Errorf("generate: render preamble: %w", err)
	}
	out.WriteString(lazyWrappers)
	for _, body := range bodies {
		out.WriteString(body)
	}

	formatted, err := imports.Process("generated.go", out.Bytes(), nil)
	if err != nil {
		return "", fmt.Errorf("generate: format output: %w", err)
	}
	return string(formatted), nil
}

// emitConcurrently emits each planned type's source body independently,
// then concatenates them in declaration order regardless of completion
// order — determinism matters for generated source, concurrency is purely
// a throughput optimization for large schemas.
func emitConcurrently(s *schema.Schema, plan *planner.Plan, opts Options) ([]string, error) {
	concurrency := opts.PlanConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	bodies := make([]string, len(plan.Types))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)

	for i, tp := range plan.Types {
		i, tp := i, tp
		g.Go(func() error {
			body, err := emitter.New(s, plan).Emit1(tp)
			if err != nil {
				log.Printf("generator: failed emitting %s: %v", tp.Name, err)
				return err
			}
			bodies[i] = body
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bodies, nil
}
