// Package mutation turns the YAML mutation definitions into executable
// statements. Templates are rendered once per scope (chunk range, unscoped,
// count) with discovery bindings captured immutably at the start of a run, so
// concurrent tasks never share mutable state.
package mutation

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/soarhq/chunkops/pkg/postgres"
	"github.com/soarhq/chunkops/pkg/utils"
)

type (
	// Mutation is a compiled mutation definition, ready for binding.
	Mutation struct {
		cfg       Config
		statement *template.Template
		predicate *template.Template
	}

	// Bound is a mutation with its discovery bindings resolved. It is
	// immutable and safe for concurrent use by pool workers.
	Bound struct {
		m        *Mutation
		bindings map[string]string
		empty    bool
	}

	templateData struct {
		Table       string
		TimeColumn  string
		RangeFilter string
		Bindings    map[string]string
	}
)

// New compiles a mutation's statement and predicate templates. Templates have
// the full sprig function set available.
func New(cfg Config) (*Mutation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stmt, err := template.New("statement").Funcs(sprig.TxtFuncMap()).Parse(cfg.Statement)
	if err != nil {
		return nil, errors.Wrapf(err, "mutation %q: failed to parse statement template", cfg.Name)
	}

	pred, err := template.New("predicate").Funcs(sprig.TxtFuncMap()).Parse(cfg.Predicate)
	if err != nil {
		return nil, errors.Wrapf(err, "mutation %q: failed to parse predicate template", cfg.Name)
	}

	return &Mutation{cfg: cfg, statement: stmt, predicate: pred}, nil
}

// Name returns the mutation's configured name.
func (m *Mutation) Name() string { return m.cfg.Name }

// Table returns the target hypertable.
func (m *Mutation) Table() string { return m.cfg.Table }

// Bind checks the mutation's preconditions, runs its discovery queries once,
// and returns an immutable Bound mutation. A precondition mismatch is an
// error; a discovery query returning zero rows yields an empty binding, which
// marks the whole run as a no-op (there is nothing to target).
func (m *Mutation) Bind(ctx context.Context, exec postgres.Executor) (*Bound, error) {
	for i, p := range m.cfg.Preconditions {
		out, err := exec.Query(ctx, p.Query)
		if err != nil {
			return nil, errors.Wrapf(err, "mutation %q: precondition %d failed to run", m.cfg.Name, i+1)
		}
		if out != p.Expect {
			return nil, errors.Errorf("mutation %q: precondition %d not met (got %q, want %q)",
				m.cfg.Name, i+1, out, p.Expect)
		}
	}

	bound := &Bound{m: m, bindings: make(map[string]string, len(m.cfg.Discover))}
	for _, d := range m.cfg.Discover {
		rows, err := exec.QueryRows(ctx, d.Query)
		if err != nil {
			return nil, errors.Wrapf(err, "mutation %q: discovery %q failed", m.cfg.Name, d.Name)
		}

		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if len(row) > 0 && row[0] != "" {
				values = append(values, row[0])
			}
		}

		if len(values) == 0 {
			bound.empty = true
		}
		bound.bindings[d.Name] = utils.QuoteLiterals(values)
	}

	return bound, nil
}

// Name returns the underlying mutation's name.
func (b *Bound) Name() string { return b.m.cfg.Name }

// Table returns the target hypertable.
func (b *Bound) Table() string { return b.m.cfg.Table }

// Empty reports whether a discovery query matched nothing, making the whole
// run a no-op.
func (b *Bound) Empty() bool { return b.empty }

// OnDecompressFailure returns the resolved decompress-failure policy.
func (b *Bound) OnDecompressFailure() string {
	if b.m.cfg.OnDecompressFailure == "" {
		return OnDecompressFailureContinue
	}
	return b.m.cfg.OnDecompressFailure
}

// Strategy returns the resolved run strategy.
func (b *Bound) Strategy() string {
	if b.m.cfg.Strategy == "" {
		return StrategyChunk
	}
	return b.m.cfg.Strategy
}

// Parallelism returns the mutation-level parallelism override (0 if unset).
func (b *Bound) Parallelism() int { return b.m.cfg.Parallelism }

// StatementForRange renders the mutation statement scoped to the half-open
// interval [start, end), with any configured session settings prefixed.
func (b *Bound) StatementForRange(start, end time.Time) (string, error) {
	filter := fmt.Sprintf("(%s >= %s::timestamptz AND %s < %s::timestamptz)",
		utils.QuoteIdentifier(b.m.cfg.TimeColumn), utils.QuoteLiteral(formatTimestamp(start)),
		utils.QuoteIdentifier(b.m.cfg.TimeColumn), utils.QuoteLiteral(formatTimestamp(end)))
	return b.render(b.m.statement, filter, true)
}

// StatementUnscoped renders the mutation statement with {{ .RangeFilter }}
// expanded to TRUE, targeting the whole table. Used by the bulk strategy.
func (b *Bound) StatementUnscoped() (string, error) {
	return b.render(b.m.statement, "TRUE", true)
}

// CountQuery renders the predicate count query used for preflight reporting
// and post-run verification.
func (b *Bound) CountQuery() (string, error) {
	return b.render(b.m.predicate, "TRUE", false)
}

func (b *Bound) render(tmpl *template.Template, rangeFilter string, withSettings bool) (string, error) {
	var buf strings.Builder
	data := templateData{
		Table:       b.m.cfg.Table,
		TimeColumn:  b.m.cfg.TimeColumn,
		RangeFilter: rangeFilter,
		Bindings:    b.bindings,
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "mutation %q: failed to render template", b.m.cfg.Name)
	}

	rendered := strings.TrimSpace(buf.String())
	if !withSettings || len(b.m.cfg.SessionSettings) == 0 {
		return rendered, nil
	}

	parts := make([]string, 0, len(b.m.cfg.SessionSettings)+1)
	for _, s := range b.m.cfg.SessionSettings {
		parts = append(parts, strings.TrimSuffix(strings.TrimSpace(s), ";"))
	}
	parts = append(parts, rendered)
	return strings.Join(parts, ";\n"), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
