// Package mangle runs small Google Mangle (Datalog) programs over string
// tuples. A Program is compiled once from source; its base facts can be
// replaced with Reset and re-evaluated with Run as often as needed.
package mangle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"github.com/google/mangle/unionfind"
	"go.uber.org/zap"
)

// ErrFactLimit is returned by Assert once MaxFacts base facts are held.
var ErrFactLimit = errors.New("mangle: fact limit reached")

// Options tune a Program.
type Options struct {
	Logger   *zap.Logger
	MaxFacts int // base facts per run; zero means unlimited
}

// Binding maps query variables to the constants they matched.
type Binding map[string]string

// Program is a compiled Mangle program and the facts it runs over. It is
// safe for concurrent reads; Assert, Run and Reset serialize.
type Program struct {
	logger   *zap.Logger
	maxFacts int

	mu       sync.RWMutex
	info     *analysis.ProgramInfo
	preds    map[string]ast.PredicateSym
	rules    map[ast.PredicateSym][]ast.Clause
	decls    map[ast.PredicateSym]*ast.Decl
	store    factstore.ConcurrentFactStore
	asserted int
}

// Compile parses and analyzes source. Every predicate a caller asserts or
// reads must be declared with Decl.
func Compile(source string, opts Options) (*Program, error) {
	unit, err := parse.Unit(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze program: %w", err)
	}

	p := &Program{
		logger:   opts.Logger,
		maxFacts: opts.MaxFacts,
		info:     info,
		preds:    make(map[string]ast.PredicateSym, len(info.Decls)),
		rules:    make(map[ast.PredicateSym][]ast.Clause),
		decls:    make(map[ast.PredicateSym]*ast.Decl, len(info.Decls)),
		store:    newStore(),
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	for sym, decl := range info.Decls {
		p.preds[sym.Symbol] = sym
		p.decls[sym] = decl
	}
	for _, clause := range info.Rules {
		p.rules[clause.Head.Predicate] = append(p.rules[clause.Head.Predicate], clause)
	}
	return p, nil
}

func newStore() factstore.ConcurrentFactStore {
	return factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore())
}

// Assert adds the base fact pred(args...). Duplicates are ignored and do
// not count towards MaxFacts.
func (p *Program) Assert(pred string, args ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sym, err := p.predicate(pred)
	if err != nil {
		return err
	}
	if len(args) != sym.Arity {
		return fmt.Errorf("%s takes %d arguments, got %d", pred, sym.Arity, len(args))
	}
	if p.maxFacts > 0 && p.asserted >= p.maxFacts {
		return fmt.Errorf("%w (%d)", ErrFactLimit, p.maxFacts)
	}

	terms := make([]ast.BaseTerm, len(args))
	for i, a := range args {
		terms[i] = ast.String(a)
	}
	if p.store.Add(ast.Atom{Predicate: sym, Args: terms}) {
		p.asserted++
	}
	return nil
}

// Run evaluates every rule to a fixpoint over the asserted facts.
func (p *Program) Run() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats, err := mengine.EvalProgramWithStats(p.info, p.store)
	if err != nil {
		return fmt.Errorf("failed to evaluate program: %w", err)
	}
	p.logger.Debug("Mangle evaluation complete",
		zap.Int("asserted", p.asserted),
		zap.Any("stats", stats))
	return nil
}

// Reset drops every fact, base and derived, keeping the compiled rules.
func (p *Program) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = newStore()
	p.asserted = 0
}

// Tuples returns the facts of pred as string tuples, sorted.
func (p *Program) Tuples(pred string) ([][]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sym, err := p.predicate(pred)
	if err != nil {
		return nil, err
	}
	var out [][]string
	err = p.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		row := make([]string, len(atom.Args))
		for i, arg := range atom.Args {
			row[i] = text(arg)
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i], "\x00") < strings.Join(out[j], "\x00")
	})
	return out, nil
}

// Counts returns the number of facts held per predicate.
func (p *Program) Counts() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range p.store.ListPredicates() {
		n := 0
		_ = p.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			n++
			return nil
		})
		counts[sym.Symbol] = n
	}
	return counts
}

// Query answers one atom written in Mangle syntax, such as
// reachable(X, "<http://example.org/goal>"). Each result binds the atom's
// variables; constants in the atom restrict the match.
func (p *Program) Query(ctx context.Context, query string) ([]Binding, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(q, "?"), "."))
	if q == "" {
		return nil, fmt.Errorf("empty query")
	}
	atom, err := parse.Atom(q)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", query, err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	decl, ok := p.decls[atom.Predicate]
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", atom.Predicate.Symbol)
	}
	modes := decl.Modes()
	if len(modes) == 0 {
		return nil, fmt.Errorf("predicate %s has no modes", atom.Predicate.Symbol)
	}

	qc := &mengine.QueryContext{PredToRules: p.rules, PredToDecl: p.decls, Store: p.store}
	var out []Binding
	err = qc.EvalQuery(atom, modes[0], unionfind.New(), func(fact ast.Atom) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := make(Binding)
		for i, arg := range atom.Args {
			if v, ok := arg.(ast.Variable); ok && v.Symbol != "_" && i < len(fact.Args) {
				b[v.Symbol] = text(fact.Args[i])
			}
		}
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", query, err)
	}
	return out, nil
}

func (p *Program) predicate(name string) (ast.PredicateSym, error) {
	sym, ok := p.preds[name]
	if !ok {
		return ast.PredicateSym{}, fmt.Errorf("predicate %s is not declared", name)
	}
	return sym, nil
}

// text renders a constant the way it was asserted.
func text(term ast.BaseTerm) string {
	if c, ok := term.(ast.Constant); ok && (c.Type == ast.StringType || c.Type == ast.NameType) {
		return c.Symbol
	}
	return term.String()
}
