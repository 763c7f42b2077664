// Package build orchestrates the three compile phases across files:
// parse, analyze, generate. Each phase fans out one task per file and
// barriers before the next phase starts. Tasks share only the global
// registry, the type interner, and the progress logger, each guarded by
// its own lock.
package build

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/you-not-fish/jack/internal/check"
	"github.com/you-not-fish/jack/internal/registry"
	"github.com/you-not-fish/jack/internal/symbols"
	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
	"github.com/you-not-fish/jack/internal/vmgen"
)

// Options configures one build.
type Options struct {
	Files []string // .jack inputs, validated by the caller

	Stdlib     bool // preload OS class signatures
	VizAST     bool // write one AST JSON export per unit
	VizChecker bool // write registry and symbol table JSON exports
	Quiet      bool // suppress per-file progress lines
}

// Report summarizes a successful build.
type Report struct {
	Files   int
	Parse   time.Duration
	Analyze time.Duration
	Gen     time.Duration
}

// Unit holds the lifecycle state of a single .jack file across the
// three phases. The AST and symbol table are owned by the unit; after
// parsing, the AST is only read (except the resolved-type slots written
// once during analysis).
type Unit struct {
	Path  string
	Class *syntax.Class
	Table *symbols.Table
}

// OutputPath returns the .vm file written for a source path: same stem,
// alongside the input.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, ".jack") + ".vm"
}

// Build compiles the given files together. It returns a timing report
// on success; on failure the returned error joins every diagnostic and
// all outputs must be treated as invalid.
func Build(opts Options) (Report, error) {
	var rep Report
	rep.Files = len(opts.Files)

	log := newLogger(os.Stdout, opts.Quiet)
	interner := types.NewInterner()
	reg := registry.New()
	if opts.Stdlib {
		reg.LoadStandardLibrary(interner)
	}

	// Phase 1: parse every file in parallel, populating the registry.
	start := time.Now()
	units, errs := parsePhase(opts.Files, interner, reg, log)
	rep.Parse = time.Since(start)
	if len(errs) > 0 {
		return rep, errors.Join(errs...)
	}

	// The program's entry point is checked once, between phases.
	if err := validateMainEntry(reg); err != nil {
		return rep, err
	}

	// Phase 2: analyze every unit in parallel. Tasks read the registry
	// and write only their own symbol table and resolved-type slots.
	start = time.Now()
	errs = analyzePhase(units, reg, interner, log)
	rep.Analyze = time.Since(start)
	if len(errs) > 0 {
		return rep, errors.Join(errs...)
	}

	// Phase 3: generate one .vm file per unit in parallel.
	start = time.Now()
	errs = generatePhase(units, reg, log)
	rep.Gen = time.Since(start)
	if len(errs) > 0 {
		return rep, errors.Join(errs...)
	}

	if opts.VizAST {
		if err := dumpASTs(units); err != nil {
			return rep, err
		}
	}
	if opts.VizChecker {
		if err := dumpChecker(units, reg); err != nil {
			return rep, err
		}
	}

	return rep, nil
}

// parsePhase lexes and parses every file concurrently. Each clean unit
// registers its class and subroutine signatures; registration
// collisions surface as diagnostics of this phase. Units are returned
// in input order.
func parsePhase(files []string, interner *types.Interner, reg *registry.Registry, log *logger) ([]*Unit, []error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]*Unit, len(files))
		units   []*Unit
		errs    []error
	)

	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			unit, taskErrs := parseTask(path, interner, reg)

			mu.Lock()
			defer mu.Unlock()
			if len(taskErrs) > 0 {
				errs = append(errs, taskErrs...)
				return
			}
			results[i] = unit
			log.printf("[Parsed]    %s", path)
		}(i, path)
	}

	wg.Wait()
	for _, unit := range results {
		if unit != nil {
			units = append(units, unit)
		}
	}
	return units, errs
}

// parseTask parses one file and, on success, registers its signatures.
func parseTask(path string, interner *types.Interner, reg *registry.Registry) (*Unit, []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{fmt.Errorf("cannot open input file: %w", err)}
	}
	defer f.Close()

	var diags []error
	errh := func(pos syntax.Pos, msg string) {
		diags = append(diags, &syntax.Error{Pos: pos, Msg: msg})
	}

	p := syntax.NewParser(path, f, interner, errh)
	cls := p.Parse()
	if len(diags) > 0 {
		return nil, diags
	}

	if errs := registerClass(path, cls, reg); len(errs) > 0 {
		return nil, errs
	}

	return &Unit{Path: path, Class: cls, Table: symbols.New()}, nil
}

// registerClass records the class and its subroutine signatures in the
// global registry. Duplicate names across or within files fail here.
func registerClass(path string, cls *syntax.Class, reg *registry.Registry) []error {
	var errs []error

	if !reg.RegisterClass(cls.Name) {
		errs = append(errs, &check.Error{
			Pos: cls.Pos(),
			Msg: fmt.Sprintf("duplicate class '%s'", cls.Name),
		})
	}

	for _, sub := range cls.Subs {
		params := make([]*types.Type, len(sub.Params))
		for i, prm := range sub.Params {
			params[i] = prm.Type
		}
		sig := registry.MethodSignature{
			ReturnType: sub.ReturnType,
			Params:     params,
			Kind:       sub.Kind,
			Line:       sub.Pos().Line(),
			Col:        sub.Pos().Col(),
		}
		if !reg.RegisterMethod(cls.Name, sub.Name, sig) {
			errs = append(errs, &check.Error{
				Pos: sub.Pos(),
				Msg: fmt.Sprintf("duplicate subroutine '%s.%s'", cls.Name, sub.Name),
			})
		}
	}

	return errs
}

// validateMainEntry verifies that Main.main exists, is a function, and
// returns void.
func validateMainEntry(reg *registry.Registry) error {
	sig, err := reg.Signature("Main", "main")
	if err != nil {
		return fmt.Errorf("verification failed for 'Main.main': %w", err)
	}
	if sig.Kind != syntax.Function {
		return errors.New("'Main.main' must be a function, not a method or constructor")
	}
	if !sig.ReturnType.IsVoid() {
		return errors.New("'Main.main' must have a 'void' return type")
	}
	return nil
}

// analyzePhase type-checks every unit concurrently.
func analyzePhase(units []*Unit, reg *registry.Registry, interner *types.Interner, log *logger) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, unit := range units {
		wg.Add(1)
		go func(unit *Unit) {
			defer wg.Done()

			a := check.New(reg, interner)
			err := a.AnalyzeClass(unit.Path, unit.Class, unit.Table)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			log.printf("[Checked]   %s", unit.Path)
		}(unit)
	}

	wg.Wait()
	return errs
}

// generatePhase writes one .vm file per unit concurrently. Each task
// owns its output file handle.
func generatePhase(units []*Unit, reg *registry.Registry, log *logger) []error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, unit := range units {
		wg.Add(1)
		go func(unit *Unit) {
			defer wg.Done()

			outPath := OutputPath(unit.Path)
			err := generateTask(unit, reg, outPath)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			log.printf("[Generated] %s", outPath)
		}(unit)
	}

	wg.Wait()
	return errs
}

func generateTask(unit *Unit, reg *registry.Registry, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot open output file: %w", err)
	}

	g := vmgen.New(reg, unit.Table, out)
	genErr := g.CompileClass(unit.Class)
	closeErr := out.Close()
	if genErr != nil {
		return genErr
	}
	return closeErr
}

// dumpASTs writes a <stem>.ast.json export for every unit.
func dumpASTs(units []*Unit) error {
	for _, unit := range units {
		path := strings.TrimSuffix(unit.Path, ".jack") + ".ast.json"
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		dumpErr := syntax.FprintJSON(f, unit.Class)
		closeErr := f.Close()
		if dumpErr != nil {
			return dumpErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// dumpChecker writes a <stem>.sym.json export per unit plus a
// registry.json beside the first input.
func dumpChecker(units []*Unit, reg *registry.Registry) error {
	for _, unit := range units {
		path := strings.TrimSuffix(unit.Path, ".jack") + ".sym.json"
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		dumpErr := unit.Table.DumpJSON(unit.Class.Name, f)
		closeErr := f.Close()
		if dumpErr != nil {
			return dumpErr
		}
		if closeErr != nil {
			return closeErr
		}
	}

	if len(units) == 0 {
		return nil
	}
	path := strings.TrimSuffix(units[0].Path, ".jack") + ".registry.json"
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	dumpErr := reg.DumpJSON(f)
	closeErr := f.Close()
	if dumpErr != nil {
		return dumpErr
	}
	return closeErr
}
