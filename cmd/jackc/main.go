// Package main implements the Jack compiler entry point.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/you-not-fish/jack/internal/build"
	"github.com/you-not-fish/jack/internal/syntax"
)

// Compiler flags
var (
	emitTokens = flag.Bool("emit-tokens", false, "Output token stream and exit")
	stdlib     = flag.Bool("stdlib", false, "Preload Jack OS class signatures")
	quiet      = flag.Bool("quiet", false, "Suppress per-file progress output")
	version    = flag.Bool("version", false, "Print version")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Jack Compiler %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: jackc [options] <file.jack ...> [--viz-ast] [--viz-checker]\n\n")
		fmt.Fprintf(os.Stderr, "The file list must include Main.jack.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("jackc version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	os.Exit(run(flag.Args()))
}

// run validates the argument list and drives the build. The
// visualization toggles may appear anywhere among the file names.
func run(args []string) int {
	var files []string
	vizAST := false
	vizChecker := false

	for _, arg := range args {
		switch arg {
		case "--viz-ast":
			vizAST = true
			continue
		case "--viz-checker":
			vizChecker = true
			continue
		}

		if filepath.Ext(arg) != ".jack" {
			fmt.Fprintf(os.Stderr, "error: invalid file type, only .jack files are allowed: %s\n", arg)
			return 1
		}
		if _, err := os.Stat(arg); err != nil {
			fmt.Fprintf(os.Stderr, "error: path does not exist: %s\n", arg)
			return 1
		}
		files = append(files, arg)
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input files")
		fmt.Fprintln(os.Stderr, "usage: jackc [options] <file.jack ...>")
		return 1
	}

	if *emitTokens {
		return runEmitTokens(files)
	}

	hasMain := false
	for _, f := range files {
		if filepath.Base(f) == "Main.jack" {
			hasMain = true
			break
		}
	}
	if !hasMain {
		fmt.Fprintln(os.Stderr, "error: compilation failed")
		fmt.Fprintln(os.Stderr, "reason: Missing 'Main.jack'")
		fmt.Fprintln(os.Stderr, "the list of files to compile must include the Main class")
		return 1
	}

	startTotal := time.Now()
	rep, err := build.Build(build.Options{
		Files:      files,
		Stdlib:     *stdlib,
		VizAST:     vizAST,
		VizChecker: vizChecker,
		Quiet:      *quiet,
	})
	total := time.Since(startTotal)

	if err != nil {
		fmt.Fprintln(os.Stderr, "\nCOMPILATION FAILED")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Println("\n========================================")
	fmt.Println(" BUILD SUCCESSFUL")
	fmt.Println("========================================")
	fmt.Printf(" Files Compiled:  %d\n", rep.Files)
	fmt.Printf(" Parsing:         %v\n", rep.Parse)
	fmt.Printf(" Static Analysis: %v\n", rep.Analyze)
	fmt.Printf(" Code Gen:        %v\n", rep.Gen)
	fmt.Printf(" Total Time:      %v\n", total)
	fmt.Printf(" Peak Memory:     %.2f MB\n", float64(mem.Sys)/(1024*1024))
	fmt.Println("========================================")

	return 0
}

// runEmitTokens scans each file and prints all tokens with positions.
func runEmitTokens(files []string) int {
	failed := false

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		var errs []string
		errh := func(pos syntax.Pos, msg string) {
			errs = append(errs, fmt.Sprintf("%s: %s", pos, msg))
		}

		fmt.Printf("%-24s %-14s %s\n", "POSITION", "KIND", "TEXT")
		s := syntax.NewScanner(path, f, errh)
		for {
			tok := s.Current()
			fmt.Printf("%-24s %-14s %s\n", tok.Pos(path), tok.Kind, tok)
			if tok.Kind == syntax.KindEOF {
				break
			}
			s.Advance()
		}
		f.Close()

		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
			failed = true
		}
	}

	if failed {
		return 1
	}
	return 0
}
