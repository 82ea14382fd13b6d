//go:build !js

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tacc/pkg/asm"
	"tacc/pkg/compiler"
	"tacc/pkg/llvmir"
	"tacc/pkg/utils"
	"tacc/pkg/vm"
)

func main() {
	inPath := flag.String("in", "", "input file: source, or a listing when it ends in .tac")
	outPath := flag.String("out", "", "output listing path (default: input with .tac extension)")
	runProgram := flag.Bool("run", false, "run the listing on the listing machine")
	emitLLVM := flag.String("llvm", "", "also write the listing lowered to LLVM IR to this path")
	env := vm.Env{}
	flag.Var(env, "set", "bind a variable before running, as name=value (repeatable)")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -in <source or listing>")
		flag.Usage()
		os.Exit(2)
	}

	src, err := utils.ReadSource(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input file %q: %v\n", *inPath, err)
		os.Exit(1)
	}

	var program compiler.Listing
	if strings.HasSuffix(*inPath, ".tac") {
		var sourceMap map[int]int
		program, sourceMap, err = asm.Assemble(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "listing check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("verified %d instructions from %d source lines\n", len(program), lastLine(sourceMap))
	} else {
		res, err := compiler.Compile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
			os.Exit(1)
		}
		program = res.Listing

		output := *outPath
		if output == "" {
			output = defaultOutputPath(*inPath)
		}
		if err := writeListing(output, program); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write listing %q: %v\n", output, err)
			os.Exit(1)
		}
		fmt.Printf("compiled %d instructions -> %s\n", len(program), output)
	}

	if *emitLLVM != "" {
		mod, err := llvmir.Lower(program, llvmir.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "llvm lowering failed: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*emitLLVM, []byte(mod.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %q: %v\n", *emitLLVM, err)
			os.Exit(1)
		}
		fmt.Printf("variable slots: %s\n", strings.Join(mod.Slots, " "))
	}

	if !*runProgram {
		return
	}
	if err := runListing(program, env); err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", *inPath, err)
		os.Exit(1)
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".tac"
	}
	return strings.TrimSuffix(inPath, ext) + ".tac"
}

func writeListing(path string, l compiler.Listing) error {
	return os.WriteFile(path, []byte(l.String()), 0o644)
}

func lastLine(sourceMap map[int]int) int {
	n := 0
	for _, line := range sourceMap {
		if line > n {
			n = line
		}
	}
	return n
}

func runListing(program compiler.Listing, env vm.Env) error {
	m, err := vm.New(program, env)
	if err != nil {
		return err
	}
	if err := m.Run(); err != nil {
		return err
	}

	fmt.Printf("run complete: %d instructions\n", m.Steps)
	for _, name := range m.VarNames() {
		fmt.Printf("  %s = %s\n", name, m.Vars[name])
	}
	return nil
}
