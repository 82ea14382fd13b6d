package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"tacc/pkg/compiler"
	"tacc/pkg/llvmir"
	"tacc/pkg/utils"
)

const (
	endSentinel = "END"
	historyFile = ".tacc_history"
)

type sections struct {
	tokens, ast, asm, vars, llvm, dump bool
}

func main() {
	var sec sections
	flag.BoolVar(&sec.tokens, "tokens", false, "print the token stream")
	flag.BoolVar(&sec.ast, "ast", false, "print the parsed AST")
	flag.BoolVar(&sec.asm, "asm", false, "print the generated listing")
	flag.BoolVar(&sec.vars, "vars", false, "print the variable mappings")
	flag.BoolVar(&sec.llvm, "llvm", false, "print the listing lowered to LLVM IR")
	flag.BoolVar(&sec.dump, "dump", false, "print the AST as Go values")
	outPath := flag.String("o", "", "write the listing to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: tacc [flags] [file]\n\nWith no file, lines are read from stdin until a line reading %s.\n\n", endSentinel)
		flag.PrintDefaults()
	}
	flag.Parse()

	if !(sec.tokens || sec.ast || sec.asm || sec.vars || sec.llvm || sec.dump) {
		sec.tokens, sec.ast, sec.asm, sec.vars = true, true, true, true
	}

	var src string
	var err error
	switch flag.NArg() {
	case 0:
		src, err = readInteractive(os.Stdin)
	case 1:
		src, err = utils.ReadSource(flag.Arg(0))
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read error:", err)
		os.Exit(1)
	}

	res, err := compiler.Compile(src)
	if res != nil && sec.tokens {
		printTokens(res.Tokens)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var perr *compiler.ParseError
		if errors.As(err, &perr) {
			os.Exit(3)
		}
		os.Exit(1)
	}

	if sec.ast {
		fmt.Println("\nParsed AST:")
		for _, s := range res.Stmts {
			fmt.Println(s)
		}
	}
	if sec.dump {
		fmt.Println("\nAST values:")
		for _, s := range res.Stmts {
			fmt.Printf("%# v\n", pretty.Formatter(s))
		}
	}
	if sec.asm {
		fmt.Println("\nGenerated Assembly:")
		fmt.Print(res.Listing)
	}
	if sec.vars {
		fmt.Println("\nVariable mappings:")
		fmt.Print(res.Symbols)
	}
	if sec.llvm {
		mod, err := llvmir.Lower(res.Listing, llvmir.Options{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "llvm:", err)
			os.Exit(1)
		}
		fmt.Println("\nLLVM IR:")
		fmt.Print(mod)
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(res.Listing.String()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write listing %q: %v\n", *outPath, err)
			os.Exit(1)
		}
	}
}

func printTokens(tokens []compiler.Token) {
	fmt.Println("\nTokens:")
	for _, tok := range tokens {
		fmt.Println(tok)
	}
}

// readInteractive collects source lines until the END sentinel. A terminal
// gets line editing and history; anything else is read as plain lines.
func readInteractive(in *os.File) (string, error) {
	if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
		return readLines(in)
	}

	fmt.Printf("Enter code lines. Type '%s' to finish.\n", endSentinel)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var b strings.Builder
	for {
		line, err := ln.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			break
		}
		if err != nil {
			return "", err
		}
		if isEnd(line) {
			break
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func readLines(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if isEnd(line) {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return utils.NormalizeNewlines(b.String()), nil
}

func isEnd(line string) bool {
	return strings.ToUpper(strings.TrimSpace(line)) == endSentinel
}
