package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"tacc/pkg/compiler"
	"tacc/pkg/utils"
	"tacc/pkg/vm"
)

func main() {
	env := vm.Env{}
	flag.Var(env, "set", "bind a variable before running, as name=value (repeatable)")
	showAsm := flag.Bool("show-asm", false, "print the generated listing before running")
	trace := flag.Bool("trace", false, "print each instruction as it executes")
	snapshot := flag.Bool("snapshot", false, "print the final machine state as JSON")
	maxSteps := flag.Int("max-steps", 0, "stop after this many instructions (0 means no limit)")
	hibernate := flag.String("hibernate", "", "write the final machine state archive to this path")
	restore := flag.String("restore", "", "resume a machine from a hibernation archive instead of compiling")
	flag.Parse()

	var machine *vm.Machine
	switch {
	case *restore != "":
		m, err := vm.RestoreFromFile(*restore)
		if err != nil {
			log.Fatalf("Failed to restore machine: %v", err)
		}
		for name, v := range env {
			m.Vars[name] = v
		}
		machine = m

	case flag.NArg() == 1:
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			log.Fatalf("Bad source path: %v", err)
		}
		src, err := utils.ReadSource(fullPath)
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		fmt.Fprintln(os.Stderr, "Compiling source file:", fullPath)

		res, err := compiler.Compile(src)
		if err != nil {
			log.Fatalf("Compilation failed: %v", err)
		}
		if *showAsm {
			fmt.Print("Generated Assembly:\n", res.Listing, "\n")
		}

		machine, err = vm.New(res.Listing, env)
		if err != nil {
			log.Fatalf("Invalid listing: %v", err)
		}

	default:
		fmt.Fprintln(os.Stderr, "usage: console [flags] <source file>  |  console -restore <archive>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *trace {
		machine.Trace = os.Stdout
	}

	runErr := machine.RunUntilDone(*maxSteps)

	for _, name := range machine.VarNames() {
		fmt.Printf("%s = %s\n", name, machine.Vars[name])
	}
	fmt.Fprintf(os.Stderr, "ran %s instructions\n", humanize.Comma(int64(machine.Steps)))

	if *snapshot {
		data, err := machine.Snapshot()
		if err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
		fmt.Println(string(data))
	}
	if *hibernate != "" {
		if err := machine.HibernateToFile(*hibernate); err != nil {
			log.Fatalf("Hibernate failed: %v", err)
		}
	}

	if runErr != nil {
		log.Fatalf("Run failed: %v", runErr)
	}
}
