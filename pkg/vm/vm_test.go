package vm

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"tacc/pkg/asm"
	"tacc/pkg/compiler"
)

// runSource compiles src, runs it against env and returns the machine.
func runSource(t *testing.T, src string, env map[string]compiler.Number) *Machine {
	t.Helper()
	res, err := compiler.Compile(src)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	m, err := New(res.Listing, env)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return m
}

func assertVar(t *testing.T, m *Machine, name, want string) {
	t.Helper()
	v, ok := m.Vars[name]
	if !ok {
		t.Fatalf("variable %s not bound; vars=%v", name, m.Vars)
	}
	if v.String() != want {
		t.Errorf("%s = %s, want %s", name, v, want)
	}
}

func TestMachine_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		name string
		want string
	}{
		{"x = 2 + 3 * 4", "x", "14"},
		{"x = $$ 2 + 3 $$ * 4", "x", "20"},
		{"x = 10 - 4 - 3", "x", "3"},
		{"x = 7 / 2", "x", "3.5"},
		{"x = 6 / 3", "x", "2.0"},
		{"x = 1.5 * 2", "x", "3.0"},
		{"x = 3 < 4", "x", "1"},
		{"x = 3 >= 4", "x", "0"},
		{"x = 1 + 1 == 2", "x", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			m := runSource(t, tt.src, nil)
			assertVar(t, m, tt.name, tt.want)
		})
	}
}

func TestMachine_Conditionals(t *testing.T) {
	src := "if a > 5 then b = 1 else b = 2"
	tests := []struct {
		a    int64
		want string
	}{
		{10, "1"},
		{5, "2"},
		{0, "2"},
	}
	for _, tt := range tests {
		m := runSource(t, src, map[string]compiler.Number{"a": compiler.IntNumber(tt.a)})
		assertVar(t, m, "b", tt.want)
	}
}

func TestMachine_MissingElse(t *testing.T) {
	env := map[string]compiler.Number{"a": compiler.IntNumber(0), "b": compiler.IntNumber(7)}
	m := runSource(t, "if a then b = 1", env)
	assertVar(t, m, "b", "7")
}

func TestMachine_NestedConditional(t *testing.T) {
	src := "if a then if b then c = 1 else c = 2 else c = 3"
	cases := map[[2]int64]string{
		{1, 1}: "1",
		{1, 0}: "2",
		{0, 1}: "3",
	}
	for in, want := range cases {
		env := map[string]compiler.Number{
			"a": compiler.IntNumber(in[0]),
			"b": compiler.IntNumber(in[1]),
		}
		m := runSource(t, src, env)
		assertVar(t, m, "c", want)
	}
}

func TestMachine_SequentialAssignments(t *testing.T) {
	m := runSource(t, "x = 1 y = x + 1 x = y * 10", nil)
	assertVar(t, m, "x", "20")
	assertVar(t, m, "y", "2")
	if !reflect.DeepEqual(m.VarNames(), []string{"x", "y"}) {
		t.Errorf("VarNames = %v", m.VarNames())
	}
}

func TestMachine_EnvIsCopied(t *testing.T) {
	env := map[string]compiler.Number{"a": compiler.IntNumber(1)}
	runSource(t, "a = 99", env)
	if env["a"] != compiler.IntNumber(1) {
		t.Errorf("caller env modified: %v", env)
	}
}

func TestMachine_Errors(t *testing.T) {
	tests := []struct {
		src     string
		errText string
	}{
		{"x = y", `variable "y" is not bound`},
		{"x = 1 / 0", "division by zero"},
		{"x = 1 / $$ 2 - 2 $$", "division by zero"},
	}
	for _, tt := range tests {
		res, err := compiler.Compile(tt.src)
		if err != nil {
			t.Fatalf("compile %q: %v", tt.src, err)
		}
		m, err := New(res.Listing, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		err = m.Run()
		if err == nil || !strings.Contains(err.Error(), tt.errText) {
			t.Errorf("%q: expected error containing %q, got %v", tt.src, tt.errText, err)
		}
		if !m.Halted {
			t.Errorf("%q: machine should halt on error", tt.src)
		}
	}
}

func TestNew_RejectsBadListing(t *testing.T) {
	bad := compiler.Listing{
		{Op: compiler.JMP, Target: 3},
	}
	if _, err := New(bad, nil); err == nil {
		t.Fatal("expected error for undefined label")
	}
}

func TestMachine_Step(t *testing.T) {
	program, err := asm.Parse("LOAD_CONST 4 -> R1\nSTORE R1 -> x\n")
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(program, nil)
	if err != nil {
		t.Fatal(err)
	}

	m.Step()
	if m.PC != 1 || m.Halted {
		t.Fatalf("after first step: pc=%d halted=%v", m.PC, m.Halted)
	}
	if m.Regs[1] != compiler.IntNumber(4) {
		t.Errorf("R1 = %s, want 4", m.Regs[1])
	}
	if _, ok := m.Vars["x"]; ok {
		t.Error("x bound before STORE ran")
	}

	m.Step()
	if !m.Halted || m.Steps != 2 {
		t.Errorf("after second step: halted=%v steps=%d", m.Halted, m.Steps)
	}
	assertVar(t, m, "x", "4")

	// Halted machines ignore further steps.
	m.Step()
	if m.Steps != 2 {
		t.Errorf("step on halted machine ran: steps=%d", m.Steps)
	}
}

func TestMachine_EmptyProgram(t *testing.T) {
	m, err := New(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Halted {
		t.Error("empty program should start halted")
	}
	if err := m.Run(); err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestMachine_RunUntilDone(t *testing.T) {
	res, err := compiler.Compile("x = 1 y = 2 z = x + y")
	if err != nil {
		t.Fatal(err)
	}

	m, _ := New(res.Listing, nil)
	err = m.RunUntilDone(2)
	if !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if m.Steps != 2 {
		t.Errorf("steps = %d, want 2", m.Steps)
	}

	if err := m.RunUntilDone(100); err != nil {
		t.Fatalf("RunUntilDone: %v", err)
	}
	assertVar(t, m, "z", "3")
}

func TestMachine_Reset(t *testing.T) {
	m := runSource(t, "x = 5", nil)
	m.Reset()
	if m.PC != 0 || m.Halted || len(m.Regs) != 0 {
		t.Fatalf("reset state: pc=%d halted=%v regs=%v", m.PC, m.Halted, m.Regs)
	}
	assertVar(t, m, "x", "5")
}

func TestMachine_Trace(t *testing.T) {
	res, err := compiler.Compile("x = 1")
	if err != nil {
		t.Fatal(err)
	}
	m, _ := New(res.Listing, nil)
	var trace bytes.Buffer
	m.Trace = &trace
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	want := "   0  LOAD_CONST 1 -> R1\n   1  STORE R1 -> x\n"
	if trace.String() != want {
		t.Errorf("trace:\n%s\nwant:\n%s", trace.String(), want)
	}
}
