package asm

import (
	"strings"
	"testing"

	"tacc/pkg/compiler"
)

// smallProgram is a single conditional.
const smallProgram = `
LOAD x -> R1
JZ R1 L1
LOAD_CONST 1 -> R2
STORE R2 -> y
JMP L2
LABEL L1
LABEL L2
`

// largeSource compiles to a listing of a few hundred lines.
func largeSource() string {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("a = $$ a + 1 $$ * b / 2 if a > b then c = a - b else c = b - a\n")
	}
	return sb.String()
}

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Assemble(smallProgram); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	res, err := compiler.Compile(largeSource())
	if err != nil {
		b.Fatal(err)
	}
	text := res.Listing.String()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Assemble(text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCheck_Large(b *testing.B) {
	res, err := compiler.Compile(largeSource())
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Check(res.Listing); err != nil {
			b.Fatal(err)
		}
	}
}
