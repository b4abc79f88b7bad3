package asm

import (
	"strconv"
	"strings"
	"testing"
)

// smallProgram adds R0 and R1 into R2.
const smallProgram = `
    @R0
    D=M
    @R1
    D=D+M
    @R2
    M=D
(END)
    @END
    0;JMP
`

// mediumProgram multiplies R0 by R1 into R2 with a counted loop.
const mediumProgram = `
    @R2
    M=0
    @R1
    D=M
    @n
    M=D
(LOOP)
    @n
    D=M
    @END
    D;JEQ
    @R0
    D=M
    @R2
    M=D+M
    @n
    M=M-1
    @LOOP
    0;JMP
(END)
    @END
    0;JMP
`

// largeProgram repeats a block of stack code with its own labels, roughly
// the shape of translator output.
var largeProgram = func() string {
	var sb strings.Builder
	block := `
    @SP
    AM=M-1
    D=M
    A=A-1
    D=M-D
    @TRUE_%[1]d
    D;JGT
    D=0
    @END_%[1]d
    0;JMP
(TRUE_%[1]d)
    D=-1
(END_%[1]d)
    @SP
    A=M-1
    M=D
    @tmp_%[1]d
    M=D
`
	for i := 0; i < 40; i++ {
		sb.WriteString(strings.ReplaceAll(block, "%[1]d", strconv.Itoa(i)))
	}
	return sb.String()
}()

func BenchmarkAssemble_Small(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := AssembleText(smallProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Medium(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := AssembleText(mediumProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssemble_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := AssembleText(largeProgram)
		if err != nil {
			b.Fatal(err)
		}
	}
}
