package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"hackc/pkg/cpu"
)

// ErrSyntax is returned for assembly text that cannot be parsed.
var ErrSyntax = errors.New("assembly syntax error")

// Parse reads assembly text, one instruction per line. Whitespace inside a
// line is ignored; // starts a comment.
func Parse(code string) ([]Instruction, error) {
	var out []Instruction
	for i, raw := range strings.Split(code, "\n") {
		in, ok, err := ParseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, in)
		}
	}
	return out, nil
}

// ParseLine parses one line. ok is false for blank and comment-only lines.
func ParseLine(raw string, lineNo int) (Instruction, bool, error) {
	line := removeSpaces(stripComments(raw))
	if line == "" {
		return nil, false, nil
	}

	switch {
	case line[0] == '@':
		operand := line[1:]
		if operand == "" {
			return nil, false, fmt.Errorf("%w: missing operand on line %d", ErrSyntax, lineNo)
		}
		if unicode.IsDigit(rune(operand[0])) {
			v, err := strconv.ParseUint(operand, 10, 16)
			if err != nil {
				return nil, false, fmt.Errorf("%w: invalid immediate '%s' on line %d", ErrSyntax, operand, lineNo)
			}
			if v > cpu.MaxAddress {
				return nil, false, fmt.Errorf("%w: immediate %d on line %d", ErrEncodingOverflow, v, lineNo)
			}
			return AImm{Value: uint16(v)}, true, nil
		}
		if !isIdentifier(operand) {
			return nil, false, fmt.Errorf("%w: invalid symbol '%s' on line %d", ErrSyntax, operand, lineNo)
		}
		return ASymbol{Name: operand}, true, nil

	case line[0] == '(':
		if !strings.HasSuffix(line, ")") {
			return nil, false, fmt.Errorf("%w: unterminated label on line %d", ErrSyntax, lineNo)
		}
		name := line[1 : len(line)-1]
		if !isIdentifier(name) {
			return nil, false, fmt.Errorf("%w: invalid label '%s' on line %d", ErrSyntax, name, lineNo)
		}
		return L{Name: name}, true, nil
	}

	return parseCompute(line, lineNo)
}

func parseCompute(line string, lineNo int) (Instruction, bool, error) {
	var c C
	rest := line
	if eq := strings.IndexByte(rest, '='); eq >= 0 {
		d, ok := cpu.ParseDest(rest[:eq])
		if !ok {
			return nil, false, fmt.Errorf("%w: invalid dest '%s' on line %d", ErrUnsupported, rest[:eq], lineNo)
		}
		c.Dest = d
		rest = rest[eq+1:]
	}
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		j, ok := cpu.ParseJump(rest[semi+1:])
		if !ok {
			return nil, false, fmt.Errorf("%w: invalid jump '%s' on line %d", ErrUnsupported, rest[semi+1:], lineNo)
		}
		c.Jump = j
		rest = rest[:semi]
	}
	comp, ok := cpu.ParseComp(rest)
	if !ok {
		return nil, false, fmt.Errorf("%w: invalid comp '%s' on line %d", ErrUnsupported, rest, lineNo)
	}
	c.Comp = comp
	return c, true, nil
}

// Format renders instructions as assembly text. Labels start in column 0,
// everything else is indented.
func Format(instrs []Instruction) string {
	var sb strings.Builder
	for _, in := range instrs {
		if _, ok := in.(L); !ok {
			sb.WriteString("    ")
		}
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripComments(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// isIdentifier follows the Hack symbol rules: letters, digits, and _ . $ :
// with no leading digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_.$:", r) {
			return false
		}
	}

	return true
}
