package vm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned for VM text that does not match the command grammar.
var ErrSyntax = errors.New("vm syntax error")

var segmentByName = map[string]Segment{
	"argument": Argument,
	"local":    Local,
	"static":   Static,
	"constant": Constant,
	"this":     This,
	"that":     That,
	"pointer":  Pointer,
	"temp":     Temp,
}

var opByName = map[string]Op{
	"add": Add,
	"sub": Sub,
	"neg": Neg,
	"eq":  Eq,
	"gt":  Gt,
	"lt":  Lt,
	"and": And,
	"or":  Or,
	"not": Not,
}

// Parse reads VM text, one command per line. Blank lines and // comments
// are skipped.
func Parse(text string) ([]Command, error) {
	var cmds []Command
	for i, raw := range strings.Split(text, "\n") {
		cmd, ok, err := ParseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds, nil
}

// ParseLine parses a single line. ok is false for blank or comment-only lines.
func ParseLine(raw string, lineNo int) (cmd Command, ok bool, err error) {
	line := stripComment(raw)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "push", "pop":
		if len(args) != 2 {
			return nil, false, syntaxErr(lineNo, "%s expects a segment and an index", name)
		}
		seg, found := segmentByName[args[0]]
		if !found {
			return nil, false, syntaxErr(lineNo, "unknown segment %q", args[0])
		}
		idx, err := parseNumber(args[1], lineNo)
		if err != nil {
			return nil, false, err
		}
		if name == "push" {
			return Push{Segment: seg, Index: idx}, true, nil
		}
		return Pop{Segment: seg, Index: idx}, true, nil

	case "label", "goto", "if-goto":
		if len(args) != 1 {
			return nil, false, syntaxErr(lineNo, "%s expects a label", name)
		}
		switch name {
		case "label":
			return Label{Name: args[0]}, true, nil
		case "goto":
			return Goto{Name: args[0]}, true, nil
		default:
			return IfGoto{Name: args[0]}, true, nil
		}

	case "function", "call":
		if len(args) != 2 {
			return nil, false, syntaxErr(lineNo, "%s expects a name and a count", name)
		}
		n, err := parseNumber(args[1], lineNo)
		if err != nil {
			return nil, false, err
		}
		if name == "function" {
			return Function{Name: args[0], NLocals: n}, true, nil
		}
		return Call{Name: args[0], NArgs: n}, true, nil

	case "return":
		if len(args) != 0 {
			return nil, false, syntaxErr(lineNo, "return takes no operands")
		}
		return Return{}, true, nil
	}

	if op, found := opByName[name]; found {
		if len(args) != 0 {
			return nil, false, syntaxErr(lineNo, "%s takes no operands", name)
		}
		return Arithmetic{Op: op}, true, nil
	}
	return nil, false, syntaxErr(lineNo, "unknown command %q", name)
}

// Format renders commands as VM text, one per line.
func Format(cmds []Command) string {
	var sb strings.Builder
	for _, c := range cmds {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func parseNumber(tok string, lineNo int) (uint16, error) {
	v, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return 0, syntaxErr(lineNo, "invalid number %q", tok)
	}
	return uint16(v), nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func syntaxErr(lineNo int, format string, args ...any) error {
	return fmt.Errorf("%w on line %d: %s", ErrSyntax, lineNo, fmt.Sprintf(format, args...))
}
