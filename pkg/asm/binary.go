package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatBinary renders each word as a 16-character 0/1 line.
func FormatBinary(words []uint16) string {
	var sb strings.Builder
	sb.Grow(len(words) * 17)
	for _, w := range words {
		fmt.Fprintf(&sb, "%016b\n", w)
	}
	return sb.String()
}

// ParseBinary reads the .hack text form back into words. Blank lines are
// skipped.
func ParseBinary(text string) ([]uint16, error) {
	var words []uint16
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(line) != 16 {
			return nil, fmt.Errorf("%w: expected 16 bits on line %d, got %d", ErrSyntax, i+1, len(line))
		}
		v, err := strconv.ParseUint(line, 2, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid binary word on line %d", ErrSyntax, i+1)
		}
		words = append(words, uint16(v))
	}
	return words, nil
}
