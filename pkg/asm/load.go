package asm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImageExt is the file extension used for CBOR program images.
const ImageExt = ".hackimg"

// ReadProgram loads a program from a .hack binary text file, a CBOR image
// or an .asm source, which is assembled on the fly. Only images and
// assembly sources carry symbols.
func ReadProgram(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hack":
		words, err := ParseBinary(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Image{Words: words}, nil
	case ImageExt:
		return UnmarshalImage(data)
	case ".asm":
		instrs, err := Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		a := NewAssembler()
		words, err := a.Assemble(instrs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Image{Words: words, Symbols: a.Symbols()}, nil
	}
	return nil, fmt.Errorf("%s: %w: unknown program format", path, ErrUnsupported)
}

// WriteProgram stores words as .hack text, or as an image when path ends
// in ImageExt.
func WriteProgram(path string, img *Image) error {
	if strings.EqualFold(filepath.Ext(path), ImageExt) {
		data, err := MarshalImage(img)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	return os.WriteFile(path, []byte(FormatBinary(img.Words)), 0o644)
}
