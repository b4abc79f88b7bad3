package asm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Image is a linked program plus the metadata tools need to inspect it.
type Image struct {
	Words   []uint16          `cbor:"1,keyasint"`
	Symbols map[string]uint16 `cbor:"2,keyasint,omitempty"`
	Units   []string          `cbor:"3,keyasint,omitempty"`
	Entry   string            `cbor:"4,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("asm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalImage serializes an Image to canonical CBOR, so equal images give
// equal bytes.
func MarshalImage(img *Image) ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// UnmarshalImage deserializes an Image from CBOR bytes.
func UnmarshalImage(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("asm: unmarshal image: %w", err)
	}
	return &img, nil
}
