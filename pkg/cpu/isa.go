package cpu

import "fmt"

// Comp is the 7-bit computation field of a C-instruction, including the
// "a" bit (0x40) that selects M instead of A as the second ALU operand.
type Comp uint8

const (
	CompZero     Comp = 0x2A // 0
	CompOne      Comp = 0x3F // 1
	CompMinusOne Comp = 0x3A // -1
	CompD        Comp = 0x0C
	CompA        Comp = 0x30
	CompNotD     Comp = 0x0D
	CompNotA     Comp = 0x31
	CompNegD     Comp = 0x0F
	CompNegA     Comp = 0x33
	CompDPlus1   Comp = 0x1F
	CompAPlus1   Comp = 0x37
	CompDMinus1  Comp = 0x0E
	CompAMinus1  Comp = 0x32
	CompDPlusA   Comp = 0x02
	CompDMinusA  Comp = 0x13
	CompAMinusD  Comp = 0x07
	CompDAndA    Comp = 0x00
	CompDOrA     Comp = 0x15
	CompM        Comp = 0x70
	CompNotM     Comp = 0x71
	CompNegM     Comp = 0x73
	CompMPlus1   Comp = 0x77
	CompMMinus1  Comp = 0x72
	CompDPlusM   Comp = 0x42
	CompDMinusM  Comp = 0x53
	CompMMinusD  Comp = 0x47
	CompDAndM    Comp = 0x40
	CompDOrM     Comp = 0x55
)

// compMnemonics lists every valid comp code with its canonical text.
var compMnemonics = map[Comp]string{
	CompZero:     "0",
	CompOne:      "1",
	CompMinusOne: "-1",
	CompD:        "D",
	CompA:        "A",
	CompNotD:     "!D",
	CompNotA:     "!A",
	CompNegD:     "-D",
	CompNegA:     "-A",
	CompDPlus1:   "D+1",
	CompAPlus1:   "A+1",
	CompDMinus1:  "D-1",
	CompAMinus1:  "A-1",
	CompDPlusA:   "D+A",
	CompDMinusA:  "D-A",
	CompAMinusD:  "A-D",
	CompDAndA:    "D&A",
	CompDOrA:     "D|A",
	CompM:        "M",
	CompNotM:     "!M",
	CompNegM:     "-M",
	CompMPlus1:   "M+1",
	CompMMinus1:  "M-1",
	CompDPlusM:   "D+M",
	CompDMinusM:  "D-M",
	CompMMinusD:  "M-D",
	CompDAndM:    "D&M",
	CompDOrM:     "D|M",
}

var compByMnemonic = func() map[string]Comp {
	m := make(map[string]Comp, len(compMnemonics)+8)
	for c, s := range compMnemonics {
		m[s] = c
	}
	// Commutative spellings accepted by the reference assembler.
	m["A+D"] = CompDPlusA
	m["A&D"] = CompDAndA
	m["A|D"] = CompDOrA
	m["M+D"] = CompDPlusM
	m["M&D"] = CompDAndM
	m["M|D"] = CompDOrM
	m["1+D"] = CompDPlus1
	m["1+A"] = CompAPlus1
	return m
}()

func (c Comp) String() string {
	if s, ok := compMnemonics[c]; ok {
		return s
	}
	return fmt.Sprintf("comp(%#02x)", uint8(c))
}

// Valid reports whether c is one of the 28 defined computations.
func (c Comp) Valid() bool {
	_, ok := compMnemonics[c]
	return ok
}

// UsesM reports whether the computation reads RAM[A].
func (c Comp) UsesM() bool { return c&0x40 != 0 }

// ParseComp looks up a comp mnemonic such as "D+M".
func ParseComp(s string) (Comp, bool) {
	c, ok := compByMnemonic[s]
	return c, ok
}

// Dest is the 3-bit destination field. Bit 2 stores to A, bit 1 to D and
// bit 0 to RAM[A].
type Dest uint8

const (
	DestNone Dest = iota
	DestM
	DestD
	DestMD
	DestA
	DestAM
	DestAD
	DestAMD
)

var destNames = [...]string{"", "M", "D", "MD", "A", "AM", "AD", "AMD"}

func (d Dest) String() string {
	if int(d) < len(destNames) {
		return destNames[d]
	}
	return fmt.Sprintf("dest(%d)", uint8(d))
}

func (d Dest) StoresA() bool { return d&DestA != 0 }
func (d Dest) StoresD() bool { return d&DestD != 0 }
func (d Dest) StoresM() bool { return d&DestM != 0 }

// ParseDest accepts the canonical spellings plus the DM alias for MD.
func ParseDest(s string) (Dest, bool) {
	if s == "DM" {
		return DestMD, true
	}
	for i, n := range destNames {
		if n == s && s != "" {
			return Dest(i), true
		}
	}
	return DestNone, false
}

// Jump is the 3-bit jump condition field.
type Jump uint8

const (
	JumpNone Jump = iota
	JGT
	JEQ
	JGE
	JLT
	JNE
	JLE
	JMP
)

var jumpNames = [...]string{"", "JGT", "JEQ", "JGE", "JLT", "JNE", "JLE", "JMP"}

func (j Jump) String() string {
	if int(j) < len(jumpNames) {
		return jumpNames[j]
	}
	return fmt.Sprintf("jump(%d)", uint8(j))
}

// ParseJump looks up a jump mnemonic such as "JNE".
func ParseJump(s string) (Jump, bool) {
	for i, n := range jumpNames {
		if n == s && s != "" {
			return Jump(i), true
		}
	}
	return JumpNone, false
}

// Taken reports whether the jump fires for an ALU output.
func (j Jump) Taken(out uint16) bool {
	v := int16(out)
	return (j&4 != 0 && v < 0) || (j&2 != 0 && v == 0) || (j&1 != 0 && v > 0)
}

// MaxAddress is the largest value an A-instruction can load.
const MaxAddress = 0x7FFF

// EncodeAddress builds an A-instruction. Callers must range-check value.
func EncodeAddress(value uint16) uint16 {
	return value & MaxAddress
}

// EncodeInstruction builds a C-instruction word: 111a cccc ccdd djjj.
func EncodeInstruction(dest Dest, comp Comp, jump Jump) uint16 {
	return 0xE000 | uint16(comp&0x7F)<<6 | uint16(dest&7)<<3 | uint16(jump&7)
}

// Instruction is a decoded machine word.
type Instruction struct {
	IsAddress bool
	Value     uint16 // A-instructions only
	Dest      Dest
	Comp      Comp
	Jump      Jump
}

// DecodeInstruction splits a word into its fields.
func DecodeInstruction(word uint16) Instruction {
	if word&0x8000 == 0 {
		return Instruction{IsAddress: true, Value: word}
	}
	return Instruction{
		Comp: Comp((word >> 6) & 0x7F),
		Dest: Dest((word >> 3) & 7),
		Jump: Jump(word & 7),
	}
}

// String renders the instruction as assembly text.
func (in Instruction) String() string {
	if in.IsAddress {
		return fmt.Sprintf("@%d", in.Value)
	}
	s := in.Comp.String()
	if in.Dest != DestNone {
		s = in.Dest.String() + "=" + s
	}
	if in.Jump != JumpNone {
		s += ";" + in.Jump.String()
	}
	return s
}

// Disassemble renders a word as assembly text.
func Disassemble(word uint16) string {
	return DecodeInstruction(word).String()
}
