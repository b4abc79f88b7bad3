package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"hackc/pkg/asm"
	"hackc/pkg/compiler"
	"hackc/pkg/config"
	"hackc/pkg/cpu"
)

// cyclesPerFrame keeps the machine at roughly 1.2 MHz at 60 fps.
const cyclesPerFrame = 20000

// Hack keyboard codes for keys that produce no character.
var specialKeys = map[ebiten.Key]uint16{
	ebiten.KeyEnter:      128,
	ebiten.KeyBackspace:  129,
	ebiten.KeyArrowLeft:  130,
	ebiten.KeyArrowUp:    131,
	ebiten.KeyArrowRight: 132,
	ebiten.KeyArrowDown:  133,
	ebiten.KeyHome:       134,
	ebiten.KeyEnd:        135,
	ebiten.KeyPageUp:     136,
	ebiten.KeyPageDown:   137,
	ebiten.KeyInsert:     138,
	ebiten.KeyDelete:     139,
	ebiten.KeyEscape:     140,
	ebiten.KeyF1:         141,
	ebiten.KeyF2:         142,
	ebiten.KeyF3:         143,
	ebiten.KeyF4:         144,
	ebiten.KeyF5:         145,
	ebiten.KeyF6:         146,
	ebiten.KeyF7:         147,
	ebiten.KeyF8:         148,
	ebiten.KeyF9:         149,
	ebiten.KeyF10:        150,
	ebiten.KeyF11:        151,
	ebiten.KeyF12:        152,
}

type Game struct {
	vm        *cpu.CPU
	screenImg *ebiten.Image // reused 512×256 canvas
	key       uint16        // code currently held, 0 for none
	paused    bool
	showInfo  bool
}

// keyCode picks the KBD value for this frame from the characters typed and
// the keys held. A held key keeps its code until it is released.
func keyCode(prev uint16, typed []rune, pressed []ebiten.Key) uint16 {
	if len(pressed) == 0 && len(typed) == 0 {
		return 0
	}
	for _, k := range pressed {
		if code, ok := specialKeys[k]; ok {
			return code
		}
	}
	if len(typed) > 0 {
		return uint16(typed[len(typed)-1])
	}
	return prev
}

// tick runs one frame's worth of instructions.
func (g *Game) tick() int {
	if g.paused {
		return 0
	}
	g.vm.PushKey(g.key)
	return g.vm.RunFor(cyclesPerFrame)
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) && ebiten.IsKeyPressed(ebiten.KeyControl) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) && ebiten.IsKeyPressed(ebiten.KeyControl) {
		g.showInfo = !g.showInfo
	}
	g.key = keyCode(g.key, ebiten.AppendInputChars(nil), inpututil.AppendPressedKeys(nil))
	g.tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.ScreenRGBA())
	screen.DrawImage(g.screenImg, nil)

	if g.showInfo {
		msg := fmt.Sprintf("PC=%d SP=%d KBD=%d cycles=%d", g.vm.PC, g.vm.SP(), g.key, g.vm.Cycles)
		if g.vm.Halted {
			msg += " [halted]"
		}
		if g.paused {
			msg += " [paused]"
		}
		ebitenutil.DebugPrint(screen, msg)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight
}

func main() {
	showAsm := flag.Bool("show-asm", false, "print the generated assembly")
	restore := flag.String("restore", "", "resume from a snapshot")
	snapshot := flag.String("snapshot", "", "write a snapshot when the window closes")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	commonlog.Configure(*verbose, nil)

	vm := cpu.NewCPU()
	switch {
	case *restore != "":
		if err := vm.RestoreFromFile(*restore); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
	case flag.NArg() == 1:
		filename := flag.Arg(0)
		cfg, err := config.FindAndLoad(filepath.Dir(filename))
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
		opts := cfg.CompileOptions()
		if opts.Library, err = compiler.LoadLibrary(cfg.Build.Library); err != nil {
			log.Fatalf("Library: %v", err)
		}
		img, prog, err := compiler.LoadProgram(filename, opts)
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		if *showAsm && prog != nil {
			print("Generated Assembly:\n", asm.Format(prog.Asm), "\n")
		}
		if err := vm.Load(img.Words); err != nil {
			log.Fatal(err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] <program.vm|dir|.asm|.hack|.hackimg>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth*2, cpu.ScreenHeight*2)
	ebiten.SetWindowTitle("Hack Desktop")

	game := &Game{vm: vm}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}

	if *snapshot != "" {
		if err := vm.HibernateToFile(*snapshot); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
	}
}
