package cpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"hackc/pkg/grid"
)

const (
	ScreenWidth  = 512
	ScreenHeight = 256
	screenCols   = ScreenWidth / 16
)

// ScreenRGBA decodes the memory-mapped screen into a 512×256 RGBA8888 byte
// slice. Each row is 32 words; bit 0 of a word is its leftmost pixel and a
// set bit is black.
func (c *CPU) ScreenRGBA() []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)
	for off := 0; off < ScreenWords; off++ {
		word := c.RAM[int(ScreenBase)+off]
		col, row := grid.GetGridCoords(off, screenCols)
		for bit := 0; bit < 16; bit++ {
			var v byte = 0xFF
			if word&(1<<bit) != 0 {
				v = 0
			}
			i := grid.Index(col*16+bit, row, ScreenWidth) * 4
			pixels[i+0] = v
			pixels[i+1] = v
			pixels[i+2] = v
			pixels[i+3] = 0xFF
		}
	}
	return pixels
}

// Pixel reports whether the pixel at (x, y) is black.
func (c *CPU) Pixel(x, y int) bool {
	off := grid.Index(x/16, y, screenCols)
	return c.RAM[int(ScreenBase)+off]&(1<<(x%16)) != 0
}

// ScreenImage returns the screen as an *image.RGBA.
func (c *CPU) ScreenImage() *image.RGBA {
	return &image.RGBA{
		Pix:    c.ScreenRGBA(),
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}
}

// SaveScreenshot writes the screen to filename. The format follows the
// extension: .png or .bmp.
func (c *CPU) SaveScreenshot(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".png" && ext != ".bmp" {
		return fmt.Errorf("unsupported screenshot format %q", ext)
	}
	img := c.ScreenImage()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if ext == ".bmp" {
		return bmp.Encode(f, img)
	}
	return png.Encode(f, img)
}
