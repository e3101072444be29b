package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"runtime"

	"murmur/fsm"
)

var (
	iconIdle    []byte
	iconIdleHi  []byte
	iconLoading []byte
	iconRec     []byte
	iconBusy    []byte
)

func init() {
	transparent := color.RGBA{A: 0}
	red := color.RGBA{R: 255, G: 59, B: 48, A: 255}
	amber := color.RGBA{R: 255, G: 176, B: 0, A: 255}
	grey := color.RGBA{R: 142, G: 142, B: 147, A: 255}
	dotR := 44.0 / 6.5

	iconIdle = renderIcon(22, &transparent, 22.0/8)
	iconIdleHi = renderIcon(44, &transparent, 44.0/8)
	iconLoading = renderIcon(44, &grey, dotR)
	iconRec = renderIcon(44, &red, dotR)
	iconBusy = renderIcon(44, &amber, dotR)
}

// iconFor returns the icon for a state and whether it is a template
// (monochrome, tinted by the menu bar).
func iconFor(s fsm.State) ([]byte, bool) {
	switch s {
	case fsm.StateRecording:
		return iconRec, false
	case fsm.StateProcessing:
		return iconBusy, false
	case fsm.StateLoading:
		return iconLoading, false
	}
	return iconIdleHi, true
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

func drawCircleIcon(img *image.RGBA, size int, dot *color.RGBA, dotR float64) {
	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - 1
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if dot != nil && d <= dotR {
				img.Set(x, y, dot)
			} else if d <= r {
				img.Set(x, y, color.Black)
			}
		}
	}
}

func renderIcon(size int, dot *color.RGBA, dotR float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawCircleIcon(img, size, dot, dotR)
	data := encodePNG(img)
	if runtime.GOOS == "windows" {
		return wrapICO(data, size)
	}
	return data
}

// wrapICO packs a PNG into a single-image ICO container, which the Windows
// notification area requires.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved byte
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{dim, dim, 0, 0, 1, 32, uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
