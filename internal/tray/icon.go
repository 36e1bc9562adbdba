package tray

import (
	"bytes"
	"encoding/binary"
)

const iconSize = 16

// prompt is the ">_" glyph drawn on the icon, one string per row.
var prompt = [iconSize]string{
	"................",
	"................",
	"................",
	"..#.............",
	"...#............",
	"....#...........",
	".....#..........",
	"......#.........",
	".....#..........",
	"....#...........",
	"...#............",
	"..#.....######..",
	"........######..",
	"................",
	"................",
	"................",
}

// icon encodes a 16x16 32bpp ICO: green prompt on a dark square.
func icon() []byte {
	const (
		headerLen = 6 + 16
		dibLen    = 40
		pixelLen  = iconSize * iconSize * 4
		maskLen   = iconSize * 4 // 1bpp rows padded to 32 bits
	)

	var buf bytes.Buffer
	le := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	// ICONDIR and its single entry
	le([]uint16{0, 1, 1})
	le([]uint8{iconSize, iconSize, 0, 0})
	le([]uint16{1, 32})
	le([]uint32{dibLen + pixelLen + maskLen, headerLen})

	// BITMAPINFOHEADER; height covers pixels and mask
	le([]uint32{dibLen, iconSize, iconSize * 2})
	le([]uint16{1, 32})
	le([]uint32{0, pixelLen, 0, 0, 0, 0})

	// BGRA rows, bottom up
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			if prompt[y][x] == '#' {
				buf.Write([]byte{0x40, 0xe0, 0x40, 0xff})
			} else {
				buf.Write([]byte{0x20, 0x20, 0x20, 0xff})
			}
		}
	}
	buf.Write(make([]byte, maskLen))
	return buf.Bytes()
}
