// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package paint

import (
	"image"

	"github.com/gogpu/gputypes"
)

// textureRowAlignment is the row pitch required by buffer-to-texture copies.
const textureRowAlignment = 256

// TextureData is a region of a device packed for a texture write.
type TextureData struct {
	Format gputypes.TextureFormat
	Layout gputypes.TextureDataLayout
	Size   gputypes.Extent3D
	Pix    []byte
}

// TextureData packs r in the byte order of the device's texture format:
// RGBA, BGRA, or the alpha plane alone for single channel formats. Rows
// are padded to 256 bytes. An empty r yields no pixels.
func (d *Device) TextureData(r image.Rectangle) TextureData {
	format := d.cs.Format
	td := TextureData{Format: format}
	if r.Empty() {
		return td
	}

	w, h := r.Dx(), r.Dy()
	pitch := alignUp(w*d.cs.BytesPerPixel(), textureRowAlignment)
	src := d.ReadRGBA(r)
	pix := make([]byte, pitch*h)
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := pix[y*pitch : (y+1)*pitch]
		switch format {
		case gputypes.TextureFormatR8Unorm:
			for x := range w {
				out[x] = row[x*4+3]
			}
		case gputypes.TextureFormatBGRA8Unorm:
			for x := 0; x < len(row); x += 4 {
				out[x], out[x+1], out[x+2], out[x+3] = row[x+2], row[x+1], row[x], row[x+3]
			}
		default:
			copy(out, row)
		}
	}

	td.Pix = pix
	td.Layout = gputypes.TextureDataLayout{BytesPerRow: uint32(pitch), RowsPerImage: uint32(h)}
	td.Size = gputypes.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	return td
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
