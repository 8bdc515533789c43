// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package paint

import "github.com/gogpu/gputypes"

// ColorSpace identifies the pixel model of a device.
//
// Pixels are always stored as premultiplied 8-bit RGBA. The ID tells
// caches whether a device must be reallocated, and Format decides how
// Device.TextureData packs the pixels.
type ColorSpace struct {
	// ID is a stable identifier such as "RGBA/U8/sRGB".
	ID string

	// Format is the texture format pixels are packed into.
	Format gputypes.TextureFormat
}

// Predefined color spaces.
var (
	RGBA8  = ColorSpace{ID: "RGBA/U8/sRGB", Format: gputypes.TextureFormatRGBA8Unorm}
	BGRA8  = ColorSpace{ID: "BGRA/U8/sRGB", Format: gputypes.TextureFormatBGRA8Unorm}
	Alpha8 = ColorSpace{ID: "A/U8", Format: gputypes.TextureFormatR8Unorm}
)

// IsZero reports whether c is the zero color space.
func (c ColorSpace) IsZero() bool {
	return c == ColorSpace{}
}

// BytesPerPixel returns the size of one pixel packed in Format.
func (c ColorSpace) BytesPerPixel() int {
	switch c.Format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 4
	}
}

// String returns the identifier.
func (c ColorSpace) String() string {
	if c.ID == "" {
		return "undefined"
	}
	return c.ID
}
