// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package paint

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/imagegraph/region"
	"github.com/gogpu/imagegraph/transform"
)

// TransformAffine replaces the pixels of rect in dst with src mapped
// through m (source to destination), using bilinear filtering. Integer
// translations are copied exactly.
func TransformAffine(dst, src *Device, m transform.Affine, rect image.Rectangle) {
	if rect.Empty() {
		return
	}
	inv, ok := m.Invert()
	if !ok {
		dst.Clear(rect)
		return
	}

	out := image.NewRGBA(rect)
	srcRect := region.Intersect(region.Grow(inv.MapRect(rect), 1), src.Extent())
	if !srcRect.Empty() {
		snapshot := src.ReadRGBA(srcRect)
		if tx, ty := m.Translation(); m.IsTranslation() && tx == math.Trunc(tx) && ty == math.Trunc(ty) {
			shift := image.Pt(int(tx), int(ty))
			draw.Draw(out, rect, snapshot, rect.Min.Sub(shift), draw.Src)
		} else {
			draw.BiLinear.Transform(out, m.Aff3(), snapshot, srcRect, draw.Src, nil)
		}
	}
	dst.Write(out, rect)
}

// TransformPerspective replaces the pixels of rect in dst with src mapped
// through the projective matrix p (source to destination). Destination
// pixels whose preimage lies behind the horizon stay transparent.
func TransformPerspective(dst, src *Device, p transform.Perspective, rect image.Rectangle) {
	if rect.Empty() {
		return
	}
	inv, ok := p.Invert()
	if !ok {
		dst.Clear(rect)
		return
	}

	srcRect, ok := inv.MapRect(rect)
	if !ok {
		srcRect = src.Extent()
	}
	srcRect = region.Intersect(region.Grow(srcRect, 1), src.Extent())

	out := image.NewRGBA(rect)
	if !srcRect.Empty() {
		snapshot := src.ReadRGBA(srcRect)
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			off := out.PixOffset(rect.Min.X, y)
			for x := rect.Min.X; x < rect.Max.X; x++ {
				sx, sy, ok := inv.Map(float64(x)+0.5, float64(y)+0.5)
				if ok {
					sampleBilinear(snapshot, sx-0.5, sy-0.5, out.Pix[off:off+4])
				}
				off += 4
			}
		}
	}
	dst.Write(out, rect)
}

// sampleBilinear writes the bilinear interpolation of img at continuous
// pixel coordinates (fx, fy) to px. Pixels outside img are transparent.
func sampleBilinear(img *image.RGBA, fx, fy float64, px []byte) {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	wx := fx - float64(x0)
	wy := fy - float64(y0)

	var acc [4]float64
	weights := [4]float64{(1 - wx) * (1 - wy), wx * (1 - wy), (1 - wx) * wy, wx * wy}
	points := [4]image.Point{{x0, y0}, {x0 + 1, y0}, {x0, y0 + 1}, {x0 + 1, y0 + 1}}
	for i, p := range points {
		if weights[i] == 0 || !p.In(img.Rect) {
			continue
		}
		o := img.PixOffset(p.X, p.Y)
		for c := range 4 {
			acc[c] += weights[i] * float64(img.Pix[o+c])
		}
	}
	for c := range 4 {
		px[c] = uint8(math.Min(255, math.Round(acc[c])))
	}
}
