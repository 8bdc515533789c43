// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command graphdemo builds a small layer graph, rotates a layer through a
// transform mask and writes the composited image as PNG.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/imagegraph"
	"github.com/gogpu/imagegraph/transform"
)

func main() {
	var (
		width   = flag.Int("width", 512, "image width")
		height  = flag.Int("height", 384, "image height")
		angle   = flag.Float64("angle", 30, "rotation of the top layer in degrees")
		blur    = flag.Int("blur", 4, "box blur radius of the background layer")
		output  = flag.String("output", "graph.png", "output file")
		texture = flag.String("texture", "", "also write the projection packed for a texture upload")
		verbose = flag.Bool("v", false, "log scheduling and regeneration")
	)
	flag.Parse()

	if *verbose {
		imagegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	img, err := imagegraph.NewImage(*width, *height)
	if err != nil {
		log.Fatalf("Failed to create image: %v", err)
	}
	defer func() { _ = img.Close() }()

	img.Subscribe(imagegraph.Handlers{
		NodeAdded: func(n *imagegraph.Node) { log.Printf("added %s %q", n.Kind(), n.Name()) },
	})

	img.BeginBatchUpdate()
	background := addStripes(img, "background")
	if *blur > 0 {
		must(background.AddChild(imagegraph.NewFilterMask(img, "blur", imagegraph.BoxBlur{Radius: *blur})))
	}
	top := addSquare(img, "square")
	mask := imagegraph.NewTransformMask(img, "rotate")
	must(top.AddChild(mask))
	img.EndBatchUpdate()

	cx, cy := float64(*width)/2, float64(*height)/2
	params := imagegraph.NewAffineParams(transform.RotateAt(*angle*math.Pi/180, cx, cy))
	must(mask.SetTransformParams(params))

	// Render the final quality image instead of waiting for the delay.
	img.WaitForDone()
	img.ForceAllDelayedNodesUpdate()
	img.WaitForDone()
	img.Router().Drain()

	if err := savePNG(*output, img.Projection()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Graph saved to %s (%dx%d)\n", *output, *width, *height)

	if *texture != "" {
		td := img.ProjectionTextureData(img.Bounds())
		if err := os.WriteFile(*texture, td.Pix, 0o644); err != nil {
			log.Fatalf("Failed to save texture: %v", err)
		}
		log.Printf("Texture saved to %s (%s, %d bytes per row)\n", *texture, td.Format, td.Layout.BytesPerRow)
	}
}

func addStripes(img *imagegraph.Image, name string) *imagegraph.Layer {
	l := imagegraph.NewPaintLayer(img, name)
	must(img.Root().AddChild(l))

	b := img.Bounds()
	dev := l.PaintDevice()
	const stripe = 32
	for y := b.Min.Y; y < b.Max.Y; y += stripe {
		t := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.RGBA{R: uint8(25 + 100*t), G: uint8(50 + 75*t), B: uint8(100 + 50*t), A: 255}
		dev.Fill(image.Rect(b.Min.X, y, b.Max.X, y+stripe/2), c)
	}
	l.SetDirty(b)
	return l
}

func addSquare(img *imagegraph.Image, name string) *imagegraph.Layer {
	l := imagegraph.NewPaintLayer(img, name)
	must(img.Root().AddChild(l))

	b := img.Bounds()
	side := min(b.Dx(), b.Dy()) / 3
	c := b.Min.Add(image.Pt(b.Dx()/2, b.Dy()/2))
	r := image.Rect(c.X-side/2, c.Y-side/2, c.X+side/2, c.Y+side/2)
	l.PaintDevice().Fill(r, color.RGBA{R: 255, G: 200, A: 255})
	l.SetDirty(r)
	return l
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
