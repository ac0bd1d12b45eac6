package image

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PlaneLabel returns the overlay text of a plane, e.g. "Z2 C1 T1".
func PlaneLabel(z, c, t int) string {
	return fmt.Sprintf("Z%d C%d T%d", z+1, c+1, t+1)
}

// labelMask renders text scaled to about 30% of the plane width, centered,
// with a black outline. Transparent pixels are left untouched by the caller.
func labelMask(width, height int, text string) *image.RGBA {
	mask := image.NewRGBA(image.Rect(0, 0, width, height))

	// Step 1: Render text at base size
	face := basicfont.Face7x13
	baseTextWidth := font.MeasureString(face, text).Ceil()
	baseTextHeight := 13
	if baseTextWidth == 0 {
		return mask
	}

	textImg := image.NewRGBA(image.Rect(0, 0, baseTextWidth, baseTextHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(11)}, // Baseline above the descent
	}
	drawer.DrawString(text)

	// Step 2: Scale to 30% of the plane width, at least 2x unless the plane
	// is too narrow for it
	targetWidth := int(float64(width) * 0.3)
	scaleFactor := float64(targetWidth) / float64(baseTextWidth)
	if scaleFactor < 2.0 {
		scaleFactor = 2.0
		if width < 2*baseTextWidth {
			scaleFactor = 1.0
		}
	}

	scaledWidth := int(float64(baseTextWidth) * scaleFactor)
	scaledHeight := int(float64(baseTextHeight) * scaleFactor)
	scaled := image.NewRGBA(image.Rect(0, 0, scaledWidth, scaledHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	// Step 3: Center it
	x := (width - scaledWidth) / 2
	y := (height - scaledHeight) / 2

	// Step 4: Circular black outline
	outlineThickness := max(1, scaledHeight/10)
	black := color.RGBA{0, 0, 0, 255}
	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			if scaled.RGBAAt(sx, sy).A == 0 {
				continue
			}
			for dx := -outlineThickness; dx <= outlineThickness; dx++ {
				for dy := -outlineThickness; dy <= outlineThickness; dy++ {
					if dx*dx+dy*dy > outlineThickness*outlineThickness {
						continue
					}
					destX, destY := x+sx+dx, y+sy+dy
					if destX >= 0 && destX < width && destY >= 0 && destY < height {
						mask.SetRGBA(destX, destY, black)
					}
				}
			}
		}
	}

	// Step 5: Text on top
	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			c := scaled.RGBAAt(sx, sy)
			if c.A == 0 {
				continue
			}
			destX, destY := x+sx, y+sy
			if destX >= 0 && destX < width && destY >= 0 && destY < height {
				brightness := uint8((uint16(c.R) + uint16(c.G) + uint16(c.B)) / 3)
				mask.SetRGBA(destX, destY, color.RGBA{brightness, brightness, brightness, 255})
			}
		}
	}
	return mask
}

// drawLabel burns text into every sample of an interleaved plane.
func drawLabel(values []float64, width, height, spp int, text string) {
	mask := labelMask(width, height, text)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := mask.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			v := float64(c.R) / 255
			for s := 0; s < spp; s++ {
				values[(y*width+x)*spp+s] = v
			}
		}
	}
}
