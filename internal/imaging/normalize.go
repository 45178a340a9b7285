package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	dimg "github.com/disintegration/imaging"
)

// claheClipLimit and claheTiles mirror the contrast-enhancement parameters
// that work well for unevenly lit thermal-paper receipts.
const (
	claheClipLimit = 2.0
	claheTiles     = 8
)

// Normalize prepares a receipt photo for classical OCR.
//
// The pipeline is grayscale -> median denoise -> local-contrast enhancement
// (CLAHE) -> Otsu binarization. The ordering matters: enhancing contrast
// before denoising would amplify camera speckle, and binarizing before
// enhancement would throw away the grayscale signal the enhancer needs.
//
// Normalize never fails. If the image is too small for tile-based contrast
// enhancement it degrades to returning the plain grayscale conversion.
func Normalize(img image.Image) *image.Gray {
	gray := Grayscale(img)

	bounds := gray.Bounds()
	if bounds.Dx() < claheTiles || bounds.Dy() < claheTiles {
		return gray
	}

	denoised := Grayscale(effect.Median(gray, 3))
	enhanced := clahe(denoised, claheClipLimit, claheTiles)
	return segment.Threshold(enhanced, otsuLevel(enhanced))
}

// Grayscale converts any image to a single-channel 8-bit grayscale raster.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	src := dimg.Grayscale(img)
	bounds := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// After imaging.Grayscale all channels hold the luminance.
			i := src.PixOffset(x, y)
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: src.Pix[i]})
		}
	}
	return gray
}

// clahe applies contrast-limited adaptive histogram equalization.
//
// The image is divided into tiles×tiles regions. Each region gets its own
// equalization lookup table with the histogram clipped at clipLimit times the
// uniform bin height (the excess is redistributed evenly). Per-pixel output is
// bilinearly interpolated between the four nearest tile tables, which avoids
// visible tile seams.
func clahe(img *image.Gray, clipLimit float64, tiles int) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tileW := (width + tiles - 1) / tiles
	tileH := (height + tiles - 1) / tiles

	// Build one equalization LUT per tile.
	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0 := tx * tileW
			y0 := ty * tileH
			x1 := min(x0+tileW, width)
			y1 := min(y0+tileH, height)
			luts[ty*tiles+tx] = tileLUT(img, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		// Fractional tile coordinates of the pixel relative to tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := clampInt(int(fy), 0, tiles-1)
		ty1 := clampInt(ty0+1, 0, tiles-1)
		wy := fy - float64(ty0)
		if wy < 0 {
			wy = 0
		} else if wy > 1 {
			wy = 1
		}

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := clampInt(int(fx), 0, tiles-1)
			tx1 := clampInt(tx0+1, 0, tiles-1)
			wx := fx - float64(tx0)
			if wx < 0 {
				wx = 0
			} else if wx > 1 {
				wx = 1
			}

			v := img.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y
			tl := float64(luts[ty0*tiles+tx0][v])
			tr := float64(luts[ty0*tiles+tx1][v])
			bl := float64(luts[ty1*tiles+tx0][v])
			br := float64(luts[ty1*tiles+tx1][v])

			top := tl*(1-wx) + tr*wx
			bottom := bl*(1-wx) + br*wx
			out.Pix[y*out.Stride+x] = uint8(top*(1-wy) + bottom*wy + 0.5)
		}
	}
	return out
}

// tileLUT computes the clipped-histogram equalization table for one tile.
func tileLUT(img *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	bounds := img.Bounds()

	var hist [256]int
	total := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[img.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y]++
			total++
		}
	}

	var lut [256]uint8
	if total == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	// Clip each bin and spread the clipped mass evenly across all bins.
	clip := int(clipLimit * float64(total) / 256.0)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	for i := range hist {
		hist[i] += share
	}

	cum := 0
	scale := 255.0 / float64(total)
	for i := range hist {
		cum += hist[i]
		lut[i] = uint8(float64(cum)*scale + 0.5)
	}
	return lut
}

// otsuLevel finds the global threshold maximizing between-class variance.
func otsuLevel(img *image.Gray) uint8 {
	var hist [256]int
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}
	if total == 0 {
		return 128
	}

	sum := 0.0
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var (
		sumBack    float64
		weightBack int
		bestVar    float64
		level      uint8
	)
	for i := 0; i < 256; i++ {
		weightBack += hist[i]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}

		sumBack += float64(i) * float64(hist[i])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sum - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		betweenVar := float64(weightBack) * float64(weightFore) * diff * diff
		if betweenVar > bestVar {
			bestVar = betweenVar
			level = uint8(i)
		}
	}
	return level
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
