package raster

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Dimensions below this are upscaled before recognition; engineering drawing
// callouts rendered at screen resolution are often too small for the engine.
const minRecognitionSize = 1000

// Preprocess prepares a rendered page for recognition: grayscale conversion,
// contrast stretch, a light sharpening pass, and upscaling of small images.
func Preprocess(src image.Image) image.Image {
	gray := toGray(src)
	stretchContrast(gray)
	sharpened := sharpen(gray)
	b := sharpened.Bounds()
	if b.Dx() < minRecognitionSize && b.Dy() < minRecognitionSize {
		return upscale(sharpened, 2)
	}
	return sharpened
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	return gray
}

// stretchContrast remaps pixel intensities so the darkest pixel becomes 0 and
// the brightest 255. Flat images are left untouched.
func stretchContrast(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(float64(p-lo) * scale)
	}
}

// sharpen applies a 3x3 unsharp kernel. Border pixels are copied unchanged.
func sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, img.Pix)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := int(img.GrayAt(x, y).Y)
			sum := 5*center -
				int(img.GrayAt(x-1, y).Y) -
				int(img.GrayAt(x+1, y).Y) -
				int(img.GrayAt(x, y-1).Y) -
				int(img.GrayAt(x, y+1).Y)
			if sum < 0 {
				sum = 0
			} else if sum > 255 {
				sum = 255
			}
			out.Pix[y*out.Stride+x] = uint8(sum)
		}
	}
	return out
}

func upscale(img *image.Gray, factor int) image.Image {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
