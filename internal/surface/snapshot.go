package surface

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"deedles.dev/ximage/format"
	"golang.org/x/image/draw"

	"github.com/1broseidon/surfaced/internal/scene"
)

// ErrNoBuffer is returned by Snapshot when the consumer has nothing bound.
var ErrNoBuffer = errors.New("no buffer bound")

// Snapshot copies the buffer bound for consumer into an image. When maxDim
// is positive the image is scaled down so neither side exceeds it.
func (s *Surface) Snapshot(consumer scene.ConsumerID, maxDim int) (image.Image, error) {
	s.mu.Lock()
	ct, ok := s.textures[consumer]
	if !ok || ct.texture.buffer == nil {
		s.mu.Unlock()
		return nil, ErrNoBuffer
	}
	img := decodeBuffer(ct.texture.buffer)
	s.mu.Unlock()

	if maxDim <= 0 {
		return img, nil
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img, nil
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	transformer := draw.ApproxBiLinear
	transformer.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

// decodeBuffer converts little-endian client pixels into straight-alpha
// NRGBA.
func decodeBuffer(buf scene.Buffer) *image.NRGBA {
	size := buf.Size()
	stride := buf.Stride()
	pix := buf.Pixels()
	pf := buf.Format()
	img := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))

	if src := packedImage(pf, img.Rect, stride, pix); src != nil {
		draw.Draw(img, img.Rect, src, image.Point{}, draw.Src)
		return img
	}

	bpp := 4
	if pf == scene.FormatRGB565 {
		bpp = 2
	}
	for y := 0; y < size.Height; y++ {
		row := y * stride
		for x := 0; x < size.Width; x++ {
			off := row + x*bpp
			if off+bpp > len(pix) {
				return img
			}
			img.SetNRGBA(x, y, pixelAt(pf, pix[off:off+bpp]))
		}
	}
	return img
}

// packedImage wraps tightly packed ARGB8888 and XRGB8888 pixels without
// copying. Other layouts return nil.
func packedImage(pf scene.PixelFormat, rect image.Rectangle, stride int, pix []byte) image.Image {
	var f format.Format
	switch pf {
	case scene.FormatARGB8888:
		f = format.ARGB8888
	case scene.FormatXRGB8888:
		f = format.XRGB8888
	default:
		return nil
	}
	if stride != rect.Dx()*4 || len(pix) < stride*rect.Dy() {
		return nil
	}
	return &format.Image{Format: f, Rect: rect, Pix: pix[:stride*rect.Dy()]}
}

func pixelAt(pf scene.PixelFormat, p []byte) color.NRGBA {
	switch pf {
	case scene.FormatARGB8888:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	case scene.FormatXRGB8888:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	case scene.FormatABGR8888:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case scene.FormatXBGR8888:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	case scene.FormatRGB565:
		v := binary.LittleEndian.Uint16(p)
		r := uint8(v>>11) & 0x1f
		g := uint8(v>>5) & 0x3f
		b := uint8(v) & 0x1f
		return color.NRGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 0xff}
	default:
		panic(fmt.Sprintf("surface: unsupported pixel format %v", pf))
	}
}
