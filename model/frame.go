package model

import (
	"image"
	"image/color"
	"time"
)

// PixelFormat tags the channel ordering of a Frame buffer.
type PixelFormat int

const (
	PixelFormatBGR PixelFormat = iota // OpenCV capture default
	PixelFormatRGB
	PixelFormatGray
)

func (p PixelFormat) Channels() int {
	if p == PixelFormatGray {
		return 1
	}
	return 3
}

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatBGR:
		return "bgr"
	case PixelFormatRGB:
		return "rgb"
	case PixelFormatGray:
		return "gray"
	default:
		return "unknown"
	}
}

// Frame is a tightly packed 8-bit pixel buffer.
//
// Once a frame is handed to the pipeline it must be treated as read-only by everyone:
// the producer clones before submitting if it wants to keep using its buffer.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Format    PixelFormat
	Seq       uint64
	Timestamp time.Time
}

func NewFrame(width, height int, format PixelFormat) Frame {
	return Frame{
		Pix:       make([]byte, width*height*format.Channels()),
		Width:     width,
		Height:    height,
		Format:    format,
		Timestamp: time.Now(),
	}
}

func (f Frame) Stride() int {
	return f.Width * f.Format.Channels()
}

func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Stride()*f.Height
}

func (f Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f Frame) Clone() Frame {
	c := f
	c.Pix = make([]byte, len(f.Pix))
	copy(c.Pix, f.Pix)
	return c
}

// Crop copies the part of the frame covered by r (max exclusive) into a new frame.
// It returns false when r does not overlap the frame or the overlap has no area.
func (f Frame) Crop(r image.Rectangle) (Frame, bool) {
	r = r.Canon().Intersect(f.Bounds())
	if r.Empty() || f.Empty() {
		return Frame{}, false
	}

	ch := f.Format.Channels()
	out := Frame{
		Pix:       make([]byte, r.Dx()*r.Dy()*ch),
		Width:     r.Dx(),
		Height:    r.Dy(),
		Format:    f.Format,
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
	}

	stride := f.Stride()
	rowLen := r.Dx() * ch
	for y := 0; y < r.Dy(); y++ {
		src := (r.Min.Y+y)*stride + r.Min.X*ch
		copy(out.Pix[y*rowLen:(y+1)*rowLen], f.Pix[src:src+rowLen])
	}

	return out, true
}

// Image converts the frame into an RGBA image for libraries that work on image.Image.
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	if f.Empty() {
		return img
	}

	ch := f.Format.Channels()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := y*f.Stride() + x*ch
			var c color.RGBA
			switch f.Format {
			case PixelFormatGray:
				c = color.RGBA{f.Pix[i], f.Pix[i], f.Pix[i], 0xff}
			case PixelFormatRGB:
				c = color.RGBA{f.Pix[i], f.Pix[i+1], f.Pix[i+2], 0xff}
			default:
				c = color.RGBA{f.Pix[i+2], f.Pix[i+1], f.Pix[i], 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}

	return img
}

// FrameFromImage packs any image into a BGR frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy(), PixelFormatBGR)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*f.Stride() + x*3
			f.Pix[i] = byte(bl >> 8)
			f.Pix[i+1] = byte(g >> 8)
			f.Pix[i+2] = byte(r >> 8)
		}
	}
	return f
}
