// Package media normalizes uploaded images into JPEGs sized for where they
// are shown: square avatars, 16:9 covers, and feed posts.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Kind selects a resize profile.
type Kind int

const (
	// Post keeps the aspect ratio and only scales down past MaxPostEdge.
	Post Kind = iota
	// Avatar center-crops to a square and scales to AvatarSize.
	Avatar
	// Cover center-crops to 16:9 and bounds the result by CoverWidth x CoverHeight.
	Cover
)

const (
	AvatarSize  = 512
	CoverWidth  = 1920
	CoverHeight = 1080
	MaxPostEdge = 1920

	// Quality is the JPEG quality used for every profile.
	Quality = 85

	// MaxSourceEdge and MaxSourcePixels bound the declared canvas of an
	// upload. Decoding allocates the full canvas before any resize.
	MaxSourceEdge   = 10000
	MaxSourcePixels = 40_000_000
)

// ErrUnsupportedImage is returned when data cannot be decoded as an image.
var ErrUnsupportedImage = errors.New("media: unsupported or corrupt image")

// ErrImageTooLarge is returned when the declared dimensions exceed
// MaxSourceEdge or MaxSourcePixels. It wraps ErrUnsupportedImage.
var ErrImageTooLarge = fmt.Errorf("%w: dimensions too large", ErrUnsupportedImage)

func (k Kind) String() string {
	switch k {
	case Avatar:
		return "avatar"
	case Cover:
		return "cover"
	default:
		return "post"
	}
}

// KindForFolder maps a storage folder to its profile.
func KindForFolder(folder string) Kind {
	switch folder {
	case "avatars":
		return Avatar
	case "modules", "lessons", "banners", "courses":
		return Cover
	default:
		return Post
	}
}

// Transcode decodes data, applies the profile for kind, flattens any alpha
// onto white and re-encodes as JPEG. The header is checked against the
// source limits before the pixels are decoded.
func Transcode(data []byte, kind Kind) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if err := checkCanvas(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	var (
		crop       image.Rectangle
		outW, outH int
	)
	b := src.Bounds()
	switch kind {
	case Avatar:
		crop = centerCrop(b, 1, 1)
		outW, outH = AvatarSize, AvatarSize
	case Cover:
		crop = centerCrop(b, 16, 9)
		outW, outH = fit(crop.Dx(), crop.Dy(), CoverWidth, CoverHeight)
	default:
		crop = b
		outW, outH = fit(b.Dx(), b.Dy(), MaxPostEdge, MaxPostEdge)
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if crop.Dx() == outW && crop.Dy() == outH {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkCanvas(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty canvas %dx%d", ErrUnsupportedImage, w, h)
	}
	if w > MaxSourceEdge || h > MaxSourceEdge || int64(w)*int64(h) > MaxSourcePixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}
	return nil
}

// centerCrop returns the largest rectangle of aspect aw:ah centered in r.
func centerCrop(r image.Rectangle, aw, ah int) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	if w*ah > h*aw {
		nw := h * aw / ah
		x0 := r.Min.X + (w-nw)/2
		return image.Rect(x0, r.Min.Y, x0+nw, r.Max.Y)
	}
	nh := w * ah / aw
	y0 := r.Min.Y + (h-nh)/2
	return image.Rect(r.Min.X, y0, r.Max.X, y0+nh)
}

// fit scales (w, h) down to fit within (maxW, maxH) keeping the aspect
// ratio. It never scales up.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return max(w, 1), max(h, 1)
	}
	sw := float64(maxW) / float64(w)
	sh := float64(maxH) / float64(h)
	s := min(sw, sh)
	return max(int(float64(w)*s+0.5), 1), max(int(float64(h)*s+0.5), 1)
}
