package labelimage

import (
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// LabelImage is a segmentation mask: every pixel holds the label of the region it belongs to, 0 is background.
type LabelImage struct {
	Width  int
	Height int
	// Row-major, len = Width*Height
	Pix []uint32
}

func NewLabelImage(width, height int) *LabelImage {
	return &LabelImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint32, width*height),
	}
}

// NewLabelImageFromRows builds an image from rows of labels. All rows must have equal length
func NewLabelImageFromRows(rows [][]uint32) (*LabelImage, error) {
	if len(rows) == 0 {
		return NewLabelImage(0, 0), nil
	}
	img := NewLabelImage(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != img.Width {
			return nil, errors.Errorf("row %d has %d columns, expected %d", y, len(row), img.Width)
		}
		copy(img.Pix[y*img.Width:(y+1)*img.Width], row)
	}
	return img, nil
}

// At returns the label at column x, row y
func (img *LabelImage) At(x, y int) uint32 {
	return img.Pix[y*img.Width+x]
}

// Set sets the label at column x, row y
func (img *LabelImage) Set(x, y int, label uint32) {
	img.Pix[y*img.Width+x] = label
}

// Clone returns a deep copy
func (img *LabelImage) Clone() *LabelImage {
	out := NewLabelImage(img.Width, img.Height)
	copy(out.Pix, img.Pix)
	return out
}

// Crop returns a copy of rows [y0, y1) and columns [x0, x1)
func (img *LabelImage) Crop(x0, y0, x1, y1 int) (*LabelImage, error) {
	if x0 < 0 || y0 < 0 || x1 > img.Width || y1 > img.Height || x0 > x1 || y0 > y1 {
		return nil, errors.Errorf("crop window [%d,%d)x[%d,%d) outside %dx%d image", x0, x1, y0, y1, img.Width, img.Height)
	}
	out := NewLabelImage(x1-x0, y1-y0)
	for y := y0; y < y1; y++ {
		copy(out.Pix[(y-y0)*out.Width:(y-y0+1)*out.Width], img.Pix[y*img.Width+x0:y*img.Width+x1])
	}
	return out, nil
}

// FromImage converts a decoded grayscale image to labels. 16-bit and 8-bit
// grayscale are read exactly; any other model goes through color.Gray16Model.
func FromImage(src image.Image) *LabelImage {
	b := src.Bounds()
	img := NewLabelImage(b.Dx(), b.Dy())
	switch s := src.(type) {
	case *image.Gray16:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Set(x, y, uint32(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	case *image.Gray:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Set(x, y, uint32(s.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				g := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				img.Set(x, y, uint32(g.Y))
			}
		}
	}
	return img
}

// DecodeTIFF reads a label mask stored as a grayscale TIFF
func DecodeTIFF(r io.Reader) (*LabelImage, error) {
	src, err := tiff.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "can't decode TIFF label mask")
	}
	return FromImage(src), nil
}

// EncodeTIFF writes img as a 16-bit grayscale TIFF. Labels above 65535 can't be stored
func EncodeTIFF(w io.Writer, img *LabelImage) error {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			label := img.At(x, y)
			if label > 0xFFFF {
				return errors.Errorf("label %d at (%d, %d) does not fit 16 bits", label, x, y)
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(label)})
		}
	}
	return tiff.Encode(w, out, &tiff.Options{Compression: tiff.Deflate})
}
