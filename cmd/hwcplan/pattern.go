package main

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/NeowayLabs/drmhwc/fourcc"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/juju/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
)

var palette = []color.RGBA{
	{0xd3, 0x2f, 0x2f, 0xff},
	{0x38, 0x8e, 0x3c, 0xff},
	{0x19, 0x76, 0xd2, 0xff},
	{0xfb, 0xc0, 0x2d, 0xff},
	{0x7b, 0x1f, 0xa2, 0xff},
}

var labelFace = sync.OnceValue(func() font.Face {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{Size: 14})
})

// pattern draws a solid tile with a border and a label so that each
// layer is recognisable on screen.
func pattern(w, h, id int, label string, alpha uint8) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(im)

	c := palette[id%len(palette)]
	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), int(alpha))
	dc.Clear()

	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(w-2), float64(h-2))
	dc.Stroke()

	dc.SetFontFace(labelFace())
	dc.DrawStringAnchored(label, float64(w)/2, float64(h)/2, 0.5, 0.5)
	return im
}

// pack writes im into dst, a buffer of the given pitch, in format f.
func pack(dst []byte, pitch int, im *image.RGBA, f fourcc.Format) error {
	b := im.Bounds()
	if need := pitch*(b.Dy()-1) + b.Dx()*f.BytesPerPixel(); f.BytesPerPixel() == 0 || len(dst) < need {
		return errors.NotValidf("buffer of %d bytes for %dx%d %s", len(dst), b.Dx(), b.Dy(), f)
	}
	for y := 0; y < b.Dy(); y++ {
		row := dst[y*pitch:]
		src := im.Pix[y*im.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := src[4*x], src[4*x+1], src[4*x+2], src[4*x+3]
			switch f {
			case fourcc.XRGB8888, fourcc.ARGB8888:
				copy(row[4*x:], []byte{bl, g, r, a})
			case fourcc.XBGR8888, fourcc.ABGR8888:
				copy(row[4*x:], []byte{r, g, bl, a})
			case fourcc.RGB565:
				v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
				binary.LittleEndian.PutUint16(row[2*x:], v)
			default:
				return errors.NotSupportedf("test pattern in %s", f)
			}
		}
	}
	return nil
}

func layerLabel(id, z int, f fourcc.Format) string {
	return fmt.Sprintf("layer %d z=%d %s", id, z, f)
}
