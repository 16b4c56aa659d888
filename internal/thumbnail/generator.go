package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Variant is one resized copy of a source image.
type Variant struct {
	Width int
	Data  []byte
}

// Derive decodes src and returns one variant per width, in the order of
// widths. Aspect ratio is preserved and sources narrower than a width are
// not upscaled. Variants are encoded in the format of src.
func Derive(ctx context.Context, src []byte, widths []int) ([]Variant, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	outFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("unsupported image format %q: %w", format, err)
	}

	out := make([]Variant, len(widths))
	g, ctx := errgroup.WithContext(ctx)
	for i, w := range widths {
		i, w := i, w
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := resize(img, w, outFormat)
			if err != nil {
				return fmt.Errorf("width %d: %w", w, err)
			}
			out[i] = Variant{Width: w, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func resize(img image.Image, width int, format imaging.Format) ([]byte, error) {
	var dst image.Image
	if img.Bounds().Dx() <= width {
		dst = imaging.Clone(img)
	} else {
		dst = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
