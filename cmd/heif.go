//go:build heif

package cmd

import (
	"image"
	"io"

	_ "github.com/vegidio/heif-go"

	"photodedup/internal/hash"
)

const heifBuild = true

func init() {
	codecOptions = append(codecOptions, hash.WithHEIFDecoder(decodeRegistered))
}

// decodeRegistered decodes through the image format registry, where
// heif-go registers itself
func decodeRegistered(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}
