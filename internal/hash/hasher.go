package hash

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photodedup/internal/models"
)

var (
	// ErrUnsupported is returned for paths whose extension is not an image format
	ErrUnsupported = errors.New("unsupported image format")
	// ErrCodecUnavailable is returned for formats that need an optional codec
	// the hasher was not given
	ErrCodecUnavailable = errors.New("support not installed")
)

// DecodeFunc decodes an image from r
type DecodeFunc func(r io.Reader) (image.Image, error)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// codecExtensions need a decoder supplied through WithDecoder
var codecExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// Capabilities describes the optional codecs a Hasher can use
type Capabilities struct {
	HEIF bool
}

// Hasher decodes images and computes their perceptual hashes
type Hasher struct {
	fs         afero.Fs
	decoders   map[string]DecodeFunc
	autoOrient bool
}

// Option configures a Hasher
type Option func(*Hasher)

// WithFs sets the filesystem images are read from
func WithFs(fs afero.Fs) Option {
	return func(h *Hasher) {
		if fs != nil {
			h.fs = fs
		}
	}
}

// WithDecoder registers a decoder for an extension (e.g. ".heic").
// Registered decoders take precedence over the built-in formats.
func WithDecoder(ext string, fn DecodeFunc) Option {
	return func(h *Hasher) {
		if fn != nil {
			h.decoders[strings.ToLower(ext)] = fn
		}
	}
}

// WithHEIFDecoder registers fn for both .heic and .heif
func WithHEIFDecoder(fn DecodeFunc) Option {
	return func(h *Hasher) {
		WithDecoder(".heic", fn)(h)
		WithDecoder(".heif", fn)(h)
	}
}

// WithAutoOrient applies the EXIF orientation before hashing
func WithAutoOrient(enabled bool) Option {
	return func(h *Hasher) {
		h.autoOrient = enabled
	}
}

// NewHasher creates a new Hasher
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		fs:       afero.NewOsFs(),
		decoders: make(map[string]DecodeFunc),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Capabilities reports which optional codecs are available
func (h *Hasher) Capabilities() Capabilities {
	return Capabilities{HEIF: h.decoders[".heic"] != nil || h.decoders[".heif"] != nil}
}

// Classify checks whether path can be hashed based on its extension.
// It returns nil, ErrUnsupported or ErrCodecUnavailable.
func (h *Hasher) Classify(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := h.decoders[ext]; ok {
		return nil
	}
	if codecExtensions[ext] {
		return ErrCodecUnavailable
	}
	if supportedExtensions[ext] {
		return nil
	}
	return ErrUnsupported
}

// HashImage decodes the image at path and returns its record
func (h *Hasher) HashImage(path string) (*models.ImageRecord, error) {
	if err := h.Classify(path); err != nil {
		return nil, err
	}

	file, err := h.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	orientation := 1
	if h.autoOrient {
		orientation = readOrientation(file)
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind file: %w", err)
		}
	}

	img, format, err := h.decode(path, file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = toRGB(img)
	if orientation > 1 {
		img = applyOrientation(img, orientation)
	}

	phash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	bounds := img.Bounds()
	return &models.ImageRecord{
		Path:     path,
		Hash:     models.HashCode(phash.GetHash()),
		FileSize: stat.Size(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   strings.ToLower(format),
	}, nil
}

func (h *Hasher) decode(path string, r io.Reader) (image.Image, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if fn, ok := h.decoders[ext]; ok {
		img, err := fn(r)
		return img, strings.TrimPrefix(ext, "."), err
	}
	return image.Decode(r)
}

// toRGB converts colour models other than gray and RGB into opaque RGB so
// the hash does not depend on how the source format stores pixels.
func toRGB(img image.Image) image.Image {
	switch t := img.(type) {
	case *image.Gray, *image.Gray16, *image.YCbCr:
		return img
	case *image.RGBA:
		if t.Opaque() {
			return img
		}
	case *image.RGBA64:
		if t.Opaque() {
			return img
		}
	}

	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// readOrientation returns the EXIF orientation tag, or 1 when absent
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
