package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypeJPG  = "image/jpg"
	MIMETypePNG  = "image/png"
	MIMETypeHEIC = "image/heic"
	MIMETypeHEIF = "image/heif"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrCorrupt         = errors.New("invalid image content")
	ErrDimensions      = errors.New("image resolution too large")
)

//nolint:gochecknoglobals
var extensions = map[string]string{
	MIMETypeJPEG: "jpg",
	MIMETypeJPG:  "jpg",
	MIMETypePNG:  "png",
	MIMETypeHEIC: "heic",
	MIMETypeHEIF: "heif",
}

type Limits struct {
	MaxWidth  int
	MaxHeight int
}

type Info struct {
	ContentType string
	Width       int
	Height      int
}

// Allowed reports whether contentType is an accepted upload type.
func Allowed(contentType string) bool {
	_, ok := extensions[contentType]
	return ok
}

// Extension returns the file extension used when serving contentType.
func Extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	return "bin"
}

// Inspect sniffs the payload type, reads its pixel size and checks it against
// limits. JPEG and PNG payloads are fully decoded so truncated files are
// rejected; HEIC/HEIF only get their container probed.
func Inspect(data []byte, limits Limits) (Info, error) {
	contentType := mimetype.Detect(data).String()
	if !Allowed(contentType) {
		return Info{ContentType: contentType}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	info := Info{ContentType: contentType}
	switch contentType {
	case MIMETypeHEIC, MIMETypeHEIF:
		w, h, err := heifDimensions(data)
		if err != nil {
			return info, err
		}
		info.Width, info.Height = w, h
	default:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return info, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		info.Width, info.Height = cfg.Width, cfg.Height
	}

	if info.Width > limits.MaxWidth || info.Height > limits.MaxHeight {
		return info, fmt.Errorf("%w: %dx%d exceeds %dx%d",
			ErrDimensions, info.Width, info.Height, limits.MaxWidth, limits.MaxHeight)
	}

	if contentType == MIMETypeJPEG || contentType == MIMETypePNG {
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return info, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	return info, nil
}

// ToJPEG re-encodes JPEG and PNG payloads as JPEG flattened onto a white
// background. Other types are returned untouched.
func ToJPEG(data []byte, contentType string) ([]byte, string, error) {
	var decode func(r *bytes.Reader) (image.Image, error)
	switch contentType {
	case MIMETypeJPEG, MIMETypeJPG:
		decode = func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) }
	case MIMETypePNG:
		decode = func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) }
	default:
		return data, contentType, nil
	}

	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Copy(dst, image.Point{}, src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), MIMETypeJPEG, nil
}

// Processor prepares uploads for storage.
type Processor struct {
	Limits Limits
	// NormalizeJPEG re-encodes JPEG and PNG uploads as JPEG.
	NormalizeJPEG bool
}

func NewProcessor(limits Limits, normalizeJPEG bool) *Processor {
	return &Processor{Limits: limits, NormalizeJPEG: normalizeJPEG}
}

// Prepare inspects data and returns the payload to store with its content
// type. The detected type is returned alongside errors when known.
func (p *Processor) Prepare(data []byte) ([]byte, string, error) {
	info, err := Inspect(data, p.Limits)
	if err != nil {
		return nil, info.ContentType, err
	}
	if !p.NormalizeJPEG {
		return data, info.ContentType, nil
	}
	out, contentType, err := ToJPEG(data, info.ContentType)
	if err != nil {
		return nil, info.ContentType, err
	}
	return out, contentType, nil
}
