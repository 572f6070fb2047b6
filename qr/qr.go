// Package qr turns achievement records into QR payloads and scannable images.
package qr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"badgeforge/models"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultBoxSize    = 10
	DefaultBorder     = 4
	DefaultMaxVersion = 10
	DefaultLevel      = "medium"

	maxVersion = 40
)

var ErrPayloadTooLarge = errors.New("qr payload too large")

// Payload is the text embedded in the QR code of an artifact.
type Payload string

// Encode formats the record fields in a fixed order, one per line.
func Encode(r models.AchievementRecord) Payload {
	return Payload(fmt.Sprintf("Name: %s\nAchievement: %s\nDate: %s",
		r.RecipientName, r.Achievement, r.ISODate()))
}

type Options struct {
	Level      string
	MaxVersion int
}

// Encoder renders payloads at a fixed error correction level. The smallest
// symbol version that fits is chosen; payloads needing a version above
// MaxVersion are rejected rather than truncated.
type Encoder struct {
	level      qrcode.RecoveryLevel
	maxVersion int
}

func NewEncoder(opts Options) (*Encoder, error) {
	if opts.Level == "" {
		opts.Level = DefaultLevel
	}
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.MaxVersion == 0 {
		opts.MaxVersion = DefaultMaxVersion
	}
	if opts.MaxVersion < 1 || opts.MaxVersion > maxVersion {
		return nil, fmt.Errorf("qr max version %d out of range 1-%d", opts.MaxVersion, maxVersion)
	}
	return &Encoder{level: level, maxVersion: opts.MaxVersion}, nil
}

func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "low", "l":
		return qrcode.Low, nil
	case "medium", "m":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unknown qr error correction level %q", s)
	}
}

// MinModulePixels is the smallest whole number of pixels per module that
// still decodes reliably once the code is shown at its display size.
const MinModulePixels = 2

// Render draws payload black on white, boxSize pixels per module with a
// quiet zone of border modules on every side.
func (e *Encoder) Render(p Payload, boxSize, border int) (*image.Paletted, error) {
	if boxSize < 1 {
		return nil, fmt.Errorf("qr box size must be positive, got %d", boxSize)
	}
	if border < 0 {
		return nil, fmt.Errorf("qr border must not be negative, got %d", border)
	}
	modules, err := e.modules(p)
	if err != nil {
		return nil, err
	}
	side := (len(modules) + 2*border) * boxSize
	return paint(modules, boxSize, border*boxSize, side), nil
}

// Fit draws payload into a size x size image at a whole number of pixels per
// module, at most maxBox and never below MinModulePixels. The quiet zone is
// narrowed from border towards zero before the payload is rejected; the
// layouts place the code on a plain margin wider than the border it loses.
func (e *Encoder) Fit(p Payload, maxBox, border, size int) (*image.Paletted, error) {
	if maxBox < 1 {
		return nil, fmt.Errorf("qr box size must be positive, got %d", maxBox)
	}
	if border < 0 {
		return nil, fmt.Errorf("qr border must not be negative, got %d", border)
	}
	modules, err := e.modules(p)
	if err != nil {
		return nil, err
	}
	n := len(modules)
	for border > 0 && (n+2*border)*MinModulePixels > size {
		border--
	}
	box := min(maxBox, size/(n+2*border))
	if box < MinModulePixels {
		return nil, fmt.Errorf("%w: %d bytes need %d modules, more than a %dpx code can show",
			ErrPayloadTooLarge, len(p), n, size)
	}
	drawn := (n + 2*border) * box
	return paint(modules, box, border*box+(size-drawn)/2, size), nil
}

func (e *Encoder) modules(p Payload) ([][]bool, error) {
	code, err := qrcode.New(string(p), e.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %v", ErrPayloadTooLarge, len(p), err)
	}
	if code.VersionNumber > e.maxVersion {
		return nil, fmt.Errorf("%w: %d bytes need version %d, limit is %d",
			ErrPayloadTooLarge, len(p), code.VersionNumber, e.maxVersion)
	}
	code.DisableBorder = true
	return code.Bitmap(), nil
}

// paint draws modules box pixels apiece, offset pixels in from the top left
// of a white side x side image.
func paint(modules [][]bool, box, offset, side int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, side, side), color.Palette{color.White, color.Black})
	for y, row := range modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := offset + x*box
			y0 := offset + y*box
			for py := y0; py < y0+box; py++ {
				off := img.PixOffset(x0, py)
				for i := 0; i < box; i++ {
					img.Pix[off+i] = 1
				}
			}
		}
	}
	return img
}
