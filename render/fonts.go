package render

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var ErrFontUnavailable = errors.New("font unavailable")

// Tier identifies which strategy of a font chain produced a face.
type Tier int

const (
	TierDecorative Tier = iota
	TierSystem
	TierBundled
	TierBuiltin
)

func (t Tier) String() string {
	switch t {
	case TierDecorative:
		return "decorative"
	case TierSystem:
		return "system"
	case TierBundled:
		return "bundled"
	case TierBuiltin:
		return "builtin"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FontConfig lists font files to try before the fonts compiled into the binary.
type FontConfig struct {
	Decorative []string `yaml:"decorative"`
	Regular    []string `yaml:"regular"`
	Bold       []string `yaml:"bold"`
	// SkipBundled drops the compiled-in Go fonts from every chain, so a
	// missing file falls straight through to the bitmap face.
	SkipBundled bool `yaml:"skipBundled" split_words:"true"`
}

func DefaultFontConfig() FontConfig {
	return FontConfig{
		Decorative: []string{
			"assets/fonts/GreatVibes-Regular.ttf",
			"/usr/share/fonts/truetype/great-vibes/GreatVibes-Regular.ttf",
		},
		Regular: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
			"/Library/Fonts/Arial.ttf",
			`C:\Windows\Fonts\arial.ttf`,
		},
		Bold: []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
			"/Library/Fonts/Arial Bold.ttf",
			`C:\Windows\Fonts\arialbd.ttf`,
		},
	}
}

// Strategy opens a face at a given size or reports why it cannot.
type Strategy interface {
	Tier() Tier
	Open(size float64) (font.Face, string, error)
}

// Resolved is a face tagged with the tier and source that produced it.
type Resolved struct {
	Face   font.Face
	Tier   Tier
	Source string
}

// Resolve tries chain in order and returns the first face that opens.
func Resolve(size float64, chain ...Strategy) (Resolved, error) {
	var errs []error
	for _, s := range chain {
		face, src, err := s.Open(size)
		if err == nil {
			return Resolved{Face: face, Tier: s.Tier(), Source: src}, nil
		}
		errs = append(errs, err)
	}
	return Resolved{}, fmt.Errorf("%w: %w", ErrFontUnavailable, errors.Join(errs...))
}

type fileStrategy struct {
	tier  Tier
	paths []string
}

// FontFiles tries each path in order.
func FontFiles(tier Tier, paths ...string) Strategy {
	return fileStrategy{tier: tier, paths: paths}
}

func (s fileStrategy) Tier() Tier { return s.tier }

func (s fileStrategy) Open(size float64) (font.Face, string, error) {
	if len(s.paths) == 0 {
		return nil, "", fmt.Errorf("%w: no %s font configured", ErrFontUnavailable, s.tier)
	}
	var errs []error
	for _, path := range s.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		face, err := parseFace(data, size)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		return face, path, nil
	}
	return nil, "", errors.Join(errs...)
}

type bundledStrategy struct {
	name string
	ttf  []byte
}

func (s bundledStrategy) Tier() Tier { return TierBundled }

func (s bundledStrategy) Open(size float64) (font.Face, string, error) {
	face, err := parseFace(s.ttf, size)
	if err != nil {
		return nil, "", err
	}
	return face, s.name, nil
}

var (
	BundledRegular Strategy = bundledStrategy{name: "go-regular", ttf: goregular.TTF}
	BundledBold    Strategy = bundledStrategy{name: "go-bold", ttf: gobold.TTF}
	BundledItalic  Strategy = bundledStrategy{name: "go-italic", ttf: goitalic.TTF}
)

type builtinStrategy struct{}

// Builtin is the fixed-size bitmap face of last resort. It cannot fail.
var Builtin Strategy = builtinStrategy{}

func (builtinStrategy) Tier() Tier { return TierBuiltin }

func (builtinStrategy) Open(float64) (font.Face, string, error) {
	return basicfont.Face7x13, "basicfont-7x13", nil
}

func parseFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
