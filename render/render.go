// Package render composes certificates and badges from an achievement record
// and its QR image, either as a self-contained HTML document or as a raster.
package render

import (
	"fmt"
	"image"

	"badgeforge/models"

	"go.uber.org/zap"
)

// DefaultQRDisplaySize is the edge length, in pixels, of the QR image on every layout.
const DefaultQRDisplaySize = 100

type Layout string

const (
	LayoutHTMLCard          Layout = "html_card"
	LayoutHTMLCertificate   Layout = "html_certificate"
	LayoutRasterCertificate Layout = "raster_certificate"
)

var layouts = []Layout{LayoutHTMLCard, LayoutHTMLCertificate, LayoutRasterCertificate}

func Layouts() []Layout {
	return append([]Layout(nil), layouts...)
}

func ParseLayout(s string) (Layout, error) {
	for _, l := range layouts {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown layout %q", s)
}

// Title is the fixed header text of the layout.
func (l Layout) Title() string {
	if l == LayoutHTMLCard {
		return "Achievement Badge"
	}
	return "Certificate of Achievement"
}

func (l Layout) IsRaster() bool {
	return l == LayoutRasterCertificate
}

type LayoutConfig struct {
	Layout Layout
	// QRDisplaySize is the rendered edge length of the QR image in pixels.
	QRDisplaySize int
	// QRLink, when set, is referenced by HTML layouts instead of an inline image.
	QRLink string
}

// Artifact is one rendered certificate or badge. Exactly one of Markup and
// Image is set, depending on Layout.
type Artifact struct {
	Layout Layout
	Record models.AchievementRecord
	Markup []byte
	Image  *image.RGBA
	// Fonts records the tier each text role resolved to (raster only).
	Fonts map[string]Tier
}

func (a *Artifact) IsMarkup() bool {
	return a.Markup != nil
}

type Renderer struct {
	fonts  FontConfig
	logger *zap.Logger
}

func New(fonts FontConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{fonts: fonts, logger: logger}
}

// Render lays out rec and qr according to cfg. Missing font files never make
// it fail; the font chain falls back down to a built-in face.
func (r *Renderer) Render(rec models.AchievementRecord, qr image.Image, cfg LayoutConfig) (*Artifact, error) {
	if cfg.QRDisplaySize == 0 {
		cfg.QRDisplaySize = DefaultQRDisplaySize
	}
	if cfg.QRDisplaySize < 0 {
		return nil, fmt.Errorf("qr display size must be positive, got %d", cfg.QRDisplaySize)
	}
	if qr == nil && (cfg.Layout.IsRaster() || cfg.QRLink == "") {
		return nil, fmt.Errorf("layout %s needs a qr image", cfg.Layout)
	}

	switch cfg.Layout {
	case LayoutHTMLCard, LayoutHTMLCertificate:
		markup, err := renderHTML(rec, qr, cfg)
		if err != nil {
			return nil, err
		}
		return &Artifact{Layout: cfg.Layout, Record: rec, Markup: markup}, nil
	case LayoutRasterCertificate:
		return r.renderRaster(rec, qr, cfg)
	default:
		return nil, fmt.Errorf("unknown layout %q", cfg.Layout)
	}
}
