package render

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/png"

	"badgeforge/models"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var htmlTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// htmlQRMargin is the inset of the QR code from the artifact's inner edge.
const htmlQRMargin = 20

type htmlView struct {
	Title         string
	RecipientName string
	Achievement   string
	Category      string
	Date          string
	Notes         string
	QRSrc         template.URL
	QRSize        int
	// Gutter keeps the bottom text block clear of the QR code on both sides.
	Gutter int
}

func renderHTML(rec models.AchievementRecord, qr image.Image, cfg LayoutConfig) ([]byte, error) {
	src := template.URL(cfg.QRLink)
	if cfg.QRLink == "" {
		uri, err := pngDataURI(qr)
		if err != nil {
			return nil, err
		}
		src = uri
	}

	view := htmlView{
		Title:         cfg.Layout.Title(),
		RecipientName: rec.RecipientName,
		Achievement:   rec.Achievement,
		Category:      rec.Category,
		Date:          rec.DisplayDate(),
		Notes:         rec.Notes,
		QRSrc:         src,
		QRSize:        cfg.QRDisplaySize,
		Gutter:        cfg.QRDisplaySize + 2*htmlQRMargin,
	}

	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, string(cfg.Layout)+".html.tmpl", view); err != nil {
		return nil, fmt.Errorf("render %s: %w", cfg.Layout, err)
	}
	return buf.Bytes(), nil
}

func pngDataURI(img image.Image) (template.URL, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr image: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}
