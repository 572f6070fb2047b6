// Package export serializes rendered artifacts into downloadable byte formats.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"badgeforge/render"

	"github.com/go-pdf/fpdf"
)

var ErrUnsupported = errors.New("export format unsupported")

type Format string

const (
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

var formats = []Format{FormatHTML, FormatPNG, FormatPDF}

func Formats() []Format {
	return append([]Format(nil), formats...)
}

func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

func (f Format) Filename() string {
	switch f {
	case FormatHTML:
		return "certificate.html"
	case FormatPNG:
		return "badge.png"
	case FormatPDF:
		return "badge.pdf"
	}
	return ""
}

func (f Format) MIME() string {
	switch f {
	case FormatHTML:
		return "text/html"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return ""
}

// Download is an exported artifact ready to be served.
type Download struct {
	Format   Format `json:"format"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Body     []byte `json:"-"`
}

type Options struct {
	PDFEnabled bool
}

type Exporter struct {
	pdfEnabled bool
}

func New(opts Options) *Exporter {
	return &Exporter{pdfEnabled: opts.PDFEnabled}
}

func (e *Exporter) check(a *render.Artifact, f Format) error {
	switch f {
	case FormatHTML:
		if !a.IsMarkup() {
			return fmt.Errorf("%w: %s layout has no markup", ErrUnsupported, a.Layout)
		}
	case FormatPNG:
		if a.Image == nil {
			return fmt.Errorf("%w: %s layout has no raster", ErrUnsupported, a.Layout)
		}
	case FormatPDF:
		if !e.pdfEnabled {
			return fmt.Errorf("%w: pdf export is disabled", ErrUnsupported)
		}
		if a.Image == nil {
			return fmt.Errorf("%w: %s layout has no raster", ErrUnsupported, a.Layout)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, f)
	}
	return nil
}

// Export encodes a as f. The output depends only on a.
func (e *Exporter) Export(a *render.Artifact, f Format) ([]byte, error) {
	if err := e.check(a, f); err != nil {
		return nil, err
	}
	switch f {
	case FormatHTML:
		return append([]byte(nil), a.Markup...), nil
	case FormatPNG:
		return encodePNG(a)
	default:
		return encodePDF(a)
	}
}

func (e *Exporter) Download(a *render.Artifact, f Format) (*Download, error) {
	body, err := e.Export(a, f)
	if err != nil {
		return nil, err
	}
	return &Download{Format: f, Filename: f.Filename(), MIME: f.MIME(), Body: body}, nil
}

func encodePNG(a *render.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, a.Image); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// pxToPt maps raster pixels at 96 dpi onto PDF points.
const pxToPt = 72.0 / 96.0

func encodePDF(a *render.Artifact) ([]byte, error) {
	raster, err := encodePNG(a)
	if err != nil {
		return nil, err
	}
	w := float64(a.Image.Bounds().Dx()) * pxToPt
	h := float64(a.Image.Bounds().Dy()) * pxToPt

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	// Pin the document dates so identical artifacts give identical bytes.
	pdf.SetCreationDate(a.Record.IssueDate)
	pdf.SetModificationDate(a.Record.IssueDate)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(a.Layout.Title(), true)
	pdf.SetSubject(a.Record.Achievement, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(raster))
	pdf.ImageOptions("certificate", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf encode: %w", err)
	}
	return buf.Bytes(), nil
}
