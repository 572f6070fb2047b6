// Package generator runs the generate action: validate the form input, encode
// the QR payload, render the artifact, export it and record it in the
// session ledger.
package generator

import (
	"errors"
	"fmt"
	"net/url"

	"badgeforge/export"
	"badgeforge/models"
	"badgeforge/qr"
	"badgeforge/render"
	"badgeforge/session"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const SuccessMessage = "Certificate generated successfully!"

type Input struct {
	models.RecordInput
	// Layout selects the renderer variant; empty means the configured default.
	Layout render.Layout
}

type Options struct {
	Catalog  *models.Catalog
	Encoder  *qr.Encoder
	Renderer *render.Renderer
	Exporter *export.Exporter

	DefaultLayout render.Layout
	// QRBoxSize caps the pixels per QR module; QRBorder is the preferred
	// quiet zone in modules. Zero selects the qr package defaults.
	QRBoxSize     int
	QRBorder      int
	QRDisplaySize int
	// QRLinkTemplate, if set, makes HTML layouts reference an external QR
	// image; %s receives the query-escaped payload.
	QRLinkTemplate string

	Registry prometheus.Registerer
	Logger   *zap.Logger
}

type Generator struct {
	catalog  *models.Catalog
	encoder  *qr.Encoder
	renderer *render.Renderer
	exporter *export.Exporter

	defaultLayout  render.Layout
	boxSize        int
	border         int
	displaySize    int
	qrLinkTemplate string

	metrics *metrics
	logger  *zap.Logger
}

func New(opts Options) (*Generator, error) {
	if opts.Catalog == nil || opts.Encoder == nil || opts.Renderer == nil || opts.Exporter == nil {
		return nil, errors.New("generator needs a catalog, encoder, renderer and exporter")
	}
	if opts.DefaultLayout == "" {
		opts.DefaultLayout = render.LayoutHTMLCertificate
	}
	if _, err := render.ParseLayout(string(opts.DefaultLayout)); err != nil {
		return nil, err
	}
	if opts.QRBoxSize == 0 {
		opts.QRBoxSize = qr.DefaultBoxSize
	}
	if opts.QRBorder == 0 {
		opts.QRBorder = qr.DefaultBorder
	}
	if opts.QRDisplaySize == 0 {
		opts.QRDisplaySize = render.DefaultQRDisplaySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{
		catalog:        opts.Catalog,
		encoder:        opts.Encoder,
		renderer:       opts.Renderer,
		exporter:       opts.Exporter,
		defaultLayout:  opts.DefaultLayout,
		boxSize:        opts.QRBoxSize,
		border:         opts.QRBorder,
		displaySize:    opts.QRDisplaySize,
		qrLinkTemplate: opts.QRLinkTemplate,
		metrics:        newMetrics(opts.Registry),
		logger:         opts.Logger,
	}, nil
}

func (g *Generator) Catalog() *models.Catalog {
	return g.catalog
}

// DefaultLayout is the layout used when an input names none.
func (g *Generator) DefaultLayout() render.Layout {
	return g.defaultLayout
}

// Generate produces every supported download for in and appends the record
// to the session ledger. On error nothing is kept and the ledger is unchanged.
func (g *Generator) Generate(s *session.Session, in Input) (*session.Issued, error) {
	layout := in.Layout
	if layout == "" {
		layout = g.defaultLayout
	}
	if _, err := render.ParseLayout(string(layout)); err != nil {
		return nil, &models.ValidationError{Fields: []models.FieldError{
			{Field: "layout", Message: err.Error()},
		}}
	}

	rec, err := models.NewRecord(g.catalog, in.RecordInput)
	if err != nil {
		g.metrics.generations.WithLabelValues(string(layout), "invalid").Inc()
		return nil, err
	}

	payload := qr.Encode(rec)
	img, err := g.encoder.Fit(payload, g.boxSize, g.border, g.displaySize)
	if err != nil {
		g.metrics.generations.WithLabelValues(string(layout), "payload_too_large").Inc()
		g.logger.Info("qr encode rejected", zap.Int("payload_bytes", len(payload)), zap.Error(err))
		return nil, err
	}

	art, err := g.renderer.Render(rec, img, render.LayoutConfig{
		Layout:        layout,
		QRDisplaySize: g.displaySize,
		QRLink:        g.qrLink(layout, payload),
	})
	if err != nil {
		g.metrics.generations.WithLabelValues(string(layout), "render_error").Inc()
		return nil, fmt.Errorf("render: %w", err)
	}
	for role, tier := range art.Fonts {
		g.metrics.fontTiers.WithLabelValues(role, tier.String()).Inc()
	}

	issued := &session.Issued{
		ID:          uuid.New(),
		Layout:      layout,
		Record:      rec,
		Fonts:       art.Fonts,
		Unsupported: make(map[export.Format]string),
	}
	for _, f := range export.Formats() {
		d, err := g.exporter.Download(art, f)
		switch {
		case errors.Is(err, export.ErrUnsupported):
			g.metrics.exports.WithLabelValues(string(f), "unsupported").Inc()
			issued.Unsupported[f] = err.Error()
		case err != nil:
			g.metrics.exports.WithLabelValues(string(f), "error").Inc()
			g.metrics.generations.WithLabelValues(string(layout), "export_error").Inc()
			return nil, fmt.Errorf("export %s: %w", f, err)
		default:
			g.metrics.exports.WithLabelValues(string(f), "ok").Inc()
			issued.Downloads = append(issued.Downloads, d)
		}
	}

	s.Keep(issued)
	s.Ledger.Append(models.NewLedgerEntry(rec))
	g.metrics.ledgerEntries.Inc()
	g.metrics.generations.WithLabelValues(string(layout), "ok").Inc()

	g.logger.Debug("artifact generated",
		zap.String("session", s.ID),
		zap.Stringer("id", issued.ID),
		zap.String("layout", string(layout)),
		zap.Int("downloads", len(issued.Downloads)))
	return issued, nil
}

func (g *Generator) qrLink(layout render.Layout, payload qr.Payload) string {
	if g.qrLinkTemplate == "" || layout.IsRaster() {
		return ""
	}
	return fmt.Sprintf(g.qrLinkTemplate, url.QueryEscape(string(payload)))
}
