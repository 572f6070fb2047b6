package render

import (
	"errors"
	"image"
	"image/color"
	"strings"

	"badgeforge/models"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	rasterWidth  = 1000
	rasterHeight = 760
	frameWidth   = 14
	headerHeight = 110
	edgeMargin   = 24
	blockGap     = 18
)

var (
	gold  = color.RGBA{0xD4, 0xAF, 0x37, 0xFF}
	navy  = color.RGBA{0x00, 0x33, 0x66, 0xFF}
	ink   = color.RGBA{0x22, 0x22, 0x22, 0xFF}
	muted = color.RGBA{0x55, 0x55, 0x55, 0xFF}
	paper = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
)

// Text roles of the raster certificate.
const (
	roleTitle = "title"
	roleName  = "name"
	roleBody  = "body"
	roleBold  = "bold"
	roleSmall = "small"
)

type fontSet map[string]Resolved

func (fs fontSet) Close() error {
	var errs []error
	for _, r := range fs {
		errs = append(errs, r.Face.Close())
	}
	return errors.Join(errs...)
}

func (fs fontSet) tiers() map[string]Tier {
	out := make(map[string]Tier, len(fs))
	for role, r := range fs {
		out[role] = r.Tier
	}
	return out
}

// fontSizes are the point sizes of the roles that carry free text. They are
// stepped down in order until the certificate text fits.
type fontSizes struct {
	name, small float64
}

var sizeSteps = []fontSizes{
	{name: 60, small: 17},
	{name: 52, small: 16},
	{name: 44, small: 15},
	{name: 38, small: 14},
	{name: 32, small: 13},
	{name: 28, small: 12},
}

func (r *Renderer) openFonts(sizes fontSizes) (fontSet, error) {
	regular := FontFiles(TierSystem, r.fonts.Regular...)
	bold := FontFiles(TierSystem, r.fonts.Bold...)
	bundled := func(s Strategy) []Strategy {
		if r.fonts.SkipBundled {
			return nil
		}
		return []Strategy{s}
	}
	chain := func(head []Strategy, fallback Strategy) []Strategy {
		return append(append(head, bundled(fallback)...), Builtin)
	}
	chains := []struct {
		role  string
		size  float64
		chain []Strategy
	}{
		{roleTitle, 40, chain([]Strategy{bold}, BundledBold)},
		{roleName, sizes.name, chain([]Strategy{FontFiles(TierDecorative, r.fonts.Decorative...), regular}, BundledItalic)},
		{roleBody, 24, chain([]Strategy{regular}, BundledRegular)},
		{roleBold, 26, chain([]Strategy{bold}, BundledBold)},
		{roleSmall, sizes.small, chain([]Strategy{regular}, BundledRegular)},
	}

	fs := make(fontSet, len(chains))
	for _, c := range chains {
		res, err := Resolve(c.size, c.chain...)
		if err != nil {
			_ = fs.Close()
			return nil, err
		}
		if res.Tier != c.chain[0].Tier() {
			r.logger.Debug("font fallback",
				zap.String("role", c.role),
				zap.Stringer("tier", res.Tier),
				zap.String("source", res.Source))
		}
		fs[c.role] = res
	}
	return fs, nil
}

// canvas holds the fixed regions of a raster certificate of a given height.
type canvas struct {
	bounds, inner, header, qr image.Rectangle
}

func newCanvas(height, qrSize int) canvas {
	bounds := image.Rect(0, 0, rasterWidth, height)
	inner := bounds.Inset(frameWidth)
	return canvas{
		bounds: bounds,
		inner:  inner,
		header: image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+headerHeight),
		qr:     image.Rect(inner.Max.X-edgeMargin-qrSize, inner.Max.Y-edgeMargin-qrSize, inner.Max.X-edgeMargin, inner.Max.Y-edgeMargin),
	}
}

// composition is the text of a certificate placed on a canvas. overflow is
// how far the body runs into the footer; positive means they overlap.
type composition struct {
	lines    []placedLine
	overflow int
}

// composeRaster picks the largest font sizes whose layout fits the standard
// canvas. If even the smallest sizes overflow, the canvas is made taller.
// The caller closes the returned fonts.
func (r *Renderer) composeRaster(rec models.AchievementRecord, qrSize int) (fontSet, canvas, composition, error) {
	last := len(sizeSteps) - 1
	for step := 0; ; step++ {
		fonts, err := r.openFonts(sizeSteps[step])
		if err != nil {
			return nil, canvas{}, composition{}, err
		}
		cv := newCanvas(rasterHeight, qrSize)
		c := compose(rec, fonts, cv)
		if c.overflow > 0 && step < last {
			_ = fonts.Close()
			continue
		}
		if c.overflow > 0 {
			cv = newCanvas(rasterHeight+c.overflow, qrSize)
			c = compose(rec, fonts, cv)
			r.logger.Debug("certificate canvas extended", zap.Int("height", cv.bounds.Dy()))
		}
		return fonts, cv, c, nil
	}
}

func (r *Renderer) renderRaster(rec models.AchievementRecord, qr image.Image, cfg LayoutConfig) (*Artifact, error) {
	fonts, cv, c, err := r.composeRaster(rec, cfg.QRDisplaySize)
	if err != nil {
		return nil, err
	}
	defer fonts.Close()

	img := image.NewRGBA(cv.bounds)
	fill(img, cv.bounds, gold)
	fill(img, cv.inner, paper)
	fill(img, cv.header, navy)
	title := fonts[roleTitle].Face
	drawCentered(img, title, cfg.Layout.Title(), cv.header.Min.X, cv.header.Max.X, verticalCenter(title, cv.header), gold)

	draw.NearestNeighbor.Scale(img, cv.qr, qr, qr.Bounds(), draw.Src, nil)

	for _, l := range c.lines {
		drawCentered(img, l.face, l.text, l.col.left, l.col.right, l.baseline, l.color)
	}

	return &Artifact{
		Layout: cfg.Layout,
		Record: rec,
		Image:  img,
		Fonts:  fonts.tiers(),
	}, nil
}

func compose(rec models.AchievementRecord, fonts fontSet, cv canvas) composition {
	// Text below the top of the QR code is confined to a centered column
	// that keeps clear of it on both sides.
	wide := column{left: cv.inner.Min.X + edgeMargin, right: cv.inner.Max.X - edgeMargin}
	clearance := cv.inner.Max.X - cv.qr.Min.X + edgeMargin
	narrow := column{left: cv.inner.Min.X + clearance, right: cv.inner.Max.X - clearance}
	columnAt := func(bottom int) column {
		if bottom > cv.qr.Min.Y-blockGap {
			return narrow
		}
		return wide
	}

	// footer, laid out bottom-up: optional notes, then the issue date above them
	footer := []paragraph{{face: fonts[roleBody].Face, text: "Issued on: " + rec.DisplayDate(), color: ink}}
	if rec.HasNotes() {
		footer = append(footer, paragraph{face: fonts[roleSmall].Face, text: rec.Notes, color: muted})
	}
	footerTop := cv.inner.Max.Y - edgeMargin
	var footerLines []placedLine
	for i := len(footer) - 1; i >= 0; i-- {
		lines := layoutUp(footer[i], narrow, footerTop)
		footerLines = append(footerLines, lines...)
		if len(lines) > 0 {
			footerTop = lines[0].top - blockGap/2
		}
	}

	body := []paragraph{
		{face: fonts[roleName].Face, text: rec.RecipientName, color: navy},
		{face: fonts[roleBody].Face, text: "has been recognized for", color: ink},
		{face: fonts[roleBold].Face, text: rec.Achievement, color: ink},
		{face: fonts[roleBody].Face, text: "in the category " + rec.Category, color: ink},
	}
	y := cv.header.Max.Y + 2*blockGap
	var lines []placedLine
	for i, p := range body {
		placed := layoutDown(p, columnAt, y)
		lines = append(lines, placed...)
		if len(placed) > 0 {
			y = placed[len(placed)-1].bottom
		}
		if i == 0 {
			y += blockGap
		}
	}

	return composition{
		lines:    append(lines, footerLines...),
		overflow: y - footerTop,
	}
}

type column struct {
	left, right int
}

func (c column) width() int { return c.right - c.left }

type paragraph struct {
	face  font.Face
	text  string
	color color.Color
}

type placedLine struct {
	face     font.Face
	text     string
	color    color.Color
	col      column
	top      int
	baseline int
	bottom   int
}

func lineMetrics(face font.Face) (ascent, height int) {
	m := face.Metrics()
	ascent = m.Ascent.Ceil()
	height = m.Height.Ceil()
	if d := ascent + m.Descent.Ceil(); d > height {
		height = d
	}
	return ascent, height
}

// layoutDown places p starting at top, choosing each line's column from
// where that line ends.
func layoutDown(p paragraph, columnAt func(bottom int) column, top int) []placedLine {
	ascent, height := lineMetrics(p.face)
	var out []placedLine
	rest := strings.Fields(p.text)
	for len(rest) > 0 {
		col := columnAt(top + height)
		var text string
		text, rest = takeLine(p.face, rest, col.width())
		out = append(out, placedLine{
			face: p.face, text: text, color: p.color, col: col,
			top: top, baseline: top + ascent, bottom: top + height,
		})
		top += height
	}
	return out
}

// layoutUp places p so that its last line ends at bottom.
func layoutUp(p paragraph, col column, bottom int) []placedLine {
	ascent, height := lineMetrics(p.face)
	texts := wrap(p.face, p.text, col.width())
	top := bottom - len(texts)*height
	out := make([]placedLine, 0, len(texts))
	for _, text := range texts {
		out = append(out, placedLine{
			face: p.face, text: text, color: p.color, col: col,
			top: top, baseline: top + ascent, bottom: top + height,
		})
		top += height
	}
	return out
}

func wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	rest := strings.Fields(text)
	for len(rest) > 0 {
		var line string
		line, rest = takeLine(face, rest, maxWidth)
		lines = append(lines, line)
	}
	return lines
}

// takeLine greedily takes words that fit in maxWidth. A single word wider
// than maxWidth is split between runes.
func takeLine(face font.Face, words []string, maxWidth int) (string, []string) {
	limit := fixed.I(maxWidth)
	if font.MeasureString(face, words[0]) > limit {
		head, tail := splitWord(face, words[0], limit)
		if tail == "" {
			return head, words[1:]
		}
		return head, append([]string{tail}, words[1:]...)
	}
	line := words[0]
	n := 1
	for ; n < len(words); n++ {
		candidate := line + " " + words[n]
		if font.MeasureString(face, candidate) > limit {
			break
		}
		line = candidate
	}
	return line, words[n:]
}

func splitWord(face font.Face, word string, limit fixed.Int26_6) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && font.MeasureString(face, string(runes[:n+1])) <= limit {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func verticalCenter(face font.Face, r image.Rectangle) int {
	m := face.Metrics()
	return r.Min.Y + (r.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
}

// drawCentered centers s between left and right using the measured advance
// of face.
func drawCentered(dst draw.Image, face font.Face, s string, left, right, baseline int, c color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(left) + (fixed.I(right-left)-width)/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(s)
}
