package qr

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
	"time"

	"badgeforge/models"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, name, category, achievement string) models.AchievementRecord {
	t.Helper()
	rec, err := models.NewRecord(models.DefaultCatalog(), models.RecordInput{
		RecipientName: name,
		Category:      category,
		Achievement:   achievement,
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return rec
}

func decode(t *testing.T, p Payload, boxSize, border int) string {
	t.Helper()
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)
	img, err := enc.Render(p, boxSize, border)
	require.NoError(t, err)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

// onPaper places img on a white margin, the way the layouts show it.
func onPaper(img image.Image, margin int) image.Image {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, b.Add(image.Pt(margin, margin)), img, b.Min, draw.Src)
	return out
}

func decodeImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

func TestEncode(t *testing.T) {
	rec := record(t, "Jane Doe", "Volunteer Milestones", "Completed 10 Hours Community Service")
	assert.Equal(t,
		Payload("Name: Jane Doe\nAchievement: Completed 10 Hours Community Service\nDate: 2024-01-15"),
		Encode(rec))
	assert.Equal(t, Encode(rec), Encode(rec))
}

func TestRenderRoundTrip(t *testing.T) {
	for _, cat := range models.DefaultCatalog().Categories() {
		for _, a := range cat.Achievements {
			rec := record(t, "Alex Q. Recipient", cat.Name, a)
			p := Encode(rec)
			assert.Equal(t, string(p), decode(t, p, DefaultBoxSize, DefaultBorder), a)
		}
	}
}

func TestRenderRoundTripSmallModules(t *testing.T) {
	p := Encode(record(t, "Jane Doe", "Reading Progress Milestones", "Completed 20 books"))
	assert.Equal(t, string(p), decode(t, p, 3, 2))
}

func TestRenderGeometry(t *testing.T) {
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)
	img, err := enc.Render("hello", 5, 4)
	require.NoError(t, err)

	// "hello" fits version 1: 21 modules.
	assert.Equal(t, (21+8)*5, img.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
	// quiet zone is white, the finder pattern corner is black
	assert.Equal(t, uint8(0), img.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(1), img.ColorIndexAt(4*5, 4*5))
}

func TestRenderPayloadTooLarge(t *testing.T) {
	enc, err := NewEncoder(Options{MaxVersion: 2})
	require.NoError(t, err)
	_, err = enc.Render(Payload(strings.Repeat("a", 200)), DefaultBoxSize, DefaultBorder)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	enc, err = NewEncoder(Options{MaxVersion: 40})
	require.NoError(t, err)
	_, err = enc.Render(Payload(strings.Repeat("a", 5000)), DefaultBoxSize, DefaultBorder)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
}

func TestNewEncoderRejectsBadOptions(t *testing.T) {
	_, err := NewEncoder(Options{Level: "extreme"})
	assert.Error(t, err)
	_, err = NewEncoder(Options{MaxVersion: 41})
	assert.Error(t, err)

	enc, err := NewEncoder(Options{})
	require.NoError(t, err)
	_, err = enc.Render("x", 0, 4)
	assert.Error(t, err)
	_, err = enc.Render("x", 4, -1)
	assert.Error(t, err)
}

func TestFitDecodesAtDisplaySize(t *testing.T) {
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)

	names := []string{"Jane Doe", "Alexandra Montgomery-Fitzwilliam of the Northern Neighbourhood Trust"}
	for _, name := range names {
		for _, cat := range models.DefaultCatalog().Categories() {
			for _, a := range cat.Achievements {
				p := Encode(record(t, name, cat.Name, a))
				img, err := enc.Fit(p, DefaultBoxSize, DefaultBorder, 100)
				require.NoError(t, err, a)
				assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
				assert.Equal(t, string(p), decodeImage(t, onPaper(img, 12)), a)
			}
		}
	}
}

func TestFitUsesWholeModules(t *testing.T) {
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)

	// version 1 is 21 modules, 29 with the border: 3px each in 100px,
	// 87px drawn and centered
	img, err := enc.Fit("hello", DefaultBoxSize, 4, 100)
	require.NoError(t, err)
	offset := 4*3 + (100-87)/2
	assert.Equal(t, uint8(0), img.ColorIndexAt(offset-1, offset-1))
	assert.Equal(t, uint8(1), img.ColorIndexAt(offset, offset))
	// the finder pattern's outer ring is one module, three pixels, wide
	assert.Equal(t, uint8(1), img.ColorIndexAt(offset+2, offset+2))
	assert.Equal(t, uint8(0), img.ColorIndexAt(offset+3, offset+3))

	// the box size caps the module size on large displays
	img, err = enc.Fit("hello", 5, 4, 400)
	require.NoError(t, err)
	offset = 4*5 + (400-29*5)/2
	assert.Equal(t, uint8(1), img.ColorIndexAt(offset, offset))
	assert.Equal(t, uint8(0), img.ColorIndexAt(offset-1, offset))
}

func TestFitRejectsPayloadTooDenseForDisplay(t *testing.T) {
	enc, err := NewEncoder(Options{})
	require.NoError(t, err)

	p := Encode(record(t, strings.Repeat("Montgomery ", 11)[:120], "Pharmacy Informatics APPE Rotations", "Completed Advanced Informatics Rotation"))
	_, err = enc.Fit(p, DefaultBoxSize, DefaultBorder, 100)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	img, err := enc.Fit(p, DefaultBoxSize, DefaultBorder, 200)
	require.NoError(t, err)
	assert.Equal(t, string(p), decodeImage(t, onPaper(img, 12)))

	_, err = enc.Fit(p, 0, DefaultBorder, 200)
	assert.Error(t, err)
}
