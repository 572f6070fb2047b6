package routes

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"badgeforge/export"
	"badgeforge/generator"
	"badgeforge/models"
	"badgeforge/qr"
	"badgeforge/render"
	"badgeforge/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed templates/index.html.tmpl
var indexFS embed.FS

var indexTemplate = template.Must(template.ParseFS(indexFS, "templates/index.html.tmpl"))

const issueDateLayout = "2006-01-02"

type Handler struct {
	generator *generator.Generator
	sessions  *session.Manager
	store     *fibersession.Store
	logger    *zap.Logger
	now       func() time.Time
}

type Options struct {
	Generator *generator.Generator
	Sessions  *session.Manager
	Store     *fibersession.Store
	Logger    *zap.Logger
	// Now supplies the default issue date. Defaults to time.Now.
	Now func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.Store == nil {
		opts.Store = fibersession.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		generator: opts.Generator,
		sessions:  opts.Sessions,
		store:     opts.Store,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// SetupRoutes mounts the dashboard and the JSON API. metrics may be nil.
func SetupRoutes(app *fiber.App, h *Handler, metrics http.Handler) {
	app.Get("/", h.index)
	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	api := app.Group("/api")
	api.Get("/catalog", h.getCatalog)
	api.Get("/catalog/:category", h.getAchievements)
	api.Get("/ledger", h.getLedger)
	api.Delete("/session", h.endSession)

	badges := api.Group("/badges")
	badges.Post("/", h.createBadge)
	badges.Get("/:id/:format", h.downloadBadge)
}

type badgeRequest struct {
	RecipientName string `json:"recipient_name" form:"recipient_name"`
	Category      string `json:"category" form:"category"`
	Achievement   string `json:"achievement" form:"achievement"`
	IssueDate     string `json:"issue_date" form:"issue_date"`
	Notes         string `json:"notes" form:"notes"`
	Layout        string `json:"layout" form:"layout"`
}

type downloadLink struct {
	Format   export.Format `json:"format"`
	Filename string        `json:"filename"`
	MIME     string        `json:"mime"`
	URL      string        `json:"url"`
}

type badgeResponse struct {
	ID          uuid.UUID                `json:"id"`
	Layout      render.Layout            `json:"layout"`
	Record      models.AchievementRecord `json:"record"`
	Fonts       map[string]render.Tier   `json:"fonts,omitempty"`
	Downloads   []downloadLink           `json:"downloads"`
	Unsupported map[export.Format]string `json:"unsupported,omitempty"`
}

type indexView struct {
	Catalog []models.CatalogCategory
	Layouts []render.Layout
	Default string
	Today   string
	Ledger  []models.LedgerEntry
}

// session resolves the caller's session, issuing a cookie on first contact.
func (h *Handler) session(c *fiber.Ctx) (*session.Session, error) {
	sess, err := h.store.Get(c)
	if err != nil {
		return nil, err
	}
	id := sess.ID()
	if sess.Fresh() {
		if err := sess.Save(); err != nil {
			return nil, err
		}
	}
	return h.sessions.Get(id), nil
}

func (h *Handler) index(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	view := indexView{
		Catalog: h.generator.Catalog().Categories(),
		Layouts: render.Layouts(),
		Default: string(h.generator.DefaultLayout()),
		Today:   h.now().UTC().Format(issueDateLayout),
		Ledger:  s.Ledger.Snapshot(),
	}
	var b strings.Builder
	if err := indexTemplate.Execute(&b, view); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(b.String())
}

func (h *Handler) getCatalog(c *fiber.Ctx) error {
	return c.JSON(models.SuccessResponse[[]models.CatalogCategory]{
		Success: true,
		Data:    h.generator.Catalog().Categories(),
	})
}

func (h *Handler) getAchievements(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Message: "Invalid category",
			Error:   err.Error(),
		})
	}
	achievements, ok := h.generator.Catalog().Achievements(category)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Message: "Category not found",
		})
	}
	return c.JSON(models.SuccessResponse[[]string]{
		Success: true,
		Data:    achievements,
	})
}

func (h *Handler) getLedger(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(models.SuccessResponse[[]models.LedgerEntry]{
		Success: true,
		Data:    s.Ledger.Snapshot(),
	})
}

// endSession forgets the caller's ledger and downloads and expires the cookie.
func (h *Handler) endSession(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		return err
	}
	h.sessions.Drop(sess.ID())
	if err := sess.Destroy(); err != nil {
		return err
	}
	return c.JSON(models.SuccessResponse[any]{
		Success: true,
		Message: "Session ended",
	})
}

func (h *Handler) createBadge(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	req := new(badgeRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	in, err := h.input(req)
	if err != nil {
		return h.fail(c, err)
	}
	issued, err := h.generator.Generate(s, in)
	if err != nil {
		return h.fail(c, err)
	}

	res := badgeResponse{
		ID:          issued.ID,
		Layout:      issued.Layout,
		Record:      issued.Record,
		Fonts:       issued.Fonts,
		Downloads:   make([]downloadLink, 0, len(issued.Downloads)),
		Unsupported: issued.Unsupported,
	}
	for _, d := range issued.Downloads {
		res.Downloads = append(res.Downloads, downloadLink{
			Format:   d.Format,
			Filename: d.Filename,
			MIME:     d.MIME,
			URL:      fmt.Sprintf("/api/badges/%s/%s", issued.ID, d.Format),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse[badgeResponse]{
		Success: true,
		Message: generator.SuccessMessage,
		Data:    res,
	})
}

// input converts the request body, defaulting the issue date to today.
func (h *Handler) input(req *badgeRequest) (generator.Input, error) {
	date := h.now().UTC()
	if raw := strings.TrimSpace(req.IssueDate); raw != "" {
		parsed, err := time.Parse(issueDateLayout, raw)
		if err != nil {
			return generator.Input{}, &models.ValidationError{Fields: []models.FieldError{
				{Field: "issue_date", Message: "issue_date must be a date formatted YYYY-MM-DD"},
			}}
		}
		date = parsed
	}
	return generator.Input{
		RecordInput: models.RecordInput{
			RecipientName: req.RecipientName,
			Category:      req.Category,
			Achievement:   req.Achievement,
			IssueDate:     date,
			Notes:         req.Notes,
		},
		Layout: render.Layout(strings.TrimSpace(req.Layout)),
	}, nil
}

func (h *Handler) downloadBadge(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return notFound(c)
	}
	issued, ok := s.Issued(id)
	if !ok {
		return notFound(c)
	}

	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return h.fail(c, err)
	}
	d, ok := issued.Download(format)
	if !ok {
		reason := issued.Unsupported[format]
		if reason == "" {
			reason = fmt.Sprintf("%s is not available for this badge", format)
		}
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(models.ErrorResponse{
			Message: "Format not supported",
			Error:   reason,
		})
	}

	c.Attachment(d.Filename)
	c.Set(fiber.HeaderContentType, d.MIME)
	return c.Send(d.Body)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Message: "Badge not found",
	})
}

// fail maps generation errors onto HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Message: "Validation failed",
			Error:   verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, qr.ErrPayloadTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(models.ErrorResponse{
			Message: "Content too large for QR code",
			Error:   err.Error(),
		})
	case errors.Is(err, export.ErrUnsupported):
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(models.ErrorResponse{
			Message: "Format not supported",
			Error:   err.Error(),
		})
	default:
		h.logger.Error("badge generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Message: "Failed to generate badge",
		})
	}
}
