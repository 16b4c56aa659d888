package handlers

import (
	"context"
	"strconv"

	"github.com/fathima-sithara/files-service/internal/apperr"
	"github.com/fathima-sithara/files-service/internal/auth"
	"github.com/fathima-sithara/files-service/internal/files"
	"github.com/fathima-sithara/files-service/internal/models"
	"github.com/fathima-sithara/files-service/internal/users"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger reports whether a backing service currently answers.
type Pinger interface {
	IsAlive(ctx context.Context) bool
}

// Counter reports the number of stored records of one kind.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Deps struct {
	Auth      *auth.Service
	Users     *users.Service
	Files     *files.Service
	Redis     Pinger
	DB        Pinger
	UserCount Counter
	FileCount Counter
	Logger    *zap.Logger
}

type Handler struct {
	auth      *auth.Service
	users     *users.Service
	files     *files.Service
	redis     Pinger
	db        Pinger
	userCount Counter
	fileCount Counter
	logger    *zap.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		auth:      d.Auth,
		users:     d.Users,
		files:     d.Files,
		redis:     d.Redis,
		db:        d.DB,
		userCount: d.UserCount,
		fileCount: d.FileCount,
		logger:    d.Logger,
	}
}

func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"redis": h.redis.IsAlive(c.Context()),
		"db":    h.db.IsAlive(c.Context()),
	})
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	nu, err := h.userCount.Count(c.Context())
	if err != nil {
		return apperr.Infrastructure("count users", err)
	}
	nf, err := h.fileCount.Count(c.Context())
	if err != nil {
		return apperr.Infrastructure("count files", err)
	}
	return c.JSON(fiber.Map{"users": nu, "files": nf})
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req registerReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	u, err := h.users.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

func (h *Handler) Connect(c *fiber.Ctx) error {
	token, err := h.auth.Login(c.Context(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

func (h *Handler) Disconnect(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.Context(), c.Get(tokenHeader)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type uploadReq struct {
	Name     string          `json:"name"`
	Type     models.FileType `json:"type"`
	ParentID models.ParentID `json:"parentId"`
	IsPublic bool            `json:"isPublic"`
	Data     string          `json:"data"`
}

func (h *Handler) Upload(c *fiber.Ctx) error {
	var req uploadReq
	if err := parseBody(c, &req); err != nil {
		return err
	}
	rec, err := h.files.Register(c.Context(), currentUser(c), files.UploadInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *Handler) Show(c *fiber.Ctx) error {
	rec, err := h.files.Get(c.Context(), currentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *Handler) Index(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil {
		page = 0
	}
	recs, err := h.files.List(c.Context(), currentUser(c), models.ParentID(c.Query("parentId")), page)
	if err != nil {
		return err
	}
	return c.JSON(recs)
}

func (h *Handler) Publish(c *fiber.Ctx) error {
	return h.setPublic(c, true)
}

func (h *Handler) Unpublish(c *fiber.Ctx) error {
	return h.setPublic(c, false)
}

func (h *Handler) setPublic(c *fiber.Ctx, isPublic bool) error {
	rec, err := h.files.SetPublic(c.Context(), currentUser(c), c.Params("id"), isPublic)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *Handler) Data(c *fiber.Ctx) error {
	// public content needs no session, so a failed lookup reads as anonymous
	requester, err := h.auth.Resolve(c.Context(), c.Get(tokenHeader))
	if err != nil {
		h.logger.Warn("token lookup failed, serving as anonymous", zap.Error(err))
		requester = nil
	}
	content, err := h.files.ReadContent(c.Context(), requester, c.Params("id"), c.Query("size"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, content.MIMEType)
	return c.Send(content.Data)
}

// parseBody decodes a JSON body when one was sent; an empty body leaves v
// zeroed so field validation reports what is missing.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return apperr.Validation("Invalid body")
	}
	return nil
}
