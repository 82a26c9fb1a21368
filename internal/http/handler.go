package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/proposals/internal/access"
	"github.com/nurpe/proposals/internal/http/middleware"
	"github.com/nurpe/proposals/internal/model"
	"github.com/nurpe/proposals/internal/service"
)

const maxUploadSize = 10 << 20

type Handler struct {
	proposals *service.ProposalService
	accounts  *access.Accounts
	log       zerolog.Logger
}

func NewHandler(proposals *service.ProposalService, accounts *access.Accounts, log zerolog.Logger) *Handler {
	return &Handler{proposals: proposals, accounts: accounts, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.POST("/auth/login", h.login)
	router.POST("/auth/invitations/accept", h.acceptInvite)
	router.GET("/view/:token", h.sharedView)
	router.GET("/view/:token/export/:format", h.sharedExport)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/me", h.me)
	protected.GET("/proposal", h.editor)
	protected.PATCH("/proposal/sections/:section", h.updateSection)
	protected.PUT("/proposal/edit-mode", h.setEditMode)
	protected.POST("/proposal/save", h.save)
	protected.POST("/proposal/reset", h.reset)
	protected.POST("/proposal/deliverables/hide", h.hideDeliverable)
	protected.POST("/proposal/deliverables/restore", h.restoreDeliverable)
	protected.POST("/proposal/deliverables/move", h.moveDeliverable)
	protected.PUT("/proposal/shapes/:id", h.setShape)
	protected.GET("/proposal/pricing", h.pricing)
	protected.GET("/proposal/export/:format", h.export)
	protected.POST("/proposal/share/rotate", h.rotateShare)
	protected.POST("/uploads", h.upload)
	protected.POST("/invitations", h.invite)
}

func (h *Handler) login(c *gin.Context) {
	var req access.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) acceptInvite(c *gin.Context) {
	var req access.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := h.accounts.AcceptInvite(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) invite(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req access.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.accounts.SendInvite(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) me(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	acc, err := h.proposals.Access(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": principal.UserID,
		"email":   principal.Email,
		"access":  acc,
	})
}

func (h *Handler) editor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	state, err := h.proposals.Editor(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) updateSection(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var patch model.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return
	}
	result, err := h.proposals.UpdateSection(c.Request.Context(), principal, c.Param("section"), patch)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type editModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setEditMode(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req editModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.proposals.SetEditMode(c.Request.Context(), principal, *req.Enabled)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) save(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	snap, err := h.proposals.Save(c.Request.Context(), principal)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": snap})
			return
		}
		h.log.Warn().Err(err).Str("user_id", principal.UserID.String()).Msg("save failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not save proposal", "status": snap})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) reset(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	state, err := h.proposals.Reset(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type deliverableRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) hideDeliverable(c *gin.Context) {
	h.deliverableAction(c, h.proposals.HideDeliverable)
}

func (h *Handler) restoreDeliverable(c *gin.Context) {
	h.deliverableAction(c, h.proposals.RestoreDeliverable)
}

func (h *Handler) deliverableAction(c *gin.Context, action func(ctx context.Context, p model.Principal, title string) (*service.MutationResult, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req deliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := action(c.Request.Context(), principal, req.Title)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type moveRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

func (h *Handler) moveDeliverable(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.proposals.MoveDeliverable(c.Request.Context(), principal, *req.From, *req.To)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type shapeRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Image  bool    `json:"image"`
}

func (h *Handler) setShape(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req shapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := model.ShapeConfig{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	result, err := h.proposals.SetShape(c.Request.Context(), principal, c.Param("id"), cfg, req.Image)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) pricing(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	report, err := h.proposals.Pricing(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) export(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	result, err := h.proposals.Export(c.Request.Context(), principal, c.Param("format"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeFile(c, result)
}

func (h *Handler) rotateShare(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	link, err := h.proposals.RotateShareLink(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *Handler) upload(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "uploads"
	}
	upload, err := h.proposals.Upload(c.Request.Context(), principal, service.UploadInput{
		Folder:      folder,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

func (h *Handler) sharedView(c *gin.Context) {
	shared, err := h.proposals.Shared(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, shared)
}

func (h *Handler) sharedExport(c *gin.Context) {
	result, err := h.proposals.SharedExport(c.Request.Context(), c.Param("token"), c.Param("format"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	writeFile(c, result)
}

func writeFile(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+strings.ReplaceAll(result.FileName, "\"", "")+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, access.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, access.ErrValidation), errors.Is(err, access.ErrInviteInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, access.ErrAlreadyInvited):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
