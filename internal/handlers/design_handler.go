package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/middleware"
	"github.com/gruhabuddy/backend/internal/models"
	"github.com/gruhabuddy/backend/internal/services"
)

// DesignWorkflow is the slice of the design service the API layer uses.
type DesignWorkflow interface {
	Submit(ctx context.Context, ownerID uuid.UUID, filename string, data []byte, roomType, style string) (*models.Room, error)
	Generate(ctx context.Context, roomID uuid.UUID) (*services.GenerationOutcome, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Room, error)
	Remove(ctx context.Context, roomID uuid.UUID) error
	Analyze(ctx context.Context, roomID uuid.UUID) (*services.RoomAnalysis, error)
	Recommend(ctx context.Context, style string, budget float64) ([]services.ProductRecommendation, error)
}

type DesignHandler struct {
	designService DesignWorkflow
	maxImageSize  int64
}

func NewDesignHandler(designService DesignWorkflow, maxImageSize int64) *DesignHandler {
	return &DesignHandler{designService: designService, maxImageSize: maxImageSize}
}

// Upload handles room photo upload
// POST /design/upload
// Multipart form: image (required), roomType (optional), style (optional)
func (h *DesignHandler) Upload(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	defer file.Close()

	// Read at most one byte past the cap so oversized uploads are rejected
	// without buffering the whole body
	reader := io.Reader(file)
	if h.maxImageSize > 0 {
		reader = io.LimitReader(file, h.maxImageSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	roomType := c.PostForm("roomType")
	style := c.PostForm("style")

	room, err := h.designService.Submit(c.Request.Context(), ownerID, header.Filename, data, roomType, style)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// GetUserRooms lists the caller's rooms, most recent first
// GET /design/rooms
func (h *DesignHandler) GetUserRooms(c *gin.Context) {
	ownerID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	rooms, err := h.designService.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": "failed to retrieve rooms"})
		return
	}

	c.JSON(http.StatusOK, rooms)
}

// Generate requests an AI redesign for a room
// POST /design/generate
// Body: {"roomId": "..."}
func (h *DesignHandler) Generate(c *gin.Context) {
	var req struct {
		RoomID string `json:"roomId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	outcome, err := h.designService.Generate(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// DeleteRoom removes a room record
// DELETE /design/rooms/:id
func (h *DesignHandler) DeleteRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	if err := h.designService.Remove(c.Request.Context(), roomID); err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}

// Analyze runs layout analysis on a room's photo
// POST /design/analyze
// Body: {"roomId": "..."}
func (h *DesignHandler) Analyze(c *gin.Context) {
	var req struct {
		RoomID string `json:"roomId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	analysis, err := h.designService.Analyze(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Recommend returns product suggestions for a style and budget
// POST /design/recommend
// Body: {"style": "...", "budget": 10000}
func (h *DesignHandler) Recommend(c *gin.Context) {
	var req struct {
		Style  string  `json:"style"`
		Budget float64 `json:"budget"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recommendations, err := h.designService.Recommend(c.Request.Context(), req.Style, req.Budget)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// statusFromError maps workflow failures to HTTP status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
