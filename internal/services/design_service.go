package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/models"
	"github.com/gruhabuddy/backend/internal/repository"
	"github.com/gruhabuddy/backend/pkg/validation"
)

// GenerationOutcome is the normalized result of a generation attempt.
// Degraded marks the fallback path where the original photo stands in for
// the generated design because the AI service was unreachable.
type GenerationOutcome struct {
	Room     *models.Room `json:"room"`
	Message  string       `json:"message"`
	Degraded bool         `json:"degraded"`
}

// DesignService orchestrates the room design workflow: store the uploaded
// photo, persist the room record, delegate generation to the AI service and
// reconcile its result.
type DesignService struct {
	repo      repository.RoomRepository
	storage   *StorageService
	s3        *S3Service
	generator GenerationClient

	maxImageSize int64
}

// NewDesignService creates the workflow service. s3 may be nil; when set,
// stored media is mirrored to the bucket best-effort.
func NewDesignService(repo repository.RoomRepository, storage *StorageService, s3 *S3Service, generator GenerationClient, maxImageSize int64) *DesignService {
	return &DesignService{
		repo:         repo,
		storage:      storage,
		s3:           s3,
		generator:    generator,
		maxImageSize: maxImageSize,
	}
}

// Submit stores the uploaded image and creates the room record. The image is
// written before the insert; a room is never persisted without a stored file.
func (s *DesignService) Submit(ctx context.Context, ownerID uuid.UUID, filename string, data []byte, roomType, style string) (*models.Room, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image supplied", ErrValidation)
	}

	mimeType := http.DetectContentType(data)
	if !validation.IsImageMimeType(mimeType) {
		return nil, fmt.Errorf("%w: expected an image, got %s", ErrValidation, mimeType)
	}
	if !validation.IsAllowedImageExtension(filename) {
		return nil, fmt.Errorf("%w: unsupported image extension", ErrValidation)
	}
	if s.maxImageSize > 0 && int64(len(data)) > s.maxImageSize {
		return nil, fmt.Errorf("%w: image too large: %d bytes (max: %d)", ErrValidation, len(data), s.maxImageSize)
	}

	key := s.storage.BuildObjectKey("rooms", filename)
	if _, _, _, err := s.storage.SaveStream(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: failed to store image: %v", ErrStorage, err)
	}

	// Mirror to the media bucket best-effort; local disk is the serving copy
	if s.s3 != nil {
		if err := s.s3.UploadMedia(ctx, key, bytes.NewReader(data), mimeType); err != nil {
			log.Printf("Warning: failed to mirror image to media bucket: %v", err)
		}
	}

	room := &models.Room{
		OwnerID:           ownerID,
		OriginalImagePath: s.storage.PublicPath(key),
		RoomType:          validation.SanitizeString(roomType),
		StylePreference:   validation.SanitizeString(style),
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("%w: failed to create room record: %v", ErrStorage, err)
	}

	return room, nil
}

// Generate asks the AI service for a redesign of the room's photo. When the
// service is unreachable or fails, the original image is persisted as the
// design and the outcome is marked degraded; the caller still gets a normal
// result. Repeat calls overwrite the previous design, last write wins.
func (s *DesignService) Generate(ctx context.Context, roomID uuid.UUID) (*GenerationOutcome, error) {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, roomID)
		}
		return nil, fmt.Errorf("%w: failed to load room: %v", ErrStorage, err)
	}

	resp, err := s.generator.GenerateDesign(ctx, GenerationRequest{
		RoomType:  room.RoomType,
		Style:     room.StylePreference,
		ImagePath: room.OriginalImagePath,
	})
	if err != nil || resp.GeneratedImage == "" {
		if err != nil {
			log.Printf("AI service error, falling back to original image: %v", err)
		}
		room.GeneratedDesignPath = room.OriginalImagePath
		if saveErr := s.repo.Save(ctx, room); saveErr != nil {
			return nil, fmt.Errorf("%w: failed to persist fallback design: %v", ErrStorage, saveErr)
		}
		return &GenerationOutcome{
			Room:     room,
			Message:  "Design generated (fallback)",
			Degraded: true,
		}, nil
	}

	room.GeneratedDesignPath = resp.GeneratedImage
	if err := s.repo.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("%w: failed to persist generated design: %v", ErrStorage, err)
	}

	message := resp.Message
	if message == "" {
		message = "Design generated"
	}
	return &GenerationOutcome{
		Room:     room,
		Message:  message,
		Degraded: resp.Fallback,
	}, nil
}

// ListByOwner returns the owner's rooms, most recent first.
func (s *DesignService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Room, error) {
	rooms, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list rooms: %v", ErrStorage, err)
	}
	return rooms, nil
}

// Remove deletes the room record. The stored media is kept; there is no
// compensating delete for the uploaded file.
func (s *DesignService) Remove(ctx context.Context, roomID uuid.UUID) error {
	if err := s.repo.Delete(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, roomID)
		}
		return fmt.Errorf("%w: failed to delete room: %v", ErrStorage, err)
	}
	return nil
}

// Analyze runs layout analysis on the room's original photo.
func (s *DesignService) Analyze(ctx context.Context, roomID uuid.UUID) (*RoomAnalysis, error) {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, roomID)
		}
		return nil, fmt.Errorf("%w: failed to load room: %v", ErrStorage, err)
	}
	return s.generator.AnalyzeRoom(ctx, room.OriginalImagePath)
}

// Recommend returns product suggestions for a style and budget.
func (s *DesignService) Recommend(ctx context.Context, style string, budget float64) ([]ProductRecommendation, error) {
	if style == "" {
		style = models.DefaultStylePreference
	}
	return s.generator.RecommendProducts(ctx, style, budget)
}
