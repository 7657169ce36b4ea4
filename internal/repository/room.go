package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/models"
	"gorm.io/gorm"
)

// RoomRepository defines storage and retrieval of Room records.
type RoomRepository interface {
	// Create inserts a new room and assigns its ID.
	Create(ctx context.Context, room *models.Room) error

	// FindByID returns the room with the given ID, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error)

	// Save persists changes to an existing room.
	Save(ctx context.Context, room *models.Room) error

	// FindByOwner returns all rooms of an owner, most recent first.
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Room, error)

	// Delete removes the room with the given ID, or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a gorm-backed RoomRepository.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Save(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

func (r *roomRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Room, error) {
	rooms := []models.Room{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
