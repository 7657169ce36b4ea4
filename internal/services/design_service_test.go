package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/config"
	"github.com/gruhabuddy/backend/internal/models"
	"github.com/gruhabuddy/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal valid PNG header so http.DetectContentType sees image/png
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]models.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[uuid.UUID]models.Room)}
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *models.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = room.BeforeCreate(nil) // same ID and default assignment gorm applies
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	f.rooms[room.ID] = *room
	return nil
}

func (f *fakeRoomRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &room, nil
}

func (f *fakeRoomRepo) Save(ctx context.Context, room *models.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = *room
	return nil
}

func (f *fakeRoomRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rooms := []models.Room{}
	for _, r := range f.rooms {
		if r.OwnerID == ownerID {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.After(rooms[j].CreatedAt) })
	return rooms, nil
}

func (f *fakeRoomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

type stubGenerator struct {
	generateFn func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
}

func (s *stubGenerator) GenerateDesign(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	return s.generateFn(ctx, req)
}

func (s *stubGenerator) AnalyzeRoom(ctx context.Context, imagePath string) (*RoomAnalysis, error) {
	return &RoomAnalysis{Status: "success", DetectedType: "Living Room"}, nil
}

func (s *stubGenerator) RecommendProducts(ctx context.Context, style string, budget float64) ([]ProductRecommendation, error) {
	return []ProductRecommendation{{Name: style + " Sofa", Price: budget * 0.3, Category: "Furniture"}}, nil
}

func newTestService(t *testing.T, gen GenerationClient) (*DesignService, *fakeRoomRepo) {
	t.Helper()
	cfg := &config.Config{
		UploadsPath:     t.TempDir(),
		UploadURLPrefix: "/uploads",
	}
	repo := newFakeRoomRepo()
	return NewDesignService(repo, NewStorageService(cfg), nil, gen, 10*1024*1024), repo
}

func TestSubmitCreatesRoomWithoutDesign(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})
	ownerID := uuid.New()

	room, err := svc.Submit(context.Background(), ownerID, "photo.png", pngBytes, "kitchen", "industrial")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, room.ID)
	assert.Equal(t, ownerID, room.OwnerID)
	assert.NotEmpty(t, room.OriginalImagePath)
	assert.True(t, strings.HasPrefix(room.OriginalImagePath, "/uploads/rooms/"))
	assert.Empty(t, room.GeneratedDesignPath)
	assert.Equal(t, "kitchen", room.RoomType)
	assert.Equal(t, "industrial", room.StylePreference)
}

func TestSubmitAppliesLabelDefaults(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultRoomType, room.RoomType)
	assert.Equal(t, models.DefaultStylePreference, room.StylePreference)
}

func TestSubmitRejectsEmptyImage(t *testing.T) {
	svc, repo := newTestService(t, &stubGenerator{})

	_, err := svc.Submit(context.Background(), uuid.New(), "photo.png", nil, "", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.rooms)
}

func TestSubmitRejectsNonImageContent(t *testing.T) {
	svc, repo := newTestService(t, &stubGenerator{})

	_, err := svc.Submit(context.Background(), uuid.New(), "photo.png", []byte("definitely not an image payload"), "", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.rooms)
}

func TestSubmitRejectsBadExtension(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})

	_, err := svc.Submit(context.Background(), uuid.New(), "photo.gif", pngBytes, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitRejectsOversizedImage(t *testing.T) {
	cfg := &config.Config{UploadsPath: t.TempDir(), UploadURLPrefix: "/uploads"}
	repo := newFakeRoomRepo()
	svc := NewDesignService(repo, NewStorageService(cfg), nil, &stubGenerator{}, int64(len(pngBytes)-1))

	_, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.rooms)
}

func TestSubmitStorageFailureCreatesNoRecord(t *testing.T) {
	// UploadsPath pointing at a regular file makes every save fail
	base := t.TempDir()
	blocked := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	cfg := &config.Config{UploadsPath: blocked, UploadURLPrefix: "/uploads"}
	repo := newFakeRoomRepo()
	svc := NewDesignService(repo, NewStorageService(cfg), nil, &stubGenerator{}, 0)

	_, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, repo.rooms)
}

func TestGenerateSetsDesignPath(t *testing.T) {
	gen := &stubGenerator{generateFn: func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
		return &GenerationResponse{Status: "success", GeneratedImage: "/out/1.png", Message: "Design generated successfully"}, nil
	}}
	svc, repo := newTestService(t, gen)

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "kitchen", "industrial")
	require.NoError(t, err)

	outcome, err := svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)

	assert.Equal(t, "/out/1.png", outcome.Room.GeneratedDesignPath)
	assert.False(t, outcome.Degraded)
	assert.Equal(t, "Design generated successfully", outcome.Message)

	stored, err := repo.FindByID(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, "/out/1.png", stored.GeneratedDesignPath)
}

func TestGeneratePassesRoomDetailsToClient(t *testing.T) {
	var got GenerationRequest
	gen := &stubGenerator{generateFn: func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
		got = req
		return &GenerationResponse{GeneratedImage: "/out/1.png"}, nil
	}}
	svc, _ := newTestService(t, gen)

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "bedroom", "bohemian")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)

	assert.Equal(t, "bedroom", got.RoomType)
	assert.Equal(t, "bohemian", got.Style)
	assert.Equal(t, room.OriginalImagePath, got.ImagePath)
}

func TestGenerateFallbackOnUpstreamFailure(t *testing.T) {
	gen := &stubGenerator{generateFn: func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
		return nil, fmt.Errorf("%w: connection refused", ErrUpstreamUnavailable)
	}}
	svc, repo := newTestService(t, gen)

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	require.NoError(t, err)

	outcome, err := svc.Generate(context.Background(), room.ID)
	require.NoError(t, err, "fallback must not surface as an error")

	assert.True(t, outcome.Degraded)
	assert.Equal(t, room.OriginalImagePath, outcome.Room.GeneratedDesignPath)

	stored, err := repo.FindByID(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.OriginalImagePath, stored.GeneratedDesignPath)
}

func TestGenerateNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})

	_, err := svc.Generate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateLastWriteWins(t *testing.T) {
	outputs := []string{"/out/1.png", "/out/2.png"}
	calls := 0
	gen := &stubGenerator{generateFn: func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
		resp := &GenerationResponse{GeneratedImage: outputs[calls]}
		calls++
		return resp, nil
	}}
	svc, repo := newTestService(t, gen)

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, "/out/2.png", stored.GeneratedDesignPath)
	assert.Equal(t, 2, calls)
}

func TestGenerateNeverClearsDesignPath(t *testing.T) {
	failNext := false
	gen := &stubGenerator{generateFn: func(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
		if failNext {
			return nil, fmt.Errorf("%w: timeout", ErrUpstreamUnavailable)
		}
		return &GenerationResponse{GeneratedImage: "/out/1.png"}, nil
	}}
	svc, repo := newTestService(t, gen)

	room, err := svc.Submit(context.Background(), uuid.New(), "photo.png", pngBytes, "", "")
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)

	failNext = true
	outcome, err := svc.Generate(context.Background(), room.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, outcome.Room.GeneratedDesignPath)
	stored, _ := repo.FindByID(context.Background(), room.ID)
	assert.NotEmpty(t, stored.GeneratedDesignPath)
}

func TestListByOwnerIsolation(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})
	owner1 := uuid.New()
	owner2 := uuid.New()

	_, err := svc.Submit(context.Background(), owner1, "a.png", pngBytes, "", "")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), owner2, "b.png", pngBytes, "", "")
	require.NoError(t, err)

	rooms, err := svc.ListByOwner(context.Background(), owner1)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, owner1, rooms[0].OwnerID)
}

func TestListByOwnerNewestFirst(t *testing.T) {
	svc, repo := newTestService(t, &stubGenerator{})
	owner := uuid.New()

	base := time.Now().UTC()
	for i, name := range []string{"first.png", "second.png", "third.png"} {
		room := &models.Room{
			OwnerID:           owner,
			OriginalImagePath: "/uploads/rooms/" + name,
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), room))
	}

	rooms, err := svc.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "/uploads/rooms/third.png", rooms[0].OriginalImagePath)
	assert.Equal(t, "/uploads/rooms/second.png", rooms[1].OriginalImagePath)
	assert.Equal(t, "/uploads/rooms/first.png", rooms[2].OriginalImagePath)
}

func TestListByOwnerEmptyIsNotAnError(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})

	rooms, err := svc.ListByOwner(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestRemoveThenList(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})
	owner := uuid.New()

	room, err := svc.Submit(context.Background(), owner, "a.png", pngBytes, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), room.ID))

	rooms, err := svc.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	err = svc.Remove(context.Background(), room.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
