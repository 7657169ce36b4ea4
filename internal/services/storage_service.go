package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gruhabuddy/backend/internal/config"
)

// StorageService stores uploaded media on local disk. Files are served
// read-only by the API under the configured URL prefix.
type StorageService struct {
	cfg *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure local path exists
	_ = os.MkdirAll(cfg.UploadsPath, 0o755)
	return &StorageService{cfg: cfg}
}

// BuildObjectKey creates a namespaced storage key
func (s *StorageService) BuildObjectKey(kind string, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), ext)
}

// SaveStream saves an incoming stream to local storage and returns absolute path, size and checksum
func (s *StorageService) SaveStream(ctx context.Context, key string, r io.Reader) (string, int64, string, error) {
	absPath := s.LocalPath(key)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, "", err
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := f.Sync(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	return absPath, n, checksum, nil
}

// PublicPath returns the URL path under which a stored key is served
func (s *StorageService) PublicPath(key string) string {
	return strings.TrimRight(s.cfg.UploadURLPrefix, "/") + "/" + key
}

// LocalPath returns the absolute filesystem path for a stored key
func (s *StorageService) LocalPath(key string) string {
	return filepath.Join(s.cfg.UploadsPath, filepath.FromSlash(key))
}
