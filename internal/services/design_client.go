package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gruhabuddy/backend/internal/config"
)

// GenerationRequest is the payload sent to the AI design service.
type GenerationRequest struct {
	RoomType  string `json:"roomType"`
	Style     string `json:"style"`
	ImagePath string `json:"imagePath"`
}

// GenerationResponse is the AI design service's reply.
type GenerationResponse struct {
	Status         string `json:"status"`
	GeneratedImage string `json:"generated_image"`
	Message        string `json:"message"`
	Fallback       bool   `json:"fallback"`
}

// RoomAnalysis is the AI service's estimate of a room photo's layout.
type RoomAnalysis struct {
	Status     string `json:"status"`
	Dimensions struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimensions"`
	DetectedType string   `json:"detectedType"`
	Features     []string `json:"features"`
}

// ProductRecommendation is a single product suggestion for a style and budget.
type ProductRecommendation struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	EcoFriendly bool    `json:"ecoFriendly"`
}

// GenerationClient is the boundary to the external AI design service.
// Implementations must return ErrUpstreamUnavailable (wrapped) when the
// service is unreachable, times out, or replies with a non-2xx status.
type GenerationClient interface {
	GenerateDesign(ctx context.Context, req GenerationRequest) (*GenerationResponse, error)
	AnalyzeRoom(ctx context.Context, imagePath string) (*RoomAnalysis, error)
	RecommendProducts(ctx context.Context, style string, budget float64) ([]ProductRecommendation, error)
}

// AIClient calls the AI design service over HTTP. A single attempt per
// operation, no retries; the client timeout bounds every call.
type AIClient struct {
	baseURL string
	client  *http.Client
}

func NewAIClient(cfg *config.Config) *AIClient {
	timeout := cfg.AIServiceTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIClient{
		baseURL: cfg.AIServiceURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GenerateDesign requests a redesign of the room photo
func (c *AIClient) GenerateDesign(ctx context.Context, req GenerationRequest) (*GenerationResponse, error) {
	var out GenerationResponse
	if err := c.post(ctx, "/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeRoom requests layout analysis of an uploaded photo
func (c *AIClient) AnalyzeRoom(ctx context.Context, imagePath string) (*RoomAnalysis, error) {
	body := map[string]string{"imagePath": imagePath}
	var out RoomAnalysis
	if err := c.post(ctx, "/analyze-room", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecommendProducts requests product suggestions for a style and budget
func (c *AIClient) RecommendProducts(ctx context.Context, style string, budget float64) ([]ProductRecommendation, error) {
	body := map[string]interface{}{"style": style, "budget": budget}
	var out struct {
		Status          string                  `json:"status"`
		Recommendations []ProductRecommendation `json:"recommendations"`
	}
	if err := c.post(ctx, "/recommend", body, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *AIClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: ai service returned %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid ai service response: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
