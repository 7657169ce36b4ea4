package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gruhabuddy/backend/internal/config"
)

// wakingUpReply is returned when the chat service cannot be reached, so the
// chat widget always gets a usable answer.
const wakingUpReply = "I'm just waking up. Please give me a moment and try again."

// ChatReply is the normalized chat result. Degraded marks replies produced
// locally because the chat service was unreachable.
type ChatReply struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded"`
}

// ChatService forwards user messages to the external chat/LLM service.
type ChatService struct {
	cfg    *config.Config
	client *http.Client
}

func NewChatService(cfg *config.Config) *ChatService {
	timeout := cfg.ChatServiceTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChatService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Send forwards a message verbatim to the chat service. Connection failure,
// timeout and non-2xx replies all degrade to a canned reply instead of an
// error; only an empty message fails.
func (s *ChatService) Send(ctx context.Context, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ChatServiceURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Chat service unreachable: %v", err)
		return &ChatReply{Reply: wakingUpReply, Degraded: true}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Chat service returned %d", resp.StatusCode)
		return &ChatReply{Reply: wakingUpReply, Degraded: true}, nil
	}

	var body struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Reply == "" {
		return &ChatReply{Reply: wakingUpReply, Degraded: true}, nil
	}

	return &ChatReply{Reply: body.Reply}, nil
}
