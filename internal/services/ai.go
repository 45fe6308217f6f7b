package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
)

// AIRequest asks the text endpoint to draft one form field.
type AIRequest struct {
	Field   string                 `json:"field"`
	Prompt  string                 `json:"prompt"`
	Context map[string]interface{} `json:"context,omitempty"`
}

type aiResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

const maxCooldownEntries = 1024

type cooldown struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AIService forwards generation requests to an opaque text endpoint with a
// per (client, field) cooldown.
type AIService struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	every    time.Duration
	client   *http.Client
	log      *slog.Logger

	mu        sync.Mutex
	cooldowns map[string]*cooldown
	now       func() time.Time
}

func NewAIService(endpoint, apiKey string, timeout, every time.Duration, log *slog.Logger) *AIService {
	return &AIService{
		endpoint:  endpoint,
		apiKey:    apiKey,
		timeout:   timeout,
		every:     every,
		client:    &http.Client{},
		log:       logging.Component(log, "ai"),
		cooldowns: make(map[string]*cooldown),
		now:       time.Now,
	}
}

// allow takes the cooldown token for key.
func (s *AIService) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.cooldowns) >= maxCooldownEntries {
		for k, c := range s.cooldowns {
			if now.Sub(c.lastSeen) > s.every {
				delete(s.cooldowns, k)
			}
		}
	}

	c, ok := s.cooldowns[key]
	if !ok {
		c = &cooldown{limiter: rate.NewLimiter(rate.Every(s.every), 1)}
		s.cooldowns[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Generate returns the drafted text for req. clientID scopes the cooldown.
func (s *AIService) Generate(ctx context.Context, clientID string, req AIRequest) (string, error) {
	req.Field = strings.TrimSpace(req.Field)
	if req.Field == "" {
		return "", apperr.Validation("field is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperr.Validation("prompt is required")
	}
	if !s.allow(clientID + "|" + req.Field) {
		return "", apperr.RateLimited(fmt.Sprintf("wait %s between generations", s.every))
	}
	if s.endpoint == "" {
		return "", apperr.Dependency("text generation is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", apperr.Fatal("encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperr.Fatal("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.log.Warn("text generation failed", "field", req.Field, "error", err)
		return "", apperr.Dependency("text generation failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Dependency("text generation failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		s.log.Warn("text generation rejected", "field", req.Field, "status", resp.StatusCode)
		return "", apperr.Dependency(fmt.Sprintf("text generation returned status %d", resp.StatusCode), nil)
	}

	var out aiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperr.Dependency("text generation returned an invalid body", err)
	}
	if out.Error != "" {
		return "", apperr.Dependency(out.Error, nil)
	}
	return strings.TrimSpace(out.Text), nil
}
