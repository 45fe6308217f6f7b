package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService routes notifications to the admin Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         *slog.Logger
}

// NewTelegramService creates a new TelegramService. Missing credentials turn
// every send into a no-op.
func NewTelegramService(botToken, adminChatID string, log *slog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         logging.Component(log, "telegram"),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to the chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("bot token not configured, skipping message")
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		s.log.Debug("admin chat not configured, skipping message")
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// NotifyEnquiry posts a summary of a freshly submitted enquiry.
func (s *TelegramService) NotifyEnquiry(ctx context.Context, e *models.Enquiry) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendToAdmin(ctx, FormatEnquiry(e))
}

// FormatEnquiry renders the admin chat message for e.
func FormatEnquiry(e *models.Enquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>New enquiry %s</b>\n", html.EscapeString(e.EnquiryNumber))
	fmt.Fprintf(&b, "<b>Name:</b> %s\n", html.EscapeString(e.Name))
	fmt.Fprintf(&b, "<b>Phone:</b> %s\n", html.EscapeString(e.Phone))
	if e.Email != "" {
		fmt.Fprintf(&b, "<b>Email:</b> %s\n", html.EscapeString(e.Email))
	}
	if e.Company != "" {
		fmt.Fprintf(&b, "<b>Company:</b> %s\n", html.EscapeString(e.Company))
	}
	if e.State != "" {
		fmt.Fprintf(&b, "<b>State:</b> %s\n", html.EscapeString(e.State))
	}
	if len(e.Categories) > 0 {
		fmt.Fprintf(&b, "<b>Categories:</b> %s\n", html.EscapeString(strings.Join(e.Categories, ", ")))
	}
	fmt.Fprintf(&b, "<b>Priority:</b> %s\n", e.Priority)

	if len(e.Items) > 0 {
		b.WriteString("<b>Products:</b>\n")
		for i, item := range e.Items {
			line := item.ProductName
			if item.ColorName != "" {
				line += " (" + item.ColorName + ")"
			}
			fmt.Fprintf(&b, "%d. %s x %d\n", i+1, html.EscapeString(line), item.Quantity)
		}
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		fmt.Fprintf(&b, "<b>Message:</b>\n%s\n", html.EscapeString(msg))
	}
	b.WriteString("━━━━━━━━━━━━━━━━━━")
	return b.String()
}
