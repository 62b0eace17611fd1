package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/firstfin/sarah/util"
)

// Mailer sends one plain-text email to the dealership inbox.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

type MailConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	ToEmail   string
	Timeout   time.Duration
}

func MailConfigFromEnv() MailConfig {
	return MailConfig{
		APIKey:    util.GetEnv("SENDGRID_API_KEY", ""),
		BaseURL:   util.GetEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		FromEmail: util.GetEnv("ALERT_FROM_EMAIL", ""),
		FromName:  util.GetEnv("ALERT_FROM_NAME", "Sarah"),
		ToEmail:   util.GetEnv("ALERT_TO_EMAIL", ""),
		Timeout:   time.Duration(util.GetEnvAsInt("SENDGRID_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func NewMailer(cfg MailConfig) (Mailer, error) {
	if util.IsBlank(cfg.APIKey) {
		return nil, errors.New("missing mail api key")
	}
	if util.IsBlank(cfg.FromEmail) || util.IsBlank(cfg.ToEmail) {
		return nil, errors.New("missing mail addresses")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &mailer{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

type mailer struct {
	cfg        MailConfig
	httpClient *http.Client
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPayload struct {
	Personalizations []struct {
		To []address `json:"to"`
	} `json:"personalizations"`
	From    address `json:"from"`
	Subject string  `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (m *mailer) Send(ctx context.Context, subject, body string) error {
	payload := mailPayload{
		From:    address{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
		Subject: subject,
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []address `json:"to"`
	}{To: []address{{Email: m.cfg.ToEmail}}})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "text/plain", Value: body})

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
