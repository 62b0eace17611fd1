package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firstfin/sarah/util"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	// Wait blocks until the limiter permits an event to happen.
	Wait(ctx context.Context) error
}

// Transport delivers outbound messages and voice drops to the carrier.
type Transport interface {
	//SendMessage sends one SMS and returns the carrier message sid
	SendMessage(ctx context.Context, to, body string) (string, error)
	//PlaceVoiceDrop places an outbound call that speaks the given text and
	//collects a single keypress via the callback URL
	PlaceVoiceDrop(ctx context.Context, to, speech, callbackURL string) (string, error)
}

type Config struct {
	AccountSid string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
	Tps        int
}

func ConfigFromEnv() Config {
	return Config{
		AccountSid: util.GetEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  util.GetEnv("TWILIO_AUTH_TOKEN", ""),
		FromNumber: util.GetEnv("TWILIO_PHONE_NUMBER", ""),
		BaseURL:    util.GetEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		Timeout:    time.Duration(util.GetEnvAsInt("TWILIO_TIMEOUT_SECONDS", 30)) * time.Second,
		Tps:        util.GetEnvAsInt("TWILIO_TPS", 10),
	}
}

func NewTwilioClient(cfg Config) (Transport, error) {
	if util.IsBlank(cfg.AccountSid) || util.IsBlank(cfg.AuthToken) {
		return nil, errors.New("missing twilio credentials")
	}
	if util.IsBlank(cfg.FromNumber) {
		return nil, errors.New("missing twilio sender number")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Tps <= 0 {
		cfg.Tps = 10
	}

	return &twilioClient{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.Tps), 1),
	}, nil
}

type twilioClient struct {
	cfg         Config
	httpClient  *http.Client
	rateLimiter RateLimiter
}

type apiResponse struct {
	Sid     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *twilioClient) SendMessage(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", body)
	return t.post(ctx, "Messages.json", form)
}

func (t *twilioClient) PlaceVoiceDrop(ctx context.Context, to, speech, callbackURL string) (string, error) {
	twiml := fmt.Sprintf(
		`<Response><Gather numDigits="1" action="%s" method="POST"><Say voice="alice">%s</Say></Gather><Say voice="alice">Goodbye!</Say></Response>`,
		callbackURL, speech)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Twiml", twiml)
	return t.post(ctx, "Calls.json", form)
}

func (t *twilioClient) post(ctx context.Context, resource string, form url.Values) (string, error) {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/%s",
		strings.TrimRight(t.cfg.BaseURL, "/"), t.cfg.AccountSid, resource)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.cfg.AccountSid, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unexpected carrier response: %s", strings.TrimSpace(string(raw)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Message != "" {
			return "", fmt.Errorf("carrier error %d: %s", parsed.Code, parsed.Message)
		}
		return "", fmt.Errorf("carrier returned status %d", resp.StatusCode)
	}

	return parsed.Sid, nil
}
