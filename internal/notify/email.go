package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"proctor-quiz-service/internal/domain"
)

// EmailClient posts result summaries to the external email service.
// Delivery is strictly best-effort: timeouts, connection errors and non-2xx
// responses are logged and discarded so the submit path never waits on or
// fails because of the notifier.
type EmailClient struct {
	url    string
	client *http.Client
}

func NewEmailClient(url string, timeout time.Duration) *EmailClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EmailClient{url: url, client: &http.Client{Timeout: timeout}}
}

func (c *EmailClient) Send(ctx context.Context, n domain.ResultNotification) {
	if c.url == "" {
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("result notification failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("result notification rejected: %s", resp.Status)
	}
}

// Noop discards every notification; used when no notifier URL is configured
// and in tests.
type Noop struct{}

func (Noop) Send(context.Context, domain.ResultNotification) {}
