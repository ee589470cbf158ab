package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// Poster delivers JSON bodies to a webhook with linear backoff between attempts.
type Poster struct {
	Client  *http.Client
	Label   string
	Retries int
	Backoff time.Duration
}

// NewPoster returns a Poster with a timeout-bound client when hc is nil.
func NewPoster(label string, hc *http.Client, timeout time.Duration, retries int) *Poster {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Poster{
		Client:  hc,
		Label:   label,
		Retries: max(retries, 0),
		Backoff: 200 * time.Millisecond,
	}
}

// Post sends body to url, retrying up to Retries times.
func (p *Poster) Post(ctx context.Context, url string, body []byte) error {
	attempts := p.Retries + 1
	var lastErr error
	for attempt := range attempts {
		lastErr = p.once(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * p.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (p *Poster) once(ctx context.Context, url string, body []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.Label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.Label, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close response body: %w", cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return fmt.Errorf("read %s error response: %w", p.Label, readErr)
		}
		return fmt.Errorf("%s %s: %s", p.Label, resp.Status, strings.TrimSpace(string(msg)))
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain %s response body: %w", p.Label, err)
	}
	return nil
}
