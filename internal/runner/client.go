package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sender issues one trade request per call.
type Sender interface {
	Send(ctx context.Context, payload string) (Response, error)
}

// HTTPSender posts the payload to a fixed endpoint.
type HTTPSender struct {
	URL    string
	Client *http.Client
}

// NewHTTPSender builds a sender without a client timeout; a request is only
// bounded by the context passed to Send.
func NewHTTPSender(url string) *HTTPSender {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 1
	t.MaxConnsPerHost = 1

	return &HTTPSender{
		URL:    url,
		Client: &http.Client{Transport: t},
	}
}

func (s *HTTPSender) Send(ctx context.Context, payload string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		return Response{Latency: time.Since(start)}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	if err != nil {
		return Response{StatusCode: resp.StatusCode, Latency: latency}, fmt.Errorf("failed to read response body: %w", err)
	}

	return Response{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Latency:    latency,
	}, nil
}
