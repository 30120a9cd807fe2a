package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway sends notifications through an HTTP push gateway (an FCM proxy in
// production). The gateway answers 410 Gone for unregistered tokens.
type Gateway struct {
	baseURL string
	client  *http.Client
}

func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (g *Gateway) SendToToken(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(pushRequest{Token: token, Title: title, Body: body, Data: data})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		return ErrUnregisteredToken
	case resp.StatusCode >= 400:
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}
