package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies a chat collaborator failure. Each kind maps to a
// distinct user-facing system message.
type ErrorKind string

const (
	KindAuthExpired ErrorKind = "auth-expired"
	KindDailyLimit  ErrorKind = "daily-limit-reached"
	KindRateLimited ErrorKind = "rate-limited"
	KindDemoExpired ErrorKind = "demo-expired"
	KindServerError ErrorKind = "generic-server-error"
)

// ChatError is a structured failure reported by the chat collaborator.
type ChatError struct {
	Kind ErrorKind
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat service error: %s", e.Kind)
}

// Chat calls the persona chat-completion collaborator.
type Chat struct {
	BaseURL string
	HTTP    *http.Client
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Message string `json:"message"`
}

type chatErrorResponse struct {
	Error string `json:"error"`
}

// Send forwards the context window with the session credential attached
// and returns the persona's reply. Failures come back as *ChatError;
// transport failures and unrecognized error bodies map to
// KindServerError so the conversation can always continue.
func (c *Chat) Send(ctx context.Context, cred Credential, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(cred))

	resp, err := httpClient(c.HTTP).Do(req)
	if err != nil {
		return "", &ChatError{Kind: KindServerError}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er chatErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			if kind, ok := knownKind(er.Error); ok {
				return "", &ChatError{Kind: kind}
			}
		}
		return "", &ChatError{Kind: KindServerError}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &ChatError{Kind: KindServerError}
	}
	return cr.Message, nil
}

func knownKind(s string) (ErrorKind, bool) {
	switch ErrorKind(s) {
	case KindAuthExpired, KindDailyLimit, KindRateLimited, KindDemoExpired, KindServerError:
		return ErrorKind(s), true
	}
	return "", false
}
