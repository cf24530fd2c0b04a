// Package client implements the HTTP collaborators the runtime talks
// to: password verification, persona chat completion, and the startup
// health check. Each client is a thin JSON round trip; all session
// mutation stays with the caller.
package client

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds each collaborator round trip.
const DefaultTimeout = 30 * time.Second

// Credential is the opaque token returned by the verifier and attached
// to chat requests. The runtime never interprets it.
type Credential string

// Message is one entry of the chat context window.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: DefaultTimeout}
}
