package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Verification outcomes. A rejected password and an unreachable
// verifier are distinct: the first clears the caller's input, the
// second is safely retryable with no state committed.
var (
	ErrInvalidCredential = fmt.Errorf("invalid credential")
	ErrUnreachable       = fmt.Errorf("verifier unreachable")
)

// Verifier calls the password-verification collaborator.
type Verifier struct {
	BaseURL string
	HTTP    *http.Client
}

type verifyRequest struct {
	Password string `json:"password"`
}

type verifyResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// Verify submits the password and returns the opaque session
// credential on success. A non-ok response maps to
// ErrInvalidCredential; any transport failure wraps ErrUnreachable.
func (v *Verifier) Verify(ctx context.Context, password string) (Credential, error) {
	body, err := json.Marshal(verifyRequest{Password: password})
	if err != nil {
		return "", fmt.Errorf("encoding verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(v.HTTP).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidCredential
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUnreachable, err)
	}
	if !vr.OK {
		return "", ErrInvalidCredential
	}
	return Credential(vr.Token), nil
}
