package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Health polls the connectivity collaborator once at startup. Its
// absence or failure is non-fatal and never blocks gameplay.
type Health struct {
	BaseURL string
	HTTP    *http.Client
}

type healthResponse struct {
	Online bool `json:"online"`
}

// Check reports whether the remote service says it is online. Any
// failure reads as offline.
func (h *Health) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := httpClient(h.HTTP).Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var hr healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return false
	}
	return hr.Online
}
