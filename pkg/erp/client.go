// Package erp implements the HTTP client for the downstream HR system that
// ingests finalized admission records.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talentio/admission-api/internal/models"
)

// Client posts admission records to the ERP ingest endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds an ERP client. Timeout bounds every dispatch attempt.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SendAdmission delivers one finalized record. Any transport or non-2xx
// response is returned as an error so callers can retry.
func (c *Client) SendAdmission(ctx context.Context, record models.AdmissionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode admission record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admissions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build erp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("erp unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("erp responded %d", resp.StatusCode)
	}
	return nil
}
