package sanity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rallykat/rallykat/internal/config"
	"github.com/rallykat/rallykat/internal/models"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	Config     config.Sanity
}

func NewClient(cfg config.Sanity) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    queryURL(cfg),
		Config:     cfg,
	}
}

func queryURL(cfg config.Sanity) string {
	host := cfg.APIHost
	if host == "" {
		api := "api"
		if cfg.UseCDN && cfg.Token == "" {
			api = "apicdn"
		}
		host = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, api)
	}
	return fmt.Sprintf("%s/v%s/data/query/%s", strings.TrimRight(host, "/"), cfg.APIVersion, cfg.Dataset)
}

// Query runs a GROQ query and decodes the result field into result. Params are
// bound as $name and JSON encoded.
func (c *Client) Query(ctx context.Context, query string, params map[string]interface{}, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	q := url.Values{}
	q.Set("query", query)
	for key, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("error encoding param %s: %w", key, err)
		}
		q.Set("$"+key, string(encoded))
	}
	if c.Config.Perspective != "" {
		q.Set("perspective", c.Config.Perspective)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/json")
	if c.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var envelope models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if len(envelope.Result) == 0 {
		envelope.Result = json.RawMessage("null")
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("error decoding result: %w", err)
	}

	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var qe models.QueryError
	if json.Unmarshal(body, &qe) == nil && qe.Error.Description != "" {
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, qe.Error.Description)
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
