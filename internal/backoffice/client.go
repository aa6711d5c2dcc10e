package backoffice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backsync/internal/config"
	"backsync/internal/logger"
)

const requestTimeout = 15 * time.Second

// Client talks to the MLM back office API. All endpoints live under
// /api/wp/ on the configured base URL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// Configured reports whether both the base URL and the API key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Response is a decoded back office reply. Body is nil when the response
// carried no JSON object.
type Response struct {
	StatusCode int
	Body       map[string]interface{}
}

// Message returns the body's message field, or "Unknown error" when the
// back office did not explain itself.
func (r *Response) Message() string {
	if msg, ok := r.Body["message"].(string); ok && msg != "" {
		return msg
	}
	return "Unknown error"
}

// StatusTruthy reports whether the body's status field is truthy in the
// loose sense the back office uses (true, non-zero number, non-empty string).
func (r *Response) StatusTruthy() bool {
	switch v := r.Body["status"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0" && v != "false"
	default:
		return false
	}
}

// StatusTrue reports a strict boolean true status, used by sponsor
// validation where anything weaker is rejected.
func (r *Response) StatusTrue() bool {
	v, ok := r.Body["status"].(bool)
	return ok && v
}

// FieldErrors extracts the structured validation error map the back office
// returns on rejected registrations: field name to list of messages.
func (r *Response) FieldErrors() map[string][]string {
	raw, ok := r.Body["errors"].(map[string]interface{})
	if !ok {
		return nil
	}

	errors := make(map[string][]string, len(raw))
	for field, value := range raw {
		switch messages := value.(type) {
		case []interface{}:
			for _, m := range messages {
				if s, ok := m.(string); ok {
					errors[field] = append(errors[field], s)
				}
			}
		case string:
			errors[field] = append(errors[field], messages)
		}
	}
	return errors
}

// String returns the body field as a string, converting numbers the back
// office sometimes sends for identifier fields.
func (r *Response) String(field string) string {
	switch v := r.Body[field].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// Post sends a JSON payload authenticated with the X-API-KEY header.
func (c *Client) Post(path string, payload interface{}) (*Response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Get issues a GET authenticated with a bearer token.
func (c *Client) Get(path, bearer string) (*Response, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	return c.do(req)
}

// ValidateSponsor checks a referral username against the back office using
// the static API key as bearer credential. Only a strict boolean true
// counts as valid.
func (c *Client) ValidateSponsor(username string) (bool, error) {
	resp, err := c.Get("/api/wp/validate-sponsor/"+url.PathEscape(username), c.apiKey)
	if err != nil {
		return false, err
	}
	return resp.StatusTrue(), nil
}

// LoginToken fetches a one-time back office login token for a local user,
// authenticated with the static API key as bearer. A 200 without a token
// field is a rejection.
func (c *Client) LoginToken(userID string) (string, error) {
	resp, err := c.Get("/api/wp/get-token/"+url.PathEscape(userID), c.apiKey)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request rejected: HTTP %d - %s", resp.StatusCode, resp.Message())
	}
	token := resp.String("token")
	if token == "" {
		return "", fmt.Errorf("token request returned no token")
	}
	return token, nil
}

// LoginURL builds the back office login redirect for a fetched token.
func (c *Client) LoginURL(token string) string {
	return c.baseURL + "/login?token=" + url.QueryEscape(token)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	response := &Response{StatusCode: resp.StatusCode}

	// Non-JSON bodies are tolerated: the status code alone decides some
	// sync outcomes.
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		response.Body = body
	}

	return response, nil
}
