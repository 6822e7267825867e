package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codinground/internal/models"
)

// Client calls the interview backend over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client. A nil httpClient gets a 30 second timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) GetCodingQuestions(ctx context.Context, sessionID string) (*models.CodingQuestionsResponse, error) {
	var out models.CodingQuestionsResponse
	if err := c.do(ctx, http.MethodGet, "/interview/get-coding-questions/"+url.PathEscape(sessionID)+"/", nil, &out); err != nil {
		return nil, err
	}
	if out.Interactions == nil {
		out.Interactions = []models.InteractionRecord{}
	}
	return &out, nil
}

func (c *Client) IncrementAssistance(ctx context.Context, sessionID, problemID string) (int, error) {
	var out models.AssistanceResponse
	path := "/interview/coding-assistance/" + url.PathEscape(sessionID) + "/" + url.PathEscape(problemID) + "/"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return 0, err
	}
	return out.AssistanceCount, nil
}

func (c *Client) SaveScore(ctx context.Context, sessionID, problemID string, req models.ScoreRequest) error {
	path := "/interview/add-coding-scores/" + url.PathEscape(sessionID) + "/" + url.PathEscape(problemID) + "/"
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) UpdateSessionStatus(ctx context.Context, sessionID, status, roundType string) error {
	body := models.SessionStatusRequest{Status: status, RoundType: roundType}
	return c.do(ctx, http.MethodPatch, "/interview/update-session-status/"+url.PathEscape(sessionID)+"/", body, nil)
}

func (c *Client) ContinueSession(ctx context.Context, sessionID, roundType string) (*models.ContinueSessionResponse, error) {
	var out models.ContinueSessionResponse
	body := models.ContinueSessionRequest{RoundType: roundType}
	if err := c.do(ctx, http.MethodPost, "/interview/continue-session/"+url.PathEscape(sessionID)+"/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
