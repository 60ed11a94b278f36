package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/buemura/contractlens/internal/config"
	"github.com/buemura/contractlens/pkg/types"
)

// CreateSessionRequest is the JSON body for POST /api/v1/sessions.
type CreateSessionRequest struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
}

// SourceRequest is the JSON body for PUT /api/v1/sessions/{id}/source.
type SourceRequest struct {
	Source *string `json:"source"`
}

// IssueRequest is the JSON body for the fix and jump endpoints.
type IssueRequest struct {
	Issue *types.Issue `json:"issue"`
}

// decodeCreateSessionRequest reads the body and decodes the optional config
// overrides. An empty body creates a session with defaults.
func decodeCreateSessionRequest(r *http.Request) (string, config.Partial, error) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		return "", config.Partial{}, err
	}
	if len(req.Config) == 0 {
		return req.Source, config.Partial{}, nil
	}
	p, err := config.DecodePartial(req.Config)
	if err != nil {
		return "", config.Partial{}, err
	}
	return req.Source, p, nil
}

func decodeSourceRequest(r *http.Request) (string, error) {
	var req SourceRequest
	if err := decodeBody(r, &req); err != nil {
		return "", err
	}
	if req.Source == nil {
		return "", fmt.Errorf("source is required")
	}
	return *req.Source, nil
}

func decodeIssueRequest(r *http.Request) (types.Issue, error) {
	var req IssueRequest
	if err := decodeBody(r, &req); err != nil {
		return types.Issue{}, err
	}
	if req.Issue == nil {
		return types.Issue{}, fmt.Errorf("issue is required")
	}
	return *req.Issue, nil
}

func decodeConfigRequest(r *http.Request) (config.Partial, error) {
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		return config.Partial{}, err
	}
	return config.DecodePartial(raw)
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid JSON: %w", err)
}
