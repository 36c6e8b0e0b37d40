/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package e2b

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"chainguard.dev/clinicalmcp/sandbox"
)

type session struct {
	provider    *Provider
	id          string
	accessToken string
	execURL     string
}

func (s *session) ID() string { return s.id }

type executeRequest struct {
	Code     string            `json:"code"`
	Language string            `json:"language"`
	EnvVars  map[string]string `json:"env_vars,omitempty"`
}

// event is one line of the execution stream.
type event struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Traceback string `json:"traceback"`
}

// Run implements sandbox.Session.
func (s *session) Run(ctx context.Context, code sandbox.Code) (*sandbox.Execution, error) {
	body, err := json.Marshal(executeRequest{Code: code.Source, Language: "python", EnvVars: code.Env})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.execURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.accessToken != "" {
		req.Header.Set("X-Access-Token", s.accessToken)
	}

	resp, err := s.provider.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing code: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("executing code: %w", err)
	}

	exec := &sandbox.Execution{}
	finished := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("decoding execution event: %w", err)
		}
		switch ev.Type {
		case "stdout":
			exec.Stdout = append(exec.Stdout, ev.Text)
		case "stderr":
			exec.Stderr = append(exec.Stderr, ev.Text)
		case "error":
			exec.Error = &sandbox.ExecutionError{Name: ev.Name, Value: ev.Value, Traceback: ev.Traceback}
		case "end_of_execution":
			finished = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading execution stream: %w", err)
	}
	if !finished {
		return nil, errors.New("execution stream ended before end_of_execution")
	}
	return exec, nil
}

// Release kills the sandbox. A sandbox that no longer exists (for example
// because its timeout elapsed) counts as released.
func (s *session) Release(ctx context.Context) error {
	cfg := s.provider.cfg
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, cfg.APIURL+"/sandboxes/"+url.PathEscape(s.id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", cfg.APIKey)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("killing sandbox %s: %w", s.id, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("killing sandbox %s: %w", s.id, err)
	}
	return nil
}
