package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"modelkiosk/sources/tracing"
)

var (
	ErrTaskTimeout = errors.New("generation task did not finish in time")
	ErrNoAPIKey    = errors.New("kie api key is not configured")
)

// Client drives the asynchronous generation API: createTask returns a task id,
// recordInfo is polled until the task reaches a terminal state.
type Client struct {
	config     *KieConfig
	httpClient *http.Client
}

func NewClient(config *KieConfig, httpClient *http.Client) *Client {
	return &Client{config: config, httpClient: httpClient}
}

// Generate runs one generation to completion. Upstream failures come back as
// an unsuccessful Result, not an error; errors are reserved for transport and
// protocol problems where no verdict was obtained.
func (x *Client) Generate(ctx context.Context, log *tracing.Logger, modelID string, input map[string]any) (*Result, error) {
	defer tracing.ProfilePoint(log, "Generation completed", "kie.generate", tracing.ModelId, modelID)()

	if x.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	taskID, err := x.createTask(ctx, log, modelID, input)
	if err != nil {
		log.E("Failed to create generation task", tracing.InnerError, err, tracing.ModelId, modelID)
		return nil, err
	}

	log = log.With(tracing.KieTaskId, taskID)
	log.I("Generation task created")

	return x.poll(ctx, log, taskID)
}

func (x *Client) createTask(ctx context.Context, log *tracing.Logger, modelID string, input map[string]any) (string, error) {
	return tracing.ReportExecutionForRE(log, func() (string, error) {
		body, err := json.Marshal(createTaskRequest{Model: modelID, Input: input})
		if err != nil {
			return "", err
		}

		var parsed createTaskResponse
		if err := x.call(ctx, http.MethodPost, "/api/v1/jobs/createTask", body, &parsed); err != nil {
			return "", err
		}
		if parsed.Code != 200 {
			return "", fmt.Errorf("create task rejected: code=%d msg=%s", parsed.Code, parsed.Msg)
		}
		if parsed.Data.TaskID == "" {
			return "", errors.New("create task response carries no task id")
		}

		return parsed.Data.TaskID, nil
	}, func(l *tracing.Logger) {
		l.I("Create task call finished", tracing.ModelId, modelID)
	})
}

func (x *Client) poll(ctx context.Context, log *tracing.Logger, taskID string) (*Result, error) {
	deadline := time.Now().Add(x.config.MaxPollTime)
	attempt := 0

	for {
		attempt++

		record, err := x.recordInfo(ctx, taskID)
		if err != nil {
			log.E("Failed to poll generation task", tracing.InnerError, err, tracing.KieAttempt, attempt)
			return nil, err
		}

		state := record.Data.State
		switch {
		case state == stateSuccess:
			return x.finalize(log, taskID, record)

		case state == stateFail:
			message := record.Data.FailMsg
			if message == "" {
				message = "generation failed upstream"
			}
			log.W("Generation task failed", tracing.KieState, state, "fail_code", record.Data.FailCode)
			return &Result{TaskID: taskID, Success: false, Message: message, ErrorCode: record.Data.FailCode}, nil

		case stateInProgress(state):
			if attempt%10 == 0 {
				log.I("Generation task still in progress", tracing.KieState, state, tracing.KieAttempt, attempt)
			}

		default:
			return nil, fmt.Errorf("unknown task state %q", state)
		}

		if time.Now().After(deadline) {
			log.W("Generation task timed out", tracing.KieAttempt, attempt)
			return nil, ErrTaskTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(x.config.PollInterval):
		}
	}
}

func (x *Client) finalize(log *tracing.Logger, taskID string, record *recordInfoResponse) (*Result, error) {
	if record.Data.ResultJSON == "" {
		return nil, errors.New("success state carries no result payload")
	}

	var payload resultPayload
	if err := json.Unmarshal([]byte(record.Data.ResultJSON), &payload); err != nil {
		return nil, fmt.Errorf("parse result payload: %w", err)
	}
	if len(payload.ResultURLs) == 0 {
		return nil, errors.New("success state carries no result urls")
	}

	log.I("Generation task succeeded", "urls", len(payload.ResultURLs))
	return &Result{TaskID: taskID, Success: true, ResultURLs: payload.ResultURLs}, nil
}

func (x *Client) recordInfo(ctx context.Context, taskID string) (*recordInfoResponse, error) {
	endpoint := "/api/v1/jobs/recordInfo?" + url.Values{"taskId": {taskID}}.Encode()

	var parsed recordInfoResponse
	if err := x.call(ctx, http.MethodGet, endpoint, nil, &parsed); err != nil {
		return nil, err
	}
	if parsed.Code != 200 {
		return nil, fmt.Errorf("record info rejected: code=%d msg=%s", parsed.Code, parsed.Msg)
	}

	return &parsed, nil
}

func (x *Client) call(ctx context.Context, method, endpoint string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, x.config.RequestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(x.config.BaseURL, "/")+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+x.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(raw))
	}

	return json.Unmarshal(raw, out)
}

func truncate(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
