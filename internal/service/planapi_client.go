package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizplanner/internal/config"
	"bizplanner/internal/logging"
	"bizplanner/internal/model"
)

// APIError is a non-retryable error status returned by the plan API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plan API error %d: %s", e.StatusCode, e.Body)
}

// PlanAPIClient wraps calls to the plan API collaborator: questionnaire
// templates, answer persistence and plan generation
type PlanAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

// NewPlanAPIClient creates a new plan API client
func NewPlanAPIClient(cfg config.PlanAPIConfig) *PlanAPIClient {
	log := logging.Component("planapi")
	if cfg.Token == "" {
		log.Warn("planapi.token not set, calls are unauthenticated")
	}

	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &PlanAPIClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries: retries,
		backoff:    time.Second,
		log:        log,
	}
}

// SetBackoff changes the base delay between retries
func (c *PlanAPIClient) SetBackoff(d time.Duration) {
	c.backoff = d
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doRequest performs an HTTP request, retrying transport errors, 429 and 5xx
// with exponential backoff
func (c *PlanAPIClient) doRequest(ctx context.Context, method, path string, in interface{}) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, eris.Wrapf(err, "encode %s %s", method, path)
		}
	}

	log := c.log.With(zap.String("method", method), zap.String("path", path))
	log.Debug("request")

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			log.Warn("retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max", c.maxRetries),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, eris.Wrapf(ctx.Err(), "%s %s", method, path)
			case <-time.After(wait):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrapf(err, "%s %s", method, path)
			}
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if retryable(resp.StatusCode) {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
			continue
		}
		if resp.StatusCode >= 400 {
			log.Error("request failed", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
			return nil, eris.Wrapf(&APIError{StatusCode: resp.StatusCode, Body: string(respBody)}, "%s %s", method, path)
		}

		log.Debug("response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(respBody)))
		return respBody, nil
	}

	log.Error("max retries exceeded", zap.Int("max", c.maxRetries), zap.Error(lastErr))
	return nil, eris.Wrapf(lastErr, "%s %s: max retries exceeded", method, path)
}

func (c *PlanAPIClient) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return eris.Wrapf(json.Unmarshal(body, out), "decode %s", path)
}

// ListTemplates fetches the persona's questionnaire template
func (c *PlanAPIClient) ListTemplates(ctx context.Context, persona model.Persona) ([]model.Question, error) {
	path := "/questionnaires/templates?persona=" + url.QueryEscape(string(persona))
	var questions []model.Question
	if err := c.getJSON(ctx, path, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SaveResponse persists one answer
func (c *PlanAPIClient) SaveResponse(ctx context.Context, response *model.Response) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/questionnaires/responses", response)
	return err
}

// StartGeneration asks the generator to build a plan from the answers
func (c *PlanAPIClient) StartGeneration(ctx context.Context, req *model.GenerateRequest) (*model.GenerationJob, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/plans/generate", req)
	if err != nil {
		return nil, err
	}
	var job model.GenerationJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, eris.Wrap(err, "decode generation job")
	}
	if job.JobID == "" {
		return nil, eris.New("generation job has no id")
	}
	return &job, nil
}

// GenerationStatus polls one generation job
func (c *PlanAPIClient) GenerationStatus(ctx context.Context, jobID string) (*model.GenerationStatus, error) {
	var status model.GenerationStatus
	if err := c.getJSON(ctx, "/plans/generate/"+url.PathEscape(jobID), &status); err != nil {
		return nil, err
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	status.CheckedAt = time.Now()
	return &status, nil
}

// PlanSections fetches the markdown sections of a generated plan
func (c *PlanAPIClient) PlanSections(ctx context.Context, planID string) ([]model.PlanSection, error) {
	var sections []model.PlanSection
	if err := c.getJSON(ctx, "/plans/"+url.PathEscape(planID)+"/sections", &sections); err != nil {
		return nil, err
	}
	return sections, nil
}
