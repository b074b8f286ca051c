package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rjldg/speech-transcribe/internal/domain"
)

// ErrNoCredential is returned when neither auth mechanism is configured.
var ErrNoCredential = errors.New("no credential configured: set a bearer token or a subscription key")

// ErrJobIDUndetermined is returned when the creation response carries
// none of the known job-identifier shapes.
var ErrJobIDUndetermined = errors.New("could not determine job id from creation response")

// APIError is a structured non-2xx response from the speech service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speech api status %d: %s", e.StatusCode, e.Body)
}

// Throttled reports whether the error is the rate-limit status, which
// after executor retries means the retry budget was exhausted.
func (e *APIError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type ClientConfig struct {
	Region string
	// BaseURL overrides the region-derived endpoint, used by tests.
	BaseURL         string
	BearerToken     string
	SubscriptionKey string
	BatchAPIVersion string
	FastAPIVersion  string
	Executor        *Executor
	Retry           RetryPolicy
}

// Client issues wire calls against the speech service. All requests go
// through the resilient Executor and carry exactly one credential.
type Client struct {
	baseURL         string
	bearerToken     string
	subscriptionKey string
	batchAPIVersion string
	fastAPIVersion  string
	executor        *Executor
	retry           RetryPolicy
}

func NewClient(config ClientConfig) (*Client, error) {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		if strings.TrimSpace(config.Region) == "" {
			return nil, errors.New("speech region is required")
		}
		baseURL = fmt.Sprintf("https://%s.api.cognitive.microsoft.com", config.Region)
	}
	if config.BearerToken == "" && config.SubscriptionKey == "" {
		return nil, ErrNoCredential
	}
	if config.BatchAPIVersion == "" {
		config.BatchAPIVersion = "2024-11-15"
	}
	if config.FastAPIVersion == "" {
		config.FastAPIVersion = "2025-10-15"
	}
	if config.Executor == nil {
		config.Executor = NewExecutor(ExecutorConfig{})
	}
	return &Client{
		baseURL:         baseURL,
		bearerToken:     config.BearerToken,
		subscriptionKey: config.SubscriptionKey,
		batchAPIVersion: config.BatchAPIVersion,
		fastAPIVersion:  config.FastAPIVersion,
		executor:        config.Executor,
		retry:           config.Retry.normalized(),
	}, nil
}

func (c *Client) collectionURL() string {
	return c.baseURL + "/speechtotext/batchtranscriptions"
}

func (c *Client) fastURL() string {
	return c.baseURL + "/speechtotext/transcriptions:transcribe"
}

// authorize attaches exactly one credential; the bearer token wins when
// both are configured.
func (c *Client) authorize(request *http.Request) {
	if c.bearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.bearerToken)
		return
	}
	request.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
}

// CreateJob submits a batch transcription job and returns its handle.
func (c *Client) CreateJob(ctx context.Context, create CreateJobRequest) (*domain.Job, error) {
	encoded, err := json.Marshal(create)
	if err != nil {
		return nil, fmt.Errorf("marshal job creation body: %w", err)
	}

	target := c.collectionURL() + "?api-version=" + url.QueryEscape(c.batchAPIVersion)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create job request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	c.authorize(request)

	response, err := c.executor.Do(ctx, request, c.retry)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read job creation response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newAPIError(response.StatusCode, body)
	}

	var resource jobResource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decode job creation response: %w", err)
	}

	jobID := extractJobID(resource, response.Header.Get("Location"))
	if jobID == "" {
		return nil, ErrJobIDUndetermined
	}

	return &domain.Job{
		ID:          jobID,
		Status:      resource.status(),
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// extractJobID falls through the known identifier shapes in order:
// the "id" field, the trailing path segment of the "self" link, then
// the trailing path segment of the Location header. The list may not
// be exhaustive for future API versions; anything else surfaces as
// ErrJobIDUndetermined rather than a guess.
func extractJobID(resource jobResource, location string) string {
	if resource.ID != "" {
		return resource.ID
	}
	if segment := trailingPathSegment(resource.Self); segment != "" {
		return segment
	}
	return trailingPathSegment(location)
}

func trailingPathSegment(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	if index := strings.LastIndex(path, "/"); index >= 0 {
		return path[index+1:]
	}
	return path
}

// GetJob fetches the current job record.
func (c *Client) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	target := fmt.Sprintf(
		"%s/%s?api-version=%s",
		c.collectionURL(), url.PathEscape(jobID), url.QueryEscape(c.batchAPIVersion),
	)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create job status request: %w", err)
	}
	c.authorize(request)

	response, err := c.executor.Do(ctx, request, c.retry)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read job status response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newAPIError(response.StatusCode, body)
	}

	var resource jobResource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decode job status response: %w", err)
	}

	return &domain.Job{
		ID:            jobID,
		Status:        resource.status(),
		FailureReason: resource.failureReason(),
	}, nil
}

// ListFiles enumerates the artifacts a finished job produced.
func (c *Client) ListFiles(ctx context.Context, jobID string) ([]domain.Artifact, error) {
	target := fmt.Sprintf(
		"%s/%s/files?api-version=%s",
		c.collectionURL(), url.PathEscape(jobID), url.QueryEscape(c.batchAPIVersion),
	)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create file listing request: %w", err)
	}
	c.authorize(request)

	response, err := c.executor.Do(ctx, request, c.retry)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read file listing response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newAPIError(response.StatusCode, body)
	}

	var listing fileListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode file listing response: %w", err)
	}

	entries := listing.entries()
	artifacts := make([]domain.Artifact, 0, len(entries))
	for _, entry := range entries {
		artifacts = append(artifacts, domain.Artifact{
			Name:       entry.Name,
			Kind:       domain.ArtifactKind(entry.Kind),
			ContentURL: entry.contentURL(),
		})
	}
	return artifacts, nil
}

// Transcribe issues one synchronous fast-transcription request. The
// audio argument may be nil when the definition points at a remote
// audio URL instead.
func (c *Client) Transcribe(
	ctx context.Context,
	definition TranscribeDefinition,
	audio []byte,
	filename string,
) (*domain.Transcript, error) {
	encodedDefinition, err := json.Marshal(definition)
	if err != nil {
		return nil, fmt.Errorf("marshal transcription definition: %w", err)
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	if err := writer.WriteField("definition", string(encodedDefinition)); err != nil {
		return nil, fmt.Errorf("write definition part: %w", err)
	}
	if audio != nil {
		if filename == "" {
			filename = "audio"
		}
		part, err := writer.CreateFormFile("audio", filename)
		if err != nil {
			return nil, fmt.Errorf("create audio part: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return nil, fmt.Errorf("write audio part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	target := c.fastURL() + "?api-version=" + url.QueryEscape(c.fastAPIVersion)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(buffer.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create transcription request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(request)

	response, err := c.executor.Do(ctx, request, c.retry)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newAPIError(response.StatusCode, body)
	}

	var result transcribeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return result.transcript(), nil
}

func newAPIError(status int, body []byte) *APIError {
	message := strings.TrimSpace(string(body))
	if len(message) > 700 {
		message = message[:700]
	}
	return &APIError{StatusCode: status, Body: message}
}
