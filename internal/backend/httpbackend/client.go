package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/config"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

// Client talks to the backend protocol served by internal/server.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *slog.Logger
}

var _ backend.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.NewComponentLogger(logger, "httpbackend") }
}

// New builds a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "httpbackend", "new client",
			fmt.Sprintf("invalid backend url %q", baseURL), err)
	}
	c := &Client{
		base:   parsed,
		http:   &http.Client{Timeout: 2 * time.Minute},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromConfig builds a client from the [backend] section.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	return New(cfg.Backend.URL,
		WithToken(cfg.Backend.APIToken),
		WithTimeout(cfg.BackendTimeout()),
		WithLogger(logger),
	)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Health queries the server health endpoint.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, "health", http.MethodGet, "/api/health", nil, "", &resp)
	return resp, err
}

// CreateJob creates a job.
func (c *Client) CreateJob(ctx context.Context, job backend.NewJob) (order.Job, error) {
	body, err := json.Marshal(api.CreateJobRequest{
		Address:  job.Address,
		Customer: job.Customer,
		Date:     api.FormatJobDate(job.Date),
	})
	if err != nil {
		return order.Job{}, err
	}
	var dto api.Job
	if err := c.do(ctx, "create job", http.MethodPost, "/api/jobs", bytes.NewReader(body), "application/json", &dto); err != nil {
		return order.Job{}, err
	}
	return decodeWith("create job", dto, api.ToJob)
}

// ListJobs lists all jobs.
func (c *Client) ListJobs(ctx context.Context) ([]order.Job, error) {
	var resp api.JobListResponse
	if err := c.do(ctx, "list jobs", http.MethodGet, "/api/jobs", nil, "", &resp); err != nil {
		return nil, err
	}
	jobs := make([]order.Job, 0, len(resp.Jobs))
	for _, dto := range resp.Jobs {
		job, err := decodeWith("list jobs", dto, api.ToJob)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// FetchJob loads a job with its directives and tour.
func (c *Client) FetchJob(ctx context.Context, jobID string) (backend.JobRecord, error) {
	var dto api.JobRecord
	if err := c.do(ctx, "fetch job", http.MethodGet, jobPath(jobID), nil, "", &dto); err != nil {
		return backend.JobRecord{}, err
	}
	return decodeWith("fetch job", dto, api.ToJobRecord)
}

// FetchStacks loads the authoritative assets and stacks of a job.
func (c *Client) FetchStacks(ctx context.Context, jobID string) (backend.StackSet, error) {
	var dto api.StackSet
	if err := c.do(ctx, "fetch stacks", http.MethodGet, jobPath(jobID)+"/stacks", nil, "", &dto); err != nil {
		return backend.StackSet{}, err
	}
	return decodeWith("fetch stacks", dto, func(d api.StackSet) (backend.StackSet, error) {
		return api.ToStackSet(jobID, d)
	})
}

// SaveAnnotation replaces the room type and comment of a stack.
func (c *Client) SaveAnnotation(ctx context.Context, jobID string, annotation order.Annotation) error {
	body, err := json.Marshal(api.AnnotationRequest{
		RoomType: string(annotation.RoomType),
		Comment:  annotation.Comment,
	})
	if err != nil {
		return err
	}
	p := jobPath(jobID) + "/stacks/" + url.PathEscape(annotation.StackID) + "/annotation"
	return c.do(ctx, "save annotation", http.MethodPut, p, bytes.NewReader(body), "application/json", nil)
}

// Commit sends the atomic commit payload.
func (c *Client) Commit(ctx context.Context, jobID string, req backend.CommitRequest) (backend.CommitResult, error) {
	body, err := json.Marshal(api.CommitRequest{
		Revision:   req.Revision,
		Directives: req.Directives,
		Tour:       req.Tour,
		Step:       int(req.Step),
		Locked:     req.Locked,
	})
	if err != nil {
		return backend.CommitResult{}, err
	}
	var dto api.CommitResponse
	if err := c.do(ctx, "commit", http.MethodPost, jobPath(jobID)+"/commit", bytes.NewReader(body), "application/json", &dto); err != nil {
		return backend.CommitResult{}, err
	}
	return decodeWith("commit", dto, api.ToCommitResult)
}

// Upload streams files as one multipart request.
func (c *Client) Upload(ctx context.Context, jobID string, files []backend.File) (backend.UploadResult, error) {
	if len(files) == 0 {
		return backend.UploadResult{}, nil
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	var dto api.UploadResponse
	err := c.do(ctx, "upload", http.MethodPost, jobPath(jobID)+"/assets", pr, mw.FormDataContentType(), &dto)
	_ = pr.Close()
	if err != nil {
		return backend.UploadResult{}, err
	}
	c.logger.Debug("batch uploaded",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("files", len(files)),
		logging.Int("uploaded", dto.UploadedCount),
	)
	return backend.UploadResult{UploadedCount: dto.UploadedCount, Duplicates: dto.Duplicates}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeParts(mw *multipart.Writer, files []backend.File) error {
	for _, file := range files {
		if file.Open == nil {
			return fmt.Errorf("file %s has no content", file.Name)
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			api.UploadField, quoteEscaper.Replace(file.Name)))
		contentType := file.MediaType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		if ts := api.FormatCaptureTime(file.CapturedAt); ts != "" {
			header.Set(api.CapturedAtHeader, ts)
		}
		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", file.Name, err)
		}
		_, err = io.Copy(part, rc)
		_ = rc.Close()
		if err != nil {
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}
	return mw.Close()
}

func jobPath(jobID string) string {
	return "/api/jobs/" + url.PathEscape(jobID)
}

func (c *Client) do(ctx context.Context, op, method, p string, body io.Reader, contentType string, out any) error {
	target := c.base.JoinPath(p)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return services.NewTransportError(op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return services.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var errResp api.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if len(raw) > 0 {
			if jsonErr := json.Unmarshal(raw, &errResp); jsonErr != nil {
				errResp.Error = strings.TrimSpace(string(raw))
			}
		}
		return api.ToError(op, resp.StatusCode, errResp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.NewTransportError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func decodeWith[D, T any](op string, dto D, convert func(D) (T, error)) (T, error) {
	v, err := convert(dto)
	if err != nil {
		var zero T
		return zero, services.NewTransportError(op, errors.Join(errors.New("malformed response"), err))
	}
	return v, nil
}
