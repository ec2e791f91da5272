package commentary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sibexico/pagesim/replacement"
)

// Unavailable is delivered in place of commentary when the service fails
const Unavailable = "Error fetching AI feedback."

// DefaultTimeout bounds a single commentary request
const DefaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 1 << 20

// Request describes a finished simulation
type Request struct {
	Algorithm      replacement.Algorithm
	FrameCount     int
	PageReferences []int
	PageFaults     int

	// Comparison, when set, adds the other algorithms' fault counts
	Comparison *replacement.Comparison
}

// RequestFromResult builds a Request from a simulation result
func RequestFromResult(result *replacement.SimulationResult) Request {
	return Request{
		Algorithm:      result.Algorithm,
		FrameCount:     result.FrameCount,
		PageReferences: result.References,
		PageFaults:     result.TotalFaults,
	}
}

// Prompt renders the natural-language question sent to the service
func (r Request) Prompt() string {
	refs := make([]string, len(r.PageReferences))
	for i, page := range r.PageReferences {
		refs[i] = strconv.Itoa(page)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user has completed a page replacement simulation using the %s algorithm with %d frames and the page reference sequence %s. There were %d page faults.",
		r.Algorithm, r.FrameCount, strings.Join(refs, ", "), r.PageFaults)

	if r.Comparison != nil {
		b.WriteString(" For the same input, the algorithms produce these fault counts:")
		for i, entry := range r.Comparison.Results {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, " %s %d", entry.Algorithm, entry.Faults)
		}
		b.WriteByte('.')
	}

	b.WriteString(" Provide a simple explanation of the results and suggest if a different algorithm might perform better.")
	return b.String()
}

// Result is what RequestAsync delivers
type Result struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

type feedbackBody struct {
	Feedback string `json:"feedback"`
}

// Options configures a Client
type Options struct {
	Endpoint string
	Timeout  time.Duration
	Enabled  bool

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *replacement.Metrics
}

// OptionsFromConfig maps the commentary settings of a Config
func OptionsFromConfig(cfg *replacement.Config) Options {
	return Options{
		Endpoint: cfg.CommentaryEndpoint,
		Timeout:  cfg.CommentaryTimeout(),
		Enabled:  cfg.CommentaryEnabled,
	}
}

// Client talks to the external commentary service
type Client struct {
	endpoint   string
	enabled    bool
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *replacement.Metrics
}

// NewClient creates a commentary client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   opts.Endpoint,
		enabled:    opts.Enabled && opts.Endpoint != "",
		httpClient: httpClient,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Enabled reports whether requests are sent at all
func (c *Client) Enabled() bool {
	return c.enabled
}

// Generate asks the service for commentary and waits for the answer
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	const op = "Generate"

	if !c.enabled {
		return "", replacement.ErrCommentaryFailed(op, fmt.Errorf("commentary disabled"))
	}

	payload, err := json.Marshal(promptBody{Prompt: req.Prompt()})
	if err != nil {
		return "", replacement.ErrCommentaryFailed(op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", replacement.ErrCommentaryFailed(op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", replacement.ErrCommentaryFailed(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return "", replacement.ErrCommentaryFailed(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body feedbackBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return "", replacement.ErrCommentaryFailed(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return body.Feedback, nil
}

// RequestAsync fetches commentary on its own goroutine and hands the outcome
// to deliver exactly once. Failures are logged and delivered as Unavailable.
func (c *Client) RequestAsync(ctx context.Context, req Request, deliver func(Result)) {
	if deliver == nil {
		deliver = func(Result) {}
	}

	if !c.enabled {
		deliver(Result{Text: Unavailable})
		return
	}

	go func() {
		text, err := c.Generate(ctx, req)
		if err != nil {
			c.logger.Warn("commentary request failed",
				"algorithm", req.Algorithm,
				"endpoint", c.endpoint,
				"error", err)
			if c.metrics != nil {
				c.metrics.RecordCommentaryFailure()
			}
			deliver(Result{Text: Unavailable})
			return
		}
		deliver(Result{Text: text, Available: true})
	}()
}
