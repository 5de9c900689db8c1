package structuredefinition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/profilelink"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

var (
	// ErrUnexpectedStatus is returned when a profile server answers with anything but 200 OK.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrWrongResourceType is returned when a retrieved document is not a StructureDefinition.
	ErrWrongResourceType = errors.New("document is not a StructureDefinition")
)

// ClientConfig configures remote profile retrieval.
type ClientConfig struct {
	Timeout  time.Duration
	RetryMax int
}

// Client retrieves profile documents over HTTP.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client with a bounded timeout per attempt.
func NewClient(config ClientConfig, log zerolog.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.HTTPClient = &http.Client{
		Timeout: config.Timeout,
	}
	retryClient.Logger = leveledLogger{log: log}

	return &Client{
		httpClient: retryClient.StandardClient(),
		log:        log,
	}
}

// Fetch performs a GET on the JSON form of the given profile URL.
func (c *Client) Fetch(ctx context.Context, url string) (*Definition, error) {
	url = profilelink.DocumentURL(url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/fhir+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}

	definition, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if !definition.IsStructureDefinition() {
		return nil, fmt.Errorf("%w: GET %s returned a %q", ErrWrongResourceType, url, definition.ResourceType)
	}

	c.log.Debug().Str("url", url).Int("status", resp.StatusCode).Msg("GET request successful")
	return definition, nil
}

// leveledLogger routes retryablehttp diagnostics into zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
