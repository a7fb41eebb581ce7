// Package nitro drives a network appliance's NITRO REST configuration API.
// Every appliance object family goes through the same generic payload
// builder; the per-type knowledge lives entirely in the object table in
// objects.go. Authentication, TLS policy, pagination and retries all belong
// to the caller and the injected http.Client.
package nitro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/statesmith/statesmith/prometheus_metrics"
)

const (
	configBasePath = "/nitro/v1/config/"

	defaultTimeout = 30 * time.Second

	maxErrorBodySize = 4096
)

type Config struct {
	// Endpoint is the appliance base URL, e.g. "https://ns1.example.com".
	Endpoint string
	Username string
	Password string
	Timeout  time.Duration
}

type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
	logger     *logrus.Entry
	metrics    *prometheus_metrics.PrometheusMetrics
}

func New(cfg Config, logger *logrus.Entry, metrics *prometheus_metrics.PrometheusMetrics) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// SetHTTPClient swaps the underlying transport, for callers that need their
// own TLS or proxy setup.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// APIError is the appliance's error envelope, decoded from any non-2xx
// response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"errorcode"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("nitro: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("nitro: errorcode %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any, object string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("X-NITRO-USER", c.username)
	req.Header.Set("X-NITRO-PASS", c.password)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debugf("nitro request: %s %s", method, path)

	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		c.metrics.NitroRequestTimeHistogram.WithLabelValues(object, method).Observe(v)
	}))

	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()

	if err != nil {
		c.metrics.NitroRequestsCounter.WithLabelValues(object, method, "error").Inc()
		return err
	}
	defer resp.Body.Close()

	c.metrics.NitroRequestsCounter.WithLabelValues(object, method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return apiErr
	}

	if err := json.Unmarshal(data, apiErr); err != nil && len(data) > 0 {
		apiErr.Message = strings.TrimSpace(string(data))
	}

	return apiErr
}
