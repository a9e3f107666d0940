package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Sample is one value of a matrix cell ready to be sent to Victoria Metrics.
type Sample struct {
	Timestamp int64 // unix milliseconds
	Latitude  float64
	Longitude float64
	Value     float64
}

// Client is a Victoria Metrics client capable of inserting matrix samples via
// various protocols.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	breaker      *gobreaker.CircuitBreaker
	insertURL    string
	metricPrefix string
	apiPath      string
}

const metricPrefixRE = "^[a-zA-Z0-9]+$"

var metricPrefixMatcher = regexp.MustCompile(metricPrefixRE)

// ErrUnexpectedStatus is returned when Victoria Metrics rejects an insert.
var ErrUnexpectedStatus = errors.New("unexpected status")

// NewClient creates a new VM client.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string) (*Client, error) {
	u, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}
	if !metricPrefixMatcher.MatchString(metricPrefix) {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}
	if _, ok := recToTextFuncs[u.Path]; !ok {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "victoria-metrics",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
		insertURL:    u.String(),
		metricPrefix: metricPrefix,
		apiPath:      u.Path,
	}, nil
}

// Insert inserts samples of variable into Victoria Metrics.
func (c *Client) Insert(ctx context.Context, variable string, samples []Sample) error {
	insertURL, err := c.urlFor(variable)
	if err != nil {
		return err
	}
	body := samplesToText(samples, c.metricName(variable), recToTextFuncs[c.apiPath])

	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, insertURL, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "text/plain")
		res, err := c.httpCli.Do(req)
		if err != nil {
			return nil, fmt.Errorf("post data: %w", err)
		}
		defer res.Body.Close()
		if _, err := io.Copy(io.Discard, res.Body); err != nil {
			c.logger.Error("Failed to drain response body", "err", err)
		}
		if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
		}
		return nil, nil
	})
	return err
}

func (c *Client) metricName(variable string) string {
	return c.metricPrefix + "_" + strings.ToLower(variable)
}

// urlFor adds the query parameters the target API needs for variable.
func (c *Client) urlFor(variable string) (string, error) {
	params := apiParamsFuncs[c.apiPath]
	if params == nil {
		return c.insertURL, nil
	}
	u, err := url.Parse(c.insertURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for name, value := range params(c.metricName(variable)) {
		q.Set(name, value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type apiParamsFunc func(string) map[string]string

var apiParamsFuncs = map[string]apiParamsFunc{
	"/api/v1/import/csv": csvAPIParams,
}

func csvAPIParams(metric string) map[string]string {
	return map[string]string{
		"format": "1:time:unix_ms,2:label:la,3:label:lo,4:metric:" + metric,
	}
}

type recToTextFunc func(*strings.Builder, *Sample, string)

// samplesToText converts multiple samples to text.
func samplesToText(samples []Sample, metric string, recToText recToTextFunc) io.Reader {
	var sb strings.Builder
	for i := range samples {
		recToText(&sb, &samples[i], metric)
		sb.WriteString("\n")
	}
	return strings.NewReader(sb.String())
}

var recToTextFuncs = map[string]recToTextFunc{
	"/influx/write":        recToInfluxDB,
	"/influx/api/v2/write": recToInfluxDB,
	"/write":               recToInfluxDB,
	"/api/v2/write":        recToInfluxDB,
	"/api/v1/import/csv":   recToCSV,
}

// recToInfluxDB converts a sample into InfluxDB line protocol and appends it
// to the string builder.
func recToInfluxDB(sb *strings.Builder, s *Sample, metric string) {
	fmt.Fprintf(sb, "%s,la=%.3f,lo=%.3f value=%g %d", metric, s.Latitude, s.Longitude, s.Value, s.Timestamp*int64(time.Millisecond))
}

// recToCSV converts a sample into a CSV record and appends it to the string
// builder.
func recToCSV(sb *strings.Builder, s *Sample, _ string) {
	fmt.Fprintf(sb, "%d,%.3f,%.3f,%g", s.Timestamp, s.Latitude, s.Longitude, s.Value)
}
