// internal/clients/rest.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ticketsync/internal/logging"
)

// Options tune a client. Zero values are replaced with defaults.
type Options struct {
	HTTPClient *http.Client
	// RequestsPerSecond caps outbound calls; Burst allows short spikes.
	RequestsPerSecond float64
	Burst             int
	// Logger receives records the clients skip over.
	Logger logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 5
	}
	if o.Burst <= 0 {
		o.Burst = 10
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// rest is the JSON-over-HTTP core shared by the remote clients.
type rest struct {
	service   string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	tracer    trace.Tracer
	logger    logrus.FieldLogger
	authorize func(*http.Request)
}

func newRest(service, baseURL string, opts Options, authorize func(*http.Request)) rest {
	opts = opts.withDefaults()
	return rest{
		service:   service,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		tracer:    otel.Tracer("ticketsync/clients"),
		logger:    opts.Logger.WithField("service", service),
		authorize: authorize,
	}
}

type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	out     any
	timeout time.Duration
}

// do sends one request and decodes a 2xx JSON answer into c.out.
func (r rest) do(ctx context.Context, c call) error {
	ctx, span := r.tracer.Start(ctx, r.service+" "+c.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", c.method),
			attribute.String("remote.path", c.path),
		),
	)
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	target := r.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.authorize != nil {
		r.authorize(req)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s request: %w", r.service, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read body: %w", r.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Service: r.service, Status: resp.StatusCode, Message: errorMessage(raw)}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if c.out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, c.out); err != nil {
		return fmt.Errorf("%s decode response: %w", r.service, err)
	}
	return nil
}
