// Package gateway is the HTTP boundary to the product backend. Every
// failure that leaves this package has already been translated into its
// user-facing message; no raw transport error escapes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	ET "github.com/IBM/fp-go/v2/either"
	"github.com/IBM/fp-go/v2/function"
	IOE "github.com/IBM/fp-go/v2/ioeither"
	"github.com/IBM/fp-go/v2/retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bancalia/finconsole/packages/product_console/internal/config"
	"github.com/bancalia/finconsole/packages/product_console/internal/httperror"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

type Gateway struct {
	Cfg             config.Config
	Logger          *zap.SugaredLogger
	Tracer          trace.Tracer
	Meter           metric.Meter
	client          *http.Client
	base            string
	requestsTotal   metric.Int64Counter
	requestsFailed  metric.Int64Counter
	requestDuration metric.Int64Histogram
}

// response is one completed exchange: the status line and the drained
// body. A transport-level fault never produces a response.
type response struct {
	status     int
	statusText string
	body       []byte
}

func NewGateway(
	cfg config.Config,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Gateway, error) {
	g := &Gateway{
		Cfg:    cfg,
		Logger: logger,
		Tracer: tracer,
		Meter:  meter,
		client: &http.Client{Timeout: cfg.Server.Timeout},
		base:   cfg.Server.BaseURL,
	}

	var err error
	g.requestsTotal, err = meter.Int64Counter(
		"gateway.requests.total",
		metric.WithDescription("Total number of backend requests issued"),
	)
	if err != nil {
		return nil, err
	}

	g.requestsFailed, err = meter.Int64Counter(
		"gateway.requests.failed",
		metric.WithDescription("Number of backend requests that resolved as failures"),
	)
	if err != nil {
		return nil, err
	}

	g.requestDuration, err = meter.Int64Histogram(
		"gateway.request.duration",
		metric.WithDescription("Duration of individual backend requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// List fetches the whole catalog, unwrapping the {data: [...]} envelope.
func (g *Gateway) List(ctx context.Context) ([]models.Product, error) {
	ctx, span := g.Tracer.Start(ctx, "gateway.list")
	defer span.End()

	resp, err := g.getWithRetry(ctx, "list", g.base)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, g.fail(ctx, "list", resp)
	}
	var envelope models.ListResponse
	if err := json.Unmarshal(resp.body, &envelope); err != nil {
		g.Logger.Errorw("malformed list response", "err", err)
		return nil, httperror.Failure{Status: resp.status, StatusText: resp.statusText}.Err()
	}
	return envelope.Data, nil
}

// CheckUnique reports whether id is already taken. A 404 answer is not
// a failure: the identifier is unknown to the backend, so it is
// available.
func (g *Gateway) CheckUnique(ctx context.Context, id string) (bool, error) {
	ctx, span := g.Tracer.Start(ctx, "gateway.check_unique", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	endpoint := fmt.Sprintf("%s/verification?id=%s", g.base, url.QueryEscape(id))
	resp, err := g.getWithRetry(ctx, "check_unique", endpoint)
	if err != nil {
		return false, err
	}
	if resp.status == http.StatusNotFound {
		return false, nil
	}
	if resp.status < 200 || resp.status >= 300 {
		return false, g.fail(ctx, "check_unique", resp)
	}
	var exists bool
	if err := json.Unmarshal(resp.body, &exists); err != nil {
		return false, httperror.Failure{Status: resp.status, StatusText: resp.statusText}.Err()
	}
	return exists, nil
}

// Create posts a draft unchanged; the server decides the stored values.
func (g *Gateway) Create(ctx context.Context, draft models.Product) (*models.MutationResponse, error) {
	ctx, span := g.Tracer.Start(ctx, "gateway.create", trace.WithAttributes(
		attribute.String("product.id", draft.ID),
	))
	defer span.End()

	return g.mutate(ctx, "create", http.MethodPost, g.base, draft)
}

// Update puts a draft under an existing id. The identifier is immutable
// once a record exists, so it is stripped from the payload.
func (g *Gateway) Update(ctx context.Context, id string, draft models.Product) (*models.MutationResponse, error) {
	ctx, span := g.Tracer.Start(ctx, "gateway.update", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	payload := struct {
		Name         string      `json:"name"`
		Description  string      `json:"description"`
		Logo         string      `json:"logo"`
		DateRelease  models.Date `json:"date_release"`
		DateRevision models.Date `json:"date_revision"`
	}{draft.Name, draft.Description, draft.Logo, draft.DateRelease, draft.DateRevision}
	return g.mutate(ctx, "update", http.MethodPut, g.base+"/"+url.PathEscape(id), payload)
}

// Delete removes a record. The body of a successful delete is ignored.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	ctx, span := g.Tracer.Start(ctx, "gateway.delete", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	resp, err := g.roundTrip(ctx, "delete", http.MethodDelete, g.base+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status >= 300 {
		return g.fail(ctx, "delete", resp)
	}
	return nil
}

func (g *Gateway) mutate(ctx context.Context, op, method, endpoint string, payload any) (*models.MutationResponse, error) {
	resp, err := g.roundTrip(ctx, op, method, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, g.fail(ctx, op, resp)
	}
	var result models.MutationResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		g.Logger.Errorw("malformed mutation response", "op", op, "err", err)
		return nil, httperror.Failure{Status: resp.status, StatusText: resp.statusText}.Err()
	}
	return &result, nil
}

// getWithRetry wraps roundTrip in the retry policy for idempotent
// reads: only network-level faults (status 0) are retried, with
// exponential backoff up to server.max_retries. Mutations never go
// through here.
func (g *Gateway) getWithRetry(ctx context.Context, op, endpoint string) (*response, error) {
	policy := retry.Monoid.Concat(
		retry.LimitRetries(uint(g.Cfg.Server.MaxRetries)),
		retry.ExponentialBackoff(50*time.Millisecond),
	)
	action := func(_ retry.RetryStatus) IOE.IOEither[error, *response] {
		return IOE.TryCatchError(func() (*response, error) {
			return g.roundTrip(ctx, op, http.MethodGet, endpoint, nil)
		})
	}
	result := IOE.Retrying(policy, action, ET.Fold(
		func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			te, ok := err.(*httperror.TranslatedError)
			return ok && te.Status == 0
		},
		function.Constant1[*response](false),
	))()
	return ET.UnwrapError(result)
}

// roundTrip performs one exchange. A fault before any server answered
// is returned as an already-translated status-0 failure; everything
// else comes back as a response for the caller to classify.
func (g *Gateway) roundTrip(ctx context.Context, op, method, endpoint string, payload any) (*response, error) {
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("op", op))
	g.requestsTotal.Add(ctx, 1, attrs)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.requestsFailed.Add(ctx, 1, attrs)
		g.requestDuration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", "unreachable"),
		))
		g.Logger.Warnw("backend unreachable", "op", op, "err", err)
		return nil, httperror.Failure{Status: 0}.Err()
	}
	defer resp.Body.Close()

	drained, err := io.ReadAll(resp.Body)
	if err != nil {
		g.requestsFailed.Add(ctx, 1, attrs)
		return nil, httperror.Failure{Status: 0}.Err()
	}
	g.requestDuration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(
		attribute.String("op", op),
		attribute.Int("code", resp.StatusCode),
	))
	return &response{
		status:     resp.StatusCode,
		statusText: http.StatusText(resp.StatusCode),
		body:       drained,
	}, nil
}

func (g *Gateway) fail(ctx context.Context, op string, resp *response) error {
	g.requestsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.Int("code", resp.status),
	))
	err := httperror.Failure{
		Status:     resp.status,
		StatusText: resp.statusText,
		Body:       resp.body,
	}.Err()
	g.Logger.Warnw("backend request failed", "op", op, "code", resp.status, "msg", err.Error())
	return err
}
