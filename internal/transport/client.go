package transport

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dharmasatrya/flightscrape/internal/models"
	"github.com/dharmasatrya/flightscrape/internal/telemetry"
)

var tracer = otel.Tracer("flightscrape.internal.transport")

// Client performs a single HTTP GET and returns the decoded body. Failures
// are *models.ScrapeError with reason Timeout or NavigationFailed.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (string, error)
}

type Timeouts struct {
	Connect  time.Duration
	Response time.Duration
	Body     time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect:  30 * time.Second,
		Response: 30 * time.Second,
		Body:     15 * time.Second,
	}
}

type RestyClient struct {
	http     *resty.Client
	timeouts Timeouts
	logger   *slog.Logger
}

func NewRestyClient(timeouts Timeouts, tel telemetry.API, logger *slog.Logger) *RestyClient {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeouts.Connect}).DialContext,
		TLSHandshakeTimeout:   timeouts.Connect,
		ResponseHeaderTimeout: timeouts.Response,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	})
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if tel != nil {
		telemetry.InstrumentResty(client, telemetry.NewScopedAPI("transport", tel))
	}

	return &RestyClient{
		http:     client,
		timeouts: timeouts,
		logger:   logger,
	}
}

func (c *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (string, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make fetch request")
		return "", classify(ctx, err, "request to upstream failed")
	}

	raw := res.RawBody()
	defer raw.Close()

	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.StatusCode() >= http.StatusBadRequest {
		err := fmt.Errorf("upstream returned %s", res.Status())
		span.SetStatus(codes.Error, err.Error())
		return "", models.NewNavigationFailed(err.Error(), nil)
	}

	body, err := c.readBody(raw, res.Header().Get("Content-Encoding"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read body")
		return "", err
	}

	c.logger.DebugContext(ctx, "fetched upstream page",
		"status", res.StatusCode(),
		"size", humanize.Bytes(uint64(len(body))),
		"elapsed", time.Since(start).String(),
	)
	return body, nil
}

// readBody enforces the body timeout by closing the stream when it fires.
func (c *RestyClient) readBody(raw io.ReadCloser, encoding string) (string, error) {
	var timedOut atomic.Bool
	if c.timeouts.Body > 0 {
		timer := time.AfterFunc(c.timeouts.Body, func() {
			timedOut.Store(true)
			raw.Close()
		})
		defer timer.Stop()
	}

	var reader io.Reader = raw
	if strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
		gz, err := gzip.NewReader(raw)
		if err != nil {
			if timedOut.Load() {
				return "", models.NewTimeout("timed out reading upstream body", err)
			}
			return "", models.NewNavigationFailed("upstream sent an invalid gzip body", err)
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		if timedOut.Load() {
			return "", models.NewTimeout("timed out reading upstream body", err)
		}
		return "", models.NewNavigationFailed("failed to read upstream body", err)
	}
	return string(data), nil
}

func classify(ctx context.Context, err error, message string) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return models.NewCancelled(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewTimeout("upstream did not respond in time", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return models.NewTimeout("upstream did not respond in time", err)
	default:
		return models.NewNavigationFailed(message, err)
	}
}
