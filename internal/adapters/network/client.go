package network

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRatePerSec = 50
	defaultBurst      = 20

	// Tope de body que se lee a memoria; los assets del precache son chicos.
	maxBodyBytes = 16 << 20

	baseRetryWait = 250 * time.Millisecond
)

// Options configura el Client. Los campos en cero usan los defaults.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	// Retries es cuántas veces se reintenta un 429 o un error de transporte en un GET.
	Retries int
}

// Client es el único camino a la red del cache manager: net/http con rate limiting.
// Implementa ports.Fetcher.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	retries int
}

// NewClient crea un Client con las opciones dadas.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = defaultRatePerSec
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		retries: opts.Retries,
	}
}

// Fetch ejecuta req y lee la respuesta completa.
// Un status no-2xx no es error; solo lo son los fallos de transporte.
func (c *Client) Fetch(ctx context.Context, req *http.Request) (domain.CachedResponse, error) {
	retries := c.retries
	if req.Method != http.MethodGet && req.Method != "" {
		retries = 0 // el body de un POST no se puede reenviar
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.CachedResponse{}, fmt.Errorf("network.Fetch: rate limiter: %w: %w", domain.ErrNetworkFailure, err)
		}

		resp, err := c.do(ctx, req)
		if err != nil {
			lastErr = err
			if attempt < retries {
				c.sleep(ctx, attempt)
			}
			continue
		}

		if resp.Status == http.StatusTooManyRequests && attempt < retries {
			slog.Warn("rate limited by origin", "url", req.URL.String(), "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}
		return resp, nil
	}
	return domain.CachedResponse{}, fmt.Errorf("network.Fetch %s: %w: %w", req.URL, domain.ErrNetworkFailure, lastErr)
}

func (c *Client) do(ctx context.Context, req *http.Request) (domain.CachedResponse, error) {
	out := req.Clone(ctx)
	out.RequestURI = "" // requests del server no se pueden reenviar tal cual

	resp, err := c.http.Do(out)
	if err != nil {
		return domain.CachedResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.CachedResponse{}, fmt.Errorf("read body: %w", err)
	}

	return domain.CachedResponse{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
