// Package remote talks to the scraper service that drives the store websites.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
	"github.com/yungbote/frugalprotein-backend/internal/platform/envutil"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
	"github.com/yungbote/frugalprotein-backend/internal/scrape"
)

var ErrNotConfigured = errors.New("SCRAPER_BASE_URL is not set")

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	// MaxImageBytes caps product image downloads.
	MaxImageBytes int64
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:       strings.TrimRight(envutil.String("SCRAPER_BASE_URL", ""), "/"),
		Timeout:       envutil.Duration("SCRAPER_TIMEOUT", 90*time.Second),
		RetryCount:    envutil.Int("SCRAPER_RETRY_COUNT", 2),
		MaxImageBytes: int64(envutil.Int("SCRAPER_MAX_IMAGE_BYTES", 8<<20)),
	}
}

type Client struct {
	log  *logger.Logger
	http *resty.Client
	cfg  Config
}

var _ scrape.Scraper = (*Client)(nil)

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 8 << 20
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err == nil && res.StatusCode() >= http.StatusInternalServerError
		})
	instrument(client)

	return &Client{log: log.With("client", "ScraperService"), http: client, cfg: cfg}, nil
}

type pairDTO struct {
	Barcode  *string `json:"barcode"`
	StorePID string  `json:"store_pid"`
}

type identifiersPage struct {
	Pairs    []pairDTO `json:"pairs"`
	NextPage *int      `json:"next_page"`
}

type productDTO struct {
	Description *string               `json:"description"`
	Brand       *string               `json:"brand"`
	Qty         *types.QuantityGroup  `json:"qty"`
	Nutrition   *types.NutritionGroup `json:"nutrition"`
	Price       *types.PriceGroup     `json:"price"`
	ImageURL    string                `json:"image_url"`
}

type errorBody struct {
	Error string `json:"error"`
}

// ScrapeIdentifiers pages through the store's listing. Each page is one batch.
func (c *Client) ScrapeIdentifiers(ctx context.Context, store types.Store) iter.Seq2[[]types.IdentityPair, error] {
	return func(yield func([]types.IdentityPair, error) bool) {
		page := 1
		for {
			var body identifiersPage
			res, err := c.http.R().
				SetContext(ctx).
				SetPathParam("store", string(store)).
				SetQueryParam("page", strconv.Itoa(page)).
				SetResult(&body).
				SetError(&errorBody{}).
				Get("/v1/stores/{store}/identifiers")
			if err = responseError(res, err); err != nil {
				yield(nil, &scrape.ScrapeFailure{Store: store, Err: fmt.Errorf("page %d: %w", page, err)})
				return
			}

			batch := make([]types.IdentityPair, 0, len(body.Pairs))
			for _, p := range body.Pairs {
				batch = append(batch, types.IdentityPair{Barcode: p.Barcode, StorePID: p.StorePID})
			}
			c.log.Debug("Identifier page scraped", "store", store, "page", page, "pairs", len(batch))
			if len(batch) > 0 && !yield(batch, nil) {
				return
			}
			if body.NextPage == nil || *body.NextPage <= page {
				return
			}
			page = *body.NextPage
		}
	}
}

func (c *Client) ScrapeProductInfo(ctx context.Context, storePID string, store types.Store, opts scrape.InfoOptions) (types.InfoBundle, error) {
	req := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"store": string(store), "pid": storePID})
	if len(opts.Exclusive) > 0 {
		req.SetQueryParam("exclusive", strings.Join(opts.Exclusive, ","))
	}
	if len(opts.Exclude) > 0 {
		req.SetQueryParam("exclude", strings.Join(opts.Exclude, ","))
	}

	var body productDTO
	res, err := req.SetResult(&body).SetError(&errorBody{}).Get("/v1/stores/{store}/products/{pid}")
	if err = responseError(res, err); err != nil {
		return types.InfoBundle{}, &scrape.ScrapeFailure{Store: store, PID: storePID, Err: err}
	}

	bundle := types.InfoBundle{
		Description: body.Description,
		Brand:       body.Brand,
		Qty:         body.Qty,
		Nutrition:   body.Nutrition,
		Price:       body.Price,
	}
	if body.ImageURL != "" && opts.Wants(types.InfoKeyImage) {
		img, err := c.download(ctx, body.ImageURL)
		if err != nil {
			// The rest of the bundle is still worth merging.
			c.log.Warn("Product image download failed", "store", store, "pid", storePID, "error", err)
		} else {
			bundle.Image = img
		}
	}
	return opts.Filter(bundle), nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, err
	}
	raw := res.RawBody()
	defer raw.Close()
	if res.IsError() {
		return nil, fmt.Errorf("image download: status %d", res.StatusCode())
	}
	return readLimited(raw, c.cfg.MaxImageBytes)
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("image larger than %d bytes", max)
	}
	return data, nil
}

func responseError(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !res.IsError() {
		return nil
	}
	if e, ok := res.Error().(*errorBody); ok && e.Error != "" {
		return fmt.Errorf("scraper service: status %d: %s", res.StatusCode(), e.Error)
	}
	return fmt.Errorf("scraper service: status %d", res.StatusCode())
}

func instrument(client *resty.Client) {
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := observability.Tracer().Start(req.Context(), "scraper "+req.Method)
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()
		span.SetAttributes(
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
		)
		if res.IsError() {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
