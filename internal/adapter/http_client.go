package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/finsible/sync-core/models"
)

// HTTPClientConfig configures the shared resty client behind every
// remote entity service.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration

	// TransportRetries is the number of extra attempts on transport
	// failures (no response received). Responses, including 5xx, are
	// never retried here; that policy belongs to the queue driver.
	TransportRetries int
}

// Client wraps one resty client plus the transport retry policy.
type Client struct {
	http    *resty.Client
	retries uint64
	tokens  TokenProvider
}

// NewClient builds the shared HTTP client. tokens may be nil for
// unauthenticated use in tests.
func NewClient(cfg HTTPClientConfig, tokens TokenProvider) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.TransportRetries < 0 {
		cfg.TransportRetries = 0
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &Client{http: cli, retries: uint64(cfg.TransportRetries), tokens: tokens}
}

// NewServices wires one remote service per entity kind plus the
// snapshot endpoint, all sharing c.
func NewServices(c *Client) *Services {
	return &Services{
		Accounts:      &entityService[models.Account, models.AccountCreateRequest, models.AccountUpdateRequest]{c: c, base: "/api/accounts"},
		AccountGroups: &entityService[models.AccountGroup, models.AccountGroupCreateRequest, models.AccountGroupUpdateRequest]{c: c, base: "/api/account-groups"},
		Categories:    &entityService[models.Category, models.CategoryCreateRequest, models.CategoryUpdateRequest]{c: c, base: "/api/categories"},
		Transactions:  &entityService[models.Transaction, models.TransactionCreateRequest, models.TransactionUpdateRequest]{c: c, base: "/api/transactions"},
		Snapshot:      &snapshotService{c: c},
	}
}

// execute performs one HTTP call, retrying only transport-level
// failures with a bounded fibonacci backoff. Any received response is
// returned as-is for classification by the caller.
func (c *Client) execute(ctx context.Context, method, url string, body any) (*resty.Response, error) {
	var resp *resty.Response

	backoff := retry.WithMaxRetries(c.retries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json")
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.SetHeader("Authorization", "Bearer "+token)
			}
		}
		if body != nil {
			req.SetBody(body)
		}

		res, err := req.Execute(method, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = res
		return nil
	})
	if err != nil {
		return nil, NetworkError(err)
	}

	return resp, nil
}

// decodeEnvelope maps the HTTP status, unwraps the Response envelope,
// and surfaces success=false as a server error carrying the server's
// message.
func decodeEnvelope[T any](resp *resty.Response) (T, error) {
	var zero T

	if err := mapHTTPError(resp); err != nil {
		return zero, err
	}

	var env models.Response[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return zero, ServerError(resp.StatusCode(), fmt.Sprintf("malformed response body: %v", err))
	}
	if !env.Success {
		return zero, ServerError(resp.StatusCode(), env.Message)
	}
	if env.Data == nil {
		return zero, nil
	}

	return *env.Data, nil
}

type entityService[E any, CR any, UR any] struct {
	c    *Client
	base string
}

func (s *entityService[E, CR, UR]) Create(ctx context.Context, req CR) (E, error) {
	resp, err := s.c.execute(ctx, http.MethodPost, s.base, req)
	if err != nil {
		var zero E
		return zero, err
	}
	return decodeEnvelope[E](resp)
}

func (s *entityService[E, CR, UR]) Update(ctx context.Context, id int64, req UR) (E, error) {
	resp, err := s.c.execute(ctx, http.MethodPut, fmt.Sprintf("%s/%d", s.base, id), req)
	if err != nil {
		var zero E
		return zero, err
	}
	return decodeEnvelope[E](resp)
}

func (s *entityService[E, CR, UR]) Delete(ctx context.Context, id int64) error {
	resp, err := s.c.execute(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", s.base, id), nil)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope[struct{}](resp)
	return err
}

func (s *entityService[E, CR, UR]) List(ctx context.Context) ([]E, error) {
	resp, err := s.c.execute(ctx, http.MethodGet, s.base, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]E](resp)
}

type snapshotService struct {
	c *Client
}

func (s *snapshotService) GetSnapshot(ctx context.Context) (models.EntitySnapshot, error) {
	resp, err := s.c.execute(ctx, http.MethodGet, "/api/sync/snapshot", nil)
	if err != nil {
		return models.EntitySnapshot{}, err
	}
	return decodeEnvelope[models.EntitySnapshot](resp)
}
