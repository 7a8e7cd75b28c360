package secrets

import (
	"context"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

// HTTPProvider fetches secrets from a KV-over-HTTP store: GET {base}/{name}
// with a bearer token, expecting either a raw value or {"value": "..."}.
type HTTPProvider struct {
	client  *fasthttp.Client
	baseURL string
	token   string
	timeout time.Duration
}

type HTTPProviderConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPProvider{
		client:  &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		timeout: timeout,
	}
}

func (p *HTTPProvider) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", crerr.New("secret name is required")
	}
	if p.baseURL == "" {
		return "", crerr.Wrap(ErrNotFound, "secret store base url is not configured")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.baseURL + "/" + url.PathEscape(name))
	req.Header.SetMethod(fasthttp.MethodGet)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return "", crerr.Wrapf(err, "fetch secret %s", name)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
		return parseSecretBody(resp.Body(), name)
	case fasthttp.StatusNotFound:
		return "", crerr.Wrapf(ErrNotFound, "secret store has no %s", name)
	default:
		return "", crerr.Newf("secret store returned status=%d for %s", resp.StatusCode(), name)
	}
}

func parseSecretBody(body []byte, name string) (string, error) {
	var wrapped struct {
		Value string `json:"value"`
	}
	if err := sonic.Unmarshal(body, &wrapped); err == nil && wrapped.Value != "" {
		return wrapped.Value, nil
	}

	value := strings.TrimSpace(string(body))
	if value == "" {
		return "", crerr.Wrapf(ErrNotFound, "secret %s is empty", name)
	}
	return value, nil
}
