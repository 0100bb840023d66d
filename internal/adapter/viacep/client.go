// Package viacep resolves Brazilian postal codes through the ViaCEP web service.
package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

// DefaultBaseURL is the public ViaCEP host.
const DefaultBaseURL = "https://viacep.com.br"

// Client implements domain.AddressLookup using the ViaCEP JSON API.
// It never retries and never caches: every call queries the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a ViaCEP client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Lookup resolves an eight-digit postal code. The caller normalizes the code
// and only calls Lookup when it is eligible.
func (c *Client) Lookup(ctx context.Context, code string) domain.LookupResult {
	start := time.Now()
	addr, err := c.fetch(ctx, code)
	c.metrics.LookupAPIDuration.Observe(time.Since(start).Seconds())

	var result domain.LookupResult
	switch {
	case err == nil:
		result = domain.Found(addr)
	case errors.Is(err, domain.ErrLookupNotFound):
		result = domain.NotFound()
	default:
		c.logger.Warn("postal code lookup failed", "postal_code", code, "error", err)
		result = domain.TransportFailure(fmt.Errorf("%w: %w", domain.ErrLookupTransport, err))
	}
	c.metrics.LookupRequests.WithLabelValues(result.Status.String()).Inc()
	return result
}

func (c *Client) fetch(ctx context.Context, code string) (domain.Address, error) {
	u := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Address{}, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Address{}, fmt.Errorf("viacep API error: status %d: %s", resp.StatusCode, body)
	}

	var viaResp *response
	if err := json.NewDecoder(resp.Body).Decode(&viaResp); err != nil {
		return domain.Address{}, fmt.Errorf("decode response: %w", err)
	}
	if viaResp == nil {
		return domain.Address{}, errors.New("decode response: body is not a JSON object")
	}

	if viaResp.Erro {
		return domain.Address{}, domain.ErrLookupNotFound
	}

	return domain.Address{
		Street:   viaResp.Logradouro,
		District: viaResp.Bairro,
		City:     viaResp.Localidade,
		Region:   viaResp.UF,
	}, nil
}

// ViaCEP API response types.

type response struct {
	Logradouro string   `json:"logradouro"`
	Bairro     string   `json:"bairro"`
	Localidade string   `json:"localidade"`
	UF         string   `json:"uf"`
	Erro       erroFlag `json:"erro"`
}

// erroFlag marks a not-found reply. The service has sent both true and
// "true"; any truthy value counts, and only false, null, 0 and "" do not.
type erroFlag bool

func (f *erroFlag) UnmarshalJSON(b []byte) error {
	switch v := strings.TrimSpace(string(b)); {
	case v == "false", v == "null", v == `""`:
		*f = false
	case len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9')):
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("erro flag: %w", err)
		}
		*f = n != 0
	default:
		*f = true
	}
	return nil
}
