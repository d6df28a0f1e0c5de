package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/pkg/errors"
)

const (
	// DefaultAPIVersion is the Shopify admin API version used when the
	// caller does not configure one.
	DefaultAPIVersion = "2024-01"

	authTimeout   = 30 * time.Second
	publicTimeout = 10 * time.Second

	// Some storefronts reject requests with default client identifiers,
	// so the public reader presents a browser user-agent.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var myshopifyNameRe = regexp.MustCompile(`(?:https?://)?([^/.]+)\.myshopify\.com`)

// Client talks to Shopify storefronts: the public products.json feed and the
// authenticated admin API. One client serves many stores; credentials come in
// per call via domain.StoreRef.
type Client struct {
	apiVersion   string
	adminClient  *http.Client
	publicClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a Shopify client for the given admin API version
func NewClient(apiVersion string, logger *zap.Logger) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiVersion:   apiVersion,
		adminClient:  &http.Client{Timeout: authTimeout},
		publicClient: &http.Client{Timeout: publicTimeout},
		logger:       logger,
	}
}

// NormalizeDomain trims whitespace, strips one trailing slash and prepends
// https:// when no scheme is present. Pure and idempotent.
func NormalizeDomain(domain string) string {
	normalized := strings.TrimSpace(domain)
	normalized = strings.TrimSuffix(normalized, "/")
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}
	return normalized
}

// IsMyshopifyDomain reports whether the domain is hosted under the reserved
// .myshopify.com platform suffix
func IsMyshopifyDomain(domain string) bool {
	return strings.Contains(strings.ToLower(domain), ".myshopify.com")
}

// AdminURL resolves the admin products endpoint for a store. For
// .myshopify.com domains the shop name is extracted and the canonical URL is
// rebuilt from it, discarding any extra path segments the caller passed in.
// Custom domains get the admin API path appended as-is; a wrong mapping there
// only surfaces as an HTTP failure at request time.
func (c *Client) AdminURL(domain string) (string, error) {
	normalized := NormalizeDomain(domain)
	if IsMyshopifyDomain(normalized) {
		m := myshopifyNameRe.FindStringSubmatch(normalized)
		if m == nil || m[1] == "" {
			return "", &errors.ErrDomainResolution{Domain: domain}
		}
		return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/products.json", m[1], c.apiVersion), nil
	}
	return fmt.Sprintf("%s/admin/api/%s/products.json", normalized, c.apiVersion), nil
}

// productsEnvelope is the products.json response shape shared by the public
// feed and the admin API
type productsEnvelope struct {
	Products []domain.Product `json:"products"`
}

// ScrapeProducts reads a storefront's public catalog feed without
// credentials. A response that parses but has no products key yields an empty
// slice, not an error.
func (c *Client) ScrapeProducts(ctx context.Context, storeDomain string) ([]domain.Product, error) {
	url := NormalizeDomain(storeDomain) + "/products.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.ErrRemoteStore{Op: "scrape", Store: storeDomain, Cause: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(c.publicClient, req)
	if err != nil {
		c.logger.Warn("Public catalog scrape failed", zap.String("domain", storeDomain), zap.Error(err))
		return nil, &errors.ErrRemoteStore{Op: "scrape", Store: storeDomain, Cause: err}
	}

	var envelope productsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &errors.ErrRemoteStore{Op: "scrape", Store: storeDomain, Cause: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if envelope.Products == nil {
		return []domain.Product{}, nil
	}
	return envelope.Products, nil
}

// FetchProducts reads a store's catalog through the authenticated admin API.
// All-or-nothing: any transport or non-2xx failure fails the whole read.
func (c *Client) FetchProducts(ctx context.Context, store domain.StoreRef) ([]domain.Product, error) {
	url, err := c.AdminURL(store.Domain)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.ErrRemoteStore{Op: "fetch", Store: store.Domain, Cause: err}
	}
	req.Header.Set("X-Shopify-Access-Token", store.AdminToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(c.adminClient, req)
	if err != nil {
		c.logger.Warn("Admin catalog fetch failed", zap.String("domain", store.Domain), zap.Error(err))
		return nil, &errors.ErrRemoteStore{Op: "fetch", Store: store.Domain, Cause: err}
	}

	var envelope productsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &errors.ErrRemoteStore{Op: "fetch", Store: store.Domain, Cause: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	if envelope.Products == nil {
		return []domain.Product{}, nil
	}
	return envelope.Products, nil
}

// UploadProduct creates a product on the destination store and returns the
// created-resource representation verbatim. Uploads never upsert: the
// destination assigns a fresh product ID every time.
func (c *Client) UploadProduct(ctx context.Context, store domain.StoreRef, product domain.Product) (json.RawMessage, error) {
	url, err := c.AdminURL(store.Domain)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(NewProductPayload(product))
	if err != nil {
		return nil, &errors.ErrRemoteStore{Op: "upload", Store: store.Domain, Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &errors.ErrRemoteStore{Op: "upload", Store: store.Domain, Cause: err}
	}
	req.Header.Set("X-Shopify-Access-Token", store.AdminToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(c.adminClient, req)
	if err != nil {
		c.logger.Warn("Product upload failed",
			zap.String("domain", store.Domain),
			zap.Int64("product_id", product.ID),
			zap.Error(err),
		)
		return nil, &errors.ErrRemoteStore{Op: "upload", Store: store.Domain, Cause: err}
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(hc *http.Client, req *http.Request) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("shopify API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
