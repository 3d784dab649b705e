package pantry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/larderhq/larder/internal/nutrient"
)

// API is the capability surface the controller needs from the product
// database. Implemented by *Client; fakes implement it in tests.
type API interface {
	FetchNutrientCatalog(ctx context.Context) ([]nutrient.Definition, error)
	FetchProduct(ctx context.Context, barcode string) (*ProductRecord, error)
	FetchNutrientMetadata(ctx context.Context) (NutrientMetadata, error)
	FetchImages(ctx context.Context, urls map[ImageField]string) (map[ImageField][]byte, error)
	SubmitProduct(ctx context.Context, fields map[string]string) error
	SubmitImage(ctx context.Context, up ImageUpload) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the pantry HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:8420"
	defaultUserAgent = "larder/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchNutrientCatalog retrieves the ordered nutrient taxonomy.
func (c *Client) FetchNutrientCatalog(ctx context.Context) ([]nutrient.Definition, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload nutrientCatalogResponse
	if err := c.get(ctx, "/api/v1/nutrients", &payload); err != nil {
		return nil, err
	}
	defs := make([]nutrient.Definition, 0, len(payload.Nutrients))
	for _, n := range payload.Nutrients {
		defs = append(defs, n.definition())
	}
	return defs, nil
}

// FetchProduct retrieves the record for barcode. A nil record with a nil
// error means the barcode is not in the database.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*ProductRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	code := strings.TrimSpace(barcode)
	if code == "" {
		return nil, fmt.Errorf("barcode required")
	}
	var payload productResponse
	if err := c.get(ctx, "/api/v1/product/"+url.PathEscape(code), &payload); err != nil {
		return nil, err
	}
	if payload.Status == 0 || payload.Product == nil {
		return nil, nil
	}
	return payload.Product, nil
}

// FetchNutrientMetadata retrieves per-nutrient display metadata.
func (c *Client) FetchNutrientMetadata(ctx context.Context) (NutrientMetadata, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload nutrientMetadataResponse
	if err := c.get(ctx, "/api/v1/nutrients/levels", &payload); err != nil {
		return nil, err
	}
	return payload.Levels, nil
}

// FetchImages downloads the given photo URLs concurrently. Fields that fail
// are omitted from the result; the aggregated error reports every failure.
// All downloads run to completion regardless of sibling failures.
func (c *Client) FetchImages(ctx context.Context, urls map[ImageField]string) (map[ImageField][]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var (
		mu     sync.Mutex
		images = make(map[ImageField][]byte, len(urls))
		errs   []error
		g      errgroup.Group
	)
	for field, imageURL := range urls {
		g.Go(func() error {
			data, err := c.download(ctx, imageURL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("image %s: %w", field, err))
				return nil
			}
			images[field] = data
			return nil
		})
	}
	_ = g.Wait()
	return images, errors.Join(errs...)
}

// SubmitProduct sends the composed key/value payload as one form-encoded
// product update.
func (c *Client) SubmitProduct(ctx context.Context, fields map[string]string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	body := strings.NewReader(values.Encode())
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/api/v1/product"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, "/api/v1/product")
}

// SubmitImage uploads one product photo as a multipart request.
func (c *Client) SubmitImage(ctx context.Context, up ImageUpload) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if len(up.Data) == 0 {
		return fmt.Errorf("image data required")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("code", up.Barcode); err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}
	if err := writer.WriteField("imagefield", string(up.Field)); err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}
	part, err := writer.CreateFormFile("imgupload_"+string(up.Field), string(up.Field)+".jpg")
	if err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}

	path := "/api/v1/product/" + url.PathEscape(up.Barcode) + "/images"
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, path)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(req *http.Request, path string) error {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s returned status %d", imageURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
