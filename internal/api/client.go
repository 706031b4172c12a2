package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "MERCARI_HTTP_TIMEOUT"
)

// AddItemRequest describes a new listing. Image is optional; without it the
// server assigns the default image.
type AddItemRequest struct {
	Name          string
	Category      string
	Image         io.Reader
	ImageFilename string
}

// encode renders the request as the multipart form POST /items expects.
func (r AddItemRequest) encode() (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, value := range map[string]string{"name": r.Name, "category": r.Category} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, "", err
		}
	}
	if r.Image != nil {
		filename := r.ImageFilename
		if filename == "" {
			filename = "image.jpg"
		}
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, r.Image); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}

// Client calls the mercari HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL. The request timeout
// comes from MERCARI_HTTP_TIMEOUT.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := getJSON[HealthResponse](ctx, c, "/health", nil)
	return err
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	return getJSON[InfoResponse](ctx, c, "/v1/info", nil)
}

func (c *Client) AddItem(ctx context.Context, item AddItemRequest) (AddItemResponse, error) {
	var out AddItemResponse
	body, contentType, err := item.encode()
	if err != nil {
		return out, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/items", nil, body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", contentType)
	err = c.send(req, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	return out, err
}

func (c *Client) ListItems(ctx context.Context) ([]ItemResponse, error) {
	resp, err := getJSON[ItemListResponse](ctx, c, "/items", nil)
	return resp.Items, err
}

func (c *Client) GetItem(ctx context.Context, id int64) (ItemResponse, error) {
	return getJSON[ItemResponse](ctx, c, "/items/"+strconv.FormatInt(id, 10), nil)
}

// Search returns items whose name contains keyword. An empty keyword
// matches everything.
func (c *Client) Search(ctx context.Context, keyword string) ([]ItemResponse, error) {
	resp, err := getJSON[ItemListResponse](ctx, c, "/search", url.Values{"keyword": {keyword}})
	return resp.Items, err
}

func (c *Client) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	resp, err := getJSON[CategoryListResponse](ctx, c, "/categories", nil)
	return resp.Categories, err
}

// GetImage copies the named image to w and returns its content type.
func (c *Client) GetImage(ctx context.Context, name string, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/image/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return "", err
	}
	var contentType string
	err = c.send(req, func(resp *http.Response) error {
		contentType = resp.Header.Get("Content-Type")
		_, err := io.Copy(w, resp.Body)
		return err
	})
	return contentType, err
}

func getJSON[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return out, err
	}
	err = c.send(req, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	return out, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return http.NewRequestWithContext(ctx, method, endpoint, body)
}

// send performs req and hands successful responses to read. Responses with
// status 400 and above become *APIError.
func (c *Client) send(req *http.Request, read func(*http.Response) error) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	return read(resp)
}

// httpTimeoutFromEnv accepts Go durations ("45s") or whole seconds ("45").
func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		value += "s"
		if seconds <= 0 {
			return defaultHTTPTimeout
		}
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultHTTPTimeout
}
