package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Gateway defines the backend operations the reconciler consumes. It is
// implemented by *Client and can be replaced in tests.
type Gateway interface {
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, content, token string) (Post, error)
	UpdatePost(ctx context.Context, id int64, content, token string) (Post, error)
	DeletePost(ctx context.Context, id int64, token string) error
	Login(ctx context.Context, email, password string) (string, error)
	FetchSelf(ctx context.Context, token string) (Account, error)
	UpdateProfile(ctx context.Context, name, email, token string) (Account, error)
	Register(ctx context.Context, name, email, password string) (Account, error)
	RecoverPassword(ctx context.Context, email string) error
}

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Client talks to the feed backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultBaseURL   = "http://127.0.0.1:8000"
	defaultUserAgent = "chirp/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the given base URL. An empty value falls
// back to the local development backend.
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
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

// ListPosts retrieves the full feed, newest first. No auth required.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var posts []Post
	if err := c.doJSON(ctx, http.MethodGet, "/tweets/", nil, "", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a new post for the authenticated user.
func (c *Client) CreatePost(ctx context.Context, content, token string) (Post, error) {
	if c == nil {
		return Post{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"content": content}
	var post Post
	if err := c.doJSON(ctx, http.MethodPost, "/tweets/", body, token, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// UpdatePost replaces a post's content. The backend rejects non-owners.
func (c *Client) UpdatePost(ctx context.Context, id int64, content, token string) (Post, error) {
	if c == nil {
		return Post{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"content": content}
	var post Post
	path := "/tweets/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodPut, path, body, token, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// DeletePost removes a post. The backend answers 204 even for ids it no
// longer has, so a successful call always means the post is gone.
func (c *Client) DeletePost(ctx context.Context, id int64, token string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	path := "/tweets/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, token, nil)
}

// Login exchanges credentials for a bearer token. The endpoint speaks
// form-encoded OAuth2 password flow, with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/api/users/login"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "login", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", classifyStatus(resp.StatusCode, resp.Body)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", &AuthError{Detail: "login response carried no token"}
	}
	return payload.AccessToken, nil
}

// FetchSelf retrieves the identity behind a token.
func (c *Client) FetchSelf(ctx context.Context, token string) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("client is nil")
	}
	var account Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me", nil, token, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// UpdateProfile changes the authenticated user's name and email.
func (c *Client) UpdateProfile(ctx context.Context, name, email, token string) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"name": name, "email": email}
	var account Account
	if err := c.doJSON(ctx, http.MethodPut, "/api/users/me", body, token, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("client is nil")
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	var account Account
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/register", body, "", &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// RecoverPassword asks the backend to mail reset instructions.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body := map[string]string{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/api/users/recuperar-senha", body, "", nil)
}

// doJSON issues a request with an optional JSON body and bearer token,
// decoding the response into dest when dest is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, token string, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp.StatusCode, resp.Body)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyStatus maps an error response onto the error taxonomy, pulling the
// backend's optional "detail" field out of the body when present.
func classifyStatus(status int, body io.Reader) error {
	detail := readDetail(body)
	switch status {
	case http.StatusUnauthorized:
		return &AuthError{Detail: detail}
	case http.StatusForbidden:
		return &PermissionError{Detail: detail}
	default:
		return &ServerError{Status: status, Detail: detail}
	}
}

func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Detail)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
