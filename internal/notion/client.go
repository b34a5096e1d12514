package notion

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	pageSize       = 100
)

// Client adapts notionapi to the calls used by the knowledge store. Every
// failure comes back as a *StoreError.
type Client struct {
	api    *notionapi.Client
	logger *zap.Logger
}

// NewClient creates a client for the Notion REST API. Empty baseURL and
// version fall back to the public endpoint and the pinned API version.
func NewClient(baseURL, token, version string, timeout time.Duration, logger *zap.Logger) *Client {
	if version == "" {
		version = DefaultVersion
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: newEndpoint(baseURL, version, http.DefaultTransport),
	}

	return &Client{
		api:    notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient)),
		logger: logger,
	}
}

func (c *Client) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return nil, c.fail("create page", err)
	}
	return page, nil
}

func (c *Client) RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	page, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, c.fail("retrieve page", err)
	}
	return page, nil
}

// AppendChildren appends blocks under parentID in the given order.
func (c *Client) AppendChildren(ctx context.Context, parentID string, children ...notionapi.Block) error {
	_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(parentID), &notionapi.AppendBlockChildrenRequest{
		Children: children,
	})
	if err != nil {
		return c.fail("append children", err)
	}
	return nil
}

// UpdateBlock replaces the type-specific body of a block.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, req *notionapi.BlockUpdateRequest) error {
	if _, err := c.api.Block.Update(ctx, notionapi.BlockID(blockID), req); err != nil {
		return c.fail("update block", err)
	}
	return nil
}

func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	if _, err := c.api.Block.Delete(ctx, notionapi.BlockID(blockID)); err != nil {
		return c.fail("delete block", err)
	}
	return nil
}

// ListChildren fetches one page of direct children. An empty cursor starts
// from the beginning.
func (c *Client) ListChildren(ctx context.Context, parentID, cursor string) (List[notionapi.Block], error) {
	resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(parentID), &notionapi.Pagination{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    pageSize,
	})
	if err != nil {
		return List[notionapi.Block]{}, c.fail("list children", err)
	}
	return List[notionapi.Block]{
		Results:    resp.Results,
		NextCursor: string(resp.NextCursor),
		HasMore:    resp.HasMore,
	}, nil
}

// QueryDatabase fetches one page of database rows.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, cursor string) (List[notionapi.Page], error) {
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    pageSize,
	})
	if err != nil {
		return List[notionapi.Page]{}, c.fail("query database", err)
	}
	return List[notionapi.Page]{
		Results:    resp.Results,
		NextCursor: string(resp.NextCursor),
		HasMore:    resp.HasMore,
	}, nil
}

// fail converts a notionapi error into a StoreError. API errors are
// classified by status; anything else never reached Notion and is transient.
func (c *Client) fail(op string, err error) error {
	se := &StoreError{Op: op, Kind: Transient, Err: err}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		se.Status = apiErr.Status
		se.Code = string(apiErr.Code)
		se.Message = apiErr.Message
		se.Kind = kindForStatus(apiErr.Status)
	}

	c.logger.Debug("Notion request failed",
		zap.String("op", op),
		zap.Int("status", se.Status),
		zap.String("code", se.Code),
		zap.Stringer("kind", se.Kind))
	return se
}

// endpoint sends requests to a base URL other than the public API and pins
// the Notion-Version header.
type endpoint struct {
	base    *url.URL
	version string
	next    http.RoundTripper
}

func newEndpoint(baseURL, version string, next http.RoundTripper) *endpoint {
	e := &endpoint{version: version, next: next}
	if baseURL != "" && strings.TrimRight(baseURL, "/") != DefaultBaseURL {
		if u, err := url.Parse(strings.TrimRight(baseURL, "/")); err == nil && u.Host != "" {
			e.base = u
		}
	}
	return e
}

func (e *endpoint) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if e.base != nil {
		req.URL.Scheme = e.base.Scheme
		req.URL.Host = e.base.Host
		req.URL.Path = e.base.Path + req.URL.Path
		req.URL.RawPath = ""
		req.Host = e.base.Host
	}
	req.Header.Set("Notion-Version", e.version)
	return e.next.RoundTrip(req)
}
