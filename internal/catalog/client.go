// Package catalog is a thin client for the ScienceBase catalog REST API plus
// the model-catalog operations built on it.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"modelcat/internal/models"
	"modelcat/pkg/logger"
)

var ErrStatus = errors.New("catalog: unexpected status")

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithToken sends an Authorization bearer token on every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logger.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Query selects items for FindItems.
type Query struct {
	ParentID string
	Fields   []string
	Lucene   string
	Max      int
}

func (q Query) values() url.Values {
	v := url.Values{"format": {"json"}}
	if q.ParentID != "" {
		v.Set("parentId", q.ParentID)
	}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(q.Fields, ","))
	}
	if q.Lucene != "" {
		v.Set("lq", q.Lucene)
	}
	if q.Max > 0 {
		v.Set("max", strconv.Itoa(q.Max))
	}
	return v
}

// Page is one page of search results. NextLink is empty on the last page.
type Page struct {
	Total    int
	Items    []models.CatalogEntry
	NextLink string
	raw      []item
}

type link struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

type item struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Link        *link            `json:"link,omitempty"`
	HasChildren bool             `json:"hasChildren"`
	WebLinks    []models.WebLink `json:"webLinks"`
	Contacts    []models.Contact `json:"contacts"`
	Tags        []models.Tag     `json:"tags"`
}

func (it item) entry() models.CatalogEntry {
	e := models.CatalogEntry{
		ID:       it.ID,
		Title:    it.Title,
		WebLinks: it.WebLinks,
		Contacts: it.Contacts,
		Tags:     it.Tags,
	}
	if e.WebLinks == nil {
		e.WebLinks = []models.WebLink{}
	}
	if it.Link != nil {
		e.CatalogURL = it.Link.URL
	}
	return e
}

type pageBody struct {
	Total    int    `json:"total"`
	Items    []item `json:"items"`
	NextLink *link  `json:"nextlink,omitempty"`
}

func (c *Client) FindItems(ctx context.Context, q Query) (*Page, error) {
	return c.getPage(ctx, c.baseURL+"/items?"+q.values().Encode())
}

// Next fetches the page after p, or returns nil when p is the last page.
func (c *Client) Next(ctx context.Context, p *Page) (*Page, error) {
	if p == nil || p.NextLink == "" {
		return nil, nil
	}
	return c.getPage(ctx, p.NextLink)
}

// Walk calls fn for every page matching q.
func (c *Client) Walk(ctx context.Context, q Query, fn func(*Page) error) error {
	page, err := c.FindItems(ctx, q)
	for page != nil && err == nil {
		if err = fn(page); err != nil {
			return err
		}
		page, err = c.Next(ctx, page)
	}
	return err
}

func (c *Client) getPage(ctx context.Context, u string) (*Page, error) {
	var body pageBody
	if err := c.do(ctx, http.MethodGet, u, nil, &body); err != nil {
		return nil, err
	}
	p := &Page{Total: body.Total, raw: body.Items}
	for _, it := range body.Items {
		p.Items = append(p.Items, it.entry())
	}
	if body.NextLink != nil {
		p.NextLink = body.NextLink.URL
	}
	return p, nil
}

// CreateItem posts entry and returns the stored item.
func (c *Client) CreateItem(ctx context.Context, entry models.CatalogEntry) (models.CatalogEntry, error) {
	var created item
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/item", entry, &created); err != nil {
		return models.CatalogEntry{}, err
	}
	return created.entry(), nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/item/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteItems(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := c.DeleteItem(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ChildIDs lists the ids of every direct child of id.
func (c *Client) ChildIDs(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := c.Walk(ctx, Query{ParentID: id, Fields: []string{"id"}, Max: 1000}, func(p *Page) error {
		for _, e := range p.Items {
			ids = append(ids, e.ID)
		}
		return nil
	})
	return ids, err
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("catalog: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s %s: %w", method, u, err)
	}
	defer resp.Body.Close()
	c.log.Debugf("catalog %s %s -> %d (%s)", method, u, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d for %s %s: %s", ErrStatus, resp.StatusCode, method, u, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", u, err)
	}
	return nil
}
