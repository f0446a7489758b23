// Package zotero provides a LibraryClient adapter for the Zotero Web
// API (v3). It serves item metadata, attachment files and the library
// version counter.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.LibraryClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.zotero.org"
	DefaultTimeout  = 60 * time.Second
	DefaultPageSize = 100

	// The Zotero API asks clients to stay under a handful of
	// requests per second.
	DefaultRequestsPerSecond = 3

	apiVersion = "3"
)

// Config holds configuration for the Zotero client.
type Config struct {
	// APIKey is the Zotero API key (required for private libraries).
	APIKey string

	// LibraryID is the user or group library identifier (required).
	LibraryID string

	// LibraryType is "users" or "groups" (default: "users").
	LibraryType string

	// BaseURL is the API base URL (default: https://api.zotero.org).
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// PageSize is the pagination window (default: 100, API max).
	PageSize int

	// RequestsPerSecond throttles outgoing requests (default: 3).
	RequestsPerSecond float64
}

// Client talks to one Zotero library.
type Client struct {
	client   *http.Client
	limiter  *rate.Limiter
	baseURL  string
	apiKey   string
	prefix   string
	pageSize int
}

// NewClient creates a Zotero client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.LibraryID == "" {
		return nil, fmt.Errorf("zotero: library ID is required")
	}
	if cfg.LibraryType == "" {
		cfg.LibraryType = "users"
	}
	if cfg.LibraryType != "users" && cfg.LibraryType != "groups" {
		return nil, fmt.Errorf("zotero: library type must be users or groups, got %q", cfg.LibraryType)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		prefix:   fmt.Sprintf("/%s/%s", cfg.LibraryType, cfg.LibraryID),
		pageSize: cfg.PageSize,
	}, nil
}

// itemJSON is the Zotero item envelope.
type itemJSON struct {
	Key     string `json:"key"`
	Version int64  `json:"version"`
	Data    struct {
		ItemType     string   `json:"itemType"`
		Title        string   `json:"title"`
		ParentItem   string   `json:"parentItem"`
		ContentType  string   `json:"contentType"`
		Filename     string   `json:"filename"`
		Date         string   `json:"date"`
		AbstractNote string   `json:"abstractNote"`
		Archive      string   `json:"archive"`
		ArchiveLoc   string   `json:"archiveLocation"`
		Collections  []string `json:"collections"`
		Creators     []struct {
			CreatorType string `json:"creatorType"`
			FirstName   string `json:"firstName"`
			LastName    string `json:"lastName"`
			Name        string `json:"name"`
		} `json:"creators"`
		Tags []struct {
			Tag string `json:"tag"`
		} `json:"tags"`
	} `json:"data"`
}

// collectionJSON is the Zotero collection envelope.
type collectionJSON struct {
	Key  string `json:"key"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

// zoteroItemTypes maps Zotero item types onto the catalogue's open
// type set. Unmapped types pass through as-is.
var zoteroItemTypes = map[string]domain.ItemType{
	"book":             domain.ItemTypeBook,
	"bookSection":      domain.ItemTypeBook,
	"journalArticle":   domain.ItemTypeArticle,
	"magazineArticle":  domain.ItemTypeArticle,
	"newspaperArticle": domain.ItemTypeArticle,
	"hearing":          domain.ItemTypeHearing,
	"report":           domain.ItemTypeReport,
	"manuscript":       domain.ItemTypeManuscript,
	"document":         domain.ItemTypeDocument,
	"letter":           domain.ItemTypeDocument,
	"interview":        domain.ItemTypeInterview,
}

// ListItems returns items changed since the given library version.
// Attachments arrive as child items in the same listing and are folded
// into their parents; attachment-only changes surface the parent item.
func (c *Client) ListItems(ctx context.Context, sinceVersion int64) ([]domain.LibraryItem, error) {
	collections, err := c.collectionNames(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.listRaw(ctx, sinceVersion)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*domain.LibraryItem)
	var order []string
	attachments := make(map[string][]domain.Attachment)

	for _, it := range raw {
		if it.Data.ItemType == "attachment" {
			if it.Data.ParentItem == "" {
				continue
			}
			attachments[it.Data.ParentItem] = append(attachments[it.Data.ParentItem], domain.Attachment{
				Key:      it.Key,
				MIMEType: it.Data.ContentType,
				Filename: it.Data.Filename,
			})
			continue
		}

		item := &domain.LibraryItem{
			Key:             it.Key,
			Type:            mapItemType(it.Data.ItemType),
			Title:           it.Data.Title,
			Date:            it.Data.Date,
			Abstract:        it.Data.AbstractNote,
			Archive:         it.Data.Archive,
			ArchiveLocation: it.Data.ArchiveLoc,
			Version:         it.Version,
		}
		for _, creator := range it.Data.Creators {
			item.Authors = append(item.Authors, creatorName(creator.Name, creator.FirstName, creator.LastName))
		}
		for _, tag := range it.Data.Tags {
			item.Tags = append(item.Tags, tag.Tag)
		}
		for _, collKey := range it.Data.Collections {
			if name, ok := collections[collKey]; ok {
				item.Collections = append(item.Collections, name)
			}
		}
		items[it.Key] = item
		order = append(order, it.Key)
	}

	// A changed attachment whose parent was not itself modified still
	// has to reprocess the parent.
	for parentKey, atts := range attachments {
		item, ok := items[parentKey]
		if !ok {
			fetched, err := c.fetchItem(ctx, parentKey, collections)
			if err != nil {
				logger.Warn("Parent item %s not fetchable: %v", parentKey, err)
				continue
			}
			item = fetched
			items[parentKey] = item
			order = append(order, parentKey)
		}
		item.Attachments = append(item.Attachments, atts...)
	}

	out := make([]domain.LibraryItem, 0, len(order))
	for _, key := range order {
		sort.Slice(items[key].Attachments, func(i, j int) bool {
			return items[key].Attachments[i].Key < items[key].Attachments[j].Key
		})
		out = append(out, *items[key])
	}
	return out, nil
}

// AttachmentBytes fetches an attachment's file content.
func (c *Client) AttachmentBytes(ctx context.Context, itemKey, attachmentKey string) ([]byte, error) {
	resp, err := c.get(ctx, c.prefix+"/items/"+attachmentKey+"/file", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: attachment %s/%s", domain.ErrNotFound, itemKey, attachmentKey)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zotero: file request returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// CurrentVersion returns the library's version counter from the
// Last-Modified-Version header of a minimal request.
func (c *Client) CurrentVersion(ctx context.Context) (int64, error) {
	resp, err := c.get(ctx, c.prefix+"/items", url.Values{"limit": {"1"}, "format": {"json"}})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("zotero: version request returned status %d", resp.StatusCode)
	}
	version, err := strconv.ParseInt(resp.Header.Get("Last-Modified-Version"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("zotero: bad Last-Modified-Version header: %w", err)
	}
	return version, nil
}

// listRaw paginates the full item listing.
func (c *Client) listRaw(ctx context.Context, sinceVersion int64) ([]itemJSON, error) {
	var all []itemJSON
	start := 0
	for {
		params := url.Values{
			"format": {"json"},
			"limit":  {strconv.Itoa(c.pageSize)},
			"start":  {strconv.Itoa(start)},
		}
		if sinceVersion > 0 {
			params.Set("since", strconv.FormatInt(sinceVersion, 10))
		}

		resp, err := c.get(ctx, c.prefix+"/items", params)
		if err != nil {
			return nil, err
		}
		var page []itemJSON
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("zotero: decode items page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("zotero: items request returned status %d", resp.StatusCode)
		}

		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
		start += c.pageSize
	}
}

// fetchItem retrieves a single parent item by key.
func (c *Client) fetchItem(ctx context.Context, key string, collections map[string]string) (*domain.LibraryItem, error) {
	resp, err := c.get(ctx, c.prefix+"/items/"+key, url.Values{"format": {"json"}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zotero: item request returned status %d", resp.StatusCode)
	}

	var it itemJSON
	if err := json.NewDecoder(resp.Body).Decode(&it); err != nil {
		return nil, fmt.Errorf("zotero: decode item: %w", err)
	}

	item := &domain.LibraryItem{
		Key:             it.Key,
		Type:            mapItemType(it.Data.ItemType),
		Title:           it.Data.Title,
		Date:            it.Data.Date,
		Abstract:        it.Data.AbstractNote,
		Archive:         it.Data.Archive,
		ArchiveLocation: it.Data.ArchiveLoc,
		Version:         it.Version,
	}
	for _, creator := range it.Data.Creators {
		item.Authors = append(item.Authors, creatorName(creator.Name, creator.FirstName, creator.LastName))
	}
	for _, tag := range it.Data.Tags {
		item.Tags = append(item.Tags, tag.Tag)
	}
	for _, collKey := range it.Data.Collections {
		if name, ok := collections[collKey]; ok {
			item.Collections = append(item.Collections, name)
		}
	}
	return item, nil
}

// collectionNames fetches the collection key -> name map.
func (c *Client) collectionNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	start := 0
	for {
		params := url.Values{
			"format": {"json"},
			"limit":  {strconv.Itoa(c.pageSize)},
			"start":  {strconv.Itoa(start)},
		}
		resp, err := c.get(ctx, c.prefix+"/collections", params)
		if err != nil {
			return nil, err
		}
		var page []collectionJSON
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("zotero: decode collections page: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("zotero: collections request returned status %d", resp.StatusCode)
		}

		for _, coll := range page {
			names[coll.Key] = coll.Data.Name
		}
		if len(page) < c.pageSize {
			return names, nil
		}
		start += c.pageSize
	}
}

// get issues one throttled API request.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("zotero: create request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zotero: request failed: %w", err)
	}
	return resp, nil
}

func mapItemType(zoteroType string) domain.ItemType {
	if t, ok := zoteroItemTypes[zoteroType]; ok {
		return t
	}
	return domain.ItemType(zoteroType)
}

func creatorName(full, first, last string) string {
	if full != "" {
		return full
	}
	if first == "" {
		return last
	}
	return first + " " + last
}
