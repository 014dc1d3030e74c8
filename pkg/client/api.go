package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// History fetches one page of the caller's history.
func (c *Client) History(ctx context.Context, q HistoryQuery) (SearchPage, error) {
	v := pageValues(q.Page, q.Limit)
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Bookmarked {
		v.Set("bookmarked", "true")
	}
	var page SearchPage
	_, err := c.do(ctx, call{op: OpHistory, method: http.MethodGet, path: "/history", query: v, needAuth: true}, &page)
	return page, err
}

// Bookmarked fetches one page of bookmarked searches.
func (c *Client) Bookmarked(ctx context.Context, page, limit int) (SearchPage, error) {
	var out SearchPage
	_, err := c.do(ctx, call{
		op: OpBookmarked, method: http.MethodGet, path: "/history/bookmarked",
		query: pageValues(page, limit), needAuth: true,
	}, &out)
	return out, err
}

type deletedData struct {
	Deleted int `json:"deleted"`
}

// ClearHistory deletes every search of the caller. Irreversible.
func (c *Client) ClearHistory(ctx context.Context) (int, string, error) {
	var d deletedData
	msg, err := c.do(ctx, call{op: OpClearHistory, method: http.MethodDelete, path: "/history", needAuth: true}, &d)
	return d.Deleted, msg, err
}

// CleanupHistory prunes old non-bookmarked searches. Irreversible.
func (c *Client) CleanupHistory(ctx context.Context) (int, string, error) {
	var d deletedData
	msg, err := c.do(ctx, call{
		op: OpCleanupHistory, method: http.MethodDelete, path: "/history/cleanup", needAuth: true,
	}, &d)
	return d.Deleted, msg, err
}

type searchData struct {
	Search Search `json:"search"`
}

// Search executes a query. Without a token the result is not persisted and has no id.
func (c *Client) Search(ctx context.Context, in SearchInput) (Search, error) {
	var d searchData
	_, err := c.do(ctx, call{op: OpSearch, method: http.MethodPost, path: "/search", body: in}, &d)
	return d.Search, err
}

// GetSearch fetches one search with its full answer and sources.
func (c *Client) GetSearch(ctx context.Context, id string) (Search, error) {
	var d searchData
	_, err := c.do(ctx, call{op: OpGetSearch, method: http.MethodGet, path: searchPath(id), needAuth: true}, &d)
	return d.Search, err
}

// DeleteSearch deletes one search and drops it from every collection.
func (c *Client) DeleteSearch(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: OpDeleteSearch, method: http.MethodDelete, path: searchPath(id), needAuth: true}, nil)
	return err
}

type bookmarkData struct {
	IsBookmarked bool `json:"isBookmarked"`
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (c *Client) ToggleBookmark(ctx context.Context, id string) (bool, error) {
	var d bookmarkData
	_, err := c.do(ctx, call{
		op: OpToggleBookmark, method: http.MethodPut, path: searchPath(id) + "/bookmark", needAuth: true,
	}, &d)
	return d.IsBookmarked, err
}

// Collections fetches one page of collections with member counts.
func (c *Client) Collections(ctx context.Context, page, limit int) (CollectionPage, error) {
	var out CollectionPage
	_, err := c.do(ctx, call{
		op: OpListCollections, method: http.MethodGet, path: "/collections",
		query: pageValues(page, limit), needAuth: true,
	}, &out)
	return out, err
}

type collectionData struct {
	Collection Collection `json:"collection"`
}

type detailData struct {
	Collection CollectionDetail `json:"collection"`
}

// CreateCollection creates a collection. Name is required.
func (c *Client) CreateCollection(ctx context.Context, in CollectionInput) (Collection, error) {
	var d collectionData
	_, err := c.do(ctx, call{
		op: OpCreateCollection, method: http.MethodPost, path: "/collections", body: in, needAuth: true,
	}, &d)
	return d.Collection, err
}

// Collection fetches a collection with its member summaries.
func (c *Client) Collection(ctx context.Context, id string) (CollectionDetail, error) {
	var d detailData
	_, err := c.do(ctx, call{
		op: OpGetCollection, method: http.MethodGet, path: collectionPath(id), needAuth: true,
	}, &d)
	return d.Collection, err
}

// UpdateCollection applies a partial update.
func (c *Client) UpdateCollection(ctx context.Context, id string, in CollectionInput) (Collection, error) {
	var d collectionData
	_, err := c.do(ctx, call{
		op: OpUpdateCollection, method: http.MethodPut, path: collectionPath(id), body: in, needAuth: true,
	}, &d)
	return d.Collection, err
}

// DeleteCollection deletes a collection. Member searches are kept.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		op: OpDeleteCollection, method: http.MethodDelete, path: collectionPath(id), needAuth: true,
	}, nil)
	return err
}

type memberData struct {
	Changed bool `json:"changed"`
}

// AddToCollection adds a search to a collection. Adding a member twice is a no-op.
func (c *Client) AddToCollection(ctx context.Context, collectionID, searchID string) (Result, error) {
	var d memberData
	msg, err := c.do(ctx, call{
		op: OpAddMember, method: http.MethodPost, path: collectionPath(collectionID) + "/searches",
		body: map[string]string{"searchId": searchID}, needAuth: true,
	}, &d)
	return Result{Message: msg, Changed: d.Changed}, err
}

// RemoveFromCollection removes a search from a collection.
func (c *Client) RemoveFromCollection(ctx context.Context, collectionID, searchID string) (Result, error) {
	var d memberData
	msg, err := c.do(ctx, call{
		op: OpRemoveMember, method: http.MethodDelete,
		path:     collectionPath(collectionID) + "/searches/" + pathSegment(searchID),
		needAuth: true,
	}, &d)
	return Result{Message: msg, Changed: d.Changed}, err
}

func pageValues(page, limit int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func searchPath(id string) string { return "/search/" + pathSegment(id) }

func collectionPath(id string) string { return "/collections/" + pathSegment(id) }

// pathSegment escapes an id so it stays a single path segment.
func pathSegment(id string) string {
	if id == "." || id == ".." {
		return strings.ReplaceAll(id, ".", "%2E")
	}
	return url.PathEscape(id)
}
