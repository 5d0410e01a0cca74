// Package catalog wraps the OpenLibrary search API, the external book
// catalog this service delegates search to.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const searchLimit = 20

// Client calls the OpenLibrary API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SearchResult is one catalog hit, shaped like the POST /user-books request
// body so a client can pass it straight through.
type SearchResult struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	OLID          string `json:"olid"`
	CoverImageURL string `json:"coverImageURL"`
}

// searchResponse mirrors the fields requested from search.json.
type searchResponse struct {
	Docs []struct {
		Key        string   `json:"key"`
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
		CoverID    int64    `json:"cover_i"`
	} `json:"docs"`
}

// Search queries the catalog by title and maps the hits to add-book fields:
// the OLID comes from the work key, the cover URL from the numeric cover id.
func (c *Client) Search(ctx context.Context, title string) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search.json?title=%s&limit=%d&fields=key,title,author_name,cover_i",
		c.baseURL, url.QueryEscape(title), searchLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openlibrary search returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		coverImageURL := ""
		if doc.CoverID != 0 {
			coverImageURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverID)
		}
		results = append(results, SearchResult{
			Title:         doc.Title,
			Authors:       strings.Join(doc.AuthorName, ", "),
			OLID:          strings.TrimPrefix(doc.Key, "/works/"),
			CoverImageURL: coverImageURL,
		})
	}
	return results, nil
}
