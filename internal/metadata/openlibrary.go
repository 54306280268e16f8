package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const userAgent = "shelftrack/1.0 (https://github.com/shelftrack/shelftrack)"

// maxTags caps how many subject tags we keep from a lookup.
const maxTags = 10

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates an OpenLibrary API client with rate limiting.
// An empty baseURL falls back to the public API.
func NewOpenLibraryClient(baseURL string, timeout, rateInterval time.Duration) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		rateLimiter: newRateLimiter(rateInterval),
	}
}

// LookupByISBN resolves an ISBN to book metadata.
// Returns ErrNotFound when OpenLibrary has no record for the ISBN.
func (c *OpenLibraryClient) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, ErrNotFound
	}

	c.rateLimiter.wait()

	var book openLibraryBook
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn), &book)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("openlibrary: unexpected status %d", status)
	}

	meta := &BookMetadata{
		Title:     book.Title,
		ISBN:      isbn,
		PageCount: book.NumberOfPages,
		Synopsis:  descriptionText(book.Description),
		SourceKey: book.Key,
	}
	applySubjects(meta, book.Subjects)

	// The edition payload references authors by key only.
	if len(book.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, book.Authors[0].Key); err == nil {
			meta.Author = name
		}
	}

	return meta, nil
}

// LookupByTitleAuthor searches by title and author and returns the best match.
// Returns ErrNotFound when the search yields no documents.
func (c *OpenLibraryClient) LookupByTitleAuthor(ctx context.Context, title, author string) (*BookMetadata, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrNotFound
	}

	c.rateLimiter.wait()

	q := title
	if author != "" {
		q = title + " " + author
	}
	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=5", c.baseURL, url.QueryEscape(q))

	var result openLibrarySearchResult
	status, err := c.getJSON(ctx, searchURL, &result)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("openlibrary: unexpected status %d", status)
	}
	if len(result.Docs) == 0 {
		return nil, ErrNotFound
	}

	doc := bestMatch(result.Docs, title, author)

	meta := &BookMetadata{
		Title:     doc.Title,
		PageCount: doc.MedianPages,
		SourceKey: doc.Key,
	}
	if len(doc.AuthorName) > 0 {
		meta.Author = doc.AuthorName[0]
	}
	if len(doc.ISBN) > 0 {
		meta.ISBN = NormalizeISBN(doc.ISBN[0])
	}
	applySubjects(meta, doc.Subject)

	// Search docs often lack an ISBN; the cover edition usually has one.
	if meta.ISBN == "" && doc.CoverEditionKey != "" {
		if edition, err := c.fetchEdition(ctx, doc.CoverEditionKey); err == nil {
			mergeEdition(meta, edition)
		}
	}

	return meta, nil
}

// bestMatch scores search documents against the query, preferring exact
// title matches, matching authors and documents carrying ISBNs.
func bestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	var best *openLibrarySearchDoc
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		if strings.ToLower(doc.Title) == titleLower {
			score += 10
		} else if strings.Contains(strings.ToLower(doc.Title), titleLower) {
			score += 5
		}

		if author != "" {
			for _, docAuthor := range doc.AuthorName {
				if strings.ToLower(docAuthor) == authorLower {
					score += 10
					break
				} else if strings.Contains(strings.ToLower(docAuthor), authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}

		if score > bestScore {
			bestScore = score
			best = doc
		}
	}

	if best == nil {
		best = &docs[0]
	}
	return best
}

func (c *OpenLibraryClient) fetchEdition(ctx context.Context, editionKey string) (*openLibraryEdition, error) {
	c.rateLimiter.wait()

	var edition openLibraryEdition
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/books/%s.json", c.baseURL, editionKey), &edition)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("openlibrary: unexpected status %d", status)
	}
	return &edition, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}

	c.rateLimiter.wait()

	var author struct {
		Name string `json:"name"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s%s.json", c.baseURL, authorKey), &author)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("openlibrary: unexpected status %d", status)
	}
	return author.Name, nil
}

// getJSON performs a GET and decodes the body into out when the status is
// 200. Other statuses are returned undecoded for the caller to interpret.
func (c *OpenLibraryClient) getJSON(ctx context.Context, rawURL string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("openlibrary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func mergeEdition(meta *BookMetadata, edition *openLibraryEdition) {
	if meta.ISBN == "" {
		if len(edition.ISBN13) > 0 {
			meta.ISBN = NormalizeISBN(edition.ISBN13[0])
		} else if len(edition.ISBN10) > 0 {
			meta.ISBN = NormalizeISBN(edition.ISBN10[0])
		}
	}
	if meta.PageCount == 0 && edition.NumberOfPages > 0 {
		meta.PageCount = edition.NumberOfPages
	}
	if meta.Synopsis == "" {
		meta.Synopsis = descriptionText(edition.Description)
	}
}

// applySubjects maps OpenLibrary subjects onto genre and tags: the first
// subject becomes the genre, the rest become tags.
func applySubjects(meta *BookMetadata, subjects []string) {
	if len(subjects) == 0 {
		return
	}
	meta.Genre = subjects[0]
	rest := subjects[1:]
	if len(rest) > maxTags {
		rest = rest[:maxTags]
	}
	if len(rest) > 0 {
		meta.Tags = append([]string(nil), rest...)
	}
}

// descriptionText unwraps OpenLibrary's description field, which is either a
// bare string or a {type, value} object.
func descriptionText(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

// NormalizeISBN removes hyphens and spaces from an ISBN and rejects values
// that are not 10 or 13 characters long.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// OpenLibrary API response types (internal)

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // Can be string or {type, value}
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	AuthorName      []string `json:"author_name"`
	ISBN            []string `json:"isbn"`
	CoverEditionKey string   `json:"cover_edition_key"`
	Subject         []string `json:"subject"`
	MedianPages     int      `json:"number_of_pages_median"`
}

type openLibraryEdition struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	ISBN10        []string `json:"isbn_10"`
	ISBN13        []string `json:"isbn_13"`
	NumberOfPages int      `json:"number_of_pages"`
	Description   any      `json:"description"`
}

// Compile-time interface check
var _ Provider = (*OpenLibraryClient)(nil)
