// Package notion is a minimal client for the parts of the Notion REST API needed to read page trees.
package notion

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

const (
	defaultAPIBaseURL         = "https://api.notion.com"
	defaultNotionVersion      = "2022-06-28"
	defaultUserAgent          = "pagegen-notion-client"
	defaultAPITimeout         = 30 * time.Second
	headerAuthorization       = "Authorization"
	headerAccept              = "Accept"
	headerContentType         = "Content-Type"
	headerUserAgent           = "User-Agent"
	headerNotionVersion       = "Notion-Version"
	mimeTypeJSON              = "application/json"
	authorizationBearerPrefix = "Bearer "
	pagesPathFormat           = "/v1/pages/%s"
	blockChildrenPathFormat   = "/v1/blocks/%s/children"
	searchPath                = "/v1/search"
	pageSizeParameter         = "page_size"
	errorBodyLimit            = 8 * 1024
	searchFilterProperty      = "object"
	searchFilterValue         = "page"
	searchSortDirection       = "descending"
	searchSortTimestamp       = "last_edited_time"

	// MaxPageSize is the largest number of blocks the API returns in one response.
	MaxPageSize = 100
)

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Client issues authenticated requests against the Notion API.
type Client struct {
	client                   httpClient
	apiBase                  string
	userAgent                string
	notionVersion            string
	timeout                  time.Duration
	authorizationHeaderValue string
}

// NewClient creates a Client. A nil httpClient selects a default client with a timeout.
func NewClient(client httpClient) Client {
	if client == nil {
		client = &http.Client{Timeout: defaultAPITimeout}
	}
	return Client{
		client:        client,
		apiBase:       defaultAPIBaseURL,
		userAgent:     defaultUserAgent,
		notionVersion: defaultNotionVersion,
	}
}

func (client Client) WithAPIBase(base string) Client {
	if strings.TrimSpace(base) == "" {
		return client
	}
	client.apiBase = strings.TrimRight(strings.TrimSpace(base), "/")
	return client
}

func (client Client) WithUserAgent(agent string) Client {
	if agent == "" {
		return client
	}
	client.userAgent = agent
	return client
}

func (client Client) WithNotionVersion(version string) Client {
	if strings.TrimSpace(version) == "" {
		return client
	}
	client.notionVersion = strings.TrimSpace(version)
	return client
}

// WithTimeout bounds every request, including reading its response body. The injected HTTP client is left
// untouched; the limit is applied through the request context.
func (client Client) WithTimeout(duration time.Duration) Client {
	if duration <= 0 {
		return client
	}
	client.timeout = duration
	return client
}

// WithAuthorizationToken configures the integration token sent with every request.
func (client Client) WithAuthorizationToken(token string) Client {
	client.authorizationHeaderValue = formatAuthorizationHeaderValue(token)
	return client
}

// HasCredential reports whether an integration token is configured.
func (client Client) HasCredential() bool {
	return client.authorizationHeaderValue != ""
}

// RetrievePage fetches the metadata of one page.
func (client Client) RetrievePage(ctx context.Context, pageID string) (Page, error) {
	trimmedID := strings.TrimSpace(pageID)
	if trimmedID == "" {
		return Page{}, errMissingObjectID
	}
	var payload rawPage
	requestPath := fmt.Sprintf(pagesPathFormat, url.PathEscape(trimmedID))
	if requestErr := client.doJSON(ctx, http.MethodGet, requestPath, nil, nil, &payload); requestErr != nil {
		return Page{}, fmt.Errorf("retrieve page %s: %w", trimmedID, requestErr)
	}
	return payload.toPage(), nil
}

// ListBlocks returns the first page of child blocks of the given block or page.
// Continuation cursors are not followed. pageSize is clamped to 1..MaxPageSize, zero selects MaxPageSize.
func (client Client) ListBlocks(ctx context.Context, blockID string, pageSize int) ([]Block, error) {
	trimmedID := strings.TrimSpace(blockID)
	if trimmedID == "" {
		return nil, errMissingObjectID
	}
	query := url.Values{}
	query.Set(pageSizeParameter, strconv.Itoa(normalizePageSize(pageSize)))

	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	requestPath := fmt.Sprintf(blockChildrenPathFormat, url.PathEscape(trimmedID))
	if requestErr := client.doJSON(ctx, http.MethodGet, requestPath, query, nil, &payload); requestErr != nil {
		return nil, fmt.Errorf("list blocks of %s: %w", trimmedID, requestErr)
	}
	blocks := make([]Block, 0, len(payload.Results))
	for _, rawResult := range payload.Results {
		blocks = append(blocks, DecodeBlock(rawResult))
	}
	return blocks, nil
}

// SearchPages lists the pages shared with the integration, most recently edited first.
func (client Client) SearchPages(ctx context.Context) ([]PageSummary, error) {
	requestBody := map[string]interface{}{
		"filter": map[string]string{"property": searchFilterProperty, "value": searchFilterValue},
		"sort":   map[string]string{"direction": searchSortDirection, "timestamp": searchSortTimestamp},
	}
	var payload struct {
		Results []rawPage `json:"results"`
	}
	if requestErr := client.doJSON(ctx, http.MethodPost, searchPath, nil, requestBody, &payload); requestErr != nil {
		return nil, fmt.Errorf("search pages: %w", requestErr)
	}
	summaries := make([]PageSummary, 0, len(payload.Results))
	for _, result := range payload.Results {
		page := result.toPage()
		summaries = append(summaries, PageSummary{
			ID:         page.ID,
			Title:      page.Title(),
			Icon:       page.Icon,
			LastEdited: page.LastEditedTime,
			URL:        page.URL,
		})
	}
	return summaries, nil
}

func (client Client) doJSON(ctx context.Context, method string, requestPath string, query url.Values, body interface{}, target interface{}) error {
	if client.authorizationHeaderValue == "" {
		return ErrMissingCredential
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}
	request, requestErr := client.buildRequest(ctx, method, requestPath, query, body)
	if requestErr != nil {
		return requestErr
	}
	response, responseErr := client.client.Do(request)
	if responseErr != nil {
		return responseErr
	}
	defer response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(response)
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(target); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

func (client Client) buildRequest(ctx context.Context, method string, requestPath string, query url.Values, body interface{}) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestURL := client.apiBase + requestPath
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	var bodyReader io.Reader
	if body != nil {
		encoded, encodeErr := json.Marshal(body)
		if encodeErr != nil {
			return nil, fmt.Errorf("encode request body: %w", encodeErr)
		}
		bodyReader = bytes.NewReader(encoded)
	}
	request, requestErr := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if requestErr != nil {
		return nil, requestErr
	}
	if client.userAgent != "" {
		request.Header.Set(headerUserAgent, client.userAgent)
	}
	request.Header.Set(headerAuthorization, client.authorizationHeaderValue)
	request.Header.Set(headerNotionVersion, client.notionVersion)
	request.Header.Set(headerAccept, mimeTypeJSON)
	if body != nil {
		request.Header.Set(headerContentType, mimeTypeJSON)
	}
	return request, nil
}

func decodeAPIError(response *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, errorBodyLimit))
	apiError := &APIError{StatusCode: response.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiError.Code = payload.Code
		apiError.Message = payload.Message
		return apiError
	}
	apiError.Message = strings.TrimSpace(string(body))
	if apiError.Message == "" {
		apiError.Message = http.StatusText(response.StatusCode)
	}
	return apiError
}

func normalizePageSize(pageSize int) int {
	if pageSize <= 0 || pageSize > MaxPageSize {
		return MaxPageSize
	}
	return pageSize
}

func formatAuthorizationHeaderValue(rawToken string) string {
	trimmed := strings.TrimSpace(rawToken)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(trimmed), strings.ToLower(authorizationBearerPrefix)) {
		trimmed = strings.TrimSpace(trimmed[len(authorizationBearerPrefix):])
		if trimmed == "" {
			return ""
		}
	}
	return authorizationBearerPrefix + trimmed
}
