package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultSort is the discovery ordering used when the caller asks for none.
const DefaultSort = "popularity.desc"

// Filters narrow a discovery listing.
type Filters struct {
	GenreID      int
	Year         int
	IncludeAdult bool
	SortBy       string
}

// AccountCredentials is the triple required for account-scoped calls: the
// user's own API key, their catalog session id and their numeric account id.
type AccountCredentials struct {
	APIKey    string
	SessionID string
	AccountID int
}

// Complete reports whether all three credentials are present.
func (c AccountCredentials) Complete() bool {
	return c.APIKey != "" && c.SessionID != "" && c.AccountID != 0
}

// apiError is the catalog's error envelope.
type apiError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// Client performs raw calls against the catalog REST API. Public reads use
// the application-level key; account-scoped calls take explicit
// [AccountCredentials]. Immutable reads (detail, credits, genres) are
// deduplicated with singleflight and memoized.
type Client struct {
	baseURL  string
	authURL  string
	appKey   string
	language string

	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	memo    *gocache.Cache
	logger  *log.Logger
}

// ClientOpts contains configuration options for creating a [Client].
type ClientOpts struct {
	Config     shared.CatalogConfig
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates a catalog [Client].
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	limit := opts.Config.RateLimit
	if limit <= 0 {
		limit = 4
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.Config.URL, "/"),
		authURL:  strings.TrimRight(opts.Config.AuthURL, "/"),
		appKey:   opts.Config.AppKey,
		language: opts.Config.Language,
		http:     opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Limit(limit), 1),
		memo:     gocache.New(10*time.Minute, 30*time.Minute),
		logger:   opts.Logger,
	}
}

// appParams returns the base query for public reads, authenticated with the
// application key.
func (c *Client) appParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.appKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

// accountParams returns the base query for account-scoped calls,
// authenticated with the user's key and session.
func (c *Client) accountParams(creds AccountCredentials) url.Values {
	params := url.Values{}
	params.Set("api_key", creds.APIKey)
	params.Set("session_id", creds.SessionID)
	if c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

// do performs one rate-limited request and decodes the JSON response.
// 401 and 404 map to their typed errors so callers can react without
// inspecting status codes.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	endpoint := c.baseURL + path + "?" + params.Encode()

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrSessionExpired, decodeAPIError(resp))
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, decodeAPIError(resp))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func decodeAPIError(resp *http.Response) string {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.StatusMessage != "" {
		return apiErr.StatusMessage
	}
	return resp.Status
}

// SearchMovies performs a text search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	params := c.appParams()
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.do(ctx, http.MethodGet, "/search/movie", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DiscoverMovies performs a filtered discovery listing.
func (c *Client) DiscoverMovies(ctx context.Context, page int, filters Filters) (*models.MoviePage, error) {
	params := c.appParams()
	params.Set("page", strconv.Itoa(page))
	if filters.GenreID != 0 {
		params.Set("with_genres", strconv.Itoa(filters.GenreID))
	}
	if filters.Year != 0 {
		params.Set("primary_release_year", strconv.Itoa(filters.Year))
	}
	if filters.IncludeAdult {
		params.Set("include_adult", "true")
	}
	sort := filters.SortBy
	if sort == "" {
		sort = DefaultSort
	}
	params.Set("sort_by", sort)

	var result models.MoviePage
	if err := c.do(ctx, http.MethodGet, "/discover/movie", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NowPlaying fetches one page of the billboard listing.
func (c *Client) NowPlaying(ctx context.Context, page int) (*models.MoviePage, error) {
	params := c.appParams()
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	if err := c.do(ctx, http.MethodGet, "/movie/now_playing", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetail fetches the full record for one movie. Results are memoized;
// concurrent fetches of the same id share a single request.
func (c *Client) MovieDetail(ctx context.Context, id int) (*models.MovieDetail, error) {
	key := fmt.Sprintf("detail:%d", id)
	if cached, ok := c.memo.Get(key); ok {
		return cached.(*models.MovieDetail), nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		var detail models.MovieDetail
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", id), c.appParams(), nil, &detail); err != nil {
			return nil, err
		}
		c.memo.SetDefault(key, &detail)
		return &detail, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*models.MovieDetail), nil
}

// MovieCredits fetches the cast list for one movie, memoized like detail.
func (c *Client) MovieCredits(ctx context.Context, id int) (*models.Credits, error) {
	key := fmt.Sprintf("credits:%d", id)
	if cached, ok := c.memo.Get(key); ok {
		return cached.(*models.Credits), nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		var credits models.Credits
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movie/%d/credits", id), c.appParams(), nil, &credits); err != nil {
			return nil, err
		}
		c.memo.SetDefault(key, &credits)
		return &credits, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*models.Credits), nil
}

// GenreList fetches the catalog's genre index, cached for the process
// lifetime of the memo.
func (c *Client) GenreList(ctx context.Context) ([]models.Genre, error) {
	const key = "genres"
	if cached, ok := c.memo.Get(key); ok {
		return cached.([]models.Genre), nil
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		var result struct {
			Genres []models.Genre `json:"genres"`
		}
		if err := c.do(ctx, http.MethodGet, "/genre/movie/list", c.appParams(), nil, &result); err != nil {
			return nil, err
		}
		c.memo.Set(key, result.Genres, 24*time.Hour)
		return result.Genres, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]models.Genre), nil
}

// NewRequestToken starts the authorization handshake. The token is issued
// against the application key, not the user's.
func (c *Client) NewRequestToken(ctx context.Context) (string, error) {
	var result struct {
		Success      bool   `json:"success"`
		RequestToken string `json:"request_token"`
	}
	if err := c.do(ctx, http.MethodGet, "/authentication/token/new", c.appParams(), nil, &result); err != nil {
		return "", err
	}
	if !result.Success || result.RequestToken == "" {
		return "", fmt.Errorf("%w: catalog refused to issue a request token", shared.ErrAPIRequest)
	}
	return result.RequestToken, nil
}

// ApprovalURL builds the hosted page where the user approves the request
// token, with the local redirect target attached.
func (c *Client) ApprovalURL(requestToken, redirectTo string) string {
	return fmt.Sprintf("%s/%s?redirect_to=%s", c.authURL, requestToken, url.QueryEscape(redirectTo))
}

// CreateSession exchanges an approved request token for a session id.
func (c *Client) CreateSession(ctx context.Context, requestToken string) (string, error) {
	var result struct {
		Success   bool   `json:"success"`
		SessionID string `json:"session_id"`
	}
	body := map[string]string{"request_token": requestToken}
	if err := c.do(ctx, http.MethodPost, "/authentication/session/new", c.appParams(), body, &result); err != nil {
		return "", err
	}
	if !result.Success || result.SessionID == "" {
		return "", fmt.Errorf("%w: catalog refused to create a session", shared.ErrAPIRequest)
	}
	return result.SessionID, nil
}

// AccountDetails fetches the numeric account id behind a session.
func (c *Client) AccountDetails(ctx context.Context, sessionID string) (*models.Account, error) {
	params := c.appParams()
	params.Set("session_id", sessionID)

	var account models.Account
	if err := c.do(ctx, http.MethodGet, "/account", params, nil, &account); err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, fmt.Errorf("%w: account details carried no id", shared.ErrAPIRequest)
	}
	return &account, nil
}

// FavoriteMovies fetches one page of the account's favorite set.
func (c *Client) FavoriteMovies(ctx context.Context, creds AccountCredentials, page int) (*models.MoviePage, error) {
	params := c.accountParams(creds)
	params.Set("page", strconv.Itoa(page))

	var result models.MoviePage
	path := fmt.Sprintf("/account/%d/favorite/movies", creds.AccountID)
	if err := c.do(ctx, http.MethodGet, path, params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetFavorite marks or unmarks one movie as favorite.
func (c *Client) SetFavorite(ctx context.Context, creds AccountCredentials, movieID int, favorite bool) error {
	body := map[string]any{
		"media_type": "movie",
		"media_id":   movieID,
		"favorite":   favorite,
	}
	path := fmt.Sprintf("/account/%d/favorite", creds.AccountID)
	return c.do(ctx, http.MethodPost, path, c.accountParams(creds), body, nil)
}
