package models

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles assignable to a local user account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents the locally authenticated principal plus the credentials
// attached to their third-party catalog account.
//
// ReadToken and APIKey are independent credentials: the long bearer-style
// read token and the short v3 key come from different places and neither
// implies the other is present. CatalogSessionID and CatalogAccountID are
// only meaningful together.
type User struct {
	ID      int    `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Enabled bool   `json:"enabled"`

	ReadToken        string `json:"read_token,omitempty"`
	APIKey           string `json:"api_key,omitempty"`
	CatalogSessionID string `json:"catalog_session_id,omitempty"`
	CatalogAccountID int    `json:"catalog_account_id,omitempty"`
}

// Admin reports whether the user holds the admin role.
func (u *User) Admin() bool {
	return u.Role == RoleAdmin
}

// Connected reports whether the catalog account is linked. A session id
// without an account id (or vice versa) counts as not connected.
func (u *User) Connected() bool {
	return u.CatalogSessionID != "" && u.CatalogAccountID != 0
}

// Clone returns a copy safe to hand to subscribers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Claims is the payload of the signed credential issued by the backend on
// login. Catalog credential fields are optional; absent fields fall back to
// whatever was previously persisted locally.
type Claims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsEnabled *bool  `json:"is_enabled,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	ReadToken string `json:"read_token,omitempty"`
	jwt.RegisteredClaims
}

// Movie is the summary shape used in listings and search results.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
}

// Year returns the release year or an empty string.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// MoviePage is one page of catalog results.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a catalog genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail is the full record for a single movie.
type MovieDetail struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
	Status  string  `json:"status"`
}

// GenreNames joins the detail's genre names for display.
func (d MovieDetail) GenreNames() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// CastMember is one credited cast entry.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// Credits holds the cast list for a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
}

// Account describes the catalog account fetched after the authorization
// handshake. The numeric ID is the account identifier used for favorite
// operations; it is not the API key.
type Account struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// PosterURL builds a full image URL for a poster path, or an empty string
// when the movie has no poster.
func PosterURL(base, posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(base, "/"), size, posterPath)
}
