package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/session"
	"github.com/avalverde/butaca/internal/shared"
	testutil "github.com/avalverde/butaca/internal/testing"
)

type favoritesFixture struct {
	favorites *Favorites
	manager   *session.Manager
	requests  *atomic.Int32
}

// newFavoritesFixture wires a favorites cache against a stub catalog and a
// session manager restored from a persisted, already-connected user.
func newFavoritesFixture(t *testing.T, handler http.HandlerFunc) *favoritesFixture {
	t.Helper()

	db := testutil.MustOpenDB(t)
	store := session.NewStore(db)
	if err := store.SaveUser(&models.User{
		ID:               1,
		Email:            "ana@example.com",
		APIKey:           "user-key",
		CatalogSessionID: "sess-1",
		CatalogAccountID: 7,
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	manager := session.NewManager(session.ManagerOpts{Store: store, Backend: &testutil.StubLogin{}})

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientOpts{Config: shared.CatalogConfig{URL: srv.URL, AppKey: "app-key", RateLimit: 1000}})
	favorites := NewFavorites(client, manager, nil)
	t.Cleanup(favorites.Close)

	return &favoritesFixture{favorites: favorites, manager: manager, requests: &requests}
}

func favoritesPage(movies ...models.Movie) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{Page: 1, Results: movies, TotalPages: 1, TotalResults: len(movies)})
	}
}

func TestFavoritesLoad(t *testing.T) {
	t.Run("missing credentials fail without network calls", func(t *testing.T) {
		fx := newFavoritesFixture(t, favoritesPage())
		if err := fx.manager.ClearCatalogSession(); err != nil {
			t.Fatal(err)
		}

		_, err := fx.favorites.Load(context.Background(), 7, 1)
		if !errors.Is(err, shared.ErrNotConnected) {
			t.Fatalf("expected ErrNotConnected, got %v", err)
		}
		if got := fx.requests.Load(); got != 0 {
			t.Errorf("expected no catalog requests, got %d", got)
		}
		if len(fx.favorites.Snapshot()) != 0 {
			t.Error("expected an empty cache")
		}
	})

	t.Run("page one is served from cache after the first load", func(t *testing.T) {
		fx := newFavoritesFixture(t, favoritesPage(models.Movie{ID: 5, Title: "Heat"}))

		first, err := fx.favorites.Load(context.Background(), 7, 1)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(first.Results) != 1 {
			t.Fatalf("unexpected first page: %+v", first)
		}

		second, err := fx.favorites.Load(context.Background(), 7, 1)
		if err != nil {
			t.Fatalf("cached load failed: %v", err)
		}
		if second.Page != 1 || second.TotalPages != 1 || len(second.Results) != 1 {
			t.Errorf("unexpected cached page: %+v", second)
		}
		if got := fx.requests.Load(); got != 1 {
			t.Errorf("expected a single catalog request, got %d", got)
		}
	})

	t.Run("later pages bypass the cache", func(t *testing.T) {
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			page := r.URL.Query().Get("page")
			writePage(w, models.MoviePage{Page: 2, Results: []models.Movie{{ID: 9, Title: "Ran " + page}}})
		})

		if _, err := fx.favorites.Load(context.Background(), 7, 2); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if _, err := fx.favorites.Load(context.Background(), 7, 2); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got := fx.requests.Load(); got != 2 {
			t.Errorf("expected two catalog requests for page 2, got %d", got)
		}
		if len(fx.favorites.Snapshot()) != 0 {
			t.Error("later pages must not populate the cache")
		}
	})

	t.Run("rejected session clears the catalog credentials", func(t *testing.T) {
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status_code": 3, "status_message": "session denied"})
		})

		_, err := fx.favorites.Load(context.Background(), 7, 1)
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		user := fx.manager.Current()
		if user == nil || user.Connected() {
			t.Errorf("expected the catalog session to be cleared, got %+v", user)
		}
	})
}

func TestFavoritesToggle(t *testing.T) {
	t.Run("toggle mutates then reloads", func(t *testing.T) {
		var methods []string
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method+" "+r.URL.Path)
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"status_code":1,"status_message":"ok"}`))
				return
			}
			writePage(w, models.MoviePage{Page: 1, Results: []models.Movie{{ID: 5}}, TotalPages: 1, TotalResults: 1})
		})

		if err := fx.favorites.Toggle(context.Background(), 7, 5, true); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}

		want := []string{"POST /account/7/favorite", "GET /account/7/favorite/movies"}
		if len(methods) != len(want) || methods[0] != want[0] || methods[1] != want[1] {
			t.Fatalf("expected %v, got %v", want, methods)
		}
		if !fx.favorites.IsFavorite(5) {
			t.Error("expected the reloaded cache to contain the movie")
		}
	})

	t.Run("repeating a toggle yields the same final state", func(t *testing.T) {
		var posts atomic.Int32
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				posts.Add(1)
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"status_code":1,"status_message":"ok"}`))
				return
			}
			writePage(w, models.MoviePage{Page: 1, Results: []models.Movie{{ID: 5}}, TotalPages: 1, TotalResults: 1})
		})

		for i := 0; i < 2; i++ {
			if err := fx.favorites.Toggle(context.Background(), 7, 5, true); err != nil {
				t.Fatalf("toggle %d failed: %v", i+1, err)
			}
		}

		if got := posts.Load(); got != 2 {
			t.Errorf("expected both mutations to reach the catalog, got %d", got)
		}
		if !fx.favorites.IsFavorite(5) {
			t.Error("expected the movie to remain favorite after the repeat")
		}
	})

	t.Run("rejected session during toggle clears the catalog credentials", func(t *testing.T) {
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status_code": 3, "status_message": "session denied"})
		})

		err := fx.favorites.Toggle(context.Background(), 7, 5, true)
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		user := fx.manager.Current()
		if user == nil || user.Connected() {
			t.Errorf("expected the catalog session to be cleared, got %+v", user)
		}
		if fx.favorites.IsFavorite(5) {
			t.Error("a cleared session has no favorites")
		}
	})

	t.Run("flip derives the target from the cached state", func(t *testing.T) {
		var lastBody map[string]any
		fx := newFavoritesFixture(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				json.NewDecoder(r.Body).Decode(&lastBody)
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"status_code":1}`))
				return
			}
			writePage(w, models.MoviePage{Page: 1, Results: []models.Movie{{ID: 5}}, TotalPages: 1, TotalResults: 1})
		})

		if _, err := fx.favorites.Load(context.Background(), 7, 1); err != nil {
			t.Fatal(err)
		}

		next, err := fx.favorites.Flip(context.Background(), 7, 5)
		if err != nil {
			t.Fatalf("flip failed: %v", err)
		}
		if next {
			t.Error("flipping a cached favorite must target false")
		}
		if lastBody["favorite"] != false {
			t.Errorf("expected favorite=false in the mutation body, got %v", lastBody["favorite"])
		}
	})
}

func TestFavoritesIsFavorite(t *testing.T) {
	t.Run("false when not connected regardless of cache", func(t *testing.T) {
		fx := newFavoritesFixture(t, favoritesPage(models.Movie{ID: 5}))

		if _, err := fx.favorites.Load(context.Background(), 7, 1); err != nil {
			t.Fatal(err)
		}
		if !fx.favorites.IsFavorite(5) {
			t.Fatal("expected the cached movie to read as favorite")
		}

		if err := fx.manager.ClearCatalogSession(); err != nil {
			t.Fatal(err)
		}
		if fx.favorites.IsFavorite(5) {
			t.Error("a disconnected account has no favorites")
		}
	})
}

func TestFavoritesIdentityChange(t *testing.T) {
	fx := newFavoritesFixture(t, favoritesPage(models.Movie{ID: 5}))

	if _, err := fx.favorites.Load(context.Background(), 7, 1); err != nil {
		t.Fatal(err)
	}
	if len(fx.favorites.Snapshot()) != 1 {
		t.Fatal("expected a populated cache")
	}

	// the manager publishes asynchronously to the watcher goroutine
	if err := fx.manager.SaveCatalogSession("sess-2", 8); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(fx.favorites.Snapshot()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache was not reset after the identity change")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
