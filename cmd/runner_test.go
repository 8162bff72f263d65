package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/avalverde/butaca/internal/models"
	"github.com/avalverde/butaca/internal/shared"
	tu "github.com/avalverde/butaca/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner builds a runner against an in-memory database and the given
// catalog stub, plus a root command for driving it through the CLI surface.
func newTestRunner(t *testing.T, catalogHandler http.Handler) (*Runner, *cli.Command, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	if catalogHandler != nil {
		srv := httptest.NewServer(catalogHandler)
		t.Cleanup(srv.Close)
		config.Catalog.URL = srv.URL
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		DB:     tu.MustOpenDB(t),
	})
	root := &cli.Command{Name: "butaca", Commands: runner.register()}
	return runner, root, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
			if !strings.HasSuffix(output.String(), "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != `{"key":"value"}`+"\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("formats into the output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register wires every command group", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "connect", "movies", "favorites", "users", "history", "browse"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("expected command %s at %d, got %s", name, i, commands[i].Name)
			}
		}
	})
}

func TestAuthWhoamiCommand(t *testing.T) {
	_, root, output := newTestRunner(t, nil)

	if err := root.Run(context.Background(), []string{"butaca", "auth", "whoami"}); err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(output.String(), "Not logged in") {
		t.Errorf("unexpected output: %q", output.String())
	}
}

func TestHistoryCommands(t *testing.T) {
	runner, root, output := newTestRunner(t, nil)

	t.Run("empty history", func(t *testing.T) {
		if err := root.Run(context.Background(), []string{"butaca", "history", "list"}); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "No recorded searches") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("list after recording", func(t *testing.T) {
		if err := runner.history.Record(shared.GenerateID(), "heat", 12); err != nil {
			t.Fatal(err)
		}

		output.Reset()
		if err := root.Run(context.Background(), []string{"butaca", "history", "list"}); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), `"heat" (12 results)`) {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("clear reports the removed count", func(t *testing.T) {
		output.Reset()
		if err := root.Run(context.Background(), []string{"butaca", "history", "clear"}); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "Cleared 1 entries") {
			t.Errorf("unexpected output: %q", output.String())
		}
	})
}

func TestMoviesSearchCommand(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.MoviePage{
			Page:         1,
			Results:      []models.Movie{{ID: 5, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 8.3}},
			TotalPages:   1,
			TotalResults: 1,
		})
	})
	runner, root, output := newTestRunner(t, handler)

	if err := root.Run(context.Background(), []string{"butaca", "movies", "search", "heat"}); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if !strings.Contains(output.String(), "Heat (1995)") {
		t.Errorf("unexpected output: %q", output.String())
	}

	entries, err := runner.history.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Query != "heat" {
		t.Errorf("expected the search to be recorded, got %+v", entries)
	}
}

func TestFavoritesToggleRequiresConnection(t *testing.T) {
	_, root, _ := newTestRunner(t, nil)

	err := root.Run(context.Background(), []string{"butaca", "favorites", "toggle", "5"})
	if err == nil || !strings.Contains(err.Error(), shared.ErrNotLoggedIn.Error()) {
		t.Fatalf("expected a not-logged-in failure, got %v", err)
	}
}
