package formatter

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avalverde/butaca/internal/models"
	testutil "github.com/avalverde/butaca/internal/testing"
)

func sampleMovies() []models.Movie {
	return []models.Movie{
		{ID: 5, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 8.3},
		{ID: 9, Title: "Ran", ReleaseDate: "1985-06-01", VoteAverage: 8.0},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleMovies())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "ID" || records[0][3] != "Rating" {
		t.Errorf("unexpected headers: %v", records[0])
	}
	if records[1][1] != "Heat" || records[1][2] != "1995" || records[1][3] != "8.3" {
		t.Errorf("unexpected row: %v", records[1])
	}
}

func TestExportToMarkdown(t *testing.T) {
	t.Run("includes the cover when given", func(t *testing.T) {
		data, err := ExportToMarkdown("Favorites", sampleMovies(), "cover.jpg")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		text := string(data)

		if !strings.Contains(text, "# Favorites") {
			t.Error("expected the title heading")
		}
		if !strings.Contains(text, "![Cover](cover.jpg)") {
			t.Error("expected the cover image reference")
		}
		if !strings.Contains(text, "1. Heat (1995) [8.3/10]") {
			t.Errorf("unexpected body:\n%s", text)
		}
	})

	t.Run("omits the cover when empty", func(t *testing.T) {
		data, err := ExportToMarkdown("Favorites", sampleMovies(), "")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if strings.Contains(string(data), "![Cover]") {
			t.Error("expected no cover reference")
		}
	})
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText("Favorites", sampleMovies())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Titles: 2") {
		t.Error("expected the title count")
	}
	if !strings.Contains(text, "2. Ran") {
		t.Errorf("unexpected body:\n%s", text)
	}
}

func TestWriteCSVExport(t *testing.T) {
	base := filepath.Join(t.TempDir(), "export")

	result, err := WriteCSVExport("Favorites", sampleMovies(), base)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	testutil.AssertFileExists(t, result.MoviesFile)
	testutil.AssertFileExists(t, result.MetadataFile)

	metadata := testutil.MustReadFile(t, result.MetadataFile)
	if !strings.Contains(metadata, `"count": 2`) {
		t.Errorf("unexpected metadata:\n%s", metadata)
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	t.Run("writes the README with a downloaded cover", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "favorites")
		result, err := WriteMarkdownExport("Favorites", sampleMovies(), dir, srv.URL)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		testutil.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if result.CoverImage == "" {
			t.Fatal("expected a cover image")
		}
		if got := testutil.MustReadFile(t, result.CoverImage); got != "jpeg-bytes" {
			t.Errorf("unexpected cover contents: %q", got)
		}
	})

	t.Run("a failed download does not fail the export", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "favorites")
		result, err := WriteMarkdownExport("Favorites", sampleMovies(), dir, srv.URL)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if result.CoverImage != "" {
			t.Error("expected no cover image")
		}

		readme := testutil.MustReadFile(t, filepath.Join(dir, "README.md"))
		if strings.Contains(readme, "![Cover]") {
			t.Error("expected no cover reference in the README")
		}
	})
}

func TestWriteTextExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.txt")

	written, err := WriteTextExport("Favorites", sampleMovies(), path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if written != path {
		t.Errorf("expected %s, got %s", path, written)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.Contains(string(data), "1. Heat") {
		t.Errorf("unexpected contents:\n%s", data)
	}
}
