package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.json")
	if err := os.WriteFile(testFile, []byte(`{"name":"test","value":42}`), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var result struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}
	LoadFixtureJSON(t, testFile, &result)

	if result.Name != "test" || result.Value != 42 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestFixturePath(t *testing.T) {
	expected := filepath.Join("testdata", "content.json")
	if got := FixturePath("content.json"); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestContentDataset(t *testing.T) {
	d := ContentDataset(t)

	if len(d.Posts) != 11 {
		t.Errorf("expected 11 posts, got %d", len(d.Posts))
	}
	if len(d.Terms) != 4 {
		t.Errorf("expected 4 terms, got %d", len(d.Terms))
	}
	if len(d.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(d.Users))
	}
	if d.Posts[1].Date.IsZero() {
		t.Error("expected post dates to be decoded")
	}
}

func TestLoadStore(t *testing.T) {
	s := LoadStore(t, FixturePath("content.json"))

	if _, err := s.PostByID(context.Background(), 42); err != nil {
		t.Fatalf("expected post 42, got %v", err)
	}
}
