package testsupport

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

//go:embed testdata/content.json
var contentFixture []byte

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// ContentDataset returns the shared content fixture: a small blog with
// posts, pages, attachments, categories, tags and two users.
func ContentDataset(t *testing.T) Dataset {
	t.Helper()

	var d Dataset
	if err := json.Unmarshal(contentFixture, &d); err != nil {
		t.Fatalf("failed to unmarshal content fixture: %v", err)
	}
	return d
}

// ContentStore returns a Store filled with ContentDataset.
func ContentStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreFromDataset(ContentDataset(t))
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}
