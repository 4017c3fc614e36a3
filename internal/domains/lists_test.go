package domains_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nordnytt/aggregator/internal/domains"
)

func writeList(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func TestFileLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	allowed := writeList(t, dir, "allowed.json", `["Blog.Example", " news.example ", ""]`)
	blocked := writeList(t, dir, "blocked.json", `["spam.example"]`)

	lists, err := domains.NewFileLoader(allowed, blocked).Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(lists.Allowed) != 2 || lists.Allowed[0] != "blog.example" || lists.Allowed[1] != "news.example" {
		t.Errorf("unexpected allowed list: %v", lists.Allowed)
	}

	if len(lists.Blocked) != 1 || lists.Blocked[0] != "spam.example" {
		t.Errorf("unexpected blocked list: %v", lists.Blocked)
	}
}

func TestFileLoader_MissingFileIsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocked := writeList(t, dir, "blocked.json", `[]`)

	_, err := domains.NewFileLoader(filepath.Join(dir, "missing.json"), blocked).Load()
	if err == nil {
		t.Fatal("expected error for missing allowed list")
	}
}

func TestFileLoader_MalformedJSONIsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	allowed := writeList(t, dir, "allowed.json", `{"not": "a list"}`)
	blocked := writeList(t, dir, "blocked.json", `[]`)

	_, err := domains.NewFileLoader(allowed, blocked).Load()
	if err == nil {
		t.Fatal("expected error for malformed list")
	}
}
