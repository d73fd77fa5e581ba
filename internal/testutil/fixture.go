// Package testutil provides fixtures and network helpers for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// Fixture holds a loaded source fixture.
type Fixture struct {
	// Language is the fixture language directory ("java", "python", "ruby")
	Language string

	// Name is the file name within the language directory
	Name string

	// Path is the absolute path to the fixture file
	Path string

	// Source is the raw file content
	Source []byte
}

// LoadFixture reads testdata/fixtures/<lang>/<name>, failing the test on error.
func LoadFixture(t *testing.T, lang, name string) *Fixture {
	t.Helper()

	path := filepath.Join(getFixturesRoot(t), lang, name)
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s/%s: %v", lang, name, err)
	}

	return &Fixture{
		Language: lang,
		Name:     name,
		Path:     path,
		Source:   src,
	}
}

// FixtureNames lists the fixture files available for lang, sorted.
func FixtureNames(t *testing.T, lang string) []string {
	t.Helper()

	dir := filepath.Join(getFixturesRoot(t), lang)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read fixture directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
