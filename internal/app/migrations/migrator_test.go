package migrations

import (
	"reflect"
	"testing"
	"testing/fstest"

	sqlfiles "github.com/cantinaverde/cantina/migrations"
)

func TestVersion(t *testing.T) {
	tests := map[string]string{
		"001_init.sql":            "001",
		"002_compat_columns.sql":  "002",
		"dir/010_more_things.sql": "010",
		"noversion.sql":           "noversion.sql",
	}
	for in, want := range tests {
		if got := Version(in); got != want {
			t.Errorf("Version(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSQLFiles_SortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.sql":  {Data: []byte("SELECT 1")},
		"001_first.sql": {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("docs")},
		"sub/003.sql":   {Data: []byte("SELECT 1")},
	}
	got, err := SQLFiles(fsys)
	if err != nil {
		t.Fatalf("SQLFiles() error = %v", err)
	}
	want := []string{"001_first.sql", "010_late.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SQLFiles() = %v, want %v", got, want)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := SQLFiles(sqlfiles.Files)
	if err != nil {
		t.Fatalf("SQLFiles() error = %v", err)
	}
	if len(files) < 2 || files[0] != "001_init.sql" {
		t.Fatalf("unexpected embedded migrations: %v", files)
	}
	seen := map[string]bool{}
	for _, f := range files {
		v := Version(f)
		if seen[v] {
			t.Errorf("duplicate migration version %s", v)
		}
		seen[v] = true
	}
}
