package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)

var requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}

// ValidateDir checks the migrations stored on disk under dir.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(Migrations, embeddedDir)
}

// ValidateFS checks every .sql file in dir: the name must be
// YYYYMMDDHHMMSS_snake_name.sql, versions must be unique and both goose
// annotations must be present. All problems are reported together.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var problems error
	owners := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		if !migrationName.MatchString(name) {
			problems = multierr.Append(problems, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name))
			continue
		}
		version := name[:14]
		if first, dup := owners[version]; dup {
			problems = multierr.Append(problems, fmt.Errorf("duplicate migration version %s in %q and %q", version, first, name))
			continue
		}
		owners[version] = name

		problems = multierr.Append(problems, checkAnnotations(fsys, path.Join(dir, name)))
	}
	return problems
}

func checkAnnotations(fsys fs.FS, file string) error {
	body, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read file %q: %w", file, err)
	}
	var missing error
	for _, annotation := range requiredAnnotations {
		if !strings.Contains(string(body), annotation) {
			missing = multierr.Append(missing, fmt.Errorf("migration %q missing %q", path.Base(file), annotation))
		}
	}
	return missing
}
