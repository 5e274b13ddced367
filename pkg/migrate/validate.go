package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations in a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return Validate(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return Validate(embedded, embeddedDir)
}

// Validate checks filenames, version uniqueness and goose markers for every
// .sql file in dir and reports all problems at once.
func Validate(fsys fs.FS, dir string) error {
	versions, err := listVersions(fsys, dir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}

	var errs error
	for _, v := range versions {
		if len(v.files) > 1 {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %s in %s", v.version, strings.Join(v.files, ", ")))
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, v.files[0]))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", v.files[0], err))
			continue
		}
		errs = multierr.Append(errs, checkMarkers(v.files[0], string(b)))
	}
	return errs
}

type migrationVersion struct {
	version string
	files   []string
}

// listVersions groups .sql files by version, ascending. A misnamed file is an error.
func listVersions(fsys fs.FS, dir string) ([]migrationVersion, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	byVersion := map[string][]string{}
	var bad error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			bad = multierr.Append(bad, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name()))
			continue
		}
		byVersion[m[1]] = append(byVersion[m[1]], e.Name())
	}
	if bad != nil {
		return nil, bad
	}

	out := make([]migrationVersion, 0, len(byVersion))
	for v, files := range byVersion {
		out = append(out, migrationVersion{version: v, files: files})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func checkMarkers(name, sql string) error {
	var errs error
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(sql, marker) {
			errs = multierr.Append(errs, fmt.Errorf("migration %q missing %q", name, marker))
		}
	}
	if begins, ends := strings.Count(sql, "-- +goose StatementBegin"), strings.Count(sql, "-- +goose StatementEnd"); begins != ends {
		errs = multierr.Append(errs, fmt.Errorf("migration %q has %d StatementBegin and %d StatementEnd markers", name, begins, ends))
	}
	return errs
}
