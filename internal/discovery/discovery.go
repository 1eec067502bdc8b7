// Package discovery walks a root directory (or accepts a single file) and
// classifies directories into suites. It defines the "-" stdin sentinel;
// Discover itself does not read standard input, so the CLI writes stdin to
// a temporary corpus file and discovers that file.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cctr-run/cctr/internal/cctrerrors"
)

// Suite is a directory containing at least one regular test file.
type Suite struct {
	Name         string // path relative to root, or root's own dir name at root
	Dir          string
	TestFiles    []string
	SetupFile    string
	TeardownFile string
	FixtureDir   string
}

// StdinSentinel is the "-" token meaning "read one corpus from standard input".
const StdinSentinel = "-"

func isUnderFixture(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "fixture" {
			return true
		}
	}
	return false
}

func isRegularTestFile(name string) bool {
	return strings.HasSuffix(name, ".txt") && !strings.HasPrefix(name, "_")
}

// Discover walks root and returns suites in lexicographic directory order,
// each with test files sorted lexicographically. If root is a regular
// file, a single suite is returned scoped to that file's parent directory,
// restricted to that one test file.
func Discover(root string) ([]Suite, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, cctrerrors.Wrap(err, cctrerrors.Discovery, "cannot stat test root "+root)
	}
	if !info.IsDir() {
		return discoverSingleFile(root)
	}

	byDir := map[string]*Suite{}
	var order []string

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return cctrerrors.Wrap(err, cctrerrors.Discovery, "walking "+path)
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return cctrerrors.Wrap(relErr, cctrerrors.Discovery, "computing relative path for "+path)
		}
		if isUnderFixture(rel) {
			return nil
		}
		base := d.Name()
		dir := filepath.Dir(path)

		s, ok := byDir[dir]
		if !ok {
			s = &Suite{Dir: dir, Name: suiteName(root, dir)}
			byDir[dir] = s
			order = append(order, dir)
		}
		switch {
		case base == "_setup.txt":
			s.SetupFile = path
		case base == "_teardown.txt":
			s.TeardownFile = path
		case isRegularTestFile(base):
			s.TestFiles = append(s.TestFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, dir := range order {
		s := byDir[dir]
		if fi, statErr := os.Stat(filepath.Join(dir, "fixture")); statErr == nil && fi.IsDir() {
			s.FixtureDir = filepath.Join(dir, "fixture")
		}
		sort.Strings(s.TestFiles)
	}

	var suites []Suite
	for _, dir := range order {
		s := byDir[dir]
		if len(s.TestFiles) == 0 {
			continue // directories with only _setup/_teardown but no tests aren't suites
		}
		suites = append(suites, *s)
	}
	sort.Slice(suites, func(i, j int) bool { return suites[i].Name < suites[j].Name })
	return suites, nil
}

func suiteName(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(root)
	}
	return filepath.ToSlash(rel)
}

func discoverSingleFile(path string) ([]Suite, error) {
	dir := filepath.Dir(path)
	s := Suite{
		Dir:       dir,
		Name:      suiteName(dir, dir),
		TestFiles: []string{path},
	}
	if fi, err := os.Stat(filepath.Join(dir, "_setup.txt")); err == nil && !fi.IsDir() {
		s.SetupFile = filepath.Join(dir, "_setup.txt")
	}
	if fi, err := os.Stat(filepath.Join(dir, "_teardown.txt")); err == nil && !fi.IsDir() {
		s.TeardownFile = filepath.Join(dir, "_teardown.txt")
	}
	if fi, err := os.Stat(filepath.Join(dir, "fixture")); err == nil && fi.IsDir() {
		s.FixtureDir = filepath.Join(dir, "fixture")
	}
	return []Suite{s}, nil
}
