// Package workspace implements the ephemeral per-suite workspace: a temp
// directory, optionally seeded from a fixture tree, that every test in a
// suite shares as its working directory. The fixture tree is recursively
// copied rather than symlinked, since two suites running concurrently must
// never observe each other's mutations to a shared fixture.
package workspace

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cctr-run/cctr/internal/cctrerrors"
)

// Workspace is an ephemeral directory created per suite execution.
type Workspace struct {
	Path       string
	FixtureSrc string // "" if the suite has no fixture
	SuitePath  string // the suite's source directory, for CCTR_TEST_PATH
}

// Create makes a fresh temp workspace for a suite and, if fixtureSrc is
// non-empty, recursively copies the fixture tree into it.
func Create(tmpRoot, suitePath, fixtureSrc string) (*Workspace, error) {
	dir, err := os.MkdirTemp(tmpRoot, "cctr-")
	if err != nil {
		return nil, cctrerrors.Wrap(err, cctrerrors.Workspace, "creating temp workspace")
	}
	ws := &Workspace{Path: dir, FixtureSrc: fixtureSrc, SuitePath: suitePath}
	if fixtureSrc != "" {
		if err := copyTree(fixtureSrc, dir); err != nil {
			os.RemoveAll(dir)
			return nil, cctrerrors.Wrap(err, cctrerrors.Workspace, "copying fixture tree")
		}
	}
	return ws, nil
}

// EnvAdditions returns the CCTR_WORK_DIR / CCTR_FIXTURE_DIR / CCTR_TEST_PATH
// environment entries injected into every command run in this workspace.
func (ws *Workspace) EnvAdditions() []string {
	fixtureDir := ws.Path
	return []string{
		"CCTR_WORK_DIR=" + ws.Path,
		"CCTR_FIXTURE_DIR=" + fixtureDir,
		"CCTR_TEST_PATH=" + ws.SuitePath,
	}
}

// Destroy removes the workspace and all its contents.
func (ws *Workspace) Destroy() error {
	if err := os.RemoveAll(ws.Path); err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "destroying workspace "+ws.Path)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
