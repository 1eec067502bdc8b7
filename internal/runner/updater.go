package runner

import (
	"os"
	"sort"

	"github.com/cctr-run/cctr/internal/cctrerrors"
)

// applyUpdates rewrites each affected corpus file's expected-output byte
// ranges with their freshly observed actual output: unchanged tests stay
// byte-identical, and only the expected-output region of each rewritten
// test changes. Updates within a file are applied end-to-start so earlier
// byte offsets stay valid after a rewrite shifts later content.
func applyUpdates(updates []pendingUpdate) error {
	byFile := map[string][]pendingUpdate{}
	for _, u := range updates {
		byFile[u.file] = append(byFile[u.file], u)
	}

	for file, us := range byFile {
		if err := applyFileUpdates(file, us); err != nil {
			return err
		}
	}
	return nil
}

func applyFileUpdates(file string, us []pendingUpdate) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "reading corpus file for update: "+file)
	}
	content := string(raw)

	sort.Slice(us, func(i, j int) bool { return us[i].rng.Start > us[j].rng.Start })

	for _, u := range us {
		if u.rng.Start < 0 || u.rng.End > len(content) || u.rng.Start > u.rng.End {
			continue
		}
		content = content[:u.rng.Start] + u.newText + content[u.rng.End:]
	}

	info, statErr := os.Stat(file)
	mode := os.FileMode(0o644)
	if statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(file, []byte(content), mode); err != nil {
		return cctrerrors.Wrap(err, cctrerrors.Workspace, "writing updated corpus file: "+file)
	}
	return nil
}
