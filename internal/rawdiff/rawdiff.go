// Package rawdiff parses zero-context unified diff text (the object
// store's diff contract, {context_lines: 0}) into the owned diff model.
package rawdiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	godiff "github.com/sourcegraph/go-diff/diff"

	"absorb/internal/owned"
)

// ErrUnexpectedContext is returned when a hunk body contains a
// space-prefixed context line. Every diff this package parses is expected
// to have been generated with zero context lines; a context line means
// either the object store was misconfigured or the raw text came from
// somewhere else (e.g. `git diff` output pasted by hand).
var ErrUnexpectedContext = errors.New("rawdiff: unexpected context line in zero-context diff")

// ErrHunkLineCountMismatch is returned when a hunk's declared -/+ line
// counts (from its @@ header) disagree with the number of -/+ lines
// actually present in its body.
var ErrHunkLineCountMismatch = errors.New("rawdiff: hunk line count does not match its header")

// Parse parses raw unified diff text into an owned.Diff. It never
// retains a reference to raw: every byte slice in the result is copied.
func Parse(raw []byte) (owned.Diff, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff(raw)
	if err != nil {
		return owned.Diff{}, errors.Wrap(err, "parse multi-file diff")
	}

	out := owned.Diff{Patches: make([]owned.Patch, 0, len(fileDiffs))}
	for _, fd := range fileDiffs {
		patch, err := convertFileDiff(fd)
		if err != nil {
			return owned.Diff{}, err
		}
		out.Patches = append(out.Patches, patch)
	}
	return out, nil
}

func convertFileDiff(fd *godiff.FileDiff) (owned.Patch, error) {
	status := classifyStatus(fd)
	oldPath, newPath := resolvePaths(fd, status)

	hunks := make([]owned.Hunk, 0, len(fd.Hunks))
	for _, h := range fd.Hunks {
		hunk, err := convertHunk(h)
		if err != nil {
			return owned.Patch{}, errors.Wrapf(err, "file %s", newPath)
		}
		hunks = append(hunks, hunk)
	}

	return owned.Patch{
		OldPath: []byte(oldPath),
		NewPath: []byte(newPath),
		Status:  status,
		Hunks:   hunks,
	}, nil
}

func classifyStatus(fd *godiff.FileDiff) owned.Status {
	if fd.OrigName == "/dev/null" {
		return owned.StatusAdded
	}
	if fd.NewName == "/dev/null" {
		return owned.StatusDeleted
	}
	for _, ext := range fd.Extended {
		switch {
		case strings.HasPrefix(ext, "new file mode"):
			return owned.StatusAdded
		case strings.HasPrefix(ext, "deleted file mode"):
			return owned.StatusDeleted
		case strings.HasPrefix(ext, "rename from "), strings.HasPrefix(ext, "rename to "):
			return owned.StatusRenamed
		case strings.HasPrefix(ext, "copy from "), strings.HasPrefix(ext, "copy to "):
			return owned.StatusCopied
		}
	}
	if cleanPath(fd.OrigName) != cleanPath(fd.NewName) {
		return owned.StatusRenamed
	}
	if len(fd.Hunks) == 0 {
		return owned.StatusUnmodified
	}
	return owned.StatusModified
}

func resolvePaths(fd *godiff.FileDiff, status owned.Status) (oldPath, newPath string) {
	oldPath = cleanPath(fd.OrigName)
	newPath = cleanPath(fd.NewName)

	if status == owned.StatusRenamed || status == owned.StatusCopied {
		for _, ext := range fd.Extended {
			if rest, ok := cutPrefix(ext, "rename from "); ok {
				oldPath = strings.TrimSpace(rest)
			}
			if rest, ok := cutPrefix(ext, "rename to "); ok {
				newPath = strings.TrimSpace(rest)
			}
			if rest, ok := cutPrefix(ext, "copy from "); ok {
				oldPath = strings.TrimSpace(rest)
			}
			if rest, ok := cutPrefix(ext, "copy to "); ok {
				newPath = strings.TrimSpace(rest)
			}
		}
	}
	return oldPath, newPath
}

func cutPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

func cleanPath(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

type bodyLine struct {
	prefix  byte
	content []byte
}

func splitBodyLines(body []byte) []bodyLine {
	var out []bodyLine
	i := 0
	for i < len(body) {
		j := bytes.IndexByte(body[i:], '\n')
		var line []byte
		if j < 0 {
			line = body[i:]
			i = len(body)
		} else {
			line = body[i : i+j+1]
			i += j + 1
		}
		if len(line) == 0 {
			continue
		}
		out = append(out, bodyLine{prefix: line[0], content: line[1:]})
	}
	return out
}

func convertHunk(h *godiff.Hunk) (owned.Hunk, error) {
	var removed, added []owned.Line
	for _, line := range splitBodyLines(h.Body) {
		switch line.prefix {
		case '-':
			removed = append(removed, owned.Line(append([]byte(nil), line.content...)))
		case '+':
			added = append(added, owned.Line(append([]byte(nil), line.content...)))
		case ' ':
			return owned.Hunk{}, ErrUnexpectedContext
		case '\\':
			// "\ No newline at end of file" — not a content line.
			continue
		default:
			return owned.Hunk{}, fmt.Errorf("rawdiff: unrecognized diff line prefix %q", line.prefix)
		}
	}

	if len(removed) != int(h.OrigLines) || len(added) != int(h.NewLines) {
		return owned.Hunk{}, errors.Wrapf(ErrHunkLineCountMismatch,
			"header said -%d +%d, body has -%d +%d", h.OrigLines, h.NewLines, len(removed), len(added))
	}

	return owned.Hunk{
		Removed: owned.Block{Start: int(h.OrigStartLine), Lines: removed},
		Added:   owned.Block{Start: int(h.NewStartLine), Lines: added},
	}, nil
}
