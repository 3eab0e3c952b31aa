package git

import (
	"bufio"
	"strconv"
	"strings"
)

const devNull = "/dev/null"

// PathsFromPatch extracts every path that appears as the "before" (--- a/) or
// "after" (+++ b/) side of a file change in git diff output. Paths are returned
// in order of first appearance without duplicates; /dev/null sides are skipped.
//
// Only file headers are considered, so hunk lines that happen to start with
// "--- a/" are never mistaken for paths. File blocks without ---/+++ headers
// (binary files, mode-only changes) fall back to the path in the diff header.
func PathsFromPatch(patch string) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	var (
		inHeader    bool
		headerPath  string
		sawSidePath bool
	)
	flush := func() {
		if inHeader && !sawSidePath {
			add(headerPath)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(patch))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "diff --git "),
			strings.HasPrefix(line, "diff --cc "),
			strings.HasPrefix(line, "diff --combined "):
			flush()
			inHeader = true
			sawSidePath = false
			headerPath = pathFromDiffHeader(line)

		case !inHeader:
			continue

		case strings.HasPrefix(line, "@@"):
			flush()
			inHeader = false

		case strings.HasPrefix(line, "--- "):
			if p, ok := sidePath(line[len("--- "):], "a/"); ok {
				add(p)
			}
			sawSidePath = true

		case strings.HasPrefix(line, "+++ "):
			if p, ok := sidePath(line[len("+++ "):], "b/"); ok {
				add(p)
			}
			sawSidePath = true
		}
	}
	flush()

	return paths
}

// sidePath strips the diff marker prefix ("a/" or "b/") from a header path
func sidePath(raw, prefix string) (string, bool) {
	raw = strings.TrimSuffix(raw, "\t")
	raw = unquotePath(raw)
	if raw == devNull {
		return "", false
	}
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	return raw[len(prefix):], true
}

// pathFromDiffHeader recovers the path from "diff --git a/P b/P" or
// "diff --cc P". Renamed pairs are ambiguous when paths contain spaces; those
// always carry ---/+++ headers, so only the symmetric form is decoded here.
func pathFromDiffHeader(line string) string {
	for _, prefix := range []string{"diff --cc ", "diff --combined "} {
		if strings.HasPrefix(line, prefix) {
			return unquotePath(line[len(prefix):])
		}
	}

	rest := strings.TrimPrefix(line, "diff --git ")
	if strings.HasPrefix(rest, `"`) {
		// "a/x" "b/x"
		if idx := strings.Index(rest[1:], `" "`); idx >= 0 {
			a := unquotePath(rest[:idx+2])
			return strings.TrimPrefix(a, "a/")
		}
		return ""
	}

	if len(rest)%2 == 0 {
		return ""
	}
	half := len(rest) / 2
	a, b := rest[:half], rest[half+1:]
	if strings.HasPrefix(a, "a/") && strings.HasPrefix(b, "b/") && a[2:] == b[2:] {
		return a[2:]
	}
	return ""
}

// unquotePath undoes git's C-style quoting of unusual file names
func unquotePath(p string) string {
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if s, err := strconv.Unquote(p); err == nil {
			return s
		}
	}
	return p
}
