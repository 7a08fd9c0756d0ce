package usecase

import (
	"bufio"
	"strings"
)

// ParseExcludeFile parses the plain-text exclude file (§6): one
// substring-of-full-path pattern per non-empty, non-comment line.
//
// Exclude matching is kept as substring-of-full-path per the original
// implementation's semantics (see DESIGN.md Open Question #2). A
// path_segment_excludes config flag to tighten this to exact path-segment
// matches is a named, deliberately unimplemented TODO: tightening it
// changes wire-compatible behavior and should ship as an opt-in release,
// not silently here.
func ParseExcludeFile(content string) []string {
	var patterns []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// MatchesExclude reports whether path contains any exclude pattern as a
// substring (§4.1).
func MatchesExclude(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// RewriteExcludesForLeaf rewrites branch-level exclude patterns to be
// relative to a single leaf subtree before handing them to the Remote
// Stager (§4.2):
//
//   - a pattern rooted at "<leafSubpath>/" is rewritten to "/…" (relative
//     to the leaf root);
//   - a slash-free pattern (a bare name, matched anywhere) propagates
//     unchanged;
//   - any other pattern — rooted elsewhere in the branch — cannot match
//     inside this leaf and is dropped.
func RewriteExcludesForLeaf(patterns []string, leafSubpath string) []string {
	prefix := strings.TrimSuffix(leafSubpath, "/") + "/"
	var rewritten []string
	for _, p := range patterns {
		switch {
		case !strings.Contains(p, "/"):
			rewritten = append(rewritten, p)
		case strings.HasPrefix(p, prefix):
			rewritten = append(rewritten, "/"+strings.TrimPrefix(p, prefix))
		default:
			// Out-of-leaf pattern; dropped.
		}
	}
	return rewritten
}
