package discovery

import (
	"path/filepath"
	"strings"

	"github.com/zippoxer/codex-search/core"
)

// NormalizePath resolves symlinks and cleans p. Paths that cannot be
// resolved are only cleaned.
func NormalizePath(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}

// PathsRelated reports whether either path contains the other, comparing
// whole path components.
func PathsRelated(a, b string) bool {
	return hasPathPrefix(a, b) || hasPathPrefix(b, a)
}

func hasPathPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// CWDFilter returns a predicate keeping sessions whose working directory is
// related to cwd. Sessions that never recorded a directory are dropped.
func CWDFilter(cwd string) func(*core.Session) bool {
	want := NormalizePath(cwd)
	return func(s *core.Session) bool {
		if s.CWD == "" {
			return false
		}
		return PathsRelated(NormalizePath(s.CWD), want)
	}
}

// FilterByCWD keeps the sessions accepted by CWDFilter(cwd), in order.
func FilterByCWD(sessions []*core.Session, cwd string) []*core.Session {
	keep := CWDFilter(cwd)
	out := make([]*core.Session, 0, len(sessions))
	for _, s := range sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
