package usecase

import (
	"bufio"
	"fmt"
	"strings"
)

// Tag is one of the recognized branch-line tokens (§3).
type Tag string

const (
	TagMutable   Tag = "MUTABLE"
	TagImmutable Tag = "IMMUTABLE"
	TagCompress  Tag = "COMPRESS"
	TagEncrypt   Tag = "ENCRYPT"
	TagLocked    Tag = "LOCKED"
	TagExclude   Tag = "EXCLUDE"
)

// BranchRootSentinel names the synthetic leaf bundling loose root files of
// a MUTABLE branch (§3).
const BranchRootSentinel = "__BRANCH_ROOT__"

// Branch is one declaratively specified root to mirror (§3).
type Branch struct {
	// Path is either a local absolute path or "user@host:/remote/path".
	Path string

	Immutable bool
	Compress  bool
	Encrypt   bool
	Locked    bool
	Excludes  []string // EXCLUDE <name> values, case preserved

	Remote *RemoteTarget // nil for local branches
}

// IsRemote reports whether Path names a remote branch (user@host:/path).
func (b Branch) IsRemote() bool {
	return b.Remote != nil
}

// ParseTreeFile parses the declarative branch-tree file (§6): one branch
// per non-empty, non-comment line, whitespace-delimited path followed by
// optional "::TAG" tokens.
func ParseTreeFile(content string) ([]Branch, error) {
	var branches []Branch
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		branch, err := parseBranchLine(line)
		if err != nil {
			return nil, fmt.Errorf("tree file line %d: %w: %w", lineNo, err, ErrUsage)
		}
		branches = append(branches, branch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tree file: %w: %w", err, ErrUsage)
	}
	return branches, nil
}

func parseBranchLine(line string) (Branch, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Branch{}, fmt.Errorf("empty branch line")
	}

	branch := Branch{Path: fields[0]}
	if target, _, ok := parseRemoteSpec(fields[0]); ok {
		target.Port = "22"
		branch.Remote = target
	}

	i := 1
	for i < len(fields) {
		raw := fields[i]
		i++

		// Both "::TAG" and ":: TAG" are accepted (§6 grammar).
		var token string
		switch {
		case raw == "::":
			if i >= len(fields) {
				return Branch{}, fmt.Errorf("dangling :: with no tag")
			}
			token = fields[i]
			i++
		case strings.HasPrefix(raw, "::"):
			token = strings.TrimPrefix(raw, "::")
		default:
			return Branch{}, fmt.Errorf("unrecognized token %q (expected ::TAG)", raw)
		}

		upper := strings.ToUpper(token)
		switch {
		case upper == string(TagMutable):
			// default; explicit mention is a no-op.
		case upper == string(TagImmutable):
			branch.Immutable = true
		case upper == string(TagCompress):
			branch.Compress = true
		case upper == string(TagEncrypt):
			branch.Encrypt = true
		case upper == string(TagLocked):
			branch.Locked = true
		case upper == string(TagExclude):
			// EXCLUDE takes the next whitespace-delimited token as its
			// case-sensitive value.
			if i >= len(fields) {
				return Branch{}, fmt.Errorf("EXCLUDE tag requires a name")
			}
			branch.Excludes = append(branch.Excludes, fields[i])
			i++
		case strings.HasPrefix(upper, string(TagExclude)+"="):
			branch.Excludes = append(branch.Excludes, token[len(string(TagExclude))+1:])
		default:
			return Branch{}, fmt.Errorf("unrecognized tag %q", token)
		}
	}
	return branch, nil
}

func parseRemoteSpec(path string) (*RemoteTarget, string, bool) {
	at := strings.Index(path, "@")
	colon := strings.Index(path, ":")
	if at <= 0 || colon <= at || !strings.HasPrefix(path[colon+1:], "/") {
		return nil, "", false
	}
	user := path[:at]
	host := path[at+1 : colon]
	remotePath := path[colon+1:]
	if user == "" || host == "" {
		return nil, "", false
	}
	return &RemoteTarget{User: user, Host: host}, remotePath, true
}

// RemotePath returns the remote filesystem path for a remote branch, or
// the local path otherwise.
func (b Branch) RemotePath() string {
	if b.Remote == nil {
		return b.Path
	}
	colon := strings.Index(b.Path, ":")
	return b.Path[colon+1:]
}

// String renders the branch back to its tree-file line form (used by
// diagnostics and tests).
func (b Branch) String() string {
	var sb strings.Builder
	sb.WriteString(b.Path)
	if b.Immutable {
		sb.WriteString(" ::IMMUTABLE")
	}
	if b.Compress {
		sb.WriteString(" ::COMPRESS")
	}
	if b.Encrypt {
		sb.WriteString(" ::ENCRYPT")
	}
	if b.Locked {
		sb.WriteString(" ::LOCKED")
	}
	for _, ex := range b.Excludes {
		sb.WriteString(" ::EXCLUDE=")
		sb.WriteString(ex)
	}
	return sb.String()
}

// BranchKey returns a stable catalog key for a branch (its path).
func BranchKey(b Branch) string {
	return b.Path
}

// BranchShortName derives the "<branch-short>" component of the object
// key layout (§6) from the branch's final path segment.
func BranchShortName(b Branch) string {
	path := strings.TrimSuffix(b.RemotePath(), "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// BranchHost returns the "<host>" component of the object key layout
// (§6): the remote hostname for a remote branch, or the configured
// local host id otherwise.
func BranchHost(b Branch, localHostID string) string {
	if b.Remote != nil {
		return b.Remote.Host
	}
	return localHostID
}

// LocalRoot returns the directory the engine reads for fingerprinting
// and plain-variant packing: the branch path itself for local
// branches, or the branch's subpath mounted under remoteMountBase for
// remote ones (§4.2 assumes remote branches are FUSE-mounted locally
// for cheap repeated scanning; the Remote Stager is only invoked to
// mirror an individual leaf into scratch space before packing).
func (b Branch) LocalRoot(remoteMountBase string) string {
	if b.Remote == nil {
		return b.Path
	}
	return strings.TrimSuffix(remoteMountBase, "/") + "/" + b.Remote.Host + b.RemotePath()
}
