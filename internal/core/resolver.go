package core

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Well-known metadata attached to items resolved from glob patterns.
const (
	MetaFullPath  = "FullPath"
	MetaFilename  = "Filename"
	MetaExtension = "Extension"
	MetaDirectory = "Directory"
)

// IncludeResolver expands a build-script include list into a Collection.
//
// An include list is a ';'-separated list of entries. Each entry is either a
// literal identity or a glob pattern:
//   - Literal entries become items verbatim, whether or not a file exists.
//   - Glob entries are expanded relative to BaseDir. Directories are skipped,
//     matches of one entry are strictly sorted, and "**" matches any number
//     of directories.
//
// Entry order is preserved and duplicates are kept; deduplication is an
// operation of its own (RemoveDuplicateFiles).
//
// This is the only part of the package that reads the filesystem.
type IncludeResolver struct {
	// BaseDir is the absolute directory relative patterns are resolved against.
	BaseDir string
}

// NewIncludeResolver creates a new IncludeResolver with the given base directory.
func NewIncludeResolver(baseDir string) *IncludeResolver {
	return &IncludeResolver{BaseDir: baseDir}
}

// Resolve expands the include list. An empty list resolves to an empty
// (not absent) collection.
func (r *IncludeResolver) Resolve(include string) (*Collection, error) {
	out := newCollectionCap(0)
	for _, raw := range strings.Split(include, ";") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !containsGlobChar(entry) {
			out.append(NewItem(entry))
			continue
		}
		matches, err := r.expandPattern(entry)
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", entry, err)
		}
		for _, m := range matches {
			out.append(r.fileItem(entry, m))
		}
	}
	return out, nil
}

// expandPattern expands a single glob pattern into a sorted list of
// absolute, slash-separated file paths. "**" may appear in any segment
// position and matches zero or more directories.
func (r *IncludeResolver) expandPattern(pattern string) ([]string, error) {
	slashed := path.Clean(strings.ReplaceAll(pattern, `\`, "/"))
	if !doublestar.ValidatePattern(slashed) {
		return nil, fmt.Errorf("invalid glob pattern: %w", doublestar.ErrBadPattern)
	}

	var matches []string
	switch {
	case filepath.IsAbs(filepath.FromSlash(slashed)):
		found, err := doublestar.FilepathGlob(filepath.FromSlash(slashed))
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		matches = found
	case !filepath.IsAbs(r.BaseDir):
		return nil, fmt.Errorf("base directory must be absolute (got %q)", r.BaseDir)
	case filepath.IsLocal(filepath.FromSlash(slashed)):
		found, err := doublestar.Glob(os.DirFS(r.BaseDir), slashed)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		for _, m := range found {
			matches = append(matches, filepath.Join(r.BaseDir, filepath.FromSlash(m)))
		}
	default:
		// Patterns reaching above BaseDir cannot be expressed on os.DirFS.
		found, err := doublestar.FilepathGlob(filepath.Join(r.BaseDir, filepath.FromSlash(slashed)))
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		matches = found
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		files = append(files, filepath.ToSlash(m))
	}
	// Must sort explicitly, do not rely on OS directory ordering.
	sort.Strings(files)
	return files, nil
}

// fileItem builds the item for a glob match. Identities of relative patterns
// stay relative to BaseDir, as written in the build script.
func (r *IncludeResolver) fileItem(pattern, match string) Item {
	identity := match
	if !filepath.IsAbs(filepath.FromSlash(strings.ReplaceAll(pattern, `\`, "/"))) {
		if rel, err := filepath.Rel(r.BaseDir, filepath.FromSlash(match)); err == nil {
			identity = filepath.ToSlash(rel)
		}
	}
	base := path.Base(match)
	ext := path.Ext(base)
	return Item{
		Identity: identity,
		Metadata: map[string]string{
			MetaFullPath:  match,
			MetaFilename:  strings.TrimSuffix(base, ext),
			MetaExtension: ext,
			MetaDirectory: path.Dir(match),
		},
	}
}

// containsGlobChar returns true if the pattern contains glob special characters.
func containsGlobChar(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}
