package core

import (
	"fmt"
	"path/filepath"
)

// GetCurrentDirectory returns the directory containing projectFile.
//
// A relative projectFile is resolved against workDir, which must then be
// absolute. The process working directory is never consulted and the
// filesystem is not accessed.
func GetCurrentDirectory(workDir, projectFile string) (string, error) {
	if projectFile == "" {
		return "", missing(InputProjectFile)
	}
	p := filepath.Clean(projectFile)
	if !filepath.IsAbs(p) {
		if !filepath.IsAbs(workDir) {
			return "", fmt.Errorf("resolving %q: working directory must be absolute (got %q)", projectFile, workDir)
		}
		p = filepath.Join(workDir, p)
	}
	return filepath.Dir(p), nil
}
