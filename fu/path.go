package fu

import (
	"os"
	"path/filepath"
)

/*
ModelPath resolves s against the artifacts directory unless it is absolute
*/
func ModelPath(artifacts, s string) string {
	if filepath.IsAbs(s) {
		return s
	}
	return filepath.Join(artifacts, s)
}

/*
EnsureDir creates the directory together with parents when it does not exist yet
*/
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
