package root

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = ".optparser.yaml"

// FindConfig walks up from the current directory looking for .optparser.yaml.
// It stops at the first directory containing .git/ and returns "" if no
// config file was found by then.
func FindConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return findConfigFrom(dir), nil
}

func findConfigFrom(dir string) string {
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if isFile(candidate) {
			return candidate
		}
		if isDir(filepath.Join(dir, ".git")) {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
