package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// findEnvFile returns the path of the nearest regular file called name,
// looking in the working directory and then in each parent up to the
// filesystem root. An absolute name is only checked in place. An empty
// name means ".env".
func findEnvFile(name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("env file %s: %w", name, os.ErrNotExist)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("env file %s: %w", name, err)
	}
	for {
		if candidate := filepath.Join(dir, name); isFile(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("env file %s: %w", name, os.ErrNotExist)
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
