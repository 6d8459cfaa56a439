// Package filex has filesystem helpers for the CLI.
package filex

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ReadPhoto loads an image from disk and sniffs its content type.
// Anything that is not an image is rejected.
func ReadPhoto(path string, maxBytes int64) ([]byte, string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if fi.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && fi.Size() > maxBytes {
		return nil, "", fmt.Errorf("%s is larger than %d bytes", path, maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}

	ct := http.DetectContentType(data)
	switch ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return data, ct, nil
	}
	return nil, "", fmt.Errorf("%s is not an image (%s)", path, ct)
}
