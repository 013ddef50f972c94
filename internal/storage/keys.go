package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey builds a collision-free key for a user's uploaded file:
// <prefix>/users/<userID>/<category>/<uuid><ext>.
func ObjectKey(prefix string, userID int64, category, fileName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	name := uuid.NewString() + ext

	parts := []string{}
	if trimmed := strings.Trim(prefix, "/"); trimmed != "" {
		parts = append(parts, trimmed)
	}
	parts = append(parts, "users", fmt.Sprintf("%d", userID), category, name)
	return path.Join(parts...)
}

// Location renders the canonical s3:// form of an object.
func Location(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, strings.TrimPrefix(key, "/"))
}

// ParseLocation splits an s3:// location into bucket and key.
func ParseLocation(location string) (string, string, error) {
	if !strings.HasPrefix(location, "s3://") {
		return "", "", fmt.Errorf("invalid s3 location")
	}
	rest := strings.TrimPrefix(location, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid s3 location")
	}
	if len(parts) == 1 || strings.TrimPrefix(parts[1], "/") == "" {
		return "", "", fmt.Errorf("s3 key missing")
	}
	return parts[0], strings.TrimPrefix(parts[1], "/"), nil
}
