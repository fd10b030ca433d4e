// Package utils contains general helper functions used across the codectx tool.
package utils

import (
	"path/filepath"
	"strings"
)

// GitIgnoreFileName is the name of the Git ignore file read from the scan root.
const GitIgnoreFileName = ".gitignore"

const extensionPrefix = "."

// DeduplicateStrings removes duplicate values from a slice while preserving order.
// The first occurrence of each unique value is kept.
func DeduplicateStrings(values []string) []string {
	encounteredValues := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := encounteredValues[value]; !exists {
			encounteredValues[value] = struct{}{}
			result = append(result, value)
		}
	}
	return result
}

// NormalizeExtension returns the extension in dotted form. A bare name such
// as "py" becomes ".py"; an already dotted extension is returned unchanged.
// Empty input yields an empty string.
func NormalizeExtension(extension string) string {
	trimmedExtension := strings.TrimSpace(extension)
	if trimmedExtension == "" {
		return ""
	}
	if strings.HasPrefix(trimmedExtension, extensionPrefix) {
		return trimmedExtension
	}
	return extensionPrefix + trimmedExtension
}

// NormalizeRelativePath converts a relative path to forward-slash form and
// strips a leading "./" so explicit file rules compare identically on every
// platform.
func NormalizeRelativePath(relativePath string) string {
	slashedPath := filepath.ToSlash(strings.TrimSpace(relativePath))
	slashedPath = strings.TrimPrefix(slashedPath, "./")
	return strings.TrimSuffix(slashedPath, "/")
}

// RelativePathOrSelf calculates the forward-slash relative path from root to
// fullPath. Returns the cleaned fullPath if relative calculation fails and "."
// if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath string, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relativeError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}
