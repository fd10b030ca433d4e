package utils

import (
	"path/filepath"
	"reflect"
	"testing"
)

// TestDeduplicateStrings verifies order-preserving deduplication.
func TestDeduplicateStrings(testingHandle *testing.T) {
	deduplicated := DeduplicateStrings([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(deduplicated, []string{"a", "b", "c"}) {
		testingHandle.Fatalf("unexpected result: %v", deduplicated)
	}
}

// TestNormalizeExtension verifies dotted-form normalization.
func TestNormalizeExtension(testingHandle *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"py", ".py"},
		{".py", ".py"},
		{" md ", ".md"},
		{"", ""},
		{".tar.gz", ".tar.gz"},
	}
	for _, testCase := range testCases {
		if normalized := NormalizeExtension(testCase.input); normalized != testCase.expected {
			testingHandle.Fatalf("NormalizeExtension(%q) = %q, want %q", testCase.input, normalized, testCase.expected)
		}
	}
}

// TestNormalizeRelativePath verifies forward-slash normalization of rule paths.
func TestNormalizeRelativePath(testingHandle *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"./src/main.py", "src/main.py"},
		{"src/main.py", "src/main.py"},
		{"docs/", "docs"},
		{" README.md ", "README.md"},
	}
	for _, testCase := range testCases {
		if normalized := NormalizeRelativePath(testCase.input); normalized != testCase.expected {
			testingHandle.Fatalf("NormalizeRelativePath(%q) = %q, want %q", testCase.input, normalized, testCase.expected)
		}
	}
}

// TestRelativePathOrSelf verifies relative path calculation against a root.
func TestRelativePathOrSelf(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()

	if relative := RelativePathOrSelf(rootDirectory, rootDirectory); relative != "." {
		testingHandle.Fatalf("expected '.', got %q", relative)
	}

	nestedPath := filepath.Join(rootDirectory, "src", "main.py")
	if relative := RelativePathOrSelf(nestedPath, rootDirectory); relative != "src/main.py" {
		testingHandle.Fatalf("expected 'src/main.py', got %q", relative)
	}
}

// TestIsBinary verifies binary detection on null bytes and invalid UTF-8.
func TestIsBinary(testingHandle *testing.T) {
	if IsBinary([]byte("plain text")) {
		testingHandle.Fatalf("expected text to be non-binary")
	}
	if IsBinary(nil) {
		testingHandle.Fatalf("expected empty data to be non-binary")
	}
	if !IsBinary([]byte{0x68, 0x00, 0x69}) {
		testingHandle.Fatalf("expected null byte to mark data binary")
	}
	if !IsBinary([]byte{0xFF, 0xFE, 0xFD}) {
		testingHandle.Fatalf("expected invalid UTF-8 to mark data binary")
	}
}
