// Package rules evaluates candidate paths against the active rule set.
//
// A RuleSet reconciles four independent rule sources: the default ignored
// names, .gitignore patterns, user exclusion rules, and user inclusion rules.
// Precedence, highest to lowest: default ignored names, hard excludes
// (gitignore, exclude extensions, exclude files, exclude patterns), tree-only
// rules (content suppression), inclusion rules.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codectx/codectx/internal/utils"
)

// Classification is the verdict for a single candidate path.
type Classification int

const (
	// Excluded paths appear in neither the tree nor the content output.
	Excluded Classification = iota
	// TreeOnly paths appear in the tree listing but their content is never emitted.
	TreeOnly
	// ContentIncluded paths appear in the tree and have their content emitted.
	ContentIncluded
)

// ErrInvalidPattern reports a glob pattern that failed compilation.
var ErrInvalidPattern = errors.New("invalid pattern")

// DefaultIgnoredNames lists path segments that are always excluded and can
// never be re-included by inclusion rules.
var DefaultIgnoredNames = []string{
	".git",
	".venv",
	"node_modules",
	"__pycache__",
	".DS_Store",
}

// Options carries the raw, caller-supplied rule values for one invocation.
// Extensions may be bare ("py") or dotted (".py"); explicit file entries may
// use either path separator. GitignoreLines holds the raw lines of the scan
// root's .gitignore file, if any.
type Options struct {
	IncludeExtensions []string
	IncludeFiles      []string
	IncludePatterns   []string
	ExcludeExtensions []string
	ExcludeFiles      []string
	ExcludePatterns   []string
	IncludeInTreeOnly []string
	GitignoreLines    []string

	// DefaultIgnoredNames overrides the package-level default set when
	// non-nil. Tests substitute alternate sets through this field.
	DefaultIgnoredNames []string
}

// RuleSet is the immutable, compiled form of Options. Classification through
// a RuleSet performs no I/O and mutates no state.
type RuleSet struct {
	includeExtensions   []string
	includeFiles        map[string]struct{}
	includeSpec         *ignore.GitIgnore
	excludeExtensions   []string
	excludeFiles        map[string]struct{}
	excludeSpec         *ignore.GitIgnore
	treeOnlyNames       map[string]struct{}
	treeOnlyExtensions  []string
	defaultIgnoredNames map[string]struct{}
	gitignoreSpec       *ignore.GitIgnore
}

// NewRuleSet normalizes and compiles the provided options. Every user-supplied
// glob pattern is validated up front; a malformed pattern fails construction
// with ErrInvalidPattern and the offending pattern string. Patterns loaded
// from .gitignore are applied best effort, the way git itself treats them.
func NewRuleSet(options Options) (*RuleSet, error) {
	if validationError := validatePatterns(options.IncludePatterns); validationError != nil {
		return nil, validationError
	}
	if validationError := validatePatterns(options.ExcludePatterns); validationError != nil {
		return nil, validationError
	}

	ruleSet := &RuleSet{
		includeFiles:        normalizePathSet(options.IncludeFiles),
		excludeFiles:        normalizePathSet(options.ExcludeFiles),
		includeExtensions:   normalizeExtensions(options.IncludeExtensions),
		excludeExtensions:   normalizeExtensions(options.ExcludeExtensions),
		treeOnlyNames:       map[string]struct{}{},
		defaultIgnoredNames: map[string]struct{}{},
	}

	ignoredNames := options.DefaultIgnoredNames
	if ignoredNames == nil {
		ignoredNames = DefaultIgnoredNames
	}
	for _, ignoredName := range ignoredNames {
		ruleSet.defaultIgnoredNames[ignoredName] = struct{}{}
	}

	for _, treeOnlyEntry := range utils.DeduplicateStrings(options.IncludeInTreeOnly) {
		trimmedEntry := strings.TrimSpace(treeOnlyEntry)
		if trimmedEntry == "" {
			continue
		}
		if strings.HasPrefix(trimmedEntry, ".") && !strings.Contains(trimmedEntry[1:], ".") {
			ruleSet.treeOnlyExtensions = append(ruleSet.treeOnlyExtensions, trimmedEntry)
			continue
		}
		ruleSet.treeOnlyNames[trimmedEntry] = struct{}{}
	}

	ruleSet.includeSpec = compilePatternLines(options.IncludePatterns)
	ruleSet.excludeSpec = compilePatternLines(options.ExcludePatterns)
	ruleSet.gitignoreSpec = compilePatternLines(options.GitignoreLines)

	return ruleSet, nil
}

// HasIncludeRules reports whether any content inclusion rule is configured.
func (ruleSet *RuleSet) HasIncludeRules() bool {
	return len(ruleSet.includeExtensions) > 0 || len(ruleSet.includeFiles) > 0 || ruleSet.includeSpec != nil
}

// HasTreeOnlyRules reports whether any tree-only rule is configured.
func (ruleSet *RuleSet) HasTreeOnlyRules() bool {
	return len(ruleSet.treeOnlyNames) > 0 || len(ruleSet.treeOnlyExtensions) > 0
}

// Classify evaluates a path relative to the scan root, in forward-slash form,
// and returns its classification. Directories are classified only for
// exclusion and tree visibility; they are never content candidates. A
// directory classified Excluded must be pruned from traversal entirely.
func (ruleSet *RuleSet) Classify(relativePath string, isDirectory bool) Classification {
	normalizedPath := utils.NormalizeRelativePath(relativePath)
	if normalizedPath == "" || normalizedPath == "." {
		return TreeOnly
	}

	pathSegments := strings.Split(normalizedPath, "/")
	for _, pathSegment := range pathSegments {
		if _, isIgnored := ruleSet.defaultIgnoredNames[pathSegment]; isIgnored {
			return Excluded
		}
	}

	baseName := pathSegments[len(pathSegments)-1]

	if ruleSet.matchesSpec(ruleSet.gitignoreSpec, normalizedPath, isDirectory) {
		return Excluded
	}
	if !isDirectory && matchesExtension(ruleSet.excludeExtensions, baseName) {
		return Excluded
	}
	if _, isExcludedFile := ruleSet.excludeFiles[normalizedPath]; isExcludedFile {
		return Excluded
	}
	if ruleSet.matchesSpec(ruleSet.excludeSpec, normalizedPath, isDirectory) {
		return Excluded
	}

	if isDirectory {
		return TreeOnly
	}

	treeOnlyMatched := ruleSet.matchesTreeOnly(baseName)

	contentCandidate := false
	if _, isIncludedFile := ruleSet.includeFiles[normalizedPath]; isIncludedFile {
		contentCandidate = true
	} else if matchesExtension(ruleSet.includeExtensions, baseName) {
		contentCandidate = true
	} else if ruleSet.includeSpec != nil && ruleSet.includeSpec.MatchesPath(normalizedPath) {
		contentCandidate = true
	}

	switch {
	case treeOnlyMatched:
		return TreeOnly
	case contentCandidate:
		return ContentIncluded
	default:
		return Excluded
	}
}

// matchesSpec evaluates a compiled gitignore-style spec against the path.
// Directories are additionally tested with a trailing slash so that
// directory-anchored patterns such as "build/" match the directory itself.
func (ruleSet *RuleSet) matchesSpec(spec *ignore.GitIgnore, normalizedPath string, isDirectory bool) bool {
	if spec == nil {
		return false
	}
	if spec.MatchesPath(normalizedPath) {
		return true
	}
	return isDirectory && spec.MatchesPath(normalizedPath+"/")
}

// matchesTreeOnly reports whether the file name matches a tree-only rule by
// exact name or by extension suffix.
func (ruleSet *RuleSet) matchesTreeOnly(baseName string) bool {
	if _, matched := ruleSet.treeOnlyNames[baseName]; matched {
		return true
	}
	return matchesExtension(ruleSet.treeOnlyExtensions, baseName)
}

// matchesExtension performs case-sensitive suffix matching on the final path
// component, so "archive.tar.gz" matches the ".gz" extension.
func matchesExtension(extensions []string, baseName string) bool {
	for _, extension := range extensions {
		if strings.HasSuffix(baseName, extension) {
			return true
		}
	}
	return false
}

// normalizeExtensions returns a deduplicated slice of dotted extensions.
func normalizeExtensions(extensions []string) []string {
	var normalized []string
	for _, extension := range utils.DeduplicateStrings(extensions) {
		dottedExtension := utils.NormalizeExtension(extension)
		if dottedExtension != "" {
			normalized = append(normalized, dottedExtension)
		}
	}
	return normalized
}

// normalizePathSet returns a set of forward-slash relative paths.
func normalizePathSet(relativePaths []string) map[string]struct{} {
	pathSet := make(map[string]struct{}, len(relativePaths))
	for _, relativePath := range relativePaths {
		normalizedPath := utils.NormalizeRelativePath(relativePath)
		if normalizedPath != "" {
			pathSet[normalizedPath] = struct{}{}
		}
	}
	return pathSet
}

// compilePatternLines compiles gitignore-syntax lines into a matcher.
// Blank lines and comments are skipped; nil is returned when no effective
// pattern remains so callers can distinguish "no rules" cheaply.
func compilePatternLines(patternLines []string) *ignore.GitIgnore {
	var effectiveLines []string
	for _, patternLine := range patternLines {
		trimmedLine := strings.TrimSpace(patternLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		effectiveLines = append(effectiveLines, trimmedLine)
	}
	if len(effectiveLines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(effectiveLines...)
}

// validatePatterns checks each user-supplied pattern for glob validity,
// ignoring the gitignore-specific negation prefix and directory anchor.
func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" || strings.HasPrefix(trimmedPattern, "#") {
			continue
		}
		globBody := strings.TrimPrefix(trimmedPattern, "!")
		globBody = strings.TrimSuffix(globBody, "/")
		if globBody == "" {
			continue
		}
		if !doublestar.ValidatePattern(globBody) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}
	return nil
}
