// Package walker performs a single lazy traversal of a directory subtree,
// consulting the rule set at every entry to prune directories and classify
// files, and renders the resulting context artifact.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/codectx/codectx/internal/rules"
	"github.com/codectx/codectx/internal/utils"
)

const (
	indentUnit          = "    "
	directorySuffix     = "/"
	errorReadRootFormat = "reading root directory %s: %w"
	errorAbsPathFormat  = "resolving absolute path for %s: %w"
)

// Walker traverses the subtree rooted at a start path exactly once and caches
// the two ordered outputs: the rendered tree lines and the list of content
// file paths. Construction performs no I/O; the first accessor call triggers
// the walk, and concurrent callers observe the walk at most once.
type Walker struct {
	startPath string
	ruleSet   *rules.RuleSet
	logger    *zap.Logger

	walkOnce         sync.Once
	walkError        error
	treeLines        []string
	contentFilePaths []string
}

// NewWalker resolves startPath to an absolute path and prepares a walker over
// it using the provided rule set. A nil logger is replaced with a no-op one.
func NewWalker(startPath string, ruleSet *rules.RuleSet, logger *zap.Logger) (*Walker, error) {
	absoluteStartPath, absolutePathError := filepath.Abs(startPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsPathFormat, startPath, absolutePathError)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		startPath: filepath.Clean(absoluteStartPath),
		ruleSet:   ruleSet,
		logger:    logger,
	}, nil
}

// StartPath returns the absolute root of the traversal.
func (walker *Walker) StartPath() string {
	return walker.startPath
}

// DirectoryTree returns the newline-joined tree listing. The first call
// performs the traversal; later calls return the cached result.
func (walker *Walker) DirectoryTree() (string, error) {
	if walkError := walker.ensureWalked(); walkError != nil {
		return "", walkError
	}
	return joinLines(walker.treeLines), nil
}

// ContentFilePaths returns the absolute paths of all content-included files,
// sorted lexicographically. The returned slice is a copy; callers cannot
// disturb the cache.
func (walker *Walker) ContentFilePaths() ([]string, error) {
	if walkError := walker.ensureWalked(); walkError != nil {
		return nil, walkError
	}
	pathsCopy := make([]string, len(walker.contentFilePaths))
	copy(pathsCopy, walker.contentFilePaths)
	return pathsCopy, nil
}

// ensureWalked runs the traversal exactly once and memoizes its outcome.
func (walker *Walker) ensureWalked() error {
	walker.walkOnce.Do(func() {
		walker.walkError = walker.walk()
	})
	return walker.walkError
}

// walk populates both cached outputs in one depth-first pass.
func (walker *Walker) walk() error {
	walker.treeLines = append(walker.treeLines, filepath.Base(walker.startPath)+directorySuffix)
	if walkError := walker.walkDirectory(walker.startPath, 1); walkError != nil {
		return walkError
	}
	sort.Strings(walker.contentFilePaths)
	return nil
}

// walkDirectory processes one directory level: visible files first, then
// subdirectories, each in name order. Excluded directories are pruned before
// descent so their subtrees are never read.
func (walker *Walker) walkDirectory(directoryPath string, depth int) error {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		if directoryPath == walker.startPath {
			return fmt.Errorf(errorReadRootFormat, directoryPath, readDirectoryError)
		}
		walker.logger.Warn("skipping unreadable directory",
			zap.String("path", directoryPath),
			zap.Error(readDirectoryError))
		return nil
	}

	var subdirectories []os.DirEntry
	indent := indentForDepth(depth)

	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(directoryPath, directoryEntry.Name())
		relativeEntryPath := utils.RelativePathOrSelf(entryPath, walker.startPath)

		if directoryEntry.IsDir() {
			if walker.ruleSet.Classify(relativeEntryPath, true) == rules.Excluded {
				continue
			}
			subdirectories = append(subdirectories, directoryEntry)
			continue
		}

		switch walker.ruleSet.Classify(relativeEntryPath, false) {
		case rules.ContentIncluded:
			walker.treeLines = append(walker.treeLines, indent+directoryEntry.Name())
			walker.contentFilePaths = append(walker.contentFilePaths, entryPath)
		case rules.TreeOnly:
			walker.treeLines = append(walker.treeLines, indent+directoryEntry.Name())
		}
	}

	for _, subdirectory := range subdirectories {
		subdirectoryPath := filepath.Join(directoryPath, subdirectory.Name())
		walker.treeLines = append(walker.treeLines, indent+subdirectory.Name()+directorySuffix)
		if walkError := walker.walkDirectory(subdirectoryPath, depth+1); walkError != nil {
			return walkError
		}
	}

	return nil
}

// indentForDepth renders the indentation prefix for a tree line.
func indentForDepth(depth int) string {
	return strings.Repeat(indentUnit, depth)
}
