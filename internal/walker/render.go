package walker

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/codectx/codectx/internal/utils"
)

const (
	fileBlockOpenFormat      = "<file path=%q>"
	fileBlockErrorFormat     = "<file path=%q error=%q>"
	fileBlockCloseTag        = "</file>"
	directoryStructureOpen   = "<directory_structure>"
	directoryStructureClose  = "</directory_structure>"
	fileContentsOpen         = "<file_contents>"
	fileContentsClose        = "</file_contents>"
	binaryContentErrorReason = "binary content omitted"
)

// FileContents renders one block per content file, joined by blank lines.
// Each block wraps the file's root-relative path and its text. A file that
// cannot be read or holds binary data still yields a block carrying an error
// marker instead of content; a single bad file never aborts the run.
func (walker *Walker) FileContents() (string, error) {
	contentFilePaths, walkError := walker.ContentFilePaths()
	if walkError != nil {
		return "", walkError
	}

	blocks := make([]string, 0, len(contentFilePaths))
	for _, contentFilePath := range contentFilePaths {
		relativeFilePath := utils.RelativePathOrSelf(contentFilePath, walker.startPath)
		fileBytes, fileReadError := os.ReadFile(contentFilePath)
		if fileReadError != nil {
			walker.logger.Warn("failed to read content file",
				zap.String("path", contentFilePath),
				zap.Error(fileReadError))
			blocks = append(blocks, renderErrorBlock(relativeFilePath, fileReadError.Error()))
			continue
		}
		if utils.IsBinary(fileBytes) {
			blocks = append(blocks, renderErrorBlock(relativeFilePath, binaryContentErrorReason))
			continue
		}
		blocks = append(blocks, renderFileBlock(relativeFilePath, string(fileBytes)))
	}

	return strings.Join(blocks, "\n\n"), nil
}

// FullContext concatenates the tree block and, only when at least one content
// file exists, the file-contents block. An empty content set produces the
// tree block alone, with no empty wrapper.
func (walker *Walker) FullContext() (string, error) {
	directoryTree, treeError := walker.DirectoryTree()
	if treeError != nil {
		return "", treeError
	}

	var output strings.Builder
	output.WriteString(directoryStructureOpen)
	output.WriteString("\n")
	output.WriteString(directoryTree)
	output.WriteString("\n")
	output.WriteString(directoryStructureClose)

	if len(walker.contentFilePaths) == 0 {
		return output.String(), nil
	}

	fileContents, contentsError := walker.FileContents()
	if contentsError != nil {
		return "", contentsError
	}

	output.WriteString("\n\n")
	output.WriteString(fileContentsOpen)
	output.WriteString("\n")
	output.WriteString(fileContents)
	output.WriteString("\n")
	output.WriteString(fileContentsClose)

	return output.String(), nil
}

// renderFileBlock wraps file content between tagged path markers. Content is
// emitted as-is with exactly one newline separating it from the closing tag.
func renderFileBlock(relativeFilePath string, content string) string {
	trimmedContent := strings.TrimSuffix(content, "\n")
	return fmt.Sprintf(fileBlockOpenFormat, relativeFilePath) + "\n" + trimmedContent + "\n" + fileBlockCloseTag
}

// renderErrorBlock emits a content block whose body is replaced by an error marker.
func renderErrorBlock(relativeFilePath string, reason string) string {
	return fmt.Sprintf(fileBlockErrorFormat, relativeFilePath, reason) + "\n" + fileBlockCloseTag
}

// joinLines joins tree lines into the newline-separated listing.
func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
