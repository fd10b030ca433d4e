package rules

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/codectx/codectx/internal/utils"
)

// LoadGitignoreLines reads the .gitignore file at the root of the scan
// directory and returns its raw lines. A missing file is not an error and
// yields a nil slice.
func LoadGitignoreLines(rootDirectory string) ([]string, error) {
	gitignoreFilePath := filepath.Join(rootDirectory, utils.GitIgnoreFileName)
	fileHandle, openFileError := os.Open(gitignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer fileHandle.Close()

	var patternLines []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		patternLines = append(patternLines, scanner.Text())
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patternLines, nil
}
