// Package functions extracts function definitions from Python source files.
// It consumes the walker's content file list and returns name, docstring, and
// source for every function found.
package functions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	python "github.com/smacker/go-tree-sitter/python"
	"go.uber.org/zap"
)

const (
	pythonFileExtension           = ".py"
	pythonFunctionNodeType        = "function_definition"
	pythonExpressionStatementType = "expression_statement"
	pythonStringNodeType          = "string"
	pythonNameField               = "name"
	pythonBodyField               = "body"

	errorParseSourceFormat = "parsing python source: %w"
)

// Function is one extracted function definition.
type Function struct {
	Name      string
	Docstring string
	Source    string
}

// Extractor parses Python sources and collects function definitions.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor constructs an Extractor with a Python grammar attached.
func NewExtractor() *Extractor {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Extractor{parser: parser}
}

// ExtractFromFiles collects functions from every Python file in filePaths.
// Non-Python files are skipped; per-file read or parse failures are logged
// as warnings and do not abort the extraction.
func (extractor *Extractor) ExtractFromFiles(filePaths []string, logger *zap.Logger) []Function {
	if logger == nil {
		logger = zap.NewNop()
	}
	var collected []Function
	for _, filePath := range filePaths {
		if filepath.Ext(filePath) != pythonFileExtension {
			continue
		}
		sourceBytes, readError := os.ReadFile(filePath)
		if readError != nil {
			logger.Warn("failed to read source file",
				zap.String("path", filePath),
				zap.Error(readError))
			continue
		}
		fileFunctions, extractError := extractor.ExtractFromSource(sourceBytes)
		if extractError != nil {
			logger.Warn("failed to parse source file",
				zap.String("path", filePath),
				zap.Error(extractError))
			continue
		}
		collected = append(collected, fileFunctions...)
	}
	return collected
}

// ExtractFromSource parses one Python source buffer and returns its function
// definitions in document order, nested functions included.
func (extractor *Extractor) ExtractFromSource(sourceBytes []byte) ([]Function, error) {
	parsedTree, parseError := extractor.parser.ParseCtx(context.Background(), nil, sourceBytes)
	if parseError != nil {
		return nil, fmt.Errorf(errorParseSourceFormat, parseError)
	}
	defer parsedTree.Close()

	var collected []Function
	collectFunctionNodes(parsedTree.RootNode(), sourceBytes, &collected)
	return collected, nil
}

// collectFunctionNodes walks the syntax tree and appends every function definition.
func collectFunctionNodes(node *sitter.Node, sourceBytes []byte, collected *[]Function) {
	if node == nil {
		return
	}
	if node.Type() == pythonFunctionNodeType {
		if extracted, ok := buildFunction(node, sourceBytes); ok {
			*collected = append(*collected, extracted)
		}
	}
	for childIndex := 0; childIndex < int(node.NamedChildCount()); childIndex++ {
		collectFunctionNodes(node.NamedChild(childIndex), sourceBytes, collected)
	}
}

// buildFunction assembles a Function from a function_definition node.
func buildFunction(functionNode *sitter.Node, sourceBytes []byte) (Function, bool) {
	nameNode := functionNode.ChildByFieldName(pythonNameField)
	if nameNode == nil {
		return Function{}, false
	}
	extracted := Function{
		Name:   nameNode.Content(sourceBytes),
		Source: functionNode.Content(sourceBytes),
	}
	if bodyNode := functionNode.ChildByFieldName(pythonBodyField); bodyNode != nil {
		extracted.Docstring = extractDocstring(bodyNode, sourceBytes)
	}
	return extracted, true
}

// extractDocstring returns the unquoted leading string literal of a function
// body, or the empty string when the function has no docstring.
func extractDocstring(bodyNode *sitter.Node, sourceBytes []byte) string {
	if bodyNode.NamedChildCount() == 0 {
		return ""
	}
	firstStatement := bodyNode.NamedChild(0)
	if firstStatement == nil || firstStatement.Type() != pythonExpressionStatementType {
		return ""
	}
	if firstStatement.NamedChildCount() == 0 {
		return ""
	}
	stringNode := firstStatement.NamedChild(0)
	if stringNode == nil || stringNode.Type() != pythonStringNodeType {
		return ""
	}
	return unquotePythonString(stringNode.Content(sourceBytes))
}

// unquotePythonString strips matching single, double, or triple quotes and
// surrounding whitespace from a Python string literal.
func unquotePythonString(literal string) string {
	trimmedLiteral := strings.TrimSpace(literal)
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(trimmedLiteral, quote) && strings.HasSuffix(trimmedLiteral, quote) && len(trimmedLiteral) >= 2*len(quote) {
			return strings.TrimSpace(trimmedLiteral[len(quote) : len(trimmedLiteral)-len(quote)])
		}
	}
	return trimmedLiteral
}

// Render formats extracted functions as labeled text blocks.
func Render(extractedFunctions []Function) string {
	if len(extractedFunctions) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(extractedFunctions))
	for _, extracted := range extractedFunctions {
		var block strings.Builder
		fmt.Fprintf(&block, "----- Function: %s -----\n", extracted.Name)
		fmt.Fprintf(&block, "Docstring: %s\n", extracted.Docstring)
		block.WriteString("Code:\n")
		block.WriteString(extracted.Source)
		blocks = append(blocks, block.String())
	}
	return strings.Join(blocks, "\n\n")
}
