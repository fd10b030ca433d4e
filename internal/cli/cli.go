// Package cli provides the command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codectx/codectx/internal/config"
	"github.com/codectx/codectx/internal/functions"
	"github.com/codectx/codectx/internal/rules"
	"github.com/codectx/codectx/internal/services/clipboard"
	"github.com/codectx/codectx/internal/tokenizer"
	"github.com/codectx/codectx/internal/utils"
	"github.com/codectx/codectx/internal/walker"
)

const (
	extensionFlagName     = "ext"
	includeFlagName       = "include"
	includeFileFlagName   = "include-file"
	excludeFlagName       = "exclude"
	excludeFileFlagName   = "exclude-file"
	excludeExtFlagName    = "exclude-ext"
	includeInTreeFlagName = "include-in-tree"
	noGitignoreFlagName   = "no-gitignore"
	presetFlagName        = "preset"
	copyFlagName          = "copy"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	versionFlagName       = "version"
	versionTemplate       = "codectx version: %s\n"
	defaultPath           = "."
	rootUse               = "codectx"
	rootShortDescription  = "codectx command line interface"
	rootLongDescription   = `codectx gathers a codebase context for large-language-model prompts.
It renders a directory tree and the contents of selected files, filtered by
extensions, explicit paths, glob patterns, and .gitignore rules.`

	contextUse                = "context [paths...]"
	treeUse                   = "tree [paths...]"
	contentUse                = "content [paths...]"
	functionsUse              = "functions [paths...]"
	contextAlias              = "ctx"
	treeAlias                 = "t"
	contentAlias              = "c"
	functionsAlias            = "f"
	contextShortDescription   = "render the full context: tree and file contents (" + contextAlias + ")"
	treeShortDescription      = "render the directory tree only (" + treeAlias + ")"
	contentShortDescription   = "render file contents only (" + contentAlias + ")"
	functionsShortDescription = "extract Python function definitions (" + functionsAlias + ")"

	// contextUsageExample demonstrates context command usage.
	contextUsageExample = `  # Python and Markdown sources of the current project
  codectx context --ext py --ext md

  # Everything the "backend" preset selects, copied to the clipboard
  codectx context --preset backend --copy`

	// functionsUsageExample demonstrates functions command usage.
	functionsUsageExample = `  # Function definitions from all selected Python files
  codectx functions --ext py ./src`

	modeContext   = "context"
	modeTree      = "tree"
	modeContent   = "content"
	modeFunctions = "functions"

	extensionFlagDescription     = "file extension to include (repeatable, dotted or bare)"
	includeFlagDescription       = "glob pattern to include (gitignore syntax, repeatable)"
	includeFileFlagDescription   = "relative file path to include (repeatable)"
	excludeFlagDescription       = "glob pattern to exclude (gitignore syntax, repeatable)"
	excludeFileFlagDescription   = "relative file path to exclude (repeatable)"
	excludeExtFlagDescription    = "file extension to exclude (repeatable)"
	includeInTreeFlagDescription = "name or extension shown in the tree without content (repeatable)"
	noGitignoreFlagDescription   = "do not apply .gitignore rules"
	presetFlagDescription        = "preset name (defaults to the working directory name)"
	copyFlagDescription          = "copy the result to the clipboard instead of printing"
	tokensFlagDescription        = "report the token count of the result"
	modelFlagDescription         = "tokenizer model used for token counting"
	versionFlagDescription       = "display application version"
	defaultTokenizerModelName    = "gpt-4o"

	noContentFoundMessage       = "no content found for the specified criteria"
	contextCopiedMessage        = "context copied to clipboard"
	tokenCountMessageFormat     = "tokens: %d (%s)"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorPathMissingFormat reports a missing path.
	errorPathMissingFormat = "path '%s' does not exist"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNotDirectoryFormat reports a path that is not a directory.
	errorNotDirectoryFormat = "path '%s' is not a directory"
	// errorNoValidPaths indicates that all paths are invalid.
	errorNoValidPaths = "no valid paths"
)

// ErrNoInclusionRules reports an invocation with no inclusion rule of any kind.
var ErrNoInclusionRules = errors.New("no inclusion rules provided; use --ext, --include, --include-file, --include-in-tree, or select a preset")

// Execute runs the codectx application using the provided logger for diagnostics.
func Execute(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rootCommand := createRootCommand(logger)
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createModeCommand(logger, modeContext, contextUse, contextAlias, contextShortDescription, contextUsageExample),
		createModeCommand(logger, modeTree, treeUse, treeAlias, treeShortDescription, ""),
		createModeCommand(logger, modeContent, contentUse, contentAlias, contentShortDescription, ""),
		createModeCommand(logger, modeFunctions, functionsUse, functionsAlias, functionsShortDescription, functionsUsageExample),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// ruleFlagValues stores rule-related flag values shared by every command.
type ruleFlagValues struct {
	extensions        []string
	includePatterns   []string
	includeFiles      []string
	excludePatterns   []string
	excludeFiles      []string
	excludeExtensions []string
	includeInTree     []string
	disableGitignore  bool
	presetName        string
}

// outputFlagValues stores output-related flag values shared by every command.
type outputFlagValues struct {
	copyToClipboard bool
	tokensEnabled   bool
	tokenizerModel  string
}

// addRuleFlags registers rule-related flags on the command.
func addRuleFlags(command *cobra.Command, flagValues *ruleFlagValues) {
	command.Flags().StringArrayVar(&flagValues.extensions, extensionFlagName, nil, extensionFlagDescription)
	command.Flags().StringArrayVar(&flagValues.includePatterns, includeFlagName, nil, includeFlagDescription)
	command.Flags().StringArrayVar(&flagValues.includeFiles, includeFileFlagName, nil, includeFileFlagDescription)
	command.Flags().StringArrayVar(&flagValues.excludePatterns, excludeFlagName, nil, excludeFlagDescription)
	command.Flags().StringArrayVar(&flagValues.excludeFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
	command.Flags().StringArrayVar(&flagValues.excludeExtensions, excludeExtFlagName, nil, excludeExtFlagDescription)
	command.Flags().StringArrayVar(&flagValues.includeInTree, includeInTreeFlagName, nil, includeInTreeFlagDescription)
	command.Flags().BoolVar(&flagValues.disableGitignore, noGitignoreFlagName, false, noGitignoreFlagDescription)
	command.Flags().StringVar(&flagValues.presetName, presetFlagName, "", presetFlagDescription)
}

// addOutputFlags registers output-related flags on the command.
func addOutputFlags(command *cobra.Command, flagValues *outputFlagValues) {
	command.Flags().BoolVar(&flagValues.copyToClipboard, copyFlagName, false, copyFlagDescription)
	command.Flags().BoolVar(&flagValues.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	command.Flags().StringVar(&flagValues.tokenizerModel, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
}

// createModeCommand returns a subcommand bound to one rendering mode.
func createModeCommand(logger *zap.Logger, mode string, use string, alias string, shortDescription string, usageExample string) *cobra.Command {
	var ruleFlags ruleFlagValues
	var outputFlags outputFlagValues

	modeCommand := &cobra.Command{
		Use:     use,
		Aliases: []string{alias},
		Short:   shortDescription,
		Example: usageExample,
		Args:    cobra.ArbitraryArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			return runMode(logger, mode, arguments, ruleFlags, outputFlags)
		},
	}

	addRuleFlags(modeCommand, &ruleFlags)
	addOutputFlags(modeCommand, &outputFlags)
	return modeCommand
}

// validatedPath is an absolute directory path that passed existence checks.
type validatedPath struct {
	AbsolutePath string
}

// resolveAndValidatePaths converts input paths to absolute directory paths,
// checks existence, and removes duplicates.
func resolveAndValidatePaths(inputPaths []string) ([]validatedPath, error) {
	uniquePaths := make(map[string]struct{})
	var validatedPaths []validatedPath
	for _, inputPath := range inputPaths {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, exists := uniquePaths[cleanPath]; exists {
			continue
		}
		fileInformation, statError := os.Stat(cleanPath)
		if statError != nil {
			if os.IsNotExist(statError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, statError)
		}
		if !fileInformation.IsDir() {
			return nil, fmt.Errorf(errorNotDirectoryFormat, inputPath)
		}
		uniquePaths[cleanPath] = struct{}{}
		validatedPaths = append(validatedPaths, validatedPath{AbsolutePath: cleanPath})
	}
	if len(validatedPaths) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return validatedPaths, nil
}

// resolvePreset selects and merges the preset for this invocation with the
// command-line rule values.
func resolvePreset(ruleFlags ruleFlagValues, workingDirectory string) (config.Preset, error) {
	presets, presetsError := config.LoadPresets(config.LoadOptions{WorkingDirectory: workingDirectory})
	if presetsError != nil {
		return config.Preset{}, presetsError
	}
	presetName := strings.ToLower(strings.TrimSpace(ruleFlags.presetName))
	if presetName == "" {
		presetName = strings.ToLower(filepath.Base(workingDirectory))
	}
	flagPreset := config.Preset{
		Extensions:        ruleFlags.extensions,
		Include:           ruleFlags.includePatterns,
		IncludeFiles:      ruleFlags.includeFiles,
		Exclude:           ruleFlags.excludePatterns,
		ExcludeFiles:      ruleFlags.excludeFiles,
		ExcludeExtensions: ruleFlags.excludeExtensions,
		IncludeInTree:     ruleFlags.includeInTree,
	}
	return config.MergeWithFlags(presets[presetName], flagPreset), nil
}

// buildRuleSet compiles the merged preset into a RuleSet for one scan root.
func buildRuleSet(mergedPreset config.Preset, rootDirectory string, disableGitignore bool) (*rules.RuleSet, error) {
	var gitignoreLines []string
	if !disableGitignore {
		loadedLines, gitignoreError := rules.LoadGitignoreLines(rootDirectory)
		if gitignoreError != nil {
			return nil, gitignoreError
		}
		gitignoreLines = loadedLines
	}
	return rules.NewRuleSet(rules.Options{
		IncludeExtensions: mergedPreset.Extensions,
		IncludeFiles:      mergedPreset.IncludeFiles,
		IncludePatterns:   mergedPreset.Include,
		ExcludeExtensions: mergedPreset.ExcludeExtensions,
		ExcludeFiles:      mergedPreset.ExcludeFiles,
		ExcludePatterns:   mergedPreset.Exclude,
		IncludeInTreeOnly: mergedPreset.IncludeInTree,
		GitignoreLines:    gitignoreLines,
	})
}

// runMode executes one rendering mode over the provided root paths.
func runMode(logger *zap.Logger, mode string, inputPaths []string, ruleFlags ruleFlagValues, outputFlags outputFlagValues) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	validatedPaths, pathValidationError := resolveAndValidatePaths(inputPaths)
	if pathValidationError != nil {
		return pathValidationError
	}

	mergedPreset, presetError := resolvePreset(ruleFlags, workingDirectory)
	if presetError != nil {
		return presetError
	}

	ruleSets := make([]*rules.RuleSet, len(validatedPaths))
	for pathIndex, pathInformation := range validatedPaths {
		ruleSet, ruleSetError := buildRuleSet(mergedPreset, pathInformation.AbsolutePath, ruleFlags.disableGitignore)
		if ruleSetError != nil {
			return ruleSetError
		}
		if !ruleSet.HasIncludeRules() && !ruleSet.HasTreeOnlyRules() {
			return ErrNoInclusionRules
		}
		ruleSets[pathIndex] = ruleSet
	}

	results := make([]string, len(validatedPaths))
	var processingGroup errgroup.Group
	for pathIndex, pathInformation := range validatedPaths {
		pathIndex, pathInformation := pathIndex, pathInformation
		processingGroup.Go(func() error {
			pathWalker, walkerError := walker.NewWalker(pathInformation.AbsolutePath, ruleSets[pathIndex], logger)
			if walkerError != nil {
				return walkerError
			}
			renderedOutput, renderError := renderMode(logger, mode, pathWalker)
			if renderError != nil {
				return renderError
			}
			results[pathIndex] = renderedOutput
			return nil
		})
	}
	if processingError := processingGroup.Wait(); processingError != nil {
		return processingError
	}

	return emitOutput(logger, joinNonEmpty(results), outputFlags)
}

// renderMode produces the requested output for one walker.
func renderMode(logger *zap.Logger, mode string, pathWalker *walker.Walker) (string, error) {
	switch mode {
	case modeContext:
		return pathWalker.FullContext()
	case modeTree:
		return pathWalker.DirectoryTree()
	case modeContent:
		return pathWalker.FileContents()
	case modeFunctions:
		contentFilePaths, pathsError := pathWalker.ContentFilePaths()
		if pathsError != nil {
			return "", pathsError
		}
		extracted := functions.NewExtractor().ExtractFromFiles(contentFilePaths, logger)
		return functions.Render(extracted), nil
	default:
		return "", fmt.Errorf("unsupported mode '%s'", mode)
	}
}

// emitOutput prints or copies the final text and reports the token count when requested.
func emitOutput(logger *zap.Logger, finalOutput string, outputFlags outputFlagValues) error {
	if strings.TrimSpace(finalOutput) == "" {
		logger.Warn(noContentFoundMessage)
		return nil
	}

	if outputFlags.tokensEnabled {
		tokenCounter, resolvedModel, counterError := tokenizer.NewCounter(outputFlags.tokenizerModel)
		if counterError != nil {
			return counterError
		}
		tokenCount, countError := tokenCounter.CountString(finalOutput)
		if countError != nil {
			return countError
		}
		logger.Info(fmt.Sprintf(tokenCountMessageFormat, tokenCount, resolvedModel))
	}

	if outputFlags.copyToClipboard {
		if copyError := clipboard.NewService().Copy(finalOutput); copyError != nil {
			return copyError
		}
		logger.Info(contextCopiedMessage)
		return nil
	}

	fmt.Println(finalOutput)
	return nil
}

// joinNonEmpty joins per-root results with a blank line, skipping empty ones.
func joinNonEmpty(results []string) string {
	var nonEmptyResults []string
	for _, result := range results {
		if strings.TrimSpace(result) != "" {
			nonEmptyResults = append(nonEmptyResults, result)
		}
	}
	return strings.Join(nonEmptyResults, "\n\n")
}
