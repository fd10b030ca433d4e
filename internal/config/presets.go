// Package config loads preset rule collections and merges them with
// command-line values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/codectx/codectx/internal/utils"
)

const (
	// GlobalConfigDirectoryName is the directory under the user's home
	// holding the global preset file.
	GlobalConfigDirectoryName = ".config/codectx"
	// PresetsFileName is the name of the global preset file.
	PresetsFileName = "presets.yaml"
	// LocalConfigFileName is the name of the project-local preset file.
	LocalConfigFileName = ".codectx.yaml"

	errorLoadConfigFormat  = "loading configuration from %s: %w"
	errorParseConfigFormat = "parsing configuration from %s: %w"
)

// Preset is one named collection of rule values, as stored in a preset file.
type Preset struct {
	Extensions        []string `mapstructure:"extensions"`
	Include           []string `mapstructure:"include"`
	IncludeFiles      []string `mapstructure:"include_files"`
	Exclude           []string `mapstructure:"exclude"`
	ExcludeFiles      []string `mapstructure:"exclude_files"`
	ExcludeExtensions []string `mapstructure:"exclude_extensions"`
	IncludeInTree     []string `mapstructure:"include_in_tree"`
}

// LoadOptions controls how preset files are discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// LoadPresets reads the global preset file and the project-local file, if
// present, and returns the merged preset map. A local preset with the same
// name replaces the global one. Missing files are not errors.
func LoadPresets(options LoadOptions) (map[string]Preset, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return nil, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	merged := map[string]Preset{}

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, filepath.FromSlash(GlobalConfigDirectoryName), PresetsFileName)
		globalPresets, loadError := loadPresetsFromPath(globalPath)
		if loadError != nil {
			return nil, loadError
		}
		for presetName, preset := range globalPresets {
			merged[presetName] = preset
		}
	}

	localPath := options.ExplicitFilePath
	if localPath == "" {
		localPath = filepath.Join(workingDirectory, LocalConfigFileName)
	} else if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(workingDirectory, localPath)
	}
	localPresets, loadError := loadPresetsFromPath(localPath)
	if loadError != nil {
		return nil, loadError
	}
	for presetName, preset := range localPresets {
		merged[presetName] = preset
	}

	return merged, nil
}

// loadPresetsFromPath parses one preset file. A missing file yields an empty map.
func loadPresetsFromPath(configFilePath string) (map[string]Preset, error) {
	if _, statError := os.Stat(configFilePath); statError != nil {
		if os.IsNotExist(statError) {
			return map[string]Preset{}, nil
		}
		return nil, fmt.Errorf(errorLoadConfigFormat, configFilePath, statError)
	}

	viperInstance := viper.New()
	viperInstance.SetConfigFile(configFilePath)
	if readError := viperInstance.ReadInConfig(); readError != nil {
		return nil, fmt.Errorf(errorLoadConfigFormat, configFilePath, readError)
	}

	presets := map[string]Preset{}
	for _, presetName := range viperInstance.AllKeys() {
		// AllKeys reports nested keys; only the top-level preset names matter here.
		topLevelName := presetName
		if separatorIndex := strings.Index(presetName, "."); separatorIndex >= 0 {
			topLevelName = presetName[:separatorIndex]
		}
		if _, alreadyParsed := presets[topLevelName]; alreadyParsed {
			continue
		}
		var preset Preset
		if unmarshalError := viperInstance.UnmarshalKey(topLevelName, &preset); unmarshalError != nil {
			return nil, fmt.Errorf(errorParseConfigFormat, configFilePath, unmarshalError)
		}
		presets[topLevelName] = preset
	}

	return presets, nil
}

// MergeWithFlags combines preset values with command-line values. Preset
// entries come first, command-line entries are appended, and duplicates are
// removed while preserving order.
func MergeWithFlags(preset Preset, flagValues Preset) Preset {
	return Preset{
		Extensions:        mergeValueLists(preset.Extensions, flagValues.Extensions),
		Include:           mergeValueLists(preset.Include, flagValues.Include),
		IncludeFiles:      mergeValueLists(preset.IncludeFiles, flagValues.IncludeFiles),
		Exclude:           mergeValueLists(preset.Exclude, flagValues.Exclude),
		ExcludeFiles:      mergeValueLists(preset.ExcludeFiles, flagValues.ExcludeFiles),
		ExcludeExtensions: mergeValueLists(preset.ExcludeExtensions, flagValues.ExcludeExtensions),
		IncludeInTree:     mergeValueLists(preset.IncludeInTree, flagValues.IncludeInTree),
	}
}

// mergeValueLists appends flag values to preset values with order-preserving dedupe.
func mergeValueLists(presetValues []string, flagValues []string) []string {
	combined := make([]string, 0, len(presetValues)+len(flagValues))
	combined = append(combined, presetValues...)
	combined = append(combined, flagValues...)
	deduplicated := utils.DeduplicateStrings(combined)
	if len(deduplicated) == 0 {
		return nil
	}
	return deduplicated
}
