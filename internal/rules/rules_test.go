package rules

import (
	"errors"
	"strings"
	"testing"
)

// mustRuleSet builds a RuleSet, failing the test on construction errors.
func mustRuleSet(testingHandle *testing.T, options Options) *RuleSet {
	testingHandle.Helper()
	ruleSet, constructionError := NewRuleSet(options)
	if constructionError != nil {
		testingHandle.Fatalf("NewRuleSet failed: %v", constructionError)
	}
	return ruleSet
}

// TestClassifyDefaultIgnoredSegment verifies that any path containing a
// default-ignored segment is excluded regardless of inclusion rules.
func TestClassifyDefaultIgnoredSegment(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{IncludeExtensions: []string{".py"}})

	if classification := ruleSet.Classify(".venv/lib/helpers.py", false); classification != Excluded {
		testingHandle.Fatalf("expected Excluded for .venv descendant, got %v", classification)
	}
	if classification := ruleSet.Classify(".venv", true); classification != Excluded {
		testingHandle.Fatalf("expected Excluded for .venv directory, got %v", classification)
	}
	if classification := ruleSet.Classify(".DS_Store", false); classification != Excluded {
		testingHandle.Fatalf("expected Excluded for .DS_Store, got %v", classification)
	}
}

// TestClassifyAlternateIgnoredNames verifies that the default ignore set can
// be substituted through Options.
func TestClassifyAlternateIgnoredNames(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions:   []string{".py"},
		DefaultIgnoredNames: []string{"spam"},
	})

	if classification := ruleSet.Classify("spam/module.py", false); classification != Excluded {
		testingHandle.Fatalf("expected Excluded for substituted ignored name, got %v", classification)
	}
	if classification := ruleSet.Classify(".venv/module.py", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded when .venv is not in the ignore set, got %v", classification)
	}
}

// TestClassifyExcludeWinsOverInclude verifies the precedence law: a path
// matching both an include rule and an exclude rule is always excluded.
func TestClassifyExcludeWinsOverInclude(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".py", ".md", ".log"},
		ExcludePatterns:   []string{"docs/*"},
		GitignoreLines:    []string{"*.log"},
	})

	if classification := ruleSet.Classify("docs/guide.md", false); classification != Excluded {
		testingHandle.Fatalf("expected exclude pattern to win over include extension, got %v", classification)
	}
	if classification := ruleSet.Classify("secret.log", false); classification != Excluded {
		testingHandle.Fatalf("expected gitignore to win over include extension, got %v", classification)
	}
	if classification := ruleSet.Classify("src/main.py", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded for unexcluded path, got %v", classification)
	}
}

// TestClassifyExcludeFilesAndExtensions verifies the explicit exclusion sources.
func TestClassifyExcludeFilesAndExtensions(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".py", ".json"},
		ExcludeExtensions: []string{".json"},
		ExcludeFiles:      []string{"./src/generated.py"},
	})

	if classification := ruleSet.Classify("config.json", false); classification != Excluded {
		testingHandle.Fatalf("expected exclude extension to win, got %v", classification)
	}
	if classification := ruleSet.Classify("src/generated.py", false); classification != Excluded {
		testingHandle.Fatalf("expected exclude file to win, got %v", classification)
	}
	if classification := ruleSet.Classify("src/handwritten.py", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded for non-excluded file, got %v", classification)
	}
}

// TestClassifyTreeOnly verifies the tree-only law: a tree-only match is
// visible in the tree but never a content candidate, even when an include
// rule also matches.
func TestClassifyTreeOnly(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".md", ".toml"},
		IncludeInTreeOnly: []string{"README.md", ".toml"},
	})

	if classification := ruleSet.Classify("README.md", false); classification != TreeOnly {
		testingHandle.Fatalf("expected TreeOnly by exact name, got %v", classification)
	}
	if classification := ruleSet.Classify("pyproject.toml", false); classification != TreeOnly {
		testingHandle.Fatalf("expected TreeOnly by extension, got %v", classification)
	}
	if classification := ruleSet.Classify("docs/notes.md", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded for plain include match, got %v", classification)
	}
}

// TestClassifyTreeOnlyWithoutIncludeRules verifies that tree-only rules work
// with an otherwise empty rule set.
func TestClassifyTreeOnlyWithoutIncludeRules(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{IncludeInTreeOnly: []string{"README.md"}})

	if classification := ruleSet.Classify("README.md", false); classification != TreeOnly {
		testingHandle.Fatalf("expected TreeOnly, got %v", classification)
	}
	if classification := ruleSet.Classify("main.py", false); classification != Excluded {
		testingHandle.Fatalf("expected Excluded without matching rules, got %v", classification)
	}
	if ruleSet.HasIncludeRules() {
		testingHandle.Fatalf("expected no include rules")
	}
	if !ruleSet.HasTreeOnlyRules() {
		testingHandle.Fatalf("expected tree-only rules to be reported")
	}
}

// TestClassifyInclusionSources verifies each content inclusion source.
func TestClassifyInclusionSources(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{"py"},
		IncludeFiles:      []string{"./Makefile"},
		IncludePatterns:   []string{"src/**/*.sql"},
	})

	if classification := ruleSet.Classify("app/main.py", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded by bare extension, got %v", classification)
	}
	if classification := ruleSet.Classify("Makefile", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded by explicit file, got %v", classification)
	}
	if classification := ruleSet.Classify("src/db/schema.sql", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected ContentIncluded by include pattern, got %v", classification)
	}
	if classification := ruleSet.Classify("notes.txt", false); classification != Excluded {
		testingHandle.Fatalf("expected Excluded without matching rule, got %v", classification)
	}
}

// TestClassifyExtensionSuffixMatching verifies suffix-based, case-sensitive
// extension comparison on the final path component.
func TestClassifyExtensionSuffixMatching(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{IncludeExtensions: []string{".gz"}})

	if classification := ruleSet.Classify("dist/archive.tar.gz", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected .tar.gz to match .gz, got %v", classification)
	}
	if classification := ruleSet.Classify("dist/archive.GZ", false); classification != Excluded {
		testingHandle.Fatalf("expected case-sensitive matching, got %v", classification)
	}
}

// TestClassifyDirectoryExclusion verifies that directory-anchored patterns
// exclude directories so traversal can prune them.
func TestClassifyDirectoryExclusion(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".py"},
		GitignoreLines:    []string{"build/"},
	})

	if classification := ruleSet.Classify("build", true); classification != Excluded {
		testingHandle.Fatalf("expected directory-anchored pattern to exclude the directory, got %v", classification)
	}
	if classification := ruleSet.Classify("src", true); classification != TreeOnly {
		testingHandle.Fatalf("expected unexcluded directory to stay visible, got %v", classification)
	}
}

// TestClassifyGitignoreNegation verifies last-match-wins negation within the
// gitignore source.
func TestClassifyGitignoreNegation(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".log"},
		GitignoreLines:    []string{"*.log", "!keep.log"},
	})

	if classification := ruleSet.Classify("keep.log", false); classification != ContentIncluded {
		testingHandle.Fatalf("expected negated pattern to re-include keep.log, got %v", classification)
	}
	if classification := ruleSet.Classify("other.log", false); classification != Excluded {
		testingHandle.Fatalf("expected other.log to stay excluded, got %v", classification)
	}
}

// TestClassifyIndependentExcludeSources verifies that gitignore negation does
// not override a match from the custom exclude patterns: the two exclude
// sources are evaluated independently and either suffices.
func TestClassifyIndependentExcludeSources(testingHandle *testing.T) {
	ruleSet := mustRuleSet(testingHandle, Options{
		IncludeExtensions: []string{".md"},
		GitignoreLines:    []string{"!docs/guide.md"},
		ExcludePatterns:   []string{"docs/*"},
	})

	if classification := ruleSet.Classify("docs/guide.md", false); classification != Excluded {
		testingHandle.Fatalf("expected custom exclude to survive gitignore negation, got %v", classification)
	}
}

// TestNewRuleSetInvalidPattern verifies that a malformed glob fails rule set
// construction and reports the offending pattern.
func TestNewRuleSetInvalidPattern(testingHandle *testing.T) {
	const malformedPattern = "src/["

	_, constructionError := NewRuleSet(Options{ExcludePatterns: []string{malformedPattern}})
	if constructionError == nil {
		testingHandle.Fatalf("expected construction error for malformed pattern")
	}
	if !errors.Is(constructionError, ErrInvalidPattern) {
		testingHandle.Fatalf("expected ErrInvalidPattern, got %v", constructionError)
	}
	if !strings.Contains(constructionError.Error(), malformedPattern) {
		testingHandle.Fatalf("expected error to name the offending pattern, got %q", constructionError.Error())
	}
}
