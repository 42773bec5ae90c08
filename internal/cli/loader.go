package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/mobilindo-e2e/internal/harness"
)

// Error codes for command-level failures.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No scenario files found
	ErrCodeLoadFailed   = "E004" // Scenario load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeConfig       = "E006" // Invalid configuration
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeDatabase     = "E008" // History database error
	ErrCodeParseFailed  = "E009" // Scenario YAML could not be decoded
	ErrCodeSchemaFailed = "E010" // Scenario failed the CUE schema
)

// LoadError represents an error that occurred while loading scenarios.
type LoadError struct {
	Code    string
	Message string
	Path    string // scenario file, if the error is tied to one
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// checkScenarioDir verifies dir exists and is a directory.
func checkScenarioDir(dir string) *LoadError {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenarios directory not found: %s", dir)}
	}
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing scenarios directory: %v", err)}
	}
	if !info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	return nil
}

// loadScenarioDir loads every scenario in dir matching filter and tag.
// Any invalid file fails the whole load.
func loadScenarioDir(dir, filter, tag string) ([]*harness.Scenario, *LoadError) {
	if lerr := checkScenarioDir(dir); lerr != nil {
		return nil, lerr
	}
	scenarios, err := harness.LoadScenarios(dir, filter, tag)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return scenarios, nil
}

// FileIssue is one problem found in a scenario file.
type FileIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// checkScenarioFiles loads every file independently and reports all
// problems instead of stopping at the first one. It returns the scenarios
// that loaded cleanly.
func checkScenarioFiles(files []string) ([]*harness.Scenario, []FileIssue) {
	var (
		valid  []*harness.Scenario
		issues []FileIssue
	)
	seen := make(map[string]string)

	for _, file := range files {
		s, err := harness.LoadScenario(file)
		if err != nil {
			issues = append(issues, issuesFor(file, err)...)
			continue
		}
		if prev, dup := seen[s.Name]; dup {
			issues = append(issues, FileIssue{
				Path:    file,
				Code:    harness.ErrDuplicateName,
				Field:   "name",
				Message: fmt.Sprintf("duplicate scenario name %q (also in %s)", s.Name, prev),
			})
			continue
		}
		seen[s.Name] = file
		valid = append(valid, s)
	}
	return valid, issues
}

// issuesFor expands a LoadScenario error into per-field issues.
func issuesFor(file string, err error) []FileIssue {
	var verrs harness.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]FileIssue, len(verrs))
		for i, v := range verrs {
			issues[i] = FileIssue{Path: file, Code: v.Code, Field: v.Field, Message: v.Message}
		}
		return issues
	}

	code := ErrCodeLoadFailed
	switch {
	case errors.Is(err, harness.ErrSchema):
		code = ErrCodeSchemaFailed
	case errors.Is(err, harness.ErrDecode):
		code = ErrCodeParseFailed
	}
	return []FileIssue{{Path: file, Code: code, Message: err.Error()}}
}
