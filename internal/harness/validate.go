package harness

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/mobilindo-e2e/internal/browser"
)

// Validation error codes (E200-E299)
const (
	// Scenario errors (E200-E209)
	ErrNameRequired        = "E200" // name is required
	ErrDescriptionRequired = "E201" // description is required
	ErrNoSteps             = "E202" // at least one step required
	ErrNoAssertions        = "E203" // at least one assertion required
	ErrDuplicateName       = "E204" // name already used by another file

	// Step errors (E210-E219)
	ErrUnknownAction    = "E210" // unknown step action
	ErrStepField        = "E211" // field missing or not allowed for action
	ErrInvalidSelector  = "E212" // selector strategy missing or ambiguous
	ErrInvalidLoadState = "E213" // unknown load state
	ErrInvalidURL       = "E214" // goto url does not parse

	// Assertion errors (E220-E229)
	ErrUnknownAssertion = "E220" // unknown assertion type
	ErrAssertionField   = "E221" // field missing or not allowed for type
	ErrInvalidRange     = "E222" // min greater than max
)

// ValidationError is one semantic problem in a scenario.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one scenario.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateScenario checks what the schema cannot express: per-action
// required fields, selector strategies and numeric ranges. Returns all errors
// found (does not fail-fast).
func ValidateScenario(s *Scenario) ValidationErrors {
	var errs ValidationErrors
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if s.Name == "" {
		add("name", ErrNameRequired, "name is required")
	}
	if s.Description == "" {
		add("description", ErrDescriptionRequired, "description is required")
	}
	if len(s.Steps) == 0 {
		add("steps", ErrNoSteps, "steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		add("assertions", ErrNoAssertions, "assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		validateStep(fmt.Sprintf("steps[%d]", i), step, add)
	}
	for i, a := range s.Assertions {
		validateAssertion(fmt.Sprintf("assertions[%d]", i), a, add)
	}
	return errs
}

type addFunc func(field, code, format string, args ...any)

func validateStep(field string, step Step, add addFunc) {
	needsTarget := false
	switch step.Action {
	case ActionGoto:
		if step.URL == "" {
			add(field+".url", ErrStepField, "url is required for goto")
		} else if _, err := url.Parse(step.URL); err != nil {
			add(field+".url", ErrInvalidURL, "%v", err)
		}
		if step.WaitUntil != "" && !browser.IsValidLoadState(step.WaitUntil) {
			add(field+".wait_until", ErrInvalidLoadState, "unknown load state %q", step.WaitUntil)
		}
	case ActionClick, ActionCheck:
		needsTarget = true
	case ActionFill:
		needsTarget = true
	case ActionSelect:
		needsTarget = true
		if step.Value == "" {
			add(field+".value", ErrStepField, "value is required for select")
		}
	case ActionWait:
		if step.Duration <= 0 {
			add(field+".duration", ErrStepField, "positive duration is required for wait")
		}
	case ActionWaitForLoad:
		if step.State == browser.LoadStateCommit {
			add(field+".state", ErrInvalidLoadState, "commit cannot be awaited after navigation")
		} else if step.State != "" && !browser.IsValidLoadState(step.State) {
			add(field+".state", ErrInvalidLoadState, "unknown load state %q", step.State)
		}
	case ActionScroll:
		if step.DX == 0 && step.DY == 0 {
			add(field, ErrStepField, "scroll needs a non-zero dx or dy")
		}
	default:
		add(field+".action", ErrUnknownAction, "unknown action %q", step.Action)
		return
	}

	if needsTarget {
		if step.Target == nil {
			add(field+".target", ErrStepField, "target is required for %s", step.Action)
		} else if err := step.Target.Validate(); err != nil {
			add(field+".target", ErrInvalidSelector, "%v", err)
		}
	} else if step.Target != nil {
		add(field+".target", ErrStepField, "target is not allowed for %s", step.Action)
	}
	if step.Timeout < 0 {
		add(field+".timeout", ErrStepField, "timeout must be positive")
	}
}

func validateAssertion(field string, a Assertion, add addFunc) {
	needsTarget := true
	switch a.Type {
	case AssertTextContains:
		if len(a.Values) == 0 {
			add(field+".values", ErrAssertionField, "values list is required for text_contains")
		}
	case AssertTextEquals, AssertTextEqualsFold, AssertValueEquals:
		// An empty value is a legitimate expectation (cleared input).
	case AssertAttributeEquals:
		if a.Attribute == "" {
			add(field+".attribute", ErrAssertionField, "attribute is required for attribute_equals")
		}
	case AssertNumberInRange:
		if a.Min == nil && a.Max == nil {
			add(field, ErrAssertionField, "number_in_range needs min, max or both")
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			add(field, ErrInvalidRange, "min %d is greater than max %d", *a.Min, *a.Max)
		}
	case AssertOneOf:
		if len(a.Values) == 0 {
			add(field+".values", ErrAssertionField, "values list is required for one_of")
		}
	case AssertURLContains:
		needsTarget = false
		if a.Value == "" {
			add(field+".value", ErrAssertionField, "value is required for url_contains")
		}
	case AssertVisible:
	case AssertCount:
		if a.Count == nil && a.Min == nil {
			add(field, ErrAssertionField, "count needs count or min")
		}
	case AssertEach:
		if len(a.Checks) == 0 {
			add(field+".checks", ErrAssertionField, "checks list is required for each")
		}
		if a.Min != nil && *a.Min < 0 {
			add(field+".min", ErrAssertionField, "min must be non-negative")
		}
		for i, c := range a.Checks {
			if c.Type == AssertEach || c.Type == AssertFail || c.Type == AssertURLContains {
				add(fmt.Sprintf("%s.checks[%d]", field, i), ErrAssertionField, "%s cannot be nested in each", c.Type)
				continue
			}
			validateAssertion(fmt.Sprintf("%s.checks[%d]", field, i), c, add)
		}
	case AssertFail:
		needsTarget = false
		if a.Message == "" {
			add(field+".message", ErrAssertionField, "message is required for fail")
		}
	default:
		add(field+".type", ErrUnknownAssertion, "unknown assertion type %q", a.Type)
		return
	}

	if needsTarget {
		if a.Target == nil {
			add(field+".target", ErrAssertionField, "target is required for %s", a.Type)
		} else if err := a.Target.Validate(); err != nil {
			add(field+".target", ErrInvalidSelector, "%v", err)
		}
	} else if a.Target != nil {
		add(field+".target", ErrAssertionField, "target is not allowed for %s", a.Type)
	}

	// count and each look at every match, so picking one is meaningless.
	if a.Nth != 0 && (a.Type == AssertCount || a.Type == AssertEach) {
		add(field+".nth", ErrAssertionField, "nth is not allowed for %s", a.Type)
	}
}
