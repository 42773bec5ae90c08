package harness

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mobilindo-e2e/internal/browser"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Target   string       // Rendered selector, empty for page-level checks
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	if e.Target != "" {
		fmt.Fprintf(&buf, "  Target: %s\n", e.Target)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Action)
			if event.Target != "" {
				fmt.Fprintf(&buf, " %s", event.Target)
			}
			if event.Value != "" {
				fmt.Fprintf(&buf, " %q", event.Value)
			}
			fmt.Fprintf(&buf, " (%s)\n", event.Status)
		}
	}

	return buf.String()
}

// Summary is the one-line form used when nesting failures.
func (e *AssertionError) Summary() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: expected %s, got %s", e.Type, e.Target, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// ForcedFailure is raised by a fail marker. Its message is reported verbatim.
type ForcedFailure struct {
	Message string
}

func (e *ForcedFailure) Error() string {
	return e.Message
}

// evaluator reads live page state. The scope passed to evaluate is the page
// for top-level assertions and the current item for checks nested in each.
type evaluator struct {
	page    browser.Page
	timeout time.Duration
}

// EvaluateAssertions evaluates all assertions against the active page.
// Returns one error per failed assertion; nil when all pass.
func EvaluateAssertions(page browser.Page, assertions []Assertion, timeout time.Duration, trace []TraceEvent) []error {
	ev := &evaluator{page: page, timeout: timeout}

	var errs []error
	for i, a := range assertions {
		if err := ev.evaluate(page, a); err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = trace
			} else if _, forced := err.(*ForcedFailure); !forced {
				err = fmt.Errorf("assertion[%d]: %w", i, err)
			}
			errs = append(errs, err)
		}
	}
	return errs
}

func (ev *evaluator) evaluate(scope browser.Scope, a Assertion) error {
	switch a.Type {
	case AssertTextContains:
		return ev.textContains(scope, a)
	case AssertTextEquals:
		return ev.textEquals(scope, a, false)
	case AssertTextEqualsFold:
		return ev.textEquals(scope, a, true)
	case AssertValueEquals:
		return ev.valueEquals(scope, a)
	case AssertAttributeEquals:
		return ev.attributeEquals(scope, a)
	case AssertNumberInRange:
		return ev.numberInRange(scope, a)
	case AssertOneOf:
		return ev.oneOf(scope, a)
	case AssertURLContains:
		return ev.urlContains(a)
	case AssertVisible:
		return ev.visible(scope, a)
	case AssertCount:
		return ev.count(scope, a)
	case AssertEach:
		return ev.each(scope, a)
	case AssertFail:
		return &ForcedFailure{Message: a.Message}
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// locate always narrows to the nth match so a selector that matches several
// elements does not trip the browser's strict mode.
func locate(scope browser.Scope, sel *browser.Selector, nth int) browser.Locator {
	return scope.Locate(*sel).Nth(nth)
}

func target(a Assertion) string {
	if a.Target == nil {
		return ""
	}
	return describeTarget(a.Target, a.Nth)
}

func lookupFailed(a Assertion, expected string, err error) *AssertionError {
	return &AssertionError{
		Type:     a.Type,
		Target:   target(a),
		Expected: expected,
		Actual:   fmt.Sprintf("lookup failed: %v", err),
	}
}

func (ev *evaluator) innerText(scope browser.Scope, a Assertion) (string, error) {
	return locate(scope, a.Target, a.Nth).InnerText(ev.timeout)
}

// textContains checks that the element text contains every value.
func (ev *evaluator) textContains(scope browser.Scope, a Assertion) error {
	expected := fmt.Sprintf("text containing %s", quoteAll(a.Values))
	text, err := ev.innerText(scope, a)
	if err != nil {
		return lookupFailed(a, expected, err)
	}

	got := normalizeText(text)
	var missing []string
	for _, v := range a.Values {
		if !strings.Contains(got, normalizeText(v)) {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Target:   target(a),
			Expected: expected,
			Actual:   fmt.Sprintf("%q (missing %s)", got, quoteAll(missing)),
		}
	}
	return nil
}

func (ev *evaluator) textEquals(scope browser.Scope, a Assertion, fold bool) error {
	expected := fmt.Sprintf("text %q", a.Value)
	if fold {
		expected += " (any case)"
	}
	text, err := ev.innerText(scope, a)
	if err != nil {
		return lookupFailed(a, expected, err)
	}

	got, want := normalizeText(text), normalizeText(a.Value)
	if fold {
		got, want = foldCase(got), foldCase(want)
	}
	if got != want {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%q", normalizeText(text))}
	}
	return nil
}

func (ev *evaluator) valueEquals(scope browser.Scope, a Assertion) error {
	expected := fmt.Sprintf("input value %q", a.Value)
	v, err := locate(scope, a.Target, a.Nth).InputValue(ev.timeout)
	if err != nil {
		return lookupFailed(a, expected, err)
	}
	if v != a.Value {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%q", v)}
	}
	return nil
}

func (ev *evaluator) attributeEquals(scope browser.Scope, a Assertion) error {
	expected := fmt.Sprintf("%s=%q", a.Attribute, a.Value)
	v, err := locate(scope, a.Target, a.Nth).Attribute(a.Attribute, ev.timeout)
	if err != nil {
		return lookupFailed(a, expected, err)
	}
	if v != a.Value {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%s=%q", a.Attribute, v)}
	}
	return nil
}

// numberInRange reads the digits of the element text as one integer, so
// "Rp 235.000.000" reads as 235000000.
func (ev *evaluator) numberInRange(scope browser.Scope, a Assertion) error {
	expected := describeRange(a.Min, a.Max)
	text, err := ev.innerText(scope, a)
	if err != nil {
		return lookupFailed(a, expected, err)
	}

	n, ok := extractNumber(text)
	if !ok {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("no number in %q", normalizeText(text))}
	}
	if (a.Min != nil && n < *a.Min) || (a.Max != nil && n > *a.Max) {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: strconv.FormatInt(n, 10)}
	}
	return nil
}

func (ev *evaluator) oneOf(scope browser.Scope, a Assertion) error {
	expected := fmt.Sprintf("one of %s", quoteAll(a.Values))
	text, err := ev.innerText(scope, a)
	if err != nil {
		return lookupFailed(a, expected, err)
	}
	got := normalizeText(text)
	for _, v := range a.Values {
		if got == normalizeText(v) {
			return nil
		}
	}
	return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%q", got)}
}

func (ev *evaluator) urlContains(a Assertion) error {
	u := ev.page.URL()
	if !strings.Contains(u, a.Value) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("URL containing %q", a.Value), Actual: u}
	}
	return nil
}

func (ev *evaluator) visible(scope browser.Scope, a Assertion) error {
	ok, err := locate(scope, a.Target, a.Nth).IsVisible()
	if err != nil {
		return lookupFailed(a, "visible element", err)
	}
	if !ok {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: "visible element", Actual: "not visible"}
	}
	return nil
}

func (ev *evaluator) count(scope browser.Scope, a Assertion) error {
	var expected string
	if a.Count != nil {
		expected = fmt.Sprintf("%d matches", *a.Count)
	} else {
		expected = fmt.Sprintf("at least %d matches", *a.Min)
	}

	n, err := scope.Locate(*a.Target).Count()
	if err != nil {
		return lookupFailed(a, expected, err)
	}
	if (a.Count != nil && n != *a.Count) || (a.Count == nil && int64(n) < *a.Min) {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%d matches", n)}
	}
	return nil
}

// each requires at least Min items (default 1) and every item to satisfy
// every nested check. All failing items are reported, not only the first.
func (ev *evaluator) each(scope browser.Scope, a Assertion) error {
	atLeast := int64(1)
	if a.Min != nil {
		atLeast = *a.Min
	}
	expected := fmt.Sprintf("at least %d items, each satisfying %d checks", atLeast, len(a.Checks))

	items, err := scope.Locate(*a.Target).All()
	if err != nil {
		return lookupFailed(a, expected, err)
	}
	if int64(len(items)) < atLeast {
		return &AssertionError{Type: a.Type, Target: target(a), Expected: expected, Actual: fmt.Sprintf("%d items", len(items))}
	}

	var failures []string
	for i, item := range items {
		for _, check := range a.Checks {
			err := ev.evaluate(item, check)
			if err == nil {
				continue
			}
			msg := err.Error()
			if ae, ok := err.(*AssertionError); ok {
				msg = ae.Summary()
			}
			failures = append(failures, fmt.Sprintf("item %d: %s", i, msg))
		}
	}
	if len(failures) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Target:   target(a),
			Expected: expected,
			Actual:   strings.Join(failures, "; "),
		}
	}
	return nil
}

// normalizeText applies NFC and collapses runs of whitespace, so text read
// from the DOM compares equal regardless of layout line breaks.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func foldCase(s string) string {
	return cases.Fold().String(s)
}

// extractNumber concatenates every ASCII digit in s. Thousands separators
// and currency prefixes are dropped; decimals are not supported.
func extractNumber(s string) (int64, bool) {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func describeRange(lo, hi *int64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("number in [%d, %d]", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("number >= %d", *lo)
	case hi != nil:
		return fmt.Sprintf("number <= %d", *hi)
	}
	return "number"
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
