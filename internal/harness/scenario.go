package harness

import (
	"bytes"
	"errors"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mobilindo-e2e/internal/browser"
)

//go:embed schema.cue
var schemaSource string

// Scenario is one end-to-end user journey: a fixed list of browser steps
// followed by assertions on what the page shows afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario (e.g. "TC003_login").
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tags select scenarios from the CLI with --tag.
	Tags []string `yaml:"tags,omitempty"`

	// Steps run strictly in order. The first failing step aborts the scenario.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the active page after the last step.
	Assertions []Assertion `yaml:"assertions"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// HasTag reports whether the scenario carries tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Step is a single browser interaction.
type Step struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// URL is the navigation target for goto. Relative URLs resolve against
	// the configured base URL.
	URL string `yaml:"url,omitempty"`

	// WaitUntil is the navigation wait policy for goto. Defaults to commit.
	WaitUntil browser.LoadState `yaml:"wait_until,omitempty"`

	// Target locates the element for click, fill, check and select.
	Target *browser.Selector `yaml:"target,omitempty"`

	// Nth picks the k-th match of Target.
	Nth int `yaml:"nth,omitempty"`

	// Value is the text to fill or the option to select.
	Value string `yaml:"value,omitempty"`

	// Duration is the fixed delay for wait.
	Duration time.Duration `yaml:"duration,omitempty"`

	// State is the load state for wait_for_load. Defaults to domcontentloaded.
	State browser.LoadState `yaml:"state,omitempty"`

	// Timeout overrides the configured timeout for this step.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// DX and DY are mouse wheel deltas for scroll.
	DX float64 `yaml:"dx,omitempty"`
	DY float64 `yaml:"dy,omitempty"`

	// Note is echoed in the trace.
	Note string `yaml:"note,omitempty"`
}

// Step actions.
const (
	ActionGoto        = "goto"
	ActionClick       = "click"
	ActionFill        = "fill"
	ActionCheck       = "check"
	ActionSelect      = "select"
	ActionWait        = "wait"
	ActionWaitForLoad = "wait_for_load"
	ActionScroll      = "scroll"
)

// Assertion checks rendered page state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Target locates the element to inspect.
	Target *browser.Selector `yaml:"target,omitempty"`

	// Nth picks the k-th match of Target.
	Nth int `yaml:"nth,omitempty"`

	// Attribute names the attribute read by attribute_equals.
	Attribute string `yaml:"attribute,omitempty"`

	// Value is the expected literal (text_equals, value_equals,
	// attribute_equals, url_contains).
	Value string `yaml:"value,omitempty"`

	// Values are the expected substrings (text_contains) or the allowed set
	// (one_of).
	Values []string `yaml:"values,omitempty"`

	// Min and Max bound number_in_range inclusively. Min alone is the lower
	// bound on matches for count and each.
	Min *int64 `yaml:"min,omitempty"`
	Max *int64 `yaml:"max,omitempty"`

	// Count is the exact number of matches for count.
	Count *int `yaml:"count,omitempty"`

	// Checks run against every item matched by an each assertion. Their
	// targets resolve inside the item.
	Checks []Assertion `yaml:"checks,omitempty"`

	// Message is the literal failure text of a fail marker.
	Message string `yaml:"message,omitempty"`
}

// Assertion types.
const (
	AssertTextContains    = "text_contains"
	AssertTextEquals      = "text_equals"
	AssertTextEqualsFold  = "text_equals_fold"
	AssertValueEquals     = "value_equals"
	AssertAttributeEquals = "attribute_equals"
	AssertNumberInRange   = "number_in_range"
	AssertOneOf           = "one_of"
	AssertURLContains     = "url_contains"
	AssertVisible         = "visible"
	AssertCount           = "count"
	AssertEach            = "each"
	AssertFail            = "fail"
)

// Load failure classes, matched with errors.Is.
var (
	ErrSchema = errors.New("schema check failed")
	ErrDecode = errors.New("failed to parse YAML")
)

// LoadScenario reads, schema-checks, decodes and validates a scenario file.
// Unknown fields are rejected both by the CUE schema and by the strict YAML
// decoder.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario is LoadScenario over in-memory bytes. name is used in error
// positions only.
func ParseScenario(name string, data []byte) (*Scenario, error) {
	if err := checkSchema(name, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	scenario.Path = name

	if errs := ValidateScenario(&scenario); len(errs) > 0 {
		return nil, fmt.Errorf("invalid scenario: %w", errs)
	}
	return &scenario, nil
}

// checkSchema unifies the YAML document with #Scenario from schema.cue.
func checkSchema(name string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Scenario"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	file, err := cueyaml.Extract(name, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return err
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// FindScenarioFiles returns the .yaml/.yml files under dir, sorted. A
// non-empty filter is a filepath.Match glob against the base name.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, _ := filepath.Match(filter, filepath.Base(path))
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// LoadScenarios loads every scenario file under dir matching filter and,
// when tag is non-empty, carrying tag. The first invalid file aborts the
// load.
func LoadScenarios(dir, filter, tag string) ([]*Scenario, error) {
	files, err := FindScenarioFiles(dir, filter)
	if err != nil {
		return nil, err
	}

	var scenarios []*Scenario
	seen := make(map[string]string)
	for _, file := range files {
		s, err := LoadScenario(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: [%s] duplicate scenario name %q (also in %s)", file, ErrDuplicateName, s.Name, prev)
		}
		seen[s.Name] = file
		if tag != "" && !s.HasTag(tag) {
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
