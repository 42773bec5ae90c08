package browser

import (
	"fmt"
	"strings"
)

// Selector identifies an element. Exactly one strategy must be set;
// Name and Exact only refine Role.
type Selector struct {
	Role        string `yaml:"role,omitempty" json:"role,omitempty"`
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Exact       bool   `yaml:"exact,omitempty" json:"exact,omitempty"`
	Label       string `yaml:"label,omitempty" json:"label,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	TestID      string `yaml:"test_id,omitempty" json:"test_id,omitempty"`
	Text        string `yaml:"text,omitempty" json:"text,omitempty"`
	CSS         string `yaml:"css,omitempty" json:"css,omitempty"`
	XPath       string `yaml:"xpath,omitempty" json:"xpath,omitempty"`
}

// Strategy names.
const (
	StrategyRole        = "role"
	StrategyLabel       = "label"
	StrategyPlaceholder = "placeholder"
	StrategyTestID      = "test_id"
	StrategyText        = "text"
	StrategyCSS         = "css"
	StrategyXPath       = "xpath"
)

// Strategy returns the single strategy in use, or "" when none is set.
// It does not detect conflicts; use Validate for that.
func (s Selector) Strategy() string {
	for _, c := range s.candidates() {
		if c.value != "" {
			return c.name
		}
	}
	return ""
}

// Validate checks that exactly one strategy is set.
func (s Selector) Validate() error {
	var set []string
	for _, c := range s.candidates() {
		if c.value != "" {
			set = append(set, c.name)
		}
	}
	switch len(set) {
	case 0:
		return fmt.Errorf("selector has no strategy (one of role, label, placeholder, test_id, text, css, xpath)")
	case 1:
	default:
		return fmt.Errorf("selector sets multiple strategies: %s", strings.Join(set, ", "))
	}
	if (s.Name != "" || s.Exact) && s.Role == "" {
		return fmt.Errorf("selector name/exact require role")
	}
	return nil
}

// String renders the selector in a compact, stable form used in traces,
// logs and by the in-memory fake as a lookup key.
func (s Selector) String() string {
	switch s.Strategy() {
	case StrategyRole:
		if s.Name == "" {
			return "role=" + s.Role
		}
		if s.Exact {
			return fmt.Sprintf("role=%s[name=%q exact]", s.Role, s.Name)
		}
		return fmt.Sprintf("role=%s[name=%q]", s.Role, s.Name)
	case StrategyLabel:
		return "label=" + s.Label
	case StrategyPlaceholder:
		return "placeholder=" + s.Placeholder
	case StrategyTestID:
		return "test_id=" + s.TestID
	case StrategyText:
		return "text=" + s.Text
	case StrategyCSS:
		return "css=" + s.CSS
	case StrategyXPath:
		return "xpath=" + s.XPath
	}
	return "<empty>"
}

type candidate struct {
	name  string
	value string
}

func (s Selector) candidates() []candidate {
	return []candidate{
		{StrategyRole, s.Role},
		{StrategyLabel, s.Label},
		{StrategyPlaceholder, s.Placeholder},
		{StrategyTestID, s.TestID},
		{StrategyText, s.Text},
		{StrategyCSS, s.CSS},
		{StrategyXPath, s.XPath},
	}
}
