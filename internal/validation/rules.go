// Package validation is a pure, stateless engine for field and form rules.
package validation

import "regexp"

// RuleKind identifies how a rule judges a value.
type RuleKind string

const (
	Required  RuleKind = "required"
	MinLength RuleKind = "min_length"
	MaxLength RuleKind = "max_length"
	Pattern   RuleKind = "pattern"
	Custom    RuleKind = "custom"
)

// Rule is one declarative constraint. Rules run in order; the first failure
// wins. Custom rules receive the whole field map so they can express
// cross-field constraints.
type Rule struct {
	Kind    RuleKind
	Message string

	Length  int
	Pattern *regexp.Regexp
	Check   func(value string, fields map[string]string) bool
}

func RequireRule(message string) Rule {
	return Rule{Kind: Required, Message: message}
}

func MinLengthRule(n int, message string) Rule {
	return Rule{Kind: MinLength, Length: n, Message: message}
}

func MaxLengthRule(n int, message string) Rule {
	return Rule{Kind: MaxLength, Length: n, Message: message}
}

func PatternRule(re *regexp.Regexp, message string) Rule {
	return Rule{Kind: Pattern, Pattern: re, Message: message}
}

func CustomRule(check func(value string, fields map[string]string) bool, message string) Rule {
	return Rule{Kind: Custom, Check: check, Message: message}
}

// Field evaluates rules in order and returns the first failing message, or
// "" when the value passes. Non-required rules skip empty values so that
// optional fields validate only when present.
func Field(value string, rules []Rule, fields map[string]string) string {
	for _, r := range rules {
		switch r.Kind {
		case Required:
			if value == "" {
				return r.Message
			}
		case MinLength:
			if value != "" && len(value) < r.Length {
				return r.Message
			}
		case MaxLength:
			if len(value) > r.Length {
				return r.Message
			}
		case Pattern:
			if value != "" && r.Pattern != nil && !r.Pattern.MatchString(value) {
				return r.Message
			}
		case Custom:
			if r.Check != nil && !r.Check(value, fields) {
				return r.Message
			}
		}
	}
	return ""
}

// Form evaluates every field in the ruleset, never short-circuiting, so all
// errors surface together. It returns the per-field messages and an overall
// ok flag.
func Form(values map[string]string, ruleset map[string][]Rule) (map[string]string, bool) {
	errs := make(map[string]string)
	for field, rules := range ruleset {
		if msg := Field(values[field], rules, values); msg != "" {
			errs[field] = msg
		}
	}
	return errs, len(errs) == 0
}
