package project

import (
	"regexp"

	relinterr "relint/internal/errors"
)

// Matcher is the single include/ignore predicate for a run. It is constructed
// once (literal or pattern semantics) and passed down, so call sites never
// branch on the matching mode themselves.
type Matcher interface {
	Match(s string) bool
}

type literalMatcher struct {
	want string
}

func (m literalMatcher) Match(s string) bool { return s == m.want }

type patternMatcher struct {
	re *regexp.Regexp
}

func (m patternMatcher) Match(s string) bool { return m.re.MatchString(s) }

// NewMatcher builds a predicate for one expression. Literal mode is exact
// string equality; pattern mode is a case-insensitive, unanchored regex
// search, so plain words behave as substring matches.
func NewMatcher(expr string, literal bool) (Matcher, error) {
	if literal {
		return literalMatcher{want: expr}, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, relinterr.Wrap(relinterr.InvalidPattern, "cannot compile "+expr, err)
	}
	return patternMatcher{re: re}, nil
}

// MatcherSet applies a group of expressions with any-of semantics.
type MatcherSet []Matcher

// NewMatcherSet builds one matcher per expression under a shared mode.
func NewMatcherSet(exprs []string, literal bool) (MatcherSet, error) {
	set := make(MatcherSet, 0, len(exprs))
	for _, expr := range exprs {
		m, err := NewMatcher(expr, literal)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

// AnyMatch reports whether any expression in the set matches s.
func (ms MatcherSet) AnyMatch(s string) bool {
	for _, m := range ms {
		if m.Match(s) {
			return true
		}
	}
	return false
}
