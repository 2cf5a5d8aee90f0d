package segment

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
)

// MaxValueLen caps raw rule values before any interpretation.
const MaxValueLen = 1000

// CompareOp is the comparison direction of a normalized rule.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpGt
	CmpLt
)

// Rule is a validated, typed segment rule. The concrete types form a
// closed set; each storage backend switches over them.
type Rule interface {
	isRule()
}

// TagsRule matches contacts whose tag set contains (or does not
// contain) the given tag.
type TagsRule struct {
	Negate bool
	Tag    string
}

// LocationRule matches contacts in the given two-letter country code.
type LocationRule struct {
	Op   CompareOp
	Code string
}

// EngagementRule compares the contact's engagement score, already
// clamped to [0, 100].
type EngagementRule struct {
	Op    CompareOp
	Score int
}

// DateRule compares the contact's signup date.
type DateRule struct {
	Op   CompareOp
	Date time.Time
}

func (TagsRule) isRule()       {}
func (LocationRule) isRule()   {}
func (EngagementRule) isRule() {}
func (DateRule) isRule()       {}

var (
	allowedFields = map[string]bool{
		domain.FieldTags:       true,
		domain.FieldLocation:   true,
		domain.FieldEngagement: true,
		domain.FieldSignupDate: true,
	}
	allowedOperators = map[string]bool{
		domain.OpContains:    true,
		domain.OpNotContains: true,
		domain.OpEquals:      true,
		domain.OpGreaterThan: true,
		domain.OpLessThan:    true,
	}

	countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)
	leadingDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// Normalize validates and sanitizes raw segment rules into typed rules.
// Invalid rules are dropped, never errored: the result of Normalize on a
// rule set containing an invalid rule is identical to the result on the
// same set with that rule removed. Pure function of its input.
func Normalize(rules *domain.SegmentRules) (domain.SegmentLogic, []Rule) {
	logic := domain.LogicAll
	if rules == nil {
		return logic, nil
	}
	if rules.Logic == domain.LogicAny {
		logic = domain.LogicAny
	}

	out := make([]Rule, 0, len(rules.Rules))
	for _, r := range rules.Rules {
		if !allowedFields[r.Field] || !allowedOperators[r.Operator] {
			continue
		}
		if nr, ok := normalizeRule(r); ok {
			out = append(out, nr)
		}
	}
	return logic, out
}

func normalizeRule(r domain.SegmentRule) (Rule, bool) {
	value := r.Value
	if len(value) > MaxValueLen {
		value = value[:MaxValueLen]
	}

	switch r.Field {
	case domain.FieldTags:
		// Free-text tag match, length-limited only. Comparison
		// operators have no meaning for a tag set.
		switch r.Operator {
		case domain.OpContains, domain.OpEquals:
			return TagsRule{Tag: value}, true
		case domain.OpNotContains:
			return TagsRule{Negate: true, Tag: value}, true
		}
		return nil, false

	case domain.FieldLocation:
		if r.Operator != domain.OpEquals {
			return nil, false
		}
		// Only exact two-letter country codes survive: "nl" becomes
		// "NL", anything longer ("Netherlands") is dropped outright.
		code := strings.ToUpper(strings.TrimSpace(value))
		if !countryCodeRe.MatchString(code) {
			return nil, false
		}
		return LocationRule{Op: CmpEq, Code: code}, true

	case domain.FieldEngagement:
		op, ok := compareOp(r.Operator)
		if !ok {
			return nil, false
		}
		// Non-numeric input defaults to 0 rather than dropping the
		// rule; the clamp keeps the comparison inside the valid range.
		score, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			score = 0
		}
		return EngagementRule{Op: op, Score: domain.ClampEngagement(score)}, true

	case domain.FieldSignupDate:
		op, ok := compareOp(r.Operator)
		if !ok {
			return nil, false
		}
		m := leadingDateRe.FindString(value)
		if m == "" {
			return nil, false
		}
		t, err := time.Parse("2006-01-02", m)
		if err != nil {
			return nil, false
		}
		return DateRule{Op: op, Date: t}, true
	}

	return nil, false
}

func compareOp(operator string) (CompareOp, bool) {
	switch operator {
	case domain.OpEquals:
		return CmpEq, true
	case domain.OpGreaterThan:
		return CmpGt, true
	case domain.OpLessThan:
		return CmpLt, true
	default:
		return 0, false
	}
}
