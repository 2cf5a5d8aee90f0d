package segment

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/voicehouse/outreach/internal/domain"
)

// Contact store columns the SQL backend targets.
const (
	colTags       = "tags"
	colLocation   = "location"
	colEngagement = "engagement_score"
	colSignupAt   = "signup_at"
)

// MatchAll is the predicate that matches every contact. It is returned
// for absent or empty rule sets and keeps callers free of nil checks.
var MatchAll sq.Sqlizer = sq.Expr("TRUE")

// BuildPredicate builds an injection-safe SQL predicate for the given
// rules. All values are bound as placeholders; rule fields map to a
// fixed set of columns, so no user input ever reaches the SQL text.
//
// `any` logic OR-combines the rule predicates; `all` builds a true
// conjunction of independent sub-predicates, so two rules on the same
// field both apply rather than one overwriting the other.
func BuildPredicate(rules *domain.SegmentRules) sq.Sqlizer {
	logic, normalized := Normalize(rules)
	if len(normalized) == 0 {
		return MatchAll
	}

	preds := make([]sq.Sqlizer, 0, len(normalized))
	for _, r := range normalized {
		preds = append(preds, rulePredicate(r))
	}

	if logic == domain.LogicAny {
		return sq.Or(preds)
	}
	return sq.And(preds)
}

func rulePredicate(r Rule) sq.Sqlizer {
	switch r := r.(type) {
	case TagsRule:
		if r.Negate {
			return sq.Expr("NOT (? = ANY ("+colTags+"))", r.Tag)
		}
		return sq.Expr("? = ANY ("+colTags+")", r.Tag)

	case LocationRule:
		return sq.Eq{colLocation: r.Code}

	case EngagementRule:
		switch r.Op {
		case CmpGt:
			return sq.Gt{colEngagement: r.Score}
		case CmpLt:
			return sq.Lt{colEngagement: r.Score}
		default:
			return sq.Eq{colEngagement: r.Score}
		}

	case DateRule:
		switch r.Op {
		case CmpGt:
			return sq.Gt{colSignupAt: r.Date}
		case CmpLt:
			return sq.Lt{colSignupAt: r.Date}
		default:
			return sq.Eq{colSignupAt: r.Date}
		}
	}

	// Unreachable: Normalize only emits the types above.
	return MatchAll
}
