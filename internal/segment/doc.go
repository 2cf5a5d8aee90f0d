// Package segment translates declarative audience segment rules into
// validated, injection-safe query predicates against the contact store.
//
// Rule validation and value sanitization happen in a pure pre-processing
// pass (Normalize) that is independent of any storage backend. The SQL
// backend (BuildPredicate) consumes the normalized rules; additional
// backends (an in-memory filter, another store) can be layered on the
// same normalized form without touching validation.
//
// Rules whose field or operator falls outside the allow-lists are
// dropped silently: a dropped rule behaves exactly as if it were absent,
// never as "always true".
package segment
