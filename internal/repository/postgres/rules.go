package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/voicehouse/outreach/internal/domain"
)

// Segment rules are stored as a jsonb column. A NULL column round-trips
// to a nil Rules pointer.

func marshalRules(a *domain.Audience) ([]byte, error) {
	if a.Rules == nil {
		return nil, nil
	}
	data, err := json.Marshal(a.Rules)
	if err != nil {
		return nil, fmt.Errorf("marshal segment rules: %w", err)
	}
	return data, nil
}

func unmarshalRules(data []byte, a *domain.Audience) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var rules domain.SegmentRules
	if err := json.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("unmarshal segment rules: %w", err)
	}
	a.Rules = &rules
	return nil
}
