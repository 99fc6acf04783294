package schema

import (
	"encoding/json"
	"strings"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// ParseConfig decodes and validates a user-supplied configuration
// document. Both failure modes come back as user input errors whose
// message is surfaced verbatim.
func ParseConfig(text string) (domain.UserConfig, error) {
	var cfg domain.UserConfig
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return domain.UserConfig{}, domain.NewUserInputError("Invalid JSON format. Please fix and send it again.")
	}
	if problems := ValidateConfig(cfg); len(problems) > 0 {
		return domain.UserConfig{}, domain.NewUserInputError("%s", "Habits config errors:\n"+strings.Join(problems, "\n"))
	}
	return cfg, nil
}

// ParseRecord decodes a manually supplied record.
func ParseRecord(text string) (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, domain.NewUserInputError("Invalid JSON format. Please try again.")
	}
	return record, nil
}
