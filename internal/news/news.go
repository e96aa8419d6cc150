// Package news parses the uploaded news/activity feed.
package news

import (
	"encoding/json"
	"strings"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/model"
)

// goalTypos corrects known misspellings of national goal names seen in feed
// exports, keyed by the uppercased misspelling. The known one has two Latin
// letters inside a Cyrillic word.
var goalTypos = map[string]string{
	"РЕАЛИЗАЦИЯ ПОТЕНЦИАЛА КАЖДОГО ЧЕЛОВЕКА, РАЗВИТИЕ ЕГО ТАЛАНТОВ, ВОСПИТАНИЕ ПАТРИОTIЧНОЙ И СОЦИАЛЬНО ОТВЕТСТВЕННОЙ ЛИЧНОСТИ": "РЕАЛИЗАЦИЯ ПОТЕНЦИАЛА КАЖДОГО ЧЕЛОВЕКА, РАЗВИТИЕ ЕГО ТАЛАНТОВ, ВОСПИТАНИЕ ПАТРИОТИЧНОЙ И СОЦИАЛЬНО ОТВЕТСТВЕННОЙ ЛИЧНОСТИ",
}

type feed struct {
	Results []model.NewsItem `json:"results"`
}

// Parse decodes a news feed payload. Both a bare JSON array and the
// {"results": [...]} envelope are accepted. Goal names are corrected
// against the known-typo table before items are returned.
func Parse(payload []byte) ([]model.NewsItem, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, apperrors.Input("news payload is empty")
	}

	var items []model.NewsItem
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, apperrors.Wrap(apperrors.TypeInput, "decode news payload", err)
		}
	} else {
		var envelope feed
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil, apperrors.Wrap(apperrors.TypeInput, "decode news payload", err)
		}
		items = envelope.Results
	}

	for i := range items {
		items[i].NationalGoal = canonicalGoal(items[i].NationalGoal)
	}
	return items, nil
}

func canonicalGoal(name string) string {
	trimmed := strings.TrimSpace(name)
	if fixed, ok := goalTypos[strings.ToUpper(trimmed)]; ok {
		return fixed
	}
	return trimmed
}
