package titles

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// parseTitles extracts title strings from a model response. JSON is the
// requested format; pipe-separated lines cover models that ignore the format
// instruction. Returns nil when neither works.
func parseTitles(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	if titles, ok := parseJSONArray(extractArray(text)); ok {
		return titles
	}

	if strings.Contains(text, "|") {
		return splitPiped(text)
	}

	return nil
}

// extractArray pulls the first JSON array out of mixed prose/JSON output,
// unwrapping markdown code fences when present. A truncated array is returned
// as-is so the repair pass can close it.
func extractArray(raw string) string {
	if strings.Contains(raw, "```") {
		var inner []string
		inFence := false
		for _, line := range strings.Split(raw, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inFence = !inFence
				continue
			}
			if inFence {
				inner = append(inner, line)
			}
		}
		if len(inner) > 0 {
			raw = strings.Join(inner, "\n")
		}
	}

	start := strings.Index(raw, "[")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	return raw[start:]
}

func parseJSONArray(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}

	var titles []string
	if err := json.Unmarshal([]byte(text), &titles); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, false
		}
		if json.Unmarshal([]byte(repaired), &titles) != nil {
			return nil, false
		}
		log.Debug().
			Int("original_bytes", len(text)).
			Int("repaired_bytes", len(repaired)).
			Msg("repaired malformed title JSON")
	}

	titles = cleanTitles(titles)
	if len(titles) == 0 {
		return nil, false
	}
	return titles, true
}

// splitPiped handles "Title One | Title Two | Title Three" style output.
func splitPiped(text string) []string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		if titles := cleanTitles(strings.Split(line, "|")); len(titles) > 0 {
			return titles
		}
	}
	return nil
}

func cleanTitles(raw []string) []string {
	titles := make([]string, 0, len(raw))
	for _, title := range raw {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}
