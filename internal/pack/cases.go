package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// placeholderGameState is attached to every split case until real
// structured board states are authored.
func placeholderGameState() map[string]any {
	return map[string]any{
		"map":           map[string]any{},
		"pieces":        []any{},
		"player_status": map[string]any{},
		"notes":         "Placeholder for structured game state",
	}
}

// SanitizeID normalizes a case ID for use in filenames. Numeric IDs
// are zero-padded to three digits; anything else is prefixed so the
// file sorts apart from real cases.
func SanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id != "" && isDigits(id) {
		for len(id) < 3 {
			id = "0" + id
		}
		return id
	}
	return "unknown_" + id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SplitCases reads a JSON array of handcrafted test cases from
// inputPath and writes each one to outputDir as test_{ID}.json,
// adding the game_state_json placeholder and a game_state_url derived
// from the case ID. Returns the number of files written.
func SplitCases(inputPath, outputDir string) (int, error) {
	raw, err := os.ReadFile(inputPath) // #nosec G304 -- operator-supplied path
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", inputPath, err)
	}
	var cases []map[string]any
	if err := json.Unmarshal(raw, &cases); err != nil {
		return 0, fmt.Errorf("parse %s: %w", inputPath, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", outputDir, err)
	}

	written := 0
	for i, c := range cases {
		rawID, ok := c["ID"]
		if !ok {
			return written, fmt.Errorf("case %d has no ID field", i)
		}
		fileID := SanitizeID(fieldString(rawID))

		c["game_state_json"] = placeholderGameState()
		c["game_state_url"] = fmt.Sprintf("https://example.com/game_state_images/test_%s.png", fileID)

		encoded, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return written, fmt.Errorf("encode case %s: %w", fileID, err)
		}
		path := filepath.Join(outputDir, fmt.Sprintf("test_%s.json", fileID))
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
