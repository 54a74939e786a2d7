package repo

import (
	"os"
	"path/filepath"
	"strings"
)

const maxSummaryLines = 40

var readmeNames = []string{"README.md", "readme.md", "Readme.md"}

// ReadmeSummary returns the first lines of the project's README, or a
// literal placeholder. The placeholder flows into the report verbatim.
func ReadmeSummary(root string) string {
	for _, name := range readmeNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) > maxSummaryLines {
			lines = lines[:maxSummaryLines]
		}
		summary := strings.Join(lines, "\n")
		if summary == "" {
			return "(README present but empty)"
		}
		return summary
	}
	return "(No README found)"
}
