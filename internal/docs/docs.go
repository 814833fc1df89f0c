// Package docs maps markdown documentation without indexing its prose.
// Each document contributes its top-level section headers plus any file
// paths its architecture-flavored sentences point at.
package docs

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"archmap/internal/model"
)

const (
	headBytes   = 5 * 1024
	maxSections = 10
	maxHints    = 5
)

var headerRe = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)

// hintRes match sentences that tend to name load-bearing files.
var hintRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:see|refer to|located in|defined in|implemented in)\s+` + "`?" + `([\w./-]+/[\w./-]+)` + "`?"),
	regexp.MustCompile(`(?i)(?:entry point|main file|core logic)[^.\n]*?` + "`?" + `([\w./-]+/[\w./-]+)` + "`?"),
	regexp.MustCompile("`([\\w./-]+/[\\w.-]+\\.[a-z]{1,4})`"),
	regexp.MustCompile(`\[[^\]]+\]\(([\w./-]+/[\w.-]+)\)`),
}

// Scan reads the leading portion of each markdown file under root and
// returns one entry per document that yielded sections or hints.
func Scan(root string, markdown []string) map[string]*model.DocEntry {
	out := make(map[string]*model.DocEntry)
	for _, rel := range markdown {
		entry, ok := scanFile(filepath.Join(root, rel))
		if ok {
			out[rel] = entry
		}
	}
	return out
}

func scanFile(path string) (*model.DocEntry, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	buf := make([]byte, headBytes)
	n, _ := f.Read(buf)
	content := string(buf[:n])

	entry := &model.DocEntry{}
	for _, m := range headerRe.FindAllStringSubmatch(content, -1) {
		entry.Sections = append(entry.Sections, strings.TrimSpace(m[1]))
		if len(entry.Sections) == maxSections {
			break
		}
	}
	entry.Hints = extractHints(content)
	return entry, len(entry.Sections) > 0 || len(entry.Hints) > 0
}

// extractHints collects path-like references, skipping URLs.
func extractHints(content string) []string {
	seen := map[string]struct{}{}
	for _, re := range hintRes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			p := strings.Trim(m[1], "`.,;:")
			if !strings.Contains(p, "/") || strings.HasPrefix(p, "http") {
				continue
			}
			seen[p] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	hints := make([]string, 0, len(seen))
	for p := range seen {
		hints = append(hints, p)
	}
	sort.Strings(hints)
	if len(hints) > maxHints {
		hints = hints[:maxHints]
	}
	return hints
}
