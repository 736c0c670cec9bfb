// Package homepage renders bookmarks as a Homepage (gethomepage.dev)
// bookmarks.yaml so they can be dropped into a dashboard.
package homepage

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"gopkg.in/yaml.v3"
)

// OtherCategory holds repositories without a detected language.
const OtherCategory = "Other"

const githubIcon = "github.png"

// Build groups entries into one category per language, sorted by name.
// Within a category bookmarks keep their list order.
func Build(entries []domain.BookmarkEntry) BookmarksConfig {
	groups := make(map[string][]map[string][]BookmarkEntry)
	for _, e := range entries {
		category := strings.TrimSpace(e.Language)
		if category == "" {
			category = OtherCategory
		}
		groups[category] = append(groups[category], map[string][]BookmarkEntry{
			e.FullName: {{
				Icon:        githubIcon,
				Abbr:        abbreviate(e.Name),
				Href:        e.HTMLURL,
				Description: e.Description,
			}},
		})
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		// Other always goes last.
		if (names[i] == OtherCategory) != (names[j] == OtherCategory) {
			return names[j] == OtherCategory
		}
		return names[i] < names[j]
	})

	config := make(BookmarksConfig, 0, len(names))
	for _, name := range names {
		config = append(config, BookmarkCategory{name: groups[name]})
	}
	return config
}

// Marshal renders entries as bookmarks.yaml.
func Marshal(entries []domain.BookmarkEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Build(entries)); err != nil {
		return nil, fmt.Errorf("failed to encode bookmarks yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode bookmarks yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// abbreviate builds Homepage's two letter badge from a repository name:
// initials of the first two words, or the first two letters.
func abbreviate(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []rune
	switch {
	case len(words) >= 2:
		out = []rune{[]rune(words[0])[0], []rune(words[1])[0]}
	case len(words) == 1:
		out = []rune(words[0])
		if len(out) > 2 {
			out = out[:2]
		}
	default:
		return "GH"
	}
	return strings.ToUpper(string(out))
}
