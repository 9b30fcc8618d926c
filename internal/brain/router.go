// Package brain routes observations into per-project knowledge files and
// checks those files for injection patterns.
//
// A brain file is plain markdown with tag-specific sections. Routing is
// keyword detection over the observation text; anything that matches no
// project falls back to the shared observations file.
package brain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kjaylee/openclaw-mem/internal/capture"
	"github.com/kjaylee/openclaw-mem/internal/config"
	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/sanitizer"
)

// tagSections maps observation tags to brain file section headings.
var tagSections = map[string]string{
	"decision":     "## Architecture Decisions",
	"architecture": "## Architecture Decisions",
	"learning":     "## Lessons Learned",
	"error":        "## Common Mistakes",
	"mistake":      "## Common Mistakes",
	"insight":      "## Next Phase",
	"next":         "## Next Phase",
	"preference":   "## Preferences",
}

const defaultSection = "## Observations"

// Router writes observations into project brain files under root.
type Router struct {
	root   string
	routes []config.BrainRoute
	guard  *sanitizer.Sanitizer
}

func NewRouter(root string, routes []config.BrainRoute) *Router {
	return &Router{root: root, routes: routes, guard: sanitizer.New()}
}

// DetectProject returns the brain file path (relative to root) for the first
// route whose keyword appears in text, or "" when no project matches.
// Matching is case-insensitive and the route order is the precedence.
func (r *Router) DetectProject(text string) string {
	lower := strings.ToLower(text)
	for _, route := range r.routes {
		if strings.Contains(lower, strings.ToLower(route.Keyword)) {
			return route.File
		}
	}
	return ""
}

// SectionForTag returns the section heading observations with this tag land
// under.
func SectionForTag(tag string) string {
	if s, ok := tagSections[tag]; ok {
		return s
	}
	return defaultSection
}

// RouteObservation writes one observation into its project brain file,
// creating the file and section as needed. It returns the relative brain
// path, or "" when no project keyword matched (the caller should fall back
// to the observations file). Entries already present in the section are not
// duplicated. With dryRun set the routing decision is returned without
// writing.
func (r *Router) RouteObservation(text, tag, timestamp string, dryRun bool) (string, error) {
	relPath := r.DetectProject(text)
	if relPath == "" {
		return "", nil
	}
	if dryRun {
		return relPath, nil
	}

	text = r.guard.Sanitize(text)
	absPath := filepath.Join(r.root, filepath.FromSlash(relPath))
	section := SectionForTag(tag)

	if err := ensureBrainFile(absPath); err != nil {
		return "", err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("read brain file: %w", err)
	}
	content := string(data)

	if sectionContains(content, section, text) {
		return relPath, nil
	}

	entry := fmt.Sprintf("- [%s] **[%s]** %s\n", timestamp, tag, text)
	content = insertInSection(content, section, entry)

	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write brain file: %w", err)
	}
	return relPath, nil
}

// Route splits observations into brain-routed and fallback lists. Fallback
// observations belong in the shared observations file.
func (r *Router) Route(observations []model.Observation, dryRun bool) (routed, fallback []model.Observation, err error) {
	for _, obs := range observations {
		rel, rerr := r.RouteObservation(obs.Text, obs.Tag, capture.FormatTimestamp(obs.Timestamp), dryRun)
		if rerr != nil {
			return routed, fallback, rerr
		}
		if rel != "" {
			routed = append(routed, obs)
		} else {
			fallback = append(fallback, obs)
		}
	}
	return routed, fallback, nil
}

// ensureBrainFile creates the file with a title header derived from its
// name: "eastsea-blog.md" gets "# Eastsea Blog Brain".
func ensureBrainFile(absPath string) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create projects dir: %w", err)
	}
	if _, err := os.Stat(absPath); err == nil {
		return nil
	}

	name := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	words := strings.Split(name, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	header := fmt.Sprintf("# %s Brain\n\n", strings.Join(words, " "))
	return os.WriteFile(absPath, []byte(header), 0o644)
}

// sectionBounds locates the body of a section: from the end of its heading
// line to the next level-2 heading or end of file. ok is false when the
// section heading is absent.
func sectionBounds(content, section string) (start, end int, ok bool) {
	headingRe := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(section) + `[ \t]*$`)
	loc := headingRe.FindStringIndex(content)
	if loc == nil {
		return 0, 0, false
	}
	start = loc[1]

	nextRe := regexp.MustCompile(`(?m)^## `)
	if next := nextRe.FindStringIndex(content[start:]); next != nil {
		return start, start + next[0], true
	}
	return start, len(content), true
}

var (
	entryPrefixRe = regexp.MustCompile(`^-\s*\[.*?\]\s*\*\*\[.*?\]\*\*\s*`)
	bulletRe      = regexp.MustCompile(`^-\s*`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// sectionContains reports whether an equivalent entry is already in the
// section. Comparison strips the timestamp/tag prefix, normalizes
// whitespace and case, and treats either direction of substring containment
// as a duplicate, so a shorter rephrasing of an existing entry does not
// pile up.
func sectionContains(content, section, entryText string) bool {
	start, end, ok := sectionBounds(content, section)
	if !ok {
		return false
	}

	normalizedEntry := normalize(entryText)
	for _, line := range strings.Split(content[start:end], "\n") {
		line = strings.TrimSpace(line)
		clean := entryPrefixRe.ReplaceAllString(line, "")
		if clean == line {
			clean = bulletRe.ReplaceAllString(line, "")
		}
		normalizedLine := normalize(clean)
		if normalizedLine == "" {
			continue
		}
		if strings.Contains(normalizedLine, normalizedEntry) ||
			strings.Contains(normalizedEntry, normalizedLine) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(spaceRunRe.ReplaceAllString(strings.TrimSpace(s), " "))
}

// insertInSection places entry at the top of the section, creating the
// section at the end of the file when missing.
func insertInSection(content, section, entry string) string {
	start, _, ok := sectionBounds(content, section)
	if !ok {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + "\n" + section + "\n\n" + entry
	}

	// Skip the heading's newline and keep one blank line after it.
	pos := start
	if pos >= len(content) || content[pos] != '\n' {
		content = content[:pos] + "\n" + content[pos:]
	}
	pos++
	if pos < len(content) && content[pos] == '\n' {
		pos++
	}
	return content[:pos] + entry + content[pos:]
}
