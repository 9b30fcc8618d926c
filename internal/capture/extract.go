// Package capture mines observations from session transcripts using an
// ordered rule table, with three dedup layers: within a text block, within
// a session file, and across runs via persisted content hashes.
package capture

import (
	"fmt"
	"strings"

	"github.com/kjaylee/openclaw-mem/internal/model"
)

const (
	minCaptureLen = 8
	maxCaptureLen = 300
)

// Extract pulls tagged observations out of one text block. Each line yields
// at most one observation (the first rule that matches wins), and repeats of
// the same tag with the same leading text are collapsed.
func Extract(text string) []model.TaggedText {
	var out []model.TaggedText
	seenInBlock := map[string]struct{}{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if runeLen(line) < 10 {
			continue
		}
		if skipLineRe.MatchString(line) {
			continue
		}

		for _, r := range captureRules {
			m := r.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			captured := cleanText(m[1])
			if runeLen(captured) < minCaptureLen {
				continue
			}
			if runeLen(captured) > maxCaptureLen {
				captured = runePrefix(captured, maxCaptureLen-3) + "..."
			}

			// A duplicate under this rule does not finish the line: a
			// later rule may still capture it under a different tag.
			key := fmt.Sprintf("%s:%s", r.tag, runePrefix(captured, 30))
			if _, dup := seenInBlock[key]; dup {
				continue
			}
			seenInBlock[key] = struct{}{}

			out = append(out, model.TaggedText{Tag: r.tag, Text: captured})
			break
		}
	}
	return out
}

func runeLen(s string) int { return len([]rune(s)) }

func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
