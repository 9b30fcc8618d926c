// Package sanitizer screens text for prompt-injection patterns before it
// is persisted or indexed. It is a gate that degrades rather than rejects:
// unsafe spans are replaced, so writes always succeed but may be altered.
package sanitizer

import "regexp"

// Redacted replaces each detected injection span.
const Redacted = "[FILTERED]"

// injectionPattern pairs a stable name with a compiled regex.
type injectionPattern struct {
	name string
	re   *regexp.Regexp
}

// Sanitizer checks and redacts injection patterns. All patterns are matched
// case-insensitively in a fixed order.
type Sanitizer struct {
	patterns []injectionPattern
}

// New creates a Sanitizer with the built-in pattern set plus any extra
// regex sources, each compiled case-insensitively.
func New(extra ...string) *Sanitizer {
	patterns := defaultPatterns()
	for _, src := range extra {
		patterns = append(patterns, injectionPattern{
			name: src,
			re:   regexp.MustCompile(`(?i)` + src),
		})
	}
	return &Sanitizer{patterns: patterns}
}

// Check reports whether text is free of injection patterns, along with the
// names of every pattern that matched, so a caller can report all violations.
func (s *Sanitizer) Check(text string) (bool, []string) {
	var matches []string
	for _, p := range s.patterns {
		if p.re.MatchString(text) {
			matches = append(matches, p.name)
		}
	}
	return len(matches) == 0, matches
}

// Sanitize replaces every injection span with the redaction token. Each
// pattern substitutes independently, so sequential injections in one string
// are all redacted. Sanitize is idempotent.
func (s *Sanitizer) Sanitize(text string) string {
	for _, p := range s.patterns {
		text = p.re.ReplaceAllString(text, Redacted)
	}
	return text
}

// defaultPatterns covers instruction override, role hijack, data
// exfiltration primitives, encoding/execution primitives, and jailbreak
// keywords.
func defaultPatterns() []injectionPattern {
	compile := func(name, src string) injectionPattern {
		return injectionPattern{name: name, re: regexp.MustCompile(`(?i)` + src)}
	}
	return []injectionPattern{
		// Direct instruction override
		compile("ignore_instructions", `ignore (?:all )?previous instructions`),
		compile("disregard_context", `disregard (?:all )?(?:previous|above)`),
		compile("forget_directive", `forget (?:everything|all|your)`),
		compile("role_override", `you are now`),
		compile("new_instructions", `new instructions:`),
		compile("system_prompt", `system prompt:`),
		compile("chat_template", `<\|im_start\|>system`),
		// URL-based data exfiltration
		compile("credential_send", `send (?:the |all |your )?(?:api.?key|token|secret|password|credential)`),
		compile("curl_fetch", `curl\s+https?://`),
		compile("wget_fetch", `wget\s+https?://`),
		compile("js_fetch", `fetch\s*\(.*https?://`),
		// Encoding / execution primitives
		compile("base64_codec", `base64\.(?:encode|decode)`),
		compile("eval_call", `eval\s*\(`),
		compile("exec_call", `exec\s*\(`),
		// Role-change jailbreaks
		compile("persona_switch", `you (?:are|must|should) (?:now |)(?:act as|pretend|become)`),
		compile("jailbreak", `jailbreak`),
		compile("dan_mode", `DAN mode`),
	}
}
