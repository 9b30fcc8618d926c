package capture

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// rule pairs an observation tag with an extraction regex. Group 1 is the
// captured text. The table is ordered and matching is first-match-wins per
// line, so more specific markers sit above catch-all phrasings.
type rule struct {
	tag string
	re  *regexp.Regexp
}

var captureRules = []rule{
	// Decision
	{"decision", regexp.MustCompile(`결정:\s*(.{10,300})`)},
	{"decision", regexp.MustCompile(`Decision:\s*(.{10,300})`)},
	{"decision", regexp.MustCompile(`결론:\s*(.{10,300})`)},
	{"decision", regexp.MustCompile(`판정:\s*(.{10,300})`)},
	{"decision", regexp.MustCompile(`(.{5,}→\s*채택.*)`)},
	{"decision", regexp.MustCompile(`(.{5,}→\s*비추.*)`)},
	{"decision", regexp.MustCompile(`(.{10,}.+(?:으로\s*결정).*)`)},
	{"decision", regexp.MustCompile(`(.{10,}.+확정.{5,})`)},
	{"decision", regexp.MustCompile(`(.{10,}.+으로\s*간다.*)`)},

	// Learning
	{"learning", regexp.MustCompile(`배움:\s*(.{10,300})`)},
	{"learning", regexp.MustCompile(`Learned:\s*(.{10,300})`)},
	{"learning", regexp.MustCompile(`교훈:\s*(.{10,300})`)},
	{"learning", regexp.MustCompile(`알게됨:\s*(.{10,300})`)},
	{"learning", regexp.MustCompile(`발견:\s*(.{10,300})`)},
	{"learning", regexp.MustCompile(`(.{5,}알고보니.{10,})`)},
	{"learning", regexp.MustCompile(`(.{5,}사실은.{10,})`)},

	// Completion reports fold into learning
	{"learning", regexp.MustCompile(`(.+(?:배포|push|deploy)\s*완료.{3,})`)},
	{"learning", regexp.MustCompile(`(.+테스트\s*통과.{3,})`)},
	{"learning", regexp.MustCompile(`(.{10,}DONE.{3,})`)},
	{"learning", regexp.MustCompile(`(.{5,}✅.{3,})`)},
	{"learning", regexp.MustCompile(`(.{5,}완료.{5,})`)},

	// Error
	{"error", regexp.MustCompile(`에러:\s*(.{10,300})`)},
	{"error", regexp.MustCompile(`(?:^|[^"])Error:\s*(.{10,300})`)},
	{"error", regexp.MustCompile(`(.{5,}(?:ERROR|FAIL)[:\s].{5,})`)},
	{"error", regexp.MustCompile(`(.{5,}실패.{5,})`)},
	{"error", regexp.MustCompile(`(.{5,}오류.{5,})`)},
	{"error", regexp.MustCompile(`(.+Connection\s+refused.+)`)},
	{"error", regexp.MustCompile(`(.+SIGKILL.+)`)},
	{"error", regexp.MustCompile(`(.{5,}(?:timeout|Timeout).{10,})`)},
	{"error", regexp.MustCompile(`(.+(?:401|403|404|429|500)\s*(?:에러|error|Error|Unauthorized|Forbidden|Not Found).+)`)},
	{"error", regexp.MustCompile(`(.*exited\s+with\s+code\s+[1-9]\d*.*)`)},

	// TODO / insight
	{"insight", regexp.MustCompile(`TODO:?\s+(.{5,300})`)},
	{"insight", regexp.MustCompile(`할일:?\s+(.{5,300})`)},
	{"insight", regexp.MustCompile(`(.{5,}다음에\s+.{10,})`)},
	{"insight", regexp.MustCompile(`(.{5,}나중에\s+.{10,})`)},
	{"insight", regexp.MustCompile(`(.*exited\s+with\s+code\s+0.+(?:completed|success|done).*)`)},

	// Preference
	{"preference", regexp.MustCompile(`선호:\s*(.{10,300})`)},
	{"preference", regexp.MustCompile(`Prefer:\s*(.{10,300})`)},
	{"preference", regexp.MustCompile(`(.{3,}항상\s+.{3,}사용.*)`)},

	// Mistake
	{"mistake", regexp.MustCompile(`실수:\s*(.{10,300})`)},
	{"mistake", regexp.MustCompile(`Mistake:\s*(.{10,300})`)},
	{"mistake", regexp.MustCompile(`주의:\s*(.{10,300})`)},
	{"mistake", regexp.MustCompile(`(.{5,}⚠️.{5,})`)},

	// Architecture
	{"architecture", regexp.MustCompile(`아키텍처:\s*(.{10,300})`)},
	{"architecture", regexp.MustCompile(`Architecture:\s*(.{10,300})`)},
	{"architecture", regexp.MustCompile(`설계:\s*(.{10,300})`)},
	{"architecture", regexp.MustCompile(`구조:\s*(.{10,300})`)},

	// Next steps
	{"next", regexp.MustCompile(`다음:\s*(.{10,300})`)},
	{"next", regexp.MustCompile(`Next:\s*(.{10,300})`)},
}

// skipLineRe filters lines that produce false positives: JSON fragments,
// markdown structure, heartbeats, and session status noise.
var skipLineRe = regexp.MustCompile(`(?i)^\s*[{\[` + "`" + `\-*#>]|"error"\s*:|"timestamp"\s*:|heartbeat|session_status`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanText trims and collapses runs of whitespace.
func cleanText(text string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

// TextHash returns the first 16 hex chars of the MD5 of text, used as the
// cross-session dedup key.
func TextHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
