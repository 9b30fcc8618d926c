package capture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kjaylee/openclaw-mem/internal/model"
	"github.com/kjaylee/openclaw-mem/internal/state"
)

// transcriptEntry is the subset of a session JSONL line we care about.
// Content items are either {"type": ..., "text": ...} objects or bare
// strings, so they decode as raw messages.
type transcriptEntry struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Role    string            `json:"role"`
		Content []json.RawMessage `json:"content"`
	} `json:"message"`
}

// allowedRoles are the transcript roles worth mining. System and tool
// messages are noise.
var allowedRoles = map[string]struct{}{"user": {}, "assistant": {}}

// ScanFile mines one JSONL session transcript. Malformed lines and
// non-message entries are skipped silently; observations repeated within the
// session are collapsed to their first occurrence.
func ScanFile(path string) []model.Observation {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("cannot open session file", "path", path, "err", err)
		return nil
	}
	defer f.Close()

	var observations []model.Observation
	sessionSeen := map[string]struct{}{}
	base := filepath.Base(path)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var entry transcriptEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.Type != "message" {
			continue
		}
		if _, ok := allowedRoles[entry.Message.Role]; !ok {
			continue
		}

		text := collectText(entry.Message.Content)
		if strings.TrimSpace(text) == "" {
			continue
		}

		for _, tt := range Extract(text) {
			key := fmt.Sprintf("%s:%s", tt.Tag, runePrefix(tt.Text, 40))
			if _, dup := sessionSeen[key]; dup {
				continue
			}
			sessionSeen[key] = struct{}{}

			observations = append(observations, model.Observation{
				Tag:        tt.Tag,
				Text:       tt.Text,
				SourceFile: base,
				Timestamp:  entry.Timestamp,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error scanning session file", "path", path, "err", err)
	}
	return observations
}

// collectText joins the text of all content items, accepting both segment
// objects and plain strings.
func collectText(items []json.RawMessage) string {
	var b strings.Builder
	for _, item := range items {
		var seg struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &seg); err == nil && seg.Text != "" {
			b.WriteString(seg.Text)
			b.WriteString("\n")
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RecentSessions returns the .jsonl files in dir modified within the window,
// newest first. A missing directory is not an error.
func RecentSessions(dir string, since time.Duration) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil || len(matches) == 0 {
		return nil
	}

	cutoff := time.Now().Add(-since)
	type fileTime struct {
		path  string
		mtime time.Time
	}
	var recent []fileTime
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.ModTime().After(cutoff) {
			continue
		}
		recent = append(recent, fileTime{m, info.ModTime()})
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].mtime.After(recent[j].mtime) })
	paths := make([]string, len(recent))
	for i, ft := range recent {
		paths[i] = ft.path
	}
	return paths
}

// Dedup filters out observations whose text hash was already recorded in a
// previous run, marking the survivors' hashes as seen.
func Dedup(observations []model.Observation, seen *state.CaptureState) []model.Observation {
	var fresh []model.Observation
	for _, obs := range observations {
		if seen.Add(TextHash(obs.Text)) {
			fresh = append(fresh, obs)
		}
	}
	return fresh
}
