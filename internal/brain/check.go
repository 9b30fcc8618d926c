package brain

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kjaylee/openclaw-mem/internal/sanitizer"
)

// Finding is one suspicious line in a brain file.
type Finding struct {
	Line     int      `json:"line"`
	Text     string   `json:"text"`
	Patterns []string `json:"patterns"`
}

// FileReport pairs a brain file with its findings. An empty Findings slice
// means the file passed.
type FileReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// Checker scans brain files for injection patterns after the fact: routed
// entries were sanitized on write, but files are also edited by hand.
type Checker struct {
	guard *sanitizer.Sanitizer
}

func NewChecker() *Checker {
	return &Checker{guard: sanitizer.New()}
}

// ScanFile returns a finding for every non-blank line that trips an
// injection pattern.
func (c *Checker) ScanFile(path string) ([]Finding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var findings []Finding
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if safe, matched := c.guard.Check(line); !safe {
			findings = append(findings, Finding{Line: lineNum, Text: line, Patterns: matched})
		}
	}
	if err := scanner.Err(); err != nil {
		return findings, err
	}
	return findings, nil
}

// ScanDir scans every .md file in dir, sorted by path. A missing directory
// yields an empty report.
func (c *Checker) ScanDir(dir string) ([]FileReport, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var reports []FileReport
	for _, path := range matches {
		findings, err := c.ScanFile(path)
		if err != nil {
			return reports, err
		}
		reports = append(reports, FileReport{Path: path, Findings: findings})
	}
	return reports, nil
}

// FixFile rewrites the file with every flagged line sanitized. It returns
// how many lines changed and how many pattern hits were removed.
func (c *Checker) FixFile(path string) (linesFixed, patternsRemoved int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		safe, matched := c.guard.Check(line)
		if safe {
			continue
		}
		lines[i] = c.guard.Sanitize(line)
		linesFixed++
		patternsRemoved += len(matched)
	}
	if linesFixed == 0 {
		return 0, 0, nil
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return linesFixed, patternsRemoved, fmt.Errorf("write %s: %w", path, err)
	}
	return linesFixed, patternsRemoved, nil
}
