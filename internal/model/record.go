// Package model defines the core memory data types.
package model

// Chunk is a bounded-size slice of a markdown document with position
// and source metadata. Chunks are immutable: when a source file changes,
// its old chunks are deleted and new ones inserted, never mutated.
type Chunk struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Date       string `json:"date,omitempty"`
}

// Record is a chunk with its embedding vector as stored in the vector DB.
// Tag is empty for ordinary file chunks and non-empty for observations.
type Record struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Date       string    `json:"date"`
	Tag        string    `json:"tag"`
	Vector     []float32 `json:"vector,omitempty"`
}

// TaggedText is a tagged statement extracted from one text block,
// before source/timestamp metadata is attached.
type TaggedText struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// Observation is a short, tagged statement mined from a session transcript.
// Observations are never updated after creation; duplicates are suppressed.
type Observation struct {
	Tag        string `json:"tag"`
	Text       string `json:"text"`
	SourceFile string `json:"source_file,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ObservationTags is the closed set of valid observation tags.
var ObservationTags = []string{
	"decision", "learning", "error", "insight",
	"preference", "mistake", "architecture", "next",
}

// ValidTag reports whether tag belongs to the closed observation tag set.
func ValidTag(tag string) bool {
	for _, t := range ObservationTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ResultMeta carries the secondary fields of a search result.
type ResultMeta struct {
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Date       string `json:"date"`
	Tag        string `json:"tag"`
}

// SearchResult is a full search hit with content and similarity score.
type SearchResult struct {
	ID       string     `json:"id"`
	Source   string     `json:"source"`
	Content  string     `json:"content"`
	Score    float64    `json:"score,omitempty"`
	Metadata ResultMeta `json:"metadata"`
}

// Summary is the cheap first phase of progressive disclosure: no content,
// only a short excerpt for triage. Full content comes from a detail lookup.
type Summary struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
	Tag     string  `json:"tag"`
}
