// Package chunker splits markdown documents into bounded-size chunks
// for vector indexing.
//
// Strategy: split at level-2/3 headings first; sections over the limit are
// split at paragraph boundaries with a carried-forward overlap; a single
// paragraph still too large is force-split into fixed character windows.
package chunker

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/kjaylee/openclaw-mem/internal/model"
)

const (
	DefaultMaxSize = 500
	DefaultOverlap = 50
)

// Options configures chunking behavior. Overlap must stay smaller than
// MaxSize or the sliding window could not advance.
type Options struct {
	MaxSize int
	Overlap int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{MaxSize: DefaultMaxSize, Overlap: DefaultOverlap}
}

func (o Options) normalize() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxSize {
		o.Overlap = o.MaxSize - 1
	}
	return o
}

var (
	headingRe   = regexp.MustCompile(`^#{2,3}\s`)
	paragraphRe = regexp.MustCompile(`\n{2,}`)
	dateRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Chunk splits markdown content into ordered chunks with metadata.
// Indices increase monotonically within the document, and identical content
// at the same position always yields the same chunk ID, so re-chunking an
// unchanged file is idempotent.
func Chunk(content, source string, opts Options) []model.Chunk {
	opts = opts.normalize()

	var chunks []model.Chunk
	index := 0
	emit := func(text string) {
		chunks = append(chunks, makeChunk(text, source, index))
		index++
	}

	for _, section := range splitSections(content) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		if len(section) <= opts.MaxSize {
			emit(section)
			continue
		}

		// Oversized section: pack paragraphs greedily, carrying the tail
		// of the previous buffer forward as overlap context.
		buffer := ""
		for _, para := range paragraphRe.Split(section, -1) {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}

			if len(buffer)+len(para)+2 <= opts.MaxSize {
				if buffer == "" {
					buffer = para
				} else {
					buffer += "\n\n" + para
				}
				continue
			}

			if buffer != "" {
				emit(buffer)
				carried := para
				if opts.Overlap > 0 && len(buffer) > opts.Overlap {
					carried = buffer[len(buffer)-opts.Overlap:] + "\n\n" + para
				}
				switch {
				case len(carried) <= opts.MaxSize:
					buffer = carried
				case len(para) <= opts.MaxSize:
					// Carrying the overlap would overflow; start clean.
					buffer = para
				default:
					for _, part := range forceSplit(para, opts.MaxSize, opts.Overlap) {
						emit(part)
					}
					buffer = ""
				}
				continue
			}

			// Single paragraph over the limit: force-split into windows.
			for _, part := range forceSplit(para, opts.MaxSize, opts.Overlap) {
				emit(part)
			}
		}
		if buffer != "" {
			emit(buffer)
		}
	}

	return chunks
}

// splitSections splits content before each level-2/3 heading line.
func splitSections(content string) []string {
	lines := strings.Split(content, "\n")
	var sections []string
	var current []string

	for _, line := range lines {
		if headingRe.MatchString(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	return sections
}

// forceSplit slices text into windows of maxSize characters advancing by
// maxSize-overlap. The stride is strictly positive, so the split terminates
// and no character is dropped.
func forceSplit(text string, maxSize, overlap int) []string {
	var parts []string
	stride := maxSize - overlap
	for start := 0; start < len(text); start += stride {
		end := start + maxSize
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[start:end])
	}
	return parts
}

// ChunkID is a pure function of filename, position, and content.
func ChunkID(filename string, index int, content string) string {
	return fmt.Sprintf("%s:%d:%s", filename, index, ContentHash(content))
}

// ContentHash returns the first 8 hex chars of the MD5 of content.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

func makeChunk(content, source string, index int) model.Chunk {
	filename := path.Base(source)
	return model.Chunk{
		ID:         ChunkID(filename, index, content),
		Content:    content,
		Source:     source,
		Filename:   filename,
		ChunkIndex: index,
		Date:       dateRe.FindString(filename),
	}
}
