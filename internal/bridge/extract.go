package bridge

import (
	"strings"
)

// DefaultResponseMarker is the bullet glyph Claude Code prefixes each
// response paragraph with.
const DefaultResponseMarker = "●"

// DefaultMaxResponseLines caps the extracted response so one answer cannot
// flood the caller. Truncation keeps the head: the beginning of an answer
// is worth more than its tail.
const DefaultMaxResponseLines = 30

// Extractor isolates the most recently completed response block from a
// captured transcript.
type Extractor struct {
	// Detector supplies the idle-prompt boundary pattern.
	Detector *Detector
	// Marker is the glyph the agent prefixes response paragraphs with.
	Marker string
	// MaxLines caps the returned block.
	MaxLines int
}

// NewExtractor returns an Extractor sharing the given detector's prompt
// pattern. An empty marker falls back to DefaultResponseMarker.
func NewExtractor(det *Detector, marker string) *Extractor {
	if marker == "" {
		marker = DefaultResponseMarker
	}
	return &Extractor{Detector: det, Marker: marker, MaxLines: DefaultMaxResponseLines}
}

// LastResponse returns the response between the transcript's second-to-last
// and last idle-prompt lines.
//
// Idle-prompt lines delimit blocks but are never content. The last block,
// after the final prompt, belongs to the request currently being typed and
// is necessarily incomplete; the one before it is the most recent block
// known to be closed. Within a block only marker lines and indented
// continuation lines are response text; box-drawing chrome, spinners, and
// other top-level noise the agent renders between paragraphs are dropped
// along with blank lines. The result is capped at MaxLines from the head.
//
// Fewer than two boundaries means no completed response exists yet; that
// returns nil rather than an error.
func (e *Extractor) LastResponse(transcript []string) []string {
	var blocks [][]string
	current := []string{}
	boundaries := 0

	for _, line := range transcript {
		if e.Detector.IsBoundary(line) {
			boundaries++
			blocks = append(blocks, current)
			current = []string{}
			continue
		}
		norm := normalizeLine(line)
		if !e.isResponseLine(norm) {
			continue
		}
		current = append(current, norm)
	}
	blocks = append(blocks, current)

	if boundaries < 2 {
		return nil
	}

	// blocks has boundaries+1 entries; the second-to-last one sits between
	// the last two prompt lines.
	block := blocks[len(blocks)-2]
	limit := e.MaxLines
	if limit <= 0 {
		limit = DefaultMaxResponseLines
	}
	if len(block) > limit {
		block = block[:limit]
	}
	return block
}

// isResponseLine reports whether a normalized content line belongs to a
// response: a marker line opens a paragraph, an indented line continues
// one. Anything else at the top level is interface chrome.
func (e *Extractor) isResponseLine(norm string) bool {
	if norm == "" {
		return false
	}
	marker := e.Marker
	if marker == "" {
		marker = DefaultResponseMarker
	}
	if strings.HasPrefix(norm, marker) {
		return true
	}
	return norm[0] == ' ' || norm[0] == '\t'
}
