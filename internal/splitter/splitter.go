package splitter

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 150
)

// Splitter cuts extracted text into chunks of at most chunkSize runes, with
// consecutive chunks sharing overlap runes of context. It prefers paragraph
// boundaries, then sentence boundaries, then word boundaries before falling
// back to a hard cut. Splitting is deterministic: the same text and
// parameters always produce the same chunk sequence.
type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the chunk sequence for text. Empty or whitespace-only text
// yields no chunks; text shorter than the chunk size yields exactly one.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	cur := make([]rune, 0, s.chunkSize)
	for _, unit := range s.units(text) {
		r := []rune(unit)
		if len(cur) > 0 && len(cur)+len(r) > s.chunkSize {
			chunks = appendChunk(chunks, cur)
			cur = overlapTail(cur, s.overlap)
		}
		cur = append(cur, r...)
	}
	chunks = appendChunk(chunks, cur)
	return chunks
}

// units breaks text into spans no longer than chunkSize-overlap runes, so a
// flushed chunk plus its carried overlap never exceeds chunkSize. Separators
// stay attached to the preceding span.
func (s *Splitter) units(text string) []string {
	maxUnit := s.chunkSize - s.overlap
	if maxUnit <= 0 {
		maxUnit = s.chunkSize
	}
	var units []string
	for _, para := range strings.SplitAfter(text, "\n\n") {
		if para == "" {
			continue
		}
		if len([]rune(para)) <= maxUnit {
			units = append(units, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len([]rune(sent)) <= maxUnit {
				units = append(units, sent)
				continue
			}
			units = append(units, splitWords(sent, maxUnit)...)
		}
	}
	return units
}

// splitSentences cuts after sentence-ending punctuation followed by a space,
// and after newlines, keeping the terminator with the sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '\n' {
			out = append(out, string(runes[start:i+1]))
			start = i + 1
			continue
		}
		if (ch == '.' || ch == '!' || ch == '?') && i+1 < len(runes) && runes[i+1] == ' ' {
			out = append(out, string(runes[start:i+2]))
			start = i + 2
			i++
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// splitWords packs words into spans of at most maxUnit runes; a single word
// longer than maxUnit is hard-cut.
func splitWords(text string, maxUnit int) []string {
	var out []string
	cur := make([]rune, 0, maxUnit)
	for _, word := range strings.SplitAfter(text, " ") {
		r := []rune(word)
		for len(r) > maxUnit {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			out = append(out, string(r[:maxUnit]))
			r = r[maxUnit:]
		}
		if len(cur)+len(r) > maxUnit {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r...)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func appendChunk(chunks []string, cur []rune) []string {
	chunk := strings.TrimSpace(string(cur))
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}

func overlapTail(cur []rune, overlap int) []rune {
	if overlap <= 0 || len(cur) == 0 {
		return nil
	}
	if overlap > len(cur) {
		overlap = len(cur)
	}
	tail := make([]rune, overlap)
	copy(tail, cur[len(cur)-overlap:])
	return tail
}
