package rag

import "strings"

// Chunker splits corpus text into overlapping word-boundary chunks.
// Markdown level-2 sections are split first so a chunk never straddles
// two topics unless a single section outgrows the budget.
type Chunker struct {
	size    int // target chunk size in characters
	overlap int // characters carried over between consecutive chunks
}

// NewChunker creates a chunker. Non-positive arguments fall back to the
// 800/200 defaults; overlap is clamped below size.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 {
		overlap = 200
	}
	if overlap >= size {
		overlap = size / 4
	}
	return Chunker{size: size, overlap: overlap}
}

// Chunk splits text into chunks of at most the configured size, breaking
// on word boundaries only
func (c Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for _, section := range splitSections(text) {
		if len(section) <= c.size {
			chunks = append(chunks, section)
			continue
		}
		chunks = append(chunks, c.chunkWords(section)...)
	}
	return chunks
}

// splitSections splits on markdown level-2 headers, keeping each header
// with its section body
func splitSections(text string) []string {
	parts := strings.Split(text, "\n## ")
	sections := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i > 0 {
			part = "## " + part
		}
		sections = append(sections, part)
	}
	return sections
}

func (c Chunker) chunkWords(text string) []string {
	words := strings.Fields(text)

	var chunks []string
	var current []string
	currentLen := 0

	for _, word := range words {
		wordLen := len(word)
		if currentLen > 0 {
			wordLen++ // joining space
		}
		if currentLen+wordLen > c.size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = overlapTail(current, c.overlap)
			currentLen = joinedLen(current)
			if currentLen > 0 {
				wordLen = len(word) + 1
			} else {
				wordLen = len(word)
			}
		}
		current = append(current, word)
		currentLen += wordLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// overlapTail returns the trailing words amounting to at most overlap
// characters when joined
func overlapTail(words []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	total := 0
	i := len(words)
	for i > 0 {
		wordLen := len(words[i-1]) + 1
		if total+wordLen > overlap {
			break
		}
		total += wordLen
		i--
	}
	if i == len(words) {
		return nil
	}
	return append([]string(nil), words[i:]...)
}

func joinedLen(words []string) int {
	if len(words) == 0 {
		return 0
	}
	total := len(words) - 1
	for _, w := range words {
		total += len(w)
	}
	return total
}
