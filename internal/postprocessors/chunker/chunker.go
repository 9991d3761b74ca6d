package chunker

import "strings"

// Segment is one chunk of normalised text.
// StartChar and EndChar are rune offsets into the normalised text.
type Segment struct {
	Content    string
	ChunkIndex int
	StartChar  int
	EndChar    int
}

// sentenceBreakRatio is the share of a window a sentence break must pass.
const sentenceBreakRatio = 0.8

// Normalize collapses runs of whitespace to a single space and trims the result.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits text into overlapping segments of at most chunkSize runes,
// preferring to cut after sentence-ending punctuation.
//
// Callers are expected to pass 0 <= chunkOverlap < chunkSize; see
// domain.PipelineConfig.Validate.
func Chunk(text string, chunkSize, chunkOverlap int) []Segment {
	normalized := Normalize(text)
	if normalized == "" {
		return []Segment{}
	}

	runes := []rune(normalized)
	length := len(runes)

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}

	if length <= chunkSize {
		return []Segment{{
			Content:    normalized,
			ChunkIndex: 0,
			StartChar:  0,
			EndChar:    length,
		}}
	}

	segments := make([]Segment, 0, length/(chunkSize-chunkOverlap)+1)
	minAdvance := int(float64(chunkSize) * sentenceBreakRatio)
	start := 0
	index := 0

	for start < length {
		end := min(start+chunkSize, length)

		if end < length {
			if brk := findSentenceBreak(runes, start+minAdvance, end); brk > start {
				end = brk
			}
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			segments = append(segments, Segment{
				Content:    content,
				ChunkIndex: index,
				StartChar:  start,
				EndChar:    end,
			})
			index++
		}

		next := end - chunkOverlap
		if next <= start {
			// A sentence break shorter than the overlap would stall the window.
			next = end
		}
		if end >= length {
			break
		}
		start = next
	}

	return segments
}

// findSentenceBreak returns the offset just past the rightmost ". ", "! " or
// "? " (or newline variant) starting in (minPos, maxPos], or -1.
func findSentenceBreak(runes []rune, minPos, maxPos int) int {
	last := min(maxPos, len(runes)-2)
	for pos := last; pos > minPos; pos-- {
		if isSentenceEnder(runes[pos]) && isBreakSpace(runes[pos+1]) {
			return pos + 2
		}
	}
	return -1
}

func isSentenceEnder(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isBreakSpace(r rune) bool {
	return r == ' ' || r == '\n'
}
