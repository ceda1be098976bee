package chunking

import "strings"

type Splitter struct {
	ChunkWords   int
	OverlapWords int
}

func NewSplitter(chunkWords, overlapWords int) *Splitter {
	if chunkWords <= 0 {
		chunkWords = 500
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= chunkWords {
		overlapWords = chunkWords / 10
	}
	return &Splitter{
		ChunkWords:   chunkWords,
		OverlapWords: overlapWords,
	}
}

// Split cuts text into overlapping word windows. Text at or under the window
// size passes through untouched; longer text is rejoined with single spaces.
func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= s.ChunkWords {
		return []string{text}
	}

	step := s.ChunkWords - s.OverlapWords
	if step <= 0 {
		step = s.ChunkWords
	}

	out := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + s.ChunkWords
		if end > len(words) {
			end = len(words)
		}
		// A trailing window holding only overlap words repeats the
		// previous chunk and is dropped.
		if end-start > s.OverlapWords {
			out = append(out, strings.Join(words[start:end], " "))
		}
	}
	return out
}
