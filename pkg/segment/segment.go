package segment

import (
	"regexp"
	"strings"
)

// Strategy selects how text is split into chunks.
type Strategy string

const (
	// StrategySentence accumulates whole sentences up to the target size.
	StrategySentence Strategy = "sentence"
	// StrategyParagraph splits on blank lines, recombining small paragraphs
	// and sentence-splitting oversized ones.
	StrategyParagraph Strategy = "paragraph"
	// StrategySemantic splits on structural markers such as chapter headings
	// or horizontal rules, recursing to sentences for long segments.
	StrategySemantic Strategy = "semantic"
	// StrategySlidingWindow produces fixed-size overlapping windows whose
	// trailing edge snaps back to the nearest sentence end.
	StrategySlidingWindow Strategy = "sliding_window"
	// StrategyAdaptive measures paragraph density and mean sentence length
	// and picks one of the other strategies.
	StrategyAdaptive Strategy = "adaptive"
)

const (
	// DefaultTargetSize is the soft character budget used when the caller
	// passes a non-positive size.
	DefaultTargetSize = 500

	// overflowFactor bounds how far past the target a single unsplittable
	// sentence may push a chunk before the character fallback kicks in.
	overflowFactor = 2

	// windowOverlap is the character overlap between sliding windows.
	windowOverlap = 80

	// snapTolerance is the largest fraction of a sliding window that may be
	// given up to end the window on a sentence boundary.
	snapTolerance = 0.3
)

var (
	sentenceEnd   = regexp.MustCompile(`(?s)(.*?[.!?])(?:\s+|$)`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
	semanticBreak = regexp.MustCompile(`(?mi)^\s*(?:chapter\s+\w+|poglavlje\s+\w+|[IVXLC]+\.\s*$|[-=_*]{3,}\s*$|#{1,3}\s+.*)$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Split divides text into chunks of roughly targetSize characters using the
// given strategy. Empty or whitespace-only input yields nil. Split never
// fails: if a strategy panics or produces nothing usable, the fixed-width
// character splitter takes over so indexing cannot die on malformed text.
func Split(text string, targetSize int, strategy Strategy) []string {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return nil
	}

	chunks := runStrategy(normalized, targetSize, strategy)
	if len(chunks) == 0 {
		chunks = splitCharacters(normalized, targetSize)
	}
	return chunks
}

// runStrategy dispatches to the chosen strategy, converting any panic into
// the character fallback.
func runStrategy(text string, targetSize int, strategy Strategy) (chunks []string) {
	defer func() {
		if r := recover(); r != nil {
			chunks = splitCharacters(text, targetSize)
		}
	}()

	switch strategy {
	case StrategyParagraph:
		chunks = splitParagraphs(text, targetSize)
	case StrategySemantic:
		chunks = splitSemantic(text, targetSize)
	case StrategySlidingWindow:
		chunks = splitSlidingWindow(text, targetSize)
	case StrategyAdaptive:
		chunks = splitAdaptive(text, targetSize)
	case StrategySentence:
		chunks = splitSentences(text, targetSize)
	default:
		chunks = splitSentences(text, targetSize)
	}
	return chunks
}

// sentences splits text into sentence strings, keeping terminal punctuation.
// Text with no sentence boundary comes back as a single element.
func sentences(text string) []string {
	matches := sentenceEnd.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	out := make([]string, 0, len(matches)+1)
	consumed := 0
	for _, m := range matches {
		s := strings.TrimSpace(m[1])
		if s != "" {
			out = append(out, s)
		}
		consumed += len(m[0])
	}
	// Trailing text without terminal punctuation still belongs to a chunk.
	if rest := strings.TrimSpace(text[consumed:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// splitSentences accumulates sentences until the budget is reached, carrying
// overflow into the next chunk. A single sentence longer than
// overflowFactor*targetSize is character-split rather than emitted whole.
func splitSentences(text string, targetSize int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	maxLen := targetSize * overflowFactor
	for _, s := range sentences(text) {
		if len(s) > maxLen {
			flush()
			chunks = append(chunks, splitCharacters(s, targetSize)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(s)+1 >= targetSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	flush()
	return chunks
}

// splitParagraphs splits on blank lines, recombines small paragraphs up to
// the budget and sentence-splits any paragraph that exceeds it on its own.
func splitParagraphs(text string, targetSize int) []string {
	paragraphs := blankLines.Split(text, -1)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) > targetSize*overflowFactor {
			flush()
			chunks = append(chunks, splitSentences(p, targetSize)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(p)+2 >= targetSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	flush()
	return chunks
}

// splitSemantic splits on structural markers, falling back to paragraph
// behavior when the text carries none, and recursing to sentences for
// segments that blow the budget.
func splitSemantic(text string, targetSize int) []string {
	marks := semanticBreak.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		return splitParagraphs(text, targetSize)
	}

	var segments []string
	prev := 0
	for _, m := range marks {
		if m[0] > prev {
			segments = append(segments, text[prev:m[0]])
		}
		prev = m[0]
	}
	segments = append(segments, text[prev:])

	var chunks []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if len(seg) > targetSize*overflowFactor {
			chunks = append(chunks, splitSentences(seg, targetSize)...)
		} else {
			chunks = append(chunks, seg)
		}
	}
	return chunks
}

// splitSlidingWindow produces fixed-size windows with character overlap. The
// end of each window snaps back to the nearest sentence terminator when that
// does not shrink the window by more than snapTolerance.
func splitSlidingWindow(text string, targetSize int) []string {
	overlap := windowOverlap
	if overlap >= targetSize {
		overlap = targetSize / 4
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + targetSize
		if end >= len(text) {
			end = len(text)
		} else {
			// Snap to the last sentence end inside the window.
			window := text[start:end]
			if cut := strings.LastIndexAny(window, ".!?"); cut >= 0 {
				if float64(cut+1) >= float64(targetSize)*(1-snapTolerance) {
					end = start + cut + 1
				}
			}
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(text) {
			break
		}
		// A snapped window can end before start+overlap; stepping back from
		// there would revisit the same window forever. Overlap only when it
		// still moves the window forward.
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// splitAdaptive measures the text shape and delegates: dense paragraph
// structure gets the paragraph strategy, long rambling sentences get the
// sliding window, everything else is sentence-based.
func splitAdaptive(text string, targetSize int) []string {
	paragraphCount := len(blankLines.Split(text, -1))
	paragraphDensity := float64(paragraphCount) / (float64(len(text))/1000.0 + 1)

	sents := sentences(text)
	total := 0
	for _, s := range sents {
		total += len(s)
	}
	meanSentence := 0
	if len(sents) > 0 {
		meanSentence = total / len(sents)
	}

	switch {
	case semanticBreak.MatchString(text):
		return splitSemantic(text, targetSize)
	case paragraphDensity > 1.5 && paragraphCount > 3:
		return splitParagraphs(text, targetSize)
	case meanSentence > targetSize:
		return splitSlidingWindow(text, targetSize)
	default:
		return splitSentences(text, targetSize)
	}
}

// splitCharacters is the last-resort splitter: fixed-width slices that back
// up to the previous word boundary when one is close enough.
func splitCharacters(text string, targetSize int) []string {
	var chunks []string
	for start := 0; start < len(text); {
		end := start + targetSize
		if end >= len(text) {
			end = len(text)
		} else if idx := strings.LastIndex(text[start:end], " "); idx > targetSize/2 {
			end = start + idx
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == start {
			end = start + 1
		}
		start = end
	}
	return chunks
}

// OptimalSize suggests a chunk budget for the given text: short texts keep a
// small budget so they still produce a handful of chunks, long OCR dumps get
// the ceiling.
func OptimalSize(text string, ceiling int) int {
	if ceiling <= 0 {
		ceiling = 800
	}
	n := len(strings.TrimSpace(text))
	switch {
	case n < 2_000:
		return min(300, ceiling)
	case n < 20_000:
		return min(500, ceiling)
	default:
		return ceiling
	}
}

// Normalize collapses all runs of whitespace to single spaces. Useful before
// measuring coverage against the original text.
func Normalize(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
