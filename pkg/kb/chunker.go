package kb

import (
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
)

// ErrUnknownStrategy is returned for strategy names the chunker does not
// implement. This is a hard configuration error at ingestion time.
var ErrUnknownStrategy = goerr.New("unknown chunking strategy")

// Strategy selects how documents are split into chunks.
type Strategy string

const (
	// StrategySlidingWindow splits on whitespace tokens with fixed-size
	// overlapping windows.
	StrategySlidingWindow Strategy = "sliding_window"
	// StrategyBoundary splits on the first available structural delimiter
	// (paragraph, line, sentence, word) and packs segments by word budget.
	StrategyBoundary Strategy = "boundary"
	// StrategySentence splits on sentence-terminal punctuation and packs
	// sentences by word budget.
	StrategySentence Strategy = "sentence"
)

// Validate checks if the strategy is supported
func (s Strategy) Validate() error {
	switch s {
	case StrategySlidingWindow, StrategyBoundary, StrategySentence:
		return nil
	default:
		return goerr.Wrap(ErrUnknownStrategy, "unsupported strategy", goerr.V("strategy", s))
	}
}

// Options controls chunk sizing. Size and Overlap are word counts.
type Options struct {
	Size     int
	Overlap  int
	Strategy Strategy
}

// DefaultOptions returns the standard chunking configuration
func DefaultOptions() Options {
	return Options{
		Size:     512,
		Overlap:  100,
		Strategy: StrategySlidingWindow,
	}
}

// Split divides text into chunk strings under the configured strategy.
// Splitting is deterministic for identical input and never fails for
// arbitrary text; only an unknown strategy is an error. Empty or
// whitespace-only text yields no chunks; ChunkDocument decides whether to
// materialize an empty record.
func Split(text string, opts Options) ([]string, error) {
	if err := opts.Strategy.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	switch opts.Strategy {
	case StrategySlidingWindow:
		return slidingWindow(text, opts.Size, opts.Overlap), nil
	case StrategyBoundary:
		return boundaryAware(text, opts.Size, opts.Overlap), nil
	default:
		return sentenceBased(text, opts.Size, opts.Overlap), nil
	}
}

// ChunkDocument splits a document and wraps every chunk in a KnowledgeChunk
// record annotated with its position. A document that produces no chunks
// (empty content) still yields exactly one record, so ingestion never
// silently drops a document. Embeddings are left empty for the caller.
func ChunkDocument(title, content string, tags map[string]string, opts Options) ([]*model.KnowledgeChunk, error) {
	texts, err := Split(content, opts)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		texts = []string{content}
	}

	now := time.Now()
	chunks := make([]*model.KnowledgeChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, &model.KnowledgeChunk{
			ID:      model.NewChunkID(),
			Title:   chunkTitle(title, i, len(texts)),
			Content: text,
			Metadata: model.ChunkMetadata{
				OriginalDocTitle: title,
				ChunkIndex:       i,
				ChunkCount:       len(texts),
				Tags:             tags,
			},
			CreatedAt: now,
		})
	}

	return chunks, nil
}

func chunkTitle(title string, index, count int) string {
	if count <= 1 {
		return title
	}
	return fmt.Sprintf("%s [Chunk %d/%d]", title, index+1, count)
}

func slidingWindow(text string, size, overlap int) []string {
	tokens := strings.Split(text, " ")
	if len(tokens) <= size {
		return []string{text}
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.Join(tokens[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if i+size >= len(tokens) {
			break
		}
	}

	return chunks
}

// boundaryDelimiters in priority order: paragraph break, line break,
// sentence-terminal space, plain space.
var boundaryDelimiters = []string{"\n\n", "\n", ". ", " "}

func boundaryAware(text string, size, overlap int) []string {
	delimiter := boundaryDelimiters[len(boundaryDelimiters)-1]
	for _, d := range boundaryDelimiters {
		if strings.Contains(text, d) {
			delimiter = d
			break
		}
	}

	segments := strings.Split(text, delimiter)

	var chunks []string
	var current []string
	currentWords := 0

	for _, segment := range segments {
		segmentWords := len(strings.Fields(segment))

		if len(current) > 0 && currentWords+segmentWords > size {
			chunk := strings.Join(current, delimiter)
			if strings.TrimSpace(chunk) != "" {
				chunks = append(chunks, chunk)
			}

			// Retain a tail of segments approximating the overlap budget
			tail := 0
			if currentWords > 0 {
				tail = overlap / currentWords
			}
			switch {
			case tail >= len(current):
				// overlap budget exceeds the chunk, keep everything
			case tail > 0:
				current = current[len(current)-tail:]
			default:
				current = nil
			}
			currentWords = 0
			for _, s := range current {
				currentWords += len(strings.Fields(s))
			}
		}

		current = append(current, segment)
		currentWords += segmentWords
	}

	if len(current) > 0 {
		chunk := strings.Join(current, delimiter)
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

func sentenceBased(text string, size, overlap int) []string {
	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentWords := 0

	for _, sentence := range sentences {
		sentenceWords := len(strings.Fields(sentence))

		if len(current) > 0 && currentWords+sentenceWords > size {
			chunk := strings.Join(current, " ")
			if strings.TrimSpace(chunk) != "" {
				chunks = append(chunks, chunk)
			}

			// Overlap keeps the last sentence only if it fits the budget
			lastWords := len(strings.Fields(current[len(current)-1]))
			if overlap > 0 && lastWords < overlap {
				current = current[len(current)-1:]
				currentWords = lastWords
			} else {
				current = nil
				currentWords = 0
			}
		}

		current = append(current, sentence)
		currentWords += sentenceWords
	}

	if len(current) > 0 {
		chunk := strings.Join(current, " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// splitSentences breaks text after sentence-terminal punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			j := i + 1
			if j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' || runes[j] == '\r') {
				sentences = append(sentences, string(runes[start:j]))
				for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n' || runes[j] == '\r') {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}
