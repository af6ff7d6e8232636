package context

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"ai-procedure-assistant-be/pkg/store"
)

// Strategy names how the context string was assembled.
type Strategy string

const (
	// StrategySingleFile rebuilds the nucleus chunk's whole document.
	StrategySingleFile Strategy = "single_file"
	// StrategyDualFile interleaves sections of two documents.
	StrategyDualFile Strategy = "dual_file"
	// StrategyMultiChunk takes globally top-ranked chunks.
	StrategyMultiChunk Strategy = "multi_chunk"
	// StrategyFlat is the error fallback: first chunks, unmodified.
	StrategyFlat Strategy = "flat"
)

// Config tunes context assembly.
type Config struct {
	BudgetChars int
	// DominantRatio is the fraction of top-K chunks that must share
	// the nucleus document before the whole document is used.
	DominantRatio float64
	// MaxChunksPerFile caps each document's section in dual_file mode.
	MaxChunksPerFile int
	// FallbackChunks is how many chunks the flat fallback concatenates.
	FallbackChunks int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		BudgetChars:      6000,
		DominantRatio:    0.4,
		MaxChunksPerFile: 4,
		FallbackChunks:   5,
	}
}

// Expansion is the assembled context handed to answer generation.
type Expansion struct {
	Text           string
	Strategy       Strategy
	ChunksIncluded int
	FilesIncluded  []string
}

// DocumentFetcher loads a document's chunks in their original order.
type DocumentFetcher interface {
	ChunksByDocument(ctx context.Context, collectionID, documentID string) ([]store.Chunk, error)
}

// Expander turns a ranked top-K chunk list into one coherent,
// budget-bounded context string. Naive concatenation of chunks that
// span documents reads as gibberish; the strategy is chosen from the
// score distribution around the nucleus chunk's document.
type Expander struct {
	fetcher DocumentFetcher
	cfg     Config
	logger  *log.Logger
}

// NewExpander creates a context expander.
func NewExpander(fetcher DocumentFetcher, cfg Config, logger *log.Logger) *Expander {
	if cfg.BudgetChars <= 0 {
		cfg = DefaultConfig()
	}
	return &Expander{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Expand assembles context from the ranked chunk list. It never
// returns an error: any internal failure degrades to the flat
// fallback so the caller always gets usable text.
func (e *Expander) Expand(ctx context.Context, chunks []store.Chunk) (exp *Expansion) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[EXPAND] Recovered from %v, using flat fallback", r)
			exp = e.flatFallback(chunks)
		}
	}()

	if len(chunks) == 0 {
		return &Expansion{Strategy: StrategyFlat}
	}

	ranked := make([]store.Chunk, len(chunks))
	copy(ranked, chunks)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score() > ranked[j].Score() })

	nucleus := ranked[0]

	dominantCount := 0
	docs := make(map[string]bool)
	for _, c := range ranked {
		docs[c.DocumentID] = true
		if c.DocumentID == nucleus.DocumentID {
			dominantCount++
		}
	}
	dominantRatio := float64(dominantCount) / float64(len(ranked))

	switch {
	case dominantRatio >= e.cfg.DominantRatio && dominantCount >= 2:
		if exp := e.expandSingleFile(ctx, nucleus); exp != nil {
			return exp
		}
		// Document fetch failed; chunks in hand still rank fine
		return e.expandMultiChunk(ranked)
	case len(docs) <= 2:
		return e.expandDualFile(ranked, nucleus)
	default:
		return e.expandMultiChunk(ranked)
	}
}

// expandSingleFile loads the nucleus document's chunks in order and
// packs them until the budget runs out. Returns nil when the fetch
// fails so the caller can fall back to the chunks it already has.
func (e *Expander) expandSingleFile(ctx context.Context, nucleus store.Chunk) *Expansion {
	full, err := e.fetcher.ChunksByDocument(ctx, nucleus.CollectionID, nucleus.DocumentID)
	if err != nil || len(full) == 0 {
		e.logger.Printf("[EXPAND] single_file fetch failed for %s: %v", nucleus.DocumentID, err)
		return nil
	}
	sort.SliceStable(full, func(i, j int) bool { return full[i].Index < full[j].Index })

	var b strings.Builder
	included := 0
	for _, c := range full {
		if !fits(&b, len(c.Text)+1, e.cfg.BudgetChars) {
			break
		}
		b.WriteString(c.Text)
		b.WriteString("\n")
		included++
	}

	e.logger.Printf("[EXPAND] single_file: %d/%d chunks of %s", included, len(full), nucleus.DocumentTitle)
	return &Expansion{
		Text:           strings.TrimRight(b.String(), "\n"),
		Strategy:       StrategySingleFile,
		ChunksIncluded: included,
		FilesIncluded:  []string{nucleus.DocumentTitle},
	}
}

// expandDualFile writes one section per document, nucleus document
// first, up to MaxChunksPerFile top-ranked chunks each, restored to
// their in-document order under a filename separator.
func (e *Expander) expandDualFile(ranked []store.Chunk, nucleus store.Chunk) *Expansion {
	order := []string{nucleus.DocumentID}
	perDoc := map[string][]store.Chunk{}
	for _, c := range ranked {
		if _, seen := perDoc[c.DocumentID]; !seen && c.DocumentID != nucleus.DocumentID {
			order = append(order, c.DocumentID)
		}
		if len(perDoc[c.DocumentID]) < e.cfg.MaxChunksPerFile {
			perDoc[c.DocumentID] = append(perDoc[c.DocumentID], c)
		}
	}

	var b strings.Builder
	var files []string
	included := 0

	for _, docID := range order {
		section := perDoc[docID]
		if len(section) == 0 {
			continue
		}
		sort.SliceStable(section, func(i, j int) bool { return section[i].Index < section[j].Index })

		header := separator(section[0].DocumentTitle)
		wrote := false
		for _, c := range section {
			need := len(c.Text) + 1
			if !wrote {
				need += len(header)
			}
			if !fits(&b, need, e.cfg.BudgetChars) {
				continue
			}
			if !wrote {
				b.WriteString(header)
				files = append(files, c.DocumentTitle)
				wrote = true
			}
			b.WriteString(c.Text)
			b.WriteString("\n")
			included++
		}
	}

	e.logger.Printf("[EXPAND] dual_file: %d chunks across %d files", included, len(files))
	return &Expansion{
		Text:           strings.TrimRight(b.String(), "\n"),
		Strategy:       StrategyDualFile,
		ChunksIncluded: included,
		FilesIncluded:  files,
	}
}

// expandMultiChunk packs globally top-ranked chunks, inserting a
// filename separator whenever the source document changes.
func (e *Expander) expandMultiChunk(ranked []store.Chunk) *Expansion {
	var b strings.Builder
	var files []string
	included := 0
	lastDoc := ""

	for _, c := range ranked {
		need := len(c.Text) + 1
		var header string
		if c.DocumentID != lastDoc {
			header = separator(c.DocumentTitle)
			need += len(header)
		}
		if !fits(&b, need, e.cfg.BudgetChars) {
			break
		}
		if header != "" {
			b.WriteString(header)
			files = append(files, c.DocumentTitle)
			lastDoc = c.DocumentID
		}
		b.WriteString(c.Text)
		b.WriteString("\n")
		included++
	}

	e.logger.Printf("[EXPAND] multi_chunk: %d chunks across %d files", included, len(files))
	return &Expansion{
		Text:           strings.TrimRight(b.String(), "\n"),
		Strategy:       StrategyMultiChunk,
		ChunksIncluded: included,
		FilesIncluded:  files,
	}
}

// flatFallback concatenates the first chunks as-is. Last resort only.
func (e *Expander) flatFallback(chunks []store.Chunk) *Expansion {
	n := e.cfg.FallbackChunks
	if n <= 0 {
		n = 5
	}
	if len(chunks) < n {
		n = len(chunks)
	}
	var b strings.Builder
	var files []string
	seen := map[string]bool{}
	for _, c := range chunks[:n] {
		b.WriteString(c.Text)
		b.WriteString("\n")
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			files = append(files, c.DocumentTitle)
		}
	}
	return &Expansion{
		Text:           strings.TrimRight(b.String(), "\n"),
		Strategy:       StrategyFlat,
		ChunksIncluded: n,
		FilesIncluded:  files,
	}
}

func separator(title string) string {
	return fmt.Sprintf("--- %s ---\n", title)
}

// fits reports whether need more bytes stay within budget. Chunks are
// dropped whole, never truncated mid-text.
func fits(b *strings.Builder, need, budget int) bool {
	return b.Len()+need <= budget
}
