package catalog

import (
	"sort"
	"sync/atomic"
)

// ReferenceQuestion is a pre-authored example question attached to a
// document. Its embedding is built once by the seeder and immutable
// afterwards.
type ReferenceQuestion struct {
	Text         string
	Embedding    []float32
	DocumentID   string
	CollectionID string
}

// Document groups the ordered reference questions of one procedure
// guide. Metadata (fee, agency) is carried for filter derivation only
// and never participates in routing.
type Document struct {
	ID        string
	Title     string
	Questions []ReferenceQuestion
	Metadata  map[string]string
}

// Collection is a topical grouping of documents, e.g. ho_tich_cap_xa.
type Collection struct {
	ID        string
	Name      string
	Documents []Document
}

// QuestionCount returns the number of reference questions across all
// documents of the collection.
func (c *Collection) QuestionCount() int {
	n := 0
	for _, d := range c.Documents {
		n += len(d.Questions)
	}
	return n
}

// Catalog is the build-once, read-only similarity index over all
// collections. Safe for concurrent reads; never mutated after New.
type Catalog struct {
	collections []Collection
	byID        map[string]*Collection
}

// New builds a catalog preserving the given collection order. The
// order is the deterministic tie-break of the router.
func New(collections []Collection) *Catalog {
	c := &Catalog{
		collections: collections,
		byID:        make(map[string]*Collection, len(collections)),
	}
	for i := range c.collections {
		c.byID[c.collections[i].ID] = &c.collections[i]
	}
	return c
}

// Collections returns all collections in first-seen order.
func (c *Catalog) Collections() []Collection {
	return c.collections
}

// Get returns the collection with the given id, or nil.
func (c *Catalog) Get(id string) *Collection {
	return c.byID[id]
}

// ScoredDocument pairs a document with its best reference-question
// similarity against some query vector.
type ScoredDocument struct {
	Document *Document
	Score    float64
}

// ScoredQuestion pairs a reference question with its similarity.
type ScoredQuestion struct {
	Question *ReferenceQuestion
	Score    float64
}

// RankDocuments scores every document of a collection by the max
// cosine similarity of its reference questions against the vector and
// returns them best-first. Documents without questions score zero and
// sort last, keeping their catalog order.
func (c *Catalog) RankDocuments(collectionID string, vector []float32) []ScoredDocument {
	col := c.byID[collectionID]
	if col == nil {
		return nil
	}
	ranked := make([]ScoredDocument, 0, len(col.Documents))
	for i := range col.Documents {
		doc := &col.Documents[i]
		best := 0.0
		for j := range doc.Questions {
			if s := Cosine(vector, doc.Questions[j].Embedding); s > best {
				best = s
			}
		}
		ranked = append(ranked, ScoredDocument{Document: doc, Score: best})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

// RankQuestions scores every reference question of a document against
// the vector and returns them best-first.
func (c *Catalog) RankQuestions(collectionID, documentID string, vector []float32) []ScoredQuestion {
	col := c.byID[collectionID]
	if col == nil {
		return nil
	}
	for i := range col.Documents {
		doc := &col.Documents[i]
		if doc.ID != documentID {
			continue
		}
		ranked := make([]ScoredQuestion, 0, len(doc.Questions))
		for j := range doc.Questions {
			ranked = append(ranked, ScoredQuestion{
				Question: &doc.Questions[j],
				Score:    Cosine(vector, doc.Questions[j].Embedding),
			})
		}
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		return ranked
	}
	return nil
}

// Provider holds the current catalog behind an atomic pointer so a
// background rebuild event can swap it without blocking readers.
type Provider struct {
	current atomic.Pointer[Catalog]
}

// NewProvider wraps an initial catalog.
func NewProvider(c *Catalog) *Provider {
	p := &Provider{}
	p.current.Store(c)
	return p
}

// Current returns the active catalog. Always non-nil once the provider
// is constructed.
func (p *Provider) Current() *Catalog {
	return p.current.Load()
}

// Swap replaces the active catalog. In-flight queries keep the catalog
// they started with.
func (p *Provider) Swap(c *Catalog) {
	if c != nil {
		p.current.Store(c)
	}
}
