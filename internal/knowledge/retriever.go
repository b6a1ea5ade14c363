package knowledge

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Retriever ranks the corpus by token-overlap similarity against a problem
// description. Scoring is deterministic for identical inputs, and results are
// memoized in a bounded LRU cache so repeated problems skip the corpus scan.
// The corpus itself is immutable after construction.
type Retriever struct {
	corpus []Exemplar
	tokens []map[string]bool // per-exemplar token sets, built once
	cache  *lru.Cache[uint64, []Exemplar]
}

const defaultCacheSize = 512

// NewRetriever builds a retriever over the given corpus. cacheSize <= 0 uses
// the default bound of 512 entries.
func NewRetriever(corpus []Exemplar, cacheSize int) (*Retriever, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[uint64, []Exemplar](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("init retriever cache: %w", err)
	}
	toks := make([]map[string]bool, len(corpus))
	for i, ex := range corpus {
		toks[i] = tokenSet(ex.Problem)
	}
	return &Retriever{corpus: corpus, tokens: toks, cache: cache}, nil
}

// Retrieve returns the top-k most similar exemplars for the problem text,
// highest score first, ties broken by exemplar ID for determinism.
func (r *Retriever) Retrieve(problemText string, k int) []Exemplar {
	if k <= 0 || len(r.corpus) == 0 {
		return nil
	}
	key := cacheKey(problemText, k)
	if hit, ok := r.cache.Get(key); ok {
		return hit
	}

	query := tokenSet(problemText)
	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(r.corpus))
	for i := range r.corpus {
		ranked = append(ranked, scored{idx: i, score: jaccard(query, r.tokens[i])})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return r.corpus[ranked[i].idx].ID < r.corpus[ranked[j].idx].ID
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Exemplar, 0, k)
	for _, s := range ranked[:k] {
		out = append(out, r.corpus[s.idx])
	}
	r.cache.Add(key, out)
	return out
}

// CorpusSize returns the number of loaded exemplars.
func (r *Retriever) CorpusSize() int { return len(r.corpus) }

func cacheKey(problemText string, k int) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(problemText))
	_, _ = fmt.Fprintf(h, "|%d", k)
	return h.Sum64()
}

// stopwords that carry no modeling signal; everything else counts.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "with": true, "we": true, "our": true,
}

// tokenSet lowercases and splits on non-ident runes, dropping stopwords and
// single-character fragments.
func tokenSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for tok := range small {
		if large[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
