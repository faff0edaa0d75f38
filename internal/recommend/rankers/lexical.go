// Feedline - Social Feed Recommendation Service
// Copyright 2026 The Feedline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedline/feedline

package rankers

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/feedline/feedline/internal/models"
	"github.com/feedline/feedline/internal/recommend"
)

// Lexical ranks candidates by textual similarity to the user's interests.
//
// A TF-IDF vector space is built over the full post corpus (stop-words
// removed, smoothed IDF). The user's interest vector is the mean of the
// vectors of posts they interacted with; an aspiration summary, when
// available, is vectorized as a pseudo-document and averaged in. Candidates
// are scored by cosine similarity to the interest vector.
//
// With zero interactions and no aspiration signal the strategy has no
// interest vector and returns an empty result, never an error. In auto
// mode the engine routes such users to popularity ranking instead.
type Lexical struct{}

// NewLexical creates the lexical similarity strategy.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Name returns the strategy identifier.
func (l *Lexical) Name() string {
	return "lexical"
}

// Rank scores candidates by cosine similarity to the user's interest
// vector, descending, ties broken by ascending post ID.
func (l *Lexical) Rank(ctx context.Context, in recommend.RankInput) ([]recommend.RankedPost, error) {
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	space := buildSpace(in.Corpus)

	// Collect the vectors that define the user's interests.
	interest := make([]sparseVec, 0, len(in.Interacted)+1)
	for i := range in.Corpus {
		post := in.Corpus[i]
		if _, ok := in.Interacted[post.ID]; !ok {
			continue
		}
		if v := space.vectorize(post.Content); len(v) > 0 {
			interest = append(interest, v)
		}
	}
	if in.Aspirations != "" {
		if v := space.vectorize(in.Aspirations); len(v) > 0 {
			interest = append(interest, v)
		}
	}

	if len(interest) == 0 {
		// Undefined without any signal. Empty result, never an error.
		return []recommend.RankedPost{}, nil
	}

	profile := meanVec(interest)

	items := make([]recommend.RankedPost, 0, len(in.Candidates))
	for i := range in.Candidates {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}

		post := in.Candidates[i]
		items = append(items, recommend.RankedPost{
			Post:   post,
			Score:  cosine(profile, space.vectorize(post.Content)),
			Source: recommend.SourcePlatform,
		})
	}

	return sortRanked(items, in.Limit), nil
}

// sparseVec is a sparse term-weight vector.
type sparseVec map[string]float64

// vectorSpace holds the IDF statistics of the corpus.
type vectorSpace struct {
	idf  map[string]float64
	docs int
}

// buildSpace computes document frequencies over the corpus and derives
// smoothed IDF weights: ln((1+N)/(1+df)) + 1. Terms outside the corpus
// get the maximum weight (df = 0).
func buildSpace(corpus []models.Post) *vectorSpace {
	df := make(map[string]int)
	for i := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(corpus[i].Content) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := len(corpus)
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(float64(1+n)/float64(1+count)) + 1
	}

	return &vectorSpace{idf: idf, docs: n}
}

// vectorize converts a text into an L2-normalized TF-IDF vector.
func (s *vectorSpace) vectorize(text string) sparseVec {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	vec := make(sparseVec, len(counts))
	var norm float64
	for term, count := range counts {
		tf := float64(count) / float64(len(tokens))
		w := tf * s.termIDF(term)
		vec[term] = w
		norm += w * w
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
	}

	return vec
}

// termIDF returns the IDF weight for a term, treating unseen terms as
// having zero document frequency.
func (s *vectorSpace) termIDF(term string) float64 {
	if w, ok := s.idf[term]; ok {
		return w
	}
	return math.Log(float64(1+s.docs)) + 1
}

// meanVec averages a set of sparse vectors.
func meanVec(vecs []sparseVec) sparseVec {
	out := make(sparseVec)
	for _, v := range vecs {
		for term, w := range v {
			out[term] += w
		}
	}
	n := float64(len(vecs))
	for term := range out {
		out[term] /= n
	}
	return out
}

// cosine computes cosine similarity between two sparse vectors.
func cosine(a, b sparseVec) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller vector.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for term, w := range a {
		if bw, ok := b[term]; ok {
			dot += w * bw
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, w := range a {
		normA += w * w
	}
	for _, w := range b {
		normB += w * w
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenize lowercases the text, splits it on non-alphanumeric runes, and
// drops stop-words and single-rune tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}
