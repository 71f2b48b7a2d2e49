package search

import (
	"context"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a review search.
type Params struct {
	Query  string
	BookID string // optional exact filter
	UserID string // optional exact filter
	Limit  int
	Offset int
}

// Hit is one matching review.
type Hit struct {
	ReviewID string  `json:"review_id"`
	Score    float64 `json:"score"`
}

// Result is a page of hits.
type Result struct {
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Search runs a relevance-ranked query. Book title and author matches are
// boosted above matches in the review body.
func (s *ReviewIndex) Search(ctx context.Context, p Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p.Limit <= 0 {
		p.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(p), p.Limit, p.Offset, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{ReviewID: h.ID, Score: h.Score})
	}
	return out, nil
}

func buildQuery(p Params) query.Query {
	text := strings.TrimSpace(p.Query)

	var textQuery query.Query
	if text == "" {
		textQuery = bleve.NewMatchAllQuery()
	} else {
		title := bleve.NewMatchQuery(text)
		title.SetField("book_title")
		title.SetBoost(3)

		author := bleve.NewMatchQuery(text)
		author.SetField("book_author")
		author.SetBoost(2)

		body := bleve.NewMatchQuery(text)
		body.SetField("review_text")

		textQuery = bleve.NewDisjunctionQuery(title, author, body)
	}

	filters := []query.Query{textQuery}
	if p.BookID != "" {
		q := bleve.NewTermQuery(p.BookID)
		q.SetField("book_id")
		filters = append(filters, q)
	}
	if p.UserID != "" {
		q := bleve.NewTermQuery(p.UserID)
		q.SetField("user_id")
		filters = append(filters, q)
	}
	if len(filters) == 1 {
		return textQuery
	}
	return bleve.NewConjunctionQuery(filters...)
}
