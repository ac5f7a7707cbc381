package entity

import "time"

// SourceResult is the outcome of refreshing a single source.
type SourceResult struct {
	SourceID      int64  `json:"source_id"`
	SourceName    string `json:"source_name"`
	Success       bool   `json:"success"`
	NewArticles   int    `json:"new_articles"`
	ArticlesFound int    `json:"articles_found"`
	Error         string `json:"error,omitempty"`
	ElapsedMs     int64  `json:"elapsed_ms"`
}

// RefreshSummary aggregates one refresh run. It is never persisted.
type RefreshSummary struct {
	RunID            string         `json:"run_id"`
	StartedAt        time.Time      `json:"started_at"`
	Total            int            `json:"total"`
	Successful       int            `json:"successful"`
	Failed           int            `json:"failed"`
	TotalNewArticles int            `json:"total_new_articles"`
	ElapsedMs        int64          `json:"elapsed_ms"`
	DeletedArticles  int64          `json:"deleted_articles"`
	Results          []SourceResult `json:"results"`
}

// Add folds one source result into the totals.
func (s *RefreshSummary) Add(r SourceResult) {
	s.Total++
	if r.Success {
		s.Successful++
		s.TotalNewArticles += r.NewArticles
	} else {
		s.Failed++
	}
	s.Results = append(s.Results, r)
}
