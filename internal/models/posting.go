package models

// Posting is one job row extracted from a listing page. Title and company
// only live as long as the batch they are scored in.
type Posting struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company"`
	Link    string `json:"link"`
}

// ScoredJob is a posting that met the matching threshold.
type ScoredJob struct {
	Posting
	Score int `json:"score"`
}
