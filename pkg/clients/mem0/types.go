package mem0

// Message is one role/content pair in the array shape the memory API
// consumes.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is a stored memory record as returned by the service.
type Memory struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	UserID    string         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     float64        `json:"score,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// AddRequest is the payload for writing a new memory.
type AddRequest struct {
	Messages []Message      `json:"messages"`
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchRequest is the payload for semantic search over a user's
// memories. Relevance ordering is defined by the service.
type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}
