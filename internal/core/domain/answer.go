package domain

import "strconv"

// PageNotAvailable is the citation page used when the page is unknown.
const PageNotAvailable = "N/A"

// Citation points the reader at the passage an answer was built from.
type Citation struct {
	Document string `json:"document"`
	Page     string `json:"page"`
	Text     string `json:"text"`
}

// CitationFromResult maps a search hit to a citation.
func CitationFromResult(r SearchResult) Citation {
	page := PageNotAvailable
	if r.Metadata.Page > 0 {
		page = strconv.Itoa(r.Metadata.Page)
	}
	return Citation{
		Document: r.Metadata.Document,
		Page:     page,
		Text:     r.Text,
	}
}

// Answer is a generated response and the sources it was grounded on,
// in retrieval ranking order.
type Answer struct {
	Text    string     `json:"answer"`
	Sources []Citation `json:"sources"`
}

// Role identifies who authored a chat turn.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one message of an interactive session.
// Sessions are owned by the front end; the core only produces Answers.
type ChatTurn struct {
	Role    Role
	Content string
	Sources []Citation
}
