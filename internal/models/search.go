package models

const (
	SearchResultTypeMessage = "message"
	snippetLength           = 200
	searchScore             = 1.0
)

// SearchResult is a single search hit
type SearchResult struct {
	Type      string    `json:"type"`
	ID        MessageID `json:"id"`
	ChannelID ChannelID `json:"channel_id"`
	MessageID MessageID `json:"message_id"`
	Snippet   string    `json:"snippet"`
	Score     float64   `json:"score"`
}

// NewSearchResult converts a matching message into a search hit
func NewSearchResult(m Message) SearchResult {
	return SearchResult{
		Type:      SearchResultTypeMessage,
		ID:        m.ID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Snippet:   Snippet(m.Content),
		Score:     searchScore,
	}
}

// Snippet returns the first 200 characters of content
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength])
}
