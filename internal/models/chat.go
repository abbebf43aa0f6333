package models

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DataSource describes the retrieval index a chat request grounds its
// answer against.
type DataSource struct {
	Type       string               `json:"type"`
	Parameters DataSourceParameters `json:"parameters"`
}

type DataSourceParameters struct {
	Endpoint       string         `json:"endpoint"`
	IndexName      string         `json:"index_name"`
	Authentication Authentication `json:"authentication"`
}

type Authentication struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}
