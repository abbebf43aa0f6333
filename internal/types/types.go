package types

import (
	"context"

	"github.com/xhad/ragchat/internal/models"
)

// Core interfaces
type ChatTransport interface {
	Send(ctx context.Context, messages []models.Message, source *models.DataSource) (string, error)
}

type CitationParser interface {
	ParseCitations(raw string) []models.Citation
	FormatCitation(citation models.Citation, number int) string
}
