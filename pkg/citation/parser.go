package citation

import (
	"encoding/json"
	"fmt"

	"github.com/xhad/ragchat/internal/models"
)

// DefaultMaxContentLength bounds the content preview in formatted
// citations.
const DefaultMaxContentLength = 150

// Parser extracts citation records from raw chat-completion response
// documents. It holds no state; parsing the same document twice yields
// the same result.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// response mirrors just the slice of the completion document the parser
// cares about. Everything else in the document is ignored.
type response struct {
	Choices []struct {
		Message struct {
			Context struct {
				Citations []struct {
					Title    string `json:"title"`
					FilePath string `json:"filepath"`
					Content  string `json:"content"`
				} `json:"citations"`
			} `json:"context"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseCitations pulls citations out of a raw response document,
// traversing choices[0].message.context.citations. Parsing is best
// effort: empty, malformed, or unexpectedly shaped input yields an
// empty list rather than an error, so a bad citation payload can never
// block display of the answer itself. Input order is preserved.
func (p *Parser) ParseCitations(raw string) []models.Citation {
	if raw == "" {
		return nil
	}

	var doc response
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}

	if len(doc.Choices) == 0 {
		return nil
	}

	elements := doc.Choices[0].Message.Context.Citations
	if len(elements) == 0 {
		return nil
	}

	citations := make([]models.Citation, 0, len(elements))
	for _, e := range elements {
		citations = append(citations, models.Citation{
			Title:    e.Title,
			FilePath: e.FilePath,
			Content:  e.Content,
		})
	}

	return citations
}

// FormatCitation renders one citation for terminal display, two lines
// at most. The title falls back to the file path and then to a numbered
// placeholder. The content preview line is omitted when there is no
// content.
func (p *Parser) FormatCitation(citation models.Citation, number int) string {
	title := citation.Title
	if title == "" {
		title = citation.FilePath
	}
	if title == "" {
		title = fmt.Sprintf("Document %d", number)
	}

	result := fmt.Sprintf("  [%d] %s", number, title)

	if citation.Content != "" {
		result += "\n      " + TruncateContent(citation.Content, DefaultMaxContentLength)
	}

	return result
}

// TruncateContent caps content at maxLength bytes, appending an
// ellipsis when it actually cuts. Content exactly maxLength long passes
// through unchanged.
func TruncateContent(content string, maxLength int) string {
	if content == "" {
		return ""
	}

	if len(content) <= maxLength {
		return content
	}

	return content[:maxLength] + "..."
}
