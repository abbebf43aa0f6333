package models

// Citation describes one source document backing part of an answer.
// Citations are built fresh per response and discarded after display.
type Citation struct {
	Title    string
	FilePath string
	Content  string
}

// DisplayTitle returns the citation title, falling back to the file
// path and then to a fixed placeholder.
func (c Citation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if c.FilePath != "" {
		return c.FilePath
	}
	return "Unknown Document"
}
