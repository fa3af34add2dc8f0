package domain

type Response struct {
	ChatID           int64
	ReplyToMessageID int
	Text             string
	// Markdown marks text that should be rendered to HTML before sending.
	Markdown bool
}
