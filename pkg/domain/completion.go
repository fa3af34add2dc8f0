package domain

// CompletionParams are the generation settings sent with every assistant prompt.
type CompletionParams struct {
	MaxTokens   int
	Temperature float32
	Candidates  int
}

var DefaultCompletionParams = CompletionParams{
	MaxTokens:   150,
	Temperature: 0.7,
	Candidates:  1,
}
