package translator

import "context"

// Translator converts text between two-letter language codes. Implementations return the text
// unchanged when source and target are equal.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Passthrough is used when translation is disabled.
type Passthrough struct{}

func (Passthrough) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
