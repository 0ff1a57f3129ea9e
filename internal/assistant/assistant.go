package assistant

import (
	"context"
	"fmt"
)

// SystemInstruction frames the generative model as an FIR drafting aid.
const SystemInstruction = "You are an AI-powered legal assistant designed to assist police officers in India in drafting " +
	"legally accurate and comprehensive FIRs. For every incident described, list the applicable sections of the " +
	"Indian Penal Code (IPC) and the Code of Criminal Procedure (CrPC). Use a Markdown heading for each category " +
	"and one bullet per section with a short reason."

type ReplyRequest struct {
	History      []Turn
	Message      string
	LanguageName string
}

// Assistant answers an incident description given the prior turns. Errors wrap
// failure.ErrServiceUnavailable.
type Assistant interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// LanguageDirective asks the model to answer in the officer's language. Compliance is up to
// the model and is not checked.
func LanguageDirective(languageName string) string {
	if languageName == "" {
		return ""
	}
	return fmt.Sprintf("Generate the output in %s.", languageName)
}
