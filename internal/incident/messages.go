package incident

import "github.com/foxseedlab/firassist/internal/failure"

const (
	messageEmptyInput          = "Please describe the incident before submitting."
	messageMissingAudio        = "Please attach an audio recording of the incident."
	messageUnsupportedFormat   = "The audio could not be read. Please upload a WAV, MP3 or OGG recording."
	messageUnintelligible      = "Sorry, the speech could not be understood. Please try again and speak clearly."
	messageRecognitionDown     = "The speech recognition service is unavailable right now. Please try again shortly."
	messageAssistantDown       = "The legal assistant is unavailable right now. Please try again shortly."
	messageTranslationSkipped  = "Translation to English is unavailable, so the incident was sent in the original language."
	messageSynthesisFailed     = "Spoken playback is unavailable for this reply. The written answer is shown above."
	messageUnexpectedFailure   = "Something went wrong while handling the request. Please try again."
	messageUnsupportedLanguage = "The selected language is not supported."
)

type stage int

const (
	stageRecognition stage = iota
	stageAssistant
	stageSynthesis
)

// failureMessage returns the officer-facing text for err at the given pipeline stage. Every
// failure kind maps to a distinct message.
func failureMessage(s stage, err error) string {
	switch failure.KindOf(err) {
	case failure.KindUnsupportedFormat:
		return messageUnsupportedFormat
	case failure.KindUnintelligible:
		return messageUnintelligible
	case failure.KindServiceUnavailable:
		if s == stageAssistant {
			return messageAssistantDown
		}
		return messageRecognitionDown
	case failure.KindSynthesisFailed:
		return messageSynthesisFailed
	default:
		if s == stageSynthesis {
			return messageSynthesisFailed
		}
		return messageUnexpectedFailure
	}
}
