package discordbot

import "fmt"

const (
	slashCommandIncidentDescription = "Describe an incident and get the applicable legal sections."
	slashCommandListenDescription   = "Listen to your voice channel and answer each spoken incident."
	slashCommandStopDescription     = "Stop listening to your voice channel."
	optionIncidentDescription       = "What happened, in your own words."
	optionLanguageDescription       = "Language of the description and of the answer."

	messageEphemeralWrongGuild          = ":warning: **This command is not available on this server.**"
	messageEphemeralUnknownCommand      = ":warning: **Unknown command.**"
	messageEphemeralUnsupportedLanguage = ":warning: **That language is not supported.**"
	messageEphemeralEmptyIncident       = ":warning: **Please describe the incident.**"
	messageEphemeralVoiceLookupFailed   = ":warning: **Could not check your voice channel.**"
	messageEphemeralJoinVCFirst         = ":warning: **Join a voice channel first.**"
	messageEphemeralAlreadyRunning      = ":warning: **Already listening in this voice channel.**"
	messageEphemeralStartFailed         = ":warning: **Could not start listening.**"
	messageEphemeralNotRunning          = ":warning: **Not listening in this voice channel.**"

	messageStartChannelTitle = ":microphone2: **Listening started.** Describe the incident; each pause sends one description."
	messageStartChannelHint  = "-# Use /fir-stop to stop listening."
	messageStopChannelTitle  = ":pause_button: **Listening stopped.**"
	messageNoReply           = ":warning: No answer was produced."
	messageTranscriptTitle   = ":page_facing_up: **Conversation transcript**"
	messageHeardPrefix       = "> :ear: "
	messageNoticePrefix      = ":warning: "

	messageStartEphemeralFormat = ":microphone2: Listening in <#%s> (%s)."
	messageStopEphemeralFormat  = ":pause_button: Stopped listening in <#%s>."
)

const (
	stopReasonManualSlash      = "manual_slash"
	stopReasonParticipantsLeft = "participants_left"
	stopReasonBotRemoved       = "bot_removed"
	stopReasonServerClosed     = "server_closed"
	stopReasonSessionEnded     = "session_ended"
)

func startEphemeral(channelID, languageName string) string {
	return fmt.Sprintf(messageStartEphemeralFormat, channelID, languageName)
}

func stopEphemeral(channelID string) string {
	return fmt.Sprintf(messageStopEphemeralFormat, channelID)
}

func stopReasonDetail(reason string) string {
	switch reason {
	case stopReasonManualSlash:
		return "A participant ran the stop command."
	case stopReasonParticipantsLeft:
		return "Everyone left the voice channel."
	case stopReasonBotRemoved:
		return "The bot was removed from the voice channel."
	case stopReasonServerClosed:
		return "The server is shutting down. Use /fir-listen to start again."
	case stopReasonSessionEnded:
		return "The audio feed ended. Use /fir-listen to start again."
	default:
		return "An unknown error occurred. Use /fir-listen to start again."
	}
}
