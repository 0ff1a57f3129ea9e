package discord

import "context"

type FileMessage struct {
	ChannelID   string
	Content     string
	Filename    string
	ContentType string
	FileBody    []byte
}

type CommandOption struct {
	Name        string
	Description string
	Required    bool
	// Choices restricts a string option to a fixed set; empty means free text.
	Choices []string
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []CommandOption
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	Options     map[string]string

	RespondEphemeral func(content string) error
	// Defer acknowledges the interaction so a slow answer can follow with FollowUp.
	Defer    func() error
	FollowUp func(content string) error
}

func (e SlashCommandEvent) Option(name string) string {
	if e.Options == nil {
		return ""
	}
	return e.Options[name]
}

type VoiceStateEvent struct {
	GuildID         string
	UserID          string
	UserIsBot       bool
	BeforeChannelID string
	AfterChannelID  string
}

type VoiceParticipant struct {
	UserID string
	IsBot  bool
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	JoinVoiceChannel(guildID, channelID string) (VoiceConnection, error)
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	RegisterVoiceStateUpdateHandler(handler func(VoiceStateEvent))
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	GetUserVoiceChannelID(guildID, userID string) (string, error)
	ListVoiceChannelParticipants(guildID, channelID string) ([]VoiceParticipant, error)
	GetBotUserID() (string, error)
}

// VoiceConnection delivers raw Opus packets per speaker. ReceiveAudio blocks until Disconnect.
type VoiceConnection interface {
	Disconnect() error
	ReceiveAudio(callback func(userID string, opusPacket []byte))
}
