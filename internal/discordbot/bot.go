package discordbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/discord"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/foxseedlab/firassist/internal/speech"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/hashicorp/go-multierror"
)

const (
	commandIncident = "fir"
	commandListen   = "fir-listen"
	commandStop     = "fir-stop"
	optionIncident  = "incident"
	optionLanguage  = "language"

	audioMixInterval    = 20 * time.Millisecond
	audioFrameBytes     = audio.MixerSampleRate * 20 / 1000 * audio.MixerChannels * 2
	defaultReplyTimeout = 2 * time.Minute
	stopTimeout         = 30 * time.Second
)

// IncidentHandler is the part of the incident service the bot drives.
type IncidentHandler interface {
	Submit(ctx context.Context, conv *assistant.Conversation, req incident.Request) *incident.Response
	HandleUtterance(ctx context.Context, conv *assistant.Conversation, base incident.Request, result transcriber.Result) *incident.Response
}

type Listener interface {
	Start(owner, recognitionTag string, mic audio.Microphone) (*listening.Session, error)
	Stop(ctx context.Context, owner string) (bool, error)
	IsActive(owner string) bool
}

type Config struct {
	GuildID         string
	DefaultLanguage language.Language
	ThresholdDBFS   float64
	SilenceGap      time.Duration
	Speak           bool
	ReplyTimeout    time.Duration
}

// Bot serves the FIR slash commands. Text conversations are scoped to the channel a command
// was issued in; a voice listening session replies into that same channel.
type Bot struct {
	cfg       Config
	discord   discord.Client
	incidents IncidentHandler
	listener  Listener
	newMixer  audio.MixerFactory
	botUserID string

	mu            sync.Mutex
	conversations map[string]*assistant.Conversation
	links         map[string]*voiceLink
}

type voiceLink struct {
	guildID        string
	voiceChannelID string
	textChannelID  string
	lang           language.Language
	startedAt      time.Time
	conv           *assistant.Conversation

	voice   discord.VoiceConnection
	mixer   audio.Mixer
	mic     *audio.FrameMicrophone
	session *listening.Session

	ctx    context.Context
	cancel context.CancelFunc
	pumps  sync.WaitGroup
}

func New(cfg Config, dc discord.Client, incidents IncidentHandler, listener Listener, newMixer audio.MixerFactory) *Bot {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = defaultReplyTimeout
	}
	if cfg.DefaultLanguage.Name == "" {
		cfg.DefaultLanguage = language.Default()
	}
	return &Bot{
		cfg:           cfg,
		discord:       dc,
		incidents:     incidents,
		listener:      listener,
		newMixer:      newMixer,
		conversations: make(map[string]*assistant.Conversation),
		links:         make(map[string]*voiceLink),
	}
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	names := make([]string, 0)
	for _, l := range language.All() {
		names = append(names, l.Name)
	}
	languageOption := discord.CommandOption{
		Name:        optionLanguage,
		Description: optionLanguageDescription,
		Choices:     names,
	}
	return []discord.SlashCommandDefinition{
		{
			Name:        commandIncident,
			Description: slashCommandIncidentDescription,
			Options: []discord.CommandOption{
				{Name: optionIncident, Description: optionIncidentDescription, Required: true},
				languageOption,
			},
		},
		{
			Name:        commandListen,
			Description: slashCommandListenDescription,
			Options:     []discord.CommandOption{languageOption},
		},
		{
			Name:        commandStop,
			Description: slashCommandStopDescription,
		},
	}
}

// Start connects to the gateway, registers the commands and installs the handlers.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.discord.Connect(ctx); err != nil {
		return fmt.Errorf("connect discord: %w", err)
	}
	botUserID, err := b.discord.GetBotUserID()
	if err != nil {
		return fmt.Errorf("resolve bot user id: %w", err)
	}
	b.botUserID = botUserID
	if err := b.discord.UpsertGuildSlashCommands(b.cfg.GuildID, SlashCommandDefinitions()); err != nil {
		return fmt.Errorf("upsert slash commands: %w", err)
	}
	b.discord.RegisterVoiceStateUpdateHandler(b.HandleVoiceStateUpdate)
	b.discord.RegisterSlashCommandHandler(b.HandleSlashCommand)
	slog.Info("discord handlers registered", "guild_id", b.cfg.GuildID, "commands", []string{commandIncident, commandListen, commandStop})
	return nil
}

func (b *Bot) HandleSlashCommand(event discord.SlashCommandEvent) {
	if event.GuildID != b.cfg.GuildID {
		respondEphemeral(event, messageEphemeralWrongGuild)
		return
	}
	switch event.CommandName {
	case commandIncident:
		b.handleIncident(event)
	case commandListen:
		b.handleListen(event)
	case commandStop:
		b.handleStop(event)
	default:
		respondEphemeral(event, messageEphemeralUnknownCommand)
	}
}

func (b *Bot) handleIncident(event discord.SlashCommandEvent) {
	lang, ok := b.resolveLanguage(event.Option(optionLanguage))
	if !ok {
		respondEphemeral(event, messageEphemeralUnsupportedLanguage)
		return
	}
	text := strings.TrimSpace(event.Option(optionIncident))
	if text == "" {
		respondEphemeral(event, messageEphemeralEmptyIncident)
		return
	}
	if event.Defer != nil {
		if err := event.Defer(); err != nil {
			slog.Error("failed to defer interaction", "error", err, "channel_id", event.ChannelID)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.ReplyTimeout)
	defer cancel()
	resp := b.incidents.Submit(ctx, b.conversation(event.ChannelID), incident.Request{
		Mode:     incident.ModeText,
		Language: lang,
		Text:     text,
		Speak:    b.cfg.Speak,
		Channel:  repository.ChannelDiscord,
		OwnerID:  event.ChannelID,
	})
	content := formatResponse(resp)
	if event.FollowUp != nil {
		if err := event.FollowUp(content); err != nil {
			slog.Error("failed to send follow-up", "error", err, "channel_id", event.ChannelID)
		}
	} else if err := b.discord.SendChannelMessage(event.ChannelID, content); err != nil {
		slog.Error("failed to post reply", "error", err, "channel_id", event.ChannelID)
	}
	b.sendAudio(event.ChannelID, resp)
}

func (b *Bot) handleListen(event discord.SlashCommandEvent) {
	lang, ok := b.resolveLanguage(event.Option(optionLanguage))
	if !ok {
		respondEphemeral(event, messageEphemeralUnsupportedLanguage)
		return
	}
	voiceChannelID, err := b.discord.GetUserVoiceChannelID(event.GuildID, event.UserID)
	if err != nil {
		slog.Error("failed to look up user voice channel", "error", err, "user_id", event.UserID)
		respondEphemeral(event, messageEphemeralVoiceLookupFailed)
		return
	}
	if voiceChannelID == "" {
		respondEphemeral(event, messageEphemeralJoinVCFirst)
		return
	}

	if err := b.startListening(event.GuildID, voiceChannelID, event.ChannelID, lang); err != nil {
		if errors.Is(err, listening.ErrAlreadyListening) {
			respondEphemeral(event, messageEphemeralAlreadyRunning)
			return
		}
		slog.Error("failed to start listening", "error", err, "voice_channel_id", voiceChannelID)
		respondEphemeral(event, messageEphemeralStartFailed)
		return
	}
	respondEphemeral(event, startEphemeral(voiceChannelID, lang.Name))
	if err := b.discord.SendChannelMessage(event.ChannelID, messageStartChannelTitle+"\n"+messageStartChannelHint); err != nil {
		slog.Warn("failed to post start message", "error", err, "channel_id", event.ChannelID)
	}
}

func (b *Bot) handleStop(event discord.SlashCommandEvent) {
	voiceChannelID, err := b.discord.GetUserVoiceChannelID(event.GuildID, event.UserID)
	if err != nil {
		slog.Error("failed to look up user voice channel", "error", err, "user_id", event.UserID)
		respondEphemeral(event, messageEphemeralVoiceLookupFailed)
		return
	}
	if voiceChannelID == "" {
		respondEphemeral(event, messageEphemeralJoinVCFirst)
		return
	}
	if !b.IsListening(voiceChannelID) {
		respondEphemeral(event, messageEphemeralNotRunning)
		return
	}
	respondEphemeral(event, stopEphemeral(voiceChannelID))
	if err := b.stopListening(voiceChannelID, stopReasonManualSlash); err != nil {
		slog.Error("failed to stop listening", "error", err, "voice_channel_id", voiceChannelID)
	}
}

// HandleVoiceStateUpdate stops listening once no human is left in the channel or the bot
// itself was disconnected.
func (b *Bot) HandleVoiceStateUpdate(event discord.VoiceStateEvent) {
	if event.GuildID != b.cfg.GuildID || event.BeforeChannelID == "" {
		return
	}
	if !b.IsListening(event.BeforeChannelID) {
		return
	}
	if event.UserID == b.botUserID {
		slog.Info("bot left voice channel", "voice_channel_id", event.BeforeChannelID, "after_channel_id", event.AfterChannelID)
		if err := b.stopListening(event.BeforeChannelID, stopReasonBotRemoved); err != nil {
			slog.Error("failed to stop listening", "error", err, "voice_channel_id", event.BeforeChannelID)
		}
		return
	}
	participants, err := b.discord.ListVoiceChannelParticipants(event.GuildID, event.BeforeChannelID)
	if err != nil {
		slog.Warn("failed to list voice participants", "error", err, "voice_channel_id", event.BeforeChannelID)
		return
	}
	for _, p := range participants {
		if !p.IsBot && p.UserID != event.UserID {
			return
		}
	}
	if err := b.stopListening(event.BeforeChannelID, stopReasonParticipantsLeft); err != nil {
		slog.Error("failed to stop listening", "error", err, "voice_channel_id", event.BeforeChannelID)
	}
}

func (b *Bot) IsListening(voiceChannelID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.links[voiceChannelID]
	return ok
}

// Stop ends every voice listening session. The gateway connection is closed by the client.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	ids := make([]string, 0, len(b.links))
	for id := range b.links {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	var errs error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return multierror.Append(errs, err)
		}
		if err := b.stopListening(id, stopReasonServerClosed); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (b *Bot) startListening(guildID, voiceChannelID, textChannelID string, lang language.Language) error {
	// Held across the join so two concurrent starts for one channel cannot both connect.
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.links[voiceChannelID]; exists {
		return listening.ErrAlreadyListening
	}

	voice, err := b.discord.JoinVoiceChannel(guildID, voiceChannelID)
	if err != nil {
		return fmt.Errorf("join voice channel: %w", err)
	}
	mixer := b.newMixer()
	mic := audio.NewFrameMicrophone(audio.FrameMicrophoneConfig{
		SampleRate:    audio.MixerSampleRate,
		Channels:      audio.MixerChannels,
		ThresholdDBFS: b.cfg.ThresholdDBFS,
		SilenceGap:    b.cfg.SilenceGap,
	})
	sess, err := b.listener.Start(ownerKey(voiceChannelID), lang.RecognitionTag, mic)
	if err != nil {
		mixer.Close()
		_ = voice.Disconnect()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	link := &voiceLink{
		guildID:        guildID,
		voiceChannelID: voiceChannelID,
		textChannelID:  textChannelID,
		lang:           lang,
		startedAt:      time.Now(),
		conv:           b.conversationLocked(textChannelID),
		voice:          voice,
		mixer:          mixer,
		mic:            mic,
		session:        sess,
		ctx:            ctx,
		cancel:         cancel,
	}
	b.links[voiceChannelID] = link
	slog.Info("voice listening started", "voice_channel_id", voiceChannelID, "text_channel_id", textChannelID, "language", lang.Name, "listening_session_id", sess.ID())

	var receivedOpusPackets atomic.Int64
	link.pumps.Add(3)
	go func() {
		defer link.pumps.Done()
		voice.ReceiveAudio(func(userID string, opusPacket []byte) {
			n := receivedOpusPackets.Add(1)
			if n == 1 || n%500 == 0 {
				slog.Debug("received opus packet", "voice_channel_id", voiceChannelID, "user_id", userID, "packet_bytes", len(opusPacket), "total_packets", n)
			}
			mixer.WriteOpusPacket(userID, opusPacket)
		})
	}()
	go func() {
		defer link.pumps.Done()
		b.pumpMixedAudio(link)
	}()
	go func() {
		defer link.pumps.Done()
		b.relayResults(link)
	}()
	return nil
}

// pumpMixedAudio moves mixed PCM into the frame microphone every mixer tick.
func (b *Bot) pumpMixedAudio(link *voiceLink) {
	ticker := time.NewTicker(audioMixInterval)
	defer ticker.Stop()
	buf := make([]byte, audioFrameBytes)
	for {
		select {
		case <-link.ctx.Done():
			return
		case <-ticker.C:
			n, err := link.mixer.ReadMixedPCM(buf)
			if err != nil {
				slog.Warn("failed to read mixed pcm", "error", err, "voice_channel_id", link.voiceChannelID)
				continue
			}
			if n == 0 {
				continue
			}
			link.mic.Push(audio.DecodePCM16LE(buf[:n]))
		}
	}
}

// relayResults answers each recognized utterance in capture order until the session's queue
// is closed.
func (b *Bot) relayResults(link *voiceLink) {
	base := incident.Request{
		Language: link.lang,
		Speak:    b.cfg.Speak,
		Channel:  repository.ChannelDiscord,
		OwnerID:  link.voiceChannelID,
	}
	for result := range link.session.Results() {
		if !result.OK() && result.Failure() == failure.KindUnintelligible {
			slog.Debug("skipping unintelligible utterance", "voice_channel_id", link.voiceChannelID)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.ReplyTimeout)
		resp := b.incidents.HandleUtterance(ctx, link.conv, base, result)
		cancel()
		if err := b.discord.SendChannelMessage(link.textChannelID, formatResponse(resp)); err != nil {
			slog.Error("failed to post voice reply", "error", err, "channel_id", link.textChannelID)
		}
		b.sendAudio(link.textChannelID, resp)
	}
	if link.ctx.Err() == nil {
		// The feed ended on its own; stopListening waits on this goroutine, so hand it off.
		go func() {
			if err := b.stopListening(link.voiceChannelID, stopReasonSessionEnded); err != nil {
				slog.Error("failed to clean up ended session", "error", err, "voice_channel_id", link.voiceChannelID)
			}
		}()
	}
}

func (b *Bot) stopListening(voiceChannelID, reason string) error {
	b.mu.Lock()
	link, ok := b.links[voiceChannelID]
	if ok {
		delete(b.links, voiceChannelID)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}

	slog.Info("stopping voice listening", "voice_channel_id", voiceChannelID, "reason", reason)
	link.cancel()
	var errs error
	if err := link.voice.Disconnect(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("disconnect voice: %w", err))
	}
	link.mixer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if _, err := b.listener.Stop(ctx, ownerKey(voiceChannelID)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stop listening session: %w", err))
	}
	link.pumps.Wait()

	b.postStopSummary(link, reason)
	return errs
}

func (b *Bot) postStopSummary(link *voiceLink, reason string) {
	content := messageStopChannelTitle + "\n" + stopReasonDetail(reason)
	turns := link.conv.Turns()
	if countTurnsSince(turns, link.startedAt) == 0 {
		if err := b.discord.SendChannelMessage(link.textChannelID, content); err != nil {
			slog.Warn("failed to post stop message", "error", err, "channel_id", link.textChannelID)
		}
		return
	}
	body := buildTranscriptText(link.voiceChannelID, link.lang.Name, link.startedAt, time.Now(), turns)
	if err := b.discord.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID:   link.textChannelID,
		Content:     content + "\n" + messageTranscriptTitle,
		Filename:    fmt.Sprintf("fir-conversation-%s.txt", link.conv.ID()),
		ContentType: "text/plain; charset=utf-8",
		FileBody:    body,
	}); err != nil {
		slog.Warn("failed to post transcript", "error", err, "channel_id", link.textChannelID)
	}
}

func (b *Bot) sendAudio(channelID string, resp *incident.Response) {
	if resp == nil || resp.Audio == nil || len(resp.Audio.Data) == 0 {
		return
	}
	if err := b.discord.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID:   channelID,
		Filename:    "fir-reply.mp3",
		ContentType: speech.MIMETypeMP3,
		FileBody:    resp.Audio.Data,
	}); err != nil {
		slog.Warn("failed to post reply audio", "error", err, "channel_id", channelID)
	}
}

func (b *Bot) resolveLanguage(name string) (language.Language, bool) {
	if strings.TrimSpace(name) == "" {
		return b.cfg.DefaultLanguage, true
	}
	return language.Lookup(name)
}

func (b *Bot) conversation(channelID string) *assistant.Conversation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversationLocked(channelID)
}

func (b *Bot) conversationLocked(channelID string) *assistant.Conversation {
	conv, ok := b.conversations[channelID]
	if !ok {
		conv = assistant.NewConversation()
		b.conversations[channelID] = conv
	}
	return conv
}

func ownerKey(voiceChannelID string) string {
	return "discord:" + voiceChannelID
}

func respondEphemeral(event discord.SlashCommandEvent, content string) {
	if event.RespondEphemeral == nil {
		return
	}
	if err := event.RespondEphemeral(content); err != nil {
		slog.Error("failed to respond to interaction", "error", err, "command", event.CommandName)
	}
}
