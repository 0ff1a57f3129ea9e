package discordbot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/incident"
)

const (
	transcriptTimeLayout = "2006-01-02 15:04:05"
	// Discord rejects messages longer than this many characters.
	maxMessageRunes = 2000
)

// buildTranscriptText renders the turns exchanged since startedAt as a plain text attachment.
func buildTranscriptText(voiceChannelID, languageName string, startedAt, endedAt time.Time, turns []assistant.Turn) []byte {
	lines := []string{
		fmt.Sprintf("Voice channel: %s", voiceChannelID),
		fmt.Sprintf("Language: %s", languageName),
		fmt.Sprintf("Period: %s ~ %s (UTC)", startedAt.UTC().Format(transcriptTimeLayout), endedAt.UTC().Format(transcriptTimeLayout)),
		"",
	}
	for _, turn := range turns {
		if turn.At.Before(startedAt) {
			continue
		}
		elapsed := turn.At.Sub(startedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		lines = append(lines, fmt.Sprintf("%s [%s] %s", formatElapsedHMS(elapsed), turn.Role, turn.Content))
	}
	return []byte(strings.Join(lines, "\n"))
}

func countTurnsSince(turns []assistant.Turn, startedAt time.Time) int {
	n := 0
	for _, turn := range turns {
		if !turn.At.Before(startedAt) {
			n++
		}
	}
	return n
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatResponse lays out one answer as a Discord message: what was heard, the reply and any
// notices.
func formatResponse(resp *incident.Response) string {
	var lines []string
	if resp.Transcript != "" {
		lines = append(lines, messageHeardPrefix+resp.Transcript)
	}
	if resp.Reply != "" {
		lines = append(lines, resp.Reply)
	}
	for _, n := range resp.Notices {
		lines = append(lines, messageNoticePrefix+n.Message)
	}
	if len(lines) == 0 {
		return messageNoReply
	}
	return truncateMessage(strings.Join(lines, "\n"), maxMessageRunes)
}

func truncateMessage(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	const ellipsis = "…"
	runes := []rune(s)
	return string(runes[:limit-utf8.RuneCountInString(ellipsis)]) + ellipsis
}
