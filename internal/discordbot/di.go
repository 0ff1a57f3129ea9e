package discordbot

import (
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/discord"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		incidents := do.MustInvoke[*incident.Service](i)
		manager := do.MustInvoke[*listening.Manager](i)
		newMixer := do.MustInvoke[audio.MixerFactory](i)
		lang, ok := language.Lookup(cfg.DefaultLanguage)
		if !ok {
			lang = language.Default()
		}
		return New(Config{
			GuildID:         cfg.DiscordGuildID,
			DefaultLanguage: lang,
			ThresholdDBFS:   cfg.ListenThresholdDBFS,
			SilenceGap:      cfg.ListenSilenceGap,
			Speak:           cfg.SynthesisEnabled,
			ReplyTimeout:    cfg.RequestTimeout,
		}, dc, incidents, manager, newMixer), nil
	})
}
