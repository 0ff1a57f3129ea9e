package discord

import (
	"github.com/foxseedlab/firassist/internal/config"
	discordpkg "github.com/foxseedlab/firassist/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.DiscordToken), nil
	})
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		return do.MustInvoke[*Client](i), nil
	})
}
