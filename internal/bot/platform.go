package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// discordPlatform serves lookups from the gateway state cache and falls back
// to REST.
type discordPlatform struct {
	session *discordgo.Session
}

func (p *discordPlatform) Guild(guildID string) (*discordgo.Guild, error) {
	if p.session.State != nil {
		if guild, err := p.session.State.Guild(guildID); err == nil {
			return guild, nil
		}
	}
	return p.session.Guild(guildID)
}

func (p *discordPlatform) Channel(channelID string) (*discordgo.Channel, error) {
	if p.session.State != nil {
		if channel, err := p.session.State.Channel(channelID); err == nil {
			return channel, nil
		}
	}
	return p.session.Channel(channelID)
}

func (p *discordPlatform) Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return err
}
