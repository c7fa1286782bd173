package bot

import (
	"github.com/bwmarrin/discordgo"

	"herald/internal/notify"
)

var manageGuild int64 = discordgo.PermissionManageServer

func commandDefinitions() []*discordgo.ApplicationCommand {
	dmPermission := false
	return []*discordgo.ApplicationCommand{
		{
			Name:        "embed",
			Description: "Create and manage saved embeds",
			DescriptionLocalizations: &map[discordgo.Locale]string{
				discordgo.French:    "Creer et gerer les embeds enregistres",
				discordgo.EnglishUS: "Create and manage saved embeds",
				discordgo.SpanishES: "Crear y gestionar embeds guardados",
			},
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Open the embed editor"),
				subcommand("send", "Send a saved embed in this channel"),
				subcommand("delete", "Delete a saved embed"),
				subcommand("list", "List saved embeds"),
			},
		},
		notifyCommand(notify.Welcome, "Manage welcome messages for your server", map[discordgo.Locale]string{
			discordgo.French:    "Gerer les messages de bienvenue",
			discordgo.EnglishUS: "Manage welcome messages for your server",
			discordgo.SpanishES: "Gestionar los mensajes de bienvenida",
		}),
		notifyCommand(notify.Goodbye, "Manage goodbye messages for your server", map[discordgo.Locale]string{
			discordgo.French:    "Gerer les messages de depart",
			discordgo.EnglishUS: "Manage goodbye messages for your server",
			discordgo.SpanishES: "Gestionar los mensajes de despedida",
		}),
	}
}

func notifyCommand(kind notify.Kind, description string, localized map[discordgo.Locale]string) *discordgo.ApplicationCommand {
	dmPermission := false
	noun := string(kind)
	set := subcommand("set", "Set the "+noun+" channel")
	set.Options = []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Channel that receives " + noun + " messages",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
		},
	}
	return &discordgo.ApplicationCommand{
		Name:                     noun,
		Description:              description,
		DescriptionLocalizations: &localized,
		DefaultMemberPermissions: &manageGuild,
		DMPermission:             &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			set,
			subcommand("message", "Choose the saved embed to send"),
			subcommand("view", "Send a preview to the "+noun+" channel"),
			subcommand("enable", "Enable "+noun+" messages"),
			subcommand("disable", "Disable "+noun+" messages"),
			subcommand("reset", "Reset all "+noun+" settings"),
			subcommand("config", "Show the current "+noun+" settings"),
		},
	}
}

func subcommand(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
	}
}

func (b *Bot) registerCommands() error {
	commands := commandDefinitions()

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
