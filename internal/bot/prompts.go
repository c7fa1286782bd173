package bot

import (
	"context"
	"errors"
	"strings"

	"herald/internal/authoring"
	"herald/internal/confirm"
	"herald/internal/embeds"
	"herald/internal/notify"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// openPrompt asks the invoker a yes/no question. apply runs only if the
// invoker answers yes before the prompt times out.
func (b *Bot) openPrompt(session *discordgo.Session, interaction *discordgo.InteractionCreate, question string, view promptView, apply func(context.Context) error) {
	var gateID string
	source := interaction.Interaction
	gateID = b.confirms.Open(confirm.Prompt{
		OwnerID: interactionUserID(interaction),
		Confirm: apply,
		Expire:  func() { b.expirePrompt(session, source, gateID) },
	})

	b.promptMu.Lock()
	b.prompts[gateID] = view
	b.promptMu.Unlock()

	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.infoEmbed(view.title, question)},
			Components: confirmButtons(gateID),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) takePrompt(gateID string) promptView {
	b.promptMu.Lock()
	defer b.promptMu.Unlock()
	view := b.prompts[gateID]
	delete(b.prompts, gateID)
	return view
}

func (b *Bot) expirePrompt(session *discordgo.Session, interaction *discordgo.Interaction, gateID string) {
	view := b.takePrompt(gateID)
	message := view.expired
	if message == "" {
		message = "Confirmation timed out. Nothing was changed."
	}
	embedList := []*discordgo.MessageEmbed{b.commandEmbed(view.title, message, b.cfg.EmbedColors.Warning, nil)}
	components := []discordgo.MessageComponent{}
	if _, err := session.InteractionResponseEdit(interaction, &discordgo.WebhookEdit{
		Embeds:     &embedList,
		Components: &components,
	}); err != nil {
		b.logger.Debug("prompt timeout edit failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
}

func confirmButtons(gateID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Yes",
					Style:    discordgo.SuccessButton,
					CustomID: customID(idConfirm, gateID, answerYes),
				},
				discordgo.Button{
					Label:    "No",
					Style:    discordgo.DangerButton,
					CustomID: customID(idConfirm, gateID, answerNo),
				},
			},
		},
	}
}

// describeError turns domain errors into messages for the invoking user.
func describeError(err error) string {
	switch {
	case errors.Is(err, embeds.ErrInvalidURL):
		return "Invalid URL for " + fieldOf(err) + "! Please provide a valid URL starting with http:// or https://."
	case errors.Is(err, embeds.ErrInvalidColor):
		return "Invalid color hex code! Please provide a valid hex color code (e.g. #FF0000)."
	case errors.Is(err, embeds.ErrInvalidTimestamp):
		return "Invalid timestamp! Use `true`, `false` or an ISO-8601 date such as 2024-01-31T18:00:00Z."
	case errors.Is(err, embeds.ErrInvalidName):
		return "Invalid embed name! Use 1-50 characters without slashes."
	case errors.Is(err, embeds.ErrNotFound):
		return "That embed no longer exists."
	case errors.Is(err, authoring.ErrExpired):
		return "This editing session has expired. Run `/embed create` again."
	case errors.Is(err, notify.ErrMissingTarget):
		return "The configured channel no longer exists! Please set a new one."
	default:
		return "Something went wrong. Please try again."
	}
}

// fieldOf extracts the field name from errors wrapped as "<field>: ...".
func fieldOf(err error) string {
	if field, _, found := strings.Cut(err.Error(), ":"); found {
		return field
	}
	return "this field"
}
