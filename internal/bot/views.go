package bot

import (
	"fmt"

	"herald/internal/authoring"
	"herald/internal/embeds"

	"github.com/bwmarrin/discordgo"
)

// Discord caps select menus at 25 options.
const maxSelectOptions = 25

const (
	editorReset = "reset"
	editorSave  = "save"

	inputPrimary   = "primary"
	inputSecondary = "secondary"
)

type fieldInfo struct {
	label       string
	description string
}

var fieldInfos = map[authoring.Field]fieldInfo{
	authoring.FieldMessage:     {"Message", "Set text shown above the embed"},
	authoring.FieldTitle:       {"Title", "Set embed title"},
	authoring.FieldDescription: {"Description", "Set embed description"},
	authoring.FieldImage:       {"Image", "Set main image"},
	authoring.FieldThumbnail:   {"Thumbnail", "Set thumbnail image"},
	authoring.FieldColor:       {"Color", "Set embed color (hex)"},
	authoring.FieldAuthor:      {"Author", "Set author name and icon"},
	authoring.FieldFooter:      {"Footer", "Set footer text and icon"},
	authoring.FieldTimestamp:   {"Time Stamp", "Toggle timestamp"},
}

func editorComponents(sessionID string) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(authoring.Fields)+2)
	for _, field := range authoring.Fields {
		info := fieldInfos[field]
		options = append(options, discordgo.SelectMenuOption{Label: info.label, Value: string(field), Description: info.description})
	}
	options = append(options,
		discordgo.SelectMenuOption{Label: "Reset", Value: editorReset, Description: "Clear the whole embed"},
		discordgo.SelectMenuOption{Label: "Save", Value: editorSave, Description: "Save the embed under a name"},
	)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    customID(idEmbedEdit, sessionID),
					Placeholder: "Choose what to edit",
					Options:     options,
				},
			},
		},
	}
}

// editorModal asks for a field's new value, prefilled with the raw draft.
func editorModal(sessionID string, field authoring.Field, doc embeds.Document) *discordgo.InteractionResponse {
	var inputs []discordgo.TextInput
	switch field {
	case authoring.FieldMessage:
		inputs = append(inputs, textInput(inputPrimary, "Message content", doc.MessageContent, "Text sent with the embed", discordgo.TextInputParagraph, 2000))
	case authoring.FieldTitle:
		inputs = append(inputs, textInput(inputPrimary, "Title", doc.Title, "Welcome {user.name}!", discordgo.TextInputShort, 256))
	case authoring.FieldDescription:
		inputs = append(inputs, textInput(inputPrimary, "Description", doc.Description, "Hi {user.mention}, enjoy {guild.name}!", discordgo.TextInputParagraph, 4000))
	case authoring.FieldImage:
		inputs = append(inputs, textInput(inputPrimary, "Image URL", doc.Image, "Enter image URL...", discordgo.TextInputShort, 1000))
	case authoring.FieldThumbnail:
		inputs = append(inputs, textInput(inputPrimary, "Thumbnail URL", doc.Thumbnail, "Enter thumbnail URL...", discordgo.TextInputShort, 1000))
	case authoring.FieldColor:
		current := ""
		if doc.Color != nil {
			current = fmt.Sprintf("#%06X", *doc.Color)
		}
		inputs = append(inputs, textInput(inputPrimary, "Color", current, "Enter color hex code (e.g. #FF0000)...", discordgo.TextInputShort, 9))
	case authoring.FieldAuthor:
		inputs = append(inputs,
			textInput(inputPrimary, "Author name", doc.Author.Name, "{user.display_name}", discordgo.TextInputShort, 256),
			textInput(inputSecondary, "Author icon URL", doc.Author.IconURL, "{user.avatar}", discordgo.TextInputShort, 1000),
		)
	case authoring.FieldFooter:
		inputs = append(inputs,
			textInput(inputPrimary, "Footer text", doc.Footer.Text, "Member #{guild.member_count}", discordgo.TextInputParagraph, 2048),
			textInput(inputSecondary, "Footer icon URL", doc.Footer.IconURL, "{guild.icon}", discordgo.TextInputShort, 1000),
		)
	case authoring.FieldTimestamp:
		current := "false"
		if doc.Timestamp != nil {
			current = *doc.Timestamp
		}
		inputs = append(inputs, textInput(inputPrimary, "Timestamp", current, "Enter 'true' to enable timestamp...", discordgo.TextInputShort, 40))
	}

	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID(idEmbedModal, sessionID, string(field)),
			Title:      "Edit " + fieldInfos[field].label,
			Components: rows,
		},
	}
}

func saveModal(sessionID string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID(idEmbedSave, sessionID),
			Title:    "Save Embed",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    inputPrimary,
						Label:       "Embed name",
						Style:       discordgo.TextInputShort,
						Placeholder: "Enter a name for this embed...",
						Required:    true,
						MinLength:   1,
						MaxLength:   embeds.MaxNameLength,
					},
				}},
			},
		},
	}
}

func textInput(id, label, value, placeholder string, style discordgo.TextInputStyle, maxLength int) discordgo.TextInput {
	if runes := []rune(value); len(runes) > maxLength {
		value = string(runes[:maxLength])
	}
	return discordgo.TextInput{
		CustomID:    id,
		Label:       label,
		Style:       style,
		Value:       value,
		Placeholder: placeholder,
		MaxLength:   maxLength,
	}
}

// nameSelect lists saved embeds in a select menu. The second return value
// reports whether names had to be cut off.
func nameSelect(id, placeholder string, names []string) ([]discordgo.MessageComponent, bool) {
	truncated := len(names) > maxSelectOptions
	if truncated {
		names = names[:maxSelectOptions]
	}
	options := make([]discordgo.SelectMenuOption, 0, len(names))
	for _, name := range names {
		options = append(options, discordgo.SelectMenuOption{Label: name, Value: name})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    id,
					Placeholder: placeholder,
					Options:     options,
				},
			},
		},
	}, truncated
}
