package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"herald/internal/audit"
	"herald/internal/authoring"
	"herald/internal/embeds"
	"herald/internal/notify"

	"github.com/bwmarrin/discordgo"
)

func TestEditorComponentsListEveryField(t *testing.T) {
	rows := editorComponents("sid")
	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if menu.CustomID != "embed_edit:sid" {
		t.Fatalf("unexpected custom id %q", menu.CustomID)
	}
	if len(menu.Options) != len(authoring.Fields)+2 {
		t.Fatalf("expected %d options, got %d", len(authoring.Fields)+2, len(menu.Options))
	}
	for _, option := range menu.Options[:len(authoring.Fields)] {
		if _, err := authoring.ParseField(option.Value); err != nil {
			t.Fatalf("option %q is not a field", option.Value)
		}
	}
}

func TestEditorModalPrefillsRawValues(t *testing.T) {
	color := 0xff0000
	doc := embeds.Document{Author: embeds.Author{Name: "{user.name}", IconURL: "{user.avatar}"}, Color: &color}

	modal := editorModal("sid", authoring.FieldAuthor, doc)
	if modal.Data.CustomID != "embed_modal:sid:author" {
		t.Fatalf("unexpected custom id %q", modal.Data.CustomID)
	}
	if len(modal.Data.Components) != 2 {
		t.Fatalf("expected two inputs, got %d", len(modal.Data.Components))
	}
	name := modal.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	icon := modal.Data.Components[1].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	if name.Value != "{user.name}" || icon.Value != "{user.avatar}" || icon.CustomID != inputSecondary {
		t.Fatalf("unexpected inputs %+v %+v", name, icon)
	}

	colorModal := editorModal("sid", authoring.FieldColor, doc)
	input := colorModal.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.TextInput)
	if input.Value != "#FF0000" {
		t.Fatalf("unexpected color prefill %q", input.Value)
	}
}

func TestNameSelectTruncates(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = fmt.Sprintf("embed%d", i)
	}
	rows, truncated := nameSelect(idEmbedSend, "pick", names)
	if !truncated {
		t.Fatal("expected truncation")
	}
	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	if len(menu.Options) != maxSelectOptions {
		t.Fatalf("expected %d options, got %d", maxSelectOptions, len(menu.Options))
	}
}

func TestModalValues(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: "embed_modal:sid:footer",
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: inputPrimary, Value: "bye"}}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{&discordgo.TextInput{CustomID: inputSecondary, Value: "https://x.test/i.png"}}},
		},
	}
	values := modalValues(data)
	if values[inputPrimary] != "bye" || values[inputSecondary] != "https://x.test/i.png" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestConfigFields(t *testing.T) {
	channelID := "c1"
	name := "greet.json"
	status := notify.Status{
		Entry:      notify.Entry{ChannelID: &channelID, EmbedName: &name, Enabled: true},
		LastChange: &audit.Entry{Event: "welcome.enabled", UserID: "9", CreatedAt: time.Unix(100, 0)},
	}
	fields := configFields(notify.Welcome, status)
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(fields))
	}
	if !strings.Contains(fields[0].Value, "Enabled") {
		t.Fatalf("unexpected status %q", fields[0].Value)
	}
	if fields[1].Value != "❌ Channel no longer exists" {
		t.Fatalf("unexpected channel %q", fields[1].Value)
	}
	if fields[2].Value != "`greet`" {
		t.Fatalf("unexpected embed %q", fields[2].Value)
	}
	if !strings.Contains(fields[3].Value, "<t:100:R>") {
		t.Fatalf("unexpected last change %q", fields[3].Value)
	}
}

func TestErrorTexts(t *testing.T) {
	if text := notifyErrorText(notify.Goodbye, notify.ErrChannelNotSet); !strings.Contains(text, "/goodbye set") {
		t.Fatalf("unexpected text %q", text)
	}
	err := fmt.Errorf("thumbnail: %w: bad", embeds.ErrInvalidURL)
	if text := describeError(err); !strings.Contains(text, "thumbnail") {
		t.Fatalf("expected field name in %q", text)
	}
	if text := describeError(errors.New("boom")); text == "" {
		t.Fatal("expected fallback text")
	}
}

func TestCommandDefinitions(t *testing.T) {
	commands := commandDefinitions()
	names := map[string]*discordgo.ApplicationCommand{}
	for _, cmd := range commands {
		names[cmd.Name] = cmd
		if cmd.DefaultMemberPermissions == nil || *cmd.DefaultMemberPermissions != manageGuild {
			t.Fatalf("%s should require manage server", cmd.Name)
		}
	}
	for _, name := range []string{"embed", "welcome", "goodbye"} {
		if names[name] == nil {
			t.Fatalf("missing command %s", name)
		}
	}
	if len(names["welcome"].Options) != 7 {
		t.Fatalf("expected 7 welcome subcommands, got %d", len(names["welcome"].Options))
	}
}
