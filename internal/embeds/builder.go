package embeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"herald/internal/utils"
	"herald/internal/variables"
)

// Placeholder stands in for blank description lines, which Discord would
// otherwise collapse.
const Placeholder = "\u200e"

type Mode int

const (
	// Strict rejects invalid image, thumbnail and timestamp values.
	Strict Mode = iota
	// Lenient drops them.
	Lenient
)

type Options struct {
	Mode         Mode
	DefaultColor int
}

// Rendered is a fully expanded message ready to be sent.
type Rendered struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

func (r Rendered) MessageSend() *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: r.Content,
		Embeds:  []*discordgo.MessageEmbed{r.Embed},
	}
}

// Build expands every text field of doc against subject and validates the
// URL fields.
func Build(doc Document, subject variables.Subject, opts Options) (Rendered, error) {
	expander := variables.NewExpander(subject)
	embed := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       strings.TrimSpace(expander.Expand(doc.Title)),
		Description: Description(expander.Expand(doc.Description)),
		Color:       opts.DefaultColor,
	}

	if doc.Color != nil {
		if *doc.Color < 0 || *doc.Color > MaxColor {
			if opts.Mode == Strict {
				return Rendered{}, fmt.Errorf("color: %w: %d", ErrInvalidColor, *doc.Color)
			}
		} else {
			embed.Color = *doc.Color
		}
	}

	if name := strings.TrimSpace(expander.Expand(doc.Author.Name)); name != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: name}
		if icon, ok := optionalURL(expander.Expand(doc.Author.IconURL)); ok {
			embed.Author.IconURL = icon
		}
	}
	if text := strings.TrimSpace(expander.Expand(doc.Footer.Text)); text != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: text}
		if icon, ok := optionalURL(expander.Expand(doc.Footer.IconURL)); ok {
			embed.Footer.IconURL = icon
		}
	}

	image, err := imageURL("image", expander.Expand(doc.Image), opts.Mode)
	if err != nil {
		return Rendered{}, err
	}
	if image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: image}
	}
	thumbnail, err := imageURL("thumbnail", expander.Expand(doc.Thumbnail), opts.Mode)
	if err != nil {
		return Rendered{}, err
	}
	if thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
	}

	if doc.Timestamp != nil && strings.TrimSpace(*doc.Timestamp) != "" {
		ts, err := ParseTimestamp(*doc.Timestamp)
		switch {
		case err == nil:
			embed.Timestamp = ts.Format(time.RFC3339)
		case opts.Mode == Strict:
			return Rendered{}, fmt.Errorf("timestamp: %w", err)
		}
	}

	return Rendered{Content: expander.Expand(doc.MessageContent), Embed: embed}, nil
}

// Description replaces blank lines with the placeholder so they survive
// rendering. An empty description becomes a single placeholder line.
func Description(text string) string {
	if strings.TrimSpace(text) == "" {
		return Placeholder
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = Placeholder
		}
	}
	return strings.Join(lines, "\n")
}

func optionalURL(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	valid, err := utils.ValidateURL(raw)
	if err != nil {
		return "", false
	}
	return valid, true
}

func imageURL(field, raw string, mode Mode) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	valid, err := utils.ValidateURL(raw)
	if err == nil {
		return valid, nil
	}
	if mode == Strict {
		return "", fmt.Errorf("%s: %w: %v", field, ErrInvalidURL, err)
	}
	return "", nil
}
