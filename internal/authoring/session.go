// Package authoring implements the interactive embed editor: a draft edited
// one field at a time and saved as a named embed.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"herald/internal/embeds"
	"herald/internal/utils"
	"herald/internal/variables"
)

var (
	ErrExpired        = errors.New("editing session expired")
	ErrNoPendingField = errors.New("no field is awaiting input")
	ErrUnknownField   = errors.New("unknown field")
)

type Field string

const (
	FieldMessage     Field = "message"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldImage       Field = "image"
	FieldThumbnail   Field = "thumbnail"
	FieldColor       Field = "color"
	FieldAuthor      Field = "author"
	FieldFooter      Field = "footer"
	FieldTimestamp   Field = "timestamp"
)

// Fields lists the editable fields in menu order.
var Fields = []Field{
	FieldMessage, FieldTitle, FieldDescription, FieldImage, FieldThumbnail,
	FieldColor, FieldAuthor, FieldFooter, FieldTimestamp,
}

func ParseField(value string) (Field, error) {
	for _, field := range Fields {
		if string(field) == value {
			return field, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, value)
}

type State int

const (
	Editing State = iota
	AwaitingInput
)

// Input is the modal submission for a field. Secondary carries the icon URL
// for author and footer and is ignored otherwise.
type Input struct {
	Primary   string
	Secondary string
}

type Session struct {
	ID      string
	GuildID string
	OwnerID string

	mu         sync.Mutex
	doc        embeds.Document
	state      State
	pending    Field
	lastActive time.Time
	now        func() time.Time
}

func (s *Session) State() (State, Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.pending
}

// Document returns a copy of the raw draft.
func (s *Session) Document() embeds.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDocument(s.doc)
}

func (s *Session) Select(field Field) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = AwaitingInput
	s.pending = field
	return nil
}

func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Editing
	s.pending = ""
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = embeds.Document{}
	s.state = Editing
	s.pending = ""
}

// Submit applies input to the pending field. URL fields are checked after
// expansion against subject but stored raw. On error the draft is unchanged.
// Either way the session returns to Editing.
func (s *Session) Submit(input Input, subject variables.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AwaitingInput {
		return ErrNoPendingField
	}
	field := s.pending
	s.state = Editing
	s.pending = ""

	doc := copyDocument(s.doc)
	expander := variables.NewExpander(subject)
	primary := strings.TrimSpace(input.Primary)
	secondary := strings.TrimSpace(input.Secondary)

	switch field {
	case FieldMessage:
		doc.MessageContent = input.Primary
	case FieldTitle:
		doc.Title = primary
	case FieldDescription:
		doc.Description = input.Primary
	case FieldImage:
		if err := checkURL("image", primary, expander); err != nil {
			return err
		}
		doc.Image = primary
	case FieldThumbnail:
		if err := checkURL("thumbnail", primary, expander); err != nil {
			return err
		}
		doc.Thumbnail = primary
	case FieldColor:
		if primary == "" {
			doc.Color = nil
			break
		}
		color, err := embeds.ParseColor(primary)
		if err != nil {
			return fmt.Errorf("color: %w", err)
		}
		doc.Color = &color
	case FieldAuthor:
		if err := checkURL("author icon", secondary, expander); err != nil {
			return err
		}
		doc.Author = embeds.Author{Name: primary, IconURL: secondary}
	case FieldFooter:
		if err := checkURL("footer icon", secondary, expander); err != nil {
			return err
		}
		doc.Footer = embeds.Footer{Text: primary, IconURL: secondary}
	case FieldTimestamp:
		ts, err := s.timestamp(primary)
		if err != nil {
			return err
		}
		doc.Timestamp = ts
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.doc = doc
	return nil
}

func (s *Session) timestamp(value string) (*string, error) {
	switch strings.ToLower(value) {
	case "", "false", "off", "no":
		return nil, nil
	case "true", "now", "yes", "on":
		formatted := embeds.FormatTimestamp(s.now())
		return &formatted, nil
	}
	parsed, err := embeds.ParseTimestamp(value)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	formatted := embeds.FormatTimestamp(parsed)
	return &formatted, nil
}

// Preview renders the draft leniently so a half-finished embed still shows.
func (s *Session) Preview(subject variables.Subject, defaultColor int) (embeds.Rendered, error) {
	return embeds.Build(s.Document(), subject, embeds.Options{Mode: embeds.Lenient, DefaultColor: defaultColor})
}

// Save validates the draft with a strict build and stores it under name,
// overwriting any embed of the same name. It returns the stored name.
func (s *Session) Save(ctx context.Context, store *embeds.Store, name string, subject variables.Subject, defaultColor int) (string, error) {
	name, err := embeds.NormalizeName(name)
	if err != nil {
		return "", err
	}
	doc := s.Document()
	if _, err := embeds.Build(doc, subject, embeds.Options{Mode: embeds.Strict, DefaultColor: defaultColor}); err != nil {
		return "", err
	}
	if err := store.Save(ctx, s.GuildID, name, doc); err != nil {
		return "", err
	}
	return name, nil
}

func checkURL(field, raw string, expander *variables.Expander) error {
	if raw == "" {
		return nil
	}
	if _, err := utils.ValidateURL(expander.Expand(raw)); err != nil {
		return fmt.Errorf("%s: %w: %v", field, embeds.ErrInvalidURL, err)
	}
	return nil
}

func copyDocument(doc embeds.Document) embeds.Document {
	out := doc
	if doc.Color != nil {
		color := *doc.Color
		out.Color = &color
	}
	if doc.Timestamp != nil {
		ts := *doc.Timestamp
		out.Timestamp = &ts
	}
	return out
}
