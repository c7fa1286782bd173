package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"herald/internal/audit"
	"herald/internal/authoring"
	"herald/internal/config"
	"herald/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

type requestLog struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (l *requestLog) find(method, suffix string) []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []recordedRequest
	for _, req := range l.requests {
		if req.method == method && strings.HasSuffix(req.path, suffix) {
			out = append(out, req)
		}
	}
	return out
}

// newTestBot returns a bot whose REST calls are answered locally: lookups
// fail with 404 and everything else succeeds with an empty object.
func newTestBot(t *testing.T) (*Bot, *requestLog) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.DiscordToken = "test-token"
	logger := zap.NewNop()

	b, err := New(cfg, logger, store, audit.NewLogger(store, logger, 20))
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	log := &requestLog{}
	b.session.Client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		log.mu.Lock()
		log.requests = append(log.requests, recordedRequest{method: req.Method, path: req.URL.Path, body: body})
		log.mu.Unlock()

		status, payload := http.StatusOK, `{}`
		if req.Method == http.MethodGet {
			status, payload = http.StatusNotFound, `{"message": "Unknown", "code": 10003}`
		}
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewBufferString(payload)),
			Request:    req,
		}, nil
	})}
	return b, log
}

func modalInteraction(guildID, channelID, userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i1",
		AppID:     "app",
		Token:     "tok",
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   guildID,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "ana"}},
	}}
}

func TestEditorSaveKeepsSessionOpen(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()
	interaction := modalInteraction("g1", "c1", "u1")

	editor := b.authoring.Start("g1", "u1")
	if err := editor.Select(authoring.FieldTitle); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := editor.Submit(authoring.Input{Primary: "Hello {user.name}"}, b.subject(interaction)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	b.handleEditorSave(ctx, b.session, interaction, editor.ID, map[string]string{inputPrimary: "greet"})

	doc, err := b.embeds.Load(ctx, "g1", "greet")
	if err != nil {
		t.Fatalf("saved embed missing: %v", err)
	}
	if doc.Title != "Hello {user.name}" {
		t.Fatalf("unexpected saved title %q", doc.Title)
	}

	again, err := b.authoring.Get(editor.ID, "u1")
	if err != nil {
		t.Fatalf("session closed by save: %v", err)
	}
	if again != editor {
		t.Fatal("save replaced the session")
	}
	if err := again.Select(authoring.FieldDescription); err != nil {
		t.Fatalf("session no longer editable: %v", err)
	}
	again.Cancel()

	b.handleEditorSave(ctx, b.session, interaction, editor.ID, map[string]string{inputPrimary: "greet-copy"})
	names, err := b.embeds.List(ctx, "g1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "greet" || names[1] != "greet-copy" {
		t.Fatalf("expected both saves, got %v", names)
	}
}

func TestEditorSaveRerendersEditor(t *testing.T) {
	b, log := newTestBot(t)
	interaction := modalInteraction("g1", "c1", "u1")
	editor := b.authoring.Start("g1", "u1")

	b.handleEditorSave(context.Background(), b.session, interaction, editor.ID, map[string]string{inputPrimary: "greet"})

	callbacks := log.find(http.MethodPost, "/callback")
	if len(callbacks) != 1 {
		t.Fatalf("expected one interaction response, got %d", len(callbacks))
	}
	var response struct {
		Type discordgo.InteractionResponseType `json:"type"`
		Data struct {
			Components []json.RawMessage `json:"components"`
		} `json:"data"`
	}
	if err := json.Unmarshal(callbacks[0].body, &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("expected an update of the editor message, got type %d", response.Type)
	}
	if len(response.Data.Components) == 0 || !bytes.Contains(callbacks[0].body, []byte(customID(idEmbedEdit, editor.ID))) {
		t.Fatalf("editor menu missing from response: %s", callbacks[0].body)
	}

	followups := log.find(http.MethodPost, "/app/tok")
	if len(followups) != 1 {
		t.Fatalf("expected one followup, got %d", len(followups))
	}
	var followup struct {
		Flags  discordgo.MessageFlags    `json:"flags"`
		Embeds []*discordgo.MessageEmbed `json:"embeds"`
	}
	if err := json.Unmarshal(followups[0].body, &followup); err != nil {
		t.Fatalf("decode followup: %v", err)
	}
	if followup.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatal("save confirmation is not ephemeral")
	}
	if len(followup.Embeds) != 1 || !strings.Contains(followup.Embeds[0].Description, "`greet`") {
		t.Fatalf("unexpected confirmation %+v", followup.Embeds)
	}
}
