package bot

import "strings"

// Component custom ids are "<group>:<arg>[:<arg>...]".
const (
	idEmbedEdit   = "embed_edit"
	idEmbedModal  = "embed_modal"
	idEmbedSave   = "embed_save"
	idEmbedSend   = "embed_send"
	idEmbedDelete = "embed_delete"
	idNotifyEmbed = "notify_embed"
	idConfirm     = "confirm"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

func customID(group string, args ...string) string {
	return strings.Join(append([]string{group}, args...), ":")
}

func parseCustomID(id string) (string, []string) {
	group, rest, found := strings.Cut(id, ":")
	if !found || rest == "" {
		return group, nil
	}
	return group, strings.Split(rest, ":")
}
