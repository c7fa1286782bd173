package variables

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 175928847299117063 is the snowflake used in Discord's API documentation.
const docSnowflake = "175928847299117063"

func testSubject() Subject {
	category := &discordgo.Channel{ID: "300", Name: "Lobby", Type: discordgo.ChannelTypeGuildCategory}
	text := &discordgo.Channel{
		ID:               docSnowflake,
		Name:             "general",
		Type:             discordgo.ChannelTypeGuildText,
		ParentID:         "300",
		Position:         2,
		RateLimitPerUser: 5,
	}
	user := &discordgo.User{ID: "42", Username: "ana", GlobalName: "Ana", PublicFlags: discordgo.UserFlags(1<<0 | 1<<22)}
	guild := &discordgo.Guild{
		ID:          docSnowflake,
		Name:        "Guild",
		MemberCount: 128,
		OwnerID:     "7",
		Channels:    []*discordgo.Channel{category, text},
		Roles:       []*discordgo.Role{{ID: "1"}, {ID: "2"}},
	}
	return Subject{User: user, Member: &discordgo.Member{User: user, Nick: "annie"}, Guild: guild, Channel: text}
}

func TestResolveCoversRegistry(t *testing.T) {
	values := Resolve(testSubject())
	for _, tokens := range [][]string{UserTokens, GuildTokens, ChannelTokens} {
		for _, token := range tokens {
			_, ok := values[token]
			assert.True(t, ok, "missing %s", token)
		}
	}
	assert.Len(t, values, len(UserTokens)+len(GuildTokens)+len(ChannelTokens))
}

func TestResolveValues(t *testing.T) {
	values := Resolve(testSubject())

	assert.Equal(t, "<@42>", values["{user.mention}"])
	assert.Equal(t, "annie", values["{user.display_name}"])
	assert.Equal(t, "Ana", values["{user.global_name}"])
	assert.Equal(t, "No", values["{user.bot}"])
	assert.Equal(t, "staff, active_developer", values["{user.public_flags}"])
	assert.Equal(t, "None", values["{user.banner}"])
	assert.Equal(t, "None", values["{user.accent_color}"])

	assert.Equal(t, "128", values["{guild.member_count}"])
	assert.Equal(t, "<@7>", values["{guild.owner}"])
	assert.Equal(t, "None", values["{guild.icon}"])
	assert.Equal(t, "None", values["{guild.description}"])
	assert.Equal(t, "2", values["{guild.role_count}"])
	assert.Equal(t, "1462015105", values["{guild.created_at_timestamp}"])
	assert.Equal(t, "<t:1462015105:f>", values["{guild.created_at}"])

	assert.Equal(t, "<#"+docSnowflake+">", values["{channel.mention}"])
	assert.Equal(t, "text", values["{channel.type}"])
	assert.Equal(t, "Lobby", values["{channel.category}"])
	assert.Equal(t, "300", values["{channel.category_id}"])
	assert.Equal(t, "5", values["{channel.slowmode_delay}"])
	assert.Equal(t, "None", values["{channel.bitrate}"])
	assert.Equal(t, "None", values["{channel.topic}"])
}

func TestResolveOmitsAbsentEntities(t *testing.T) {
	subject := testSubject()
	subject.Channel = nil

	values := Resolve(subject)
	_, ok := values["{channel.name}"]
	assert.False(t, ok)

	out := Expand("{user.name} joined {guild.name} in {channel.name}", subject)
	assert.Equal(t, "ana joined Guild in {channel.name}", out)
}

func TestDisplayNameFallback(t *testing.T) {
	user := &discordgo.User{ID: "1", Username: "plain"}
	values := Resolve(Subject{User: user})
	assert.Equal(t, "plain", values["{user.display_name}"])
	assert.Equal(t, "None", values["{user.global_name}"])
}

func TestResolveBareDescriptors(t *testing.T) {
	values := Resolve(Subject{User: &discordgo.User{ID: "1"}, Guild: &discordgo.Guild{ID: "2"}})
	assert.Equal(t, "None", values["{user.name}"])
	assert.Equal(t, "None", values["{user.display_name}"])
	assert.Equal(t, "None", values["{guild.name}"])
	assert.Equal(t, "2", values["{guild.id}"])
}

func TestVoiceChannel(t *testing.T) {
	voice := &discordgo.Channel{ID: "9", Name: "talk", Type: discordgo.ChannelTypeGuildVoice, Bitrate: 64000, UserLimit: 10}
	values := Resolve(Subject{Channel: voice})
	assert.Equal(t, "voice", values["{channel.type}"])
	assert.Equal(t, "64000", values["{channel.bitrate}"])
	assert.Equal(t, "10", values["{channel.user_limit}"])
	assert.Equal(t, "None", values["{channel.category}"])
}

func TestExpandUnknownTokensUntouched(t *testing.T) {
	out := Expand("{user.name} {user.unknown} {nope}", testSubject())
	assert.Equal(t, "ana {user.unknown} {nope}", out)
}

func TestExpandIsSinglePass(t *testing.T) {
	subject := testSubject()
	subject.User.Username = "{user.id}"
	subject.Member = nil
	subject.User.GlobalName = ""

	out := Expand("{user.name}", subject)
	require.Equal(t, "{user.id}", out)
}

func TestExpandIdempotentWithoutTokens(t *testing.T) {
	subject := testSubject()
	once := Expand("Welcome {user.mention} to {guild.name}!", subject)
	assert.Equal(t, once, Expand(once, subject))
}
