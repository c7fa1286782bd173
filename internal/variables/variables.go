// Package variables resolves the {user.*}, {guild.*} and {channel.*}
// placeholders that can appear in authored embed text.
package variables

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const none = "None"

// Subject is what placeholders are resolved against. User and Guild are set
// for every guild-scoped feature; Channel only when the trigger happened in a
// channel (commands), never for membership events.
type Subject struct {
	User    *discordgo.User
	Member  *discordgo.Member
	Guild   *discordgo.Guild
	Channel *discordgo.Channel
}

// ForMember builds the subject used by membership events.
func ForMember(member *discordgo.Member, guild *discordgo.Guild) Subject {
	subject := Subject{Member: member, Guild: guild}
	if member != nil {
		subject.User = member.User
	}
	return subject
}

var (
	UserTokens = []string{
		"{user.name}", "{user.id}", "{user.mention}", "{user.avatar}",
		"{user.created_at}", "{user.created_at_timestamp}", "{user.bot}",
		"{user.system}", "{user.public_flags}", "{user.accent_color}",
		"{user.banner}", "{user.display_name}", "{user.global_name}",
	}
	GuildTokens = []string{
		"{guild.name}", "{guild.id}", "{guild.member_count}", "{guild.icon}",
		"{guild.banner}", "{guild.description}", "{guild.owner}", "{guild.owner_id}",
		"{guild.created_at}", "{guild.created_at_timestamp}", "{guild.boost_count}",
		"{guild.boost_tier}", "{guild.role_count}", "{guild.channel_count}",
		"{guild.emoji_count}",
	}
	ChannelTokens = []string{
		"{channel.name}", "{channel.id}", "{channel.mention}", "{channel.created_at}",
		"{channel.created_at_timestamp}", "{channel.position}", "{channel.type}",
		"{channel.category}", "{channel.category_id}", "{channel.topic}",
		"{channel.nsfw}", "{channel.slowmode_delay}", "{channel.bitrate}",
		"{channel.user_limit}",
	}
)

// Resolve returns the value of every token for the entities present in the
// subject. Tokens of absent entities are omitted.
func Resolve(subject Subject) map[string]string {
	values := make(map[string]string, len(UserTokens)+len(GuildTokens)+len(ChannelTokens))
	if subject.User != nil {
		userValues(values, subject.User, subject.Member)
	}
	if subject.Guild != nil {
		guildValues(values, subject.Guild)
	}
	if subject.Channel != nil {
		channelValues(values, subject.Channel, subject.Guild)
	}
	return values
}

func userValues(values map[string]string, user *discordgo.User, member *discordgo.Member) {
	created, createdTS := creation(user.ID)
	values["{user.name}"] = orNone(user.Username)
	values["{user.id}"] = user.ID
	values["{user.mention}"] = "<@" + user.ID + ">"
	values["{user.avatar}"] = user.AvatarURL("")
	values["{user.created_at}"] = created
	values["{user.created_at_timestamp}"] = createdTS
	values["{user.bot}"] = yesNo(user.Bot)
	values["{user.system}"] = yesNo(user.System)
	values["{user.public_flags}"] = publicFlags(int(user.PublicFlags))
	values["{user.accent_color}"] = none
	if user.AccentColor != 0 {
		values["{user.accent_color}"] = fmt.Sprintf("#%06x", user.AccentColor)
	}
	values["{user.banner}"] = none
	if user.Banner != "" {
		values["{user.banner}"] = user.BannerURL("")
	}
	values["{user.display_name}"] = orNone(displayName(user, member))
	values["{user.global_name}"] = orNone(user.GlobalName)
}

func guildValues(values map[string]string, guild *discordgo.Guild) {
	created, createdTS := creation(guild.ID)
	memberCount := guild.MemberCount
	if memberCount == 0 {
		memberCount = len(guild.Members)
	}
	values["{guild.name}"] = orNone(guild.Name)
	values["{guild.id}"] = guild.ID
	values["{guild.member_count}"] = strconv.Itoa(memberCount)
	values["{guild.icon}"] = none
	if guild.Icon != "" {
		values["{guild.icon}"] = guild.IconURL("")
	}
	values["{guild.banner}"] = none
	if guild.Banner != "" {
		values["{guild.banner}"] = guild.BannerURL("")
	}
	values["{guild.description}"] = orNone(guild.Description)
	values["{guild.owner}"] = none
	if guild.OwnerID != "" {
		values["{guild.owner}"] = "<@" + guild.OwnerID + ">"
	}
	values["{guild.owner_id}"] = orNone(guild.OwnerID)
	values["{guild.created_at}"] = created
	values["{guild.created_at_timestamp}"] = createdTS
	values["{guild.boost_count}"] = strconv.Itoa(guild.PremiumSubscriptionCount)
	values["{guild.boost_tier}"] = strconv.Itoa(int(guild.PremiumTier))
	values["{guild.role_count}"] = strconv.Itoa(len(guild.Roles))
	values["{guild.channel_count}"] = strconv.Itoa(len(guild.Channels))
	values["{guild.emoji_count}"] = strconv.Itoa(len(guild.Emojis))
}

func channelValues(values map[string]string, channel *discordgo.Channel, guild *discordgo.Guild) {
	created, createdTS := creation(channel.ID)
	values["{channel.name}"] = orNone(channel.Name)
	values["{channel.id}"] = channel.ID
	values["{channel.mention}"] = "<#" + channel.ID + ">"
	values["{channel.created_at}"] = created
	values["{channel.created_at_timestamp}"] = createdTS
	values["{channel.position}"] = strconv.Itoa(channel.Position)
	values["{channel.type}"] = channelTypeName(channel.Type)
	values["{channel.category}"] = categoryName(channel.ParentID, guild)
	values["{channel.category_id}"] = orNone(channel.ParentID)
	values["{channel.topic}"] = orNone(channel.Topic)
	values["{channel.nsfw}"] = yesNo(channel.NSFW)
	values["{channel.slowmode_delay}"] = none
	values["{channel.bitrate}"] = none
	values["{channel.user_limit}"] = none
	if channel.Type != discordgo.ChannelTypeGuildCategory {
		values["{channel.slowmode_delay}"] = strconv.Itoa(channel.RateLimitPerUser)
	}
	if channel.Type == discordgo.ChannelTypeGuildVoice || channel.Type == discordgo.ChannelTypeGuildStageVoice {
		values["{channel.bitrate}"] = strconv.Itoa(channel.Bitrate)
		values["{channel.user_limit}"] = strconv.Itoa(channel.UserLimit)
	}
}

func creation(id string) (string, string) {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil || id == "" {
		return none, none
	}
	return FormatTime(ts), strconv.FormatInt(ts.Unix(), 10)
}

func displayName(user *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

func categoryName(parentID string, guild *discordgo.Guild) string {
	if parentID == "" || guild == nil {
		return none
	}
	for _, channel := range guild.Channels {
		if channel != nil && channel.ID == parentID {
			return orNone(channel.Name)
		}
	}
	return none
}

var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "text",
	discordgo.ChannelTypeDM:                 "private",
	discordgo.ChannelTypeGuildVoice:         "voice",
	discordgo.ChannelTypeGroupDM:            "group",
	discordgo.ChannelTypeGuildCategory:      "category",
	discordgo.ChannelTypeGuildNews:          "news",
	discordgo.ChannelTypeGuildNewsThread:    "news_thread",
	discordgo.ChannelTypeGuildPublicThread:  "public_thread",
	discordgo.ChannelTypeGuildPrivateThread: "private_thread",
	discordgo.ChannelTypeGuildStageVoice:    "stage_voice",
	discordgo.ChannelTypeGuildForum:         "forum",
}

func channelTypeName(kind discordgo.ChannelType) string {
	if name, ok := channelTypeNames[kind]; ok {
		return name
	}
	return "unknown"
}

// Bit positions follow the Discord public user flags.
var userFlagNames = []struct {
	bit  int
	name string
}{
	{1 << 0, "staff"},
	{1 << 1, "partner"},
	{1 << 2, "hypesquad"},
	{1 << 3, "bug_hunter"},
	{1 << 6, "hypesquad_bravery"},
	{1 << 7, "hypesquad_brilliance"},
	{1 << 8, "hypesquad_balance"},
	{1 << 9, "early_supporter"},
	{1 << 10, "team_user"},
	{1 << 12, "system"},
	{1 << 14, "bug_hunter_level_2"},
	{1 << 16, "verified_bot"},
	{1 << 17, "verified_bot_developer"},
	{1 << 18, "discord_certified_moderator"},
	{1 << 19, "bot_http_interactions"},
	{1 << 22, "active_developer"},
}

func publicFlags(flags int) string {
	var names []string
	for _, flag := range userFlagNames {
		if flags&flag.bit != 0 {
			names = append(names, flag.name)
		}
	}
	if len(names) == 0 {
		return none
	}
	return strings.Join(names, ", ")
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return none
	}
	return value
}

// FormatTime renders t the way {*.created_at} tokens do.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}
