package commands

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/policy"
)

const (
	ClaimPrefix      = "claim:"
	pendingSessionID = "pending"
)

// MirrorSession is the part of *discordgo.Session used to repost role pings.
type MirrorSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// PlayRow builds the claim button row for a mirrored message.
func PlayRow(count int, mirroredMessageID string) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: ClaimPrefix + mirroredMessageID,
				Style:    discordgo.SuccessButton,
				Label:    fmt.Sprintf("抢单(%d)", count),
			},
		},
	}
}

// ParseClaimID returns the mirrored message id from a claim button custom id.
func ParseClaimID(customID string) (string, bool) {
	if !strings.HasPrefix(customID, ClaimPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(customID, ClaimPrefix)
	return id, id != ""
}

func MirrorEmbed(authorTag, content, botAvatarURL string, now time.Time) *discordgo.MessageEmbed {
	if content == "" {
		content = "*<no content>*"
	}
	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: authorTag},
		Description: content,
		Timestamp:   now.Format(time.RFC3339),
	}
	if botAvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: botAvatarURL}
	}
	return embed
}

// HandleMirror reposts a guild text channel message that pings one of roleIDs as an embed
// with a claim button, and opens a click session owned by the author.
func HandleMirror(s MirrorSession, m *discordgo.Message, roleIDs []string, tracker ClickStore, botAvatarURL string) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !policy.MentionsAnyRole(m, roleIDs) {
		return
	}
	// Only plain text channels; threads and voice chats are skipped.
	ch, err := s.Channel(m.ChannelID)
	if err != nil {
		log.Printf("mirror: failed to look up channel %s: %v", m.ChannelID, err)
		return
	}
	if ch.Type != discordgo.ChannelTypeGuildText {
		return
	}

	embed := MirrorEmbed(UserTag(m.Author), m.Content, botAvatarURL, time.Now())
	sent, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{PlayRow(0, pendingSessionID)},
	})
	if err != nil {
		log.Printf("mirror: failed to post in channel %s: %v", m.ChannelID, err)
		return
	}

	tracker.Init(sent.ID, m.Author.ID)

	edit := discordgo.NewMessageEdit(sent.ChannelID, sent.ID)
	edit.Embeds = sent.Embeds
	edit.Components = []discordgo.MessageComponent{PlayRow(0, sent.ID)}
	if _, err := s.ChannelMessageEditComplex(edit); err != nil {
		log.Printf("mirror: failed to attach claim button to %s: %v", sent.ID, err)
	}
}

// UserTag renders a user the way Discord shows them, without the legacy "#0".
func UserTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
