package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

var httpURL = regexp.MustCompile(`(?i)^https?://\S+$`)

// feedSession is the part of *discordgo.Session the gift feed needs.
type feedSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordFeed posts gift notices to a channel.
type DiscordFeed struct {
	session   feedSession
	channelID string
}

func NewDiscordFeed(session feedSession, channelID string) *DiscordFeed {
	return &DiscordFeed{session: session, channelID: channelID}
}

func (f *DiscordFeed) NotifyGift(ctx context.Context, n GiftNotice) error {
	if f.channelID == "" {
		return errors.New("gift feed channel is not configured")
	}
	return f.sendWithRetry(ctx, FeedMessage(n))
}

// FeedMessage renders the announcement. The image is attached only for
// http(s) URLs and never printed.
func FeedMessage(n GiftNotice) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Color: 0xfee9a8,
		Description: strings.Join([]string{
			fmt.Sprintf("**%s**", n.GiftName),
			fmt.Sprintf("数量：**%d**", n.Quantity),
			fmt.Sprintf("总金额：**%s**", n.TotalAmount.String()),
		}, "\n"),
	}
	if httpURL.MatchString(n.ImageURL) {
		embed.Image = &discordgo.MessageEmbedImage{URL: n.ImageURL}
	}
	return &discordgo.MessageSend{
		Content: fmt.Sprintf("laoban <@%s> gifted peiwan <@%s> \"%s\", thank you so much!", n.GiverID, n.ReceiverID, n.GiftName),
		Embeds:  []*discordgo.MessageEmbed{embed},
	}
}

func (f *DiscordFeed) sendWithRetry(ctx context.Context, msg *discordgo.MessageSend) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := f.session.ChannelMessageSendComplex(f.channelID, msg, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
