package bot

import (
	"log"
	"runtime/debug"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/commands"
)

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)

	// Register commands for all guilds
	for _, guild := range event.Guilds {
		if err := b.registerGuildCommands(s, guild.ID); err != nil {
			log.Printf("Failed to register commands for guild %s: %v", guild.ID, err)
		}
	}
}

func (b *Bot) onGuildCreate(s *discordgo.Session, event *discordgo.GuildCreate) {
	log.Printf("Guild available/joined: %s (id=%s), ensuring commands", event.Name, event.ID)
	if err := b.registerGuildCommands(s, event.ID); err != nil {
		log.Printf("Failed to register commands for guild %s: %v", event.ID, err)
	}
}

func (b *Bot) registerGuildCommands(s *discordgo.Session, guildID string) error {
	cmds := commands.GetCommands()
	// Delete existing commands and register new ones
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, cmds)
	if err != nil {
		return err
	}

	log.Printf("Registered application commands for guild %s", guildID)
	return nil
}

// messageSession is what a guild message can trigger: command replies and mirroring.
type messageSession interface {
	commands.Messenger
	commands.MirrorSession
}

// cachedSession answers channel lookups from the gateway cache before REST.
type cachedSession struct {
	*discordgo.Session
}

func (s cachedSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return s.Session.Channel(channelID, options...)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer recoverMessage(s, m.Message)

	b.dispatchMessage(cachedSession{s}, m.Message, botAvatarURL(s))
}

// dispatchMessage runs the text commands and the role mirror as separate
// listeners, so a command that pings a watched role is mirrored too.
func (b *Bot) dispatchMessage(s messageSession, m *discordgo.Message, avatarURL string) {
	// Ignore bot messages
	if m.Author == nil || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	switch {
	case commands.IsCash(content):
		commands.HandleCash(s, m, b.engine, b.admins, b.store)
	case commands.IsGift(content):
		commands.HandleGift(s, m, b.engine, b.notifier, b.store)
	}
	commands.HandleMirror(s, m, b.cfg.MirrorRoleIDs, b.tracker, avatarURL)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer recoverInteraction(s, i)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleApplicationCommand(s, i)
	case discordgo.InteractionMessageComponent:
		if strings.HasPrefix(i.MessageComponentData().CustomID, commands.ClaimPrefix) {
			commands.HandleClaim(s, i, b.tracker)
		}
	}
}

func (b *Bot) handleApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	switch data.Name {
	case "balance":
		commands.HandleBalance(s, i, b.store)
	case "gifts":
		commands.HandleGifts(s, i, b.store, b.cfg.WebUIBaseURL)
	}
}

func botAvatarURL(s *discordgo.Session) string {
	if s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.AvatarURL("")
}

const failureReply = "❌ 处理失败，请稍后再试。"

// recoverMessage must be deferred directly. It logs a panic raised while
// handling m and tells the author the command failed.
func recoverMessage(s commands.Messenger, m *discordgo.Message) {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("panic while handling message %s: %v\n%s", m.ID, r, debug.Stack())
	if _, err := s.ChannelMessageSendReply(m.ChannelID, failureReply, m.Reference()); err != nil {
		log.Printf("failed to send failure reply for message %s: %v", m.ID, err)
	}
}

// recoverInteraction must be deferred directly. It logs a panic raised while
// handling i and answers it with an ephemeral failure notice.
func recoverInteraction(s commands.Responder, i *discordgo.InteractionCreate) {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("panic while handling interaction %s: %v\n%s", i.ID, r, debug.Stack())
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: failureReply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("failed to send failure response for interaction %s: %v", i.ID, err)
	}
}
