package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/clicks"
	"github.com/susu3304/giftbot/internal/commands"
	"github.com/susu3304/giftbot/internal/config"
	"github.com/susu3304/giftbot/internal/notify"
	"github.com/susu3304/giftbot/internal/policy"
)

// Store is the read and audit side of the database the bot talks to.
type Store interface {
	commands.AccountReader
	commands.GiftLister
	commands.InteractionLogger
}

type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	engine   commands.Ledger
	store    Store
	tracker  *clicks.Tracker
	notifier notify.Notifier
	admins   policy.CashAdmins
	sweeper  *clickSweeper
}

// New creates the Discord session and wires handlers. extra notifiers are
// called after the gift feed channel for every completed gift.
func New(cfg *config.Config, engine commands.Ledger, store Store, tracker *clicks.Tracker, extra ...notify.Notifier) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	var notifiers notify.Multi
	if cfg.GiftFeedChannelID != "" {
		notifiers = append(notifiers, notify.NewDiscordFeed(session, cfg.GiftFeedChannelID))
	}
	notifiers = append(notifiers, extra...)

	bot := &Bot{
		session:  session,
		cfg:      cfg,
		engine:   engine,
		store:    store,
		tracker:  tracker,
		notifier: notifiers,
		admins:   policy.CashAdmins{UserIDs: cfg.CashAllowedUserIDs, RoleID: cfg.CashAllowedRoleID},
		sweeper:  newClickSweeper(tracker, sweepInterval(cfg.ClickSessionTTL)),
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onGuildCreate)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.sweeper.start()
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.sweeper.stop()
	return b.session.Close()
}
