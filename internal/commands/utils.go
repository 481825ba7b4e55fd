package commands

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/catalog"
	"github.com/susu3304/giftbot/internal/clicks"
	"github.com/susu3304/giftbot/internal/ledger"
)

// Messenger is the part of *discordgo.Session the text commands reply through.
type Messenger interface {
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Ledger interface {
	AdminAdjust(ctx context.Context, targetID string, sign ledger.Sign, amount decimal.Decimal) (*ledger.AdjustResult, error)
	GiftTransfer(ctx context.Context, req ledger.GiftRequest) (*ledger.GiftResult, error)
}

type InteractionLogger interface {
	LogInteraction(ctx context.Context, memberID, command string, payload any) (uuid.UUID, error)
}

// ClickStore tracks claim button presses per mirrored message.
type ClickStore interface {
	Init(sessionID, ownerID string)
	AddClick(sessionID, userID string) (clicks.ClickResult, error)
}

type AccountReader interface {
	GetAccount(ctx context.Context, id string) (*ledger.Account, error)
}

type GiftLister interface {
	ListGifts(ctx context.Context, pattern string, limit int) ([]catalog.Gift, error)
}

func reply(s Messenger, m *discordgo.Message, content string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference()); err != nil {
		log.Printf("Failed to reply in channel %s: %v", m.ChannelID, err)
	}
}

func logInteraction(ctx context.Context, audit InteractionLogger, memberID, command, content string) {
	if audit == nil {
		return
	}
	if _, err := audit.LogInteraction(ctx, memberID, command, map[string]string{"content": content}); err != nil {
		log.Printf("Failed to log %s interaction for %s: %v", command, memberID, err)
	}
}

// Responder answers interactions; *discordgo.Session satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

func respond(s Responder, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Failed to respond to interaction: %v", err)
	}
}

func respondEphemeral(s Responder, i *discordgo.InteractionCreate, content string) {
	respond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// interactionUser returns the invoking user for both guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
