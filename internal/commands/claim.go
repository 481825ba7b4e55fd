package commands

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/clicks"
)

// ClaimSession is the part of *discordgo.Session used by the claim button.
type ClaimSession interface {
	Responder
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// HandleClaim records a claim button press and DMs the post owner on the
// first press by each user. Repeated presses are acknowledged silently.
func HandleClaim(s ClaimSession, i *discordgo.InteractionCreate, tracker ClickStore) {
	data := i.MessageComponentData()
	sessionID, ok := ParseClaimID(data.CustomID)
	user := interactionUser(i)
	if !ok || user == nil {
		respondEphemeral(s, i, "Invalid interaction.")
		return
	}

	res, err := tracker.AddClick(sessionID, user.ID)
	if errors.Is(err, clicks.ErrSessionNotFound) {
		respondEphemeral(s, i, "This session expired. Ask the author to repost.")
		return
	}
	if err != nil {
		log.Printf("claim: add click on %s failed: %v", sessionID, err)
		respondEphemeral(s, i, "Something went wrong, please try again.")
		return
	}

	if !res.Added {
		deferUpdate(s, i)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: []discordgo.MessageComponent{PlayRow(res.Count, sessionID)},
		},
	})
	if err != nil {
		log.Printf("claim: failed to update button on %s: %v", sessionID, err)
		deferUpdate(s, i)
	}

	if err := dmOwner(s, res.OwnerID, ClaimNotice(user)); err != nil {
		log.Printf("claim: failed to DM owner %s: %v", res.OwnerID, err)
		_, ferr := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
			Content: "Could not notify the author (their DMs may be closed).",
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if ferr != nil {
			log.Printf("claim: follow-up failed: %v", ferr)
		}
	}
}

func ClaimNotice(u *discordgo.User) string {
	return fmt.Sprintf("陪陪 **%s** 抢单了. (ID: `%s`)", UserTag(u), u.ID)
}

func dmOwner(s ClaimSession, ownerID, content string) error {
	ch, err := s.UserChannelCreate(ownerID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSend(ch.ID, content)
	return err
}

func deferUpdate(s ClaimSession, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("claim: deferred update failed: %v", err)
	}
}
