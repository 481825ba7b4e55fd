package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/ledger"
)

const giftListLimit = 25

// HandleBalance answers /balance with the caller's own account.
func HandleBalance(s Responder, i *discordgo.InteractionCreate, accounts AccountReader) {
	user := interactionUser(i)
	if user == nil {
		respondEphemeral(s, i, "Invalid interaction.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	acc, err := accounts.GetAccount(ctx, user.ID)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		respondEphemeral(s, i, "你还没有账户，当前余额：**0**")
	case err != nil:
		log.Printf("balance: lookup %s failed: %v", user.ID, err)
		respondEphemeral(s, i, fmt.Sprintf("查询失败：%v", err))
	default:
		respondEphemeral(s, i, BalanceMessage(acc))
	}
}

func BalanceMessage(acc *ledger.Account) string {
	return strings.Join([]string{
		fmt.Sprintf("当前余额：**%s**", acc.Balance),
		fmt.Sprintf("累计打赏：**%s**", acc.TotalSpent),
		fmt.Sprintf("分成比例（commissionRate）：%s", acc.CommissionRate),
	}, "\n")
}

// HandleGifts answers /gifts [query] with matching catalog entries.
func HandleGifts(s Responder, i *discordgo.InteractionCreate, gifts GiftLister, webURL string) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = strings.TrimSpace(opt.StringValue())
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := gifts.ListGifts(ctx, query, giftListLimit+1)
	if err != nil {
		log.Printf("gifts: list %q failed: %v", query, err)
		respondEphemeral(s, i, fmt.Sprintf("查询失败：%v", err))
		return
	}
	if len(list) == 0 {
		respondEphemeral(s, i, "没有找到礼物。")
		return
	}

	var b strings.Builder
	for n, g := range list {
		if n == giftListLimit {
			b.WriteString("…")
			if webURL != "" {
				fmt.Fprintf(&b, "\n完整列表：%s/api/public/gifts", webURL)
			}
			break
		}
		fmt.Fprintf(&b, "%s：%s\n", g.Name, g.UnitPrice)
	}
	respond(s, i, &discordgo.InteractionResponseData{Content: strings.TrimRight(b.String(), "\n")})
}
