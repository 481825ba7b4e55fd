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
	"github.com/susu3304/giftbot/internal/notify"
)

const giftUsage = "用法：`!打赏 数量/礼物名 @对方` 例如：`!打赏 3/玫瑰 @Alice`（数量 1-10000）"

// HandleGift runs "!打赏 qty/gift @user" and announces the gift once it is committed.
func HandleGift(s Messenger, m *discordgo.Message, engine Ledger, notifier notify.Notifier, audit InteractionLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logInteraction(ctx, audit, m.Author.ID, GiftPrefix, m.Content)

	cmd, ok := ParseGift(m.Content, m.Mentions)
	if !ok {
		reply(s, m, giftUsage)
		return
	}

	res, err := engine.GiftTransfer(ctx, ledger.GiftRequest{
		GiverID:    m.Author.ID,
		ReceiverID: cmd.ReceiverID,
		GiftName:   cmd.GiftName,
		Quantity:   cmd.Quantity,
	})
	if err != nil {
		reply(s, m, giftErrorMessage(err))
		return
	}

	reply(s, m, GiftReceipt(res))
	notify.Deliver(ctx, notifier, notify.NoticeFromResult(res))
}

func giftErrorMessage(err error) string {
	var notFound *ledger.GiftNotFoundError
	switch {
	case errors.As(err, &notFound):
		hint := "（没有相近名称）"
		if len(notFound.Suggestions) > 0 {
			hint = "可选：" + strings.Join(notFound.Suggestions, ", ")
		}
		return fmt.Sprintf("礼物不存在：%s。%s", notFound.Name, hint)
	case errors.Is(err, ledger.ErrSelfGift):
		return "不能给自己打赏哦。"
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		return "金额必须大于 0。"
	case errors.Is(err, ledger.ErrAmountTooLarge):
		return "打赏失败：金额过大。"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "打赏失败：余额不足，无法打赏。"
	default:
		log.Printf("gift: transfer failed: %v", err)
		return fmt.Sprintf("打赏失败：%v", err)
	}
}

// GiftReceipt formats the reply shown to the giver after a successful gift.
func GiftReceipt(res *ledger.GiftResult) string {
	return strings.Join([]string{
		fmt.Sprintf("🎁 打赏成功！（交易号：%d）", res.TransactionID),
		fmt.Sprintf("礼物：%s × %d", res.GiftName, res.Quantity),
		fmt.Sprintf("单价：%s", res.UnitPrice),
		fmt.Sprintf("总额（GROSS）：%s", res.Gross),
		fmt.Sprintf("收款方分成比例（commissionRate）：%s", res.ReceiverRate),
		fmt.Sprintf("平台抽取（FEE）：%s", res.Fee),
		fmt.Sprintf("到账（NET）：%s", res.Net),
	}, "\n")
}
