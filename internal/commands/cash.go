package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/susu3304/giftbot/internal/ledger"
	"github.com/susu3304/giftbot/internal/policy"
)

const cashUsage = "用法：`!cash +金额 @用户` 或 `!cash -金额 @用户`，例如：`!cash +100 @Alice`"

// HandleCash runs "!cash ±amount @user" for cash admins.
func HandleCash(s Messenger, m *discordgo.Message, engine Ledger, admins policy.CashAdmins, audit InteractionLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if !admins.Allows(m) {
		reply(s, m, "❌ 你没有权限使用该命令。")
		return
	}

	logInteraction(ctx, audit, m.Author.ID, CashPrefix, m.Content)

	cmd, ok := ParseCash(m.Content, m.Mentions)
	if !ok {
		reply(s, m, cashUsage)
		return
	}

	res, err := engine.AdminAdjust(ctx, cmd.TargetID, cmd.Sign, cmd.Amount)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		reply(s, m, "❌ 扣减失败。原因：余额不足或用户不存在。")
	case errors.Is(err, ledger.ErrAmountTooLarge):
		reply(s, m, "❌ 金额过大。")
	case err != nil:
		log.Printf("cash: adjust %s %s%s failed: %v", cmd.TargetID, cmd.Sign, cmd.Amount, err)
		reply(s, m, fmt.Sprintf("❌ 操作失败：%v", err))
	case res.Sign == ledger.Credit:
		reply(s, m, fmt.Sprintf("✅ 已为 <@%s> 增加余额 **%s**。当前余额：**%s**", res.AccountID, res.Amount, res.Balance))
	default:
		reply(s, m, fmt.Sprintf("✅ 已为 <@%s> 扣减余额 **%s**。当前余额：**%s**", res.AccountID, res.Amount, res.Balance))
	}
}
