package commands

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/ledger"
)

const (
	CashPrefix = "!cash"
	GiftPrefix = "!打赏"

	// MaxGiftQuantity bounds one !打赏 command.
	MaxGiftQuantity = 10000
)

var cashAmount = regexp.MustCompile(`^([+-])\s*([0-9]+(?:\.[0-9]{1,4})?)$`)

type CashCommand struct {
	Sign     ledger.Sign
	Amount   decimal.Decimal
	TargetID string
}

type GiftCommand struct {
	Quantity   int64
	GiftName   string
	ReceiverID string
}

// IsCash reports whether content starts with !cash in any case.
func IsCash(content string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(content)), CashPrefix)
}

func IsGift(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), GiftPrefix)
}

// ParseCash parses "!cash +123.45 @user" or "!cash -50 @user". The first
// mentioned user is the target.
func ParseCash(content string, mentions []*discordgo.User) (*CashCommand, bool) {
	content = strings.TrimSpace(content)
	if !IsCash(content) || len(mentions) == 0 {
		return nil, false
	}
	target := mentions[0]

	rest := strings.TrimSpace(content[len(CashPrefix):])
	rest = mentionPattern(target.ID).ReplaceAllString(rest, "")
	rest = strings.TrimSpace(rest)

	m := cashAmount.FindStringSubmatch(rest)
	if m == nil {
		return nil, false
	}
	amount, err := decimal.NewFromString(m[2])
	if err != nil || !amount.IsPositive() {
		return nil, false
	}
	return &CashCommand{Sign: ledger.Sign(m[1]), Amount: amount, TargetID: target.ID}, true
}

// ParseGift parses "!打赏 3/玫瑰 @user". Everything after the first slash is
// the gift name, so names may contain slashes.
func ParseGift(content string, mentions []*discordgo.User) (*GiftCommand, bool) {
	content = strings.TrimSpace(content)
	if !IsGift(content) || len(mentions) == 0 {
		return nil, false
	}
	receiver := mentions[0]

	rest := strings.TrimSpace(strings.TrimPrefix(content, GiftPrefix))
	head := rest
	if loc := lastMatch(mentionPattern(receiver.ID), rest); loc != nil {
		head = strings.TrimSpace(rest[:loc[0]])
	}

	var parts []string
	for _, p := range strings.Split(head, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return nil, false
	}

	qty, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || qty <= 0 || qty > MaxGiftQuantity {
		return nil, false
	}
	return &GiftCommand{Quantity: qty, GiftName: strings.Join(parts[1:], "/"), ReceiverID: receiver.ID}, true
}

func mentionPattern(userID string) *regexp.Regexp {
	return regexp.MustCompile(`<@!?` + regexp.QuoteMeta(userID) + `>`)
}

func lastMatch(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
