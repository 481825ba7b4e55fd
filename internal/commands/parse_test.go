package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/ledger"
)

var alice = []*discordgo.User{{ID: "42"}}

func TestParseCash(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions []*discordgo.User
		wantOK   bool
		wantSign ledger.Sign
		wantAmt  string
	}{
		{"credit", "!cash +100 <@42>", alice, true, ledger.Credit, "100"},
		{"debit with nick mention", "!cash -50 <@!42>", alice, true, ledger.Debit, "50"},
		{"mention first", "!CASH <@42> +123.45", alice, true, ledger.Credit, "123.45"},
		{"space after sign", "!cash + 1.2345 <@42>", alice, true, ledger.Credit, "1.2345"},
		{"too many decimals", "!cash +1.23456 <@42>", alice, false, "", ""},
		{"no sign", "!cash 100 <@42>", alice, false, "", ""},
		{"zero", "!cash +0 <@42>", alice, false, "", ""},
		{"zero with decimals", "!cash -0.0000 <@42>", alice, false, "", ""},
		{"no mention", "!cash +100", nil, false, "", ""},
		{"junk", "!cash +100abc <@42>", alice, false, "", ""},
		{"other command", "!cashout +100 <@42>", alice, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := ParseCash(tt.content, tt.mentions)
			if ok != tt.wantOK {
				t.Fatalf("ParseCash() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cmd.Sign != tt.wantSign {
				t.Errorf("sign = %q, want %q", cmd.Sign, tt.wantSign)
			}
			if !cmd.Amount.Equal(decimal.RequireFromString(tt.wantAmt)) {
				t.Errorf("amount = %s, want %s", cmd.Amount, tt.wantAmt)
			}
			if cmd.TargetID != "42" {
				t.Errorf("target = %q", cmd.TargetID)
			}
		})
	}
}

func TestParseGift(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		mentions []*discordgo.User
		wantOK   bool
		wantQty  int64
		wantName string
	}{
		{"basic", "!打赏 3/玫瑰 <@42>", alice, true, 3, "玫瑰"},
		{"spaces", "!打赏  2 / 小蛋糕  <@42>", alice, true, 2, "小蛋糕"},
		{"slash in name", "!打赏 1/A/B <@42>", alice, true, 1, "A/B"},
		{"nick mention", "!打赏 1/rose <@!42>", alice, true, 1, "rose"},
		{"zero quantity", "!打赏 0/玫瑰 <@42>", alice, false, 0, ""},
		{"negative quantity", "!打赏 -1/玫瑰 <@42>", alice, false, 0, ""},
		{"max quantity", "!打赏 10000/玫瑰 <@42>", alice, true, 10000, "玫瑰"},
		{"quantity over cap", "!打赏 10001/玫瑰 <@42>", alice, false, 0, ""},
		{"quantity beyond int64", "!打赏 99999999999999999999/玫瑰 <@42>", alice, false, 0, ""},
		{"fraction", "!打赏 1.5/玫瑰 <@42>", alice, false, 0, ""},
		{"missing name", "!打赏 3/ <@42>", alice, false, 0, ""},
		{"no slash", "!打赏 3 <@42>", alice, false, 0, ""},
		{"no mention", "!打赏 3/玫瑰", nil, false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := ParseGift(tt.content, tt.mentions)
			if ok != tt.wantOK {
				t.Fatalf("ParseGift() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cmd.Quantity != tt.wantQty || cmd.GiftName != tt.wantName || cmd.ReceiverID != "42" {
				t.Errorf("ParseGift() = %+v, want qty=%d name=%q", cmd, tt.wantQty, tt.wantName)
			}
		})
	}
}
