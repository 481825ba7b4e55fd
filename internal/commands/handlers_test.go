package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/susu3304/giftbot/internal/catalog"
	"github.com/susu3304/giftbot/internal/clicks"
	"github.com/susu3304/giftbot/internal/ledger"
	"github.com/susu3304/giftbot/internal/ledger/memory"
	"github.com/susu3304/giftbot/internal/notify"
	"github.com/susu3304/giftbot/internal/policy"
)

type fakeDiscord struct {
	replies   []string
	sent      []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	dms       map[string][]string
	dmErr     error
	chanType  discordgo.ChannelType
}

func (f *fakeDiscord) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: channelID, Type: f.chanType}, nil
}

func (f *fakeDiscord) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.replies = append(f.replies, content)
	return &discordgo.Message{}, nil
}

func (f *fakeDiscord) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "900", ChannelID: channelID, Embeds: data.Embeds}, nil
}

func (f *fakeDiscord) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

func (f *fakeDiscord) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeDiscord) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeDiscord) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDiscord) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.dms == nil {
		f.dms = make(map[string][]string)
	}
	f.dms[channelID] = append(f.dms[channelID], content)
	return &discordgo.Message{}, nil
}

func (f *fakeDiscord) lastReply(t *testing.T) string {
	t.Helper()
	if len(f.replies) == 0 {
		t.Fatal("no reply sent")
	}
	return f.replies[len(f.replies)-1]
}

type recordingNotifier struct{ notices []notify.GiftNotice }

func (r *recordingNotifier) NotifyGift(ctx context.Context, n notify.GiftNotice) error {
	r.notices = append(r.notices, n)
	return nil
}

func newLedger(t *testing.T) (*ledger.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	gifts := catalog.NewMemory(
		catalog.Gift{Name: "玫瑰", UnitPrice: decimal.NewFromInt(30), ImageURL: "https://example.com/rose.png"},
		catalog.Gift{Name: "Rose Gold", UnitPrice: decimal.NewFromInt(5)},
	)
	return ledger.NewEngine(store, gifts), store
}

func message(authorID, content string, mentions ...string) *discordgo.Message {
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Author:    &discordgo.User{ID: authorID, Username: "user" + authorID},
		Content:   content,
	}
	for _, id := range mentions {
		m.Mentions = append(m.Mentions, &discordgo.User{ID: id})
	}
	return m
}

func TestHandleCash(t *testing.T) {
	engine, store := newLedger(t)
	admins := policy.CashAdmins{UserIDs: []string{"1"}}

	tests := []struct {
		name    string
		msg     *discordgo.Message
		want    string
		balance string
	}{
		{"not allowed", message("2", "!cash +100 <@42>", "42"), "没有权限", ""},
		{"usage", message("1", "!cash 100 <@42>", "42"), "用法", ""},
		{"credit", message("1", "!cash +100 <@42>", "42"), "增加余额 **100**。当前余额：**100**", "100"},
		{"debit", message("1", "!cash -30.5 <@42>", "42"), "扣减余额 **30.5**。当前余额：**69.5**", "69.5"},
		{"overdraft", message("1", "!cash -1000 <@42>", "42"), "余额不足或用户不存在", "69.5"},
		{"too large", message("1", "!cash +1000000000000000 <@42>", "42"), "金额过大", "69.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDiscord{}
			HandleCash(fake, tt.msg, engine, admins, nil)
			if got := fake.lastReply(t); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want substring %q", got, tt.want)
			}
			if tt.balance == "" {
				return
			}
			acc, err := store.GetAccount(context.Background(), "42")
			if err != nil {
				t.Fatal(err)
			}
			if !acc.Balance.Equal(decimal.RequireFromString(tt.balance)) {
				t.Errorf("balance = %s, want %s", acc.Balance, tt.balance)
			}
		})
	}
}

func TestHandleGiftSuccess(t *testing.T) {
	engine, store := newLedger(t)
	ctx := context.Background()
	if _, err := engine.AdminAdjust(ctx, "111", ledger.Credit, decimal.NewFromInt(200)); err != nil {
		t.Fatal(err)
	}

	fake := &fakeDiscord{}
	notifier := &recordingNotifier{}
	HandleGift(fake, message("111", "!打赏 3/玫瑰 <@222>", "222"), engine, notifier, nil)

	got := fake.lastReply(t)
	for _, want := range []string{"交易号：1", "玫瑰 × 3", "单价：30", "总额（GROSS）：90", "（commissionRate）：0.75", "平台抽取（FEE）：22.5", "到账（NET）：67.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("reply missing %q:\n%s", want, got)
		}
	}

	if len(notifier.notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notifier.notices))
	}
	n := notifier.notices[0]
	if n.GiverID != "111" || n.ReceiverID != "222" || !n.TotalAmount.Equal(decimal.NewFromInt(90)) {
		t.Errorf("notice = %+v", n)
	}

	receiver, err := store.GetAccount(ctx, "222")
	if err != nil {
		t.Fatal(err)
	}
	if !receiver.Balance.Equal(decimal.RequireFromString("67.5")) {
		t.Errorf("receiver balance = %s, want 67.5", receiver.Balance)
	}
}

func TestHandleGiftFailures(t *testing.T) {
	engine, _ := newLedger(t)
	if _, err := engine.AdminAdjust(context.Background(), "111", ledger.Credit, decimal.NewFromInt(10)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		msg  *discordgo.Message
		want string
	}{
		{"usage", message("111", "!打赏 玫瑰 <@222>", "222"), "用法"},
		{"quantity over cap", message("111", "!打赏 10001/玫瑰 <@222>", "222"), "用法"},
		{"self gift", message("111", "!打赏 1/玫瑰 <@111>", "111"), "不能给自己打赏哦。"},
		{"unknown gift with hint", message("111", "!打赏 1/rose <@222>", "222"), "礼物不存在：rose。可选：Rose Gold"},
		{"unknown gift without hint", message("111", "!打赏 1/百合 <@222>", "222"), "礼物不存在：百合。（没有相近名称）"},
		{"insufficient", message("111", "!打赏 1/玫瑰 <@222>", "222"), "余额不足"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDiscord{}
			notifier := &recordingNotifier{}
			HandleGift(fake, tt.msg, engine, notifier, nil)
			if got := fake.lastReply(t); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want substring %q", got, tt.want)
			}
			if len(notifier.notices) != 0 {
				t.Errorf("failed gift must not notify, got %d notices", len(notifier.notices))
			}
		})
	}
}

func TestGiftErrorMessageFallback(t *testing.T) {
	got := giftErrorMessage(errors.New("db down"))
	if got != "打赏失败：db down" {
		t.Errorf("giftErrorMessage() = %q", got)
	}
	if got := giftErrorMessage(ledger.ErrAmountTooLarge); got != "打赏失败：金额过大。" {
		t.Errorf("giftErrorMessage(ErrAmountTooLarge) = %q", got)
	}
}

func TestHandleMirror(t *testing.T) {
	tracker := clicks.NewTracker(time.Hour, 0)
	fake := &fakeDiscord{}
	msg := message("10", "<@&play> anyone?")
	msg.GuildID = "g1"
	msg.MentionRoles = []string{"play"}

	HandleMirror(fake, msg, []string{"play"}, tracker, "https://cdn/avatar.png")

	if len(fake.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(fake.sent))
	}
	embed := fake.sent[0].Embeds[0]
	if embed.Author.Name != "user10" || embed.Description != msg.Content || embed.Thumbnail == nil {
		t.Errorf("embed = %+v", embed)
	}
	if len(fake.edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(fake.edits))
	}
	if got := buttonOf(t, fake.edits[0].Components).CustomID; got != "claim:900" {
		t.Errorf("custom id = %q, want claim:900", got)
	}

	res, err := tracker.AddClick("900", "20")
	if err != nil {
		t.Fatalf("session not initialised: %v", err)
	}
	if res.OwnerID != "10" {
		t.Errorf("owner = %q, want 10", res.OwnerID)
	}
}

func TestHandleMirrorIgnores(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *discordgo.Message)
	}{
		{"no role mention", func(m *discordgo.Message) { m.MentionRoles = nil }},
		{"other role", func(m *discordgo.Message) { m.MentionRoles = []string{"other"} }},
		{"direct message", func(m *discordgo.Message) { m.GuildID = "" }},
		{"bot author", func(m *discordgo.Message) { m.Author.Bot = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := message("10", "hi")
			msg.GuildID = "g1"
			msg.MentionRoles = []string{"play"}
			tt.mutate(msg)

			fake := &fakeDiscord{}
			tracker := clicks.NewTracker(0, 0)
			HandleMirror(fake, msg, []string{"play"}, tracker, "")
			if len(fake.sent) != 0 || tracker.Len() != 0 {
				t.Errorf("expected no mirror, sent=%d sessions=%d", len(fake.sent), tracker.Len())
			}
		})
	}
}

func TestHandleMirrorSkipsNonTextChannels(t *testing.T) {
	for _, ct := range []discordgo.ChannelType{
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildNews,
	} {
		msg := message("10", "hi")
		msg.GuildID = "g1"
		msg.MentionRoles = []string{"play"}

		fake := &fakeDiscord{chanType: ct}
		tracker := clicks.NewTracker(0, 0)
		HandleMirror(fake, msg, []string{"play"}, tracker, "")
		if len(fake.sent) != 0 || tracker.Len() != 0 {
			t.Errorf("channel type %d mirrored: sent=%d sessions=%d", ct, len(fake.sent), tracker.Len())
		}
	}
}

func claimInteraction(customID, userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionMessageComponent,
		Data:   discordgo.MessageComponentInteractionData{CustomID: customID, ComponentType: discordgo.ButtonComponent},
		Member: &discordgo.Member{User: &discordgo.User{ID: userID, Username: "peiwan"}},
	}}
}

func buttonOf(t *testing.T, components []discordgo.MessageComponent) discordgo.Button {
	t.Helper()
	if len(components) != 1 {
		t.Fatalf("components = %d, want 1", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 1 {
		t.Fatalf("unexpected row %#v", components[0])
	}
	btn, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("unexpected component %#v", row.Components[0])
	}
	return btn
}

func TestHandleClaim(t *testing.T) {
	tracker := clicks.NewTracker(time.Hour, 0)
	tracker.Init("900", "10")
	fake := &fakeDiscord{}

	HandleClaim(fake, claimInteraction("claim:900", "20"), tracker)

	if len(fake.responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(fake.responses))
	}
	resp := fake.responses[0]
	if resp.Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("response type = %v, want update", resp.Type)
	}
	if got := buttonOf(t, resp.Data.Components).Label; got != "抢单(1)" {
		t.Errorf("label = %q, want 抢单(1)", got)
	}
	dms := fake.dms["dm-10"]
	if len(dms) != 1 || !strings.Contains(dms[0], "**peiwan**") || !strings.Contains(dms[0], "`20`") {
		t.Errorf("owner DMs = %q", dms)
	}

	HandleClaim(fake, claimInteraction("claim:900", "20"), tracker)
	if got := fake.responses[1].Type; got != discordgo.InteractionResponseDeferredMessageUpdate {
		t.Errorf("duplicate click response = %v, want deferred update", got)
	}
	if len(fake.dms["dm-10"]) != 1 {
		t.Error("duplicate click must not DM the owner again")
	}
}

func TestHandleClaimExpired(t *testing.T) {
	fake := &fakeDiscord{}
	HandleClaim(fake, claimInteraction("claim:404", "20"), clicks.NewTracker(0, 0))

	resp := fake.responses[0]
	if resp.Data.Flags != discordgo.MessageFlagsEphemeral || !strings.Contains(resp.Data.Content, "expired") {
		t.Errorf("response = %+v", resp.Data)
	}
}

func TestHandleClaimClosedDMs(t *testing.T) {
	tracker := clicks.NewTracker(0, 0)
	tracker.Init("900", "10")
	fake := &fakeDiscord{dmErr: errors.New("Cannot send messages to this user")}

	HandleClaim(fake, claimInteraction("claim:900", "20"), tracker)

	if len(fake.followups) != 1 || fake.followups[0].Flags != discordgo.MessageFlagsEphemeral {
		t.Errorf("followups = %+v", fake.followups)
	}
}

func TestParseClaimID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"claim:900", "900", true},
		{"claim:", "", false},
		{"play:900", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseClaimID(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseClaimID(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestUserTag(t *testing.T) {
	if got := UserTag(&discordgo.User{Username: "alice", Discriminator: "0"}); got != "alice" {
		t.Errorf("UserTag() = %q", got)
	}
	if got := UserTag(&discordgo.User{Username: "bob", Discriminator: "1234"}); got != "bob#1234" {
		t.Errorf("UserTag() = %q", got)
	}
}

func slashInteraction(name, userID string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionApplicationCommand,
		Data:   discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
	}}
}

func TestHandleBalance(t *testing.T) {
	engine, store := newLedger(t)
	if _, err := engine.AdminAdjust(context.Background(), "42", ledger.Credit, decimal.RequireFromString("12.5")); err != nil {
		t.Fatal(err)
	}

	fake := &fakeDiscord{}
	HandleBalance(fake, slashInteraction("balance", "42"), store)
	HandleBalance(fake, slashInteraction("balance", "43"), store)

	if got := fake.responses[0].Data.Content; !strings.Contains(got, "当前余额：**12.5**") {
		t.Errorf("balance reply = %q", got)
	}
	if got := fake.responses[1].Data.Content; !strings.Contains(got, "**0**") {
		t.Errorf("missing account reply = %q", got)
	}
}

func TestHandleGifts(t *testing.T) {
	gifts := catalog.NewMemory()
	for _, name := range []string{"玫瑰", "Rose Gold", "rosette"} {
		gifts.Add(catalog.Gift{Name: name, UnitPrice: decimal.NewFromInt(5)})
	}

	fake := &fakeDiscord{}
	HandleGifts(fake, slashInteraction("gifts", "1", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "query",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "rose",
	}), gifts, "")

	got := fake.responses[0].Data.Content
	if got != "Rose Gold：5\nrosette：5" {
		t.Errorf("gifts reply = %q", got)
	}
}
