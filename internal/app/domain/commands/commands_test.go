package commands

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"redditslacker/internal/app/domain/shadowban"
	"redditslacker/internal/app/infrastructure/config"
	"redditslacker/internal/app/ports"
	"testing"
)

func slash(command, text string) ports.SlashCommand {
	return ports.SlashCommand{
		Command:     command,
		Text:        text,
		UserName:    "boss",
		UserID:      "U1",
		TeamDomain:  "eli5",
		ChannelName: "mods",
		ResponseURL: "https://hooks.slack.test/cmd",
	}
}

func button(callback, value, user string) ports.ButtonAction {
	return ports.ButtonAction{
		CallbackID:  callback,
		Value:       value,
		UserName:    user,
		ResponseURL: "https://hooks.slack.test/act",
		OriginalMessage: ports.NewMessage("", ports.Attachment{
			Title:     "Why is the sky blue?",
			TitleLink: "https://www.reddit.com/r/eli5/comments/x/_/abc",
			Text:      "because",
			Fields:    []ports.Field{{Title: "Author", Value: "Bob", Short: true}},
			Buttons:   []ports.Button{{Name: "approve", Text: "Approve", Value: "approve_abc"}},
		}),
	}
}

func fieldValue(t *testing.T, att ports.Attachment, title string) string {
	t.Helper()
	for _, f := range att.Fields {
		if f.Title == title {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", title)
	return ""
}

func buttonTexts(att ports.Attachment) []string {
	var out []string
	for _, b := range att.Buttons {
		out = append(out, b.Text)
	}
	return out
}

func TestUserCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})
	require.NoError(t, h.store.SetStatus(ctx, "bob", ports.StatusTrack))
	_, err := h.store.RecordModAction(ctx, "bob", "removecomment")
	require.NoError(t, err)

	reply := h.svc.HandleCommand(ctx, slash("/user", "bob"))
	assert.Equal(t, processing.Text, reply.Text)

	msg := h.responder.last(t)
	assert.Equal(t, "https://hooks.slack.test/cmd", h.responder.urls[0])
	require.Len(t, msg.Attachments, 2)

	card := msg.Attachments[0]
	assert.Equal(t, "Summary for /u/Bob", card.Title)
	assert.Equal(t, "user_Bob", card.CallbackID)
	assert.Equal(t, "100", fieldValue(t, card, "Combined karma"))
	assert.Equal(t, "2015-03-01 12:00:00", fieldValue(t, card, "Redditor since"))
	assert.Equal(t, "1", fieldValue(t, card, "Removed comments"))
	assert.Equal(t, "Yes", fieldValue(t, card, "Tracked"))
	assert.Equal(t, "No", fieldValue(t, card, "Permamuted"))
	assert.Equal(t, "Spams links", fieldValue(t, card, "Latest usernote"))
	assert.Equal(t, []string{"Permamute", "Untrack", "Shadowban", "Ban"}, buttonTexts(card))
	require.NotNil(t, card.Buttons[0].Confirm)

	sum := msg.Attachments[1]
	assert.Equal(t, "https://i.example.com/Bob_summary.png", sum.ImageURL)
	assert.Equal(t, "2", fieldValue(t, sum, "Total comments read"))
	assert.NotEmpty(t, fieldValue(t, sum, "Troll likelihood"))
	assert.Equal(t, []int{500}, h.reddit.limits)
}

func TestUserCommand_Quick(t *testing.T) {
	t.Parallel()

	h := newHarness(t, inlinePool{})
	require.NoError(t, h.settings.Update(func(c *config.Config) { c.Shadowban.Enabled = false }))

	h.svc.HandleCommand(context.Background(), slash("/user", "BOB quick"))

	msg := h.responder.last(t)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, []string{"Permamute", "Track", "Ban"}, buttonTexts(msg.Attachments[0]))
	assert.Empty(t, h.reddit.limits)
}

func TestUserCommand_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	h := newHarness(t, inlinePool{})
	assert.Equal(t, userUsage, h.svc.HandleCommand(ctx, slash("/user", "  ")))

	h.svc.HandleCommand(ctx, slash("/user", "ghost"))
	msg := h.responder.last(t)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "Error: user not found.", msg.Attachments[0].Title)
	assert.Equal(t, ports.ColorDanger, msg.Attachments[0].Color)

	full := newHarness(t, inlinePool{full: true})
	assert.Equal(t, busy, full.svc.HandleCommand(ctx, slash("/user", "bob")))
}

func TestSummaryCommandAndAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	prompt := h.svc.HandleCommand(ctx, slash("/summary", "bob"))
	assert.Equal(t, "How many comments to load?", prompt.Text)
	require.Len(t, prompt.Attachments, 1)
	assert.Equal(t, "summary_bob", prompt.Attachments[0].CallbackID)
	assert.Equal(t, []string{"500", "1000"}, buttonTexts(prompt.Attachments[0]))

	reply := h.svc.HandleAction(ctx, button("summary_bob", "1000", "mod"))
	assert.True(t, reply.ReplaceOriginal)

	msg := h.responder.last(t)
	assert.True(t, msg.ReplaceOriginal)
	assert.Len(t, msg.Attachments, 2)
	assert.Equal(t, []int{1000}, h.reddit.limits)

	bad := h.svc.HandleAction(ctx, button("summary_bob", "lots", "mod"))
	assert.Equal(t, ports.ColorDanger, bad.Attachments[0].Color)

	assert.Equal(t, sumUsage, h.svc.HandleCommand(ctx, slash("/summary", "")))
}

func TestConfigCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	tests := []struct {
		text  string
		color string
	}{
		{"comment_warning_threshold 7", ports.ColorGood},
		{"nonsense 1", ports.ColorDanger},
		{"dry_run maybe", ports.ColorDanger},
	}

	for _, tt := range tests {
		got := h.svc.HandleCommand(ctx, slash("/rsconfig", tt.text))
		require.Len(t, got.Attachments, 1, tt.text)
		assert.Equal(t, tt.color, got.Attachments[0].Color, tt.text)
	}

	assert.Equal(t, 7, h.settings.Get().Thresholds.Comments.Warning)
	assert.Equal(t, configNF, h.svc.HandleCommand(ctx, slash("/rsconfig", "nonsense 1")))

	usage := h.svc.HandleCommand(ctx, slash("/rsconfig", "dry_run"))
	assert.Contains(t, usage.Text, "shadowbans_enabled")
}

func TestPingAndUnknown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	assert.Contains(t, h.svc.HandleCommand(ctx, slash("/rsping", "")).Text, "Bot running for")

	unknown := h.svc.HandleCommand(ctx, slash("/nope", ""))
	assert.Contains(t, unknown.Text, "/rsconfig, /rsping, /summary, /user")
}

func TestStatusActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	tests := []struct {
		value string
		reply string
	}{
		{"track_Bob", "Tracking user."},
		{"permamute_Bob", "Updated user status."},
		{"untrack_Bob", "Ceasing to track user."},
	}
	for _, tt := range tests {
		got := h.svc.HandleAction(ctx, button("user_Bob", tt.value, "mod"))
		assert.Equal(t, tt.reply, got.Text)
		assert.False(t, got.ReplaceOriginal)
	}

	o, err := h.store.UserStatus(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, o.Permamuted)
	assert.False(t, o.Tracked)

	assert.Equal(t, unknownBtn, h.svc.HandleAction(ctx, button("user_Bob", "explode_Bob", "mod")))
}

func TestShadowbanAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	denied := h.svc.HandleAction(ctx, button("user_Bob", "shadowban_bob", "intern"))
	assert.Equal(t, forbidden, denied)
	assert.Empty(t, h.reddit.edits)

	reply := h.svc.HandleAction(ctx, button("user_Bob", "shadowban_bob", "Boss"))
	assert.Equal(t, processing, reply)

	msg := h.responder.last(t)
	assert.Equal(t, "User */u/Bob* has been shadowbanned.", msg.Text)
	assert.Contains(t, h.reddit.wiki, `["someone", "Bob"]`)
	require.Len(t, h.reddit.edits, 1)
	assert.Contains(t, h.reddit.edits[0], `"/u/Bob"`)
	assert.Equal(t, []string{"Bob|botban|Shadowbanned via RedditSlacker by Slack user 'Boss'"}, h.notes.added)

	o, err := h.store.UserStatus(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, o.Shadowbanned)

	h.svc.HandleAction(ctx, button("user_Bob", "unshadowban_bob", "boss"))
	assert.Equal(t, "User */u/Bob* has been unshadowbanned.", h.responder.last(t).Text)
	assert.Contains(t, h.reddit.wiki, `["someone"]`)
}

func TestShadowbanAction_DryRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})
	require.NoError(t, h.settings.Set("dry_run", "on"))
	before := h.reddit.wiki

	h.svc.HandleAction(ctx, button("user_Bob", "shadowban_bob", "boss"))

	assert.Equal(t, before, h.reddit.wiki)
	assert.Empty(t, h.notes.added)
	o, err := h.store.UserStatus(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, o.Shadowbanned)
}

func TestBanAction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	assert.Equal(t, forbidden, h.svc.HandleAction(ctx, button("user_Bob", "ban_bob", "intern")))

	h.svc.HandleAction(ctx, button("user_Bob", "ban_bob", "boss"))
	assert.Equal(t, "User */u/Bob* has been banned.", h.responder.last(t).Text)
	assert.Equal(t, []string{"Bob"}, h.reddit.banned)
	require.Len(t, h.notes.added, 1)
	assert.Contains(t, h.notes.added[0], "Bob|ban|")

	_, cached := h.users.Get("bob")
	assert.False(t, cached)
}

func TestShadowbanAction_ClearsCachedRedditor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	h.svc.HandleCommand(ctx, slash("/user", "bob"))
	_, cached := h.users.Get("bob")
	require.True(t, cached)

	h.svc.HandleAction(ctx, button("user_Bob", "shadowban_bob", "boss"))
	assert.Equal(t, "User */u/Bob* has been shadowbanned.", h.responder.last(t).Text)

	_, cached = h.users.Get("bob")
	assert.False(t, cached)
}

func TestShadowbanAction_NoListInBlock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})
	h.reddit.wiki = "# shadowbans\nauthor:\n    - \"someone\"\n#end shadowbans\n"

	h.svc.HandleAction(ctx, button("user_Bob", "shadowban_bob", "boss"))

	msg := h.responder.last(t)
	assert.Equal(t, "Failed to shadowban user.", msg.Text)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, shadowban.ErrNoList.Error(), msg.Attachments[0].Text)
	assert.Empty(t, h.reddit.edits)
	assert.Empty(t, h.notes.added)

	o, err := h.store.UserStatus(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, o.Shadowbanned)
}

func TestFeedActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})

	approved := h.svc.HandleAction(ctx, button("tlcfeed", "approve_abc", "mod"))
	require.Len(t, approved.Attachments, 1)
	assert.True(t, approved.ReplaceOriginal)
	assert.Equal(t, "Approved by @mod", approved.Attachments[0].Footer)
	assert.Empty(t, approved.Attachments[0].Buttons)
	assert.Equal(t, "Bob", approved.Attachments[0].Fields[0].Value)
	assert.Equal(t, []string{"t1_abc"}, h.reddit.approved)

	removed := h.svc.HandleAction(ctx, button("tlcfeed", "remove_abc", "mod"))
	assert.Equal(t, "Removed by @mod", removed.Attachments[0].Footer)

	req := h.svc.HandleAction(ctx, button("tlcfeed", "banreq_def", "mod"))
	assert.Equal(t, "Ban requested by @mod", req.Attachments[0].Footer)
	assert.Equal(t, []string{"t1_abc", "t1_def"}, h.reddit.removed)
	require.Len(t, h.poster.msgs, 1)
	assert.Equal(t, "#ban-requests", h.poster.channels[0])
	assert.Equal(t, "@mod has requested a ban. Comment:", h.poster.msgs[0].Text)
	assert.Equal(t, "banreq", h.poster.msgs[0].Attachments[0].CallbackID)
	assert.Equal(t, "verify", h.poster.msgs[0].Attachments[0].Buttons[0].Value)

	verified := h.svc.HandleAction(ctx, button("banreq", "verify", "lead"))
	assert.True(t, verified.ReplaceOriginal)
	assert.Equal(t, "Verified by @lead", verified.Attachments[0].Footer)
	assert.Equal(t, ports.ColorGood, verified.Attachments[0].Color)
}

func TestFeedActions_DryRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, inlinePool{})
	require.NoError(t, h.settings.Set("dry_run", "true"))

	h.svc.HandleAction(ctx, button("tlcfeed", "remove_abc", "mod"))
	assert.Empty(t, h.reddit.removed)
}
