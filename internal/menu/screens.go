package menu

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/vpasslabs/signalbot/core/telegram/keyboard"
	"github.com/vpasslabs/signalbot/internal/topic"
)

// Screen texts. Rendering is idempotent: the same screen over the same
// backing state produces byte-identical output, which is what makes the
// stateless Back transitions safe.

const welcomeText = `Welcome to VPASS Pro – Your AI-Powered Trading Companion

At VPASS Pro, we redefine trading excellence through cutting-edge AI technology. Our mission is to empower you with precise, real-time trading signals and actionable insights, enabling you to make informed decisions in dynamic markets.

Whether you're navigating volatile trends or optimizing your portfolio, VPASS Pro is your trusted partner for smarter, data-driven trading.

Explore the future of trading today. Let’s elevate your strategy together.`

const (
	mainMenuText   = "Access Your Exclusive Trading Tools:"
	signalMenuText = "AI Signal Options:"
	adminPanelText = "🛠 Admin Panel\n\nManage who is allowed to use this bot."
)

// Reply is the rendered outcome of one handled selection.
type Reply struct {
	// Toast is the callback acknowledgement; empty means a silent ack.
	Toast string
	// Text, when set, is a message body to render.
	Text   string
	Markup *tele.ReplyMarkup
	// Edit renders the screen in place of the originating message.
	Edit bool
	// Ephemeral marks the sent message for later bulk retraction.
	Ephemeral bool
}

func welcomeScreen() Reply {
	return Reply{
		Text: welcomeText,
		Markup: keyboard.Inline(
			keyboard.InlineBtn{Text: "🚀 Try VPASS Pro Now", Unique: TokenMainMenu},
		),
	}
}

func mainMenuScreen() Reply {
	return Reply{
		Text: mainMenuText,
		Markup: keyboard.InlineRows(
			[]keyboard.InlineBtn{
				{Text: "📈 AI Trade", Unique: TokenAITrade},
				{Text: "📊 AI Signal", Unique: TokenAISignal},
			},
			[]keyboard.InlineBtn{
				{Text: "🔍 Deepseek", Unique: TokenDeepseek},
				{Text: "🤖 ChatGPT", Unique: TokenChatGPT},
			},
		),
		Edit: true,
	}
}

func signalMenuScreen(catalog *topic.Catalog) Reply {
	entries := catalog.Entries()
	btns := make([]keyboard.InlineBtn, 0, len(entries))
	for _, e := range entries {
		btns = append(btns, keyboard.InlineBtn{Text: e.Title, Unique: TokenInstrument, Data: e.Slug.String()})
	}
	// Instruments pair up two per row, matching the main menu grid.
	markup := keyboard.InlineNPerRow(btns, 2)
	back := keyboard.Inline(keyboard.InlineBtn{Text: "🔙 Back", Unique: TokenMainMenu})
	markup.InlineKeyboard = append(markup.InlineKeyboard, back.InlineKeyboard...)
	return Reply{
		Text:   signalMenuText,
		Markup: markup,
		Edit:   true,
	}
}

func instrumentScreen(catalog *topic.Catalog, t topic.Topic, subscribed bool) Reply {
	title := catalog.Title(t)
	status := "You are not subscribed yet."
	if subscribed {
		status = "You are subscribed."
	}
	return Reply{
		Text: fmt.Sprintf("%s Signals\n\n%s", title, status),
		Markup: keyboard.InlineRows(
			[]keyboard.InlineBtn{
				{Text: fmt.Sprintf("📩 Get %s Signal", title), Unique: TokenSubscribe, Data: t.String()},
			},
			[]keyboard.InlineBtn{
				{Text: "🚫 Unsubscribe Signal", Unique: TokenUnsub, Data: t.String()},
			},
			[]keyboard.InlineBtn{
				{Text: "🔙 Back", Unique: TokenAISignal},
			},
		),
		Edit: true,
	}
}

func adminPanelScreen() Reply {
	return Reply{
		Text: adminPanelText,
		Markup: keyboard.InlineRows(
			[]keyboard.InlineBtn{
				{Text: "➕ Add user", Unique: TokenAdminAdd},
				{Text: "➖ Remove user", Unique: TokenAdminDel},
			},
			[]keyboard.InlineBtn{
				{Text: "📋 List users", Unique: TokenAdminList},
				{Text: "🔎 Check user", Unique: TokenAdminCheck},
			},
			[]keyboard.InlineBtn{
				{Text: "🔙 Back", Unique: TokenMainMenu},
			},
		),
		Edit: true,
	}
}

func userListScreen(users []string) Reply {
	text := "📋 Allowed users:\n\nnobody yet"
	if len(users) > 0 {
		b := strings.Builder{}
		b.WriteString("📋 Allowed users:\n")
		for _, u := range users {
			b.WriteString("\n• @")
			b.WriteString(u)
		}
		text = b.String()
	}
	return Reply{
		Text: text,
		Markup: keyboard.Inline(
			keyboard.InlineBtn{Text: "🔙 Back", Unique: TokenAdmin},
		),
		Edit: true,
	}
}

func promptScreen(prompt string) Reply {
	return Reply{
		Text: prompt,
		Markup: keyboard.Inline(
			keyboard.InlineBtn{Text: "🔙 Back", Unique: TokenAdmin},
		),
		Edit: true,
	}
}

// AlertMarkup is the mini-menu attached to every fan-out delivery. The
// tokens carry the topic so a press is handled statelessly.
func AlertMarkup(t topic.Topic) *tele.ReplyMarkup {
	return keyboard.InlineRows([]keyboard.InlineBtn{
		{Text: "🚫 Unsubscribe", Unique: TokenUnsub, Data: t.String()},
		{Text: "🗑 Reset", Unique: TokenReset},
	})
}
