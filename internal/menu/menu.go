// Package menu implements the interactive conversation as a stateless
// token-dispatch machine. The current screen is reconstructed from the
// selection itself, never from stored session state, so stale buttons from
// old messages degrade to no-op toasts instead of corrupting anything. The
// single exception is the pending free-text admin action, which keeps one
// overwritable slot per recipient.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vpasslabs/signalbot/core/logger"
	"github.com/vpasslabs/signalbot/internal/acl"
	"github.com/vpasslabs/signalbot/internal/ephemeral"
	"github.com/vpasslabs/signalbot/internal/relay"
	"github.com/vpasslabs/signalbot/internal/store"
	"github.com/vpasslabs/signalbot/internal/topic"
)

const (
	unknownSelectionToast = "Unsupported action"
	unauthorizedToast     = "⛔ Unauthorized"
	storeFailureText      = "⚠️ Could not save your subscription. Please try again."
	aclFailureText        = "⚠️ Could not save the allow-list. Please try again."
)

// Selection identifies who pressed what. Payload is the token's argument
// (an instrument slug for subscription tokens).
type Selection struct {
	Recipient int64
	Username  string
	Payload   string
}

// HandlerFunc handles one selection token.
type HandlerFunc func(ctx context.Context, sel Selection) (Reply, error)

// Options wires the Menu's collaborators.
type Options struct {
	Store   store.Store
	ACL     acl.List
	Tracker *ephemeral.Tracker
	Deleter ephemeral.Deleter
	Catalog *topic.Catalog
	AdminID int64
}

// Menu is the interactive state machine over screens.
type Menu struct {
	store    store.Store
	acl      acl.List
	tracker  *ephemeral.Tracker
	deleter  ephemeral.Deleter
	catalog  *topic.Catalog
	adminID  int64
	pending  *pendingActions
	handlers map[string]HandlerFunc
}

// New builds the Menu and resolves its dispatch table once.
func New(opts Options) *Menu {
	m := &Menu{
		store:   opts.Store,
		acl:     opts.ACL,
		tracker: opts.Tracker,
		deleter: opts.Deleter,
		catalog: opts.Catalog,
		adminID: opts.AdminID,
		pending: newPendingActions(),
	}
	m.handlers = map[string]HandlerFunc{
		TokenMainMenu:   m.handleMainMenu,
		TokenAITrade:    toastHandler("AI Trade feature coming soon!"),
		TokenDeepseek:   toastHandler("Deepseek feature coming soon!"),
		TokenChatGPT:    toastHandler("ChatGPT feature coming soon!"),
		TokenAISignal:   m.handleSignalMenu,
		TokenInstrument: m.handleInstrument,
		TokenSubscribe:  m.handleSubscribe,
		TokenUnsub:      m.handleUnsubscribe,
		TokenAdmin:      m.adminOnly(m.handleAdminPanel),
		TokenAdminAdd:   m.adminOnly(m.promptHandler(ActionAddUser, "Send the username to add:")),
		TokenAdminDel:   m.adminOnly(m.promptHandler(ActionRemoveUser, "Send the username to remove:")),
		TokenAdminList:  m.adminOnly(m.handleAdminList),
		TokenAdminCheck: m.adminOnly(m.promptHandler(ActionCheckUser, "Send the username to check:")),
		TokenReset:      m.handleReset,
	}
	return m
}

// Handle dispatches a selection token through the static table. Unknown
// tokens are acknowledged as a no-op toast, tolerating stale buttons.
func (m *Menu) Handle(ctx context.Context, token string, sel Selection) (Reply, error) {
	// Any selection cancels a pending free-text action; the admin prompts
	// set a fresh one after this.
	m.pending.clear(sel.Recipient)

	h, ok := m.handlers[token]
	if !ok {
		logger.Debug(ctx, "menu", "menu.unknown_token",
			slog.String("token", logger.SanitizeLimit(token, 64)),
			slog.Int64("recipient", sel.Recipient),
		)
		return Reply{Toast: unknownSelectionToast}, nil
	}
	return h(ctx, sel)
}

// Welcome renders the first-contact screen. Used by the /start command.
func (m *Menu) Welcome(ctx context.Context, sel Selection) Reply {
	m.pending.clear(sel.Recipient)
	return welcomeScreen()
}

// AwaitingText reports whether the next plain-text message from the
// recipient is the argument of a pending admin action.
func (m *Menu) AwaitingText(recipient int64) bool {
	return m.pending.active(recipient)
}

// HandleText consumes the pending admin action with the message text as its
// username argument. The second return value reports whether a pending
// action existed at all.
func (m *Menu) HandleText(ctx context.Context, sel Selection, text string) (Reply, bool) {
	kind := m.pending.consume(sel.Recipient)
	if kind == ActionNone {
		return Reply{}, false
	}
	if !m.isAdmin(sel.Recipient) {
		// The prompt was admin-gated already; a non-admin here means the
		// admin id changed mid-conversation. No mutation either way.
		return Reply{Text: unauthorizedToast}, true
	}

	name := acl.NormalizeUsername(text)
	if name == "" {
		return Reply{Text: "That does not look like a username. Open the admin panel to try again."}, true
	}

	logger.Info(ctx, "menu", "menu.admin_action",
		slog.String("action", kind.String()),
		slog.String("username", name),
	)

	switch kind {
	case ActionAddUser:
		already, err := m.acl.Add(ctx, name)
		if err != nil {
			return Reply{Text: aclFailureText}, true
		}
		if already {
			return Reply{Text: fmt.Sprintf("ℹ️ @%s is already allowed.", name)}, true
		}
		return Reply{Text: fmt.Sprintf("✅ @%s can now use the bot.", name)}, true
	case ActionRemoveUser:
		removed, err := m.acl.Remove(ctx, name)
		if err != nil {
			return Reply{Text: aclFailureText}, true
		}
		if !removed {
			return Reply{Text: fmt.Sprintf("ℹ️ @%s was not on the allow-list.", name)}, true
		}
		return Reply{Text: fmt.Sprintf("✅ @%s removed from the allow-list.", name)}, true
	case ActionCheckUser:
		if m.acl.Contains(ctx, name) {
			return Reply{Text: fmt.Sprintf("✅ @%s is allowed.", name)}, true
		}
		return Reply{Text: fmt.Sprintf("❌ @%s is not allowed.", name)}, true
	}
	return Reply{}, true
}

// Reset retracts every tracked ephemeral message for the recipient.
// Shared by the reset button and the /reset command.
func (m *Menu) Reset(ctx context.Context, recipient int64) Reply {
	m.pending.clear(recipient)
	res := m.tracker.RetractAll(ctx, recipient, m.deleter)
	return Reply{Toast: fmt.Sprintf("🗑 Cleared %d messages", res.Retracted)}
}

func (m *Menu) isAdmin(recipient int64) bool {
	return m.adminID != 0 && recipient == m.adminID
}

// adminOnly rejects non-admin recipients before the wrapped handler or any
// ACL component is invoked.
func (m *Menu) adminOnly(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, sel Selection) (Reply, error) {
		if !m.isAdmin(sel.Recipient) {
			logger.Warn(ctx, "menu", "menu.unauthorized",
				slog.Int64("recipient", sel.Recipient),
				slog.String("username", sel.Username),
			)
			return Reply{Toast: unauthorizedToast}, relay.ErrUnauthorized
		}
		return next(ctx, sel)
	}
}

func toastHandler(text string) HandlerFunc {
	return func(context.Context, Selection) (Reply, error) {
		return Reply{Toast: text}, nil
	}
}

func (m *Menu) handleMainMenu(ctx context.Context, sel Selection) (Reply, error) {
	return mainMenuScreen(), nil
}

func (m *Menu) handleSignalMenu(ctx context.Context, sel Selection) (Reply, error) {
	return signalMenuScreen(m.catalog), nil
}

func (m *Menu) handleInstrument(ctx context.Context, sel Selection) (Reply, error) {
	t := topic.Normalize(sel.Payload)
	if !m.catalog.Contains(t) {
		return Reply{Toast: unknownSelectionToast}, nil
	}
	subscribed, err := m.isSubscribed(ctx, sel.Recipient, t)
	if err != nil {
		return Reply{Toast: unknownSelectionToast}, err
	}
	return instrumentScreen(m.catalog, t, subscribed), nil
}

func (m *Menu) handleSubscribe(ctx context.Context, sel Selection) (Reply, error) {
	t := topic.Normalize(sel.Payload)
	if !m.catalog.Contains(t) {
		return Reply{Toast: unknownSelectionToast}, nil
	}
	title := m.catalog.Title(t)

	if err := m.store.Subscribe(ctx, sel.Recipient, t); err != nil {
		// Acknowledge anyway, but never show the success text over a
		// failed persistence write.
		if errors.Is(err, relay.ErrPersistence) {
			return Reply{Toast: "Subscription failed", Text: storeFailureText, Ephemeral: true}, err
		}
		return Reply{Toast: unknownSelectionToast}, err
	}

	return Reply{
		Toast:     fmt.Sprintf("Subscribed to %s Signals!", title),
		Text:      fmt.Sprintf("✅ You have subscribed to %s Signals. You will receive updates when a new signal is detected.", title),
		Ephemeral: true,
	}, nil
}

func (m *Menu) handleUnsubscribe(ctx context.Context, sel Selection) (Reply, error) {
	t := topic.Normalize(sel.Payload)
	title := m.catalog.Title(t)

	removed, err := m.store.Unsubscribe(ctx, sel.Recipient, t)
	if err != nil {
		if errors.Is(err, relay.ErrPersistence) {
			return Reply{Toast: "Unsubscribe failed", Text: storeFailureText, Ephemeral: true}, err
		}
		return Reply{Toast: unknownSelectionToast}, err
	}
	if !removed {
		return Reply{Toast: "You are not subscribed!"}, nil
	}

	return Reply{
		Toast:     fmt.Sprintf("Unsubscribed from %s Signals!", title),
		Text:      fmt.Sprintf("🚫 You have unsubscribed from %s Signals. You will no longer receive updates.", title),
		Ephemeral: true,
	}, nil
}

func (m *Menu) handleAdminPanel(ctx context.Context, sel Selection) (Reply, error) {
	return adminPanelScreen(), nil
}

func (m *Menu) handleAdminList(ctx context.Context, sel Selection) (Reply, error) {
	users, err := m.acl.Usernames(ctx)
	if err != nil {
		return Reply{Toast: "Could not load the allow-list"}, err
	}
	return userListScreen(users), nil
}

func (m *Menu) promptHandler(kind ActionKind, prompt string) HandlerFunc {
	return func(ctx context.Context, sel Selection) (Reply, error) {
		m.pending.set(sel.Recipient, kind)
		return promptScreen(prompt), nil
	}
}

func (m *Menu) handleReset(ctx context.Context, sel Selection) (Reply, error) {
	return m.Reset(ctx, sel.Recipient), nil
}

func (m *Menu) isSubscribed(ctx context.Context, recipient int64, t topic.Topic) (bool, error) {
	topics, err := m.store.Topics(ctx, recipient)
	if err != nil {
		return false, err
	}
	for _, have := range topics {
		if have == t {
			return true, nil
		}
	}
	return false, nil
}
