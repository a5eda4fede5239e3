package menu

// Selection tokens. Every inline button carries one of these as its unique
// key; handlers are resolved by direct table lookup, never fuzzy matching.
const (
	TokenMainMenu   = "main_menu"
	TokenAITrade    = "ai_trade"
	TokenAISignal   = "ai_signal"
	TokenDeepseek   = "deepseek"
	TokenChatGPT    = "chatgpt"
	TokenInstrument = "instrument"
	TokenSubscribe  = "sub"
	TokenUnsub      = "unsub"
	TokenAdmin      = "admin"
	TokenAdminAdd   = "admin_add"
	TokenAdminDel   = "admin_del"
	TokenAdminList  = "admin_list"
	TokenAdminCheck = "admin_check"
	TokenReset      = "reset"
)

// ActionKind names a pending admin free-text action: the next plain-text
// message from that recipient is interpreted as the username argument.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionAddUser
	ActionRemoveUser
	ActionCheckUser
)

func (a ActionKind) String() string {
	switch a {
	case ActionAddUser:
		return "add_user"
	case ActionRemoveUser:
		return "remove_user"
	case ActionCheckUser:
		return "check_user"
	default:
		return "none"
	}
}
