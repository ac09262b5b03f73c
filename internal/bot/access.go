package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tbourn/scooter-intake/internal/config"
)

// Access applies the chat and admin rules.
type Access struct {
	cfg config.BotConfig
}

// NewAccess builds the access rules over cfg.
func NewAccess(cfg config.BotConfig) Access { return Access{cfg: cfg} }

// Admin reports whether the sender is an administrator, in any chat.
func (a Access) Admin(m *tgbotapi.Message) bool {
	return m != nil && m.From != nil && a.cfg.IsAdmin(m.From.ID)
}

// ChatAllowed reports whether intake works for m: private chats with an
// administrator, or a group/supergroup listed in ALLOWED_CHAT_IDS.
func (a Access) ChatAllowed(m *tgbotapi.Message) bool {
	if m == nil || m.Chat == nil {
		return false
	}
	switch {
	case m.Chat.IsPrivate():
		return a.Admin(m)
	case m.Chat.IsGroup(), m.Chat.IsSuperGroup():
		return a.cfg.IsAllowedChat(m.Chat.ID)
	}
	return false
}
