// Package bot is the Telegram transport: it long-polls updates, applies the
// access rules, dispatches commands and free-text intake to the services and
// delivers replies and documents under a send rate limit.
package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/scooter-intake/internal/sysutil"
)

// Client is the subset of the Bot API used here. *tgbotapi.BotAPI
// satisfies it; tests substitute a fake.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ Client = (*tgbotapi.BotAPI)(nil)

// NewClient authenticates with token and routes the library's own logging
// through zerolog with secrets redacted.
func NewClient(token string) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(apiLogger{}); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %s", sysutil.RedactErr(err))
	}
	log.Info().Str("bot", api.Self.UserName).Msg("telegram client ready")
	return api, nil
}

// apiLogger adapts zerolog to tgbotapi.BotLogger.
type apiLogger struct{}

func (apiLogger) Println(v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msg(sysutil.RedactSecrets(fmt.Sprint(v...)))
}

func (apiLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msg(sysutil.RedactSecrets(fmt.Sprintf(format, v...)))
}
