package notifier

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"alerta-steam/internal/steam"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram envia alertas para um chat do Telegram
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram conecta ao Telegram; apiEndpoint vazio usa a API oficial
func NewTelegram(token string, chatID int64, apiEndpoint string, timeout time.Duration) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID não configurado")
	}
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, fmt.Errorf("token do Telegram inválido ou expirado. Verifique o TELEGRAM_BOT_TOKEN")
		}
		return nil, fmt.Errorf("erro ao conectar com Telegram: %w", err)
	}
	bot.Debug = false

	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Name identifica o canal nos logs
func (t *Telegram) Name() string { return "telegram" }

// Username retorna o usuário do bot autorizado
func (t *Telegram) Username() string { return t.bot.Self.UserName }

// Send envia a mensagem em HTML; o timeout vem do cliente HTTP
func (t *Telegram) Send(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := fmt.Sprintf(
		"🎉 <b>%s</b>\n\n%s\n\n%s",
		html.EscapeString(alert.GameName()),
		html.EscapeString(alert.Headline()),
		steam.AppURL(alert.Item.ID),
	)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("erro ao enviar mensagem: %w", err)
	}
	return nil
}
