package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"alerta-steam/internal/steam"
)

const (
	colorSale   = 16711680 // vermelho
	colorTarget = 32768    // verde
)

// Discord envia alertas para um webhook do Discord
type Discord struct {
	webhookURL string
	botName    string
	botAvatar  string
	client     *http.Client
}

// NewDiscord cria o notificador do webhook
func NewDiscord(webhookURL, botName, botAvatar string, timeout time.Duration) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		botName:    botName,
		botAvatar:  botAvatar,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	Color       int           `json:"color"`
	Image       *discordImage `json:"image,omitempty"`
}

type discordImage struct {
	URL string `json:"url"`
}

type discordPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []discordEmbed `json:"embeds"`
}

// Name identifica o canal nos logs
func (d *Discord) Name() string { return "discord" }

// Send publica um embed com o nome, preço, desconto e a imagem do jogo
func (d *Discord) Send(ctx context.Context, alert Alert) error {
	color := colorTarget
	if alert.Reading.DiscountPercent > 0 {
		color = colorSale
	}

	embed := discordEmbed{
		Title:       alert.GameName(),
		Description: alert.Headline(),
		URL:         steam.AppURL(alert.Item.ID),
		Color:       color,
	}
	if alert.Reading.ImageURL != "" {
		embed.Image = &discordImage{URL: alert.Reading.ImageURL}
	}

	body, err := json.Marshal(discordPayload{
		Username:  d.botName,
		AvatarURL: d.botAvatar,
		Embeds:    []discordEmbed{embed},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status code: %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
