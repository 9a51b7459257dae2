package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"alerta-steam/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleAlert() Alert {
	return Alert{
		Item: models.TrackedItem{ID: "620", Name: "Portal 2"},
		Reading: models.PriceReading{
			ItemID:          "620",
			Name:            "Portal 2",
			CurrentPrice:    decimal.RequireFromString("1.99"),
			Currency:        "USD",
			DiscountPercent: 80,
			ImageURL:        "https://cdn.example/620/header.jpg",
		},
		Mode: models.ModeAnyDiscount,
	}
}

func TestAlertHeadline(t *testing.T) {
	a := saleAlert()
	assert.Equal(t, "Em promoção: 1.99 USD (80% off)", a.Headline())

	a.Reading.DiscountPercent = 0
	a.Reading.CurrentPrice = decimal.RequireFromString("15")
	a.Reading.Currency = ""
	assert.Equal(t, "Preço alvo atingido: 15.00 USD", a.Headline())
}

func TestAlertGameName(t *testing.T) {
	a := saleAlert()
	a.Item.Name = ""
	assert.Equal(t, "Portal 2", a.GameName())

	a.Reading.Name = ""
	assert.Equal(t, "App 620", a.GameName())
}

func TestDiscord_Send(t *testing.T) {
	var got discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDiscord(server.URL, "Steam Sales", "https://cdn.example/avatar.png", 5*time.Second)
	require.NoError(t, d.Send(context.Background(), saleAlert()))

	assert.Equal(t, "Steam Sales", got.Username)
	assert.Equal(t, "https://cdn.example/avatar.png", got.AvatarURL)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Portal 2", got.Embeds[0].Title)
	assert.Equal(t, "https://store.steampowered.com/app/620/", got.Embeds[0].URL)
	assert.Equal(t, colorSale, got.Embeds[0].Color)
	require.NotNil(t, got.Embeds[0].Image)
	assert.Equal(t, "https://cdn.example/620/header.jpg", got.Embeds[0].Image.URL)
}

func TestDiscord_PriceTargetIsGreen(t *testing.T) {
	var got discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer server.Close()

	a := saleAlert()
	a.Reading.DiscountPercent = 0
	a.Mode = models.ModePriceTarget

	d := NewDiscord(server.URL, "", "", 5*time.Second)
	require.NoError(t, d.Send(context.Background(), a))
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, colorTarget, got.Embeds[0].Color)
	assert.True(t, strings.HasPrefix(got.Embeds[0].Description, "Preço alvo atingido"))
}

func TestDiscord_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Invalid Webhook Token"}`))
	}))
	defer server.Close()

	d := NewDiscord(server.URL, "", "", 5*time.Second)
	err := d.Send(context.Background(), saleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

// fakeTelegram simula a Bot API em /bot<token>/<método>
func fakeTelegram(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var texts []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Alerta","username":"alerta_steam_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "42", r.PostForm.Get("chat_id"))
			assert.Equal(t, "HTML", r.PostForm.Get("parse_mode"))
			mu.Lock()
			texts = append(texts, r.PostForm.Get("text"))
			mu.Unlock()
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	return server, &texts
}

func TestTelegram_Send(t *testing.T) {
	server, texts := fakeTelegram(t)
	defer server.Close()

	tg, err := NewTelegram("123:abc", 42, server.URL+"/bot%s/%s", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "alerta_steam_bot", tg.Username())

	a := saleAlert()
	a.Item.Name = "Portal <2>"
	require.NoError(t, tg.Send(context.Background(), a))

	require.Len(t, *texts, 1)
	assert.Contains(t, (*texts)[0], "<b>Portal &lt;2&gt;</b>")
	assert.Contains(t, (*texts)[0], "80% off")
	assert.Contains(t, (*texts)[0], "https://store.steampowered.com/app/620/")
}

func TestTelegram_RequiresConfig(t *testing.T) {
	_, err := NewTelegram("", 42, "", time.Second)
	assert.Error(t, err)
	_, err = NewTelegram("123:abc", 0, "", time.Second)
	assert.Error(t, err)
}

type stubNotifier struct {
	name  string
	err   error
	calls int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(ctx context.Context, alert Alert) error {
	s.calls++
	return s.err
}

func TestMulti_SendsToAllAndJoinsErrors(t *testing.T) {
	failing := &stubNotifier{name: "discord", err: errors.New("webhook fora do ar")}
	ok := &stubNotifier{name: "telegram"}

	m := Multi{failing, ok}
	assert.Equal(t, "discord,telegram", m.Name())

	err := m.Send(context.Background(), saleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord: webhook fora do ar")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, Multi{ok}.Send(context.Background(), saleAlert()))
}
