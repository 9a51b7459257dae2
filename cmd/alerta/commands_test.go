package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv aponta banco, estado e loja Steam para diretórios e servidores de teste
func setupEnv(t *testing.T, storeURL, webhookURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "saved_games.db"))
	t.Setenv("STATE_FILE", filepath.Join(dir, "sale_reminder.json"))
	t.Setenv("STATE_BACKEND", "json")
	t.Setenv("STEAM_STORE_URL", storeURL)
	t.Setenv("DISCORD_WEBHOOK_URL", webhookURL)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("CHECK_INTERVAL_MINUTES", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func fakeSteam(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/appdetails":
			w.Write([]byte(`{"620":{"success":true,"data":{"name":"Portal 2","header_image":"https://cdn.example/620.jpg",
				"price_overview":{"currency":"USD","initial":999,"final":199,"discount_percent":80}}}}`))
		case strings.HasPrefix(r.URL.Path, "/app/620"):
			w.Write([]byte(`<html><body><div id="appHubAppName">Portal 2</div></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func runCmd(ctx context.Context, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Help(t *testing.T) {
	code, out, _ := runCmd(context.Background())
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Uso: alerta")
}

func TestRun_UnknownCommand(t *testing.T) {
	setupEnv(t, "", "")
	code, _, errOut := runCmd(context.Background(), "menu")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "comando desconhecido")
}

func TestRun_CatalogCommands(t *testing.T) {
	steamSrv := fakeSteam(t)
	setupEnv(t, steamSrv.URL, "")
	ctx := context.Background()

	code, out, errOut := runCmd(ctx, "add", "https://store.steampowered.com/app/620/Portal_2/")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Portal 2")

	code, _, _ = runCmd(ctx, "add", "1145360", "Hades")
	require.Equal(t, 0, code)

	code, _, errOut = runCmd(ctx, "add", "620")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "já está sendo monitorado")

	code, _, _ = runCmd(ctx, "threshold", "1145360", "15.00")
	require.Equal(t, 0, code)

	code, _, _ = runCmd(ctx, "threshold", "1145360", "-1")
	assert.Equal(t, 2, code)

	code, out, _ = runCmd(ctx, "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Portal 2")
	assert.Contains(t, out, "Hades")
	assert.Contains(t, out, "15.00")

	code, _, _ = runCmd(ctx, "remove", "1145360")
	require.Equal(t, 0, code)
	code, out, _ = runCmd(ctx, "list")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "Hades")

	code, _, _ = runCmd(ctx, "remove", "1145360")
	assert.Equal(t, 1, code)
}

func TestRun_Check(t *testing.T) {
	steamSrv := fakeSteam(t)
	setupEnv(t, steamSrv.URL, "")

	code, out, errOut := runCmd(context.Background(), "check", "620")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Preço atual: 1.99 USD")
	assert.Contains(t, out, "Desconto: 80%")
	assert.Contains(t, out, "Condição de promoção atingida!")
}

func TestRun_ScanWithoutGamesFails(t *testing.T) {
	setupEnv(t, "", "http://127.0.0.1:1/webhook")
	code, _, errOut := runCmd(context.Background(), "scan")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nenhum jogo configurado")
}

func TestRun_ScanInvalidMode(t *testing.T) {
	setupEnv(t, "", "http://127.0.0.1:1/webhook")
	code, _, _ := runCmd(context.Background(), "scan", "-games", "620", "-mode", "sale")
	assert.Equal(t, 2, code)
}

func TestRun_ScanWithoutNotifierFails(t *testing.T) {
	setupEnv(t, "", "")
	code, _, errOut := runCmd(context.Background(), "scan", "-games", "620")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "nenhum canal configurado")
}

func TestRun_ScanNotifiesAndExitsCleanlyOnInterrupt(t *testing.T) {
	steamSrv := fakeSteam(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		titles []string
	)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Embeds []struct {
				Title string `json:"title"`
			} `json:"embeds"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		for _, e := range payload.Embeds {
			titles = append(titles, e.Title)
		}
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		// Simula o Ctrl+C enquanto o jogo ainda está sendo processado
		cancel()
	}))
	defer webhook.Close()

	dir := setupEnv(t, steamSrv.URL, webhook.URL)

	code, out, errOut := runCmd(ctx, "scan", "-games", "620")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Varredura encerrada.")
	mu.Lock()
	assert.Equal(t, []string{"Portal 2"}, titles)
	mu.Unlock()

	data, err := os.ReadFile(filepath.Join(dir, "sale_reminder.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"game_name": "Portal 2"`)

	code, out, _ = runCmd(context.Background(), "status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "620")
	assert.Contains(t, out, "80%")
}
