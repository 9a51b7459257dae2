package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"alerta-steam/config"
	"alerta-steam/internal/database"
	"alerta-steam/internal/logger"
	"alerta-steam/internal/metrics"
	"alerta-steam/internal/models"
	"alerta-steam/internal/monitor"
	"alerta-steam/internal/notifier"
	"alerta-steam/internal/state"
	"alerta-steam/internal/steam"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const usage = `Uso: alerta <comando> [argumentos]

Comandos:
  add <link|appid> [nome]          adiciona um jogo ao catálogo
  list                             lista os jogos do catálogo
  remove <appid>                   remove um jogo do catálogo
  threshold <appid> <preço>        define o preço alvo (0 remove)
  check <appid>                    consulta o preço atual sem notificar
  status                           mostra as promoções já notificadas
  scan [-games id1,id2] [-mode any-discount|price-target]
                                   verifica os jogos a cada intervalo até Ctrl+C
`

// errUsage indica argumentos inválidos (código de saída 2)
var errUsage = errors.New("uso incorreto")

type app struct {
	cfg   *config.Config
	db    *database.DB
	steam *steam.Client
	out   io.Writer
	log   zerolog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Erro ao carregar configurações: %v\n", err)
		return 1
	}
	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("cli")

	db, err := database.New(cfg.DatabasePath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Erro ao inicializar banco de dados: %v\n", err)
		return 1
	}
	defer db.Close()

	a := &app{
		cfg:   cfg,
		db:    db,
		steam: steam.NewClient(cfg.SteamStoreURL, cfg.RequestTimeout),
		out:   stdout,
		log:   log,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		err = a.add(ctx, rest)
	case "list":
		err = a.list()
	case "remove":
		err = a.remove(rest)
	case "threshold":
		err = a.threshold(rest)
	case "check":
		err = a.check(ctx, rest)
	case "status":
		err = a.status()
	case "scan":
		err = a.scan(ctx, rest)
	default:
		err = fmt.Errorf("%w: comando desconhecido %q", errUsage, cmd)
	}

	if err != nil {
		fmt.Fprintf(stderr, "Erro: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		return 1
	}
	return 0
}

func (a *app) add(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: add <link|appid> [nome]", errUsage)
	}

	appID, err := steam.ExtractAppID(args[0])
	if err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args[1:], " "))
	if name == "" {
		name, err = a.steam.FetchName(ctx, appID)
		if err != nil {
			a.log.Warn().Err(err).Str("app_id", appID).Msg("nome não encontrado na loja")
			name = "App " + appID
		}
	}

	if err := a.db.AddGame(appID, name, steam.AppURL(appID)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Jogo '%s' (%s) adicionado com sucesso.\n", name, appID)
	return nil
}

func (a *app) list() error {
	games, err := a.db.ListGames()
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(a.out, "Nenhum jogo adicionado ainda.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APP ID\tNOME\tPREÇO ALVO\tLINK")
	for _, g := range games {
		target := "-"
		if g.PriceThreshold != nil {
			target = g.PriceThreshold.StringFixed(2)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, target, g.URL)
	}
	return w.Flush()
}

func (a *app) remove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: remove <appid>", errUsage)
	}
	appID, err := steam.ExtractAppID(args[0])
	if err != nil {
		return err
	}
	if err := a.db.RemoveGame(appID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Jogo %s removido.\n", appID)
	return nil
}

func (a *app) threshold(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: threshold <appid> <preço>", errUsage)
	}
	appID, err := steam.ExtractAppID(args[0])
	if err != nil {
		return err
	}

	value, err := decimal.NewFromString(strings.TrimPrefix(args[1], "$"))
	if err != nil || value.IsNegative() {
		return fmt.Errorf("%w: preço inválido %q", errUsage, args[1])
	}

	var target *decimal.Decimal
	if value.IsPositive() {
		target = &value
	}
	if err := a.db.SetPriceThreshold(appID, target); err != nil {
		return err
	}

	if target == nil {
		fmt.Fprintf(a.out, "Preço alvo removido para %s.\n", appID)
	} else {
		fmt.Fprintf(a.out, "Preço alvo de %s definido em %s.\n", appID, target.StringFixed(2))
	}
	return nil
}

func (a *app) check(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: check <appid>", errUsage)
	}
	items, err := a.resolveItems(args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: check <appid>", errUsage)
	}
	item := items[0]

	mode := models.ModeAnyDiscount
	if item.PriceThreshold != nil {
		mode = models.ModePriceTarget
	}
	m := monitor.New(a.steam, notifier.Multi{}, nil, a.monitorOptions(mode), logger.WithComponent("monitor"))

	reading, met, err := m.Check(ctx, item)
	if err != nil {
		return fmt.Errorf("erro ao verificar preço: %w", err)
	}

	name := item.Name
	if name == "" {
		name = reading.Name
	}
	fmt.Fprintf(a.out, "Jogo: %s\n", name)
	fmt.Fprintf(a.out, "Preço atual: %s %s\n", reading.CurrentPrice.StringFixed(2), reading.Currency)
	fmt.Fprintf(a.out, "Desconto: %d%%\n", reading.DiscountPercent)
	if item.PriceThreshold != nil {
		fmt.Fprintf(a.out, "Preço alvo: %s\n", item.PriceThreshold.StringFixed(2))
	}
	if met {
		fmt.Fprintln(a.out, "Condição de promoção atingida!")
	} else {
		fmt.Fprintln(a.out, "Sem promoção no momento.")
	}
	return nil
}

func (a *app) status() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}

	records := store.Records()
	if len(records) == 0 {
		fmt.Fprintln(a.out, "Nenhuma promoção notificada.")
		return nil
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APP ID\tNOME\tPREÇO\tDESCONTO")
	for _, id := range ids {
		r := records[id]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n", id, r.GameName, r.CurrentPrice.StringFixed(2), r.DiscountPercent)
	}
	return w.Flush()
}

func (a *app) scan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	games := fs.String("games", "", "App IDs separados por vírgula (padrão: todo o catálogo)")
	modeFlag := fs.String("mode", string(models.ModeAnyDiscount), "any-discount ou price-target")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	mode, err := models.ParseMode(*modeFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	items, err := a.resolveItems(*games)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("nenhum jogo configurado; use 'alerta add' primeiro")
	}

	if err := a.cfg.ValidateNotifiers(); err != nil {
		return err
	}
	n, err := a.notifiers()
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}

	if a.cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, a.cfg.MetricsAddr, logger.WithComponent("metrics")); err != nil {
				a.log.Error().Err(err).Msg("servidor de métricas encerrado")
			}
		}()
	}

	fmt.Fprintf(a.out, "Verificando %d jogo(s) a cada %v. Pressione Ctrl+C para parar.\n", len(items), a.cfg.CheckInterval)

	m := monitor.New(a.steam, n, store, a.monitorOptions(mode), logger.WithComponent("monitor"))
	if err := m.Run(ctx, items); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Varredura encerrada.")
	return nil
}

// resolveItems busca os jogos no catálogo; App IDs fora do catálogo são monitorados sem preço alvo
func (a *app) resolveItems(list string) ([]models.TrackedItem, error) {
	if strings.TrimSpace(list) == "" {
		return a.db.ListGames()
	}

	var items []models.TrackedItem
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		appID, err := steam.ExtractAppID(part)
		if err != nil {
			return nil, err
		}
		if seen[appID] {
			continue
		}
		seen[appID] = true

		game, err := a.db.GetGame(appID)
		switch {
		case errors.Is(err, database.ErrGameNotFound):
			items = append(items, models.TrackedItem{ID: appID, URL: steam.AppURL(appID)})
		case err != nil:
			return nil, err
		default:
			items = append(items, *game)
		}
	}
	return items, nil
}

func (a *app) notifiers() (notifier.Notifier, error) {
	var n notifier.Multi
	if a.cfg.DiscordWebhookURL != "" {
		n = append(n, notifier.NewDiscord(a.cfg.DiscordWebhookURL, a.cfg.BotName, a.cfg.BotAvatarURL, a.cfg.RequestTimeout))
	}
	if a.cfg.TelegramBotToken != "" {
		tg, err := notifier.NewTelegram(a.cfg.TelegramBotToken, a.cfg.TelegramChatID, "", a.cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("bot", tg.Username()).Msg("bot do Telegram autorizado")
		n = append(n, tg)
	}
	return n, nil
}

func (a *app) openStore() (*state.Store, error) {
	var backend state.Backend = state.NewJSONFile(a.cfg.StateFile)
	if a.cfg.StateBackend == "sqlite" {
		backend = a.db
	}
	return state.Open(backend)
}

func (a *app) monitorOptions(mode models.Mode) monitor.Options {
	return monitor.Options{
		Mode:           mode,
		CountryCode:    a.cfg.CountryCode,
		Language:       a.cfg.Language,
		Interval:       a.cfg.CheckInterval,
		RequestTimeout: a.cfg.RequestTimeout,
	}
}
