package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"alerta-steam/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// DefaultStoreURL é a raiz da loja Steam
	DefaultStoreURL = "https://store.steampowered.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	// ErrAppNotFound indica que a Steam não retornou dados para o App ID
	ErrAppNotFound = errors.New("app não encontrado na Steam")
	// ErrNoPriceInfo indica que o jogo não possui informação de preço (gratuito ou indisponível na região)
	ErrNoPriceInfo = errors.New("informação de preço indisponível")
	// ErrInvalidLink indica um link que não é da loja Steam
	ErrInvalidLink = errors.New("link da Steam inválido")
)

var appIDPattern = regexp.MustCompile(`/app/(\d+)`)
var numericPattern = regexp.MustCompile(`^\d+$`)

// ExtractAppID extrai o App ID de um link da loja (ex: https://store.steampowered.com/app/534380/).
// Um App ID numérico também é aceito.
func ExtractAppID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if numericPattern.MatchString(link) {
		return link, nil
	}
	matches := appIDPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidLink, link)
	}
	return matches[1], nil
}

// AppURL monta o link da página do jogo na loja
func AppURL(appID string) string {
	return fmt.Sprintf("%s/app/%s/", DefaultStoreURL, appID)
}

// Client consulta a API pública appdetails da loja Steam
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient cria um cliente; baseURL vazio usa a loja oficial
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultStoreURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type appDetailsResponse map[string]struct {
	Success bool `json:"success"`
	Data    *struct {
		Name          string `json:"name"`
		HeaderImage   string `json:"header_image"`
		PriceOverview *struct {
			Currency        string `json:"currency"`
			Initial         int64  `json:"initial"`
			Final           int64  `json:"final"`
			DiscountPercent int    `json:"discount_percent"`
		} `json:"price_overview"`
	} `json:"data"`
}

// FetchPriceReading busca o preço atual e o desconto de um jogo.
// Falhas de rede, status diferente de 200, jogos sem preço e respostas
// inválidas retornam erro para que a avaliação seja pulada.
func (c *Client) FetchPriceReading(ctx context.Context, appID, countryCode, language string) (models.PriceReading, error) {
	q := url.Values{}
	q.Set("appids", appID)
	q.Set("cc", countryCode)
	q.Set("l", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/appdetails?"+q.Encode(), nil)
	if err != nil {
		return models.PriceReading{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.PriceReading{}, fmt.Errorf("erro ao consultar a Steam: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PriceReading{}, fmt.Errorf("status code: %d", resp.StatusCode)
	}

	var body appDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.PriceReading{}, fmt.Errorf("resposta inválida da Steam: %w", err)
	}

	entry, ok := body[appID]
	if !ok || !entry.Success || entry.Data == nil {
		return models.PriceReading{}, fmt.Errorf("%w: %s", ErrAppNotFound, appID)
	}

	price := entry.Data.PriceOverview
	if price == nil {
		return models.PriceReading{}, fmt.Errorf("%w: %s", ErrNoPriceInfo, appID)
	}

	// A API retorna valores em centavos
	return models.PriceReading{
		ItemID:          appID,
		Name:            entry.Data.Name,
		CurrentPrice:    decimal.New(price.Final, -2),
		InitialPrice:    decimal.New(price.Initial, -2),
		Currency:        price.Currency,
		DiscountPercent: price.DiscountPercent,
		ImageURL:        entry.Data.HeaderImage,
	}, nil
}
