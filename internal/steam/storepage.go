package steam

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchName extrai o nome do jogo da página da loja
func (c *Client) FetchName(ctx context.Context, appID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/app/%s/", c.baseURL, appID), nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Evita a página de verificação de idade
	req.AddCookie(&http.Cookie{Name: "birthtime", Value: "0"})
	req.AddCookie(&http.Cookie{Name: "lastagecheckage", Value: "1-0-1990"})

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	nameSelectors := []string{
		"#appHubAppName",
		".apphub_AppName",
		".apppage_title",
	}

	var name string
	for _, selector := range nameSelectors {
		name = strings.TrimSpace(doc.Find(selector).First().Text())
		if name != "" {
			return name, nil
		}
	}

	// og:title vem como "Save 80% on Portal 2 on Steam" ou "Portal 2 on Steam"
	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		name = strings.TrimSpace(strings.TrimSuffix(title, " on Steam"))
		if idx := strings.Index(name, "% on "); strings.HasPrefix(name, "Save ") && idx > 0 {
			name = name[idx+len("% on "):]
		}
		if name != "" {
			return name, nil
		}
	}

	return "", fmt.Errorf("nome não encontrado na página do app %s", appID)
}
