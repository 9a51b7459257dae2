package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"alerta-steam/internal/models"

	"github.com/shopspring/decimal"
)

// fileRecord é o formato de cada entrada do arquivo sale_reminder.json
type fileRecord struct {
	GameName        string      `json:"game_name"`
	CurrentPrice    json.Number `json:"current_price"`
	DiscountPercent int         `json:"discount_percent"`
}

// JSONFile guarda o estado em um arquivo JSON indexado pelo App ID
type JSONFile struct {
	path string
}

// NewJSONFile cria o backend de arquivo; o arquivo só é criado na primeira gravação
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// LoadNotifications lê o arquivo; um arquivo inexistente resulta em estado vazio
func (f *JSONFile) LoadNotifications() (map[string]models.NotificationRecord, error) {
	records := make(map[string]models.NotificationRecord)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return records, nil
	}

	var raw map[string]fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("arquivo %s inválido: %w", f.path, err)
	}

	for appID, r := range raw {
		price := decimal.Zero
		if r.CurrentPrice != "" {
			price, err = decimal.NewFromString(r.CurrentPrice.String())
			if err != nil {
				return nil, fmt.Errorf("preço inválido para %s: %w", appID, err)
			}
		}
		records[appID] = models.NotificationRecord{
			GameName:        r.GameName,
			CurrentPrice:    price,
			DiscountPercent: r.DiscountPercent,
		}
	}
	return records, nil
}

// SaveNotifications grava o arquivo inteiro de forma atômica (temporário + rename)
func (f *JSONFile) SaveNotifications(records map[string]models.NotificationRecord) error {
	raw := make(map[string]fileRecord, len(records))
	for appID, rec := range records {
		raw[appID] = fileRecord{
			GameName:        rec.GameName,
			CurrentPrice:    json.Number(rec.CurrentPrice.String()),
			DiscountPercent: rec.DiscountPercent,
		}
	}

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
