package database

import (
	"database/sql"
	"errors"
	"fmt"

	"alerta-steam/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrGameNotFound é retornado quando o App ID não está no catálogo
var ErrGameNotFound = errors.New("jogo não encontrado")

// ErrGameExists é retornado ao adicionar um jogo já monitorado
var ErrGameExists = errors.New("jogo já está sendo monitorado")

// DB encapsula a conexão com o banco de dados
type DB struct {
	conn *sql.DB
}

// New abre (ou cria) o banco SQLite em dbPath
func New(dbPath string, log zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite aceita um único escritor
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}

	if err := db.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("erro ao criar tabelas: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("banco de dados inicializado")
	return db, nil
}

// Close fecha a conexão com o banco de dados
func (db *DB) Close() error {
	return db.conn.Close()
}

// init cria as tabelas necessárias
func (db *DB) init() error {
	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS games (
		app_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		link TEXT NOT NULL,
		price_threshold REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS sale_notifications (
		app_id TEXT PRIMARY KEY,
		game_name TEXT NOT NULL,
		current_price TEXT NOT NULL,
		discount_percent INTEGER NOT NULL
	);
	`

	_, err := db.conn.Exec(createTablesSQL)
	return err
}

// AddGame adiciona um novo jogo ao catálogo
func (db *DB) AddGame(appID, name, link string) error {
	_, err := db.conn.Exec(
		"INSERT INTO games (app_id, name, link) VALUES (?, ?, ?)",
		appID, name, link,
	)
	if err != nil {
		if db.exists(appID) {
			return fmt.Errorf("%w: %s", ErrGameExists, appID)
		}
		return err
	}
	return nil
}

func (db *DB) exists(appID string) bool {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM games WHERE app_id = ?", appID).Scan(&n)
	return err == nil && n > 0
}

// RemoveGame remove um jogo do catálogo
func (db *DB) RemoveGame(appID string) error {
	res, err := db.conn.Exec("DELETE FROM games WHERE app_id = ?", appID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, appID)
	}
	return nil
}

// SetPriceThreshold define o preço alvo; nil remove o alvo
func (db *DB) SetPriceThreshold(appID string, threshold *decimal.Decimal) error {
	var value sql.NullFloat64
	if threshold != nil {
		value = sql.NullFloat64{Float64: threshold.InexactFloat64(), Valid: true}
	}

	res, err := db.conn.Exec("UPDATE games SET price_threshold = ? WHERE app_id = ?", value, appID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, appID)
	}
	return nil
}

// GetGame retorna um jogo pelo App ID
func (db *DB) GetGame(appID string) (*models.TrackedItem, error) {
	row := db.conn.QueryRow(
		"SELECT app_id, name, link, price_threshold, created_at FROM games WHERE app_id = ?",
		appID,
	)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, appID)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGames retorna todos os jogos na ordem em que foram adicionados
func (db *DB) ListGames() ([]models.TrackedItem, error) {
	rows, err := db.conn.Query("SELECT app_id, name, link, price_threshold, created_at FROM games ORDER BY created_at, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []models.TrackedItem
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (models.TrackedItem, error) {
	var g models.TrackedItem
	var threshold sql.NullFloat64
	var createdAt sql.NullTime
	if err := s.Scan(&g.ID, &g.Name, &g.URL, &threshold, &createdAt); err != nil {
		return g, err
	}
	if threshold.Valid {
		d := decimal.NewFromFloat(threshold.Float64).Round(2)
		g.PriceThreshold = &d
	}
	if createdAt.Valid {
		g.CreatedAt = createdAt.Time
	}
	return g, nil
}

// LoadNotifications lê os registros de promoções já notificadas
func (db *DB) LoadNotifications() (map[string]models.NotificationRecord, error) {
	rows, err := db.conn.Query("SELECT app_id, game_name, current_price, discount_percent FROM sale_notifications")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]models.NotificationRecord)
	for rows.Next() {
		var appID, price string
		var rec models.NotificationRecord
		if err := rows.Scan(&appID, &rec.GameName, &price, &rec.DiscountPercent); err != nil {
			return nil, err
		}
		if rec.CurrentPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("preço inválido para %s: %w", appID, err)
		}
		records[appID] = rec
	}
	return records, rows.Err()
}

// SaveNotifications substitui todos os registros em uma única transação
func (db *DB) SaveNotifications(records map[string]models.NotificationRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sale_notifications"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO sale_notifications (app_id, game_name, current_price, discount_percent) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for appID, rec := range records {
		if _, err := stmt.Exec(appID, rec.GameName, rec.CurrentPrice.String(), rec.DiscountPercent); err != nil {
			return err
		}
	}

	return tx.Commit()
}
