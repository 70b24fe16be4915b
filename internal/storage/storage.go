package storage

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

type CompletedGame struct {
	ID        string
	Winner    int
	Status    string
	Moves     int
	StartedAt time.Time
	EndedAt   time.Time
}

// Stats aggregates finished games for the stats endpoint.
type Stats struct {
	Player1Wins int `json:"player1_wins"`
	Player2Wins int `json:"player2_wins"`
	Draws       int `json:"draws"`
	Total       int `json:"total"`
}

type Store interface {
	SaveGame(ctx context.Context, game CompletedGame) error
	GetStats(ctx context.Context) (Stats, error)
}

type PostgresStore struct {
	conn *pgx.Conn
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{conn: conn}, nil
}

func (p *PostgresStore) Close(ctx context.Context) {
	if p.conn != nil {
		_ = p.conn.Close(ctx)
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	winner INT,
	status TEXT,
	moves INT,
	started_at TIMESTAMP,
	ended_at TIMESTAMP
);
`)
	return err
}

func (p *PostgresStore) SaveGame(ctx context.Context, game CompletedGame) error {
	if p == nil || p.conn == nil {
		return nil
	}
	_, err := p.conn.Exec(ctx, `INSERT INTO games (id, winner, status, moves, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (id) DO NOTHING`,
		game.ID, game.Winner, game.Status, game.Moves, game.StartedAt, game.EndedAt)
	if err != nil {
		log.Printf("failed to save game: %v", err)
	}
	return err
}

func (p *PostgresStore) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	rows, err := p.conn.Query(ctx, `SELECT winner, COUNT(*) FROM games GROUP BY winner`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var winner, count int
		if err := rows.Scan(&winner, &count); err != nil {
			return stats, err
		}
		switch winner {
		case 1:
			stats.Player1Wins = count
		case 2:
			stats.Player2Wins = count
		default:
			stats.Draws = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}
