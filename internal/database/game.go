// internal/database/game.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/truco/internal/models"
)

// RecordGameAndResults persists the final outcome of a finished game: the
// game row, one game_results row per player, and the per-user played/won
// tallies for players backed by an account. Everything commits in one
// transaction so a retry after a crash upserts cleanly.
func RecordGameAndResults(ctx context.Context, game *models.Game, finalScores map[uuid.UUID]int) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status, max_score, winner_id)
			VALUES ($1, 'completed', $2, $3)
			ON CONFLICT (id) DO UPDATE SET status = 'completed', winner_id = $3
		`
		if _, e := tx.Exec(ctx, upsertGame, game.ID, game.Rules.MaxScore, game.Winner); e != nil {
			return e
		}

		for _, pl := range game.Players {
			didWin := pl.ID == game.Winner
			q := `
				INSERT INTO game_results (game_id, player_id, score, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET score=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, q, game.ID, pl.ID, finalScores[pl.ID], didWin); e != nil {
				return e
			}

			if pl.User == nil {
				continue
			}
			tally := `
				UPDATE users
				SET games_played = games_played + 1,
				    games_won = games_won + CASE WHEN $1 THEN 1 ELSE 0 END
				WHERE id = $2
			`
			if _, e := tx.Exec(ctx, tally, didWin, pl.User.ID); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}
