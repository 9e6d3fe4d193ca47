package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

type HighScore struct {
	HighScoreId int64     `db:"high_score_id" json:"-"`
	RowCount    int       `db:"row_count" json:"rows"`
	ColumnCount int       `db:"column_count" json:"columns"`
	MineCount   int       `db:"mine_count" json:"mines"`
	Player      string    `db:"player" json:"player"`
	ElapsedMs   int64     `db:"elapsed_ms" json:"elapsed_ms"`
	AchievedAt  time.Time `db:"achieved_at" json:"achieved_at"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

func (h HighScore) Score() game.Score {
	return game.Score{
		Player:  h.Player,
		Elapsed: time.Duration(h.ElapsedMs) * time.Millisecond,
		Date:    h.AchievedAt,
	}
}

type HighScoreFilter struct {
	Player *string
	Size   *table.Size
	Mines  *uint
}

func (f HighScoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Player != nil {
		clauses = append(clauses, "player = @player")
		args["player"] = *f.Player
	}
	if f.Size != nil {
		clauses = append(clauses, "row_count = @row_count", "column_count = @column_count")
		args["row_count"] = f.Size.Rows
		args["column_count"] = f.Size.Columns
	}
	if f.Mines != nil {
		clauses = append(clauses, "mine_count = @mine_count")
		args["mine_count"] = *f.Mines
	}
	return strings.Join(clauses, " AND "), args
}

type InsertHighScoreParams struct {
	Size       table.Size
	Mines      uint
	Player     string
	Elapsed    time.Duration
	AchievedAt time.Time
}

func (p InsertHighScoreParams) Args() pgx.NamedArgs {
	return pgx.NamedArgs{
		"row_count":    p.Size.Rows,
		"column_count": p.Size.Columns,
		"mine_count":   p.Mines,
		"player":       p.Player,
		"elapsed_ms":   p.Elapsed.Milliseconds(),
		"achieved_at":  p.AchievedAt,
	}
}

func (q *Queries) InsertHighScore(ctx context.Context, params InsertHighScoreParams) (*HighScore, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO high_score (
			row_count, column_count, mine_count, player, elapsed_ms, achieved_at
		)
		VALUES (
			@row_count, @column_count, @mine_count, @player, @elapsed_ms, @achieved_at
		)
		RETURNING *;`,
		params.Args(),
	)
	h, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[HighScore])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, pgErr.Message)
	}
	return h, err
}

// GetHighScores returns the matching rows best first. A limit of zero or
// less returns every row.
func (q *Queries) GetHighScores(ctx context.Context, filter HighScoreFilter, limit int) ([]HighScore, error) {
	query := `SELECT * FROM high_score`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY elapsed_ms, achieved_at, high_score_id"
	if limit > 0 {
		query += " LIMIT @limit"
		args["limit"] = limit
	}

	rows, err := q.db.Query(ctx, query+";", args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[HighScore])
}

// RankOf returns the 1-based position of h among the scores of its
// configuration.
func (q *Queries) RankOf(ctx context.Context, h *HighScore) (int, error) {
	var better int
	err := q.db.QueryRow(
		ctx,
		`SELECT count(*) FROM high_score
		WHERE row_count = @row_count
			AND column_count = @column_count
			AND mine_count = @mine_count
			AND (elapsed_ms, achieved_at, high_score_id) < (@elapsed_ms, @achieved_at, @high_score_id);`,
		pgx.NamedArgs{
			"row_count":     h.RowCount,
			"column_count":  h.ColumnCount,
			"mine_count":    h.MineCount,
			"elapsed_ms":    h.ElapsedMs,
			"achieved_at":   h.AchievedAt,
			"high_score_id": h.HighScoreId,
		},
	).Scan(&better)
	if err != nil {
		return 0, err
	}
	return better + 1, nil
}
