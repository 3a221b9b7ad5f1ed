package conversion

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicedesk/speechadmin/internal/models"
)

const uniqueViolationCode = "23505"

// PostgresRepository stores conversion records in Postgres via pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Conversion) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO conversions (text, language, filename, audio_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.Text, c.Language, c.Filename, c.AudioPath,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateFilename
		}
		return fmt.Errorf("insert conversion: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*models.Conversion, error) {
	var c models.Conversion
	err := r.db.QueryRow(ctx,
		`SELECT id, text, language, filename, audio_path, created_at, updated_at
		 FROM conversions WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Text, &c.Language, &c.Filename, &c.AudioPath, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]models.Conversion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, text, language, filename, audio_path, created_at, updated_at
		 FROM conversions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var conversions []models.Conversion
	for rows.Next() {
		var c models.Conversion
		if err := rows.Scan(&c.ID, &c.Text, &c.Language, &c.Filename, &c.AudioPath, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		conversions = append(conversions, c)
	}
	return conversions, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Conversion) error {
	err := r.db.QueryRow(ctx,
		`UPDATE conversions
		 SET text = $2, language = $3, filename = $4, audio_path = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		c.ID, c.Text, c.Language, c.Filename, c.AudioPath,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateFilename
		}
		return fmt.Errorf("update conversion: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM conversions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete conversion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
