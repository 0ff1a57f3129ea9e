package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ repository.Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) CreateConversation(ctx context.Context, input repository.CreateConversationInput) (*repository.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, channel, owner_id, language_name, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE SET updated_at = NOW(), language_name = EXCLUDED.language_name
		 RETURNING id, channel, owner_id, language_name, started_at, updated_at`,
		input.ID, string(input.Channel), input.OwnerID, input.LanguageName, input.StartedAt)
	var c repository.Conversation
	var channel string
	if err := row.Scan(&c.ID, &channel, &c.OwnerID, &c.LanguageName, &c.StartedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Channel = repository.Channel(channel)
	return &c, nil
}

func (r *PostgresRepository) AppendTurns(ctx context.Context, input repository.AppendTurnsInput) error {
	if len(input.Turns) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the conversation row so concurrent appends keep turn indexes dense.
	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, input.ConversationID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", repository.ErrConversationNotFound, input.ConversationID)
		}
		return err
	}
	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(turn_index) + 1, 0) FROM conversation_turns WHERE conversation_id = $1`,
		input.ConversationID).Scan(&next)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, t := range input.Turns {
		batch.Queue(
			`INSERT INTO conversation_turns (conversation_id, turn_index, role, content, input_mode, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			input.ConversationID, next+i, t.Role, t.Content, t.InputMode, t.At)
	}
	batch.Queue(`UPDATE conversations SET updated_at = NOW() WHERE id = $1`, input.ConversationID)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) ListTurns(ctx context.Context, conversationID string) ([]repository.Turn, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT conversation_id, turn_index, role, content, input_mode, created_at
		 FROM conversation_turns WHERE conversation_id = $1 ORDER BY turn_index ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Turn
	for rows.Next() {
		var t repository.Turn
		if err := rows.Scan(&t.ConversationID, &t.TurnIndex, &t.Role, &t.Content, &t.InputMode, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) Shutdown() {
	r.pool.Close()
}
