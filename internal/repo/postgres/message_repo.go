package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `
	id,
	tenant_id,
	sender_id,
	receiver_id,
	COALESCE(text, ''),
	COALESCE(image_key, ''),
	COALESCE(self_destruct, 'none'),
	sent_at,
	is_read,
	is_deleted,
	viewed_at
`

func (r *MessageRepo) Insert(ctx context.Context, msg model.Message) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if msg.ID == "" || msg.SenderID == "" || msg.ReceiverID == "" {
		return fmt.Errorf("invalid message payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO messages (
	id,
	tenant_id,
	sender_id,
	receiver_id,
	text,
	image_key,
	self_destruct,
	sent_at,
	is_read,
	is_deleted
) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, FALSE, FALSE)
`, msg.ID, msg.TenantID, msg.SenderID, msg.ReceiverID, msg.Text, msg.ImageKey, msg.SelfDestruct, msg.SentAt.UTC()); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (model.Message, error) {
	if messageID == "" {
		return model.Message{}, fmt.Errorf("message id is required")
	}
	if r.pool == nil {
		return model.Message{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE id = $1
LIMIT 1
`, messageID)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, fmt.Errorf("get message: %w", err)
	}

	return msg, nil
}

// ListThread returns both directions of a conversation ordered by timestamp.
// Soft-deleted messages are excluded.
func (r *MessageRepo) ListThread(ctx context.Context, profileID, partnerID string) ([]model.Message, error) {
	if profileID == "" || partnerID == "" {
		return nil, fmt.Errorf("both thread participants are required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE is_deleted = FALSE
  AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
ORDER BY sent_at ASC, id ASC
`, profileID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("list thread: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// ListForProfile returns every non-deleted message the profile sent or
// received, for the conversation summary pass.
func (r *MessageRepo) ListForProfile(ctx context.Context, profileID string) ([]model.Message, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE is_deleted = FALSE
  AND (sender_id = $1 OR receiver_id = $1)
ORDER BY sent_at ASC, id ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list messages for profile: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func (r *MessageRepo) SoftDelete(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE messages
SET is_deleted = TRUE
WHERE id = $1 AND is_deleted = FALSE
`, messageID)
	if err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}

	return nil
}

// MarkThreadRead flags everything the profile received from the partner.
func (r *MessageRepo) MarkThreadRead(ctx context.Context, profileID, partnerID string) error {
	if profileID == "" || partnerID == "" {
		return fmt.Errorf("both thread participants are required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE messages
SET is_read = TRUE
WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE AND is_deleted = FALSE
`, profileID, partnerID); err != nil {
		return fmt.Errorf("mark thread read: %w", err)
	}

	return nil
}

// StampViewedAt sets viewed_at exactly once. The WHERE guard makes repeat
// calls no-ops; it reports whether this call did the stamping.
func (r *MessageRepo) StampViewedAt(ctx context.Context, messageID string, at time.Time) (bool, error) {
	if messageID == "" {
		return false, fmt.Errorf("message id is required")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE messages
SET viewed_at = $2
WHERE id = $1 AND viewed_at IS NULL AND is_deleted = FALSE
`, messageID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("stamp viewed at: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// PurgeDeletedBefore permanently removes soft-deleted messages past the
// retention cutoff.
func (r *MessageRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM messages
WHERE is_deleted = TRUE AND sent_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge deleted messages: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectMessages(rows pgx.Rows) ([]model.Message, error) {
	out := make([]model.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return out, nil
}

func scanMessage(row rowScanner) (model.Message, error) {
	var msg model.Message
	if err := row.Scan(
		&msg.ID,
		&msg.TenantID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&msg.ImageKey,
		&msg.SelfDestruct,
		&msg.SentAt,
		&msg.IsRead,
		&msg.IsDeleted,
		&msg.ViewedAt,
	); err != nil {
		return model.Message{}, err
	}

	return msg, nil
}
