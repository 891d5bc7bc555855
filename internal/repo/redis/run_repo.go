package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RunRepo keeps the incrementally maintained consecutive-send run per
// conversation: who sent the last contiguous run and how long it is. A
// missing key means "rebuild from the thread".
type RunRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRunRepo(client *goredis.Client, ttl time.Duration) *RunRepo {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RunRepo{client: client, ttl: ttl}
}

type RunState struct {
	SenderID string
	Length   int
	Exists   bool
}

func (r *RunRepo) Get(ctx context.Context, a, b string) (RunState, error) {
	if r.client == nil {
		return RunState{}, fmt.Errorf("redis client is nil")
	}

	fields, err := r.client.HGetAll(ctx, runKey(a, b)).Result()
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	if len(fields) == 0 {
		return RunState{}, nil
	}

	length, err := strconv.Atoi(fields["length"])
	if err != nil {
		return RunState{}, fmt.Errorf("parse run length: %w", err)
	}

	return RunState{
		SenderID: fields["sender"],
		Length:   length,
		Exists:   true,
	}, nil
}

func (r *RunRepo) Set(ctx context.Context, a, b, senderID string, length int) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if length < 0 {
		length = 0
	}

	key := runKey(a, b)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"sender": senderID,
		"length": length,
	})
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set run state: %w", err)
	}

	return nil
}

// Advance records one more message from senderID: extends their run or
// starts a new one. Returns the resulting length.
func (r *RunRepo) Advance(ctx context.Context, a, b, senderID string) (int, error) {
	state, err := r.Get(ctx, a, b)
	if err != nil {
		return 0, err
	}

	length := 1
	if state.Exists && state.SenderID == senderID {
		length = state.Length + 1
	}
	if err := r.Set(ctx, a, b, senderID, length); err != nil {
		return 0, err
	}

	return length, nil
}

// Invalidate drops the counter so the next read rebuilds it from the thread.
// Used after deletes, where the contiguous run may have changed shape.
func (r *RunRepo) Invalidate(ctx context.Context, a, b string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.Del(ctx, runKey(a, b)).Err(); err != nil {
		return fmt.Errorf("invalidate run state: %w", err)
	}

	return nil
}

// runKey is direction-agnostic: one counter per conversation.
func runKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return "chat:run:" + a + ":" + b
}
