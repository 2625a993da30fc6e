package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"framegrab/models"
)

const scanBatch = 100

// RedisBackend keeps each record as a JSON blob under <prefix><jobId> and
// the work queue as a list. Dispatch writes both inside one MULTI/EXEC.
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
	queue     string
}

// NewRedisBackend wires a backend onto an existing client.
func NewRedisBackend(client *redis.Client, keyPrefix, queue string) *RedisBackend {
	return &RedisBackend{client: client, keyPrefix: keyPrefix, queue: queue}
}

func (b *RedisBackend) key(jobID string) string {
	return b.keyPrefix + jobID
}

// decode fills in the id for records the worker wrote without one.
func decode(jobID string, data []byte) (models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return models.Job{}, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	if job.JobID == "" {
		job.JobID = jobID
	}
	return job, nil
}

func (b *RedisBackend) Get(ctx context.Context, jobID string) (models.Job, error) {
	data, err := b.client.Get(ctx, b.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Job{}, ErrNotFound
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("redis get %s: %w", jobID, err)
	}
	return decode(jobID, data)
}

func (b *RedisBackend) Create(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	created, err := b.client.SetNX(ctx, b.key(job.JobID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis create %s: %w", job.JobID, err)
	}
	if !created {
		return ErrDuplicateJob
	}
	return nil
}

func (b *RedisBackend) Put(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	if err := b.client.Set(ctx, b.key(job.JobID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis put %s: %w", job.JobID, err)
	}
	return nil
}

func (b *RedisBackend) CompareAndSwap(ctx context.Context, current, next models.Job) error {
	return b.swap(ctx, current, next, nil)
}

// swap runs the compare under WATCH and, when msg is set, enqueues it in
// the same transaction.
func (b *RedisBackend) swap(ctx context.Context, current, next models.Job, msg *models.WorkMessage) error {
	key := b.key(current.JobID)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", next.JobID, err)
	}
	var payload []byte
	if msg != nil {
		if payload, err = json.Marshal(msg); err != nil {
			return fmt.Errorf("encode message %s: %w", msg.JobID, err)
		}
	}

	err = b.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		stored, err := decode(current.JobID, raw)
		if err != nil {
			return err
		}
		if !sameVersion(stored, current) {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if payload != nil {
				pipe.RPush(ctx, b.queue, payload)
			}
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err
	default:
		return fmt.Errorf("redis swap %s: %w", current.JobID, err)
	}
}

func (b *RedisBackend) ListByStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, b.keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	var (
		out     []models.Job
		corrupt []string
	)
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		values, err := b.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// expired or deleted between SCAN and MGET
				continue
			}
			jobID := strings.TrimPrefix(keys[start+i], b.keyPrefix)
			job, err := decode(jobID, []byte(raw))
			if err != nil {
				corrupt = append(corrupt, jobID)
				continue
			}
			if job.Status == status {
				out = append(out, job)
			}
		}
	}
	if len(corrupt) > 0 {
		return out, &CorruptRecordsError{JobIDs: corrupt}
	}
	return out, nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Push appends to the tail so BLPOP consumers see FIFO order.
func (b *RedisBackend) Push(ctx context.Context, msg models.WorkMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.JobID, err)
	}
	if err := b.client.RPush(ctx, b.queue, payload).Err(); err != nil {
		return fmt.Errorf("redis push %s: %w", msg.JobID, err)
	}
	return nil
}

// Dispatch writes the record and the message in one transaction, so either
// both become visible or neither does.
func (b *RedisBackend) Dispatch(ctx context.Context, job models.Job, msg models.WorkMessage) error {
	key := b.key(job.JobID)
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s: %w", msg.JobID, err)
	}

	err = b.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateJob
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.RPush(ctx, b.queue, payload)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateJob), errors.Is(err, redis.TxFailedErr):
		return ErrDuplicateJob
	default:
		return fmt.Errorf("redis dispatch %s: %w", job.JobID, err)
	}
}

func (b *RedisBackend) Redispatch(ctx context.Context, current, next models.Job, msg models.WorkMessage) error {
	return b.swap(ctx, current, next, &msg)
}
