package services

import (
	"context"
	"fmt"
	"time"

	awspkg "github.com/admin5fedu/duraval-app-sub010/pkg/aws"
	"github.com/go-redis/redis/v8"
)

const (
	queueKey    = "import:queue"
	dequeueWait = 5 * time.Second
)

func noAck(context.Context) error { return nil }

// RedisJobQueue is a Redis list: RPUSH to enqueue, BLPOP to dequeue.
type RedisJobQueue struct {
	rdb *redis.Client
}

func NewRedisJobQueue(rdb *redis.Client) *RedisJobQueue {
	return &RedisJobQueue{rdb: rdb}
}

func (q *RedisJobQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.RPush(ctx, queueKey, jobID).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (q *RedisJobQueue) Dequeue(ctx context.Context) (string, func(context.Context) error, error) {
	res, err := q.rdb.BLPop(ctx, dequeueWait, queueKey).Result()
	if err == redis.Nil {
		return "", noAck, nil
	}
	if err != nil {
		return "", noAck, err
	}
	if len(res) < 2 {
		return "", noAck, nil
	}
	return res[1], noAck, nil
}

// SQSJobQueue carries job ids as SQS message bodies. A message is deleted only
// once the job has been handled, so a job whose worker crashed is redelivered
// and closed as failed.
type SQSJobQueue struct {
	client *awspkg.SQSClient
}

func NewSQSJobQueue(client *awspkg.SQSClient) *SQSJobQueue {
	return &SQSJobQueue{client: client}
}

func (q *SQSJobQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.SendMessage(ctx, jobID)
}

func (q *SQSJobQueue) Dequeue(ctx context.Context) (string, func(context.Context) error, error) {
	msg, err := q.client.Receive(ctx)
	if err != nil || msg == nil {
		return "", noAck, err
	}
	handle := msg.ReceiptHandle
	return msg.Body, func(ctx context.Context) error { return q.client.Delete(ctx, handle) }, nil
}
