// AngelaMos | 2026
// syslog.go

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	systemLogKey = "admin:system_log"

	DefaultLogCapacity = 200
)

type LogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemLog is a capped audit trail of admin actions, newest first.
type SystemLog struct {
	client   *redis.Client
	capacity int64
	now      func() time.Time
}

func NewSystemLog(client *redis.Client, capacity int) *SystemLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &SystemLog{
		client:   client,
		capacity: int64(capacity),
		now:      time.Now,
	}
}

func (l *SystemLog) Record(ctx context.Context, action, admin string) error {
	entry := LogEntry{
		ID:        uuid.New().String(),
		Action:    action,
		Admin:     admin,
		Timestamp: l.now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.LPush(ctx, systemLogKey, raw)
	pipe.LTrim(ctx, systemLogKey, 0, l.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record admin action: %w", err)
	}
	return nil
}

// Entries returns up to limit entries, newest first. A non-positive limit
// returns the whole log.
func (l *SystemLog) Entries(ctx context.Context, limit int) ([]LogEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raws, err := l.client.LRange(ctx, systemLogKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read system log: %w", err)
	}

	entries := make([]LogEntry, 0, len(raws))
	for _, raw := range raws {
		var e LogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (l *SystemLog) Count(ctx context.Context) (int64, error) {
	n, err := l.client.LLen(ctx, systemLogKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count system log: %w", err)
	}
	return n, nil
}
