package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/models"

	"github.com/redis/go-redis/v9"
)

// redisCreateTaskScript inserts a task hash only if the key is absent.
// KEYS[1] = task key
// ARGV[1] = filename, ARGV[2] = notify email, ARGV[3] = timestamp (RFC3339)
var redisCreateTaskScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
redis.call("HSET", KEYS[1],
    "status", "processing",
    "filename", ARGV[1],
    "notify_email", ARGV[2],
    "created_at", ARGV[3],
    "updated_at", ARGV[3])
return 1
`)

// redisFinishTaskScript moves a processing task to a terminal status.
// KEYS[1] = task key
// ARGV[1] = status, ARGV[2] = report JSON, ARGV[3] = original text, ARGV[4] = timestamp
// Returns 1 on success, 0 when missing, -1 when not processing.
var redisFinishTaskScript = redis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if not status then
    return 0
end
if status ~= "processing" then
    return -1
end
redis.call("HSET", KEYS[1],
    "status", ARGV[1],
    "report", ARGV[2],
    "original_text", ARGV[3],
    "updated_at", ARGV[4])
return 1
`)

// RedisTaskStore keeps task records in Redis hashes so several
// server instances can share one registry
type RedisTaskStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTaskStore connects to Redis and verifies the connection
func NewRedisTaskStore(cfg config.RedisConfig) (*RedisTaskStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	log.Printf("[REDIS] Task store connected to %s (db=%d)", cfg.Addr, cfg.DB)
	return &RedisTaskStore{client: rdb, prefix: "compliance:task:"}, nil
}

// Close closes the Redis connection
func (s *RedisTaskStore) Close() error {
	return s.client.Close()
}

func (s *RedisTaskStore) key(taskID string) string {
	return s.prefix + taskID
}

// Create registers a new processing task
func (s *RedisTaskStore) Create(ctx context.Context, taskID, filename, notifyEmail string) (*models.Task, error) {
	now := time.Now().UTC()
	res, err := redisCreateTaskScript.Run(ctx, s.client, []string{s.key(taskID)},
		filename, notifyEmail, now.Format(time.RFC3339Nano)).Int()
	if err != nil {
		return nil, fmt.Errorf("redis create task error: %w", err)
	}
	if res == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateTask, taskID)
	}

	return &models.Task{
		ID:          taskID,
		Status:      models.TaskStatusProcessing,
		Filename:    filename,
		NotifyEmail: notifyEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Complete stores the report and extracted text on a processing task
func (s *RedisTaskStore) Complete(ctx context.Context, taskID string, report *models.ComplianceReport, originalText string) error {
	return s.finish(ctx, taskID, models.TaskStatusCompleted, &models.TaskReport{Compliance: report}, originalText)
}

// Fail marks a processing task as failed with an error payload
func (s *RedisTaskStore) Fail(ctx context.Context, taskID string, errReport *models.ErrorReport) error {
	return s.finish(ctx, taskID, models.TaskStatusFailed, &models.TaskReport{Error: errReport}, "")
}

func (s *RedisTaskStore) finish(ctx context.Context, taskID string, status models.TaskStatus, report *models.TaskReport, originalText string) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	res, err := redisFinishTaskScript.Run(ctx, s.client, []string{s.key(taskID)},
		string(status), string(reportJSON), originalText, time.Now().UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return fmt.Errorf("redis finish task error: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: %s", models.ErrTaskNotFound, taskID)
	default:
		return fmt.Errorf("%w: %s", models.ErrInvalidTransition, taskID)
	}
}

// Get loads a task by ID
func (s *RedisTaskStore) Get(ctx context.Context, taskID string) (*models.Task, error) {
	fields, err := s.client.HGetAll(ctx, s.key(taskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get task error: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTaskNotFound, taskID)
	}
	return taskFromHash(taskID, fields)
}

func taskFromHash(taskID string, fields map[string]string) (*models.Task, error) {
	task := &models.Task{
		ID:           taskID,
		Status:       models.TaskStatus(fields["status"]),
		Filename:     fields["filename"],
		NotifyEmail:  fields["notify_email"],
		OriginalText: fields["original_text"],
	}

	var err error
	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return nil, fmt.Errorf("task %s has invalid created_at: %w", taskID, err)
	}
	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return nil, fmt.Errorf("task %s has invalid updated_at: %w", taskID, err)
	}

	if raw := fields["report"]; raw != "" && raw != "null" {
		var report models.TaskReport
		if err := json.Unmarshal([]byte(raw), &report); err != nil {
			return nil, fmt.Errorf("task %s has invalid report: %w", taskID, err)
		}
		task.Report = &report
	}
	return task, nil
}
