package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/models"
	"doc-compliance-checker/internal/utils"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementComplianceChecks holds one point per finished task
const MeasurementComplianceChecks = "compliance_checks"

// InfluxDBClient writes task metrics to InfluxDB
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxDBClient creates a new InfluxDB client and checks its health
func NewInfluxDBClient(cfg config.InfluxDBConfig) (*InfluxDBClient, error) {
	log.Printf("[INFLUX-INIT] Initializing InfluxDB 2.0 client: url=%s, org=%s, bucket=%s", cfg.URL, cfg.Org, cfg.Bucket)

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		log.Printf("[INFLUX-WARN] InfluxDB health check returned status: %s", health.Status)
	}

	return &InfluxDBClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		org:      cfg.Org,
		bucket:   cfg.Bucket,
	}, nil
}

// Close closes the InfluxDB client
func (c *InfluxDBClient) Close() {
	c.client.Close()
}

// RecordTask writes one compliance_checks point for a finished task.
// Write failures are logged; metrics never affect the task.
func (c *InfluxDBClient) RecordTask(ctx context.Context, task *models.Task, duration time.Duration, grammarFindings int) {
	point := taskPoint(task, duration, grammarFindings, time.Now())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		log.Printf("[INFLUX-ERROR] Failed to write task %s metrics (org=%s, bucket=%s): %v", task.ID, c.org, c.bucket, err)
	}
}

func taskPoint(task *models.Task, duration time.Duration, grammarFindings int, ts time.Time) *write.Point {
	tags := map[string]string{
		"status":    string(task.Status),
		"file_type": fileType(task.Filename),
	}
	fields := map[string]interface{}{
		"duration_ms":      duration.Milliseconds(),
		"grammar_findings": grammarFindings,
	}

	if task.Report != nil && task.Report.Compliance != nil {
		r := task.Report.Compliance
		tags["compliance_status"] = r.Summary.ComplianceStatus
		fields["overall_score"] = r.Summary.OverallScore
		fields["violations"] = len(r.Violations)
	}

	return influxdb2.NewPoint(MeasurementComplianceChecks, tags, fields, ts)
}

func fileType(filename string) string {
	if ext := strings.TrimPrefix(utils.FileExt(filename), "."); ext != "" {
		return ext
	}
	return "unknown"
}
