// Package audit persists an append-only log of disk lifecycle events,
// generalizing the teacher's db/database.go + repositories/audit_repository.go
// + services/audit_service.go trio from "user/group actions" to "disk
// lifecycle events". Purely observability: nothing in the domain
// invariants depends on this store being present or caught up.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// EventType enumerates the disk lifecycle events worth recording.
type EventType string

const (
	EventCreate          EventType = "create"
	EventRemove          EventType = "remove"
	EventQuotaRejected   EventType = "quota_rejected"
	EventLifespanExpired EventType = "lifespan_expired"
)

// Event is one row in the disk_audit_events table.
type Event struct {
	ID        uint      `gorm:"primaryKey"`
	DiskID    string    `gorm:"index"`
	Org       string    `gorm:"index"`
	Project   string    `gorm:"index"`
	Type      EventType `gorm:"index"`
	Snapshot  datatypes.JSON
	CreatedAt time.Time
}

func (Event) TableName() string { return "disk_audit_events" }

// Store wraps a *gorm.DB scoped to disk audit events.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres via the given DSN and ensures the audit table
// exists, mirroring the teacher's db.Init auto-migrate pattern.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to audit database: %w", err)
	}
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one audit event.
func (s *Store) Record(ctx context.Context, diskID, org, project string, eventType EventType, snapshot map[string]string) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}
	event := Event{
		DiskID:   diskID,
		Org:      org,
		Project:  project,
		Type:     eventType,
		Snapshot: datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// ListForDisk returns every recorded event for a disk, most recent first.
func (s *Store) ListForDisk(ctx context.Context, diskID string) ([]Event, error) {
	var events []Event
	if err := s.db.WithContext(ctx).Where("disk_id = ?", diskID).Order("created_at desc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list audit events for disk %q: %w", diskID, err)
	}
	return events, nil
}
