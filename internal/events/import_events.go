package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

type EventType string

const (
	EventQuestionImported   EventType = "question.imported"
	EventPartitionCompleted EventType = "partition.completed"
)

const (
	eventSource  = "sat-import-service"
	eventVersion = "1.0"
)

// ImportEvent is the envelope published for import lifecycle events.
type ImportEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	PartitionKey string `json:"partition_key"`

	// question.imported payload
	Origin     string `json:"origin,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	IBN        string `json:"ibn,omitempty"`
	SkillID    string `json:"skill_id,omitempty"`

	// partition.completed payload
	TotalQuestions int `json:"total_questions,omitempty"`
	Imported       int `json:"imported,omitempty"`
	Duplicates     int `json:"duplicates,omitempty"`
	Skipped        int `json:"skipped,omitempty"`
	Failed         int `json:"failed,omitempty"`
}

// NewQuestionImportedEvent builds the event published after each persisted
// record.
func NewQuestionImportedEvent(partitionKey, origin, externalID, ibn, skillID string) *ImportEvent {
	return &ImportEvent{
		ID:           watermill.NewUUID(),
		Type:         EventQuestionImported,
		Source:       eventSource,
		Version:      eventVersion,
		Timestamp:    time.Now().UTC(),
		PartitionKey: partitionKey,
		Origin:       origin,
		ExternalID:   externalID,
		IBN:          ibn,
		SkillID:      skillID,
	}
}

// NewPartitionCompletedEvent builds the event published when a partition's
// next index reaches its total.
func NewPartitionCompletedEvent(partitionKey string, total, imported, duplicates, skipped, failed int) *ImportEvent {
	return &ImportEvent{
		ID:             watermill.NewUUID(),
		Type:           EventPartitionCompleted,
		Source:         eventSource,
		Version:        eventVersion,
		Timestamp:      time.Now().UTC(),
		PartitionKey:   partitionKey,
		TotalQuestions: total,
		Imported:       imported,
		Duplicates:     duplicates,
		Skipped:        skipped,
		Failed:         failed,
	}
}
