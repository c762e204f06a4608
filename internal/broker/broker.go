package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"portfolio-gallery/internal/domain"
)

var ErrInvalidMessage = errors.New("invalid broker message")

// EncodeTask returns the message key and value for a regeneration task.
// Tasks are keyed by id so redeliveries land on the same partition.
func EncodeTask(task *domain.RegenerationTask) ([]byte, []byte, error) {
	if strings.TrimSpace(task.ID) == "" {
		return nil, nil, fmt.Errorf("%w: task id is empty", ErrInvalidMessage)
	}

	value, err := json.Marshal(task)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return []byte(task.ID), value, nil
}

func DecodeTask(value []byte) (*domain.RegenerationTask, error) {
	var task domain.RegenerationTask
	if err := json.Unmarshal(value, &task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(task.ID) == "" {
		return nil, fmt.Errorf("%w: task id is empty", ErrInvalidMessage)
	}
	return &task, nil
}

// EncodeReport returns the message key and value for a finished run.
func EncodeReport(report *domain.GenerationReport) ([]byte, []byte, error) {
	value, err := json.Marshal(report)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return []byte(report.RunID), value, nil
}

func DecodeReport(value []byte) (*domain.GenerationReport, error) {
	var report domain.GenerationReport
	if err := json.Unmarshal(value, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &report, nil
}
