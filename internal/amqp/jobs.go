package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind identifies the work a queued job requests.
type JobKind string

const (
	// JobSendEmail delivers a transactional email.
	JobSendEmail JobKind = "send_email"
	// JobAIInsight precomputes spending insights for a user.
	JobAIInsight JobKind = "ai_insight"
	// JobSheetsExport mirrors a user's expenses to a spreadsheet.
	JobSheetsExport JobKind = "sheets_export"
)

// Job is the wire envelope for one background task. Payload shape depends on
// Kind.
type Job struct {
	Kind      JobKind         `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EmailPayload is the payload of a JobSendEmail job.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// UserPayload is the payload of jobs keyed only by user.
type UserPayload struct {
	UserID int64 `json:"user_id"`
}

// NewJob builds a job envelope around the given payload.
func NewJob(kind JobKind, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Job{Kind: kind, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}

// ToJSON serializes the job for publishing.
func (j Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// JobFromJSON decodes a job envelope received from the queue.
func JobFromJSON(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("unmarshal job: %w", err)
	}
	if j.Kind == "" {
		return Job{}, fmt.Errorf("job missing kind")
	}
	return j, nil
}

// DecodePayload unmarshals the payload into out.
func (j Job) DecodePayload(out any) error {
	if err := json.Unmarshal(j.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return nil
}
