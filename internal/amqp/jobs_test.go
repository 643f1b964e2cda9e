package amqp

import (
	"testing"
)

func TestJobEnvelopeRoundTrip(t *testing.T) {
	job, err := NewJob(JobSendEmail, EmailPayload{
		To:      "a@example.com",
		Subject: "Welcome",
		Body:    "hello",
	})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	data, err := job.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := JobFromJSON(data)
	if err != nil {
		t.Fatalf("JobFromJSON() error = %v", err)
	}
	if decoded.Kind != JobSendEmail {
		t.Errorf("Kind = %q, want %q", decoded.Kind, JobSendEmail)
	}

	var p EmailPayload
	if err := decoded.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if p.To != "a@example.com" || p.Subject != "Welcome" {
		t.Errorf("payload = %+v", p)
	}
}

func TestJobFromJSONRejectsMissingKind(t *testing.T) {
	if _, err := JobFromJSON([]byte(`{"payload":{}}`)); err == nil {
		t.Error("a job without a kind must be rejected")
	}
	if _, err := JobFromJSON([]byte(`not json`)); err == nil {
		t.Error("malformed JSON must be rejected")
	}
}
