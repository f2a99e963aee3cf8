package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaValidation(t *testing.T) {
	if _, err := NewKafka(KafkaConfig{Topic: "leads"}); err == nil {
		t.Fatal("expected error when brokers are missing")
	}
	if _, err := NewKafka(KafkaConfig{Brokers: []string{" ", "\t"}, Topic: "leads"}); err == nil {
		t.Fatal("expected error when brokers are blank")
	}
	if _, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}}); err == nil {
		t.Fatal("expected error when topic is missing")
	}

	k, err := NewKafka(KafkaConfig{Brokers: []string{" 127.0.0.1:9092 "}, Topic: "leads"})
	if err != nil {
		t.Fatalf("NewKafka: %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaPublishLeadCreated(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}

	lead := &domain.Lead{
		ID: "l1", PropertyID: "p1", AgentID: "a1", BuyerID: "b1",
		Message: "Hello", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	e, err := LeadCreated(lead)
	if err != nil {
		t.Fatalf("LeadCreated: %v", err)
	}
	if err := k.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "a1" {
		t.Fatalf("expected key a1, got %q", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != TypeLeadCreated {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			LeadID  string `json:"leadId"`
			AgentID string `json:"agentId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeLeadCreated || decoded.Data.LeadID != "l1" || decoded.Data.AgentID != "a1" {
		t.Fatalf("unexpected payload: %s", msg.Value)
	}
}

func TestKafkaPublishErrors(t *testing.T) {
	var nilKafka *Kafka
	if err := nilKafka.Publish(context.Background(), Event{}); err == nil {
		t.Fatal("expected error from nil publisher")
	}
	if err := nilKafka.Close(); err != nil {
		t.Fatalf("nil close should be a no-op, got %v", err)
	}

	w := &fakeWriter{err: errors.New("broker down")}
	k := &Kafka{writer: w}
	if err := k.Publish(context.Background(), Event{Type: TypeLeadCreated}); err == nil {
		t.Fatal("expected write error to propagate")
	}
	if err := k.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
}

func TestLogPublisher(t *testing.T) {
	var p Publisher = Log{}
	if err := p.Publish(context.Background(), Event{Type: TypeLeadCreated, Key: "a1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
