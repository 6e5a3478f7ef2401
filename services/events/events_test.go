package events

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewPublisherWithoutBrokers(t *testing.T) {
	p := NewPublisher([]string{"", "  "}, "counsel", zap.NewNop())
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("expected NopPublisher, got %T", p)
	}
	if err := p.Publish(context.Background(), AppointmentCreated, "1", nil); err != nil {
		t.Errorf("NopPublisher.Publish returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("NopPublisher.Close returned %v", err)
	}
}

func TestTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "counsel", zap.NewNop())
	defer p.Close()

	kp, ok := p.(*KafkaPublisher)
	if !ok {
		t.Fatalf("expected *KafkaPublisher, got %T", p)
	}
	if got := kp.Topic(RecordCreated); got != "counsel.record.created" {
		t.Errorf("Topic = %q", got)
	}
	kp.prefix = ""
	if got := kp.Topic(RecordCreated); got != RecordCreated {
		t.Errorf("Topic without prefix = %q", got)
	}
}

func TestEmitNilPublisher(t *testing.T) {
	// must not panic
	Emit(nil, zap.NewNop(), AppointmentStatusChanged, "1", nil)
}
