package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"lms/internal/config"

	ps "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestNewPublisherInvalidProject(t *testing.T) {
	cfg := &config.Config{GCPProjectID: ""}
	if _, err := NewPublisher(context.Background(), cfg); err == nil {
		t.Fatal("expected error when project ID is empty")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	id, err := PublishJSON(context.Background(), pub, "enrollments", map[string]string{"event": "enrollment.submitted"})
	if err != nil {
		t.Fatalf("PublishJSON returned error: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty message ID, got %q", id)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["topic"] != "enrollments" {
		t.Errorf("expected topic 'enrollments', got %v", entry["topic"])
	}
	if !strings.Contains(buf.String(), "enrollment.submitted") {
		t.Errorf("expected payload in log line, got %s", buf.String())
	}
}

type recordingPublisher struct {
	topic   string
	payload []byte
}

func (r *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	r.topic = topic
	r.payload = payload
	return "1", nil
}

func TestPublishJSONMarshalError(t *testing.T) {
	rec := &recordingPublisher{}
	if _, err := PublishJSON(context.Background(), rec, "t", make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if rec.topic != "" {
		t.Fatal("publisher must not be called on marshal error")
	}
}

func TestPublishReusesTopic(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := ps.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.CreateTopic(ctx, "enrollments"); err != nil {
		t.Fatalf("failed to create topic: %v", err)
	}
	pub := &PubSubPublisher{client: client}

	for i := 0; i < 3; i++ {
		if _, err := PublishJSON(ctx, pub, "enrollments", map[string]int{"n": i}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}
	if len(pub.topics) != 1 {
		t.Fatalf("expected one cached topic, got %d", len(pub.topics))
	}
	if got := len(srv.Messages()); got != 3 {
		t.Errorf("expected 3 messages on the server, got %d", got)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if len(pub.topics) != 0 {
		t.Errorf("expected topics to be released on Close, got %d", len(pub.topics))
	}
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	cfg := &config.Config{GCPProjectID: "test-project", PubSubEmulatorHost: emulator}
	pub, err := NewPublisher(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create PubSubPublisher: %v", err)
	}
	defer pub.Close()

	topicName := "test-enrollments"
	topic, err := pub.client.CreateTopic(ctx, topicName)
	if err != nil {
		t.Fatalf("failed to create topic: %v", err)
	}
	sub, err := pub.client.CreateSubscription(ctx, "test-enrollments-sub", ps.SubscriptionConfig{Topic: topic})
	if err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}

	msgID, err := PublishJSON(ctx, pub, topicName, map[string]string{"event": "enrollment.approved"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if msgID == "" {
		t.Fatal("expected non-empty message ID")
	}

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan []byte, 1)
	go func() {
		sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			c <- m.Data
			m.Ack()
			cancel()
		})
	}()

	select {
	case data := <-c:
		if !strings.Contains(string(data), "enrollment.approved") {
			t.Fatalf("unexpected message data %s", string(data))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
