package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/yourname/sleeptoggle/internal"
)

// SamplePayload is the MQTT message body for one sample.
type SamplePayload struct {
	Sample SamplePayloadInner `json:"sample"`
}

type SamplePayloadInner struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Kind     string `json:"kind"`
	Value    int    `json:"value"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int64  `json:"duration_seconds"`
	Source   string `json:"source,omitempty"`
}

// FormatSamplePayload renders the JSON payload published for sample.
func FormatSamplePayload(sample *internal.SleepSample) ([]byte, error) {
	return json.Marshal(SamplePayload{
		Sample: SamplePayloadInner{
			ID:       sample.ID,
			Type:     "sleep_analysis",
			Kind:     string(sample.Kind),
			Value:    sample.Value,
			Start:    sample.StartTime.UTC().Format(time.RFC3339),
			End:      sample.EndTime.UTC().Format(time.RFC3339),
			Duration: int64(sample.EndTime.Sub(sample.StartTime) / time.Second),
			Source:   sample.Source,
		},
	})
}

const (
	publishTimeout = 5 * time.Second
	minPublishWait = 250 * time.Millisecond
)

// MQTTSink publishes samples to a broker topic.
type MQTTSink struct {
	client paho.Client
	topic  string
	perms  *Permissions
	logger internal.Logger
}

// NewMQTTSink connects to broker and returns a sink publishing to topic.
func NewMQTTSink(broker, clientID, topic string, perms *Permissions, logger internal.Logger) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return NewMQTTSinkWithClient(client, topic, perms, logger), nil
}

func NewMQTTSinkWithClient(client paho.Client, topic string, perms *Permissions, logger internal.Logger) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, perms: perms, logger: logger}
}

// Available reports whether the broker connection is up.
func (s *MQTTSink) Available() bool {
	return s.client.IsConnected()
}

func (s *MQTTSink) AuthorizationStatus(ctx context.Context, _ internal.IntervalKind) internal.AuthorizationStatus {
	return s.perms.Status(ctx)
}

func (s *MQTTSink) RequestAuthorization(ctx context.Context, share bool) (internal.AuthorizationStatus, error) {
	return s.perms.Set(ctx, share)
}

func (s *MQTTSink) Submit(ctx context.Context, sample *internal.SleepSample) error {
	payload, err := FormatSamplePayload(sample)
	if err != nil {
		return fmt.Errorf("%w: format payload: %w", internal.ErrSubmissionFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", internal.ErrSubmissionFailed, err)
	}

	// QoS 1, not retained
	token := s.client.Publish(s.topic, 1, false, payload)
	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), minPublishWait)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: publish timeout", internal.ErrSubmissionFailed)
	}
	if err := token.Error(); err != nil {
		s.logger.Errorf("health: failed to publish sample %s: %v", sample.ID, err)
		return fmt.Errorf("%w: publish: %w", internal.ErrSubmissionFailed, err)
	}
	s.logger.Infof("health: published %s sample %s to %s", sample.Kind, sample.ID, s.topic)
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000)
	return nil
}

var _ Sink = (*MQTTSink)(nil)
