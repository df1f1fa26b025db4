package eventbus_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/domain/event"
	"github.com/vivek-vibhuti/linkshrink/internal/eventbus"
)

type captureHandler struct {
	mu        sync.Mutex
	envelopes []*eventbus.Envelope
}

func (h *captureHandler) HandlerName() string { return "capture" }
func (h *captureHandler) EventName() string   { return event.LinkClickedName }

func (h *captureHandler) Handle(_ context.Context, envelope *eventbus.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.envelopes = append(h.envelopes, envelope)
	return nil
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.envelopes)
}

func TestEventBus_PublishReachesHandler(t *testing.T) {
	logger := eventbus.NewZapLoggerAdapter(zap.NewNop())
	bus := eventbus.NewEventBus(logger)
	defer bus.Close()

	router, err := eventbus.NewRouter(bus, logger)
	require.NoError(t, err)
	defer router.Close()

	handler := &captureHandler{}
	router.AddHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go router.Run(ctx)
	<-router.Running()

	clicked := event.NewLinkClicked(7, "abc12345", domain.ClickObservation{
		IP:        "203.0.113.9",
		UserAgent: "curl/8.0",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, bus.Publish(context.Background(), clicked))

	require.Eventually(t, func() bool {
		return handler.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := handler.envelopes[0]
	assert.Equal(t, clicked.EventID(), got.EventID)
	assert.Equal(t, event.LinkClickedName, got.EventName)

	var payload event.LinkClicked
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Equal(t, int64(7), payload.LinkID)
	assert.Equal(t, "abc12345", payload.ShortCode)
	assert.Equal(t, "203.0.113.9", payload.Observation.IP)
}

func TestEventToMessageRoundTrip(t *testing.T) {
	clicked := event.NewLinkClicked(3, "xyz00001", domain.ClickObservation{IP: "192.0.2.1"})

	msg, err := eventbus.EventToMessage(clicked)
	require.NoError(t, err)
	assert.Equal(t, clicked.EventID(), msg.UUID)
	assert.Equal(t, event.LinkClickedName, msg.Metadata.Get("event_name"))

	envelope, err := eventbus.MessageToEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, clicked.EventID(), envelope.EventID)
	assert.Equal(t, clicked.AggregateID(), envelope.AggregateID)
}
