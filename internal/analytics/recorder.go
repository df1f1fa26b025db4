package analytics

import (
	"context"
	"encoding/json"
	"net"

	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/domain"
	"github.com/vivek-vibhuti/linkshrink/internal/domain/event"
	"github.com/vivek-vibhuti/linkshrink/internal/eventbus"
	"github.com/vivek-vibhuti/linkshrink/internal/geoip"
	"github.com/vivek-vibhuti/linkshrink/internal/metrics"
)

// Recorder normalizes raw click observations and appends them to the click
// log. Malformed fields degrade to Unknown instead of failing the write:
// click loss is worse than imprecise classification.
type Recorder struct {
	clicks    ClickRepository
	geo       geoip.Resolver
	scheduler *Scheduler
	logger    *zap.Logger
}

// NewRecorder creates a new click recorder.
func NewRecorder(clicks ClickRepository, geo geoip.Resolver, scheduler *Scheduler, logger *zap.Logger) *Recorder {
	return &Recorder{
		clicks:    clicks,
		geo:       geo,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Record normalizes the observation, appends one immutable click event, and
// marks the link dirty so the aggregator eventually folds it in.
func (r *Recorder) Record(ctx context.Context, linkID int64, obs domain.ClickObservation) error {
	cls := ClassifyUserAgent(obs.UserAgent)
	ip := coarsenIP(obs.IP)

	country := domain.UnknownValue
	if c := r.geo.ResolveCountry(obs.IP); c != "" {
		country = c
	}

	click := &domain.ClickEvent{
		LinkID:    linkID,
		IP:        ip,
		UserAgent: obs.UserAgent,
		Referrer:  NormalizeReferrer(obs.Referrer),
		Browser:   cls.Browser,
		OS:        cls.OS,
		Device:    cls.Device,
		Country:   country,
		ClickedAt: obs.Timestamp.UTC(),
	}

	if err := r.clicks.Append(ctx, click); err != nil {
		return err
	}

	metrics.ClicksRecordedTotal.Inc()
	r.scheduler.MarkDirty(linkID)
	return nil
}

// HandlerName implements eventbus.Handler.
func (r *Recorder) HandlerName() string {
	return "click-recorder"
}

// EventName implements eventbus.Handler.
func (r *Recorder) EventName() string {
	return event.LinkClickedName
}

// Handle consumes a LinkClicked event from the click pipeline.
func (r *Recorder) Handle(ctx context.Context, envelope *eventbus.Envelope) error {
	var e event.LinkClicked
	if err := json.Unmarshal(envelope.Payload, &e); err != nil {
		r.logger.Error("malformed click event payload",
			zap.String("event_id", envelope.EventID),
			zap.Error(err),
		)
		return nil // not retryable
	}

	if err := r.Record(ctx, e.LinkID, e.Observation); err != nil {
		r.logger.Error("failed to record click",
			zap.Int64("link_id", e.LinkID),
			zap.String("short_code", e.ShortCode),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// coarsenIP bounds how precisely a visitor is identified: IPv4 keeps a /24,
// IPv6 a /48. Unparseable addresses come back empty.
func coarsenIP(raw string) string {
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}
