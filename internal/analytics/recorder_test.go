package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vivek-vibhuti/linkshrink/internal/analytics"
	"github.com/vivek-vibhuti/linkshrink/internal/domain"
)

type staticGeo struct{ country string }

func (g staticGeo) ResolveCountry(string) string { return g.country }

func newRecorder(t *testing.T, env *testEnv, country string) (*analytics.Recorder, *analytics.Scheduler) {
	t.Helper()
	scheduler := analytics.NewScheduler(env.aggregator, 10*time.Millisecond, zap.NewNop())
	return analytics.NewRecorder(env.clicks, staticGeo{country: country}, scheduler, zap.NewNop()), scheduler
}

func TestRecorder_Record(t *testing.T) {
	env := setupEnv(t)
	link := env.newLink(t, "rec00001")
	recorder, _ := newRecorder(t, env, "US")

	err := recorder.Record(context.Background(), link.ID, domain.ClickObservation{
		IP:        "203.0.113.77",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
		Referrer:  "https://www.google.com/search?q=x",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	log, err := env.clicks.ListByLink(context.Background(), link.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)

	got := log[0]
	assert.Equal(t, "203.0.113.0", got.IP, "IPv4 is coarsened to its /24")
	assert.Equal(t, "Chrome", got.Browser)
	assert.Equal(t, "Windows", got.OS)
	assert.Equal(t, domain.DeviceDesktop, got.Device)
	assert.Equal(t, "www.google.com", got.Referrer)
	assert.Equal(t, "US", got.Country)
}

func TestRecorder_DegradesToUnknown(t *testing.T) {
	env := setupEnv(t)
	link := env.newLink(t, "rec00002")
	recorder, _ := newRecorder(t, env, "Unknown")

	err := recorder.Record(context.Background(), link.ID, domain.ClickObservation{
		IP:        "not-an-ip",
		UserAgent: "",
		Referrer:  "",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	log, err := env.clicks.ListByLink(context.Background(), link.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)

	got := log[0]
	assert.Empty(t, got.IP)
	assert.Equal(t, domain.UnknownValue, got.Browser)
	assert.Equal(t, domain.UnknownValue, got.OS)
	assert.Equal(t, domain.DeviceDesktop, got.Device)
	assert.Equal(t, domain.DirectReferrer, got.Referrer)
	assert.Equal(t, domain.UnknownValue, got.Country)
}

func TestRecorder_IPv6Coarsened(t *testing.T) {
	env := setupEnv(t)
	link := env.newLink(t, "rec00003")
	recorder, _ := newRecorder(t, env, "Unknown")

	err := recorder.Record(context.Background(), link.ID, domain.ClickObservation{
		IP:        "2001:db8:abcd:1234::1",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	log, err := env.clicks.ListByLink(context.Background(), link.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2001:db8:abcd::", log[0].IP, "IPv6 is coarsened to its /48")
}

func TestScheduler_CoalescesAndFlushes(t *testing.T) {
	env := setupEnv(t)
	link := env.newLink(t, "sch00001")
	recorder, scheduler := newRecorder(t, env, "US")

	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(context.Background(), link.ID, domain.ClickObservation{
			IP:        "203.0.113.9",
			UserAgent: "curl/8.0",
			Timestamp: time.Now(),
		}))
	}

	scheduler.Flush(context.Background())

	snapshot, err := env.aggregator.Snapshot(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snapshot.TotalClicks)
	assert.Equal(t, int64(1), snapshot.UniqueVisitors)
}

func TestScheduler_RunFlushesDirtyLinks(t *testing.T) {
	env := setupEnv(t)
	link := env.newLink(t, "sch00002")
	recorder, scheduler := newRecorder(t, env, "US")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(done)
	}()

	require.NoError(t, recorder.Record(context.Background(), link.ID, domain.ClickObservation{
		IP:        "203.0.113.9",
		Timestamp: time.Now(),
	}))

	require.Eventually(t, func() bool {
		snapshot, err := env.aggregator.Snapshot(context.Background(), link.ID)
		return err == nil && snapshot.TotalClicks == 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
