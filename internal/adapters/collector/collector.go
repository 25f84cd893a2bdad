// Package collector defines the contract for fetching normalized per-post
// metrics from platform APIs. Platform-specific auth and request handling
// live entirely behind this interface.
package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/sociometry/pulse/internal/domain/model"
)

// Collector fetches one post's metrics from a platform.
type Collector interface {
	// CollectMetrics returns a canonical metrics record for the post.
	// credentialRef names the stored credential to authenticate with; the
	// engine never sees raw tokens.
	CollectMetrics(ctx context.Context, platform model.Platform, credentialRef, postID string) (model.MetricsRecord, error)
}

// Default stub latency bounds, modeling a platform API round trip.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 80 * time.Millisecond
)

// Stub implements Collector with deterministic synthetic metrics, keyed by
// (platform, post). Used for demos and load testing in place of real
// platform clients.
type Stub struct {
	minLatency time.Duration
	maxLatency time.Duration
	now        func() time.Time
}

// StubOption applies a configuration option to the Stub.
type StubOption func(*Stub)

// WithLatencyRange sets the simulated API latency bounds.
func WithLatencyRange(minLatency, maxLatency time.Duration) StubOption {
	return func(s *Stub) {
		if minLatency > 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithClock overrides the observation time source.
func WithClock(now func() time.Time) StubOption {
	return func(s *Stub) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStub creates a stub collector with configuration options.
func NewStub(opts ...StubOption) *Stub {
	s := &Stub{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CollectMetrics implements Collector.
func (s *Stub) CollectMetrics(ctx context.Context, platform model.Platform, _ string, postID string) (model.MetricsRecord, error) {
	if !platform.Valid() {
		return model.MetricsRecord{}, fmt.Errorf("%w: unknown platform %q", model.ErrValidation, platform)
	}

	// Deterministic per (platform, post) so repeated collections agree.
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(platform) + "/" + postID))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // synthetic data, not crypto

	latency := s.minLatency + time.Duration(rng.Int63n(int64(s.maxLatency-s.minLatency)))
	select {
	case <-ctx.Done():
		return model.MetricsRecord{}, fmt.Errorf("collect cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	views := 500 + rng.Int63n(50_000)
	rec := model.MetricsRecord{
		Platform: platform,
		PostID:   postID,
		Metrics: model.Metrics{
			Views:    views,
			Comments: rng.Int63n(views / 50),
			Shares:   rng.Int63n(views / 100),
		},
		Timestamp: s.now(),
	}

	switch platform {
	case model.PlatformFacebook:
		rec.Metrics.Reactions = rng.Int63n(views / 10)
	case model.PlatformTikTok, model.PlatformInstagram:
		rec.Metrics.Likes = rng.Int63n(views / 10)
		rec.Metrics.Saves = rng.Int63n(views / 200)
	default:
		rec.Metrics.Likes = rng.Int63n(views / 10)
	}

	return rec, nil
}
