package analytics

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const StreamName = "ANALYTICS"

// StreamManager is the subset of nats.JetStreamContext used by EnsureStream.
type StreamManager interface {
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// StreamConfig is the ANALYTICS stream definition: every analytics.> subject,
// file storage, kept for 30 days.
func StreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"analytics.>"},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
	}
}

// EnsureStream creates the ANALYTICS stream, or updates it when it already
// exists. Failures are logged; publishing still works against an existing stream.
func EnsureStream(js StreamManager, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := StreamConfig()
	_, err := js.AddStream(cfg)
	if err == nil {
		log.Info("analytics: stream created", zap.String("stream", StreamName))
		return
	}
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		if _, updateErr := js.UpdateStream(cfg); updateErr != nil {
			log.Warn("analytics: stream update failed (may already be up to date)", zap.Error(updateErr))
		}
		return
	}
	log.Warn("analytics: stream create failed", zap.Error(err))
}
