package ingestion

import (
	"context"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/gin-gonic/gin"
)

// EnvelopeProcessor evaluates one envelope and delivers the alerts it fires.
type EnvelopeProcessor interface {
	OnEnvelope(ctx context.Context, env v1.Envelope) ([]v1.Alert, error)
}

type Service struct {
	proc             EnvelopeProcessor
	maxBodySizeBytes int
	now              func() time.Time
}

func NewService(proc EnvelopeProcessor, maxBodySizeMB int) *Service {
	if proc == nil {
		panic("ingestion: processor must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		proc:             proc,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers the ingestion routes. middleware runs before the
// handler, typically the bearer auth check.
func (s *Service) RegisterRoutes(r gin.IRouter, middleware ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, middleware...), s.IngestHandler)
	r.POST("/v1/envelopes", handlers...)
}
