// Package audit is the append-only sink for significant state
// transitions. Writes are best-effort: a failed audit insert is logged
// and never propagated into the surrounding domain operation.
package audit

import (
	"context"

	"go.uber.org/zap"

	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

// Sink records audit entries.
type Sink struct {
	store  store.Store
	logger *zap.Logger
}

func NewSink(s store.Store, logger *zap.Logger) *Sink {
	return &Sink{store: s, logger: logger}
}

// Entry is one audit record to append.
type Entry struct {
	TenantID    *string
	ActorUserID *string
	ActorType   model.ActorType
	Action      string
	EntityType  string
	EntityID    string
	Metadata    map[string]any
}

// Record appends an audit row. Failures are swallowed after logging.
func (s *Sink) Record(ctx context.Context, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("audit write panicked", zap.Any("panic", r), zap.String("action", e.Action))
		}
	}()

	row := &model.AuditLog{
		TenantID:    e.TenantID,
		ActorUserID: e.ActorUserID,
		ActorType:   e.ActorType,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Metadata:    e.Metadata,
	}
	if err := s.store.CreateAuditLog(ctx, row); err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", e.Action),
			zap.String("entityType", e.EntityType),
			zap.String("entityId", e.EntityID),
			zap.Error(err))
	}
}

// RecordWith appends a row through a specific store view, typically the
// transactional one passed down by the caller.
func (s *Sink) RecordWith(ctx context.Context, st store.Store, e Entry) {
	sink := Sink{store: st, logger: s.logger}
	sink.Record(ctx, e)
}
