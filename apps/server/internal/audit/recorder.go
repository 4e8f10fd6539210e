package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"homegame/table"
)

const recordTimeout = 3 * time.Second

// Recorder archives resolved hands on behalf of the lobby's hand-end hook.
type Recorder struct {
	svc Service
	log *zap.Logger
}

func NewRecorder(svc Service, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{svc: svc, log: log}
}

// Record stores one hand. Failures are logged and dropped; the table has
// already moved on.
func (r *Recorder) Record(tableID string, h *table.Hand, endedAt time.Time) {
	rec, err := NewRecord(tableID, h, endedAt)
	if err != nil {
		r.log.Warn("skipping unresolved hand", zap.String("table", tableID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.svc.RecordHand(ctx, rec); err != nil {
		r.log.Error("record hand failed",
			zap.String("table", tableID),
			zap.Int64("hand", rec.HandID),
			zap.Error(err),
		)
		return
	}
	r.log.Debug("hand archived", zap.String("table", tableID), zap.Int64("hand", rec.HandID), zap.String("id", rec.ID))
}
