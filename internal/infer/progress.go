package infer

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Progress tracks completed calls out of a submitted total. It advances
// exactly once per completed call, success or failure alike.
type Progress struct {
	total     int64
	completed atomic.Int64
	logger    *zap.Logger
}

func newProgress(total int, logger *zap.Logger) *Progress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Progress{total: int64(total), logger: logger}
}

// Done marks one call as completed.
func (p *Progress) Done() {
	n := p.completed.Add(1)
	p.logger.Debug("prompt completed",
		zap.Int64("completed", n),
		zap.Int64("total", p.total))
}

// Completed returns the number of finished calls.
func (p *Progress) Completed() int {
	return int(p.completed.Load())
}
