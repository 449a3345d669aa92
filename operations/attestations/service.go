package attestations

import (
	"context"
	"time"

	"github.com/chainlayer/attestpool/consensus-types/primitives"
)

// Service wraps a Pool with the slot-tick loop a beacon node's clock
// drives, the same Start/Stop/Status shape as the teacher's
// beacon-chain/operations/attestations/service.go, generalized from
// that file's fixed prepareForkChoiceAtts/aggregateRoutine goroutines
// (gone now that grouping and aggregation happen inline in Pool.Add
// and Pool.Select) to a single OnSlot ticker plus a reorg channel.
type Service struct {
	ctx    context.Context
	cancel context.CancelFunc
	pool   Pool
	err    error

	secondsPerSlot time.Duration
	genesisTime    time.Time
	reorgs         chan primitives.Slot
}

// ServiceConfig options for the service.
type ServiceConfig struct {
	Pool           Pool
	SecondsPerSlot time.Duration
	GenesisTime    time.Time
}

// NewService instantiates an attestation pool service instance that
// will be registered into a running beacon node.
func NewService(ctx context.Context, cfg *ServiceConfig) (*Service, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		ctx:            ctx,
		cancel:         cancel,
		pool:           cfg.Pool,
		secondsPerSlot: cfg.SecondsPerSlot,
		genesisTime:    cfg.GenesisTime,
		reorgs:         make(chan primitives.Slot, 1),
	}, nil
}

// Start the attestation pool service's main event loop.
func (s *Service) Start() {
	go s.slotTickRoutine()
}

// Stop the attestation pool service's main event loop and associated
// goroutines.
func (s *Service) Stop() error {
	defer s.cancel()
	return nil
}

// Status returns the current service err if there's any.
func (s *Service) Status() error {
	if s.err != nil {
		return s.err
	}
	return nil
}

// ReportReorg notifies the service of a reorg whose common ancestor
// is commonAncestorSlot. The service loop goroutine, which also issues
// the OnSlot calls, forwards it to the pool as soon as it receives it,
// so the two are never issued concurrently. While one notification is
// pending, further ones are dropped.
func (s *Service) ReportReorg(commonAncestorSlot primitives.Slot) {
	select {
	case s.reorgs <- commonAncestorSlot:
	default:
		log.WithField("slot", commonAncestorSlot).Warn("dropped reorg notification, one already pending")
	}
}

func (s *Service) slotTickRoutine() {
	if s.secondsPerSlot <= 0 {
		return
	}
	ticker := time.NewTicker(s.secondsPerSlot)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case commonAncestorSlot := <-s.reorgs:
			s.pool.OnReorg(s.ctx, commonAncestorSlot)
		case <-ticker.C:
			s.pool.OnSlot(s.ctx, s.currentSlot())
		}
	}
}

func (s *Service) currentSlot() primitives.Slot {
	if s.genesisTime.IsZero() || s.secondsPerSlot <= 0 {
		return 0
	}
	elapsed := time.Since(s.genesisTime)
	if elapsed < 0 {
		return 0
	}
	return primitives.Slot(elapsed / s.secondsPerSlot)
}
