package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scms/internal/model"
	"scms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchAllocation is one slice of an allocation result: a quantity drawn from
// a single batch. The batch snapshot is taken before the decrement so pricing
// can inspect expiry without another read.
type BatchAllocation struct {
	Batch         model.Batch
	QuantityTaken decimal.Decimal
}

// AllocationService selects batches to satisfy a requested quantity under the
// freshness-preserving rotation rules and commits the decrements through the
// ledger. Allocation is all-or-nothing: a request that cannot be fully
// satisfied applies no decrements at all.
type AllocationService interface {
	// Allocate runs the allocation in its own transaction.
	Allocate(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, strategy string) ([]BatchAllocation, error)
	// AllocateInTx runs inside the caller's transaction boundary, for callers
	// (order processing) that need several allocations to commit atomically.
	AllocateInTx(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, strategy string) ([]BatchAllocation, error)
	// Release returns previously reserved quantities to their batches. Used by
	// order processing to undo completed lines when a later line fails.
	Release(ctx context.Context, taken []BatchAllocation)
}

type allocationService struct {
	ledger    repository.LedgerRepository
	txManager repository.TransactionManager
}

func NewAllocationService(ledger repository.LedgerRepository, txManager repository.TransactionManager) AllocationService {
	return &allocationService{ledger: ledger, txManager: txManager}
}

func (s *allocationService) Allocate(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, strategy string) ([]BatchAllocation, error) {
	var allocations []BatchAllocation
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var allocErr error
		allocations, allocErr = s.AllocateInTx(txCtx, productID, quantity, strategy)
		return allocErr
	})
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (s *allocationService) AllocateInTx(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, strategy string) ([]BatchAllocation, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	strategy, err := normalizeStrategy(strategy)
	if err != nil {
		return nil, err
	}

	batches, err := s.ledger.ListAvailableBatches(ctx, productID, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to list available batches: %w", err)
	}

	// Pre-check total availability so an unfulfillable request fails before
	// any decrement is applied.
	available := decimal.Zero
	for _, b := range batches {
		available = available.Add(b.CurrentQuantity)
	}
	if available.LessThan(quantity) {
		return nil, ErrInsufficientStock
	}

	var taken []BatchAllocation
	remaining := quantity
	for _, batch := range batches {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, batch.CurrentQuantity)

		left, reserveErr := s.ledger.ReserveBatchQuantity(ctx, batch.ID, take)
		if reserveErr != nil {
			if errors.Is(reserveErr, repository.ErrReservationConflict) {
				s.releaseAll(ctx, taken)
				return nil, ErrConcurrencyConflict
			}
			s.releaseAll(ctx, taken)
			return nil, fmt.Errorf("failed to reserve from batch %s: %w", batch.ID, reserveErr)
		}

		if left.IsZero() {
			if statusErr := s.ledger.SetBatchStatus(ctx, batch.ID, model.BatchStatusDispatched); statusErr != nil {
				s.releaseAll(ctx, taken)
				return nil, fmt.Errorf("failed to dispatch drained batch %s: %w", batch.ID, statusErr)
			}
		}

		taken = append(taken, BatchAllocation{Batch: batch, QuantityTaken: take})
		remaining = remaining.Sub(take)
	}

	// The candidate list can shrink between listing and reserving when another
	// caller drains a batch down but not to the conflict threshold.
	if remaining.IsPositive() {
		s.releaseAll(ctx, taken)
		return nil, ErrConcurrencyConflict
	}

	return taken, nil
}

func (s *allocationService) Release(ctx context.Context, taken []BatchAllocation) {
	s.releaseAll(ctx, taken)
}

// releaseAll rolls back every reservation taken in this call, newest first.
func (s *allocationService) releaseAll(ctx context.Context, taken []BatchAllocation) {
	for i := len(taken) - 1; i >= 0; i-- {
		if err := s.ledger.ReleaseBatchQuantity(ctx, taken[i].Batch.ID, taken[i].QuantityTaken); err != nil {
			log.Printf("failed to release reservation on batch %s: %v", taken[i].Batch.ID, err)
		}
	}
}

func normalizeStrategy(strategy string) (string, error) {
	switch strategy {
	case "", model.StrategyFEFO:
		return model.StrategyFEFO, nil
	case model.StrategyFIFO:
		return model.StrategyFIFO, nil
	default:
		return "", ErrInvalidStrategy
	}
}
