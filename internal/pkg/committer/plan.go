// Package committer implements the Golden Mutation Pattern for Spanner transactions.
//
// Repositories never write. They return *spanner.Mutation values, usecases
// collect them into a CommitPlan, and the Committer applies the plan in one
// transaction so a price, its history row and its outbox events land together.
//
//	plan := committer.NewPlan()
//	plan.Add(priceRepo.UpdatePriceMut(productID, price, compareAt, version))
//	plan.Add(priceRepo.AppendHistoryMut(entry))
//	plan.Add(outboxRepo.InsertMut(event))
//	err := c.ApplyWithVersionCheck(ctx, committer.VersionGuard{...}, plan)
package committer

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/spanner"
)

// ErrVersionMismatch is returned by ApplyWithVersionCheck when the guarded
// row's version differs from the expected one.
var ErrVersionMismatch = errors.New("version mismatch")

// CommitPlan is a typed wrapper around Spanner mutations for the Golden Mutation Pattern.
type CommitPlan struct {
	mutations []*spanner.Mutation
}

// NewPlan creates a new empty CommitPlan.
func NewPlan() *CommitPlan {
	return &CommitPlan{
		mutations: make([]*spanner.Mutation, 0),
	}
}

// Add adds a mutation to the plan.
// Nil mutations are silently ignored for convenience.
func (cp *CommitPlan) Add(mut *spanner.Mutation) {
	if mut != nil {
		cp.mutations = append(cp.mutations, mut)
	}
}

// AddMultiple adds multiple mutations to the plan.
func (cp *CommitPlan) AddMultiple(muts []*spanner.Mutation) {
	for _, mut := range muts {
		cp.Add(mut)
	}
}

// Mutations returns all collected mutations.
func (cp *CommitPlan) Mutations() []*spanner.Mutation {
	return cp.mutations
}

// IsEmpty returns true if the plan has no mutations.
func (cp *CommitPlan) IsEmpty() bool {
	return len(cp.mutations) == 0
}

// Count returns the number of mutations in the plan.
func (cp *CommitPlan) Count() int {
	return len(cp.mutations)
}

// VersionGuard names the row and column an optimistic lock is checked against.
type VersionGuard struct {
	Table    string
	Key      spanner.Key
	Column   string
	Expected int64
}

// Check is a precondition read inside the committing transaction. A non-nil
// error aborts the commit and is returned wrapped.
type Check func(ctx context.Context, txn *spanner.ReadWriteTransaction) error

// Committer provides transaction execution for CommitPlans.
type Committer struct {
	client *spanner.Client
}

// NewCommitter creates a new Committer.
func NewCommitter(client *spanner.Client) *Committer {
	return &Committer{client: client}
}

// Apply executes the CommitPlan atomically.
func (c *Committer) Apply(ctx context.Context, plan *CommitPlan) error {
	if plan.IsEmpty() {
		return nil
	}

	if _, err := c.client.Apply(ctx, plan.Mutations()); err != nil {
		return fmt.Errorf("failed to apply commit plan: %w", err)
	}
	return nil
}

// ApplyWithReadWriteTransaction runs fn in a read-write transaction.
// Use it when mutations depend on reads made in the same transaction.
func (c *Committer) ApplyWithReadWriteTransaction(ctx context.Context, fn func(context.Context, *spanner.ReadWriteTransaction) error) error {
	if _, err := c.client.ReadWriteTransaction(ctx, fn); err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// ApplyWithVersionCheck buffers the plan only if the guarded row is still at
// guard.Expected and every check passes. Returns an error wrapping
// ErrVersionMismatch on a version change; a missing row surfaces as a
// codes.NotFound Spanner error.
func (c *Committer) ApplyWithVersionCheck(ctx context.Context, guard VersionGuard, plan *CommitPlan, checks ...Check) error {
	if plan.IsEmpty() {
		return nil
	}

	_, err := c.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, guard.Table, guard.Key, []string{guard.Column})
		if err != nil {
			return fmt.Errorf("failed to read %s version: %w", guard.Table, err)
		}

		var current int64
		if err := row.Column(0, &current); err != nil {
			return fmt.Errorf("failed to parse version: %w", err)
		}
		if current != guard.Expected {
			return fmt.Errorf("%w: expected %d, got %d", ErrVersionMismatch, guard.Expected, current)
		}
		for _, check := range checks {
			if err := check(ctx, txn); err != nil {
				return err
			}
		}

		return txn.BufferWrite(plan.Mutations())
	})
	if err != nil {
		return fmt.Errorf("failed to apply commit plan with version check: %w", err)
	}
	return nil
}
