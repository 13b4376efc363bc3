// Package ledger implements the permissioned transcript and attendance
// ledger: role grants, the course and enrollment directory, the grade record
// lifecycle, the append-only attendance log, and fee escrow accounting.
//
// The ledger owns all of its state exclusively. A single mutex serializes
// every mutating operation so state transitions form one global sequence;
// reads take the same mutex briefly and return copies, never internal
// references.
//
// Each operation is atomic. Validation runs first, then exactly one event is
// appended to the configured sink, then state is mutated. An error anywhere
// leaves both the state and the event log untouched. The one exception to
// strict in-lock execution is the withdrawal settlement: the escrowed
// balance is zeroed and the lock released before the external transfer runs
// (checks-effects-interactions), so a reentrant call issued from inside the
// transfer observes the already drained balance.
package ledger
