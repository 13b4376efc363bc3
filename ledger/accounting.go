package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// SetVerificationFee replaces the verification fee outright. Registrar only.
// The new fee applies to every subsequent verification payment; there is no
// snapshotting for in-flight calls since each call is atomic.
func (l *Ledger) SetVerificationFee(caller common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: fee must be a non-negative amount", interfaces.ErrInvalidArgument)
	}

	if err := l.emit(interfaces.Event{
		Type:   interfaces.EventFeeChanged,
		Caller: caller,
		Amount: new(big.Int).Set(amount),
	}); err != nil {
		return err
	}

	l.fee.Set(amount)
	l.log.Info("Verification fee changed", "fee", amount.String())
	return nil
}

// VerificationFee returns a copy of the current fee.
func (l *Ledger) VerificationFee() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.fee)
}

// VerifyTranscript verifies a finalized record against an exact-fee payment.
// Any caller may pay. Only finalized records are verifiable: an issued but
// unfinalized grade is not yet authoritative and fails with ErrNotFound
// regardless of the payment amount. The payment must equal the fee exactly;
// overpayment rejects as well, so nothing is ever silently over-collected
// and no partial refunds exist. On success the payment is escrowed and the
// verified record is returned to the caller.
func (l *Ledger) VerifyTranscript(caller, student common.Address, id interfaces.CourseID, payment *big.Int) (interfaces.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.records[pairKey{student, id}]
	if rec == nil || !rec.Finalized {
		return interfaces.Record{}, fmt.Errorf("%w: no finalized record for student %s course %d", interfaces.ErrNotFound, student.Hex(), id)
	}
	if payment == nil || payment.Sign() < 0 {
		return interfaces.Record{}, fmt.Errorf("%w: payment must be a non-negative amount", interfaces.ErrInvalidArgument)
	}
	if payment.Cmp(l.fee) != 0 {
		return interfaces.Record{}, fmt.Errorf("%w: paid %s, fee is %s", interfaces.ErrInsufficientPayment, payment.String(), l.fee.String())
	}

	if err := l.emit(interfaces.Event{
		Type:     interfaces.EventTranscriptVerified,
		Caller:   caller,
		Student:  student,
		CourseID: id,
		Amount:   new(big.Int).Set(payment),
	}); err != nil {
		return interfaces.Record{}, err
	}

	l.balance.Add(l.balance, payment)
	l.log.Info("Transcript verified", "verifier", caller.Hex(), "student", student.Hex(), "courseID", uint64(id), "amount", payment.String())
	return *rec, nil
}

// WithdrawFees drains the entire escrowed balance to the treasury. Registrar
// only. The balance is zeroed before the external transfer runs and the lock
// is released around it (checks-effects-interactions), so a transfer
// implementation that calls back into the ledger observes the drained
// balance and a reentrant withdraw fails with ErrInsufficientBalance. A
// failed transfer restores the balance and appends no event.
func (l *Ledger) WithdrawFees(caller common.Address) (*big.Int, error) {
	l.mu.Lock()
	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if l.balance.Sign() == 0 {
		l.mu.Unlock()
		return nil, interfaces.ErrInsufficientBalance
	}

	amount := new(big.Int).Set(l.balance)
	l.balance.SetInt64(0)
	l.mu.Unlock()

	if err := l.transfer(l.treasury, amount); err != nil {
		// Restore with Add rather than Set: payments escrowed by reentrant
		// verifications during the transfer must survive.
		l.mu.Lock()
		l.balance.Add(l.balance, amount)
		l.mu.Unlock()
		return nil, fmt.Errorf("treasury transfer failed: %w", err)
	}

	l.mu.Lock()
	err := l.emit(interfaces.Event{
		Type:     interfaces.EventFeesWithdrawn,
		Caller:   caller,
		Treasury: l.treasury,
		Amount:   new(big.Int).Set(amount),
	})
	l.mu.Unlock()
	if err != nil {
		// The transfer has already settled; the withdrawal stands even if
		// the log write failed. Surface it loudly for reconciliation.
		l.log.Error("Fees withdrawn but event append failed", "err", err, "amount", amount.String())
	}

	l.log.Info("Fees withdrawn", "treasury", l.treasury.Hex(), "amount", amount.String())
	return amount, nil
}
