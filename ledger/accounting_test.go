package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuschain/transcript-ledger-backend/eventlog"
	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// finalizedLedger returns a ledger with course 101 seeded, grade A issued
// and finalized, and the verification fee set to 10.
func finalizedLedger(t *testing.T) (*Ledger, *eventlog.MemoryLog) {
	t.Helper()
	l, events := newTestLedger(t)
	seedPair(t, l)
	require.NoError(t, l.IssueGrade(teacher, student, course101, "A", ""))
	require.NoError(t, l.FinalizeRecord(registrar, student, course101))
	require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
	return l, events
}

func TestSetVerificationFee(t *testing.T) {
	l, _ := newTestLedger(t)

	t.Run("defaults to zero", func(t *testing.T) {
		assert.Zero(t, l.VerificationFee().Sign())
	})

	t.Run("registrar sets fee", func(t *testing.T) {
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
		assert.Equal(t, "10", l.VerificationFee().String())
	})

	t.Run("replacement not accumulation", func(t *testing.T) {
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(3)))
		assert.Equal(t, "3", l.VerificationFee().String())
	})

	t.Run("zero fee allowed", func(t *testing.T) {
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(0)))
		assert.Zero(t, l.VerificationFee().Sign())
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		err := l.SetVerificationFee(registrar, big.NewInt(-1))
		assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
	})

	t.Run("non-registrar rejected", func(t *testing.T) {
		err := l.SetVerificationFee(stranger, big.NewInt(5))
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("returned fee is a copy", func(t *testing.T) {
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
		fee := l.VerificationFee()
		fee.SetInt64(999)
		assert.Equal(t, "10", l.VerificationFee().String())
	})
}

func TestVerifyTranscript(t *testing.T) {
	t.Run("unfinalized record is NotFound regardless of payment", func(t *testing.T) {
		l, _ := newTestLedger(t)
		seedPair(t, l)
		require.NoError(t, l.IssueGrade(teacher, student, course101, "A", ""))
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))

		for _, payment := range []int64{0, 10, 100} {
			_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(payment))
			assert.ErrorIs(t, err, interfaces.ErrNotFound)
		}
		assert.Zero(t, l.EscrowedBalance().Sign())
	})

	t.Run("exact payment only", func(t *testing.T) {
		l, _ := finalizedLedger(t)

		for _, payment := range []int64{0, 9, 11} {
			_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(payment))
			assert.ErrorIs(t, err, interfaces.ErrInsufficientPayment, "payment %d", payment)
		}
		assert.Zero(t, l.EscrowedBalance().Sign())

		rec, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)
		assert.Equal(t, "A", rec.Grade)
		assert.True(t, rec.Finalized)
		assert.Equal(t, "10", l.EscrowedBalance().String())
	})

	t.Run("payments accumulate", func(t *testing.T) {
		l, _ := finalizedLedger(t)

		for i := 0; i < 3; i++ {
			_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
			require.NoError(t, err)
		}
		assert.Equal(t, "30", l.EscrowedBalance().String())
	})

	t.Run("nil or negative payment rejected", func(t *testing.T) {
		l, _ := finalizedLedger(t)

		_, err := l.VerifyTranscript(stranger, student, course101, nil)
		assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
		_, err = l.VerifyTranscript(stranger, student, course101, big.NewInt(-10))
		assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
	})

	t.Run("zero fee verifies with zero payment", func(t *testing.T) {
		l, _ := finalizedLedger(t)
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(0)))

		_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(0))
		assert.NoError(t, err)
		assert.Zero(t, l.EscrowedBalance().Sign())
	})
}

func TestWithdrawFees(t *testing.T) {
	t.Run("registrar only", func(t *testing.T) {
		l, _ := finalizedLedger(t)
		_, err := l.WithdrawFees(stranger)
		assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
	})

	t.Run("empty escrow", func(t *testing.T) {
		l, _ := finalizedLedger(t)
		_, err := l.WithdrawFees(registrar)
		assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)
	})

	t.Run("drains entire balance", func(t *testing.T) {
		l, events := finalizedLedger(t)
		_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)
		_, err = l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)

		amount, err := l.WithdrawFees(registrar)
		require.NoError(t, err)
		assert.Equal(t, "20", amount.String())
		assert.Zero(t, l.EscrowedBalance().Sign())

		evs := allEvents(t, events)
		last := evs[len(evs)-1]
		assert.Equal(t, interfaces.EventFeesWithdrawn, last.Type)
		assert.Equal(t, treasury, last.Treasury)
		assert.Equal(t, "20", last.Amount.String())

		_, err = l.WithdrawFees(registrar)
		assert.ErrorIs(t, err, interfaces.ErrInsufficientBalance)
	})

	t.Run("failed transfer restores balance and emits nothing", func(t *testing.T) {
		events := eventlog.NewMemoryLog()
		l, err := New(Config{
			Registrar: registrar,
			Treasury:  treasury,
			Events:    events,
			Transfer: func(to common.Address, amount *big.Int) error {
				return errors.New("settlement rejected")
			},
		})
		require.NoError(t, err)
		seedPair(t, l)
		require.NoError(t, l.IssueGrade(teacher, student, course101, "A", ""))
		require.NoError(t, l.FinalizeRecord(registrar, student, course101))
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
		_, err = l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)

		before := len(allEvents(t, events))
		_, err = l.WithdrawFees(registrar)
		require.Error(t, err)
		assert.Equal(t, "10", l.EscrowedBalance().String())
		assert.Len(t, allEvents(t, events), before)
	})

	t.Run("reentrant withdraw observes drained balance", func(t *testing.T) {
		events := eventlog.NewMemoryLog()
		var l *Ledger
		var reentrantErr error
		transfers := 0

		ledg, err := New(Config{
			Registrar: registrar,
			Treasury:  treasury,
			Events:    events,
			Transfer: func(to common.Address, amount *big.Int) error {
				transfers++
				if transfers == 1 {
					_, reentrantErr = l.WithdrawFees(registrar)
				}
				return nil
			},
		})
		require.NoError(t, err)
		l = ledg

		seedPair(t, l)
		require.NoError(t, l.IssueGrade(teacher, student, course101, "A", ""))
		require.NoError(t, l.FinalizeRecord(registrar, student, course101))
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
		_, err = l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)

		amount, err := l.WithdrawFees(registrar)
		require.NoError(t, err)
		assert.Equal(t, "10", amount.String())
		assert.Equal(t, 1, transfers)
		assert.ErrorIs(t, reentrantErr, interfaces.ErrInsufficientBalance)
		assert.Zero(t, l.EscrowedBalance().Sign())
	})

	t.Run("verification during transfer survives withdrawal", func(t *testing.T) {
		events := eventlog.NewMemoryLog()
		var l *Ledger

		ledg, err := New(Config{
			Registrar: registrar,
			Treasury:  treasury,
			Events:    events,
			Transfer: func(to common.Address, amount *big.Int) error {
				_, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
				return err
			},
		})
		require.NoError(t, err)
		l = ledg

		seedPair(t, l)
		require.NoError(t, l.IssueGrade(teacher, student, course101, "A", ""))
		require.NoError(t, l.FinalizeRecord(registrar, student, course101))
		require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))
		_, err = l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
		require.NoError(t, err)

		amount, err := l.WithdrawFees(registrar)
		require.NoError(t, err)
		assert.Equal(t, "10", amount.String())
		// The mid-transfer payment stays escrowed for the next withdrawal.
		assert.Equal(t, "10", l.EscrowedBalance().String())
	})
}

func TestEndToEndScenario(t *testing.T) {
	l, events := newTestLedger(t)

	require.NoError(t, l.AddCourse(registrar, course101, "Distributed Systems 101", teacher))
	require.NoError(t, l.RegisterStudent(registrar, student))
	require.NoError(t, l.EnrollInCourse(registrar, student, course101))
	require.NoError(t, l.MarkAttendance(teacher, student, course101, 1700000000, interfaces.StatusPresent, ""))
	require.NoError(t, l.IssueGrade(teacher, student, course101, "A", "proof-101"))
	require.NoError(t, l.FinalizeRecord(registrar, student, course101))
	require.NoError(t, l.SetVerificationFee(registrar, big.NewInt(10)))

	rec, err := l.VerifyTranscript(stranger, student, course101, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Grade)
	assert.Equal(t, "proof-101", rec.ProofRef)
	assert.True(t, rec.Finalized)

	amount, err := l.WithdrawFees(registrar)
	require.NoError(t, err)
	assert.Equal(t, "10", amount.String())
	assert.Zero(t, l.EscrowedBalance().Sign())

	evs := allEvents(t, events)
	require.Len(t, evs, 9)
	for i, ev := range evs {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
	assert.Equal(t, interfaces.EventFeesWithdrawn, evs[8].Type)
}
