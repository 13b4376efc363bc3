package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// pairKey identifies a (student, course) pair, the unit of enrollment,
// grade records and attendance sequences.
type pairKey struct {
	student common.Address
	course  interfaces.CourseID
}

// Ledger is the in-memory implementation of interfaces.Ledger. A single
// RWMutex serializes mutating operations into one global sequence; reads
// take the read lock and return copies.
type Ledger struct {
	log      *slog.Logger
	events   interfaces.EventSink
	now      func() time.Time
	transfer interfaces.TransferFunc

	mu          sync.RWMutex
	roles       map[interfaces.Role]map[common.Address]bool
	courses     map[interfaces.CourseID]interfaces.Course
	enrollments map[pairKey]bool
	records     map[pairKey]*interfaces.Record
	attendance  map[pairKey][]interfaces.AttendanceEntry
	fee         *big.Int
	balance     *big.Int
	treasury    common.Address
}

// Config carries the ledger's construction parameters.
type Config struct {
	// Registrar is granted RoleRegistrar at construction. Required.
	Registrar common.Address

	// Treasury is the fixed withdrawal destination. Required.
	Treasury common.Address

	// Events receives one event per successful mutating operation. Required.
	Events interfaces.EventSink

	// Transfer settles withdrawals. Optional; defaults to a log-only
	// settlement, which suffices when the treasury is an off-system account
	// reconciled from the event log.
	Transfer interfaces.TransferFunc

	// Log is the structured logger. Optional.
	Log *slog.Logger

	// Now supplies event timestamps. Optional; defaults to time.Now.
	Now func() time.Time
}

// New creates a ledger with the registrar role and treasury bound from cfg.
// Construction fails if either address is zero or no event sink is given.
func New(cfg Config) (*Ledger, error) {
	if cfg.Registrar == (common.Address{}) {
		return nil, fmt.Errorf("%w: registrar address must not be zero", interfaces.ErrInvalidArgument)
	}
	if cfg.Treasury == (common.Address{}) {
		return nil, fmt.Errorf("%w: treasury address must not be zero", interfaces.ErrInvalidArgument)
	}
	if cfg.Events == nil {
		return nil, errors.New("event sink is required")
	}

	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := &Ledger{
		log:         log,
		events:      cfg.Events,
		now:         now,
		roles:       make(map[interfaces.Role]map[common.Address]bool),
		courses:     make(map[interfaces.CourseID]interfaces.Course),
		enrollments: make(map[pairKey]bool),
		records:     make(map[pairKey]*interfaces.Record),
		attendance:  make(map[pairKey][]interfaces.AttendanceEntry),
		fee:         new(big.Int),
		balance:     new(big.Int),
		treasury:    cfg.Treasury,
	}
	l.transfer = cfg.Transfer
	if l.transfer == nil {
		l.transfer = l.logOnlyTransfer
	}

	l.grantLocked(interfaces.RoleRegistrar, cfg.Registrar)
	return l, nil
}

// Treasury returns the fixed treasury address.
func (l *Ledger) Treasury() common.Address {
	return l.treasury
}

// EscrowedBalance returns a copy of the current escrowed balance.
func (l *Ledger) EscrowedBalance() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balance)
}

// emit appends one event for a validated operation. It must be called with
// the write lock held, after all preconditions passed and before any state
// is mutated, so that a sink failure aborts the call with nothing applied.
func (l *Ledger) emit(ev interfaces.Event) error {
	ev.ID = uuid.NewString()
	ev.Timestamp = l.now().UTC()
	seq, err := l.events.Append(ev)
	if err != nil {
		return fmt.Errorf("appending %s event: %w", ev.Type, err)
	}
	l.log.Debug("Ledger event appended", "type", string(ev.Type), "seq", seq, "caller", ev.Caller.Hex())
	return nil
}

// logOnlyTransfer is the default withdrawal settlement: the movement is
// recorded in the log and the fees-withdrawn event, and reconciliation
// happens off-system.
func (l *Ledger) logOnlyTransfer(to common.Address, amount *big.Int) error {
	l.log.Info("Settling treasury transfer", "treasury", to.Hex(), "amount", amount.String())
	return nil
}

var _ interfaces.Ledger = (*Ledger)(nil)
