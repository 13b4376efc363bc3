// Package interfaces defines the core types and contracts for the transcript
// and attendance ledger. It provides the boundary between the ledger state
// machine, the durable event log, the attachment storage backends, and the
// HTTP layer without pulling in any implementation details.
//
// # Principals and Roles
//
// Every principal is identified by a 20-byte address
// (github.com/ethereum/go-ethereum/common.Address). The caller's address is
// supplied by the identity layer and is treated as already authenticated;
// the ledger only performs role lookups on it.
//
// Roles are keccak256 tags of their names, matching the role identifiers the
// original on-chain deployment exposed to clients:
//
//	RoleRegistrar = keccak256("REGISTRAR_ROLE")
//	RoleTeacher   = keccak256("TEACHER_ROLE")
//	RoleStudent   = keccak256("STUDENT_ROLE")
//
// Verification requires no role: any address may pay the fee.
//
// # Error Taxonomy
//
// All ledger operations fail with one of the sentinel errors defined in this
// package (ErrUnauthorized, ErrNotFound, ErrAlreadyExists, ErrAlreadyFinalized,
// ErrInvalidArgument, ErrNotRegistered, ErrInsufficientPayment,
// ErrInsufficientBalance), possibly wrapped with call-site context. Callers
// match on them with errors.Is.
//
// # Event Log
//
// Every successful mutating operation appends exactly one Event to an
// EventSink. Failed operations append nothing and leave no partial state.
package interfaces
