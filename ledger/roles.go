package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// HasRole reports whether addr holds role. Absence of a grant is the
// default: an address never granted anything holds no role.
func (l *Ledger) HasRole(role interfaces.Role, addr common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasRoleLocked(role, addr)
}

func (l *Ledger) hasRoleLocked(role interfaces.Role, addr common.Address) bool {
	return l.roles[role][addr]
}

func (l *Ledger) grantLocked(role interfaces.Role, addr common.Address) {
	grants := l.roles[role]
	if grants == nil {
		grants = make(map[common.Address]bool)
		l.roles[role] = grants
	}
	grants[addr] = true
}

// GrantRole grants role to addr. Registrar only. Grants are additive:
// granting a role an address already holds succeeds without change.
func (l *Ledger) GrantRole(caller common.Address, role interfaces.Role, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("%w: cannot grant a role to the zero address", interfaces.ErrInvalidArgument)
	}

	if err := l.emit(interfaces.Event{
		Type:    interfaces.EventRoleGranted,
		Caller:  caller,
		Account: addr,
		Role:    role.String(),
	}); err != nil {
		return err
	}

	l.grantLocked(role, addr)
	return nil
}

// RevokeRole removes role from addr. Registrar only. Revocation takes effect
// immediately for every subsequent operation.
func (l *Ledger) RevokeRole(caller common.Address, role interfaces.Role, addr common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasRoleLocked(interfaces.RoleRegistrar, caller) {
		return fmt.Errorf("%w: caller %s is not a registrar", interfaces.ErrUnauthorized, caller.Hex())
	}
	if addr == (common.Address{}) {
		return fmt.Errorf("%w: cannot revoke a role from the zero address", interfaces.ErrInvalidArgument)
	}

	if err := l.emit(interfaces.Event{
		Type:    interfaces.EventRoleRevoked,
		Caller:  caller,
		Account: addr,
		Role:    role.String(),
	}); err != nil {
		return err
	}

	delete(l.roles[role], addr)
	return nil
}
