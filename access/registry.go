// Package access implements the global access-control registry that every
// other Citadel contract consults for role checks and the global pause.
package access

import (
	"fmt"
	"strconv"

	"github.com/citadelfi/libcitadel-go/chain"
)

// Role identifiers (keccak256 of the role name). DefaultAdminRole is the
// zero hash and administers every role unless SetRoleAdmin says otherwise.
var (
	DefaultAdminRole       = chain.ZeroHash
	ContractGovernanceRole = chain.RoleID("CONTRACT_GOVERNANCE_ROLE")
	TreasuryGovernanceRole = chain.RoleID("TREASURY_GOVERNANCE_ROLE")
	TechOperationsRole     = chain.RoleID("TECH_OPERATIONS_ROLE")
	PolicyOperationsRole   = chain.RoleID("POLICY_OPERATIONS_ROLE")
	CitadelMinterRole      = chain.RoleID("CITADEL_MINTER_ROLE")
	PauserRole             = chain.RoleID("PAUSER_ROLE")
	UnpauserRole           = chain.RoleID("UNPAUSER_ROLE")
)

var roleNames = map[chain.Hash]string{
	DefaultAdminRole:       "DEFAULT_ADMIN_ROLE",
	ContractGovernanceRole: "CONTRACT_GOVERNANCE_ROLE",
	TreasuryGovernanceRole: "TREASURY_GOVERNANCE_ROLE",
	TechOperationsRole:     "TECH_OPERATIONS_ROLE",
	PolicyOperationsRole:   "POLICY_OPERATIONS_ROLE",
	CitadelMinterRole:      "CITADEL_MINTER_ROLE",
	PauserRole:             "PAUSER_ROLE",
	UnpauserRole:           "UNPAUSER_ROLE",
}

// RoleName returns the human-readable name of a known role, or its hex id.
func RoleName(role chain.Hash) string {
	if n, ok := roleNames[role]; ok {
		return n
	}
	return role.Hex()
}

// Checker is the read side of the registry consumed by managed contracts.
type Checker interface {
	Address() chain.Address
	HasRole(role chain.Hash, account chain.Address) bool
	Paused() bool
}

type roleData struct {
	members map[chain.Address]bool
	order   []chain.Address // insertion order, for enumeration
	admin   chain.Hash
}

// Registry is the global access-control contract.
type Registry struct {
	chain *chain.Chain
	addr  chain.Address

	initialized bool
	paused      bool
	roles       map[chain.Hash]*roleData
}

// Compile-time interface check.
var _ Checker = (*Registry)(nil)

// New deploys an uninitialized registry.
func New(c *chain.Chain, deployer chain.Address) *Registry {
	return &Registry{
		chain: c,
		addr:  c.NewContractAddress(deployer),
		roles: make(map[chain.Hash]*roleData),
	}
}

// Address returns the registry's contract address.
func (r *Registry) Address() chain.Address { return r.addr }

// Initialize grants DEFAULT_ADMIN_ROLE and CONTRACT_GOVERNANCE_ROLE to owner.
func (r *Registry) Initialize(owner chain.Address) error {
	if r.initialized {
		return ErrAlreadyInitialized
	}
	if owner.IsZero() {
		return fmt.Errorf("%w: initial governance", ErrZeroAddress)
	}
	r.initialized = true
	r.grant(DefaultAdminRole, owner, owner)
	r.grant(ContractGovernanceRole, owner, owner)
	return nil
}

func (r *Registry) role(role chain.Hash) *roleData {
	rd, ok := r.roles[role]
	if !ok {
		rd = &roleData{members: make(map[chain.Address]bool), admin: DefaultAdminRole}
		r.roles[role] = rd
	}
	return rd
}

// HasRole reports whether account currently holds role.
func (r *Registry) HasRole(role chain.Hash, account chain.Address) bool {
	rd, ok := r.roles[role]
	return ok && rd.members[account]
}

// RoleAdmin returns the role that administers role.
func (r *Registry) RoleAdmin(role chain.Hash) chain.Hash {
	if rd, ok := r.roles[role]; ok {
		return rd.admin
	}
	return DefaultAdminRole
}

// CheckRole returns ErrMissingRole unless account holds role.
func (r *Registry) CheckRole(role chain.Hash, account chain.Address) error {
	if !r.HasRole(role, account) {
		return fmt.Errorf("%w: %s lacks %s", ErrMissingRole, account.Hex(), RoleName(role))
	}
	return nil
}

// GrantRole grants role to account. The sender must hold the role's admin
// role. Granting a held role is a no-op.
func (r *Registry) GrantRole(from chain.Address, role chain.Hash, account chain.Address) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.CheckRole(r.RoleAdmin(role), from); err != nil {
		return err
	}
	if account.IsZero() {
		return fmt.Errorf("%w: grantee", ErrZeroAddress)
	}
	r.grant(role, account, from)
	return nil
}

// RevokeRole removes role from account. The sender must hold the role's
// admin role. Revoking an absent role is a no-op.
func (r *Registry) RevokeRole(from chain.Address, role chain.Hash, account chain.Address) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.CheckRole(r.RoleAdmin(role), from); err != nil {
		return err
	}
	r.revoke(role, account, from)
	return nil
}

// RenounceRole removes role from the sender itself.
func (r *Registry) RenounceRole(from chain.Address, role chain.Hash, account chain.Address) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if from != account {
		return ErrRenounceForOther
	}
	r.revoke(role, account, from)
	return nil
}

// SetRoleAdmin changes the admin role of role. Only DEFAULT_ADMIN_ROLE holders may call it.
func (r *Registry) SetRoleAdmin(from chain.Address, role, adminRole chain.Hash) error {
	if err := r.CheckRole(DefaultAdminRole, from); err != nil {
		return err
	}
	rd := r.role(role)
	prev := rd.admin
	rd.admin = adminRole
	r.chain.Emit(r.addr, "RoleAdminChanged",
		"role", RoleName(role), "previousAdminRole", RoleName(prev), "newAdminRole", RoleName(adminRole))
	return nil
}

// RoleMemberCount returns how many accounts hold role.
func (r *Registry) RoleMemberCount(role chain.Hash) int {
	if rd, ok := r.roles[role]; ok {
		return len(rd.order)
	}
	return 0
}

// RoleMember returns the index-th holder of role in grant order.
func (r *Registry) RoleMember(role chain.Hash, index int) (chain.Address, error) {
	rd, ok := r.roles[role]
	if !ok || index < 0 || index >= len(rd.order) {
		return chain.ZeroAddress, fmt.Errorf("%w: %d", ErrMemberIndex, index)
	}
	return rd.order[index], nil
}

// Paused reports whether the registry is globally paused.
func (r *Registry) Paused() bool { return r.paused }

// Pause sets the global pause. Requires PAUSER_ROLE.
func (r *Registry) Pause(from chain.Address) error {
	if err := r.CheckRole(PauserRole, from); err != nil {
		return err
	}
	if r.paused {
		return ErrPaused
	}
	r.paused = true
	r.chain.Emit(r.addr, "Paused", "account", from.Hex())
	return nil
}

// Unpause clears the global pause. Requires UNPAUSER_ROLE.
func (r *Registry) Unpause(from chain.Address) error {
	if err := r.CheckRole(UnpauserRole, from); err != nil {
		return err
	}
	if !r.paused {
		return ErrNotPaused
	}
	r.paused = false
	r.chain.Emit(r.addr, "Unpaused", "account", from.Hex())
	return nil
}

func (r *Registry) grant(role chain.Hash, account, sender chain.Address) {
	rd := r.role(role)
	if rd.members[account] {
		return
	}
	rd.members[account] = true
	rd.order = append(rd.order, account)
	r.chain.Emit(r.addr, "RoleGranted",
		"role", RoleName(role), "account", account.Hex(), "sender", sender.Hex(),
		"members", strconv.Itoa(len(rd.order)))
}

func (r *Registry) revoke(role chain.Hash, account, sender chain.Address) {
	rd, ok := r.roles[role]
	if !ok || !rd.members[account] {
		return
	}
	delete(rd.members, account)
	for i, m := range rd.order {
		if m == account {
			rd.order = append(rd.order[:i], rd.order[i+1:]...)
			break
		}
	}
	r.chain.Emit(r.addr, "RoleRevoked",
		"role", RoleName(role), "account", account.Hex(), "sender", sender.Hex())
}
