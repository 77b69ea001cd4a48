package entities

import "strings"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStore Role = "store"
	RoleWard  Role = "ward"
)

// StaffDirectory is the fixed role configuration: exactly one hospital admin
// and one store manager, set at process initialization. Every other identity
// is a ward-level requester. Changing either identity means redeploying.
type StaffDirectory struct {
	AdminID string
	StoreID string
}

func (d StaffDirectory) Valid() bool {
	admin := strings.TrimSpace(d.AdminID)
	store := strings.TrimSpace(d.StoreID)
	return admin != "" && store != "" && admin != store
}

func (d StaffDirectory) RoleOf(identity string) Role {
	switch strings.TrimSpace(identity) {
	case "":
		return RoleWard
	case d.AdminID:
		return RoleAdmin
	case d.StoreID:
		return RoleStore
	default:
		return RoleWard
	}
}
