package model

import "strings"

// AllRegions is the region sentinel meaning unrestricted (national) access.
const AllRegions = "ALL"

// Identity is the resolved requester produced by the identity resolver.
type Identity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	NIK     string `json:"nik,omitempty"`
	Role    string `json:"role"`
	Region  string `json:"region"`
	Scope   string `json:"scope,omitempty"`
	ScopeID string `json:"scope_id,omitempty"`
	ZonaRBM string `json:"zona_rbm,omitempty"`
	ZonaBM  string `json:"zona_bm,omitempty"`
}

// adminRoles may see every row unless they narrow explicitly.
var adminRoles = map[string]struct{}{
	"super_admin": {},
	"admin":       {},
	"master":      {},
	"head":        {},
}

// IsAdmin reports whether the identity holds an administrative role.
func (i Identity) IsAdmin() bool {
	_, ok := adminRoles[strings.ToLower(strings.TrimSpace(i.Role))]
	return ok
}

// HasRole compares the identity role case-insensitively.
func (i Identity) HasRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Role), role)
}

// IsNational reports whether the identity is not pinned to one region.
func (i Identity) IsNational() bool {
	return i.Region == AllRegions
}

// KnownRegion returns the identity region unless it is empty or the national sentinel.
func (i Identity) KnownRegion() (string, bool) {
	if i.Region == "" || i.Region == AllRegions {
		return "", false
	}
	return i.Region, true
}

// Override carries narrowing filters an administrator supplied explicitly.
type Override struct {
	Region string
	Zone   string
}

// Empty reports whether no explicit filter was supplied.
func (o Override) Empty() bool {
	return (o.Region == "" || o.Region == AllRegions) && o.Zone == ""
}
