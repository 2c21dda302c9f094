package security

import "github.com/charbel0004/Unishelf-sub000/internal/domain"

// Principal is the authenticated caller. Handlers build it from the bearer
// token and hand it to services explicitly.
type Principal struct {
	UserID uint64
	Email  string
	Role   domain.Role
}

func (p *Principal) IsStaff() bool {
	return p != nil && (p.Role == domain.RoleEmployee || p.Role == domain.RoleManager)
}

func (p *Principal) IsManager() bool {
	return p != nil && p.Role == domain.RoleManager
}

// CanSeeUser reports whether the caller may read data owned by userID.
func (p *Principal) CanSeeUser(userID uint64) bool {
	return p != nil && (p.UserID == userID || p.IsStaff())
}
