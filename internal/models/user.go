package models

type UserRole string

const (
	RoleElderly   UserRole = "elderly"
	RoleCaregiver UserRole = "caregiver"
	RoleAdmin     UserRole = "admin"
)

var roleTier = map[UserRole]int{
	RoleElderly:   1,
	RoleCaregiver: 2,
	RoleAdmin:     3,
}

type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	Roles        []UserRole `json:"roles" db:"roles"`
}

func IsValidRole(role UserRole) bool {
	_, ok := roleTier[role]
	return ok
}

func IsValidRoleList(roles []UserRole) bool {
	if len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		if !IsValidRole(role) {
			return false
		}
	}
	return true
}

// NormalizeRoles removes duplicates and unknown entries.
func NormalizeRoles(roles []UserRole) []UserRole {
	seen := make(map[UserRole]struct{}, len(roles))
	var normalized []UserRole
	for _, role := range roles {
		if !IsValidRole(role) {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}

// EnsureDefaultRole guarantees at least the elderly tier is present.
func EnsureDefaultRole(roles []UserRole) []UserRole {
	if len(roles) == 0 {
		return []UserRole{RoleElderly}
	}
	return roles
}

func HighestRole(roles []UserRole) UserRole {
	highest := RoleElderly
	for _, role := range roles {
		if roleTier[role] > roleTier[highest] {
			highest = role
		}
	}
	return highest
}

// HasAtLeast reports whether any held role meets the required tier.
func HasAtLeast(roles []UserRole, required UserRole) bool {
	for _, role := range roles {
		if roleTier[role] >= roleTier[required] {
			return true
		}
	}
	return false
}

// RecipientTypeFor maps a user's highest role onto the notification
// recipient vocabulary.
func RecipientTypeFor(roles []UserRole) RecipientType {
	if HasAtLeast(roles, RoleCaregiver) {
		return RecipientCaregiver
	}
	return RecipientElderlyUser
}
