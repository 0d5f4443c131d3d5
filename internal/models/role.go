package models

import (
	"fmt"
	"strings"
)

// Role decides which account collection resolves a token identifier.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleDoctor
	RolePatient
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleDoctor:
		return "doctor"
	case RolePatient:
		return "patient"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole accepts the lower or mixed case role names used in URLs and token claims.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "doctor":
		return RoleDoctor, nil
	case "patient":
		return RolePatient, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}
