// Package auth holds the admin authorization policy. The single hardcoded
// operator check the service grew up with is expressed as a pluggable
// interface so a role-claim or directory-backed policy can replace the
// allow-list without touching handlers.
package auth

import "strings"

// Policy decides whether an email identifies an operator. Handlers pass
// the caller-supplied adminEmail through it before any privileged work,
// and self-service flows use it to block operator accounts.
type Policy interface {
	IsAdmin(email string) bool
}

// AllowList is a Policy backed by a fixed set of operator emails.
type AllowList struct {
	allowed map[string]bool
}

// NewAllowList builds an AllowList from operator emails. Addresses are
// matched case-insensitively after trimming.
func NewAllowList(emails ...string) *AllowList {
	allowed := make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = normalize(e); e != "" {
			allowed[e] = true
		}
	}
	return &AllowList{allowed: allowed}
}

func (a *AllowList) IsAdmin(email string) bool {
	return a.allowed[normalize(email)]
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
