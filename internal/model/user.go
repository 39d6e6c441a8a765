package model

import "time"

// User is the persisted account document in the `users` collection. The
// json tags are the stored field names, so a User marshals to exactly the
// document shape.
//
// Fields:
//  UID         – identity-provider-assigned id, the document key.
//  Email       – login email; admin authorization matches against this.
//  DisplayName – user-chosen handle, globally unique when non-empty.
//  Points      – non-negative balance, seeded to 1 on signup.
//  PIN         – nullable 4-digit string assigned by the admin; gates
//                point requests.
//  CreatedBy   – admin email when the account was created through the
//                admin route, empty for self-service signups.
type User struct {
	UID         string     `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Points      int        `json:"points"`
	PIN         *string    `json:"pin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
}

// HasPIN reports whether the admin has assigned a PIN to this user.
func (u User) HasPIN() bool { return u.PIN != nil && *u.PIN != "" }
