package model

import "time"

// RequestStatus is the lifecycle state of a point request. A request
// leaves pending exactly once; every other status is terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
	RequestWarned   RequestStatus = "warned"
	RequestMuted    RequestStatus = "muted"
)

// PointRequest is an ephemeral, in-memory ask for a small point grant.
// It is never persisted: requests live in the arbiter's tables until an
// admin resolves them or the five-minute sweep removes them.
type PointRequest struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	UserDisplayName string        `json:"userDisplayName"`
	UserEmail       string        `json:"userEmail"`
	PointsRequested int           `json:"pointsRequested"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          RequestStatus `json:"status"`
	PointsDeducted  int           `json:"pointsDeducted"`
}
