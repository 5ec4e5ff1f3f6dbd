package models

import "math"

// Role is the capability a user acts with on a booking.
type Role string

const (
	RoleHost Role = "host"
	RoleRent Role = "rent"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleHost, RoleRent:
		return Role(s), true
	}
	return "", false
}

// Actor is the authenticated caller of a booking operation.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(total int64, page, limit int) Pagination {
	p := Pagination{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return p
}
