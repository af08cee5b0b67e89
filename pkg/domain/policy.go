package domain

import (
	"strings"
	"time"
)

// VisibleScope describes which books a caller may read.
type VisibleScope struct {
	// ApprovedOnly restricts the scope to approved books regardless of owner.
	ApprovedOnly bool
	// OwnerID, when set, restricts the scope to books owned by that user.
	OwnerID string
	// None means the scope is empty (unrecognized role fails closed).
	None bool
}

// ScopeFor returns the read scope for a caller. A nil viewer is anonymous.
func ScopeFor(viewer *User) VisibleScope {
	if viewer == nil {
		return VisibleScope{ApprovedOnly: true}
	}
	switch viewer.Role {
	case RoleAdmin:
		return VisibleScope{}
	case RoleAuthor:
		return VisibleScope{OwnerID: viewer.ID}
	default:
		return VisibleScope{None: true}
	}
}

// Contains reports whether a book falls inside the scope.
func (s VisibleScope) Contains(b Book) bool {
	if s.None {
		return false
	}
	if s.ApprovedOnly && b.Status != StatusApproved {
		return false
	}
	if s.OwnerID != "" && b.OwnerID != s.OwnerID {
		return false
	}
	return true
}

// CanView reports whether the viewer may read the book. A nil viewer is anonymous.
func CanView(viewer *User, b Book) bool {
	return ScopeFor(viewer).Contains(b)
}

// InitialStatus decides a new book's status from its creator's role.
func InitialStatus(role UserRole) BookStatus {
	switch role {
	case RoleAdmin:
		return StatusApproved
	default:
		return StatusPending
	}
}

// CanCreate reports whether the user may submit books.
func CanCreate(u User) bool {
	switch u.Role {
	case RoleAdmin, RoleAuthor:
		return true
	default:
		return false
	}
}

// CanUpdate reports whether the user may edit the book's bibliographic fields.
func CanUpdate(u User, b Book) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleAuthor:
		return b.OwnerID == u.ID
	default:
		return false
	}
}

// CanDelete reports whether the user may remove books from the catalogue.
func CanDelete(u User) bool {
	return u.Role == RoleAdmin
}

// CanSetStatus reports whether the user may approve or reject books.
func CanSetStatus(u User) bool {
	return u.Role == RoleAdmin
}

// ApplyOwnerEdit re-enters review: any edit by the owning author resets the
// book to pending and clears a stored rejection reason.
func ApplyOwnerEdit(b *Book, now time.Time) {
	b.Status = StatusPending
	b.RejectionReason = ""
	b.UpdatedAt = now
}

// ApplyStatusChange moves the book to the given status. The rejection reason
// is kept only when the target status is rejected; it is cleared otherwise.
func ApplyStatusChange(b *Book, status BookStatus, reason string, now time.Time) {
	b.Status = status
	if status == StatusRejected {
		b.RejectionReason = strings.TrimSpace(reason)
	} else {
		b.RejectionReason = ""
	}
	b.UpdatedAt = now
}

// ParseUserRole parses a role string into the closed role set.
func ParseUserRole(role string) (UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAuthor):
		return RoleAuthor, true
	case string(RoleAdmin):
		return RoleAdmin, true
	default:
		return "", false
	}
}

// ParseBookStatus parses a status string into the closed status set.
func ParseBookStatus(status string) (BookStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case string(StatusPending):
		return StatusPending, true
	case string(StatusApproved):
		return StatusApproved, true
	case string(StatusRejected):
		return StatusRejected, true
	default:
		return "", false
	}
}
