package store

import "bookdesk/pkg/domain"

// BookFilter narrows book listings to a caller's visible set. Filters are
// applied as query predicates, not post-filtered in memory.
type BookFilter struct {
	// Status restricts results to one moderation status.
	Status domain.BookStatus
	// OwnerID restricts results to books owned by that user.
	OwnerID string
	// Skip/Limit paginate the ordered result. Limit <= 0 means no limit.
	Skip  int
	Limit int
}

// FilterFor translates a read scope into a query filter.
// The boolean is false when the scope is empty and no query should run.
func FilterFor(scope domain.VisibleScope, skip, limit int) (BookFilter, bool) {
	if scope.None {
		return BookFilter{}, false
	}
	f := BookFilter{OwnerID: scope.OwnerID, Skip: skip, Limit: limit}
	if scope.ApprovedOnly {
		f.Status = domain.StatusApproved
	}
	return f, true
}

// Store defines persistence operations for users and books.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	// DeleteUser removes the user and, by explicit choice, all owned books.
	DeleteUser(id string) error

	// books
	SaveBook(domain.Book) error
	GetBook(id string) (domain.Book, bool, error)
	HasISBN(isbn string) (bool, error)
	ListBooks(f BookFilter) ([]domain.Book, error)
	DeleteBook(id string) error
}

// SessionStore issues and validates access tokens.
type SessionStore interface {
	NewSession(email string) (string, error)
	GetEmailByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
