package store

import (
	"sync"

	"bookdesk/pkg/domain"
)

// MemoryStore keeps users and books in-process. Used by tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
	email map[string]string // email -> user ID
	books map[string]domain.Book
	order []string // book insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
		email: make(map[string]string),
		books: make(map[string]domain.Book),
	}
}

// SaveUser stores or replaces a user record.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok := m.users[id]
	return user, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// ListUsers returns all users in unspecified order.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	return res, nil
}

// DeleteUser removes the user and cascades to owned books.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil
	}
	delete(m.users, id)
	delete(m.email, user.Email)
	kept := m.order[:0]
	for _, bookID := range m.order {
		if book, ok := m.books[bookID]; ok && book.OwnerID == id {
			delete(m.books, bookID)
			continue
		}
		kept = append(kept, bookID)
	}
	m.order = kept
	return nil
}

// SaveBook stores or replaces a book record and tracks insertion order.
func (m *MemoryStore) SaveBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.books[b.ID]; !exists {
		m.order = append(m.order, b.ID)
	}
	m.books[b.ID] = b
	return nil
}

// GetBook retrieves a book.
func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[id]
	return book, ok, nil
}

// HasISBN checks whether any book carries the ISBN.
func (m *MemoryStore) HasISBN(isbn string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, book := range m.books {
		if book.ISBN != "" && book.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

// ListBooks returns books matching the filter in insertion order.
func (m *MemoryStore) ListBooks(f BookFilter) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0, len(m.order))
	for _, id := range m.order {
		book, ok := m.books[id]
		if !ok {
			continue
		}
		if f.Status != "" && book.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && book.OwnerID != f.OwnerID {
			continue
		}
		res = append(res, book)
	}
	if f.Skip > 0 {
		if f.Skip >= len(res) {
			return []domain.Book{}, nil
		}
		res = res[f.Skip:]
	}
	if f.Limit > 0 && len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res, nil
}

// DeleteBook removes a book.
func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return nil
	}
	delete(m.books, id)
	for i, bookID := range m.order {
		if bookID == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
