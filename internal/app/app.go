package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bookdesk/internal/util"
	"bookdesk/pkg/auth"
	"bookdesk/pkg/domain"
	"bookdesk/pkg/queue"
	"bookdesk/pkg/store"
)

// ModerationPublisher records moderation events. Publishing is best-effort:
// a failed publish never fails the request that caused it.
type ModerationPublisher interface {
	Publish(ctx context.Context, event queue.ModerationEvent) error
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	JWTSecret        string
	JWTAlgorithm     string
	AccessTokenTTL   time.Duration
	ModerationStream string

	// Injectable implementations, used by tests.
	Store    store.Store
	Sessions store.SessionStore
	Feed     ModerationPublisher
}

// App is the core application service wiring storage, sessions, and policy.
type App struct {
	store    store.Store
	sessions store.SessionStore
	feed     ModerationPublisher
}

// New constructs the application with database storage and token management.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		var revoker store.TokenRevoker
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		jwtStore, err := store.NewJWTHS256SessionStore(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL, revoker, store.JWTOptions{})
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
		sessions = jwtStore
	}

	feed := cfg.Feed
	if feed == nil && strings.TrimSpace(cfg.RedisAddr) != "" {
		redisFeed, err := queue.NewRedisModerationFeed(queue.ModerationFeedConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.ModerationStream,
		})
		if err != nil {
			return nil, fmt.Errorf("init moderation feed: %w", err)
		}
		feed = redisFeed
	}

	return &App{
		store:    dataStore,
		sessions: sessions,
		feed:     feed,
	}, nil
}

// Register creates a new author account. Public registration always yields
// the author role.
func (a *App) Register(email, password string) (domain.User, error) {
	return a.createUser(email, password, domain.RoleAuthor)
}

// CreateAdmin creates an admin account. Callers must have checked the actor's
// role already; this is reachable only through the admin surface.
func (a *App) CreateAdmin(email, password string) (domain.User, error) {
	return a.createUser(email, password, domain.RoleAdmin)
}

func (a *App) createUser(email, password string, role domain.UserRole) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, ErrEmailAndPasswordRequired
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues an access token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !user.Active {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.Email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Logout revokes the presented access token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from an access token. A present-but-invalid
// token, an unknown subject, and a deactivated account all report ok=false.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	email, ok, err := a.sessions.GetEmailByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil || !found {
		return domain.User{}, false
	}
	if !user.Active {
		return domain.User{}, false
	}
	return user, true
}

// ListUsers returns all accounts (admin use only).
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}

// BookInput carries the writable bibliographic fields of a book.
type BookInput struct {
	ISBN            string
	Title           string
	Subtitle        string
	Author          string
	CoAuthor        string
	Publisher       string
	PublicationDate time.Time
	PrintLength     int
	Language        string
	FrontCoverURL   string
	BackCoverURL    string
	Synopsis        string
	CopyrightInfo   string
	Category        string
	Subcategory     string
}

var isbnPattern = regexp.MustCompile(`^[0-9][0-9Xx-]{8,16}$`)

func validateBookInput(in BookInput) error {
	required := map[string]string{
		"title":         in.Title,
		"author":        in.Author,
		"publisher":     in.Publisher,
		"language":      in.Language,
		"frontCoverUrl": in.FrontCoverURL,
		"backCoverUrl":  in.BackCoverURL,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
		}
	}
	if in.PublicationDate.IsZero() {
		return fmt.Errorf("%w: publicationDate is required", ErrInvalidInput)
	}
	if in.PrintLength <= 0 {
		return fmt.Errorf("%w: printLength must be positive", ErrInvalidInput)
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" && !isbnPattern.MatchString(isbn) {
		return fmt.Errorf("%w: malformed isbn", ErrInvalidInput)
	}
	return nil
}

// ListBooks returns the caller's visible set with pagination. A nil viewer
// is anonymous and sees approved books only.
func (a *App) ListBooks(viewer *domain.User, skip, limit int) ([]domain.Book, error) {
	filter, ok := store.FilterFor(domain.ScopeFor(viewer), skip, limit)
	if !ok {
		return []domain.Book{}, nil
	}
	return a.store.ListBooks(filter)
}

// GetBook returns one book if it falls inside the caller's visible set.
// Books outside the set report not-found, never forbidden.
func (a *App) GetBook(viewer *domain.User, id string) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found || !domain.CanView(viewer, book) {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// CreateBook submits a new catalogue entry. The initial status follows the
// creator's role: author submissions enter review, admin entries are live.
func (a *App) CreateBook(creator domain.User, in BookInput) (domain.Book, error) {
	if !domain.CanCreate(creator) {
		return domain.Book{}, ErrForbidden
	}
	if err := validateBookInput(in); err != nil {
		return domain.Book{}, err
	}
	if err := a.checkISBNFree(in.ISBN, ""); err != nil {
		return domain.Book{}, err
	}
	now := time.Now().UTC()
	book := domain.Book{
		ID:        util.NewID(),
		OwnerID:   creator.ID,
		Status:    domain.InitialStatus(creator.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&book, in)
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	a.publish(book, creator.ID, queue.ActionSubmitted, "")
	return book, nil
}

// UpdateBook edits a book's bibliographic fields. Admins edit in place; an
// owning author's edit re-enters review. Non-owner authors get an explicit
// authorization failure, not a not-found.
func (a *App) UpdateBook(actor domain.User, id string, in BookInput) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return domain.Book{}, ErrBookNotFound
	}
	if !domain.CanUpdate(actor, book) {
		return domain.Book{}, ErrForbidden
	}
	if err := validateBookInput(in); err != nil {
		return domain.Book{}, err
	}
	if err := a.checkISBNFree(in.ISBN, book.ID); err != nil {
		return domain.Book{}, err
	}
	applyInput(&book, in)
	now := time.Now().UTC()
	if actor.Role == domain.RoleAuthor {
		domain.ApplyOwnerEdit(&book, now)
	} else {
		book.UpdatedAt = now
	}
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	if actor.Role == domain.RoleAuthor {
		a.publish(book, actor.ID, queue.ActionResubmitted, "")
	}
	return book, nil
}

// SetBookStatus applies an explicit moderation decision. Admin only.
func (a *App) SetBookStatus(actor domain.User, id string, status domain.BookStatus, reason string) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return domain.Book{}, ErrBookNotFound
	}
	if !domain.CanSetStatus(actor) {
		return domain.Book{}, ErrForbidden
	}
	domain.ApplyStatusChange(&book, status, reason, time.Now().UTC())
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	switch status {
	case domain.StatusApproved:
		a.publish(book, actor.ID, queue.ActionApproved, "")
	case domain.StatusRejected:
		a.publish(book, actor.ID, queue.ActionRejected, book.RejectionReason)
	}
	return book, nil
}

// DeleteBook removes a book from the catalogue. Admin only; the deleted
// payload is returned to the caller.
func (a *App) DeleteBook(actor domain.User, id string) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return domain.Book{}, ErrBookNotFound
	}
	if !domain.CanDelete(actor) {
		return domain.Book{}, ErrForbidden
	}
	if err := a.store.DeleteBook(id); err != nil {
		return domain.Book{}, fmt.Errorf("delete book: %w", err)
	}
	a.publish(book, actor.ID, queue.ActionDeleted, "")
	return book, nil
}

func (a *App) checkISBNFree(isbn, selfID string) error {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil
	}
	if selfID != "" {
		// An unchanged ISBN on the book being edited is not a conflict.
		current, found, err := a.store.GetBook(selfID)
		if err != nil {
			return fmt.Errorf("fetch book: %w", err)
		}
		if found && current.ISBN == isbn {
			return nil
		}
	}
	taken, err := a.store.HasISBN(isbn)
	if err != nil {
		return fmt.Errorf("check isbn: %w", err)
	}
	if taken {
		return ErrISBNAlreadyExists
	}
	return nil
}

func applyInput(book *domain.Book, in BookInput) {
	book.ISBN = strings.TrimSpace(in.ISBN)
	book.Title = strings.TrimSpace(in.Title)
	book.Subtitle = strings.TrimSpace(in.Subtitle)
	book.Author = strings.TrimSpace(in.Author)
	book.CoAuthor = strings.TrimSpace(in.CoAuthor)
	book.Publisher = strings.TrimSpace(in.Publisher)
	book.PublicationDate = in.PublicationDate
	book.PrintLength = in.PrintLength
	book.Language = strings.TrimSpace(in.Language)
	book.FrontCoverURL = strings.TrimSpace(in.FrontCoverURL)
	book.BackCoverURL = strings.TrimSpace(in.BackCoverURL)
	book.Synopsis = in.Synopsis
	book.CopyrightInfo = strings.TrimSpace(in.CopyrightInfo)
	book.Category = strings.TrimSpace(in.Category)
	book.Subcategory = strings.TrimSpace(in.Subcategory)
}

func (a *App) publish(book domain.Book, actorID, action, reason string) {
	if a.feed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := a.feed.Publish(ctx, queue.ModerationEvent{
		BookID:  book.ID,
		OwnerID: book.OwnerID,
		ActorID: actorID,
		Action:  action,
		Reason:  reason,
	})
	if err != nil {
		slog.Warn("publish moderation event failed", "book_id", book.ID, "action", action, "err", err)
	}
}
