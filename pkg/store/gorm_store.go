package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"bookdesk/pkg/domain"
)

const migrateLockID int64 = 82110234

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &BookModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'book_models'
					AND constraint_name = 'book_models_owner_id_fkey'
				) THEN
					ALTER TABLE book_models
					ADD CONSTRAINT book_models_owner_id_fkey
					FOREIGN KEY (owner_id) REFERENCES user_models(id) ON DELETE CASCADE;
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure owner foreign key: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "active", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// DeleteUser removes the user and all owned books in one transaction.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&BookModel{}, "owner_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "id = ?", id).Error
	})
}

// SaveBook stores or updates a book.
func (s *GormStore) SaveBook(b domain.Book) error {
	model := bookToModel(b)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"isbn", "title", "subtitle", "author", "co_author", "publisher",
			"publication_date", "print_length", "language", "front_cover_url",
			"back_cover_url", "synopsis", "copyright_info", "category",
			"subcategory", "status", "rejection_reason", "updated_at",
		}),
	}).Create(&model).Error
}

// GetBook retrieves a book.
func (s *GormStore) GetBook(id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// HasISBN checks whether any book, regardless of owner or status, carries the ISBN.
func (s *GormStore) HasISBN(isbn string) (bool, error) {
	var count int64
	if err := s.db.Model(&BookModel{}).Where("isbn = ?", isbn).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBooks returns books matching the filter ordered by created_at.
func (s *GormStore) ListBooks(f BookFilter) ([]domain.Book, error) {
	tx := s.db.Order("created_at ASC")
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.Skip > 0 {
		tx = tx.Offset(f.Skip)
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var models []BookModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

// DeleteBook removes a book.
func (s *GormStore) DeleteBook(id string) error {
	return s.db.Delete(&BookModel{}, "id = ?", id).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	var isbn *string
	if strings.TrimSpace(b.ISBN) != "" {
		value := strings.TrimSpace(b.ISBN)
		isbn = &value
	}
	return BookModel{
		ID:              b.ID,
		OwnerID:         b.OwnerID,
		ISBN:            isbn,
		Title:           b.Title,
		Subtitle:        b.Subtitle,
		Author:          b.Author,
		CoAuthor:        b.CoAuthor,
		Publisher:       b.Publisher,
		PublicationDate: b.PublicationDate,
		PrintLength:     b.PrintLength,
		Language:        b.Language,
		FrontCoverURL:   b.FrontCoverURL,
		BackCoverURL:    b.BackCoverURL,
		Synopsis:        b.Synopsis,
		CopyrightInfo:   b.CopyrightInfo,
		Category:        b.Category,
		Subcategory:     b.Subcategory,
		Status:          string(b.Status),
		RejectionReason: b.RejectionReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	isbn := ""
	if m.ISBN != nil {
		isbn = strings.TrimSpace(*m.ISBN)
	}
	return domain.Book{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		ISBN:            isbn,
		Title:           m.Title,
		Subtitle:        m.Subtitle,
		Author:          m.Author,
		CoAuthor:        m.CoAuthor,
		Publisher:       m.Publisher,
		PublicationDate: m.PublicationDate,
		PrintLength:     m.PrintLength,
		Language:        m.Language,
		FrontCoverURL:   m.FrontCoverURL,
		BackCoverURL:    m.BackCoverURL,
		Synopsis:        m.Synopsis,
		CopyrightInfo:   m.CopyrightInfo,
		Category:        m.Category,
		Subcategory:     m.Subcategory,
		Status:          domain.BookStatus(m.Status),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
