package library

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booknest/bookshelf-api/models"
)

const (
	maxIdentityFieldLength = 500
	maxProfileFieldLength  = 100
	recentBooksLimit       = 10
)

var (
	olidPattern     = regexp.MustCompile(`^OL\d+`)
	coverURLPattern = regexp.MustCompile(`^https://covers\.openlibrary\.org/b/id/\d+-M\.jpg$`)
)

// Service implements the library operations over the relational store.
// Handlers construct one per process and pass request-scoped identity in
// explicitly; the service holds no per-request state.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// lockRows takes a row-level lock during a check-then-act window so the
// orphan recount is serializable per book. SQLite has no FOR UPDATE and
// serializes writers on its own, so the clause is skipped there.
func lockRows(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GetUser looks up a user by Auth0 subject. Unknown users are not an error;
// the caller gets a nil record.
func (s *Service) GetUser(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyUser finds the user for the verified token subject, creating it on
// first login. Repeat calls return the stored row unchanged even if the
// email or name claims have since changed upstream.
func (s *Service) VerifyUser(ctx context.Context, auth0ID, email, name string) (*models.User, error) {
	if len(auth0ID) > maxIdentityFieldLength || len(email) > maxIdentityFieldLength || len(name) > maxIdentityFieldLength {
		return nil, validationError("User fields cannot exceed 500 characters.")
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Auth0ID: auth0ID,
		Email:   email,
		Name:    name,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUserBooks returns the user's shelf, most recently added first. An
// unknown user gets an empty shelf.
func (s *Service) ListUserBooks(ctx context.Context, auth0ID string) ([]models.UserBook, error) {
	user, err := s.GetUser(ctx, auth0ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []models.UserBook{}, nil
	}

	userBooks := []models.UserBook{}
	err = s.DB.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("user_id = ?", user.ID).
		Order("id DESC").
		Find(&userBooks).Error
	if err != nil {
		return nil, err
	}
	return userBooks, nil
}

// RecentBook is the public projection of a shelf entry: no join metadata,
// just who added what and how they rated it.
type RecentBook struct {
	User   *models.User `json:"user"`
	Book   *models.Book `json:"book"`
	Rating *int         `json:"rating"`
}

// ListRecentBooks returns up to 10 shelf entries across all users,
// most recently added first.
func (s *Service) ListRecentBooks(ctx context.Context) ([]RecentBook, error) {
	var userBooks []models.UserBook
	err := s.DB.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Order("id DESC").
		Limit(recentBooksLimit).
		Find(&userBooks).Error
	if err != nil {
		return nil, err
	}

	recent := make([]RecentBook, 0, len(userBooks))
	for _, ub := range userBooks {
		recent = append(recent, RecentBook{User: ub.User, Book: ub.Book, Rating: ub.Rating})
	}
	return recent, nil
}

// AddUserBook puts a book on the caller's shelf. The book row is reused if
// the OLID is already in the catalog (the stored metadata wins over whatever
// the request supplied); otherwise the supplied metadata is validated and a
// new Book is created. Runs in one transaction so a concurrent delete of the
// same book cannot interleave with the lookup-or-create.
func (s *Service) AddUserBook(ctx context.Context, auth0ID, title, authors, coverImageURL, olid string) (*models.UserBook, error) {
	if olid == "" {
		return nil, validationError("OLID is missing.")
	}
	if !olidPattern.MatchString(olid) {
		return nil, validationError(`OLID must match the format "OL" followed by a number.`)
	}

	var userBook models.UserBook
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", auth0ID, ErrNotFound)
			}
			return err
		}

		var book models.Book
		err := lockRows(tx).Where("olid = ?", olid).First(&book).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if title == "" {
				return validationError("Please provide the title of this book.")
			}
			if authors == "" {
				return validationError("Please provide the author(s) of this book.")
			}
			// Cover image URLs must be sourced from OpenLibrary; empty is allowed
			if coverImageURL != "" && !coverURLPattern.MatchString(coverImageURL) {
				return validationError(`Cover image URLs must be of the format "https://covers.openlibrary.org/b/id/{id}-M.jpg".`)
			}

			book = models.Book{
				OLID:          olid,
				Title:         title,
				Authors:       authors,
				CoverImageURL: coverImageURL,
			}
			if err := tx.Create(&book).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		userBook = models.UserBook{UserID: user.ID, BookID: book.ID}
		if err := tx.Create(&userBook).Error; err != nil {
			return err
		}
		userBook.User = &user
		userBook.Book = &book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &userBook, nil
}

// UpdateUserBookRating sets the rating on a shelf entry. The id is the bare
// numeric row id; ownership is not checked, matching the original API.
func (s *Service) UpdateUserBookRating(ctx context.Context, userBookID uint, rating int) (*models.UserBook, error) {
	if rating < 1 || rating > 5 {
		return nil, validationError("Rating must be an integer between 1 and 5.")
	}

	var userBook models.UserBook
	if err := s.DB.WithContext(ctx).First(&userBook, userBookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user book %d: %w", userBookID, ErrNotFound)
		}
		return nil, err
	}

	userBook.Rating = &rating
	if err := s.DB.WithContext(ctx).Save(&userBook).Error; err != nil {
		return nil, err
	}
	return &userBook, nil
}

// DeleteUserBook removes a shelf entry and, when that was the last shelf
// referencing the book, the book row itself. The deleted entry is returned
// with its book payload either way. Delete and recount run in one
// transaction with the book row locked so two concurrent deletes of the
// last two references cannot both observe a nonzero count.
func (s *Service) DeleteUserBook(ctx context.Context, userBookID uint) (*models.UserBook, error) {
	var userBook models.UserBook
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Book").First(&userBook, userBookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user book %d: %w", userBookID, ErrNotFound)
			}
			return err
		}

		var book models.Book
		if err := lockRows(tx).First(&book, userBook.BookID).Error; err != nil {
			return err
		}

		// Hard deletes throughout: an orphaned Book must not persist, and a
		// soft-deleted row would still hold the unique OLID.
		if err := tx.Unscoped().Delete(&models.UserBook{}, userBookID).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.UserBook{}).Where("book_id = ?", userBook.BookID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Unscoped().Delete(&models.Book{}, userBook.BookID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &userBook, nil
}

// UpdateUserProfile updates the caller's optional profile fields.
func (s *Service) UpdateUserProfile(ctx context.Context, auth0ID string, age int, gender, favoriteBook, favoriteAuthor, currentlyReading string) (*models.User, error) {
	if age < 1 || age > 200 {
		return nil, validationError("Age must be a number between 1 and 200.")
	}
	for _, field := range []string{gender, favoriteBook, favoriteAuthor, currentlyReading} {
		if len(field) > maxProfileFieldLength {
			return nil, validationError("Fields must not exceed 100 characters.")
		}
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", auth0ID, ErrNotFound)
		}
		return nil, err
	}

	user.Age = &age
	user.Gender = gender
	user.FavoriteBook = favoriteBook
	user.FavoriteAuthor = favoriteAuthor
	user.CurrentlyReading = currentlyReading
	if err := s.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user, their whole shelf, and every book left
// unreferenced by the shelf's removal. Unknown users are a no-op returning
// nil. The shelf must be cleared before the user row goes (FK integrity),
// and the referenced book rows are locked across the delete-then-recount
// window.
func (s *Service) DeleteUser(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
			return err
		}

		var bookIDs []uint
		if err := tx.Model(&models.UserBook{}).
			Distinct().
			Where("user_id = ?", user.ID).
			Pluck("book_id", &bookIDs).Error; err != nil {
			return err
		}

		if len(bookIDs) > 0 {
			var locked []models.Book
			if err := lockRows(tx).Where("id IN ?", bookIDs).Find(&locked).Error; err != nil {
				return err
			}
		}

		if err := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.UserBook{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.User{}, user.ID).Error; err != nil {
			return err
		}

		if len(bookIDs) == 0 {
			return nil
		}

		// Books still on someone else's shelf survive; the rest are orphans.
		var stillReferenced []uint
		if err := tx.Model(&models.UserBook{}).
			Distinct().
			Where("book_id IN ?", bookIDs).
			Pluck("book_id", &stillReferenced).Error; err != nil {
			return err
		}

		referenced := make(map[uint]bool, len(stillReferenced))
		for _, id := range stillReferenced {
			referenced[id] = true
		}
		var orphans []uint
		for _, id := range bookIDs {
			if !referenced[id] {
				orphans = append(orphans, id)
			}
		}
		if len(orphans) > 0 {
			if err := tx.Unscoped().Where("id IN ?", orphans).Delete(&models.Book{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
