package entities

import "time"

type BookStatus string

const (
	BookStatusToRead  BookStatus = "to_read"
	BookStatusReading BookStatus = "reading"
	BookStatusRead    BookStatus = "read"
)

const (
	MinRating = 0
	MaxRating = 5
)

// Valid reports whether s is one of the known reading statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusToRead, BookStatusReading, BookStatusRead:
		return true
	}
	return false
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryWithBooks is a category together with the books filed under it.
type CategoryWithBooks struct {
	Category
	Books []Book `json:"books"`
}

// CategoryBookCount is one row of the per-category book statistics.
type CategoryBookCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	BookCount int64  `json:"book_count"`
}

type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null;index" json:"title"`
	Author      string     `gorm:"size:255;not null" json:"author"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	Status      BookStatus `gorm:"size:20;not null" json:"status"`
	Rating      int        `gorm:"not null" json:"rating"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`

	// Filled by joined reads only.
	CategoryName *string `gorm:"->;-:migration" json:"category_name"`
}

// BookInput is the writable part of a Book.
type BookInput struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	CategoryID  *uint      `json:"category_id"`
	Status      BookStatus `json:"status"`
	Rating      *int       `json:"rating"`
	Description string     `json:"description"`
}

// CategoryInput is the writable part of a Category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
