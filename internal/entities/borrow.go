package entities

import "time"

// Borrow is one loan of a book to a user. It is Active while ReturnDate is
// nil and Returned afterwards; Returned is terminal.
type Borrow struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	BookID uint `gorm:"index;not null" json:"book_id"`
	UserID uint `gorm:"index;not null" json:"user_id"`

	// ActiveBookID equals BookID while the borrow is Active and is NULL once
	// returned, so the unique index allows one Active borrow per book.
	ActiveBookID *uint `gorm:"uniqueIndex" json:"-"`

	BorrowDate         Date      `gorm:"type:varchar(10);index;not null" json:"borrow_date"`
	ExpectedReturnDate Date      `gorm:"type:varchar(10);index;not null" json:"expected_return_date"`
	ReturnDate         *Date     `gorm:"type:varchar(10)" json:"return_date"`
	CreatedAt          time.Time `json:"created_at"`

	// Filled by joined reads only.
	BookTitle  string `gorm:"->;-:migration" json:"book_title,omitempty"`
	BookAuthor string `gorm:"->;-:migration" json:"book_author,omitempty"`
	UserName   string `gorm:"->;-:migration" json:"user_name,omitempty"`

	// Derived from the current date, never stored.
	DaysOverdue int  `gorm:"-" json:"days_overdue"`
	Overdue     bool `gorm:"-" json:"overdue"`
}

func (b *Borrow) IsActive() bool {
	return b.ReturnDate == nil
}

// ApplyOverdue fills the derived overdue fields relative to today.
func (b *Borrow) ApplyOverdue(today Date) {
	if !b.IsActive() {
		b.DaysOverdue = 0
		b.Overdue = false
		return
	}
	days, err := b.ExpectedReturnDate.DaysSince(today)
	if err != nil {
		return
	}
	b.DaysOverdue = days
	b.Overdue = days > 0
}

// BorrowStats summarises lending activity.
type BorrowStats struct {
	Total    int64             `json:"total"`
	Active   int64             `json:"active"`
	Overdue  int64             `json:"overdue"`
	TopBooks []BookBorrowCount `json:"topBooks"`
}

// BookBorrowCount is a book ranked by how often it was borrowed.
type BookBorrowCount struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	BorrowCount int64  `json:"borrow_count"`
}
