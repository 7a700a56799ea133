// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, role seeding
//	├── users/           # Accounts and partial updates
//	├── categories/      # Categories and per-category statistics
//	├── books/           # Catalog reads, search and deletion
//	├── borrows/         # Loans, returns and lending statistics
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, log)
//
//	booksRepo := books.NewRepository(db.DB)
//	borrowsRepo := borrows.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(ctx, 123)
//
// # Uniqueness
//
// Invariants that must hold under concurrent requests live in the schema:
// users.email and borrows.active_book_id carry unique indexes. The connection
// is opened with TranslateError so violations surface as
// gorm.ErrDuplicatedKey on both sqlite and mysql.
//
// Repositories return gorm errors unchanged or wrapped with %w. Translating
// them into application errors is the job of the services.
package database
