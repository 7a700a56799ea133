package config

const (
	// DefaultDatabasePath is the default path for the sqlite database
	DefaultDatabasePath = "./devbook.db"

	// DefaultLoanPeriodDays is how long a borrow lasts before it is due
	DefaultLoanPeriodDays = 14
)
