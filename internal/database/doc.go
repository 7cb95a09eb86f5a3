// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── books/           # Catalog reads and admin writes
//	├── discussions/     # Book discussions, replies and likes
//	├── groups/          # Groups with their member and book rows
//	├── progress/        # Reading progress and annotation rows
//	├── users/           # Accounts and reading summaries
//	└── dbtest/          # Throwaway SQLite databases for tests
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	groupRepo := groups.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	group, err := groupRepo.GetGroupByID(ctx, 42)
//
// # Errors
//
// Repositories return gorm errors unchanged. The connection is opened with
// TranslateError, so unique index violations surface as gorm.ErrDuplicatedKey
// and missing rows as gorm.ErrRecordNotFound. Callers classify with errors.Is.
package database
