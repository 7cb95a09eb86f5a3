package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./studyshelf.db"

	// DefaultMaxMembers is the group capacity used when the creator does not pick one
	DefaultMaxMembers = 4
)
