package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./readtracker.db"

	// DefaultStreakResetSchedule runs shortly after midnight, once the new
	// calendar day has started.
	DefaultStreakResetSchedule = "5 0 * * *"
)
