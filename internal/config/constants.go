package config

// DefaultDatabasePath is the default path for the main application database.
// The task queue derives its own database path from it.
const DefaultDatabasePath = "./cardbridge.db"
