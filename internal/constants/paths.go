package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// DefaultActivityFile is the default JSON activity ledger
const DefaultActivityFile = "data/user_activity.json"

// DefaultActivityDB is the default SQLite activity database
const DefaultActivityDB = "data/activity.db"
