// Package config handles tracker store configuration.
package config

const (
	// DefaultDir is the default store directory name.
	DefaultDir = "tracker"
	// DefaultDataFile is the default data file name within the store directory.
	DefaultDataFile = "tasks.csv"
	// DefaultStatus is the default status for new tasks.
	DefaultStatus = "NEW"
	// DefaultServerAddr is the default listen address of the HTTP facade.
	DefaultServerAddr = ":8080"
	// DefaultTitleLines is the default number of title lines in TUI cards.
	DefaultTitleLines = 2

	// ConfigFileName is the name of the config file within the store directory.
	ConfigFileName = "config.yml"
	// ActivityLogName is the name of the activity log within the store directory.
	ActivityLogName = "activity.jsonl"
	// LockFileName is the name of the lock file within the store directory.
	LockFileName = ".lock"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 3
)
