package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagSocketPath = "socket-path"

	// Run command flags
	FlagHeadless  = "headless"
	FlagDaemon    = "daemon"
	FlagAutoStart = "autostart"
	FlagOnce      = "once"
	FlagTick      = "tick"
	FlagWebAddr   = "web-addr"
	FlagNoBell    = "no-bell"

	// Shutdown and init command flags
	FlagForce = "force"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON = "json"

	// Init command flags
	FlagDryRun  = "dry-run"
	FlagMinimal = "minimal"
	FlagGlobal  = "global"
)
