package constants

import "time"

// Default values for pages, server and caches
const (
	DefaultPageLength   = 10
	DefaultPort         = "3001"
	DefaultTokenTTL     = 24 * time.Hour
	DefaultCacheTTL     = 10 * time.Minute
	DefaultCacheCleanup = 30 * time.Minute
	DefaultSQLiteDSN    = "file:registry.db"
	DefaultExportPrefix = "export"
	ExportTimestampFmt  = "2006-01-02-150405"
)
