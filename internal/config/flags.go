package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path of the local SQLite record store
//	-b string   directory of the local photo blob store
//	-r string   Postgres DSN of the cloud replica
//	-i int      sync sweep interval in seconds
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-r", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "path of the local record store")
	fs.StringVar(&cfg.BlobDir, "b", cfg.BlobDir, "directory of the local photo blob store")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "postgres DSN of the cloud replica")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync sweep interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
