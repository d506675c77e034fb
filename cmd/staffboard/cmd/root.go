// Package cmd implements the staffboard command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version info - set via SetVersion()
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
	storePath string
	backend   string
	noColor   bool

	v *viper.Viper
}

// NewRootCmd builds the command tree. Each call has its own flag and viper
// state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "staffboard",
		Short: "HR onboarding and offboarding kanban",
		Long: `staffboard tracks employees through onboarding and offboarding stages.

Cards move between stage columns; every stage change is recorded in the
card's history with a system comment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "",
		"config file (default: .staffboard.yaml or ~/.config/staffboard/config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	pf.StringVar(&opts.backend, "store", "sqlite",
		"store backend (sqlite, memory)")
	pf.StringVar(&opts.storePath, "db", "",
		"SQLite database path")
	pf.BoolVar(&opts.noColor, "no-color", false,
		"disable colored output")

	// Bind flags to viper (errors are nil when flag exists)
	_ = opts.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = opts.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = opts.v.BindPFlag("store.backend", pf.Lookup("store"))
	_ = opts.v.BindPFlag("store.path", pf.Lookup("db"))

	rootCmd.AddCommand(
		newServeCmd(opts),
		newCardsCmd(opts),
		newStagesCmd(opts),
		newCommentsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// SetVersion records the build information printed by `staffboard version`.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}
