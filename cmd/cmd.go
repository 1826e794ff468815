package cmd

import (
	"github.com/spf13/cobra"

	"mileage/config"
	"mileage/logger"
)

var RootCmd = &cobra.Command{
	Use:   "mileage",
	Short: "track vehicle mileage, fuel efficiency and fuel cost",
	Long:  `mileage records fill-up to fill-up trips per vehicle, derives distance, efficiency and cost, and keeps a per-user backup of the data.`,
}

func init() {
	RootCmd.SilenceUsage = true
	fs := RootCmd.PersistentFlags()
	fs.String("db-type", config.DBTypeSQLite, "Database engine (sqlite, postgres)")
	fs.String("db-path", config.AppName+".db", "SQLite database file")
	fs.String("database-url", "", "PostgreSQL connection string")
	fs.String("mq-mode", config.MQModeGoChan, "Change bus (go_chan, rabbitmq, gcp_pub_sub)")
	fs.String("backup-mode", config.BackupModeNone, "Backup store (none, dir, drive, s3)")
	fs.String("backup-dir", "./backup", "Root directory of the dir backup store")
	fs.String("log-level", "info", "Log level")
	fs.String("log-file", "", "Rotating log file, stdout when empty")

	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(migrateCommand())
	RootCmd.AddCommand(calcCommand())
}

// loadConfig reads the configuration and points the logger at its output.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
