// Command dbloader restores a mydumper/myloader-style logical dump
// directory into a running MySQL-family server using a parallel worker
// pool and the fast-index-creation CREATE TABLE rewrite.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/dbloader/internal/config"
	"github.com/steveyegge/dbloader/internal/metrics"
	"github.com/steveyegge/dbloader/internal/restore"
)

const version = "0.1.0"

func main() {
	var f config.Flags
	var showVersion bool
	var otelStdout bool

	rootCmd := &cobra.Command{
		Use:   "dbloader",
		Short: "Restore a logical dump directory into a MySQL-family server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags are parsed by the time RunE runs; scrub argv now so a
			// plaintext --password never lingers in view for longer than
			// cobra needed it, matching myloader.c's parse-then-mask order.
			config.MaskArgs(os.Args[1:])
			if showVersion {
				fmt.Println("dbloader", version)
				return nil
			}
			return run(cmd.Context(), f, otelStdout)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&f.Directory, "directory", "d", "", "dump directory to restore (required, must contain a metadata sentinel)")
	flags.StringVar(&f.ConfigFile, "config", "", "optional YAML file with connection defaults")
	flags.StringVar(&f.Host, "host", "", "server host")
	flags.IntVar(&f.Port, "port", 0, "server port")
	flags.StringVar(&f.Socket, "socket", "", "server unix socket (overrides host/port)")
	flags.StringVar(&f.User, "user", "", "connection user")
	flags.StringVar(&f.Password, "password", "", "connection password")
	flags.BoolVar(&f.AskPassword, "ask-password", false, "prompt for the connection password")
	flags.StringVarP(&f.Database, "database", "B", "", "target database name (defaults to the dump's own name, or --source-db)")
	flags.StringVarP(&f.SourceDB, "source-db", "s", "", "restrict the restore to this database in the dump")
	flags.IntVar(&f.Threads, "threads", 4, "worker pool size")
	flags.IntVarP(&f.CommitCount, "queries-per-transaction", "q", 1000, "statements per transaction; 1 disables batching")
	flags.IntVarP(&f.RowsPerChunk, "rows", "r", 0, "split INSERT statements into chunks of this many rows; 0 disables splitting")
	flags.BoolVarP(&f.OverwriteTables, "overwrite-tables", "o", false, "purge existing tables before restoring them")
	flags.StringVar(&f.PurgeMode, "purge-mode", "", "NONE, DROP, TRUNCATE, or DELETE (defaults to DROP when --overwrite-tables is set)")
	flags.BoolVarP(&f.EnableBinlog, "enable-binlog", "e", false, "write restored statements to the binary log")
	flags.StringVar(&f.SetNames, "set-names", "binary", "charset for SET NAMES on each worker connection")
	flags.BoolVar(&f.InnoDBOptimizeKeys, "innodb-optimize-keys", false, "fast index creation: defer secondary indexes and constraints until after data load")
	flags.BoolVar(&f.SyncBeforeAddIndex, "sync-before-add-index", false, "barrier-synchronize all workers before the fast-index phase begins")
	flags.BoolVar(&f.DisableRedoLog, "disable-redo-log", false, "disable InnoDB redo logging for the duration of the run")
	flags.StringVarP(&f.LogFile, "logfile", "L", "", "write log output to this file instead of stderr")
	flags.BoolVarP(&f.Verbose, "verbose", "v", false, "log every statement executed, not just failures")
	flags.BoolVar(&showVersion, "version", false, "print the version and exit")
	flags.BoolVar(&otelStdout, "otel-stdout", false, "emit OpenTelemetry traces and metrics to stdout")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dbloader:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f config.Flags, otelStdout bool) error {
	if f.Directory == "" {
		return fmt.Errorf("--directory is required")
	}

	if f.LogFile != "" {
		lf, err := os.OpenFile(f.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer lf.Close()
		log.SetOutput(lf)
	}

	if otelStdout {
		shutdown, err := metrics.EnableStdout(ctx)
		if err != nil {
			return err
		}
		defer shutdown(ctx)
	}

	resolved, err := config.Load(f)
	if err != nil {
		return err
	}

	m := metrics.New()
	ctx, span := m.StartSpan(ctx, "restore")
	defer span.End()

	o := restore.New(resolved.Opts, m)
	if err := o.Run(ctx, resolved.Conn); err != nil {
		return err
	}
	return nil
}
