// Package config resolves connection parameters and restore options from
// CLI flags layered over an optional YAML config file, the way the
// teacher's cmd/bd/config.go layers a scoped viper instance under cobra
// flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/steveyegge/dbloader/internal/dbconn"
	"github.com/steveyegge/dbloader/internal/restore"
)

// Flags mirrors exactly the command-line surface defined in spec.md §6.
// CLI flag values always win over a --config file's defaults.
type Flags struct {
	Directory          string
	Host               string
	Port               int
	Socket             string
	User               string
	Password           string
	AskPassword        bool
	Database           string
	SourceDB           string
	Threads            int
	CommitCount        int
	RowsPerChunk       int
	OverwriteTables    bool
	PurgeMode          string
	EnableBinlog       bool
	SetNames           string
	InnoDBOptimizeKeys bool
	SyncBeforeAddIndex bool
	DisableRedoLog     bool
	LogFile            string
	Verbose            bool
	ConfigFile         string
}

// Resolved is the fully resolved connection + restore configuration.
type Resolved struct {
	Conn dbconn.Params
	Opts *restore.Options
}

// Load layers f.ConfigFile's YAML connection defaults (host/port/user/socket)
// under the CLI flags, prompts for a password when requested, and builds
// the restore.Options the orchestrator runs with.
func Load(f Flags) (*Resolved, error) {
	host, port, user, socket := f.Host, f.Port, f.User, f.Socket

	if f.ConfigFile != "" {
		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigFile(f.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", f.ConfigFile, err)
		}
		if host == "" {
			host = v.GetString("host")
		}
		if port == 0 {
			port = v.GetInt("port")
		}
		if user == "" {
			user = v.GetString("user")
		}
		if socket == "" {
			socket = v.GetString("socket")
		}
	}
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 3306
	}

	password := f.Password
	if f.AskPassword {
		prompted, err := promptPassword()
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		password = prompted
	}

	database := f.Database
	if database == "" && f.SourceDB != "" {
		// myloader.c: if db == NULL && source_db != NULL, db defaults to
		// source_db.
		database = f.SourceDB
	}

	threads := f.Threads
	if threads <= 0 {
		threads = 4
	}

	return &Resolved{
		Conn: dbconn.Params{
			Host:     host,
			Port:     port,
			Socket:   socket,
			User:     user,
			Password: password,
		},
		Opts: &restore.Options{
			Directory:          f.Directory,
			Database:           database,
			SourceDB:           f.SourceDB,
			Threads:            threads,
			CommitCount:        f.CommitCount,
			RowsPerChunk:       f.RowsPerChunk,
			OverwriteTables:    f.OverwriteTables,
			PurgeModeFlag:      strings.ToUpper(f.PurgeMode),
			EnableBinlog:       f.EnableBinlog,
			SetNames:           f.SetNames,
			InnoDBOptimizeKeys: f.InnoDBOptimizeKeys,
			SyncBeforeAddIndex: f.SyncBeforeAddIndex,
			DisableRedoLog:     f.DisableRedoLog,
			Verbose:            f.Verbose,
		},
	}, nil
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--ask-password requires an interactive terminal")
	}
	fmt.Fprint(os.Stderr, "Enter password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// MaskArgs replaces every "--password=...", "--password <value>" or
// "-p <value>" password in args with X's of the same length. It rewrites
// the entries of the given slice only; the process command line the
// operating system reports (for example in `ps`) is not changed.
func MaskArgs(args []string) {
	for i, a := range args {
		if strings.HasPrefix(a, "--password=") {
			args[i] = "--password=" + strings.Repeat("X", len(a)-len("--password="))
			continue
		}
		if (a == "--password" || a == "-p") && i+1 < len(args) {
			args[i+1] = strings.Repeat("X", len(args[i+1]))
		}
	}
}
