package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskArgsEqualsForm(t *testing.T) {
	args := []string{"--directory", "/dumps/x", "--password=hunter2", "--threads", "4"}
	MaskArgs(args)
	require.Equal(t, "--password=XXXXXXX", args[2])
}

func TestMaskArgsSpaceForm(t *testing.T) {
	args := []string{"-p", "hunter2", "--threads", "4"}
	MaskArgs(args)
	require.Equal(t, "XXXXXXX", args[1])
}

func TestMaskArgsNoPassword(t *testing.T) {
	args := []string{"--directory", "/dumps/x"}
	before := append([]string(nil), args...)
	MaskArgs(args)
	require.Equal(t, before, args)
}

func TestLoadDatabaseDefaultsToSourceDB(t *testing.T) {
	resolved, err := Load(Flags{Directory: "/dumps/x", SourceDB: "shop", Threads: 2})
	require.NoError(t, err)
	require.Equal(t, "shop", resolved.Opts.Database)
}

func TestLoadDatabaseExplicitWins(t *testing.T) {
	resolved, err := Load(Flags{Directory: "/dumps/x", SourceDB: "shop", Database: "shop2", Threads: 2})
	require.NoError(t, err)
	require.Equal(t, "shop2", resolved.Opts.Database)
}

func TestLoadDefaultsHostPortThreads(t *testing.T) {
	resolved, err := Load(Flags{Directory: "/dumps/x"})
	require.NoError(t, err)
	require.Equal(t, "localhost", resolved.Conn.Host)
	require.Equal(t, 3306, resolved.Conn.Port)
	require.Equal(t, 4, resolved.Opts.Threads)
}

func TestLoadPassesThroughVerbose(t *testing.T) {
	resolved, err := Load(Flags{Directory: "/dumps/x", Verbose: true})
	require.NoError(t, err)
	require.True(t, resolved.Opts.Verbose)
}
