package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)
	require.Equal(t, 10, s.NumIter)
	require.Equal(t, 0.25, s.Tau)
	require.False(t, s.GradDescent)
	require.False(t, s.LastTimestep)
	require.Equal(t, 4, s.Workers)
}

func TestConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num-iter: 32\ngrad-descent: true\ntau: 0.1\n"), 0644))
	t.Setenv("MMP_WORKERS", "8")

	s, err := Load(New(), path)
	require.NoError(t, err)
	require.Equal(t, 32, s.NumIter)
	require.True(t, s.GradDescent)
	require.InDelta(t, 0.1, s.Tau, 1e-12)
	require.Equal(t, 8, s.Workers)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mmp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num-iter: 32\n"), 0644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int(KeyNumIter, 10, "")
	require.NoError(t, fs.Parse([]string{"--num-iter=3"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	s, err := Load(v, path)
	require.NoError(t, err)
	require.Equal(t, 3, s.NumIter)
}

func TestValidate(t *testing.T) {
	require.Error(t, (&Settings{NumIter: -1, Workers: 1}).Validate())
	require.Error(t, (&Settings{GradDescent: true, Workers: 1}).Validate())
	require.Error(t, (&Settings{Workers: 0}).Validate())
	require.NoError(t, (&Settings{Workers: 1}).Validate())
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
