package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewDefault().Validate())
}

func TestDefaultCredentialsMatchSeeds(t *testing.T) {
	cfg := NewDefault()
	require.Len(t, cfg.Seed, 2)

	for _, seed := range cfg.Seed {
		hexKey, ok := cfg.Credentials[seed.Address]
		require.True(t, ok, "seed %s has no credential", seed.Name)

		key, err := crypto.HexToECDSA(hexKey)
		require.NoError(t, err)
		assert.Equal(t, seed.Address, strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()))
	}
	assert.Equal(t, "0x627306090abab3a6e1400e9345bc60c78a8bef57", devBobAddress)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`
database:
  driver: postgres
  dsn: postgres://dtl@localhost/dtl?sslmode=disable
ledger:
  timeout: 5s
credentials:
  "%[1]s": "%[2]s"
seed:
  - address: "%[1]s"
    name: Alice
    balance: 50
`, devAliceAddress, devAliceKey)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DTL_SERVER_ADDR", ":9999")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	BindEnv(v)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Len(t, cfg.Credentials, 1)
	require.Len(t, cfg.Seed, 1)
	assert.Equal(t, int64(50), cfg.Seed[0].Balance)
	assert.Equal(t, path, cfg.ConfigPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Len(t, cfg.Credentials, 2)
	assert.Len(t, cfg.Seed, 2)
	assert.Equal(t, int64(1337), cfg.Ledger.ChainID)
	assert.Equal(t, 30*time.Second, cfg.Confirmer.RetryMax)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "database.driver 'oracle' is not supported",
		},
		{
			name:    "missing contract",
			mutate:  func(c *Config) { c.Ledger.ContractAddress = "" },
			wantErr: "ledger.contract_address is required",
		},
		{
			name:    "bad credential key",
			mutate:  func(c *Config) { c.Credentials["alice"] = "00" },
			wantErr: "credentials key 'alice' is not a hex address",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Ledger.Timeout = 0 },
			wantErr: "ledger.timeout must be positive",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format 'xml' is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
