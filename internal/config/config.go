package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hance08/dtl/internal/model"
	"github.com/spf13/viper"
)

type Config struct {
	Database    DatabaseConfig      `mapstructure:"database"`
	Ledger      LedgerConfig        `mapstructure:"ledger"`
	Credentials map[string]string   `mapstructure:"credentials"`
	Metadata    MetadataConfig      `mapstructure:"metadata"`
	Server      ServerConfig        `mapstructure:"server"`
	Confirmer   ConfirmerConfig     `mapstructure:"confirmer"`
	Auth        AuthConfig          `mapstructure:"auth"`
	Log         LogConfig           `mapstructure:"log"`
	Seed        []model.AccountSeed `mapstructure:"seed"`
	ConfigPath  string              `mapstructure:"-"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	// DSN is a file path for sqlite3 and a connection URL for postgres.
	// An empty sqlite3 DSN resolves to dtl.db in the app data directory.
	DSN string `mapstructure:"dsn"`
}

type LedgerConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	WSURL           string        `mapstructure:"ws_url"`
	ChainID         int64         `mapstructure:"chain_id"`
	ContractAddress string        `mapstructure:"contract_address"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type MetadataConfig struct {
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	TransferRate    float64       `mapstructure:"transfer_rate"`
	TransferBurst   int           `mapstructure:"transfer_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ConfirmerConfig struct {
	StartBlock   uint64        `mapstructure:"start_block"`
	Backfill     bool          `mapstructure:"backfill"`
	StepTimeout  time.Duration `mapstructure:"step_timeout"`
	RetryInitial time.Duration `mapstructure:"retry_initial"`
	RetryMax     time.Duration `mapstructure:"retry_max"`
	HealthAddr   string        `mapstructure:"health_addr"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TTL      time.Duration `mapstructure:"ttl"`
	Required bool          `mapstructure:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const EnvPrefix = "DTL"

// Development chain keys, funded in the genesis of the local dev network.
// Their addresses are derived so the pair can never drift apart.
const (
	devAliceKey = "8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c691be63"
	devBobKey   = "c87509a1c067bbde78beb793e6fa76530b6382a4c0241e5e4a9ec0a0f44dc0d3"
)

var (
	devAliceAddress = mustDevAddress(devAliceKey)
	devBobAddress   = mustDevAddress(devBobKey)
)

func mustDevAddress(hexKey string) string {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(fmt.Sprintf("config: bad dev key: %v", err))
	}
	return strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func NewDefault() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite3", DSN: ""},
		Ledger: LedgerConfig{
			RPCURL:          "http://localhost:8545",
			WSURL:           "ws://localhost:8546",
			ChainID:         1337,
			ContractAddress: "0xa5A19a794fc1ec3010F832Dee431cF81D55D7Aee",
			Timeout:         30 * time.Second,
		},
		Credentials: map[string]string{
			devAliceAddress: devAliceKey,
			devBobAddress:   devBobKey,
		},
		Metadata: MetadataConfig{
			APIURL:   "http://127.0.0.1:5001",
			Timeout:  10 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			TransferRate:    5,
			TransferBurst:   10,
			ShutdownTimeout: 10 * time.Second,
		},
		Confirmer: ConfirmerConfig{
			StartBlock:   0,
			Backfill:     true,
			StepTimeout:  15 * time.Second,
			RetryInitial: time.Second,
			RetryMax:     30 * time.Second,
			HealthAddr:   ":9090",
		},
		Auth: AuthConfig{
			Secret:   "dtl-dev-secret",
			TTL:      24 * time.Hour,
			Required: false,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Seed: []model.AccountSeed{
			{Address: devAliceAddress, Name: "Alice", Balance: 1200},
			{Address: devBobAddress, Name: "Bob", Balance: 1200},
		},
	}
}

// SetDefaults registers every default on v so that a freshly written
// config file lists all keys.
func SetDefaults(v *viper.Viper) {
	d := NewDefault()

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("ledger.rpc_url", d.Ledger.RPCURL)
	v.SetDefault("ledger.ws_url", d.Ledger.WSURL)
	v.SetDefault("ledger.chain_id", d.Ledger.ChainID)
	v.SetDefault("ledger.contract_address", d.Ledger.ContractAddress)
	v.SetDefault("ledger.timeout", d.Ledger.Timeout.String())

	creds := make(map[string]any, len(d.Credentials))
	for addr, key := range d.Credentials {
		creds[addr] = key
	}
	v.SetDefault("credentials", creds)

	v.SetDefault("metadata.api_url", d.Metadata.APIURL)
	v.SetDefault("metadata.timeout", d.Metadata.Timeout.String())
	v.SetDefault("metadata.cache_ttl", d.Metadata.CacheTTL.String())

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.transfer_rate", d.Server.TransferRate)
	v.SetDefault("server.transfer_burst", d.Server.TransferBurst)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())

	v.SetDefault("confirmer.start_block", d.Confirmer.StartBlock)
	v.SetDefault("confirmer.backfill", d.Confirmer.Backfill)
	v.SetDefault("confirmer.step_timeout", d.Confirmer.StepTimeout.String())
	v.SetDefault("confirmer.retry_initial", d.Confirmer.RetryInitial.String())
	v.SetDefault("confirmer.retry_max", d.Confirmer.RetryMax.String())
	v.SetDefault("confirmer.health_addr", d.Confirmer.HealthAddr)

	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.ttl", d.Auth.TTL.String())
	v.SetDefault("auth.required", d.Auth.Required)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	seeds := make([]map[string]any, 0, len(d.Seed))
	for _, s := range d.Seed {
		seeds = append(seeds, map[string]any{"address": s.Address, "name": s.Name, "balance": s.Balance})
	}
	v.SetDefault("seed", seeds)
}

// Load decodes v into a Config built on top of the defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}
	// Unmarshal merges map keys across layers; a configured credential set
	// replaces the dev accounts instead.
	cfg.Credentials = v.GetStringMapString("credentials")
	cfg.ConfigPath = v.ConfigFileUsed()
	return cfg, nil
}

// BindEnv lets DTL_* environment variables override file values,
// e.g. DTL_LEDGER_RPC_URL for ledger.rpc_url.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Driver) {
	case "", "sqlite", "sqlite3", "postgres", "postgresql", "pq":
	default:
		errs = append(errs, fmt.Errorf("database.driver '%s' is not supported (use sqlite3 or postgres)", c.Database.Driver))
	}

	if c.Ledger.ContractAddress == "" {
		errs = append(errs, errors.New("ledger.contract_address is required"))
	} else if !common.IsHexAddress(c.Ledger.ContractAddress) {
		errs = append(errs, fmt.Errorf("ledger.contract_address '%s' is not a hex address", c.Ledger.ContractAddress))
	}
	if c.Ledger.ChainID <= 0 {
		errs = append(errs, errors.New("ledger.chain_id must be positive"))
	}

	for addr := range c.Credentials {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("credentials key '%s' is not a hex address", addr))
		}
	}
	for _, s := range c.Seed {
		if !common.IsHexAddress(s.Address) {
			errs = append(errs, fmt.Errorf("seed address '%s' is not a hex address", s.Address))
		}
	}

	durations := []struct {
		key string
		val time.Duration
	}{
		{"ledger.timeout", c.Ledger.Timeout},
		{"metadata.timeout", c.Metadata.Timeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"confirmer.step_timeout", c.Confirmer.StepTimeout},
		{"confirmer.retry_initial", c.Confirmer.RetryInitial},
		{"confirmer.retry_max", c.Confirmer.RetryMax},
		{"auth.ttl", c.Auth.TTL},
	}
	for _, d := range durations {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.key))
		}
	}
	if c.Metadata.CacheTTL < 0 {
		errs = append(errs, errors.New("metadata.cache_ttl can't be negative"))
	}
	if c.Server.TransferRate < 0 || c.Server.TransferBurst < 0 {
		errs = append(errs, errors.New("server.transfer_rate and server.transfer_burst can't be negative"))
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format '%s' is not supported (use console or json)", c.Log.Format))
	}

	return errors.Join(errs...)
}
