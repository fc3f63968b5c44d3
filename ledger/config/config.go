package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap-incubator/tinyledger/ledger/util/typeutil"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	StorageMemory = "memory"
	StorageBadger = "badger"
)

// Config is the ledger server configuration.
type Config struct {
	*flag.FlagSet `toml:"-" json:"-"`

	Version     bool `toml:"-" json:"-"`
	ConfigCheck bool `toml:"-" json:"-"`

	AppName  string `toml:"app-name" json:"app-name"`
	HTTPAddr string `toml:"http-addr" json:"http-addr"`
	// AdminAPIKey guards every mutating endpoint. It is never logged.
	AdminAPIKey string `toml:"admin-api-key" json:"-"`
	// Storage selects the ledger store backend: "memory" or "badger".
	Storage string `toml:"storage" json:"storage"`
	// LatchSlots is the number of slots account latches are spread over.
	LatchSlots int `toml:"latch-slots" json:"latch-slots"`
	// RateLimit is the number of API requests allowed per second, 0 disables limiting.
	RateLimit float64 `toml:"rate-limit" json:"rate-limit"`
	RateBurst int64   `toml:"rate-burst" json:"rate-burst"`
	// SeedDemoAccounts creates two demo accounts when the store is empty.
	SeedDemoAccounts bool `toml:"seed-demo-accounts" json:"seed-demo-accounts"`
	// ShutdownTimeout bounds how long running requests may take once the server is asked to stop.
	ShutdownTimeout typeutil.Duration `toml:"shutdown-timeout" json:"shutdown-timeout"`

	Log    log.Config `toml:"log" json:"log"`
	Engine Engine     `toml:"engine" json:"engine"`

	configFile string

	// For all warnings during parsing.
	WarningMsgs []string `toml:"-" json:"-"`

	logger   *zap.Logger
	logProps *log.ZapProperties
}

// Engine holds the badger options used when Storage is "badger".
type Engine struct {
	DBPath           string            `toml:"db-path" json:"db-path"`                         // Directory to store the data in. Should exist and be writable.
	ValueThreshold   int               `toml:"value-threshold" json:"value-threshold"`         // If value size >= this threshold, only store value offsets in tree.
	MaxTableSize     typeutil.ByteSize `toml:"max-table-size" json:"max-table-size"`           // Each table is at most this size.
	NumMemTables     int               `toml:"num-mem-tables" json:"num-mem-tables"`           // Maximum number of tables to keep in memory, before stalling.
	NumL0Tables      int               `toml:"num-L0-tables" json:"num-L0-tables"`             // Maximum number of Level 0 tables before we start compacting.
	NumL0TablesStall int               `toml:"num-L0-tables-stall" json:"num-L0-tables-stall"` // Maximum number of Level 0 tables before stalling.
	VlogFileSize     typeutil.ByteSize `toml:"vlog-file-size" json:"vlog-file-size"`           // Value log file size.

	// Sync all writes to disk. A transfer is only durable once its batch is synced.
	SyncWrite     bool `toml:"sync-write" json:"sync-write"`
	NumCompactors int  `toml:"num-compactors" json:"num-compactors"`
}

const (
	KB int64 = 1024
	MB int64 = 1024 * 1024
)

const (
	defaultAppName    = "TinyLedger"
	defaultHTTPAddr   = "127.0.0.1:8080"
	defaultLatchSlots = 256
	defaultRateBurst  = 100
	defaultDBPath     = "/tmp/tinyledger"

	defaultShutdownTimeout = 10 * time.Second
)

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

func defaultEngine() Engine {
	return Engine{
		DBPath:           defaultDBPath,
		ValueThreshold:   256,
		MaxTableSize:     typeutil.ByteSize(64 * MB),
		NumMemTables:     3,
		NumL0Tables:      4,
		NumL0TablesStall: 8,
		VlogFileSize:     typeutil.ByteSize(256 * MB),
		SyncWrite:        true,
		NumCompactors:    1,
	}
}

// NewConfig creates a new config with its command line flags registered.
func NewConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.FlagSet = flag.NewFlagSet("ledger-server", flag.ContinueOnError)
	fs := cfg.FlagSet

	fs.BoolVar(&cfg.Version, "V", false, "print version information and exit")
	fs.BoolVar(&cfg.Version, "version", false, "print version information and exit")
	fs.StringVar(&cfg.configFile, "config", "", "Config file")
	fs.BoolVar(&cfg.ConfigCheck, "config-check", false, "check config file validity and exit")

	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "http listen address")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "ledger store backend: memory or badger")
	fs.StringVar(&cfg.Engine.DBPath, "db-path", cfg.Engine.DBPath, "badger data directory")
	fs.BoolVar(&cfg.SeedDemoAccounts, "seed-demo-accounts", cfg.SeedDemoAccounts, "create the demo accounts when the ledger is empty")
	fs.StringVar(&cfg.Log.Level, "L", cfg.Log.Level, "log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.Log.File.Filename, "log-file", "", "log file path")

	return cfg
}

// NewDefaultConfig returns the configuration used when nothing is overridden.
func NewDefaultConfig() *Config {
	cfg := &Config{
		AppName:    defaultAppName,
		HTTPAddr:   defaultHTTPAddr,
		Storage:    StorageMemory,
		LatchSlots: defaultLatchSlots,
		RateBurst:  defaultRateBurst,
		Engine:     defaultEngine(),

		ShutdownTimeout: typeutil.NewDuration(defaultShutdownTimeout),
	}
	cfg.Log.Level = getLogLevel()
	cfg.AdminAPIKey = os.Getenv("ADMIN_API_KEY")
	return cfg
}

// NewTestConfig returns a configuration suitable for unit tests: in-memory store, a fixed api key
// and no rate limiting.
func NewTestConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.AdminAPIKey = "test-admin-key"
	cfg.LatchSlots = 16
	cfg.Engine.SyncWrite = false
	cfg.Engine.MaxTableSize = typeutil.ByteSize(4 * MB)
	cfg.Engine.VlogFileSize = typeutil.ByteSize(16 * MB)
	return cfg
}

// Parse parses flag definitions from the argument list.
func (c *Config) Parse(arguments []string) error {
	// Parse first to get config file.
	err := c.FlagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	var meta *toml.MetaData
	if c.configFile != "" {
		meta, err = c.configFromFile(c.configFile)
		if err != nil {
			return err
		}
	}

	// Parse again to replace with command line options.
	err = c.FlagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	if len(c.FlagSet.Args()) != 0 {
		return errors.Errorf("'%s' is an invalid flag", c.FlagSet.Arg(0))
	}

	return c.Adjust(meta)
}

func adjustString(v *string, defValue string) {
	if len(*v) == 0 {
		*v = defValue
	}
}

func adjustInt(v *int, defValue int) {
	if *v == 0 {
		*v = defValue
	}
}

func adjustInt64(v *int64, defValue int64) {
	if *v == 0 {
		*v = defValue
	}
}

func adjustByteSize(v *typeutil.ByteSize, defValue typeutil.ByteSize) {
	if *v == 0 {
		*v = defValue
	}
}

func adjustDuration(v *typeutil.Duration, defValue time.Duration) {
	if v.Duration == 0 {
		v.Duration = defValue
	}
}

// Adjust fills zero values with defaults, records undecoded keys as warnings and validates the
// result.
func (c *Config) Adjust(meta *toml.MetaData) error {
	if meta != nil {
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			c.WarningMsgs = append(c.WarningMsgs,
				fmt.Sprintf("config contains undefined item: %s", strings.Join(keys, ", ")))
		}
	}

	adjustString(&c.AppName, defaultAppName)
	adjustString(&c.HTTPAddr, defaultHTTPAddr)
	adjustString(&c.Storage, StorageMemory)
	adjustString(&c.Log.Level, getLogLevel())
	adjustInt(&c.LatchSlots, defaultLatchSlots)
	adjustInt64(&c.RateBurst, defaultRateBurst)
	adjustDuration(&c.ShutdownTimeout, defaultShutdownTimeout)

	def := defaultEngine()
	adjustString(&c.Engine.DBPath, def.DBPath)
	adjustInt(&c.Engine.ValueThreshold, def.ValueThreshold)
	adjustByteSize(&c.Engine.MaxTableSize, def.MaxTableSize)
	adjustInt(&c.Engine.NumMemTables, def.NumMemTables)
	adjustInt(&c.Engine.NumL0Tables, def.NumL0Tables)
	adjustInt(&c.Engine.NumL0TablesStall, def.NumL0TablesStall)
	adjustByteSize(&c.Engine.VlogFileSize, def.VlogFileSize)
	adjustInt(&c.Engine.NumCompactors, def.NumCompactors)

	if len(c.AdminAPIKey) == 0 {
		c.WarningMsgs = append(c.WarningMsgs, "admin-api-key is empty, mutating endpoints will reject every request")
	}

	return c.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageBadger:
	default:
		return errors.Errorf("unknown storage %q, expect %q or %q", c.Storage, StorageMemory, StorageBadger)
	}
	if c.LatchSlots <= 0 {
		return errors.Errorf("latch-slots must be greater than 0, got %d", c.LatchSlots)
	}
	if c.RateLimit < 0 {
		return errors.Errorf("rate-limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return errors.Errorf("rate-burst must be greater than 0 when rate-limit is set")
	}
	if c.Storage == StorageBadger && len(c.Engine.DBPath) == 0 {
		return errors.New("engine.db-path is required for badger storage")
	}
	if c.ShutdownTimeout.Duration < 0 {
		return errors.Errorf("shutdown-timeout must not be negative, got %v", c.ShutdownTimeout.Duration)
	}
	if c.Engine.NumL0TablesStall < c.Engine.NumL0Tables {
		return errors.Errorf("num-L0-tables-stall (%d) must not be less than num-L0-tables (%d)",
			c.Engine.NumL0TablesStall, c.Engine.NumL0Tables)
	}
	return nil
}

func (c *Config) configFromFile(path string) (*toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, c)
	return &meta, errors.WithStack(err)
}

// String implements fmt.Stringer. The api key is omitted.
func (c *Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return "<nil>"
	}
	return string(data)
}

// SetupLogger builds the zap logger described by the [log] section.
func (c *Config) SetupLogger() error {
	lg, p, err := log.InitLogger(&c.Log, zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return err
	}
	c.logger = lg
	c.logProps = p
	return nil
}

// GetZapLogger gets the created zap logger.
func (c *Config) GetZapLogger() *zap.Logger {
	return c.logger
}

// GetZapLogProperties gets properties of the zap logger.
func (c *Config) GetZapLogProperties() *log.ZapProperties {
	return c.logProps
}
