package oracle

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goware/superr"
)

// Config holds every environment-variable-configured setting the daemon
// reads at startup. There are no CLI flags; see cmd/oracled.
type Config struct {
	WSURLRelay      string
	WSURLPara       string
	ContractAddress string

	OraclePrivateKey     string
	OraclePrivateKeyPath string

	ABIPath string

	GasLimit             uint64
	MaxPriorityFeePerGas *big.Int

	FrequencyOfRequests        time.Duration
	MaxNumberOfFailureRequests uint32
	Timeout                    time.Duration

	EraDurationInSeconds time.Duration
	EraDurationInBlocks  uint64
	InitialBlockNumber   uint64

	SS58Format         uint16
	TypeRegistryPreset string
	ParaID             uint64

	RestAPIServerIPAddress string
	RestAPIServerPort      uint16
	PrometheusMetricsPort  uint16

	LogLevelStdout slog.Level

	DebugMode bool

	EraUpdateDelay            time.Duration
	EraDelayTime              time.Duration
	WaitingTimeBeforeShutdown time.Duration
}

// LoadConfig reads and validates every environment variable in the
// daemon's external interface. Any missing required value or malformed
// setting is a fatal ConfigError.
func LoadConfig() (*Config, error) {
	c := &Config{
		ABIPath:                    envOr("ABI_PATH", "assets/oracle.json"),
		GasLimit:                   10_000_000,
		MaxPriorityFeePerGas:       big.NewInt(0),
		FrequencyOfRequests:        180 * time.Second,
		MaxNumberOfFailureRequests: 10,
		Timeout:                    60 * time.Second,
		EraDurationInSeconds:       180 * time.Second,
		EraDurationInBlocks:        30,
		InitialBlockNumber:         1,
		SS58Format:                 2,
		TypeRegistryPreset:         "kusama",
		ParaID:                     999,
		RestAPIServerIPAddress:     "0.0.0.0",
		RestAPIServerPort:          8000,
		PrometheusMetricsPort:      8000,
		LogLevelStdout:             slog.LevelInfo,
		EraUpdateDelay:             360 * time.Second,
		EraDelayTime:               600 * time.Second,
		WaitingTimeBeforeShutdown:  600 * time.Second,
	}

	var err error
	if c.WSURLRelay, err = requireEnv("WS_URL_RELAY"); err != nil {
		return nil, err
	}
	if c.WSURLPara, err = requireEnv("WS_URL_PARA"); err != nil {
		return nil, err
	}
	if c.ContractAddress, err = requireEnv("CONTRACT_ADDRESS"); err != nil {
		return nil, err
	}

	c.OraclePrivateKey = os.Getenv("ORACLE_PRIVATE_KEY")
	c.OraclePrivateKeyPath = os.Getenv("ORACLE_PRIVATE_KEY_PATH")
	if c.OraclePrivateKey == "" && c.OraclePrivateKeyPath == "" {
		return nil, superr.New(ErrConfig, fmt.Errorf("one of ORACLE_PRIVATE_KEY or ORACLE_PRIVATE_KEY_PATH is required"))
	}

	if v, ok := os.LookupEnv("GAS_LIMIT"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("GAS_LIMIT: %w", err))
		}
		c.GasLimit = n
	}

	if v, ok := os.LookupEnv("MAX_PRIORITY_FEE_PER_GAS"); ok {
		n, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, superr.New(ErrConfig, fmt.Errorf("MAX_PRIORITY_FEE_PER_GAS: invalid integer %q", v))
		}
		c.MaxPriorityFeePerGas = n
	}

	if err := durationEnvSeconds("FREQUENCY_OF_REQUESTS", &c.FrequencyOfRequests); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("MAX_NUMBER_OF_FAILURE_REQUESTS"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("MAX_NUMBER_OF_FAILURE_REQUESTS: %w", err))
		}
		c.MaxNumberOfFailureRequests = uint32(n)
	}
	if err := durationEnvSeconds("TIMEOUT", &c.Timeout); err != nil {
		return nil, err
	}
	if err := durationEnvSeconds("ERA_DURATION_IN_SECONDS", &c.EraDurationInSeconds); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("ERA_DURATION_IN_BLOCKS"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("ERA_DURATION_IN_BLOCKS: %w", err))
		}
		c.EraDurationInBlocks = n
	}
	if v, ok := os.LookupEnv("INITIAL_BLOCK_NUMBER"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("INITIAL_BLOCK_NUMBER: %w", err))
		}
		c.InitialBlockNumber = n
	}
	if v, ok := os.LookupEnv("SS58_FORMAT"); ok {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("SS58_FORMAT: %w", err))
		}
		c.SS58Format = uint16(n)
	}
	c.TypeRegistryPreset = envOr("TYPE_REGISTRY_PRESET", c.TypeRegistryPreset)

	if v, ok := os.LookupEnv("PARA_ID"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, superr.New(ErrConfig, fmt.Errorf("PARA_ID: %w", err))
		}
		c.ParaID = n
	}

	c.RestAPIServerIPAddress = envOr("REST_API_SERVER_IP_ADDRESS", c.RestAPIServerIPAddress)
	if err := portEnv("REST_API_SERVER_PORT", &c.RestAPIServerPort); err != nil {
		return nil, err
	}
	if err := portEnv("PROMETHEUS_METRICS_PORT", &c.PrometheusMetricsPort); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("LOG_LEVEL_STDOUT"); ok {
		lvl, err := parseLogLevel(v)
		if err != nil {
			return nil, superr.New(ErrConfig, err)
		}
		c.LogLevelStdout = lvl
	}

	c.DebugMode = strings.EqualFold(os.Getenv("ORACLE_MODE"), "DEBUG")

	if err := durationEnvSeconds("ERA_UPDATE_DELAY", &c.EraUpdateDelay); err != nil {
		return nil, err
	}
	if err := durationEnvSeconds("ERA_DELAY_TIME", &c.EraDelayTime); err != nil {
		return nil, err
	}
	if err := durationEnvSeconds("WAITING_TIME_BEFORE_SHUTDOWN", &c.WaitingTimeBeforeShutdown); err != nil {
		return nil, err
	}

	return c, nil
}

// WatchdogPeriod is the duration after which EraTracker force-reconnects
// the relay client if no era transition has been observed.
func (c *Config) WatchdogPeriod(watchdogDelay time.Duration) time.Duration {
	return c.EraDurationInSeconds + watchdogDelay
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func requireEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", superr.New(ErrConfig, fmt.Errorf("environment variable %s is required", name))
	}
	return v, nil
}

func durationEnvSeconds(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return superr.New(ErrConfig, fmt.Errorf("%s: %w", name, err))
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

func portEnv(name string, dst *uint16) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return superr.New(ErrConfig, fmt.Errorf("%s: %w", name, err))
	}
	*dst = uint16(n)
	return nil
}

func parseLogLevel(v string) (slog.Level, error) {
	switch strings.ToUpper(v) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL_STDOUT: unrecognized level %q", v)
	}
}
