// Package config loads the dispatch core's tunables once at process
// start and freezes them into an immutable record that is passed by
// value into every constructor. Nothing past Load reaches back into
// viper or the environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the immutable configuration record injected at construction,
// rather than scattering paths and time-window constants across
// module-level globals.
type Config struct {
	Scheduler SchedulerConfig
	Oracle    OracleConfig
	Dispatcher DispatcherConfig
	Server    ServerConfig
	Audit     AuditConfig
}

// SchedulerConfig controls the insertion search.
type SchedulerConfig struct {
	// ServiceMinutesPerPassenger is applied to both Spu and Ssd of a
	// request: service_time = ServiceMinutesPerPassenger * npass.
	ServiceMinutesPerPassenger float64 `mapstructure:"SCHEDULER_SERVICE_MINUTES_PER_PASSENGER"`
	// MaxWaitMinutes tightens a request's pickup window end.
	MaxWaitMinutes float64 `mapstructure:"SCHEDULER_MAX_WAIT_MINUTES"`
	// OrderingPolicy is one of "issuance" (default) or "min_cost".
	OrderingPolicy string `mapstructure:"SCHEDULER_ORDERING_POLICY"`
	// MinCostIterationCap is the multiplier in the min-cost policy's
	// iteration budget: budget = MinCostIterationCap * |initial pending|.
	// The caller must set a positive default; zero stops the policy dead.
	MinCostIterationCap int `mapstructure:"SCHEDULER_MIN_COST_ITERATION_CAP"`
}

// OracleConfig controls the routing oracle adapter and its cache.
type OracleConfig struct {
	BaseURL      string        `mapstructure:"ORACLE_BASE_URL"`
	RoutesCorpus string        `mapstructure:"ORACLE_ROUTES_CORPUS_PATH"`
	RequestTimeout time.Duration `mapstructure:"ORACLE_REQUEST_TIMEOUT"`
	// RedisAddr enables the optional L2 cache when set.
	RedisAddr string `mapstructure:"ORACLE_REDIS_ADDR"`
	RedisDB   int    `mapstructure:"ORACLE_REDIS_DB"`
}

// DispatcherConfig controls the fleet-manager and vehicle state machines.
type DispatcherConfig struct {
	StopsCorpusPath   string        `mapstructure:"DISPATCHER_STOPS_CORPUS_PATH"`
	ProblemConfigPath string        `mapstructure:"DISPATCHER_PROBLEM_CONFIG_PATH"`
	WaitingPollPeriod time.Duration `mapstructure:"DISPATCHER_WAITING_POLL_PERIOD"`
	PositionReplyTimeout time.Duration `mapstructure:"DISPATCHER_POSITION_REPLY_TIMEOUT"`
}

// ServerConfig controls the optional monitoring/output HTTP surface.
type ServerConfig struct {
	Enabled bool   `mapstructure:"SERVER_ENABLED"`
	Addr    string `mapstructure:"SERVER_ADDR"`
	AllowedOrigins []string `mapstructure:"SERVER_ALLOWED_ORIGINS"`
	OutputDir string `mapstructure:"SERVER_OUTPUT_DIR"`
}

// AuditConfig controls the scheduling-cycle audit log.
type AuditConfig struct {
	SQLitePath string `mapstructure:"AUDIT_SQLITE_PATH"`
}

// Load reads configuration from environment variables and an optional
// config file, applying defaults for anything unset, and returns a
// frozen Config value.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("drtdispatch")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	v.SetDefault("SCHEDULER_SERVICE_MINUTES_PER_PASSENGER", 1.0)
	v.SetDefault("SCHEDULER_MAX_WAIT_MINUTES", 15.0)
	v.SetDefault("SCHEDULER_ORDERING_POLICY", "issuance")
	v.SetDefault("SCHEDULER_MIN_COST_ITERATION_CAP", 5)

	v.SetDefault("ORACLE_BASE_URL", "http://localhost:5000")
	v.SetDefault("ORACLE_ROUTES_CORPUS_PATH", "routes.json")
	v.SetDefault("ORACLE_REQUEST_TIMEOUT", "10s")
	v.SetDefault("ORACLE_REDIS_ADDR", "")
	v.SetDefault("ORACLE_REDIS_DB", 0)

	v.SetDefault("DISPATCHER_STOPS_CORPUS_PATH", "stops.json")
	v.SetDefault("DISPATCHER_PROBLEM_CONFIG_PATH", "problem.json")
	v.SetDefault("DISPATCHER_WAITING_POLL_PERIOD", "30s")
	v.SetDefault("DISPATCHER_POSITION_REPLY_TIMEOUT", "10s")

	v.SetDefault("SERVER_ENABLED", false)
	v.SetDefault("SERVER_ADDR", ":8090")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_OUTPUT_DIR", "")

	v.SetDefault("AUDIT_SQLITE_PATH", "")

	// A missing config file is not fatal: env vars and defaults carry the
	// process, matching how deployments without a mounted file still run.
	_ = v.ReadInConfig()

	cfg := Config{
		Scheduler: SchedulerConfig{
			ServiceMinutesPerPassenger: v.GetFloat64("SCHEDULER_SERVICE_MINUTES_PER_PASSENGER"),
			MaxWaitMinutes:             v.GetFloat64("SCHEDULER_MAX_WAIT_MINUTES"),
			OrderingPolicy:             v.GetString("SCHEDULER_ORDERING_POLICY"),
			MinCostIterationCap:        v.GetInt("SCHEDULER_MIN_COST_ITERATION_CAP"),
		},
		Oracle: OracleConfig{
			BaseURL:        v.GetString("ORACLE_BASE_URL"),
			RoutesCorpus:   v.GetString("ORACLE_ROUTES_CORPUS_PATH"),
			RequestTimeout: v.GetDuration("ORACLE_REQUEST_TIMEOUT"),
			RedisAddr:      v.GetString("ORACLE_REDIS_ADDR"),
			RedisDB:        v.GetInt("ORACLE_REDIS_DB"),
		},
		Dispatcher: DispatcherConfig{
			StopsCorpusPath:      v.GetString("DISPATCHER_STOPS_CORPUS_PATH"),
			ProblemConfigPath:    v.GetString("DISPATCHER_PROBLEM_CONFIG_PATH"),
			WaitingPollPeriod:    v.GetDuration("DISPATCHER_WAITING_POLL_PERIOD"),
			PositionReplyTimeout: v.GetDuration("DISPATCHER_POSITION_REPLY_TIMEOUT"),
		},
		Server: ServerConfig{
			Enabled:        v.GetBool("SERVER_ENABLED"),
			Addr:           v.GetString("SERVER_ADDR"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			OutputDir:      v.GetString("SERVER_OUTPUT_DIR"),
		},
		Audit: AuditConfig{
			SQLitePath: v.GetString("AUDIT_SQLITE_PATH"),
		},
	}
	return cfg, nil
}
