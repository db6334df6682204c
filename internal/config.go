package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Config is read from the environment. DebugPort 0 disables the debug server
// and MemberAddresses is comma separated.
type Config struct {
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH"`
	ForwardValue     bool          `env:"FORWARD_VALUE,default=false"`
	MaxCallDepth     int           `env:"MAX_CALL_DEPTH,default=1024" validate:"min=1"`
	FanoutBufferSize int           `env:"FANOUT_BUFFER_SIZE,default=64" validate:"min=1"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s"`
	DebugPort        int           `env:"DEBUG_PORT,default=0" validate:"min=0,max=65535"`
	OwnerAddress     string        `env:"OWNER_ADDRESS,required=true" validate:"eth_addr"`
	CallerAddress    string        `env:"CALLER_ADDRESS" validate:"omitempty,eth_addr"`
	MemberAddresses  string        `env:"MEMBER_ADDRESSES"`
}

var validate = validator.New()

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := config.Members(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Owner() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

// Caller returns the zero address when no caller is configured.
func (c Config) Caller() common.Address {
	return common.HexToAddress(c.CallerAddress)
}

func (c Config) Members() ([]common.Address, error) {
	parts := lo.Compact(lo.Map(strings.Split(c.MemberAddresses, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	members := make([]common.Address, 0, len(parts))
	for _, part := range parts {
		if !common.IsHexAddress(part) {
			return nil, fmt.Errorf("MEMBER_ADDRESSES contains an invalid address: %q", part)
		}
		members = append(members, common.HexToAddress(part))
	}
	return members, nil
}

// BadgerOptions opens the database on disk, or in memory when no path is set.
func (c Config) BadgerOptions() badger.Options {
	if c.BadgerFilepath == "" {
		return badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	}
	return badger.DefaultOptions(c.BadgerFilepath).WithLoggingLevel(badger.INFO)
}
