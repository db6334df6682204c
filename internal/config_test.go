package internal

import (
	"go/format"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	ownerHex  = "0x1000000000000000000000000000000000000001"
	callerHex = "0x2000000000000000000000000000000000000002"
)

func Test_LoadConfig_Applies_Defaults(t *testing.T) {
	req := require.New(t)
	// Given only the owner is set
	t.Setenv("OWNER_ADDRESS", ownerHex)

	// When the config is loaded
	config, err := LoadConfig()

	// Then the defaults are applied
	req.NoError(err)
	req.Equal("INFO", config.LogLevel)
	req.False(config.ForwardValue)
	req.Equal(1024, config.MaxCallDepth)
	req.Equal(64, config.FanoutBufferSize)
	req.Equal(time.Second, config.RestartInterval)
	req.Zero(config.DebugPort)
	req.Equal(common.HexToAddress(ownerHex), config.Owner())
	req.Equal(common.Address{}, config.Caller())
	req.True(config.BadgerOptions().InMemory)
}

func Test_LoadConfig_Parses_Members(t *testing.T) {
	req := require.New(t)
	t.Setenv("OWNER_ADDRESS", ownerHex)
	t.Setenv("CALLER_ADDRESS", callerHex)
	t.Setenv("MEMBER_ADDRESSES", ownerHex+", "+callerHex+",")
	t.Setenv("FORWARD_VALUE", "true")

	config, err := LoadConfig()
	req.NoError(err)

	members, err := config.Members()
	req.NoError(err)
	req.Equal([]common.Address{common.HexToAddress(ownerHex), common.HexToAddress(callerHex)}, members)
	req.Equal(common.HexToAddress(callerHex), config.Caller())
	req.True(config.ForwardValue)
}

func Test_LoadConfig_Rejects_Invalid_Values(t *testing.T) {
	cases := map[string]map[string]string{
		"missing owner":  {},
		"invalid owner":  {"OWNER_ADDRESS": "not-an-address"},
		"invalid caller": {"OWNER_ADDRESS": ownerHex, "CALLER_ADDRESS": "0x12"},
		"invalid member": {"OWNER_ADDRESS": ownerHex, "MEMBER_ADDRESSES": ownerHex + ",0xnope"},
		"unknown level":  {"OWNER_ADDRESS": ownerHex, "LOG_LEVEL": "VERBOSE"},
		"zero depth":     {"OWNER_ADDRESS": ownerHex, "MAX_CALL_DEPTH": "0"},
		"port too high":  {"OWNER_ADDRESS": ownerHex, "DEBUG_PORT": "70000"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("OWNER_ADDRESS", "")
			for key, value := range vars {
				t.Setenv(key, value)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func Test_BadgerOptions_Uses_Filepath(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	config := Config{BadgerFilepath: dir}

	options := config.BadgerOptions()

	req.False(options.InMemory)
	req.Equal(dir, options.Dir)
}

func Test_Config_Source_Is_Formatted(t *testing.T) {
	req := require.New(t)
	source, err := os.ReadFile("config.go")
	req.NoError(err)

	formatted, err := format.Source(source)

	req.NoError(err)
	req.Equal(string(formatted), string(source))
}
