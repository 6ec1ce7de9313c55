package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvOverrides reads a .env-style file (via joho/godotenv, the same
// library the rest of the retrieved pack reaches for process configuration)
// and installs any DRXA_RPC_<CHAIN>_HTTP / _WS entries as process-wide
// endpoint overrides. It is a convenience for operators who prefer env
// files over calling SetOverride in code; it never errors on a missing
// file, since overrides are optional.
func LoadEnvOverrides(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, tag := range AllChains {
		prefix := "DRXA_RPC_" + strings.ToUpper(string(tag))
		httpKey, wsKey := prefix+"_HTTP", prefix+"_WS"

		http, hasHTTP := vars[httpKey]
		ws := vars[wsKey]
		if !hasHTTP {
			continue
		}

		cfg, _ := (&Catalog{}).Get(tag)
		ep := cfg.DefaultEndpoints
		ep.HTTP = http
		if ws != "" {
			ep.WebSocket = ws
		}
		SetOverride(tag, ep)
	}
	return nil
}
