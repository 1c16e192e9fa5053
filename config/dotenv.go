package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// loadDotEnv merges KEY=VALUE pairs from path into the process
// environment. Variables that are already set win. A missing file is not
// an error.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		slog.Warn("config: failed to read env file", "path", path, "error", err)
		return
	}

	// viper lower-cases keys; env names are upper-case.
	for _, k := range v.AllKeys() {
		name := strings.ToUpper(k)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		_ = os.Setenv(name, v.GetString(k))
	}
}
