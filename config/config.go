package config

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// OutputKey is the rendering of the parsed descriptors. Either "text" or "json"
	OutputKey = "OUTPUT"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("PUBPORT")
	vip.AutomaticEnv()

	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(OutputKey, "text")

	log.SetLevel(log.Level(GetInt(LogLevelKey)))
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// Set ...
func Set(key string, val interface{}) {
	vip.Set(key, val)
}
