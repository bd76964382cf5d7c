package api

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/gottatouchsomegrass/civic-cast/logging"
)

type Config struct {
	StorageConfig
	ServerConfig
	AuthConfig
}

type StorageConfig struct {
	// Driver selects "dynamo" (default) or "memory" for local runs.
	Driver             string
	TableNameElections string
	TableNameUsers     string
	TableNameVotes     string
}

type ServerConfig struct {
	Port int
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	AdminSecret   string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			Driver:             getStringOrDefault("storage.Driver", "dynamo"),
			TableNameElections: viper.GetString("storage.TableNameElections"),
			TableNameUsers:     viper.GetString("storage.TableNameUsers"),
			TableNameVotes:     viper.GetString("storage.TableNameVotes"),
		},
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
		},
		AuthConfig: AuthConfig{
			JWTSecret:     getString("JWT_SECRET"),
			TokenTTLHours: getIntOrDefault("auth.TokenTTLHours", 24),
			AdminSecret:   getString("ADMIN_SECRET"),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
