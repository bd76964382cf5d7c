// @title CivicCast API
// @version 1.0
// @description Backend API for running small-scale digital elections

// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	_ "github.com/gottatouchsomegrass/civic-cast/docs"

	"github.com/gottatouchsomegrass/civic-cast/api"
	"github.com/gottatouchsomegrass/civic-cast/logging"
)

func main() {
	logging.BoostrapLogger()

	// Load env
	_ = godotenv.Load()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service (inside the lambda)
	service := api.NewServer(config)
	service.Start()
}
