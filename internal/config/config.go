/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (with an
 * optional local .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the deposit notification
// service. The values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	MKeySecret           string `mapstructure:"MKEY_SECRET"`
	MIDSecret            string `mapstructure:"MID_SECRET"`
	TxCacheSize          int    `mapstructure:"TX_CACHE_SIZE"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	DepositEventExchange string `mapstructure:"DEPOSIT_EVENT_EXCHANGE"`
}

// HasMerchantSecrets reports whether both shared secrets required to
// authenticate partner callbacks are configured. Without them the service
// fails closed and rejects every notification.
func (c Config) HasMerchantSecrets() bool {
	return c.MKeySecret != "" && c.MIDSecret != ""
}

// LoadConfig reads configuration from environment variables, falling back to
// an optional .env file in the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "9801")
	viper.SetDefault("TX_CACHE_SIZE", 1000)
	viper.SetDefault("DEPOSIT_EVENT_EXCHANGE", "ezpg.deposits")

	// Bind environment variables explicitly to ensure they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = viper.BindEnv("MKEY_SECRET")
	_ = viper.BindEnv("MID_SECRET")
	_ = viper.BindEnv("TX_CACHE_SIZE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("DEPOSIT_EVENT_EXCHANGE")

	// Read the config file if it exists.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}
