package cli

import (
	"fmt"

	"github.com/99designs/keyring"
	"github.com/spf13/viper"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

type fileUnits struct {
	Temperature       string `mapstructure:"temperature"`
	Distance          string `mapstructure:"distance"`
	Pressure          string `mapstructure:"pressure"`
	ElectricPotential string `mapstructure:"electric_potential"`
	Time              string `mapstructure:"time"`
	DecimalPlaces     int    `mapstructure:"decimal_places"`
}

type fileConfig struct {
	Username    string    `mapstructure:"username"`
	Password    string    `mapstructure:"password"`
	VIN         string    `mapstructure:"vin"`
	TokenCache  string    `mapstructure:"token_cache"`
	KeyringType string    `mapstructure:"keyring_type"`
	KeyringDir  string    `mapstructure:"keyring_dir"`
	Units       fileUnits `mapstructure:"units"`
}

// ReadConfigFile populates c using c.ConfigFilename. The format is chosen by the file extension.
// Values that are already populated are not overwritten, so command-line flags and environment
// variables take precedence over the file.
//
// If c.ConfigFilename is empty, this method does nothing.
func (c *Config) ReadConfigFile() error {
	if c.ConfigFilename == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(c.ConfigFilename)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var file fileConfig
	if err := v.Unmarshal(&file); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Debug("Loaded settings from %s", v.ConfigFileUsed())
	return c.apply(&file)
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func (c *Config) apply(file *fileConfig) error {
	if c.Flags.isSet(FlagVIN) {
		setIfEmpty(&c.VIN, file.VIN)
	}
	if c.Flags.isSet(FlagAccount) {
		setIfEmpty(&c.Username, file.Username)
		setIfEmpty(&c.accountPassword, file.Password)
		setIfEmpty(&c.CacheFilename, file.TokenCache)
		setIfEmpty(&c.Backend.FileDir, file.KeyringDir)
		if file.KeyringType != "" && c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(file.KeyringType); err != nil {
				return fmt.Errorf("invalid keyring_type '%s': %w", file.KeyringType, err)
			}
		}
	}
	if c.Flags.isSet(FlagUnits) {
		return c.applyUnits(&file.Units)
	}
	return nil
}

func (c *Config) applyUnits(file *fileUnits) (err error) {
	if c.Units.Temperature == "" && file.Temperature != "" {
		if c.Units.Temperature, err = units.ParseTemperatureUnit(file.Temperature); err != nil {
			return err
		}
	}
	if c.Units.Distance == "" && file.Distance != "" {
		if c.Units.Distance, err = units.ParseDistanceUnit(file.Distance); err != nil {
			return err
		}
	}
	if c.Units.Pressure == "" && file.Pressure != "" {
		if c.Units.Pressure, err = units.ParsePressureUnit(file.Pressure); err != nil {
			return err
		}
	}
	if c.Units.ElectricPotential == "" && file.ElectricPotential != "" {
		if c.Units.ElectricPotential, err = units.ParseElectricPotentialUnit(file.ElectricPotential); err != nil {
			return err
		}
	}
	if c.Units.Time == "" && file.Time != "" {
		if c.Units.Time, err = units.ParseTimeUnit(file.Time); err != nil {
			return err
		}
	}
	if c.Units.DecimalPlaces == 0 {
		c.Units.DecimalPlaces = file.DecimalPlaces
	}
	return nil
}
