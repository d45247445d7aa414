/*
Package cli facilitates building command-line applications that check on and send commands to
vehicles. It defines a [Config] type that can be used to register common command-line flags (using
the Golang flag package), environment variable equivalents, and an optional configuration file.

The package uses [keyring]'s platform-agnostic interface for storing the account password in an
OS-dependent credential store, and a [cache.TokenCache] file to avoid logging in on every run.

# Examples

	import flag

	config, err := NewConfig(FlagAll)
	if err != nil {
		panic(err)
	}
	config.RegisterCommandLineFlags() // Adds command-line flags for credentials, VIN, units, etc.
	flag.Parse()
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables
	if err := config.ReadConfigFile(); err != nil {
		panic(err)
	}
	config.LoadCredentials()          // Prompt for the account password if needed

	// Logs in (or reuses cached tokens) and fetches the vehicle status if a VIN is configured. The
	// car may be nil even if err is nil.
	acct, car, err := config.Connect(ctx)
	if err != nil {
		panic(err)
	}

A [Flag] mask controls which [Config] fields are populated. Note that config.Flags must be set
before calling [flag.Parse] or [Config.ReadFromEnvironment]:

	config, err = NewConfig(FlagAccount) // config.Connect() logs in but does not fetch a vehicle.
*/
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/account"
	"github.com/vehiclepass/vehicle-command/pkg/cache"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/units"
	"github.com/vehiclepass/vehicle-command/pkg/vehicle"

	"github.com/99designs/keyring"
)

// Environment variable names used are used by [Config.ReadFromEnvironment] to set common parameters.
const (
	EnvUsername      = "VEHICLEPASS_USERNAME"
	EnvPassword      = "VEHICLEPASS_PASSWORD"
	EnvVIN           = "VEHICLEPASS_VIN"
	EnvTokenCache    = "VEHICLEPASS_TOKEN_CACHE"
	EnvConfigFile    = "VEHICLEPASS_CONFIG"
	EnvKeyringType   = "VEHICLEPASS_KEYRING_TYPE"
	EnvKeyringPass   = "VEHICLEPASS_KEYRING_PASSWORD"
	EnvKeyringPath   = "VEHICLEPASS_KEYRING_PATH"
	EnvKeyringDebug  = "VEHICLEPASS_KEYRING_DEBUG"
	EnvDecimalPlaces = "VEHICLEPASS_DECIMAL_PLACES"
)

// TokenExpiryMargin is how long before expiry a cached access token is considered stale.
const TokenExpiryMargin = 5 * time.Minute

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagVIN     Flag = 1 // Enable VIN option.
	FlagAccount Flag = 2 // Enable account credential and token cache options.
	FlagUnits   Flag = 4 // Enable unit preference options.
	FlagAll     Flag = FlagVIN | FlagAccount | FlagUnits
)

var (
	ErrNoUsername       = errors.New("account username not provided")
	ErrAccountDisabled  = errors.New("configuration does not permit account access")
	ErrPasswordNotFound = keyring.ErrKeyNotFound
)

// Config fields determine how a client authenticates and which vehicle it talks to.
type Config struct {
	Flags          Flag // Controls which set of environment variables/CLI flags to use.
	Username       string
	VIN            string
	CacheFilename  string
	ConfigFilename string
	Units          units.Preferences
	Backend        keyring.Config
	BackendType    backendType
	Debug          bool // Enable keyring debug messages

	// Now is used to decide whether cached tokens have expired. Defaults to time.Now.
	Now func() time.Time

	password        *string // keyring file password
	accountPassword string
	tokens          *cache.TokenCache
	acct            *account.Account
}

func NewConfig(flags Flag) (*Config, error) {
	c := Config{
		Flags: flags,
		Backend: keyring.Config{
			ServiceName:              keyringServiceName,
			KeychainTrustApplication: true,
			KeyCtlScope:              "user",
		},
		Now: time.Now,
	}
	c.BackendType = backendType{&c}
	c.Backend.KeychainPasswordFunc = c.getPassword
	c.Backend.FilePasswordFunc = c.getPassword

	return &c, nil
}

// RegisterCommandLineFlags adds flags to the default flag set.
func (c *Config) RegisterCommandLineFlags() {
	c.RegisterFlags(flag.CommandLine)
}

// RegisterFlags adds flags to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFilename, "config", "", "Load settings from a yaml, toml, or json `file`. Defaults to $"+EnvConfigFile+".")
	if c.Flags.isSet(FlagVIN) {
		fs.StringVar(&c.VIN, "vin", "", "Vehicle Identification Number. Defaults to $"+EnvVIN+".")
	}
	if c.Flags.isSet(FlagAccount) {
		fs.StringVar(&c.Username, "username", "", "Account `username`. Defaults to $"+EnvUsername+".")
		fs.StringVar(&c.CacheFilename, "token-cache", "", "Load cached login tokens from `file`. Defaults to $"+EnvTokenCache+".")

		var names []string
		for _, name := range keyring.AvailableBackends() {
			names = append(names, string(name))
		}
		sort.Strings(names)
		fs.Var(&c.BackendType, "keyring-type", "Keyring `type` ("+strings.Join(names, "|")+"). Defaults to $"+EnvKeyringType+".")
		fs.StringVar(&c.Backend.FileDir, "keyring-file-dir", "", "keyring `directory` for file-backed keyring types. Defaults to $"+EnvKeyringPath+" or "+keyringDirectory+".")
		fs.BoolVar(&c.Debug, "keyring-debug", false, "Enable keyring debug logging")
		c.registerFlagsOsSpecific(fs)
	}
	if c.Flags.isSet(FlagUnits) {
		fs.Func("temperature-unit", "Temperature `unit` (c|f)", func(s string) (err error) {
			c.Units.Temperature, err = units.ParseTemperatureUnit(s)
			return
		})
		fs.Func("distance-unit", "Distance `unit` (km|mi)", func(s string) (err error) {
			c.Units.Distance, err = units.ParseDistanceUnit(s)
			return
		})
		fs.Func("pressure-unit", "Pressure `unit` (kpa|psi|bar)", func(s string) (err error) {
			c.Units.Pressure, err = units.ParsePressureUnit(s)
			return
		})
		fs.Func("voltage-unit", "Electric potential `unit` (v|mv)", func(s string) (err error) {
			c.Units.ElectricPotential, err = units.ParseElectricPotentialUnit(s)
			return
		})
		fs.Func("time-unit", "Duration `unit` (h|m|s|ms|human)", func(s string) (err error) {
			c.Units.Time, err = units.ParseTimeUnit(s)
			return
		})
		fs.IntVar(&c.Units.DecimalPlaces, "decimals", 0, "Decimal places used when rounding values. Defaults to $"+EnvDecimalPlaces+" or 2.")
	}
}

// LoadCredentials prompts for the account password if no unexpired tokens are cached. Call this
// method before [Config.Connect] to prevent interactive prompts from counting against timeouts.
func (c *Config) LoadCredentials() error {
	if !c.Flags.isSet(FlagAccount) {
		return nil
	}
	if err := c.loadCache(); err != nil {
		return err
	}
	if _, ok := c.cachedTokens(); ok {
		return nil
	}
	_, err := c.Password()
	return err
}

// ReadFromEnvironment populates c using environment variables. Values that are already populated
// are not overwritten.
//
// Calling ReadFromEnvironment after flag.Parse() (or other initialization method) will prevent the
// environment from overriding explicit command-line parameters and avoid potentially misleading
// debug log messages.
func (c *Config) ReadFromEnvironment() {
	if c.ConfigFilename == "" {
		c.ConfigFilename = os.Getenv(EnvConfigFile)
	}
	if c.Flags.isSet(FlagVIN) {
		if c.VIN == "" {
			c.VIN = os.Getenv(EnvVIN)
			log.Debug("Set VIN to '%s'", c.VIN)
		}
	}
	if c.Flags.isSet(FlagAccount) {
		if c.Username == "" {
			c.Username = os.Getenv(EnvUsername)
			log.Debug("Set username to '%s'", c.Username)
		}
		if c.accountPassword == "" {
			c.accountPassword = os.Getenv(EnvPassword)
			if len(c.accountPassword) > 0 {
				log.Debug("Set account password to %s", strings.Repeat("*", len("hunter2")))
			}
		}
		if c.CacheFilename == "" {
			c.CacheFilename = os.Getenv(EnvTokenCache)
			log.Debug("Set token cache file to '%s'", c.CacheFilename)
		}
		if c.BackendType.String() == string(keyring.InvalidBackend) {
			if err := c.BackendType.Set(os.Getenv(EnvKeyringType)); err == nil {
				log.Debug("Set keyring type to '%s'", c.BackendType)
			}
		}
		if c.password == nil {
			password := os.Getenv(EnvKeyringPass)
			c.password = &password
			if len(password) > 0 {
				log.Debug("Set keyring File Password to %s", strings.Repeat("*", len("hunter2")))
			}
		}
		if c.Backend.FileDir == "" {
			c.Backend.FileDir = os.Getenv(EnvKeyringPath)
			log.Debug("Set keyring File Path to '%s'", c.Backend.FileDir)
		}
		if !c.Debug {
			_, c.Debug = os.LookupEnv(EnvKeyringDebug)
			log.Debug("Set keyring Debug Logging to '%v'", c.Debug)
		}
	}
	if c.Flags.isSet(FlagUnits) && c.Units.DecimalPlaces == 0 {
		if value := os.Getenv(EnvDecimalPlaces); value != "" {
			if places, err := strconv.Atoi(value); err == nil {
				c.Units.DecimalPlaces = places
				log.Debug("Set decimal places to %d", places)
			} else {
				log.Warning("Ignoring invalid %s '%s'", EnvDecimalPlaces, value)
			}
		}
	}
}

// Preferences returns the configured unit preferences.
func (c *Config) Preferences() (units.Preferences, error) {
	if err := c.Units.Validate(); err != nil {
		return units.Preferences{}, err
	}
	return c.Units, nil
}

func (c *Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Config) loadCache() error {
	if c.CacheFilename == "" || c.tokens != nil {
		return nil
	}
	log.Debug("Loading token cache from %s...", c.CacheFilename)
	var err error
	c.tokens, err = cache.ImportFromFile(c.CacheFilename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load token cache: %s", err)
		}
		// Create a new cache if one couldn't be loaded from the file
		c.tokens = cache.New(0)
	}
	return nil
}

func (c *Config) cachedTokens() (account.TokenPair, bool) {
	if c.tokens == nil || c.Username == "" {
		return account.TokenPair{}, false
	}
	return c.tokens.GetValid(c.Username, c.now(), TokenExpiryMargin)
}

// UpdateCachedTokens writes the tokens held by acct to c.CacheFilename.
//
// If c.CacheFilename is not set or acct has not logged in, then this method does nothing.
func (c *Config) UpdateCachedTokens(acct *account.Account) {
	if c.CacheFilename == "" || acct == nil {
		return
	}
	tokens, ok := acct.Tokens()
	if !ok {
		return
	}
	if c.tokens == nil {
		c.tokens = cache.New(0)
	}
	c.tokens.Update(acct.Username, tokens)
	if err := c.tokens.ExportToFile(c.CacheFilename); err != nil {
		log.Error("Error updating token cache: %s", err)
	}
}

// Password returns the account password. It checks, in order, values already supplied by the
// environment, the system keyring, and finally an interactive prompt.
func (c *Config) Password() (string, error) {
	if c.accountPassword != "" {
		return c.accountPassword, nil
	}
	if c.Username == "" {
		return "", ErrNoUsername
	}
	password, err := c.LoadPasswordFromKeyring()
	if err == nil {
		c.accountPassword = password
		return password, nil
	}
	log.Debug("Password not available from keyring: %s", err)
	password, err = readPassword(fmt.Sprintf("Password for %s", c.Username))
	if err != nil {
		return "", err
	}
	c.accountPassword = password
	return password, nil
}

// Account returns the configured account, reusing cached tokens when they have not expired and
// logging in otherwise.
func (c *Config) Account(ctx context.Context) (*account.Account, error) {
	if c.acct != nil {
		return c.acct, nil
	}
	if !c.Flags.isSet(FlagAccount) {
		return nil, ErrAccountDisabled
	}
	if c.Username == "" {
		return nil, ErrNoUsername
	}
	if err := c.loadCache(); err != nil {
		return nil, err
	}
	if tokens, ok := c.cachedTokens(); ok {
		log.Debug("Using cached tokens for %s", c.Username)
		c.acct = account.NewFromTokens(c.Username, tokens)
		return c.acct, nil
	}

	password, err := c.Password()
	if err != nil {
		return nil, err
	}
	acct, err := account.New(c.Username, password)
	if err != nil {
		return nil, err
	}
	log.Info("Logging in as %s...", c.Username)
	if err := acct.Login(ctx); err != nil {
		return nil, err
	}
	c.UpdateCachedTokens(acct)
	c.acct = acct
	return acct, nil
}

// Connect to the account and, if a VIN was provided, fetch the vehicle's status.
//
// The returned vehicle is nil if c does not include a VIN.
func (c *Config) Connect(ctx context.Context) (acct *account.Account, car *vehicle.Vehicle, err error) {
	prefs, err := c.Preferences()
	if err != nil {
		return nil, nil, &protocol.ConfigurationError{Message: err.Error()}
	}
	acct, err = c.Account(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !c.Flags.isSet(FlagVIN) || c.VIN == "" {
		// We don't need to connect to car, return early.
		return acct, nil, nil
	}
	log.Info("Fetching vehicle status...")
	car, err = acct.GetVehicle(ctx, c.VIN, prefs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vehicle: %w", err)
	}
	return acct, car, nil
}
