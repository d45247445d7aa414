package cli

import "flag"

func (c *Config) registerFlagsOsSpecific(fs *flag.FlagSet) {
	fs.StringVar(&c.Backend.KeyCtlScope, "keyctl-scope", c.Backend.KeyCtlScope, "Kernel keyring `scope` for the keyctl keyring type (user|session|process|thread)")
}
