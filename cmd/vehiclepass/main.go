package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vehiclepass/vehicle-command/internal/log"
	"github.com/vehiclepass/vehicle-command/pkg/cli"
	"github.com/vehiclepass/vehicle-command/pkg/connector/inet"
	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/vehicle"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Vehicle commands require an account username and a VIN.
 * Account-management commands require a username.
 * With no COMMAND, an interactive shell is started.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

// optionalBool is a boolean flag that remembers whether it was provided, so that commands can
// fall back to their own defaults.
type optionalBool struct {
	value bool
	set   bool
}

func (b *optionalBool) String() string {
	if b == nil || !b.set {
		return ""
	}
	return strconv.FormatBool(b.value)
}

func (b *optionalBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.value = v
	b.set = true
	return nil
}

func (b *optionalBool) IsBoolFlag() bool { return true }

// optionalDuration is a duration flag that remembers whether it was provided, so that an explicit
// zero is distinguishable from the default.
type optionalDuration struct {
	value time.Duration
	set   bool
}

func (d *optionalDuration) String() string {
	if d == nil || !d.set {
		return ""
	}
	return d.value.String()
}

func (d *optionalDuration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("duration must not be negative: %s", s)
	}
	d.value = v
	d.set = true
	return nil
}

// commandOptions are the command-line flags that apply to every vehicle command.
type commandOptions struct {
	verify        optionalBool
	verifyDelay   optionalDuration
	force         bool
	extendShutoff bool
	extendDelay   optionalDuration
}

func (c *commandOptions) register(fs *flag.FlagSet) {
	fs.Var(&c.verify, "verify", "Refresh the vehicle status after a delay to confirm a command took effect. Defaults to true for engine commands and false for door commands.")
	fs.Var(&c.verifyDelay, "verify-delay", "Wait `duration` before verifying a command. Defaults to 30s.")
	fs.BoolVar(&c.force, "force", false, "Send commands even if the vehicle is already in the requested state")
	fs.BoolVar(&c.extendShutoff, "extend-shutoff", false, "Extend the engine shutoff time after a remote start")
	fs.Var(&c.extendDelay, "extend-delay", "Wait `duration` after a remote start before extending the shutoff time. Defaults to 30s.")
}

func (c *commandOptions) options() []vehicle.Option {
	var opts []vehicle.Option
	if c.verify.set {
		opts = append(opts, vehicle.WithVerify(c.verify.value))
	}
	if c.verifyDelay.set {
		opts = append(opts, vehicle.WithVerifyDelay(c.verifyDelay.value))
	}
	if c.force {
		opts = append(opts, vehicle.WithForce(true))
	}
	if c.extendShutoff {
		opts = append(opts, vehicle.WithExtendShutoff(true))
	}
	if c.extendDelay.set {
		opts = append(opts, vehicle.WithExtendShutoffDelay(c.extendDelay.value))
	}
	return opts
}

func runCommand(s *session, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, s, args); err != nil {
		var httpErr *inet.HttpError
		if protocol.MayHaveSucceeded(err) {
			writeErr("Couldn't verify success: %s", err)
		} else if errors.As(err, &httpErr) && httpErr.Code == http.StatusUnauthorized {
			writeErr("Session expired; remove the token cache or log in again: %s", err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			writeErr("Command timed out; try increasing -command-timeout")
		} else {
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(s *session, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		if args[0] == "help" {
			if len(args) > 1 {
				if info, ok := commands[args[1]]; ok {
					info.Usage(args[1])
					continue
				}
			}
			Usage()
			continue
		}
		runCommand(s, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		logFile        string
		commandTimeout time.Duration
		connTimeout    time.Duration
		cmdOptions     commandOptions
	)
	config, err := cli.NewConfig(cli.FlagAll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.StringVar(&logFile, "log-file", "", "Write log messages to `file` (rotated) instead of stderr")
	flag.DurationVar(&commandTimeout, "command-timeout", 3*time.Minute, "Set timeout for commands, including verification delays.")
	flag.DurationVar(&connTimeout, "connect-timeout", 30*time.Second, "Set timeout for logging in and fetching the initial vehicle status.")
	cmdOptions.register(flag.CommandLine)

	config.RegisterCommandLineFlags()
	flag.Parse()
	if !debug {
		if debugEnv, ok := os.LookupEnv("VEHICLEPASS_VERBOSE"); ok {
			debug = debugEnv != "false" && debugEnv != "0"
		}
	}
	if debug {
		log.SetLevel(log.LevelDebug)
	}
	if logFile != "" {
		log.SetOutputFile(logFile, 10, 3)
	}
	config.ReadFromEnvironment()
	if err := config.ReadConfigFile(); err != nil {
		writeErr("Error: %s", err)
		return
	}

	if err := vehicle.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		writeErr("Failed to register metrics: %s", err)
		return
	}

	args := flag.Args()
	if len(args) > 0 {
		if args[0] == "help" {
			if len(args) == 1 {
				Usage()
				status = 0
				return
			}
			info, ok := commands[args[1]]
			if !ok {
				writeErr("Unrecognized command: %s", args[1])
				return
			}
			info.Usage(args[1])
			status = 0
			return
		} else {
			if err := configureFlags(config, args[0]); err != nil {
				writeErr("Missing required flag: %s", err)
				return
			}
		}
	} else if config.Username == "" {
		writeErr("Missing required flag: %s", ErrRequiresUsername)
		return
	}

	if err := config.LoadCredentials(); err != nil {
		writeErr("Error loading credentials: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	acct, car, err := config.Connect(ctx)
	if err != nil {
		writeErr("Error: %s", err)
		return
	}

	s := &session{
		config: config,
		acct:   acct,
		car:    car,
		opts:   cmdOptions.options(),
		out:    os.Stdout,
	}
	if flag.NArg() > 0 {
		status = runCommand(s, flag.Args(), commandTimeout)
	} else {
		status = runInteractiveShell(s, commandTimeout)
	}
}
