package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vehiclepass/vehicle-command/pkg/account"
	"github.com/vehiclepass/vehicle-command/pkg/cli"
	"github.com/vehiclepass/vehicle-command/pkg/status"
	"github.com/vehiclepass/vehicle-command/pkg/vehicle"
)

var (
	ErrCommandLineArgs  = errors.New("invalid command line arguments")
	ErrRequiresUsername = errors.New("command requires an account username")
	ErrRequiresVIN      = errors.New("command requires a VIN")
	ErrUnknownCommand   = errors.New("unrecognized command")
)

type Argument struct {
	name string
	help string
}

// session holds everything a command handler may need.
type session struct {
	config *cli.Config
	acct   *account.Account
	car    *vehicle.Vehicle
	opts   []vehicle.Option
	out    io.Writer
}

type Handler func(ctx context.Context, s *session, args map[string]string) error

type Command struct {
	help        string
	requiresVIN bool // False for account-level commands
	args        []Argument
	optional    []Argument
	handler     Handler
}

// configureFlags limits c to the options needed by commandName and verifies that c contains all
// the information required to execute it.
func configureFlags(c *cli.Config, commandName string) error {
	info, ok := commands[commandName]
	if !ok {
		return ErrUnknownCommand
	}
	c.Flags = cli.FlagAccount | cli.FlagUnits
	if info.requiresVIN {
		c.Flags |= cli.FlagVIN
	}
	if c.Username == "" {
		return ErrRequiresUsername
	}
	_, err := checkReadiness(commandName, c.VIN != "")
	return err
}

func checkReadiness(commandName string, haveVIN bool) (*Command, error) {
	info, ok := commands[commandName]
	if !ok {
		return nil, ErrUnknownCommand
	}
	if info.requiresVIN && !haveVIN {
		return nil, ErrRequiresVIN
	}
	return info, nil
}

func execute(ctx context.Context, s *session, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, err := checkReadiness(args[0], s.car != nil)
	if err != nil {
		return err
	}

	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, s, keywords)
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		if len(arg.name) > maxLength {
			maxLength = len(arg.name)
		}
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

// reading is a labelled status value. Values that are missing from the vehicle's status are
// printed as "n/a".
type reading struct {
	label string
	value func() (interface{}, error)
}

func printReadings(w io.Writer, readings []reading) {
	maxLength := 0
	for _, r := range readings {
		if len(r.label) > maxLength {
			maxLength = len(r.label)
		}
	}
	for _, r := range readings {
		v, err := r.value()
		if err != nil {
			v = "n/a"
		}
		fmt.Fprintf(w, "%s:%s %v\n", r.label, strings.Repeat(" ", maxLength-len(r.label)), v)
	}
}

func printResult(w io.Writer, result vehicle.CommandResult) {
	fmt.Fprintf(w, "%s: %s\n", result.Command, result.Outcome)
	if result.Message != "" {
		fmt.Fprintln(w, result.Message)
	}
	if ack, err := result.Acknowledgement(); err == nil && ack.CurrentStatus != "" {
		fmt.Fprintf(w, "Server status: %s\n", ack.CurrentStatus)
	}
}

type commandFunc func(ctx context.Context, opts ...vehicle.Option) (vehicle.CommandResult, error)

func runVehicleCommand(ctx context.Context, s *session, fn commandFunc) error {
	result, err := fn(ctx, s.opts...)
	if err != nil {
		return err
	}
	printResult(s.out, result)
	return nil
}

func formatTime(t time.Time, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return "n/a", nil
	}
	return t.Local().Format(time.DateTime), nil
}

var commands = map[string]*Command{
	"status": &Command{
		help:        "Print a summary of the most recently fetched vehicle status",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			car := s.car
			printReadings(s.out, []reading{
				{"Updated", func() (interface{}, error) { return formatTime(car.Status().UpdateTime()) }},
				{"Outside temperature", func() (interface{}, error) { return car.OutsideTemperature() }},
				{"Odometer", func() (interface{}, error) { return car.Odometer() }},
				{"Fuel level", func() (interface{}, error) { return car.FuelLevel() }},
				{"Fuel range", func() (interface{}, error) { return car.FuelRange() }},
				{"Battery", func() (interface{}, error) { return car.BatteryVoltage() }},
				{"Alarm", func() (interface{}, error) { return car.AlarmStatus() }},
				{"Ignition", func() (interface{}, error) { return car.Status().IgnitionStatus() }},
				{"Locked", func() (interface{}, error) { return car.Doors.AreLocked() }},
				{"Running", func() (interface{}, error) { return car.Engine.IsRunning() }},
				{"Tire pressure", func() (interface{}, error) { return car.Tires.SystemStatus() }},
			})
			return nil
		},
	},
	"refresh": &Command{
		help:        "Fetch the latest vehicle status",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			if err := s.car.Refresh(ctx); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Status fetched at %s\n", s.car.Status().FetchedAt().Format(time.DateTime))
			return nil
		},
	},
	"raw": &Command{
		help:        "Print the raw status document, or a single metric",
		requiresVIN: true,
		optional: []Argument{
			Argument{name: "METRIC", help: "Metric name, e.g. odometer or tirePressure"},
		},
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			var doc interface{} = s.car.Status().Raw()
			if name, ok := args["METRIC"]; ok {
				value, err := s.car.Status().Get(name, status.KindAny)
				if err != nil {
					return err
				}
				doc = value
			}
			encoded, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(s.out, string(encoded))
			return nil
		},
	},
	"lock": &Command{
		help:        "Lock all doors",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return runVehicleCommand(ctx, s, s.car.Doors.Lock)
		},
	},
	"unlock": &Command{
		help:        "Unlock all doors",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return runVehicleCommand(ctx, s, s.car.Doors.Unlock)
		},
	},
	"start": &Command{
		help:        "Remote start the engine",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return runVehicleCommand(ctx, s, s.car.Engine.Start)
		},
	},
	"stop": &Command{
		help:        "Stop a remotely started engine",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return runVehicleCommand(ctx, s, s.car.Engine.Stop)
		},
	},
	"extend": &Command{
		help:        "Extend the shutoff time of a remotely started engine",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return runVehicleCommand(ctx, s, s.car.Engine.ExtendShutoff)
		},
	},
	"reset-remote-starts": &Command{
		help:        "Reset the remote start count after the vehicle has been driven",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			s.car.ResetRemoteStartCount()
			fmt.Fprintf(s.out, "Remote starts remaining: %d\n", vehicle.MaxRemoteStarts)
			return nil
		},
	},
	"engine": &Command{
		help:        "Print engine status",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			engine := s.car.Engine
			printReadings(s.out, []reading{
				{"Running", func() (interface{}, error) { return engine.IsRunning() }},
				{"Remotely started", func() (interface{}, error) { return engine.IsRemotelyStarted() }},
				{"Ignition started", func() (interface{}, error) { return engine.IsIgnitionStarted() }},
				{"Shutoff countdown", func() (interface{}, error) { return engine.ShutoffCountdown() }},
				{"Shutoff time", func() (interface{}, error) { return formatTime(engine.ShutoffTime(time.Now())) }},
				{"Coolant temperature", func() (interface{}, error) { return engine.CoolantTemperature() }},
				{"RPM", func() (interface{}, error) { return engine.RPM() }},
				{"Remote starts", func() (interface{}, error) { return s.car.RemoteStartCount(), nil }},
			})
			return nil
		},
	},
	"doors": &Command{
		help:        "Print the lock status and position of each door",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			doors := s.car.Doors
			readings := []reading{
				{"Locks", func() (interface{}, error) { return doors.LockStatus(status.DoorAll) }},
			}
			positions, err := doors.Positions()
			if err != nil {
				return err
			}
			for _, position := range positions {
				position := position
				readings = append(readings, reading{position.String(), func() (interface{}, error) {
					return doors.Status(position)
				}})
			}
			printReadings(s.out, readings)
			return nil
		},
	},
	"tires": &Command{
		help:        "Print the pressure of each tire",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			tires := s.car.Tires
			readings := []reading{
				{"System", func() (interface{}, error) { return tires.SystemStatus() }},
			}
			positions, err := tires.Positions()
			if err != nil {
				return err
			}
			for _, position := range positions {
				position := position
				readings = append(readings, reading{position.String(), func() (interface{}, error) {
					pressure, err := tires.Pressure(position)
					if err != nil {
						return nil, err
					}
					state, err := tires.Status(position)
					if err != nil {
						return pressure.String(), nil
					}
					return fmt.Sprintf("%s (%s)", pressure, state), nil
				}})
			}
			printReadings(s.out, readings)
			return nil
		},
	},
	"seatbelts": &Command{
		help:        "Print the status of each seat belt",
		requiresVIN: true,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			belts := s.car.SeatBelts
			roles, err := belts.Roles()
			if err != nil {
				return err
			}
			var readings []reading
			for _, role := range roles {
				role := role
				readings = append(readings, reading{role.String(), func() (interface{}, error) {
					return belts.Status(role)
				}})
			}
			printReadings(s.out, readings)
			return nil
		},
	},
	"metrics": &Command{
		help:        "Print command counters collected during this session",
		requiresVIN: false,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return printMetrics(s.out, prometheus.DefaultGatherer)
		},
	},
	"save-password": &Command{
		help:        "Store the account password in the system keyring",
		requiresVIN: false,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			password, err := s.config.Password()
			if err != nil {
				return err
			}
			if err := s.config.SavePasswordToKeyring(password); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Saved password for %s\n", s.config.Username)
			return nil
		},
	},
	"forget-password": &Command{
		help:        "Remove the account password from the system keyring",
		requiresVIN: false,
		handler: func(ctx context.Context, s *session, args map[string]string) error {
			return s.config.DeletePassword()
		},
	},
}

func printMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "vehiclepass_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			var labels []string
			for _, label := range metric.GetLabel() {
				labels = append(labels, label.GetName()+"="+label.GetValue())
			}
			name := family.GetName() + "{" + strings.Join(labels, ",") + "}"
			if counter := metric.GetCounter(); counter != nil {
				lines = append(lines, fmt.Sprintf("%s %g", name, counter.GetValue()))
			} else if histogram := metric.GetHistogram(); histogram != nil {
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%.3fs", name, histogram.GetSampleCount(), histogram.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
