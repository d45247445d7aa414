package units

import (
	"fmt"
	"strings"
)

// DefaultDecimalPlaces is the precision used when rounding converted values.
const DefaultDecimalPlaces = 2

// MaxDecimalPlaces is the largest precision that float64 rounding can represent.
const MaxDecimalPlaces = 15

type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "c"
	Fahrenheit TemperatureUnit = "f"
)

type DistanceUnit string

const (
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
)

type PressureUnit string

const (
	Kilopascals PressureUnit = "kpa"
	PSI         PressureUnit = "psi"
	Bar         PressureUnit = "bar"
)

type ElectricPotentialUnit string

const (
	Volts      ElectricPotentialUnit = "v"
	Millivolts ElectricPotentialUnit = "mv"
)

type TimeUnit string

const (
	Hours         TimeUnit = "h"
	Minutes       TimeUnit = "m"
	Seconds       TimeUnit = "s"
	Milliseconds  TimeUnit = "ms"
	HumanReadable TimeUnit = "human_readable"
)

var labels = map[string]string{
	string(Celsius):      "°C",
	string(Fahrenheit):   "°F",
	string(Kilometers):   "km",
	string(Miles):        "mi",
	string(Kilopascals):  "kPa",
	string(PSI):          "psi",
	string(Bar):          "bar",
	string(Volts):        "V",
	string(Millivolts):   "mV",
	string(Hours):        "h",
	string(Minutes):      "m",
	string(Seconds):      "s",
	string(Milliseconds): "ms",
}

// Preferences control the unit used when a value is rendered as a string and the number of
// decimal places used for conversions. Conversion accessors are available regardless of the
// preferred unit. Zero values select the defaults, including DecimalPlaces.
type Preferences struct {
	Temperature       TemperatureUnit
	Distance          DistanceUnit
	Pressure          PressureUnit
	ElectricPotential ElectricPotentialUnit
	Time              TimeUnit
	DecimalPlaces     int
}

// DefaultPreferences returns US customary units with two decimal places.
func DefaultPreferences() Preferences {
	return Preferences{
		Temperature:       Fahrenheit,
		Distance:          Miles,
		Pressure:          PSI,
		ElectricPotential: Volts,
		Time:              HumanReadable,
		DecimalPlaces:     DefaultDecimalPlaces,
	}
}

// Validate returns an error if p contains an unrecognized unit. Empty fields are permitted and
// fall back to the defaults.
func (p Preferences) Validate() error {
	if _, err := ParseTemperatureUnit(string(p.Temperature)); p.Temperature != "" && err != nil {
		return err
	}
	if _, err := ParseDistanceUnit(string(p.Distance)); p.Distance != "" && err != nil {
		return err
	}
	if _, err := ParsePressureUnit(string(p.Pressure)); p.Pressure != "" && err != nil {
		return err
	}
	if _, err := ParseElectricPotentialUnit(string(p.ElectricPotential)); p.ElectricPotential != "" && err != nil {
		return err
	}
	if _, err := ParseTimeUnit(string(p.Time)); p.Time != "" && err != nil {
		return err
	}
	if p.DecimalPlaces < 0 {
		return fmt.Errorf("decimal places must not be negative: %d", p.DecimalPlaces)
	}
	if p.DecimalPlaces > MaxDecimalPlaces {
		return fmt.Errorf("decimal places must not exceed %d: %d", MaxDecimalPlaces, p.DecimalPlaces)
	}
	return nil
}

// withDefaults fills in empty fields.
func (p Preferences) withDefaults() Preferences {
	d := DefaultPreferences()
	if p.Temperature == "" {
		p.Temperature = d.Temperature
	}
	if p.Distance == "" {
		p.Distance = d.Distance
	}
	if p.Pressure == "" {
		p.Pressure = d.Pressure
	}
	if p.ElectricPotential == "" {
		p.ElectricPotential = d.ElectricPotential
	}
	if p.Time == "" {
		p.Time = d.Time
	}
	if p.DecimalPlaces <= 0 {
		p.DecimalPlaces = d.DecimalPlaces
	} else if p.DecimalPlaces > MaxDecimalPlaces {
		p.DecimalPlaces = MaxDecimalPlaces
	}
	return p
}

func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch u := TemperatureUnit(strings.ToLower(s)); u {
	case Celsius, Fahrenheit:
		return u, nil
	}
	return "", fmt.Errorf("unknown temperature unit '%s'", s)
}

func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch u := DistanceUnit(strings.ToLower(s)); u {
	case Kilometers, Miles:
		return u, nil
	}
	return "", fmt.Errorf("unknown distance unit '%s'", s)
}

func ParsePressureUnit(s string) (PressureUnit, error) {
	switch u := PressureUnit(strings.ToLower(s)); u {
	case Kilopascals, PSI, Bar:
		return u, nil
	}
	return "", fmt.Errorf("unknown pressure unit '%s'", s)
}

func ParseElectricPotentialUnit(s string) (ElectricPotentialUnit, error) {
	switch u := ElectricPotentialUnit(strings.ToLower(s)); u {
	case Volts, Millivolts:
		return u, nil
	}
	return "", fmt.Errorf("unknown electric potential unit '%s'", s)
}

func ParseTimeUnit(s string) (TimeUnit, error) {
	switch u := TimeUnit(strings.ToLower(s)); u {
	case Hours, Minutes, Seconds, Milliseconds, HumanReadable:
		return u, nil
	}
	return "", fmt.Errorf("unknown time unit '%s'", s)
}

// Decimals returns the number of decimal places used for rounding, applying the default when
// p.DecimalPlaces is zero.
func (p Preferences) Decimals() int {
	return p.withDefaults().DecimalPlaces
}
