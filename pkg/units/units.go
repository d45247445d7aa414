// Package units provides immutable measurement values reported by the vehicle.
//
// Each value stores the raw reading in the unit used by the telemetry API (Celsius, kilometers,
// kilopascals, volts, seconds) and exposes rounded conversions. The String method renders the
// value in the unit selected by the [Preferences] used to create it.
package units

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	milesPerKilometer = 0.621371
	psiPerKilopascal  = 0.145038
	kilopascalsPerBar = 100
)

func round(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}

// formatFloat renders v with the fewest digits needed, but always with a fractional part.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Temperature is a temperature reading.
type Temperature struct {
	celsius  float64
	decimals int
	unit     TemperatureUnit
}

func (p Preferences) NewTemperature(celsius float64) Temperature {
	p = p.withDefaults()
	return Temperature{celsius: celsius, decimals: p.DecimalPlaces, unit: p.Temperature}
}

func TemperatureFromCelsius(celsius float64) Temperature {
	return DefaultPreferences().NewTemperature(celsius)
}

func TemperatureFromFahrenheit(fahrenheit float64) Temperature {
	return TemperatureFromCelsius((fahrenheit - 32) * 5 / 9)
}

func (t Temperature) C() float64 { return round(t.celsius, t.decimals) }
func (t Temperature) F() float64 { return round(t.celsius*9/5+32, t.decimals) }

// In returns the temperature in unit u.
func (t Temperature) In(u TemperatureUnit) float64 {
	if u == Celsius {
		return t.C()
	}
	return t.F()
}

func (t Temperature) String() string {
	return formatFloat(t.In(t.unit)) + labels[string(t.unit)]
}

// Distance is a length, such as an odometer reading or estimated range.
type Distance struct {
	kilometers float64
	decimals   int
	unit       DistanceUnit
}

func (p Preferences) NewDistance(kilometers float64) Distance {
	p = p.withDefaults()
	return Distance{kilometers: kilometers, decimals: p.DecimalPlaces, unit: p.Distance}
}

func DistanceFromKilometers(kilometers float64) Distance {
	return DefaultPreferences().NewDistance(kilometers)
}

func DistanceFromMiles(miles float64) Distance {
	return DistanceFromKilometers(miles / milesPerKilometer)
}

func (d Distance) KM() float64 { return round(d.kilometers, d.decimals) }
func (d Distance) MI() float64 { return round(d.kilometers*milesPerKilometer, d.decimals) }

func (d Distance) In(u DistanceUnit) float64 {
	if u == Kilometers {
		return d.KM()
	}
	return d.MI()
}

func (d Distance) String() string {
	return formatFloat(d.In(d.unit)) + " " + labels[string(d.unit)]
}

// Pressure is a tire pressure reading.
type Pressure struct {
	kilopascals float64
	decimals    int
	unit        PressureUnit
}

func (p Preferences) NewPressure(kilopascals float64) Pressure {
	p = p.withDefaults()
	return Pressure{kilopascals: kilopascals, decimals: p.DecimalPlaces, unit: p.Pressure}
}

func PressureFromKilopascals(kilopascals float64) Pressure {
	return DefaultPreferences().NewPressure(kilopascals)
}

func PressureFromPSI(psi float64) Pressure {
	return PressureFromKilopascals(psi / psiPerKilopascal)
}

func PressureFromBar(bar float64) Pressure {
	return PressureFromKilopascals(bar * kilopascalsPerBar)
}

func (p Pressure) KPA() float64 { return round(p.kilopascals, p.decimals) }
func (p Pressure) PSI() float64 { return round(p.kilopascals*psiPerKilopascal, p.decimals) }
func (p Pressure) Bar() float64 { return round(p.kilopascals/kilopascalsPerBar, p.decimals) }

func (p Pressure) In(u PressureUnit) float64 {
	switch u {
	case Kilopascals:
		return p.KPA()
	case Bar:
		return p.Bar()
	}
	return p.PSI()
}

func (p Pressure) String() string {
	return formatFloat(p.In(p.unit)) + " " + labels[string(p.unit)]
}

// ElectricPotential is a voltage reading, such as the 12V battery voltage.
type ElectricPotential struct {
	volts    float64
	decimals int
	unit     ElectricPotentialUnit
}

func (p Preferences) NewElectricPotential(volts float64) ElectricPotential {
	p = p.withDefaults()
	return ElectricPotential{volts: volts, decimals: p.DecimalPlaces, unit: p.ElectricPotential}
}

func ElectricPotentialFromVolts(volts float64) ElectricPotential {
	return DefaultPreferences().NewElectricPotential(volts)
}

func ElectricPotentialFromMillivolts(millivolts float64) ElectricPotential {
	return ElectricPotentialFromVolts(millivolts / 1000)
}

func (e ElectricPotential) V() float64  { return round(e.volts, e.decimals) }
func (e ElectricPotential) MV() float64 { return round(e.volts*1000, e.decimals) }

func (e ElectricPotential) In(u ElectricPotentialUnit) float64 {
	if u == Millivolts {
		return e.MV()
	}
	return e.V()
}

func (e ElectricPotential) String() string {
	return formatFloat(e.In(e.unit)) + " " + labels[string(e.unit)]
}

// Duration is a span of time reported in seconds, such as the remote start countdown.
type Duration struct {
	seconds  float64
	decimals int
	unit     TimeUnit
}

func (p Preferences) NewDuration(seconds float64) Duration {
	p = p.withDefaults()
	return Duration{seconds: seconds, decimals: p.DecimalPlaces, unit: p.Time}
}

func DurationFromSeconds(seconds float64) Duration {
	return DefaultPreferences().NewDuration(seconds)
}

func (d Duration) H() float64       { return round(d.seconds/3600, d.decimals) }
func (d Duration) M() float64       { return round(d.seconds/60, d.decimals) }
func (d Duration) Seconds() float64 { return round(d.seconds, d.decimals) }
func (d Duration) MS() float64      { return round(d.seconds*1000, d.decimals) }

// Std converts d to a [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d.seconds * float64(time.Second))
}

// HumanReadable renders d as hours, minutes, and seconds, omitting zero components (e.g.,
// "14m 11s"). A zero duration renders as "0s".
func (d Duration) HumanReadable() string {
	total := int64(d.seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+"m")
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(seconds, 10)+"s")
	}
	return strings.Join(parts, " ")
}

func (d Duration) In(u TimeUnit) float64 {
	switch u {
	case Hours:
		return d.H()
	case Minutes:
		return d.M()
	case Milliseconds:
		return d.MS()
	}
	return d.Seconds()
}

func (d Duration) String() string {
	if d.unit == HumanReadable {
		return d.HumanReadable()
	}
	return formatFloat(d.In(d.unit)) + " " + labels[string(d.unit)]
}

// Percentage is a fraction in the range [0, 1], such as a fuel level.
type Percentage struct {
	fraction float64
	decimals int
}

func (p Preferences) NewPercentage(fraction float64) Percentage {
	p = p.withDefaults()
	return Percentage{fraction: fraction, decimals: p.DecimalPlaces}
}

func PercentageFromFraction(fraction float64) Percentage {
	return DefaultPreferences().NewPercentage(fraction)
}

// Fraction returns the value in the range [0, 1]. Two extra decimal places are kept so that
// Fraction carries the same precision as Percent.
func (p Percentage) Fraction() float64 { return round(p.fraction, p.decimals+2) }

// Percent returns the value in the range [0, 100].
func (p Percentage) Percent() float64 { return round(p.fraction*100, p.decimals) }

func (p Percentage) String() string {
	return formatFloat(p.Percent()) + "%"
}
