// Package status parses vehicle telemetry into a read-only [Snapshot].
//
// The telemetry endpoint returns a JSON object with a top-level "metrics" map. Scalar metrics are
// objects with a "value" field:
//
//	"outsideTemperature": {"updateTime": "...", "value": 21.5}
//
// Per-entity metrics (doors, wheels, seat belts) are lists of records tagged with a position:
//
//	"doorLockStatus": [{"vehicleDoor": "ALL_DOORS", "value": "LOCKED"}]
//
// Accessors return a [protocol.StatusError] instead of a default value when a required field is
// missing or has the wrong type, since that usually indicates a change to the server's response
// format.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/vehiclepass/vehicle-command/pkg/protocol"
	"github.com/vehiclepass/vehicle-command/pkg/units"
)

// Kind describes the expected JSON type of a metric value.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	}
	return "any"
}

func (k Kind) matches(v interface{}) bool {
	switch k {
	case KindAny:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindList:
		_, ok := v.([]interface{})
		return ok
	case KindObject:
		_, ok := v.(map[string]interface{})
		return ok
	}
	return false
}

// Snapshot is an immutable view of a single telemetry response. A Snapshot is never modified after
// it is created; refreshing vehicle state produces a new Snapshot.
type Snapshot struct {
	raw       map[string]interface{}
	prefs     units.Preferences
	decimals  int
	fetchedAt time.Time
}

// Empty returns a Snapshot with no metrics. Every accessor on an empty Snapshot fails with a
// StatusError.
func Empty(prefs units.Preferences) *Snapshot {
	return New(nil, prefs)
}

// New wraps a decoded telemetry response. The caller must not modify raw afterwards.
func New(raw map[string]interface{}, prefs units.Preferences) *Snapshot {
	return &Snapshot{
		raw:       raw,
		prefs:     prefs,
		decimals:  prefs.Decimals(),
		fetchedAt: time.Now(),
	}
}

// Parse decodes a JSON telemetry response.
func Parse(body []byte, prefs units.Preferences) (*Snapshot, error) {
	var raw map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	if err := decoder.Decode(&raw); err != nil {
		return nil, &protocol.StatusError{Err: fmt.Errorf("invalid status response: %w", err)}
	}
	if raw == nil {
		return nil, &protocol.StatusError{Err: fmt.Errorf("invalid status response: not an object")}
	}
	return New(raw, prefs), nil
}

// Raw returns the decoded response without any rounding or unit conversion.
func (s *Snapshot) Raw() map[string]interface{} {
	return s.raw
}

// FetchedAt returns the time the Snapshot was created.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Preferences returns the unit preferences used for typed accessors.
func (s *Snapshot) Preferences() units.Preferences {
	return s.prefs
}

func (s *Snapshot) metrics() (map[string]interface{}, error) {
	metrics, ok := s.raw["metrics"].(map[string]interface{})
	if !ok {
		return nil, &protocol.StatusError{Err: fmt.Errorf("metrics not found in status response")}
	}
	return metrics, nil
}

func (s *Snapshot) metric(name string) (interface{}, error) {
	metrics, err := s.metrics()
	if err != nil {
		return nil, err
	}
	m, ok := metrics[name]
	if !ok || m == nil {
		return nil, protocol.NewStatusError(name, "not found in metrics")
	}
	return m, nil
}

func (s *Snapshot) rawValue(name string, kind Kind) (interface{}, error) {
	m, err := s.metric(name)
	if err != nil {
		return nil, err
	}
	container, ok := m.(map[string]interface{})
	if !ok {
		return nil, protocol.NewStatusError(name, "expected object, got %T", m)
	}
	value, ok := container["value"]
	if !ok {
		return nil, protocol.NewStatusError(name, "value not found")
	}
	if !kind.matches(value) {
		return nil, protocol.NewStatusError(name, "expected %s value, got %T", kind, value)
	}
	return value, nil
}

func (s *Snapshot) round(v float64) float64 {
	scale := math.Pow(10, float64(s.decimals))
	return math.Round(v*scale) / scale
}

// Get returns metrics[name].value. Numbers are rounded to the configured number of decimal places;
// use [Snapshot.Raw] to access unrounded values.
func (s *Snapshot) Get(name string, kind Kind) (interface{}, error) {
	value, err := s.rawValue(name, kind)
	if err != nil {
		return nil, err
	}
	if f, ok := value.(float64); ok {
		return s.round(f), nil
	}
	return value, nil
}

func (s *Snapshot) String(name string) (string, error) {
	value, err := s.rawValue(name, KindString)
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (s *Snapshot) Float(name string) (float64, error) {
	value, err := s.Get(name, KindNumber)
	if err != nil {
		return 0, err
	}
	return value.(float64), nil
}

func (s *Snapshot) Int(name string) (int, error) {
	value, err := s.rawValue(name, KindNumber)
	if err != nil {
		return 0, err
	}
	return int(math.Round(value.(float64))), nil
}

func (s *Snapshot) Bool(name string) (bool, error) {
	value, err := s.rawValue(name, KindBool)
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

// number returns an unrounded numeric value for use with the units package, which performs its own
// rounding.
func (s *Snapshot) number(name string) (float64, error) {
	value, err := s.rawValue(name, KindNumber)
	if err != nil {
		return 0, err
	}
	return value.(float64), nil
}

// records returns a list-shaped metric.
func (s *Snapshot) records(name string) ([]map[string]interface{}, error) {
	m, err := s.metric(name)
	if err != nil {
		return nil, err
	}
	list, ok := m.([]interface{})
	if !ok {
		return nil, protocol.NewStatusError(name, "expected list, got %T", m)
	}
	records := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if record, ok := item.(map[string]interface{}); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// tagged returns the value of the first record in metric name whose tagKey equals tag.
func (s *Snapshot) tagged(name, tagKey, tag string, kind Kind) (interface{}, error) {
	records, err := s.records(name)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if t, _ := record[tagKey].(string); t != tag {
			continue
		}
		value, ok := record["value"]
		if !ok {
			return nil, protocol.NewStatusError(name, "%s record has no value", tag)
		}
		if !kind.matches(value) {
			return nil, protocol.NewStatusError(name, "expected %s value for %s, got %T", kind, tag, value)
		}
		return value, nil
	}
	return nil, protocol.NewStatusError(name, "no record for %s", tag)
}

// tags returns the tag of every record in metric name, in order.
func (s *Snapshot) tags(name, tagKey string) ([]string, error) {
	records, err := s.records(name)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, record := range records {
		if t, ok := record[tagKey].(string); ok {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// path walks nested objects outside the metrics map, such as events.remoteStartEvent.
func (s *Snapshot) path(keys ...string) (map[string]interface{}, error) {
	current := s.raw
	for i, key := range keys {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil, &protocol.StatusError{Err: fmt.Errorf("%s not found in status response", joinPath(keys[:i+1]))}
		}
		current = next
	}
	return current, nil
}

func joinPath(keys []string) string {
	var b bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(k)
	}
	return b.String()
}
