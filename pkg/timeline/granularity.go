package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is the time-axis bucket size.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// Interval is a tick step: either a fixed number of milliseconds or a number
// of calendar months.
type Interval struct {
	Millis int64
	Months int
}

// MarshalJSON encodes the interval the way chart axes expect it: a number of
// milliseconds, or "M<n>" for month steps.
func (i Interval) MarshalJSON() ([]byte, error) {
	if i.Months > 0 {
		return json.Marshal("M" + strconv.Itoa(i.Months))
	}
	return json.Marshal(i.Millis)
}

func (i *Interval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := strconv.Atoi(strings.TrimPrefix(s, "M"))
		if !strings.HasPrefix(s, "M") || err != nil {
			return fmt.Errorf("invalid month interval %q", s)
		}
		*i = Interval{Months: n}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid interval %s", data)
	}
	*i = Interval{Millis: ms}
	return nil
}

// TickConfig tells the rendering layer how to label and space axis ticks.
type TickConfig struct {
	Format   string   `json:"tickformat,omitempty"`
	Interval Interval `json:"dtick"`
	Angle    int      `json:"tickangle"`
}

// IsZero reports whether the config is empty (unknown granularity).
func (c TickConfig) IsZero() bool {
	return c == TickConfig{}
}

var tickConfigs = map[Granularity]TickConfig{
	Daily:     {Format: "%d/%m", Interval: Interval{Millis: (24 * time.Hour).Milliseconds()}, Angle: -90},
	Weekly:    {Format: "Week %W\n%Y", Interval: Interval{Millis: (7 * 24 * time.Hour).Milliseconds()}},
	Monthly:   {Format: "%b %Y", Interval: Interval{Months: 1}},
	Quarterly: {Format: "%b %Y", Interval: Interval{Months: 3}},
	Yearly:    {Format: "%Y", Interval: Interval{Months: 12}},
}

// ResolveGranularity looks up the tick configuration of g. Unknown values
// yield the zero TickConfig; the caller supplies its own fallback.
func ResolveGranularity(g string) TickConfig {
	return tickConfigs[Granularity(strings.ToLower(strings.TrimSpace(g)))]
}
