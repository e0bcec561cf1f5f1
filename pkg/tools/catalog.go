// Package tools calls the auxiliary tool service and describes the tools it
// offers.
package tools

import (
	"time"
)

const (
	// CurrentTime returns the current date and time in Cape Town.
	CurrentTime = "get_current_time"

	// TimezoneInfo returns timezone information for South Africa.
	TimezoneInfo = "get_timezone_info"

	// TimeLayout renders a time as "Monday, 02 January 2006 at 15:04:05 (SAST)".
	TimeLayout = "Monday, 02 January 2006 at 15:04:05 (SAST)"

	// TimezoneDescription is the fixed answer for TimezoneInfo.
	TimezoneDescription = "South Africa Standard Time (SAST), UTC+2, no daylight saving"

	// DefaultTimezone is the zone the tool service and the fallback report in.
	DefaultTimezone = "Africa/Johannesburg"
)

// Tool describes one callable tool.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog is the set of tools advertised to the model.
type Catalog []Tool

// DefaultCatalog returns the tools the Cape Town tool service offers.
func DefaultCatalog() Catalog {
	return Catalog{
		{Name: CurrentTime, Description: "Returns the current date and time in Cape Town"},
		{Name: TimezoneInfo, Description: "Returns timezone information for South Africa"},
	}
}

// Has reports whether the catalog lists name.
func (c Catalog) Has(name string) bool {
	for _, t := range c {
		if t.Name == name {
			return true
		}
	}
	return false
}

// FormatTime renders t in the tool service's layout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
