package toolserver

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/ragchat/pkg/tools"
)

const (
	timezoneInfoResult = "South Africa Standard Time (SAST), UTC+2, no daylight saving time observed"
	timezoneOffset     = "+02:00"
	timezoneAbbrev     = "SAST"
)

// Info is the body of GET /.
type Info struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Tools   []string `json:"tools"`
}

// ToolSpec is one entry of GET /tools. The tools take no parameters.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolSpecs is the body of GET /tools.
type ToolSpecs struct {
	Tools []ToolSpec `json:"tools"`
}

// CurrentTimeOutput is the result of get_current_time.
type CurrentTimeOutput struct {
	Result   string `json:"result"`
	ISO      string `json:"iso"`
	Timezone string `json:"timezone"`
}

// TimezoneInfoOutput is the result of get_timezone_info.
type TimezoneInfoOutput struct {
	Result       string `json:"result"`
	Offset       string `json:"offset"`
	Abbreviation string `json:"abbreviation"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	catalog := tools.DefaultCatalog()
	names := make([]string, 0, len(catalog))
	for _, t := range catalog {
		names = append(names, t.Name)
	}

	return c.JSON(Info{Name: Name, Version: Version, Tools: names})
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	catalog := tools.DefaultCatalog()
	specs := make([]ToolSpec, 0, len(catalog))
	for _, t := range catalog {
		specs = append(specs, ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  map[string]any{},
		})
	}

	return c.JSON(ToolSpecs{Tools: specs})
}

func (s *Server) handleCurrentTime(c *fiber.Ctx) error {
	return c.JSON(s.currentTime())
}

func (s *Server) handleTimezoneInfo(c *fiber.Ctx) error {
	return c.JSON(timezoneInfo())
}

func (s *Server) currentTime() CurrentTimeOutput {
	now := s.config.Now().In(s.location)
	s.logger.Debug("current time requested", "time", now)

	return CurrentTimeOutput{
		Result:   tools.FormatTime(now),
		ISO:      now.Format(time.RFC3339),
		Timezone: s.location.String(),
	}
}

func timezoneInfo() TimezoneInfoOutput {
	return TimezoneInfoOutput{
		Result:       timezoneInfoResult,
		Offset:       timezoneOffset,
		Abbreviation: timezoneAbbrev,
	}
}
