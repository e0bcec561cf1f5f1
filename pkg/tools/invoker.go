package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/papercomputeco/ragchat/pkg/logger"
)

// DefaultTimeout bounds a single tool call.
const DefaultTimeout = 5 * time.Second

// Status says how a Result was obtained.
type Status int

const (
	// StatusOK means the tool service answered.
	StatusOK Status = iota

	// StatusFallback means the service was unreachable and a local answer
	// was produced instead.
	StatusFallback

	// StatusUnreachable means the service was unreachable and no local
	// answer exists for the tool.
	StatusUnreachable

	// StatusFailed means the service was reached (or timed out) but did not
	// produce a usable answer.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusUnreachable:
		return "unreachable"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of Invoke. Value is only meaningful when Ok
// reports true.
type Result struct {
	Tool   string
	Value  string
	Status Status
	Err    error
}

// Ok reports whether the result carries a value.
func (r Result) Ok() bool {
	return r.Status == StatusOK || r.Status == StatusFallback
}

// Invoker calls tools on the tool service over HTTP.
type Invoker struct {
	baseURL    string
	httpClient *http.Client
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// Config configures an Invoker.
type Config struct {
	// BaseURL of the tool service, e.g. "http://localhost:5001".
	BaseURL string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Location is used for the local time fallback. Defaults to
	// Africa/Johannesburg, or UTC+2 if the zone database is unavailable.
	Location *time.Location

	// Now overrides the clock used for the fallback.
	Now func() time.Time

	Logger *slog.Logger
}

type invokeResponse struct {
	Result *string `json:"result"`
}

// NewInvoker creates an Invoker.
func NewInvoker(cfg Config) *Invoker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	loc := cfg.Location
	if loc == nil {
		loc = SAST()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Invoker{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		location:   loc,
		now:        now,
		logger:     log,
	}
}

// Invoke posts params to /tools/{tool} and returns the service's result
// field. It never returns an error: every failure is folded into the
// Result's Status.
func (i *Invoker) Invoke(ctx context.Context, tool string, params map[string]any) Result {
	res := i.call(ctx, tool, params)
	if res.Status != StatusOK {
		i.logger.Warn("tool call did not succeed",
			"tool", tool,
			"status", res.Status.String(),
			"error", res.Err,
		)
	}
	return res
}

func (i *Invoker) call(ctx context.Context, tool string, params map[string]any) Result {
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return Result{Tool: tool, Status: StatusFailed, Err: fmt.Errorf("marshaling params: %w", err)}
	}

	endpoint := i.baseURL + "/tools/" + url.PathEscape(tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Tool: tool, Status: StatusFailed, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		if isUnreachable(err) {
			return i.fallback(tool, err)
		}
		return Result{Tool: tool, Status: StatusFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{Tool: tool, Status: StatusFailed, Err: fmt.Errorf("tool service returned status %d: %s", resp.StatusCode, msg)}
	}

	var out invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{Tool: tool, Status: StatusFailed, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if out.Result == nil {
		return Result{Tool: tool, Status: StatusFailed, Err: errors.New("response has no result field")}
	}

	return Result{Tool: tool, Value: *out.Result, Status: StatusOK}
}

// fallback answers the time tools locally when the service cannot be
// reached at all.
func (i *Invoker) fallback(tool string, cause error) Result {
	switch tool {
	case CurrentTime:
		return Result{Tool: tool, Value: FormatTime(i.now().In(i.location)), Status: StatusFallback, Err: cause}
	case TimezoneInfo:
		return Result{Tool: tool, Value: TimezoneDescription, Status: StatusFallback, Err: cause}
	default:
		return Result{Tool: tool, Status: StatusUnreachable, Err: cause}
	}
}

// isUnreachable reports whether err means no connection could be
// established, as opposed to a timeout or a failure after connecting.
func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout() {
		return true
	}

	return false
}

// SAST returns the Africa/Johannesburg location, or a fixed UTC+2 zone when
// the zone database is unavailable.
func SAST() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.FixedZone("SAST", 2*60*60)
	}
	return loc
}
