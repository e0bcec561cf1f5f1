package tools_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/tools"
)

// closedAddr returns a base URL nothing is listening on.
func closedAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	addr := l.Addr().String()
	Expect(l.Close()).To(Succeed())
	return "http://" + addr
}

var _ = Describe("Invoker", func() {
	var (
		ctx     context.Context
		handler http.HandlerFunc
		server  *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	Context("when the tool service answers", func() {
		It("returns the result field", func() {
			var gotPath string
			var gotParams map[string]any
			handler = func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&gotParams)
				_, _ = w.Write([]byte(`{"result":"Friday, 17 October 2026 at 10:00:00 (SAST)","iso":"2026-10-17T10:00:00+02:00"}`))
			}

			res := tools.NewInvoker(tools.Config{BaseURL: server.URL}).Invoke(ctx, tools.CurrentTime, map[string]any{"format": "long"})
			Expect(res.Ok()).To(BeTrue())
			Expect(res.Status).To(Equal(tools.StatusOK))
			Expect(res.Value).To(Equal("Friday, 17 October 2026 at 10:00:00 (SAST)"))
			Expect(gotPath).To(Equal("/tools/get_current_time"))
			Expect(gotParams).To(HaveKeyWithValue("format", "long"))
		})

		It("sends an empty object when params are nil", func() {
			var raw []byte
			handler = func(w http.ResponseWriter, r *http.Request) {
				raw = make([]byte, 16)
				n, _ := r.Body.Read(raw)
				raw = raw[:n]
				_, _ = w.Write([]byte(`{"result":"ok"}`))
			}

			res := tools.NewInvoker(tools.Config{BaseURL: server.URL + "/"}).Invoke(ctx, tools.TimezoneInfo, nil)
			Expect(res.Ok()).To(BeTrue())
			Expect(string(raw)).To(Equal("{}"))
		})
	})

	Context("when the tool service misbehaves", func() {
		DescribeTable("returns no value",
			func(status int, body string) {
				handler = func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(status)
					_, _ = w.Write([]byte(body))
				}

				res := tools.NewInvoker(tools.Config{BaseURL: server.URL}).Invoke(ctx, tools.CurrentTime, nil)
				Expect(res.Ok()).To(BeFalse())
				Expect(res.Status).To(Equal(tools.StatusFailed))
				Expect(res.Value).To(BeEmpty())
				Expect(res.Err).To(HaveOccurred())
			},
			Entry("non-200 status", http.StatusInternalServerError, `{"result":"nope"}`),
			Entry("malformed body", http.StatusOK, `{"result":`),
			Entry("missing result field", http.StatusOK, `{"answer":"x"}`),
		)

		It("treats a timeout as a failure, not as unreachable", func() {
			handler = func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			}

			res := tools.NewInvoker(tools.Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}).Invoke(ctx, tools.CurrentTime, nil)
			Expect(res.Status).To(Equal(tools.StatusFailed))
			Expect(res.Value).To(BeEmpty())
		})
	})

	Context("when the tool service is unreachable", func() {
		var (
			invoker *tools.Invoker
			fixed   time.Time
		)

		BeforeEach(func() {
			fixed = time.Date(2026, time.October, 17, 8, 30, 5, 0, time.UTC)
			invoker = tools.NewInvoker(tools.Config{
				BaseURL: closedAddr(),
				Now:     func() time.Time { return fixed },
			})
		})

		It("answers get_current_time locally in SAST", func() {
			res := invoker.Invoke(ctx, tools.CurrentTime, nil)
			Expect(res.Status).To(Equal(tools.StatusFallback))
			Expect(res.Ok()).To(BeTrue())
			Expect(res.Value).To(Equal("Saturday, 17 October 2026 at 10:30:05 (SAST)"))
		})

		It("answers get_timezone_info locally", func() {
			res := invoker.Invoke(ctx, tools.TimezoneInfo, nil)
			Expect(res.Status).To(Equal(tools.StatusFallback))
			Expect(res.Value).To(Equal("South Africa Standard Time (SAST), UTC+2, no daylight saving"))
		})

		It("returns no value for other tools", func() {
			res := invoker.Invoke(ctx, "get_weather", nil)
			Expect(res.Status).To(Equal(tools.StatusUnreachable))
			Expect(res.Ok()).To(BeFalse())
			Expect(res.Value).To(BeEmpty())
		})
	})
})

var _ = Describe("Catalog", func() {
	It("lists both time tools", func() {
		c := tools.DefaultCatalog()
		Expect(c).To(HaveLen(2))
		Expect(c.Has(tools.CurrentTime)).To(BeTrue())
		Expect(c.Has(tools.TimezoneInfo)).To(BeTrue())
		Expect(c.Has("get_weather")).To(BeFalse())
	})
})

var _ = Describe("FormatTime", func() {
	It("uses the weekday, day, month, year and clock layout", func() {
		t := time.Date(2026, time.January, 5, 7, 4, 9, 0, tools.SAST())
		Expect(tools.FormatTime(t)).To(Equal("Monday, 05 January 2026 at 07:04:09 (SAST)"))
	})
})
