package toolserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/tools"
)

var fixedNow = time.Date(2026, time.October, 17, 8, 30, 5, 0, time.UTC)

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		var err error
		server, err = NewServer(Config{
			Now: func() time.Time { return fixedNow },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	do := func(method, target string, v any) *http.Response {
		resp, err := server.app.Test(httptest.NewRequest(method, target, nil), -1)
		Expect(err).NotTo(HaveOccurred())
		if v != nil {
			defer resp.Body.Close()
			Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
		}
		return resp
	}

	It("rejects an unknown timezone", func() {
		_, err := NewServer(Config{Timezone: "Africa/Atlantis"})
		Expect(err).To(HaveOccurred())
	})

	It("describes itself", func() {
		var info Info
		do(http.MethodGet, "/", &info)
		Expect(info).To(Equal(Info{
			Name:    "Cape Town MCP Server",
			Version: "1.0.0",
			Tools:   []string{tools.CurrentTime, tools.TimezoneInfo},
		}))
	})

	It("lists tools with empty parameters", func() {
		var specs ToolSpecs
		do(http.MethodGet, "/tools", &specs)
		Expect(specs.Tools).To(HaveLen(2))
		Expect(specs.Tools[0].Name).To(Equal(tools.CurrentTime))
		Expect(specs.Tools[0].Parameters).To(BeEmpty())
		Expect(specs.Tools[0].Parameters).NotTo(BeNil())
	})

	It("reports the current time in Cape Town", func() {
		var out CurrentTimeOutput
		resp := do(http.MethodPost, "/tools/get_current_time", &out)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(out).To(Equal(CurrentTimeOutput{
			Result:   "Saturday, 17 October 2026 at 10:30:05 (SAST)",
			ISO:      "2026-10-17T10:30:05+02:00",
			Timezone: "Africa/Johannesburg",
		}))
	})

	It("reports timezone information", func() {
		var out TimezoneInfoOutput
		do(http.MethodPost, "/tools/get_timezone_info", &out)
		Expect(out.Result).To(Equal("South Africa Standard Time (SAST), UTC+2, no daylight saving time observed"))
		Expect(out.Offset).To(Equal("+02:00"))
		Expect(out.Abbreviation).To(Equal("SAST"))
	})

	It("returns 404 for unknown tools", func() {
		resp := do(http.MethodPost, "/tools/get_weather", nil)
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	Describe("with the chat service's invoker", func() {
		var baseURL string

		BeforeEach(func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			baseURL = "http://" + ln.Addr().String()

			go func() {
				defer GinkgoRecover()
				_ = server.app.Listener(ln)
			}()
			DeferCleanup(func() {
				Expect(server.Shutdown()).To(Succeed())
			})
		})

		It("round-trips both tools", func() {
			inv := tools.NewInvoker(tools.Config{BaseURL: baseURL, Timeout: 2 * time.Second})

			res := inv.Invoke(context.Background(), tools.CurrentTime, nil)
			Expect(res.Status).To(Equal(tools.StatusOK))
			Expect(res.Value).To(Equal("Saturday, 17 October 2026 at 10:30:05 (SAST)"))

			res = inv.Invoke(context.Background(), tools.TimezoneInfo, nil)
			Expect(res.Status).To(Equal(tools.StatusOK))
			Expect(res.Value).To(Equal(timezoneInfoResult))
		})
	})

	Describe("MCP", func() {
		var session *mcp.ClientSession

		BeforeEach(func() {
			ctx := context.Background()
			clientTransport, serverTransport := mcp.NewInMemoryTransports()

			ss, err := server.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(ss.Close)

			client := mcp.NewClient(&mcp.Implementation{Name: "ragchat-test", Version: "v0.0.1"}, nil)
			session, err = client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(session.Close)
		})

		It("lists the catalog", func() {
			res, err := session.ListTools(context.Background(), nil)
			Expect(err).NotTo(HaveOccurred())

			names := []string{}
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf(tools.CurrentTime, tools.TimezoneInfo))
		})

		It("calls get_current_time", func() {
			res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
				Name:      tools.CurrentTime,
				Arguments: map[string]any{},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(res.Content).To(HaveLen(1))

			text, ok := res.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())

			var out CurrentTimeOutput
			Expect(json.Unmarshal([]byte(text.Text), &out)).To(Succeed())
			Expect(out.Result).To(Equal("Saturday, 17 October 2026 at 10:30:05 (SAST)"))
		})
	})
})
