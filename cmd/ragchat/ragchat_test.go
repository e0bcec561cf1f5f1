package ragchatcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ragchatcmder "github.com/papercomputeco/ragchat/cmd/ragchat"
)

var _ = Describe("NewRagchatCmd", func() {
	It("registers every subcommand", func() {
		cmd := ragchatcmder.NewRagchatCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "index", "search", "chat", "config", "auth", "version"))

		serve, _, err := cmd.Find([]string{"serve", "tools"})
		Expect(err).NotTo(HaveOccurred())
		Expect(serve.Name()).To(Equal("tools"))
	})

	It("exposes the global flags", func() {
		cmd := ragchatcmder.NewRagchatCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := ragchatcmder.NewRagchatCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: dev"))
	})
})
