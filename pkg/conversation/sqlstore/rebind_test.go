package sqlstore

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("placeholders", func() {
	It("leaves ? placeholders alone by default", func() {
		d := &Driver{}
		Expect(d.q("SELECT 1 WHERE a = ? AND b = ?")).To(Equal("SELECT 1 WHERE a = ? AND b = ?"))
	})

	It("numbers placeholders for numbered dialects", func() {
		d := &Driver{dialect: Dialect{Numbered: true}}
		Expect(d.q("INSERT INTO t (a, b, c) VALUES (?, ?, ?)")).To(Equal("INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"))
	})
})
