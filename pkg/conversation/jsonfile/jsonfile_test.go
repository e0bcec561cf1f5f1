package jsonfile_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/conversation/jsonfile"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		dir    string
		driver *jsonfile.Driver
		clock  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		driver, err = jsonfile.NewDriver(dir, jsonfile.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create and Get", func() {
		It("round-trips a record through its file", func() {
			rec, err := driver.Create(ctx, "Winelands")
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(dir, rec.ID+".json")).To(BeAnExistingFile())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Winelands"))
			Expect(got.CreatedAt).To(BeTemporally("==", rec.CreatedAt))
			Expect(got.Messages).To(BeEmpty())
		})

		It("returns NotFoundError for unknown and malformed ids", func() {
			_, err := driver.Get(ctx, uuid.NewString())
			Expect(conversation.IsNotFound(err)).To(BeTrue())

			_, err = driver.Get(ctx, "../../etc/passwd")
			Expect(conversation.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Append", func() {
		It("creates a New Chat record when absent", func() {
			id := uuid.NewString()
			Expect(driver.Append(ctx, id, conversation.Message{Role: conversation.RoleUser, Content: "Hi"})).To(Succeed())

			rec, err := driver.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Title).To(Equal(conversation.DefaultTitle))
			Expect(rec.Messages).To(HaveLen(1))
			Expect(rec.Messages[0].Timestamp.IsZero()).To(BeFalse())
		})

		It("keeps messages in order with their sources", func() {
			rec, err := driver.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Append(ctx, rec.ID, conversation.Message{Role: conversation.RoleUser, Content: "q"})).To(Succeed())
			Expect(driver.Append(ctx, rec.ID, conversation.Message{
				Role:       conversation.RoleAssistant,
				Content:    "a",
				RagSources: []conversation.Source{{Text: "Cape Point", Score: 0.91}},
			})).To(Succeed())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(2))
			Expect(got.Messages[0].Content).To(Equal("q"))
			Expect(got.Messages[1].RagSources).To(Equal([]conversation.Source{{Text: "Cape Point", Score: 0.91}}))
		})

		It("omits rag_sources from messages without sources", func() {
			rec, err := driver.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Append(ctx, rec.ID, conversation.Message{Role: conversation.RoleUser, Content: "q"})).To(Succeed())

			raw, err := os.ReadFile(filepath.Join(dir, rec.ID+".json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring("rag_sources"))
		})

		It("loses no messages under concurrent appends", func() {
			rec, err := driver.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(driver.Append(ctx, rec.ID, conversation.Message{Role: conversation.RoleUser, Content: fmt.Sprint(i)})).To(Succeed())
				}()
			}
			wg.Wait()

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(20))

			leftovers, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
			Expect(err).NotTo(HaveOccurred())
			Expect(leftovers).To(BeEmpty())
		})

		It("rejects ids that are not UUIDs", func() {
			err := driver.Append(ctx, "not-a-uuid", conversation.Message{Content: "x"})
			Expect(err).To(MatchError(conversation.ErrInvalidID))
		})
	})

	Describe("List", func() {
		It("summarises records newest first and skips unreadable files", func() {
			first, err := driver.Create(ctx, "first")
			Expect(err).NotTo(HaveOccurred())
			second, err := driver.Create(ctx, "second")
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Append(ctx, first.ID, conversation.Message{Content: "x"})).To(Succeed())

			Expect(os.WriteFile(filepath.Join(dir, uuid.NewString()+".json"), []byte("{"), 0o644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)).To(Succeed())

			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(second.ID))
			Expect(list[1].ID).To(Equal(first.ID))
			Expect(list[1].MessageCount).To(Equal(1))
		})

		It("returns an empty list for an empty directory", func() {
			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes the record", func() {
			rec, err := driver.Create(ctx, "gone")
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Delete(ctx, rec.ID)).To(Succeed())
			_, err = driver.Get(ctx, rec.ID)
			Expect(conversation.IsNotFound(err)).To(BeTrue())
		})

		It("returns NotFoundError when absent", func() {
			err := driver.Delete(ctx, uuid.NewString())
			Expect(conversation.IsNotFound(err)).To(BeTrue())
		})
	})
})
