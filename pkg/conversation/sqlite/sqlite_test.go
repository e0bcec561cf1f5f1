package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/ragchat/pkg/conversation"
	"github.com/papercomputeco/ragchat/pkg/conversation/sqlite"
	"github.com/papercomputeco/ragchat/pkg/conversation/sqlstore"
)

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *sqlite.Driver
		clock  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		driver, err = sqlite.NewDriver(":memory:", sqlstore.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewDriver", func() {
		It("creates the database file and reopens it", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "nested", "ragchat.db")

			d, err := sqlite.NewDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			rec, err := d.Create(ctx, "Bo-Kaap")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Close()).To(Succeed())
			Expect(dbPath).To(BeAnExistingFile())

			d, err = sqlite.NewDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			got, err := d.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Bo-Kaap"))
		})
	})

	Describe("Create and Get", func() {
		It("round-trips an empty record", func() {
			rec, err := driver.Create(ctx, "Winelands")
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Winelands"))
			Expect(got.CreatedAt).To(BeTemporally("==", rec.CreatedAt))
			Expect(got.Messages).To(BeEmpty())
			Expect(got.Messages).NotTo(BeNil())
		})

		It("titles untitled records New Chat", func() {
			rec, err := driver.Create(ctx, "  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Title).To(Equal(conversation.DefaultTitle))
		})

		It("returns NotFoundError for unknown and malformed ids", func() {
			_, err := driver.Get(ctx, uuid.NewString())
			Expect(conversation.IsNotFound(err)).To(BeTrue())

			_, err = driver.Get(ctx, "'; DROP TABLE conversations; --")
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

			stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
			Expect(driver.Append(ctx, rec.ID, conversation.Message{Role: conversation.RoleUser, Content: "q", Timestamp: stamp})).To(Succeed())
			Expect(driver.Append(ctx, rec.ID, conversation.Message{
				Role:       conversation.RoleAssistant,
				Content:    "a",
				RagSources: []conversation.Source{{Text: "Cape Point", Score: 0.91}},
			})).To(Succeed())

			got, err := driver.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(2))
			Expect(got.Messages[0].Content).To(Equal("q"))
			Expect(got.Messages[0].Timestamp).To(BeTemporally("==", stamp))
			Expect(got.Messages[0].RagSources).To(BeNil())
			Expect(got.Messages[1].Role).To(Equal(conversation.RoleAssistant))
			Expect(got.Messages[1].RagSources).To(Equal([]conversation.Source{{Text: "Cape Point", Score: 0.91}}))
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
		})

		It("rejects ids that are not UUIDs", func() {
			err := driver.Append(ctx, "not-a-uuid", conversation.Message{Content: "x"})
			Expect(err).To(MatchError(conversation.ErrInvalidID))
		})
	})

	Describe("List", func() {
		It("summarises records newest first with message counts", func() {
			first, err := driver.Create(ctx, "first")
			Expect(err).NotTo(HaveOccurred())
			second, err := driver.Create(ctx, "second")
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Append(ctx, first.ID, conversation.Message{Content: "x"})).To(Succeed())
			Expect(driver.Append(ctx, first.ID, conversation.Message{Content: "y"})).To(Succeed())

			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(second.ID))
			Expect(list[0].MessageCount).To(Equal(0))
			Expect(list[1].ID).To(Equal(first.ID))
			Expect(list[1].MessageCount).To(Equal(2))
		})

		It("returns an empty list for an empty database", func() {
			list, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes the record and its messages", func() {
			rec, err := driver.Create(ctx, "gone")
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Append(ctx, rec.ID, conversation.Message{Content: "x"})).To(Succeed())

			Expect(driver.Delete(ctx, rec.ID)).To(Succeed())
			_, err = driver.Get(ctx, rec.ID)
			Expect(conversation.IsNotFound(err)).To(BeTrue())

			var n int
			Expect(driver.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n)).To(Succeed())
			Expect(n).To(Equal(0))
		})

		It("returns NotFoundError when absent", func() {
			err := driver.Delete(ctx, uuid.NewString())
			Expect(conversation.IsNotFound(err)).To(BeTrue())
		})
	})
})
