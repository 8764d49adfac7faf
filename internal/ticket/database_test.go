package ticket

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltStore", func() {
	var (
		dbPath string
		store  *BoltStore
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		store, err = NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	newTicket := func(name string) *Ticket {
		return &Ticket{
			Name:        name,
			StorageKey:  "aabb_" + name,
			ResultKey:   "aabb_" + name + ".json",
			ContentType: "image/jpeg",
			Status:      StatusDone,
			CreatedAt:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		}
	}

	Describe("SaveTicket", func() {
		var (
			t   *Ticket
			err error
		)

		BeforeEach(func() {
			t = newTicket("receipt1.jpg")
		})

		JustBeforeEach(func() {
			err = store.SaveTicket(t)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should persist the ticket under its name", func() {
				saved, getErr := store.GetTicket("receipt1.jpg")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.StorageKey).To(Equal("aabb_receipt1.jpg"))
				Expect(saved.CreatedAt).To(BeTemporally("==", t.CreatedAt))
			})
		})

		When("the ticket has no name", func() {
			BeforeEach(func() {
				t.Name = ""
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})

		When("a ticket with the same name exists", func() {
			BeforeEach(func() {
				existing := newTicket("receipt1.jpg")
				existing.JobName = "Pine Ave Renovation"
				Expect(store.SaveTicket(existing)).To(Succeed())
			})

			It("should replace the existing record", func() {
				saved, getErr := store.GetTicket("receipt1.jpg")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.JobName).To(BeEmpty())
			})
		})
	})

	Describe("GetTicket", func() {
		When("the ticket does not exist", func() {
			It("should return the not-found sentinel", func() {
				_, err := store.GetTicket("missing.jpg")
				Expect(err).To(MatchError(ErrTicketNotFound))
				Expect(err.Error()).To(ContainSubstring("missing.jpg"))
			})
		})
	})

	Describe("ListTickets", func() {
		When("the store is empty", func() {
			It("should return an empty list", func() {
				tickets, err := store.ListTickets()
				Expect(err).NotTo(HaveOccurred())
				Expect(tickets).To(BeEmpty())
			})
		})

		When("tickets exist", func() {
			BeforeEach(func() {
				Expect(store.SaveTicket(newTicket("a.jpg"))).To(Succeed())
				Expect(store.SaveTicket(newTicket("b.jpg"))).To(Succeed())
			})

			It("should return them all", func() {
				tickets, err := store.ListTickets()
				Expect(err).NotTo(HaveOccurred())
				Expect(tickets).To(HaveLen(2))
			})
		})
	})

	Describe("DeleteTicket", func() {
		BeforeEach(func() {
			Expect(store.SaveTicket(newTicket("a.jpg"))).To(Succeed())
		})

		It("should remove the ticket", func() {
			Expect(store.DeleteTicket("a.jpg")).To(Succeed())
			_, err := store.GetTicket("a.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("persistence across reopen", func() {
		It("should keep tickets after closing and reopening", func() {
			Expect(store.SaveTicket(newTicket("a.jpg"))).To(Succeed())
			Expect(store.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			saved, err := reopened.GetTicket("a.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Name).To(Equal("a.jpg"))
			store = nil
		})
	})
})
