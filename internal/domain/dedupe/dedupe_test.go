package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/herolab/herorank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new in-memory deduper", t, func() {
		ctx := context.Background()

		Convey("When created with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording vote IDs", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the ID is new", func() {
				seen := d.SeenAndRecord(ctx, "vote-1")

				Convey("Then it should return false and record the ID", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the ID was already seen", func() {
				d.SeenAndRecord(ctx, "vote-1")
				seen := d.SeenAndRecord(ctx, "vote-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And multiple distinct IDs are recorded", func() {
				ids := []string{"vote-1", "vote-2", "vote-3", "vote-4", "vote-5"}
				for _, id := range ids {
					So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
				}

				Convey("Then all should be remembered", func() {
					So(d.Size(), ShouldEqual, int64(len(ids)))
					for _, id := range ids {
						So(d.SeenAndRecord(ctx, id), ShouldBeTrue)
					}
				})
			})
		})

		Convey("When unrecording a vote ID", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "vote-1")

			d.Unrecord(ctx, "vote-1")

			Convey("Then the ID should be accepted again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "vote-1"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown ID should be a no-op", func() {
				d.Unrecord(ctx, "never-seen")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the cache reaches its maximum size", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			d.SeenAndRecord(ctx, "vote-1")
			d.SeenAndRecord(ctx, "vote-2")
			d.SeenAndRecord(ctx, "vote-3")
			d.SeenAndRecord(ctx, "vote-4")

			Convey("Then the oldest ID should be evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "vote-1"), ShouldBeFalse) // evicted, re-recorded
			})

			Convey("And recent IDs should still be remembered", func() {
				So(d.SeenAndRecord(ctx, "vote-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "vote-4"), ShouldBeTrue)
			})
		})

		Convey("When an unrecorded ID is recorded again", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

			d.SeenAndRecord(ctx, "vote-x")
			d.Unrecord(ctx, "vote-x")
			So(d.SeenAndRecord(ctx, "vote-x"), ShouldBeFalse) // re-recorded
			d.SeenAndRecord(ctx, "vote-a")
			// This insert reuses the slot vote-x originally held; it must
			// not evict the newer vote-x record.
			So(d.SeenAndRecord(ctx, "vote-b"), ShouldBeFalse)

			Convey("Then the re-recorded ID keeps its full dedupe window", func() {
				So(d.SeenAndRecord(ctx, "vote-x"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 3)
			})

			Convey("And it still expires in FIFO order as the oldest record", func() {
				So(d.SeenAndRecord(ctx, "vote-c"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "vote-x"), ShouldBeFalse)
			})
		})

		Convey("When eviction is disabled", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("vote-%d", i))
			}

			Convey("Then every ID should be retained", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "vote-0"), ShouldBeTrue)
			})
		})

		Convey("When accessed concurrently", func() {
			d := dedupe.NewInMemoryDeduper()
			const goroutines = 16
			const perGoroutine = 100

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for i := 0; i < perGoroutine; i++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("g%d-vote-%d", g, i))
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every ID should have been recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}
