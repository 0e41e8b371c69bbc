package ledger_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/monopad/internal/domain/ledger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	Convey("Given a new ledger", t, func() {
		l := ledger.New()

		Convey("Then it starts empty", func() {
			So(l.Len(), ShouldEqual, 0)
			So(l.Has("sig-1"), ShouldBeFalse)
		})

		Convey("When a signature is recorded", func() {
			seen := l.SeenAndRecord("sig-1")

			Convey("Then it is reported as new and becomes a member", func() {
				So(seen, ShouldBeFalse)
				So(l.Has("sig-1"), ShouldBeTrue)
				So(l.Len(), ShouldEqual, 1)
			})

			Convey("And it is recorded again", func() {
				again := l.SeenAndRecord("sig-1")

				Convey("Then it is reported as seen and not duplicated", func() {
					So(again, ShouldBeTrue)
					So(l.Len(), ShouldEqual, 1)
				})
			})

			Convey("And it is unmarked", func() {
				l.Unmark("sig-1")

				Convey("Then it can be applied again", func() {
					So(l.Has("sig-1"), ShouldBeFalse)
					So(l.SeenAndRecord("sig-1"), ShouldBeFalse)
				})
			})
		})

		Convey("When unmarking an unknown signature", func() {
			l.Mark("sig-a")
			l.Unmark("nope")

			Convey("Then nothing changes", func() {
				So(l.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a bounded ledger", t, func() {
		l := ledger.New(ledger.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			l.Mark(fmt.Sprintf("sig-%d", i))
		}

		Convey("Then the oldest signature is evicted", func() {
			So(l.Len(), ShouldEqual, 3)
			So(l.Has("sig-1"), ShouldBeFalse)
			So(l.Signatures(), ShouldResemble, []string{"sig-2", "sig-3", "sig-4"})
		})
	})
}

func TestLedgerPersistence(t *testing.T) {
	Convey("Given a ledger with signatures", t, func() {
		l := ledger.New(ledger.WithMaxSize(5))
		l.Mark("a")
		l.Mark("b")

		Convey("When it is persisted and restored", func() {
			data, err := json.Marshal(l)
			So(err, ShouldBeNil)

			restored := ledger.New()
			So(json.Unmarshal(data, restored), ShouldBeNil)

			Convey("Then membership and order survive", func() {
				So(restored.Signatures(), ShouldResemble, []string{"a", "b"})
				So(restored.Has("a"), ShouldBeTrue)
				So(restored.SeenAndRecord("b"), ShouldBeTrue)
			})
		})

		Convey("When it is cloned", func() {
			c := l.Clone()
			c.Mark("c")

			Convey("Then the original is unaffected", func() {
				So(l.Has("c"), ShouldBeFalse)
				So(c.Len(), ShouldEqual, 3)
			})
		})
	})
}

func TestLedgerConcurrency(t *testing.T) {
	Convey("Given a ledger shared by goroutines", t, func() {
		l := ledger.New()
		const goroutines = 10
		const perGoroutine = 100

		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					l.SeenAndRecord(fmt.Sprintf("sig-%d-%d", id, j))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every signature is recorded exactly once", func() {
			So(l.Len(), ShouldEqual, goroutines*perGoroutine)
		})
	})
}
