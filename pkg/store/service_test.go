package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/entities"
	"github.com/NotCoffee418/emu_power/pkg/wire"
	. "github.com/smartystreets/goconvey/convey"
)

const kindDemand = entities.KindInstantaneousDemand

func demandMessage(value string) (wire.Message, entities.Record) {
	msg := wire.Message{
		Kind:   string(kindDemand),
		Fields: []wire.Field{{Name: "Demand", Value: value}},
	}
	rec, _ := entities.Parse(msg)
	return msg, rec
}

func TestStoreFreshness(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := New()

		Convey("nothing is present", func() {
			_, ok := s.Peek(kindDemand)
			So(ok, ShouldBeFalse)
			_, ok = s.Consume(kindDemand)
			So(ok, ShouldBeFalse)
		})

		Convey("invalidating an absent kind creates no entry", func() {
			s.Invalidate(kindDemand)
			_, ok := s.Peek(kindDemand)
			So(ok, ShouldBeFalse)
			So(s.Kinds(), ShouldBeEmpty)
		})

		Convey("after a put", func() {
			msg, rec := demandMessage("0x10")
			s.Put(kindDemand, msg, rec)

			Convey("peek returns it fresh and leaves it fresh", func() {
				e, ok := s.Peek(kindDemand)
				So(ok, ShouldBeTrue)
				So(e.Fresh, ShouldBeTrue)
				So(e.Record.(entities.InstantaneousDemand).Demand, ShouldEqual, uint64(0x10))

				e, ok = s.Peek(kindDemand)
				So(ok, ShouldBeTrue)
				So(e.Fresh, ShouldBeTrue)
			})

			Convey("consume is one-shot", func() {
				e, ok := s.Consume(kindDemand)
				So(ok, ShouldBeTrue)
				So(e.Fresh, ShouldBeTrue)

				_, ok = s.Consume(kindDemand)
				So(ok, ShouldBeFalse)

				stale, ok := s.Peek(kindDemand)
				So(ok, ShouldBeTrue)
				So(stale.Fresh, ShouldBeFalse)
			})

			Convey("invalidate keeps the entity but marks it stale", func() {
				s.Invalidate(kindDemand)
				e, ok := s.Peek(kindDemand)
				So(ok, ShouldBeTrue)
				So(e.Fresh, ShouldBeFalse)
			})

			Convey("a second put replaces rather than merges", func() {
				s.Invalidate(kindDemand)
				msg2 := wire.Message{Kind: string(kindDemand)}
				rec2, _ := entities.Parse(msg2)
				s.Put(kindDemand, msg2, rec2)

				e, _ := s.Peek(kindDemand)
				So(e.Fresh, ShouldBeTrue)
				So(e.Record.(entities.InstantaneousDemand).Demand, ShouldEqual, uint64(0))
				So(e.Message.Fields, ShouldBeEmpty)
			})
		})
	})
}

func TestStoreWaitFresh(t *testing.T) {
	Convey("Given a waiter on an empty kind", t, func() {
		s := New()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		done := make(chan Entity, 1)
		go func() {
			e, err := s.WaitFresh(ctx, kindDemand)
			if err == nil {
				done <- e
			}
			close(done)
		}()

		Convey("a put wakes it with the new entity", func() {
			time.Sleep(20 * time.Millisecond)
			msg, rec := demandMessage("0x2a")
			s.Put(kindDemand, msg, rec)

			e, ok := <-done
			So(ok, ShouldBeTrue)
			So(e.Record.(entities.InstantaneousDemand).Demand, ShouldEqual, uint64(42))

			Convey("and waiting does not consume", func() {
				_, ok := s.Consume(kindDemand)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("a put of another kind does not satisfy it", func() {
			s.Put(entities.KindPriceCluster, wire.Message{Kind: "PriceCluster"}, entities.PriceCluster{})
			cancel()
			_, ok := <-done
			So(ok, ShouldBeFalse)
		})
	})

	Convey("A stale entity does not satisfy a waiter", t, func() {
		s := New()
		msg, rec := demandMessage("0x1")
		s.Put(kindDemand, msg, rec)
		s.Invalidate(kindDemand)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := s.WaitFresh(ctx, kindDemand)
		So(err, ShouldEqual, context.DeadlineExceeded)
	})
}

func TestStoreConcurrency(t *testing.T) {
	Convey("Concurrent puts and reads never observe a torn entity", t, func() {
		s := New()
		var wg sync.WaitGroup
		stop := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				msg, rec := demandMessage(wire.FormatHex(uint64(i), 4))
				s.Put(kindDemand, msg, rec)
			}
			close(stop)
		}()

		var torn atomic.Bool
		for r := 0; r < 4; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					if e, ok := s.Peek(kindDemand); ok {
						text, _ := e.Message.Text("Demand")
						v, _ := wire.ParseHex(text)
						if e.Record.(entities.InstantaneousDemand).Demand != v {
							torn.Store(true)
						}
					}
					s.Consume(kindDemand)
				}
			}()
		}
		wg.Wait()
		So(torn.Load(), ShouldBeFalse)
	})

	Convey("Subscribers see every put", t, func() {
		s := New()
		var seen []entities.Kind
		s.Subscribe(func(e Entity) { seen = append(seen, e.Kind) })
		msg, rec := demandMessage("0x1")
		s.Put(kindDemand, msg, rec)
		s.Put(entities.KindPriceCluster, wire.Message{Kind: "PriceCluster"}, entities.PriceCluster{})
		So(seen, ShouldResemble, []entities.Kind{kindDemand, entities.KindPriceCluster})
		So(s.Kinds(), ShouldResemble, []entities.Kind{kindDemand, entities.KindPriceCluster})
	})
}
