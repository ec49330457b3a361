package gpio

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSim(t *testing.T) {
	Convey("given a simulated driver", t, func() {
		sim := NewSim()

		Convey("pins start low and unconfigured", func() {
			So(sim.Level(4), ShouldEqual, Low)
			So(sim.IsOutput(4), ShouldBeFalse)
		})

		Convey("writes update the level and the journal", func() {
			sim.Output(4)
			sim.Write(4, High)
			sim.Write(4, Low)

			So(sim.IsOutput(4), ShouldBeTrue)
			So(sim.Level(4), ShouldEqual, Low)
			So(sim.Writes(), ShouldResemble, []SimWrite{
				{Pin: 4, Level: High},
				{Pin: 4, Level: Low},
			})
		})

		Convey("pulse counting pairs high with the following low", func() {
			for i := 0; i < 3; i++ {
				sim.Write(4, High)
				sim.Write(4, Low)
			}
			sim.Write(4, High) // incomplete pulse
			sim.Write(7, High) // other pin
			sim.Write(7, Low)

			So(sim.PulseCount(4), ShouldEqual, 3)
			So(sim.PulseCount(7), ShouldEqual, 1)
		})

		Convey("reset clears the journal but keeps pin state", func() {
			sim.Output(4)
			sim.Write(4, High)
			sim.Reset()

			So(sim.Writes(), ShouldBeEmpty)
			So(sim.Level(4), ShouldEqual, High)
			So(sim.IsOutput(4), ShouldBeTrue)
		})

		Convey("concurrent writers and readers do not trip the race detector", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func(pin uint8) {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						sim.Write(pin, High)
						sim.Write(pin, Low)
						sim.Level(pin)
					}
				}(uint8(i))
			}
			wg.Wait()

			So(sim.PulseCount(0), ShouldEqual, 100)
		})
	})
}
