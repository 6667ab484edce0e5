package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nandsim/corevm/sim"
)

var _ = Describe("Scheduler", func() {
	var sched *sim.Scheduler

	BeforeEach(func() {
		sched = sim.NewScheduler(nil)
	})

	It("dispatches events in (time, priority, id) order", func() {
		var order []string

		_, _ = sched.ScheduleAt(5, func() { order = append(order, "tick@5") }, sim.PriorityTick, "t5")
		_, _ = sched.ScheduleAt(5, func() { order = append(order, "conn@5") }, sim.PriorityConnection, "c5")
		_, _ = sched.ScheduleAt(1, func() { order = append(order, "early") }, sim.PriorityTick, "early")
		_, _ = sched.ScheduleAt(5, func() { order = append(order, "delayed@5") }, sim.PriorityDelayed, "d5")

		sched.Run()

		Expect(order).To(Equal([]string{"early", "conn@5", "tick@5", "delayed@5"}))
	})

	It("breaks ties among equal priority by scheduling order", func() {
		var order []int

		_, _ = sched.ScheduleAt(3, func() { order = append(order, 1) }, sim.PriorityTick, "a")
		_, _ = sched.ScheduleAt(3, func() { order = append(order, 2) }, sim.PriorityTick, "b")
		_, _ = sched.ScheduleAt(3, func() { order = append(order, 3) }, sim.PriorityTick, "c")

		sched.Run()

		Expect(order).To(Equal([]int{1, 2, 3}))
	})

	It("rejects events scheduled in the past", func() {
		sched.RunUntil(10)
		_, err := sched.ScheduleAt(5, func() {}, sim.PriorityTick, "stale")
		Expect(err).To(MatchError(sim.ErrPastEvent))
	})

	It("skips cancelled events without running their action", func() {
		ran := false
		ev, _ := sched.ScheduleAt(1, func() { ran = true }, sim.PriorityTick, "cancel-me")
		ev.Cancel()

		sched.Run()

		Expect(ran).To(BeFalse())
	})

	It("tracks pending and total counts", func() {
		_, _ = sched.ScheduleAt(1, func() {}, sim.PriorityTick, "a")
		_, _ = sched.ScheduleAt(2, func() {}, sim.PriorityTick, "b")

		Expect(sched.PendingCount()).To(Equal(2))
		Expect(sched.TotalCount()).To(Equal(uint64(2)))

		sched.RunFor(1)

		Expect(sched.PendingCount()).To(Equal(1))
	})

	It("stops RunUntil at the requested time without dispatching later events", func() {
		var ran []uint64
		_, _ = sched.ScheduleAt(3, func() { ran = append(ran, 3) }, sim.PriorityTick, "a")
		_, _ = sched.ScheduleAt(8, func() { ran = append(ran, 8) }, sim.PriorityTick, "b")

		sched.RunUntil(5)

		Expect(ran).To(Equal([]uint64{3}))
		Expect(sched.CurrentTime()).To(Equal(uint64(5)))
		Expect(sched.PendingCount()).To(Equal(1))
	})

	It("resets the clock, queue, and event counts", func() {
		_, _ = sched.ScheduleAt(1, func() {}, sim.PriorityTick, "a")
		sched.RunUntil(1)
		sched.Reset()

		Expect(sched.CurrentTime()).To(Equal(uint64(0)))
		Expect(sched.PendingCount()).To(Equal(0))
		Expect(sched.TotalCount()).To(Equal(uint64(0)))
	})
})
