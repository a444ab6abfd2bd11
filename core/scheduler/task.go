package scheduler

import "time"

// Scheduler hands out tasks whose callbacks run on one Loop.
type Scheduler struct {
	loop  *Loop
	clock Clock
}

func New(loop *Loop, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{loop: loop, clock: clock}
}

func (s *Scheduler) Loop() *Loop { return s.loop }
func (s *Scheduler) Clock() Clock { return s.clock }
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// NewTask returns a disarmed one-shot task that calls fn on the loop.
func (s *Scheduler) NewTask(fn func()) *Task {
	return &Task{sched: s, fn: fn}
}

// Task is a cancellable one-shot timer. All methods must be called on the
// loop goroutine. Arming an armed task cancels the previous arming first,
// so a task never has two pending callbacks. A callback that was already
// queued when Cancel or Arm ran is discarded.
type Task struct {
	sched *Scheduler
	fn    func()
	timer Timer
	gen   uint64
	armed bool
	due   time.Time
}

// Arm schedules the callback d from now, replacing any pending arming.
func (t *Task) Arm(d time.Duration) {
	t.stopTimer()
	t.gen++
	gen := t.gen
	t.armed = true
	t.due = t.sched.clock.Now().Add(d)
	t.timer = t.sched.clock.AfterFunc(d, func() {
		t.sched.loop.Post(func() { t.fire(gen) })
	})
}

// Reschedule re-arms an armed task with a new delay counted from now. It
// does nothing and returns false when the task is not armed.
func (t *Task) Reschedule(d time.Duration) bool {
	if !t.armed {
		return false
	}
	t.Arm(d)
	return true
}

// Cancel disarms the task. It is safe on a disarmed task.
func (t *Task) Cancel() {
	t.stopTimer()
	t.gen++
	t.armed = false
}

func (t *Task) Armed() bool { return t.armed }

// Due reports when the pending callback fires.
func (t *Task) Due() (time.Time, bool) {
	return t.due, t.armed
}

func (t *Task) fire(gen uint64) {
	if !t.armed || gen != t.gen {
		return
	}
	t.armed = false
	t.timer = nil
	t.fn()
}

func (t *Task) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
