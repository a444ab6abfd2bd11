package mixer

import (
	"errors"
	"time"

	"whisperli/core/playback"
	"whisperli/core/scheduler"
)

type fakePlayer struct {
	ref      string
	playing  bool
	volume   float64
	loops    int
	plays    int
	stops    int
	closed   bool
	gone     bool
	badRef   string
	finished func()
}

func (p *fakePlayer) err() error {
	if p.gone {
		return playback.ErrUnavailable
	}
	return nil
}

func (p *fakePlayer) Load(ref string) error {
	if ref == p.badRef {
		return errors.New("decode failed")
	}
	p.ref = ref
	return p.err()
}

func (p *fakePlayer) Play() error { p.playing = true; p.plays++; return p.err() }
func (p *fakePlayer) Pause() error { p.playing = false; return p.err() }
func (p *fakePlayer) Stop() error { p.playing = false; p.stops++; return p.err() }
func (p *fakePlayer) SetVolume(v float64) error {
	p.volume = v
	return p.err()
}
func (p *fakePlayer) SetLoopCount(n int) error { p.loops = n; return p.err() }
func (p *fakePlayer) OnFinished(fn func()) { p.finished = fn }
func (p *fakePlayer) Close() error { p.closed = true; return p.err() }

type fakeBackend struct {
	players []*fakePlayer
	failOn  string
}

func (b *fakeBackend) NewPlayer() (playback.Player, error) {
	p := &fakePlayer{badRef: b.failOn}
	b.players = append(b.players, p)
	return p, nil
}

func (b *fakeBackend) Close() error { return nil }

type assetSet map[string]bool

func (a assetSet) Exists(ref string) bool { return a[ref] }

// seqRand returns its values in order, wrapping around, each reduced mod n.
type seqRand struct {
	values []int
	i      int
}

func (r *seqRand) Intn(n int) int {
	v := r.values[r.i%len(r.values)]
	r.i++
	return v % n
}

type fixture struct {
	sched   *scheduler.Scheduler
	clock   *scheduler.ManualClock
	backend *fakeBackend
}

func newFixture() *fixture {
	clock := scheduler.NewManualClock(time.Unix(0, 0))
	return &fixture{
		sched:   scheduler.New(scheduler.NewInlineLoop(), clock),
		clock:   clock,
		backend: &fakeBackend{},
	}
}

func (f *fixture) track(ref string) (*Track, *fakePlayer) {
	p := &fakePlayer{}
	return NewTrack(ref, p, f.sched, &seqRand{values: []int{0}}, nil), p
}
