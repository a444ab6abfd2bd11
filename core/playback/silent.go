package playback

import (
	"sync"
	"time"

	"whisperli/logger"
)

// SilentBackend drives no audio device. It keeps player state so hosts
// without sound hardware (servers, CI) behave like the real thing. Every
// sound is treated as lasting length per pass; with a zero length finite
// playbacks never finish.
type SilentBackend struct {
	length time.Duration

	mu     sync.Mutex
	closed bool
}

func NewSilentBackend(length time.Duration) *SilentBackend {
	if length < 0 {
		length = 0
	}
	return &SilentBackend{length: length}
}

func (b *SilentBackend) NewPlayer() (Player, error) {
	if b.isClosed() {
		return nil, ErrUnavailable
	}
	return &silentPlayer{backend: b, loops: 1, volume: 1}, nil
}

func (b *SilentBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (b *SilentBackend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type silentPlayer struct {
	backend *SilentBackend

	mu       sync.Mutex
	ref      string
	playing  bool
	loops    int
	volume   float64
	closed   bool
	finished func()

	// elapsed is the position at the last pause; started marks the
	// current run. gen invalidates end timers that lost a race.
	elapsed time.Duration
	started time.Time
	timer   *time.Timer
	gen     uint64
}

func (p *silentPlayer) check() error {
	if p.closed || p.backend.isClosed() {
		return ErrUnavailable
	}
	return nil
}

func (p *silentPlayer) Load(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.halt()
	p.elapsed = 0
	p.ref = ref
	return nil
}

func (p *silentPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	if !p.playing {
		p.playing = true
		p.started = time.Now()
		p.armEnd()
	}
	logger.Debug("silent playback started", logger.String("ref", p.ref), logger.Int("loops", p.loops))
	return nil
}

func (p *silentPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.halt()
	return nil
}

func (p *silentPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.halt()
	p.elapsed = 0
	return nil
}

func (p *silentPlayer) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.volume = clamp01(v)
	return nil
}

func (p *silentPlayer) SetLoopCount(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.loops = n
	if p.playing {
		p.armEnd()
	}
	return nil
}

func (p *silentPlayer) OnFinished(fn func()) {
	p.mu.Lock()
	p.finished = fn
	p.mu.Unlock()
}

func (p *silentPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
	p.closed = true
	return nil
}

// halt stops the current run and keeps its position.
func (p *silentPlayer) halt() {
	if p.playing {
		p.elapsed += time.Since(p.started)
		p.playing = false
	}
	p.stopTimer()
}

func (p *silentPlayer) stopTimer() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// armEnd schedules the end of a finite playback from the current position.
func (p *silentPlayer) armEnd() {
	p.stopTimer()
	length := p.backend.length
	if length == 0 || p.loops == LoopInfinite || p.loops <= 0 {
		return
	}
	pos := p.elapsed + time.Since(p.started)
	remaining := time.Duration(p.loops)*length - pos
	if remaining < 0 {
		remaining = 0
	}
	gen := p.gen
	p.timer = time.AfterFunc(remaining, func() { p.end(gen) })
}

func (p *silentPlayer) end(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.elapsed = 0
	p.timer = nil
	fn := p.finished
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}
