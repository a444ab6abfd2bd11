package playback

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"whisperli/logger"
)

const resampleQuality = 4

// BeepBackend plays sounds through the system speaker. All players mix into
// the single speaker stream initialised by NewBeepBackend.
type BeepBackend struct {
	rate beep.SampleRate

	mu     sync.Mutex
	closed bool
}

// NewBeepBackend initialises the speaker at sampleRate with a 100ms buffer.
func NewBeepBackend(sampleRate int) (*BeepBackend, error) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	logger.Info("audio speaker initialised", logger.Int("sample_rate", sampleRate))
	return &BeepBackend{rate: rate}, nil
}

func (b *BeepBackend) NewPlayer() (Player, error) {
	if b.isClosed() {
		return nil, ErrUnavailable
	}
	return &beepPlayer{backend: b, loops: 1, volume: 1}, nil
}

// Close stops every stream and releases the speaker. Players created from
// the backend report ErrUnavailable afterwards.
func (b *BeepBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	speaker.Clear()
	speaker.Close()
	return nil
}

func (b *BeepBackend) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type beepPlayer struct {
	backend *BeepBackend

	mu       sync.Mutex
	ref      string
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	vol      *effects.Volume
	loops    int
	volume   float64
	gen      uint64
	finished func()
	closed   bool
}

func (p *beepPlayer) check() error {
	if p.closed || p.backend.isClosed() {
		return ErrUnavailable
	}
	return nil
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

func (p *beepPlayer) Load(ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	stream, format, err := decode(ref)
	if err != nil {
		return fmt.Errorf("decode %s: %w", ref, err)
	}
	p.detachLocked()
	if p.stream != nil {
		p.stream.Close()
	}
	p.ref = ref
	p.stream = stream
	p.format = format
	return nil
}

// Play resumes a paused stream or starts one from the beginning.
func (p *beepPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	if p.stream == nil {
		return fmt.Errorf("play: no sound loaded")
	}
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}
	return p.startLocked(0)
}

func (p *beepPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

func (p *beepPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.detachLocked()
	return nil
}

func (p *beepPlayer) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.volume = clamp01(v)
	if p.vol != nil {
		speaker.Lock()
		applyGain(p.vol, p.volume)
		speaker.Unlock()
	}
	return nil
}

// SetLoopCount takes effect immediately: an active stream is rebuilt at its
// current position with the new count.
func (p *beepPlayer) SetLoopCount(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	if n == 0 {
		n = 1
	}
	if n == p.loops {
		return nil
	}
	p.loops = n
	if p.ctrl == nil {
		return nil
	}
	speaker.Lock()
	paused := p.ctrl.Paused
	pos := p.stream.Position()
	speaker.Unlock()
	p.detachLocked()
	if err := p.startLocked(pos); err != nil {
		return err
	}
	if paused {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

func (p *beepPlayer) OnFinished(fn func()) {
	p.mu.Lock()
	p.finished = fn
	p.mu.Unlock()
}

func (p *beepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if !p.backend.isClosed() {
		p.detachLocked()
	}
	p.closed = true
	if p.stream != nil {
		p.stream.Close()
		p.stream = nil
	}
	return nil
}

// startLocked builds loop -> resample -> ctrl -> volume -> end callback and
// hands it to the speaker.
func (p *beepPlayer) startLocked(pos int) error {
	speaker.Lock()
	err := p.stream.Seek(pos)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek %s: %w", p.ref, err)
	}

	var s beep.Streamer = beep.Loop(p.loops, p.stream)
	if p.format.SampleRate != p.backend.rate {
		s = beep.Resample(resampleQuality, p.format.SampleRate, p.backend.rate, s)
	}
	p.ctrl = &beep.Ctrl{Streamer: s}
	p.vol = &effects.Volume{Streamer: p.ctrl, Base: 2}
	applyGain(p.vol, p.volume)

	p.gen++
	gen := p.gen
	speaker.Play(beep.Seq(p.vol, beep.Callback(func() {
		// runs under the speaker lock
		go p.ended(gen)
	})))
	return nil
}

func (p *beepPlayer) ended(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.closed {
		p.mu.Unlock()
		return
	}
	p.ctrl = nil
	p.vol = nil
	fn := p.finished
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (p *beepPlayer) detachLocked() {
	p.gen++
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	p.ctrl = nil
	p.vol = nil
}

func applyGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(gain)
}
