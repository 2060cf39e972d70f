package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// Device abstracts the audio output so the tracker and handlers can be
// exercised without a sound card.
type Device interface {
	// Load stops whatever is playing and starts the given track.
	Load(track models.Track) error
	// Pause suspends output without losing the position.
	Pause()
	// Resume continues a paused track.
	Resume()
	// Stop ends playback and releases the stream.
	Stop()
	// Seek jumps to an offset within the loaded track.
	Seek(offset time.Duration) error
	// SetVolume applies a volume in percent [0, 100].
	SetVolume(percent float64)
	// Position returns the playback offset within the loaded track.
	Position() time.Duration
	// Busy reports whether a track is loaded and not yet finished.
	Busy() bool
	// Done returns a channel that receives when the loaded track finishes.
	Done() <-chan struct{}
	// Close releases the device.
	Close() error
}

// BeepDevice plays local audio files through the speaker package. One
// speaker init happens on the first Load; later tracks are resampled to that
// rate.
type BeepDevice struct {
	mu sync.Mutex

	logger      *logrus.Logger
	initialized bool
	sampleRate  beep.SampleRate

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	percent  float64

	done chan struct{}
}

// NewBeepDevice creates an idle device.
func NewBeepDevice(logger *logrus.Logger) *BeepDevice {
	return &BeepDevice{
		logger:  logger,
		percent: 100,
		done:    make(chan struct{}, 1),
	}
}

// Load decodes the track's file and starts playing it from the beginning.
func (d *BeepDevice) Load(track models.Track) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	f, err := os.Open(track.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", track.FilePath, err)
	}

	streamer, format, err := decode(f, track.FilePath)
	if err != nil {
		f.Close()
		return err
	}

	if !d.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5)); err != nil {
			streamer.Close()
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		d.initialized = true
		d.sampleRate = format.SampleRate
	}

	d.streamer = streamer
	d.format = format
	d.ctrl = &beep.Ctrl{Streamer: streamer}
	d.volume = &effects.Volume{
		Streamer: d.ctrl,
		Base:     2,
	}
	d.applyVolumeLocked(d.percent)

	var out beep.Streamer = d.volume
	if format.SampleRate != d.sampleRate {
		out = beep.Resample(4, format.SampleRate, d.sampleRate, d.volume)
	}

	speaker.Play(beep.Seq(out, beep.Callback(func() {
		select {
		case d.done <- struct{}{}:
		default:
		}
	})))

	d.logger.WithFields(logrus.Fields{
		"track":  track.DisplayName(),
		"format": track.Format,
	}).Debug("Track loaded")
	return nil
}

// Pause suspends output.
func (d *BeepDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Resume continues a paused track.
func (d *BeepDevice) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = false
		speaker.Unlock()
	}
}

// Stop ends playback and releases the stream.
func (d *BeepDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *BeepDevice) stopLocked() {
	if d.ctrl != nil {
		speaker.Clear()
		d.ctrl = nil
		d.volume = nil
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
}

// Seek jumps to an offset within the loaded track.
func (d *BeepDevice) Seek(offset time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return fmt.Errorf("no track loaded")
	}

	sample := d.format.SampleRate.N(offset)
	if sample < 0 {
		sample = 0
	}
	if sample >= d.streamer.Len() {
		sample = d.streamer.Len() - 1
	}

	speaker.Lock()
	err := d.streamer.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}
	return nil
}

// SetVolume applies a volume in percent. Zero percent mutes the stream.
func (d *BeepDevice) SetVolume(percent float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.percent = percent
	d.applyVolumeLocked(percent)
}

// applyVolumeLocked maps the percent scale onto beep's exponential volume.
// 100 percent is unity gain; each 25 percent halves the loudness.
func (d *BeepDevice) applyVolumeLocked(percent float64) {
	if d.volume == nil {
		return
	}
	speaker.Lock()
	d.volume.Silent = percent <= 0
	d.volume.Volume = (percent - 100) / 25
	speaker.Unlock()
}

// Position returns the playback offset within the loaded track.
func (d *BeepDevice) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := d.format.SampleRate.D(d.streamer.Position())
	speaker.Unlock()
	return pos
}

// Busy reports whether a track is loaded.
func (d *BeepDevice) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl != nil
}

// Done returns the completion channel.
func (d *BeepDevice) Done() <-chan struct{} {
	return d.done
}

// Close stops playback and releases the device.
func (d *BeepDevice) Close() error {
	d.Stop()
	return nil
}

// decode picks the decoder from the file extension.
func decode(f *os.File, path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3.Decode(f)
	case ".wav":
		return wav.Decode(f)
	case ".flac":
		return flac.Decode(f)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}
