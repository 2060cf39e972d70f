package playback

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juanGallardor/ReproductorMusica/internal/player"
)

// DefaultPollInterval is how often the tracker samples the device position.
const DefaultPollInterval = 100 * time.Millisecond

// Tracker follows the device while it plays: it mirrors the playback
// position into the session and, when a track finishes, advances the session
// and loads the next track automatically.
type Tracker struct {
	session  *player.Session
	device   Device
	logger   *logrus.Logger
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewTracker creates a tracker. A non-positive interval falls back to the
// default.
func NewTracker(session *player.Session, device Device, logger *logrus.Logger, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Tracker{
		session:  session,
		device:   device,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the tracking loop.
func (t *Tracker) Start() {
	t.wg.Add(1)
	go t.run()
}

// Stop ends the tracking loop and waits for it to finish.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.wg.Wait()
}

func (t *Tracker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if t.session.IsPlaying() && t.device.Busy() {
				t.session.UpdatePosition(t.device.Position().Seconds())
			}
		case <-t.device.Done():
			t.handleTrackEnd()
		}
	}
}

// handleTrackEnd advances the session per its repeat policy and starts the
// next track, or stops the device when the playlist ran out.
func (t *Tracker) handleTrackEnd() {
	if !t.session.AdvanceTrack() {
		t.device.Stop()
		t.logger.Debug("Playlist finished")
		return
	}

	track, ok := t.session.CurrentTrack()
	if !ok {
		t.device.Stop()
		return
	}

	if err := t.device.Load(track); err != nil {
		t.logger.WithError(err).WithField("track", track.DisplayName()).Error("Failed to load next track")
		t.session.Stop()
		t.device.Stop()
		return
	}
	t.device.SetVolume(t.session.Volume())
	t.session.SetPlaying(true)

	t.logger.WithField("track", track.DisplayName()).Info("Advanced to next track")
}
