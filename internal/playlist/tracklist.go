package playlist

import (
	"fmt"
	"math/rand"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

// node is a single element of a TrackList. Nodes are linked in both
// directions so the cursor can move to either neighbor in O(1).
type node struct {
	track models.Track
	next  *node
	prev  *node
}

// TrackList is a doubly linked sequence of tracks with a movable cursor.
// The cursor tracks a node by identity, so reordering operations never lose
// the "now selected" track. The zero value is not usable; call NewTrackList.
//
// TrackList is not safe for concurrent use; Playlist serializes every
// access behind its own mutex.
type TrackList struct {
	head    *node
	tail    *node
	current *node
	size    int
}

// NewTrackList returns an empty list.
func NewTrackList() *TrackList {
	return &TrackList{}
}

// Size returns the number of tracks in the list.
func (l *TrackList) Size() int { return l.size }

// IsEmpty reports whether the list has no tracks.
func (l *TrackList) IsEmpty() bool { return l.head == nil }

// InsertAt inserts a track at the given position. Position 0 prepends,
// position Size() appends. The first track ever inserted becomes current.
func (l *TrackList) InsertAt(track models.Track, position int) error {
	if position < 0 || position > l.size {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPosition, position, l.size)
	}
	n := &node{track: track}
	l.insertNodeAt(n, position)
	return nil
}

// Append inserts a track at the end of the list.
func (l *TrackList) Append(track models.Track) {
	l.insertNodeAt(&node{track: track}, l.size)
}

// insertNodeAt links an existing node into the list at position, which must
// already be validated to [0, size].
func (l *TrackList) insertNodeAt(n *node, position int) {
	switch {
	case l.head == nil:
		l.head = n
		l.tail = n
		l.current = n // first track becomes current
	case position == 0:
		n.next = l.head
		l.head.prev = n
		l.head = n
	case position == l.size:
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	default:
		at := l.nodeAt(position)
		n.next = at
		n.prev = at.prev
		at.prev.next = n
		at.prev = n
	}
	l.size++
}

// DeleteAt removes and returns the track at the given position. When the
// removed node is current, the cursor moves to its successor, or its
// predecessor when there is no successor, or clears when the list empties.
func (l *TrackList) DeleteAt(position int) (models.Track, error) {
	if l.IsEmpty() {
		return models.Track{}, fmt.Errorf("cannot delete: %w", ErrEmptyList)
	}
	if position < 0 || position >= l.size {
		return models.Track{}, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPosition, position, l.size-1)
	}
	n := l.nodeAt(position)
	l.deleteNode(n)
	return n.track, nil
}

// DeleteByID removes the first track whose id matches. It returns false when
// no track matches.
func (l *TrackList) DeleteByID(trackID string) bool {
	for n := l.head; n != nil; n = n.next {
		if n.track.ID == trackID {
			l.deleteNode(n)
			return true
		}
	}
	return false
}

// deleteNode unlinks n and applies the cursor reassignment rule.
func (l *TrackList) deleteNode(n *node) {
	if l.current == n {
		switch {
		case n.next != nil:
			l.current = n.next
		case n.prev != nil:
			l.current = n.prev
		default:
			l.current = nil
		}
	}
	l.unlink(n)
}

// unlink detaches n from the chain without touching the cursor.
func (l *TrackList) unlink(n *node) {
	if n == l.head {
		l.head = n.next
	}
	if n == l.tail {
		l.tail = n.prev
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.next = nil
	n.prev = nil
	l.size--
}

// GetAt returns the track at the given position.
func (l *TrackList) GetAt(position int) (models.Track, error) {
	if l.IsEmpty() {
		return models.Track{}, fmt.Errorf("cannot get: %w", ErrEmptyList)
	}
	if position < 0 || position >= l.size {
		return models.Track{}, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPosition, position, l.size-1)
	}
	return l.nodeAt(position).track, nil
}

// nodeAt walks from whichever end is nearer to position, which must already
// be validated to [0, size-1].
func (l *TrackList) nodeAt(position int) *node {
	if position <= l.size/2 {
		n := l.head
		for i := 0; i < position; i++ {
			n = n.next
		}
		return n
	}
	n := l.tail
	for i := 0; i < l.size-1-position; i++ {
		n = n.prev
	}
	return n
}

// Find returns the first track whose id matches.
func (l *TrackList) Find(trackID string) (models.Track, bool) {
	for n := l.head; n != nil; n = n.next {
		if n.track.ID == trackID {
			return n.track, true
		}
	}
	return models.Track{}, false
}

// IndexOf returns the position of the first track whose id matches, or -1.
func (l *TrackList) IndexOf(trackID string) int {
	position := 0
	for n := l.head; n != nil; n = n.next {
		if n.track.ID == trackID {
			return position
		}
		position++
	}
	return -1
}

// Current returns the track under the cursor.
func (l *TrackList) Current() (models.Track, bool) {
	if l.current == nil {
		return models.Track{}, false
	}
	return l.current.track, true
}

// CurrentPosition returns the index of the cursor via a head walk, or -1
// when no track is current.
func (l *TrackList) CurrentPosition() int {
	if l.current == nil {
		return -1
	}
	position := 0
	for n := l.head; n != nil && n != l.current; n = n.next {
		position++
	}
	return position
}

// SetCurrent moves the cursor to the given position without reordering.
func (l *TrackList) SetCurrent(position int) (models.Track, error) {
	if l.IsEmpty() {
		return models.Track{}, fmt.Errorf("cannot set current: %w", ErrEmptyList)
	}
	if position < 0 || position >= l.size {
		return models.Track{}, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPosition, position, l.size-1)
	}
	l.current = l.nodeAt(position)
	return l.current.track, nil
}

// Advance moves the cursor to the next track. It reports false, leaving the
// cursor in place, when there is no next track. It never wraps.
func (l *TrackList) Advance() (models.Track, bool) {
	if l.current == nil || l.current.next == nil {
		return models.Track{}, false
	}
	l.current = l.current.next
	return l.current.track, true
}

// Retreat moves the cursor to the previous track. It reports false, leaving
// the cursor in place, when there is no previous track. It never wraps.
func (l *TrackList) Retreat() (models.Track, bool) {
	if l.current == nil || l.current.prev == nil {
		return models.Track{}, false
	}
	l.current = l.current.prev
	return l.current.track, true
}

// HasNext reports whether Advance would succeed.
func (l *TrackList) HasNext() bool {
	return l.current != nil && l.current.next != nil
}

// HasPrevious reports whether Retreat would succeed.
func (l *TrackList) HasPrevious() bool {
	return l.current != nil && l.current.prev != nil
}

// Move relocates the track at from so that it occupies position to in the
// resulting sequence (remove-then-insert semantics). The moved node itself
// is relinked, so the cursor keeps pointing at the same track even when that
// track is the one being moved.
func (l *TrackList) Move(from, to int) error {
	if l.IsEmpty() {
		return fmt.Errorf("cannot move: %w", ErrEmptyList)
	}
	if from < 0 || from >= l.size || to < 0 || to >= l.size {
		return fmt.Errorf("%w: move %d -> %d with size %d", ErrInvalidPosition, from, to, l.size)
	}
	if from == to {
		return nil
	}
	n := l.nodeAt(from)
	l.unlink(n)
	l.insertNodeAt(n, to)
	return nil
}

// Shuffle uniformly permutes the list with Fisher-Yates, rebuilds the links
// and relocates the cursor to the node that carries the previously current
// track's id. Lists of size 0 or 1 are left untouched.
func (l *TrackList) Shuffle() {
	if l.size <= 1 {
		return
	}

	tracks := l.ToSlice()
	currentID := ""
	if l.current != nil {
		currentID = l.current.track.ID
	}

	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})

	l.head = nil
	l.tail = nil
	l.current = nil
	l.size = 0
	for _, t := range tracks {
		l.Append(t)
	}

	// Append left the cursor on the first track; relocate it by identity.
	if currentID != "" {
		for n := l.head; n != nil; n = n.next {
			if n.track.ID == currentID {
				l.current = n
				break
			}
		}
	}
}

// ToSlice returns the tracks in head-to-tail order.
func (l *TrackList) ToSlice() []models.Track {
	tracks := make([]models.Track, 0, l.size)
	for n := l.head; n != nil; n = n.next {
		tracks = append(tracks, n.track)
	}
	return tracks
}

// Clear removes every track and resets the cursor.
func (l *TrackList) Clear() {
	l.head = nil
	l.tail = nil
	l.current = nil
	l.size = 0
}
