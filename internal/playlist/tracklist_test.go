package playlist

import (
	"errors"
	"fmt"
	"testing"

	"github.com/juanGallardor/ReproductorMusica/pkg/models"
)

func testTrack(id string, duration int) models.Track {
	return models.Track{
		ID:       id,
		Title:    "Track " + id,
		Duration: duration,
		Filename: id + ".mp3",
		FileSize: 1024,
		Format:   "mp3",
	}
}

func listIDs(l *TrackList) []string {
	var ids []string
	for _, t := range l.ToSlice() {
		ids = append(ids, t.ID)
	}
	return ids
}

func sameIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestInsertAtOrder(t *testing.T) {
	l := NewTrackList()
	for i := 0; i < 5; i++ {
		if err := l.InsertAt(testTrack(fmt.Sprintf("t%d", i), 100), i); err != nil {
			t.Fatalf("InsertAt(%d) unexpected error: %v", i, err)
		}
	}

	if !sameIDs(listIDs(l), "t0", "t1", "t2", "t3", "t4") {
		t.Errorf("ToSlice() = %v, want t0..t4 in order", listIDs(l))
	}
	if l.Size() != 5 {
		t.Errorf("Size() = %d, want 5", l.Size())
	}
}

func TestInsertAtBounds(t *testing.T) {
	l := NewTrackList()
	l.Append(testTrack("a", 100))

	tests := []struct {
		name     string
		position int
		wantErr  bool
	}{
		{"prepend", 0, false},
		{"append", 2, false},
		{"negative", -1, true},
		{"past end", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.InsertAt(testTrack("x"+tt.name, 10), tt.position)
			if tt.wantErr && !errors.Is(err, ErrInvalidPosition) {
				t.Errorf("InsertAt(%d) error = %v, want ErrInvalidPosition", tt.position, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("InsertAt(%d) unexpected error: %v", tt.position, err)
			}
		})
	}
}

func TestFirstInsertBecomesCurrent(t *testing.T) {
	l := NewTrackList()
	l.Append(testTrack("a", 100))

	current, ok := l.Current()
	if !ok || current.ID != "a" {
		t.Errorf("Current() = %v, %v; want track a", current, ok)
	}

	// Later inserts do not steal the cursor.
	l.InsertAt(testTrack("b", 100), 0)
	current, _ = l.Current()
	if current.ID != "a" {
		t.Errorf("Current() after prepend = %s, want a", current.ID)
	}
}

func TestAdvanceRetreatNoWrap(t *testing.T) {
	// Scenario: insert A, B, C at the end; current starts at A.
	l := NewTrackList()
	l.Append(testTrack("A", 100))
	l.Append(testTrack("B", 100))
	l.Append(testTrack("C", 100))

	if got, _ := l.Current(); got.ID != "A" {
		t.Fatalf("Current() = %s, want A", got.ID)
	}

	if track, ok := l.Advance(); !ok || track.ID != "B" {
		t.Errorf("first Advance() = %v, %v; want B", track.ID, ok)
	}
	if track, ok := l.Advance(); !ok || track.ID != "C" {
		t.Errorf("second Advance() = %v, %v; want C", track.ID, ok)
	}
	if _, ok := l.Advance(); ok {
		t.Error("Advance() past the tail should fail")
	}
	if got, _ := l.Current(); got.ID != "C" {
		t.Errorf("Current() after failed Advance = %s, want C", got.ID)
	}

	l.Retreat()
	l.Retreat()
	if _, ok := l.Retreat(); ok {
		t.Error("Retreat() past the head should fail")
	}
	if got, _ := l.Current(); got.ID != "A" {
		t.Errorf("Current() after failed Retreat = %s, want A", got.ID)
	}
}

func TestDeleteAtCursorReassignment(t *testing.T) {
	// Scenario: list [A, B, C], current = B. Deleting B moves the cursor to
	// its successor C.
	l := NewTrackList()
	l.Append(testTrack("A", 100))
	l.Append(testTrack("B", 100))
	l.Append(testTrack("C", 100))
	l.SetCurrent(1)

	removed, err := l.DeleteAt(1)
	if err != nil {
		t.Fatalf("DeleteAt(1) unexpected error: %v", err)
	}
	if removed.ID != "B" {
		t.Errorf("DeleteAt(1) = %s, want B", removed.ID)
	}
	if !sameIDs(listIDs(l), "A", "C") {
		t.Errorf("ToSlice() = %v, want [A C]", listIDs(l))
	}
	if current, _ := l.Current(); current.ID != "C" {
		t.Errorf("Current() = %s, want C (successor rule)", current.ID)
	}
}

func TestDeleteAtTailFallsBackToPredecessor(t *testing.T) {
	l := NewTrackList()
	l.Append(testTrack("A", 100))
	l.Append(testTrack("B", 100))
	l.SetCurrent(1)

	if _, err := l.DeleteAt(1); err != nil {
		t.Fatalf("DeleteAt(1) unexpected error: %v", err)
	}
	if current, _ := l.Current(); current.ID != "A" {
		t.Errorf("Current() = %s, want A (predecessor rule)", current.ID)
	}
}

func TestDeleteLastClearsCursor(t *testing.T) {
	l := NewTrackList()
	l.Append(testTrack("A", 100))

	if _, err := l.DeleteAt(0); err != nil {
		t.Fatalf("DeleteAt(0) unexpected error: %v", err)
	}
	if _, ok := l.Current(); ok {
		t.Error("Current() should be absent after the list empties")
	}
	if !l.IsEmpty() || l.Size() != 0 {
		t.Errorf("list should be empty, size = %d", l.Size())
	}
}

func TestDeleteErrors(t *testing.T) {
	l := NewTrackList()
	if _, err := l.DeleteAt(0); !errors.Is(err, ErrEmptyList) {
		t.Errorf("DeleteAt on empty list error = %v, want ErrEmptyList", err)
	}

	l.Append(testTrack("A", 100))
	if _, err := l.DeleteAt(5); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("DeleteAt(5) error = %v, want ErrInvalidPosition", err)
	}
}

func TestDeleteByID(t *testing.T) {
	l := NewTrackList()
	l.Append(testTrack("A", 100))
	l.Append(testTrack("B", 100))

	if !l.DeleteByID("A") {
		t.Error("DeleteByID(A) = false, want true")
	}
	if l.DeleteByID("missing") {
		t.Error("DeleteByID(missing) = true, want false")
	}
	if !sameIDs(listIDs(l), "B") {
		t.Errorf("ToSlice() = %v, want [B]", listIDs(l))
	}
}

func TestGetAtNearestEndWalk(t *testing.T) {
	l := NewTrackList()
	for i := 0; i < 10; i++ {
		l.Append(testTrack(fmt.Sprintf("t%d", i), 100))
	}

	for i := 0; i < 10; i++ {
		track, err := l.GetAt(i)
		if err != nil {
			t.Fatalf("GetAt(%d) unexpected error: %v", i, err)
		}
		if want := fmt.Sprintf("t%d", i); track.ID != want {
			t.Errorf("GetAt(%d) = %s, want %s", i, track.ID, want)
		}
	}

	if _, err := l.GetAt(10); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("GetAt(10) error = %v, want ErrInvalidPosition", err)
	}
}

func TestMovePreservesCursorIdentity(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
	}{
		{"forward over cursor", 0, 3},
		{"backward over cursor", 3, 0},
		{"move the current node", 2, 0},
		{"adjacent swap", 1, 2},
		{"no-op", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewTrackList()
			for i := 0; i < 4; i++ {
				l.Append(testTrack(fmt.Sprintf("t%d", i), 100))
			}
			l.SetCurrent(2)
			before, _ := l.Current()

			if err := l.Move(tt.from, tt.to); err != nil {
				t.Fatalf("Move(%d, %d) unexpected error: %v", tt.from, tt.to, err)
			}

			after, ok := l.Current()
			if !ok || after.ID != before.ID {
				t.Errorf("Current() after move = %v, want %s", after.ID, before.ID)
			}
			if l.Size() != 4 {
				t.Errorf("Size() after move = %d, want 4", l.Size())
			}
		})
	}
}

func TestMoveRemoveThenInsertSemantics(t *testing.T) {
	l := NewTrackList()
	for _, id := range []string{"A", "B", "C", "D"} {
		l.Append(testTrack(id, 100))
	}

	// Moving A to index 3 of the original sequence yields [B C D A].
	if err := l.Move(0, 3); err != nil {
		t.Fatalf("Move(0, 3) unexpected error: %v", err)
	}
	if !sameIDs(listIDs(l), "B", "C", "D", "A") {
		t.Errorf("ToSlice() = %v, want [B C D A]", listIDs(l))
	}

	// Moving D (now index 2) to the front yields [D B C A].
	if err := l.Move(2, 0); err != nil {
		t.Fatalf("Move(2, 0) unexpected error: %v", err)
	}
	if !sameIDs(listIDs(l), "D", "B", "C", "A") {
		t.Errorf("ToSlice() = %v, want [D B C A]", listIDs(l))
	}
}

func TestShuffleSmallListsUnchanged(t *testing.T) {
	empty := NewTrackList()
	empty.Shuffle()
	if !empty.IsEmpty() {
		t.Error("Shuffle() of an empty list should stay empty")
	}

	single := NewTrackList()
	single.Append(testTrack("A", 100))
	single.Shuffle()
	if !sameIDs(listIDs(single), "A") {
		t.Errorf("Shuffle() of a single-track list changed it: %v", listIDs(single))
	}
	if current, _ := single.Current(); current.ID != "A" {
		t.Errorf("Current() after shuffle = %s, want A", current.ID)
	}
}

func TestShuffleKeepsCurrentAndMembers(t *testing.T) {
	l := NewTrackList()
	for i := 0; i < 8; i++ {
		l.Append(testTrack(fmt.Sprintf("t%d", i), 100))
	}
	l.SetCurrent(5)
	before, _ := l.Current()

	l.Shuffle()

	if l.Size() != 8 {
		t.Fatalf("Size() after shuffle = %d, want 8", l.Size())
	}
	after, ok := l.Current()
	if !ok || after.ID != before.ID {
		t.Errorf("Current() after shuffle = %v, want %s", after.ID, before.ID)
	}

	seen := make(map[string]bool)
	for _, id := range listIDs(l) {
		seen[id] = true
	}
	for i := 0; i < 8; i++ {
		if !seen[fmt.Sprintf("t%d", i)] {
			t.Errorf("shuffle lost track t%d", i)
		}
	}
}

func TestWalkBothDirectionsVisitsSameNodes(t *testing.T) {
	l := NewTrackList()
	for i := 0; i < 6; i++ {
		l.Append(testTrack(fmt.Sprintf("t%d", i), 100))
	}
	l.DeleteAt(2)
	l.InsertAt(testTrack("x", 50), 3)
	l.Move(0, 4)

	forward := listIDs(l)

	var backward []string
	for n := l.tail; n != nil; n = n.prev {
		backward = append([]string{n.track.ID}, backward...)
	}

	if !sameIDs(forward, backward...) {
		t.Errorf("forward walk %v != backward walk %v", forward, backward)
	}
	if len(forward) != l.Size() {
		t.Errorf("walk count %d != Size() %d", len(forward), l.Size())
	}
}

func TestSetCurrentAndCurrentPosition(t *testing.T) {
	l := NewTrackList()
	if _, err := l.SetCurrent(0); !errors.Is(err, ErrEmptyList) {
		t.Errorf("SetCurrent on empty list error = %v, want ErrEmptyList", err)
	}
	if l.CurrentPosition() != -1 {
		t.Errorf("CurrentPosition() on empty list = %d, want -1", l.CurrentPosition())
	}

	for i := 0; i < 4; i++ {
		l.Append(testTrack(fmt.Sprintf("t%d", i), 100))
	}

	if _, err := l.SetCurrent(9); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("SetCurrent(9) error = %v, want ErrInvalidPosition", err)
	}

	track, err := l.SetCurrent(3)
	if err != nil || track.ID != "t3" {
		t.Errorf("SetCurrent(3) = %v, %v; want t3", track.ID, err)
	}
	if l.CurrentPosition() != 3 {
		t.Errorf("CurrentPosition() = %d, want 3", l.CurrentPosition())
	}
}
