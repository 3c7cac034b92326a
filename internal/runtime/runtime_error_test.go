package runtime

import (
	"testing"

	"asteria/internal/value"
)

func TestThrowFramesInsertionOrder(t *testing.T) {
	loc := SourceLocation{File: "<test>"}
	err := Throw(value.NewString("boom"), loc)

	err.PushFrame(Frame{Kind: FrameFunc, Note: "outer"})
	err.PushFrame(Frame{Kind: FrameFunc, Note: "caller"})

	frames := err.Frames()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames (throw + 2 pushed), got %d", len(frames))
	}
	if frames[0].Kind != FrameThrow {
		t.Errorf("frame 0 should be the throw site, got %v", frames[0].Kind)
	}
	if frames[1].Note != "outer" || frames[2].Note != "caller" {
		t.Errorf("frames should append in propagation order, got notes %q, %q", frames[1].Note, frames[2].Note)
	}
}

// TestMarkCursorInsertsAtPin exercises the defer/catch insertion-cursor
// rule: frames pushed while a cursor is pinned are inserted at that
// point, not appended past later frames already recorded by the
// surrounding unwind.
func TestMarkCursorInsertsAtPin(t *testing.T) {
	err := Throw(value.NewString("boom"), SourceLocation{})
	err.PushFrame(Frame{Kind: FrameFunc, Note: "a"})

	cursor := err.MarkCursor()
	err.PushFrame(Frame{Kind: FrameDefer, Note: "defer-1"})
	err.PushFrame(Frame{Kind: FrameDefer, Note: "defer-2"})
	err.SetCursor(cursor)

	err.PushFrame(Frame{Kind: FrameFunc, Note: "b"})

	frames := err.Frames()
	notes := make([]string, len(frames))
	for i, f := range frames {
		notes[i] = f.Note
	}
	// throw, "a" are already recorded when the cursor is pinned. The two
	// defer frames insert (and advance the cursor) past that pin, but
	// restoring SetCursor(cursor) snaps back to the original pin point,
	// so "b" (pushed by the surrounding unwind, not the nested defer
	// processing) lands right after "a" and before the defer frames.
	want := []string{"", "a", "b", "defer-1", "defer-2"}
	if len(notes) != len(want) {
		t.Fatalf("got %v, want %v", notes, want)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Fatalf("got %v, want %v", notes, want)
		}
	}
}

func TestResetCursorReturnsToAppendMode(t *testing.T) {
	err := Throw(value.NewString("boom"), SourceLocation{})
	cursor := err.MarkCursor()
	err.PushFrame(Frame{Kind: FrameDefer, Note: "inserted"})
	err.SetCursor(cursor)
	err.ResetCursor()
	err.PushFrame(Frame{Kind: FrameFunc, Note: "tail"})

	frames := err.Frames()
	last := frames[len(frames)-1]
	if last.Note != "tail" {
		t.Fatalf("after ResetCursor, PushFrame should append to the end; got last frame %q", last.Note)
	}
}

func TestErrorStringPrefersStringPayload(t *testing.T) {
	err := Format("bad arity: want %d, got %d", 2, 1)
	if err.Error() != "bad arity: want 2, got 1" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if err.Value().Kind() != value.String {
		t.Fatalf("Format's payload kind = %v, want String", err.Value().Kind())
	}
}

func TestAssertPayloadIsStringWithMessage(t *testing.T) {
	err := Assert(SourceLocation{}, "x must be positive")
	if err.Error() != "assertion failure: x must be positive" {
		t.Fatalf("Assert().Error() = %q", err.Error())
	}
	frames := err.Frames()
	if len(frames) != 1 || frames[0].Kind != FrameAssert {
		t.Fatalf("Assert should push exactly one FrameAssert frame, got %v", frames)
	}
}
