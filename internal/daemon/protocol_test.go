package daemon

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jwulff/minutes/internal/recording"
)

func TestCommandOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: CmdStatus})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"cmd":"status"}` {
		t.Errorf("status command = %s", data)
	}
}

func TestCommandTitleWireNames(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: CmdTitle, SessionID: "2024_01_01_10_00_00", Title: "Planning"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["sessionId"] != "2024_01_01_10_00_00" {
		t.Errorf("sessionId = %v", raw["sessionId"])
	}
	if raw["title"] != "Planning" {
		t.Errorf("title = %v", raw["title"])
	}
}

func TestResponseSessions(t *testing.T) {
	j := `{"ok":true,"sessions":[{"id":"2024_01_01_10_00_00","label":"2024/01/01 10:00:00","needsTitle":true,"hasTranscript":false,"hasSummary":false}]}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Sessions) != 1 {
		t.Fatalf("sessions len = %d, want 1", len(resp.Sessions))
	}
	if !resp.Sessions[0].NeedsTitle {
		t.Error("needsTitle = false, want true")
	}
}

func TestEventFromStatus(t *testing.T) {
	base := recording.Status{
		SessionID:     "2024_01_01_10_00_00",
		State:         recording.Recording,
		Elapsed:       75 * time.Second,
		ChunksFlushed: 2,
		ChunksFailed:  1,
	}

	st := base
	st.Kind = recording.UpdateStatus
	ev := eventFromStatus(st)
	if ev.Event != EventStatus || ev.Elapsed != "01:15" {
		t.Errorf("status event = %+v", ev)
	}
	if ev.Recording == nil || !*ev.Recording {
		t.Errorf("recording = %v, want true", ev.Recording)
	}

	st = base
	st.Kind = recording.UpdateSegment
	st.Segment = "Bom dia."
	ev = eventFromStatus(st)
	if ev.Event != EventSegment || ev.Text != "Bom dia." {
		t.Errorf("segment event = %+v", ev)
	}
	if ev.SequenceNumber == nil || *ev.SequenceNumber != 3 {
		t.Errorf("sequenceNumber = %v, want 3", ev.SequenceNumber)
	}

	st = base
	st.Kind = recording.UpdateError
	st.LastError = "whisper transcription: overloaded"
	ev = eventFromStatus(st)
	if ev.Event != EventError || ev.Message != st.LastError {
		t.Errorf("error event = %+v", ev)
	}
	if ev.Failed == nil || *ev.Failed != 1 {
		t.Errorf("failed = %v, want 1", ev.Failed)
	}

	st = base
	st.Kind = recording.UpdateStopped
	ev = eventFromStatus(st)
	if ev.Event != EventStopped || ev.Recording == nil || *ev.Recording {
		t.Errorf("stopped event = %+v", ev)
	}
}

func TestBoolPtr(t *testing.T) {
	p := BoolPtr(true)
	if p == nil || !*p {
		t.Error("BoolPtr(true) should return pointer to true")
	}

	p = BoolPtr(false)
	if p == nil || *p {
		t.Error("BoolPtr(false) should return pointer to false")
	}
}
