package midiio

import (
	"bytes"
	"testing"
)

func TestWriterSinkEncodesNoteOnOff(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	if err := sink.NoteOn(0, 60, 100); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	if err := sink.NoteOff(0, 60); err != nil {
		t.Fatalf("NoteOff: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected wire bytes to be written")
	}
}

func TestWriterSinkAllSoundOff(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	if err := sink.AllSoundOff(0); err != nil {
		t.Fatalf("AllSoundOff: %v", err)
	}
	b := buf.Bytes()
	if len(b) < 3 || b[1] != 120 {
		t.Fatalf("expected a CC 120 message, got % x", b)
	}
}

func TestSessionRecorderExportHasOneTrackPerChannel(t *testing.T) {
	rec := NewSessionRecorder(120)
	rec.NoteOn(0, 0, 60, 100)
	rec.NoteOff(480, 0, 60)
	rec.NoteOn(0, 1, 36, 90)
	rec.NoteOff(240, 1, 36)

	smfFile := rec.Export()
	// Tempo track + one per distinct channel (0 and 1) = 3.
	if len(smfFile.Tracks) != 3 {
		t.Fatalf("expected 3 tracks (tempo + 2 channels), got %d", len(smfFile.Tracks))
	}
}
