// Package config loads the small set of persisted session defaults spec
// §2's AMBIENT STACK calls out: initial bpm, key, turnnote, input mode, and
// the MIDI port name to open on startup. File-watching and atomic-write
// concerns are out of scope (spec's settings-I/O non-goal); this is a
// single load call, mirroring the teacher's own config surface.
//
// Grounded on ako-backing-tracks' parser/parser.go (LoadTrack's
// read-then-yaml.Unmarshal-then-apply-defaults shape, and StringOrList's
// custom UnmarshalYAML for a field that may be written either way in the
// YAML file).
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"loopian/lpnlib"
)

// Session is the persisted set of session defaults (spec §2 Configuration).
type Session struct {
	BPM       int32          `yaml:"bpm,omitempty"`
	Key       string         `yaml:"key,omitempty"`
	TurnNote  uint8          `yaml:"turnnote,omitempty"`
	InputMode InputModeName  `yaml:"input_mode,omitempty"`
	MIDIPort  string         `yaml:"midi_port,omitempty"`
	Beat      BeatSpec       `yaml:"beat,omitempty"`
}

// BeatSpec is the time-signature numerator/denominator pair, written in
// YAML as e.g. "4/4" or as an explicit mapping; BeatSpec's UnmarshalYAML
// accepts either, the way StringOrList does for a chord pattern.
type BeatSpec struct {
	Num   int32 `yaml:"num,omitempty"`
	Denom int32 `yaml:"denom,omitempty"`
}

func (b *BeatSpec) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err == nil {
		num, denom := parseBeatString(str)
		b.Num, b.Denom = num, denom
		return nil
	}
	type plain BeatSpec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = BeatSpec(p)
	return nil
}

func parseBeatString(s string) (num, denom int32) {
	num, denom = 4, 4
	slash := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return
	}
	n := atoi32(s[:slash])
	d := atoi32(s[slash+1:])
	if n > 0 {
		num = n
	}
	if d > 0 {
		denom = d
	}
	return
}

func atoi32(s string) int32 {
	var n int32
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int32(c-'0')
	}
	return n
}

// InputModeName is the YAML-facing spelling of lpnlib.InputMode.
type InputModeName string

const (
	InputModeFixed    InputModeName = "fixed"
	InputModeCloser   InputModeName = "closer"
	InputModeUpcloser InputModeName = "upcloser"
)

// Resolve maps the YAML spelling onto lpnlib.InputMode, defaulting to
// InputFixed for an empty or unrecognized value.
func (n InputModeName) Resolve() lpnlib.InputMode {
	switch n {
	case InputModeCloser:
		return lpnlib.InputCloser
	case InputModeUpcloser:
		return lpnlib.InputUpcloser
	default:
		return lpnlib.InputFixed
	}
}

// defaults mirror the teacher's LoadTrack "set defaults after unmarshal"
// pattern (BarsPerChord/Repeat defaulting to 1 when absent).
func (s *Session) applyDefaults() {
	if s.BPM == 0 {
		s.BPM = 120
	}
	if s.Key == "" {
		s.Key = "C"
	}
	if s.TurnNote == 0 {
		s.TurnNote = lpnlib.DefaultNoteNumber
	}
	if s.Beat.Num == 0 {
		s.Beat.Num = 4
	}
	if s.Beat.Denom == 0 {
		s.Beat.Denom = 4
	}
}

// Load reads and parses a session-default YAML file (spec §2
// Configuration), the config-package equivalent of LoadTrack.
func Load(filename string) (*Session, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.applyDefaults()
	return &s, nil
}

// Default returns the built-in session defaults used when no config file
// is present, so callers never need a nil check before reading fields.
func Default() *Session {
	s := &Session{}
	s.applyDefaults()
	return s
}
