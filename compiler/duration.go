package compiler

import "loopian/lpnlib"

// durationLetters is the exact duration-letter table used by pass 8
// recombination (spec §4.2): q=crotchet, h=minim, e/'=quaver, v/"=semiquaver,
// w=demisemiquaver, each in ticks at the default 480-tick quarter note.
//
// Grounded on original_source/src/cmd/txt2seq_phr.rs::decide_dur.
var durationLetters = map[byte]int16{
	'h': lpnlib.TickForQuarter * 2,
	'q': lpnlib.TickForQuarter,
	'e': lpnlib.TickForQuarter / 2,
	'\'': lpnlib.TickForQuarter / 2,
	'v': lpnlib.TickForQuarter / 4,
	'"': lpnlib.TickForQuarter / 4,
	'w': lpnlib.TickForQuarter / 8,
}

// decideDur resolves the duration-letter portion of a note token, honouring
// a dotted suffix (x1.5) and triplet prefixes ('3' -> x2/3, '5' -> x2/5).
// Returns the resolved tick length and the number of runes consumed.
func decideDur(s string) (int16, int) {
	if len(s) == 0 {
		return lpnlib.TickForQuarter, 0
	}
	i := 0
	triplet := 0
	if s[0] == '3' || s[0] == '5' {
		triplet = int(s[0] - '0')
		i++
	}
	if i >= len(s) {
		return lpnlib.TickForQuarter, i
	}
	letter := s[i]
	base, ok := durationLetters[letter]
	if !ok {
		return lpnlib.TickForQuarter, 0
	}
	i++
	dotted := false
	if i < len(s) && (s[i] == '\'' || s[i] == '.') && letter != '\'' {
		dotted = true
		i++
	}
	dur := int32(base)
	if triplet != 0 {
		dur = dur * 2 / int32(triplet)
	}
	if dotted {
		dur = dur * 3 / 2
	}
	return int16(dur), i
}
