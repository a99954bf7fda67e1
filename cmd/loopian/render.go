package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"loopian/config"
	"loopian/display"
	"loopian/midiio"
)

// recordingSink adapts a *midiio.SessionRecorder (tick-stamped) to the
// live-facing midiio.Sink interface (absolute-time-free) by reading the
// current absolute tick off a supplied clock function at call time, the way
// stamping every call against the running transport position rather than
// wall-clock time.
type recordingSink struct {
	rec    *midiio.SessionRecorder
	atTick func() int64
}

func (r *recordingSink) NoteOn(channel, note, velocity uint8) error {
	r.rec.NoteOn(r.atTick(), channel, note, velocity)
	return nil
}

func (r *recordingSink) NoteOff(channel, note uint8) error {
	r.rec.NoteOff(r.atTick(), channel, note)
	return nil
}

func (r *recordingSink) ControlChange(channel, controller, value uint8) error {
	r.rec.ControlChange(r.atTick(), channel, controller, value)
	return nil
}

func (r *recordingSink) PolyAftertouch(channel, note, pressure uint8) error {
	return nil
}

func (r *recordingSink) AllSoundOff(channel uint8) error {
	return nil
}

func loadOrDefault(configPath string) (*config.Session, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// runPlay drives the interactive REPL: stdin lines are dispatched as
// CLI-surface commands against a live session while a background goroutine
// advances the scheduler on a steady tick.
func runPlay(configPath string, noUI bool) error {
	cfg, err := loadOrDefault(configPath)
	if err != nil {
		return err
	}

	var out io.Writer = io.Discard
	if cfg.MIDIPort != "" {
		f, err := os.Create(cfg.MIDIPort)
		if err != nil {
			return fmt.Errorf("opening midi port file %q: %w", cfg.MIDIPort, err)
		}
		defer f.Close()
		out = f
	}
	sink := midiio.NewWriterSink(out)

	sess := newSession(cfg, sink)
	sess.start()

	var mu sync.Mutex
	stopTick := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopTick:
				return
			case now := <-ticker.C:
				mu.Lock()
				_, err := sess.stk.Periodic(now)
				mu.Unlock()
				if err != nil {
					fmt.Fprintf(os.Stderr, "play: %v\n", err)
					os.Exit(1)
				}
			}
		}
	}()
	defer close(stopTick)

	if !noUI {
		go func() {
			_ = display.Run(sess.uiOut)
		}()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		mu.Lock()
		resp := sess.dispatch(line)
		mu.Unlock()
		if resp == "bye" {
			fmt.Println(resp)
			return nil
		}
		if resp != "" {
			fmt.Println(resp)
		}
	}
	return scanner.Err()
}

// runRender plays a command script non-interactively against a
// midiio.SessionRecorder instead of a live sink, then writes the resulting
// Standard MIDI File to out.
func runRender(script, out, configPath string) error {
	cfg, err := loadOrDefault(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(script)
	if err != nil {
		return fmt.Errorf("opening script %q: %w", script, err)
	}
	defer f.Close()

	rec := midiio.NewSessionRecorder(cfg.BPM)
	var sess *session
	rsink := &recordingSink{rec: rec, atTick: func() int64 {
		msr, beat, tick, tickForBeat := sess.stk.TG.GetTick()
		return int64(msr)*int64(sess.tickForOneMsr) + int64(beat-1)*int64(tickForBeat) + int64(tick)
	}}
	sess = newSession(cfg, rsink)
	simNow := time.Now()
	sess.stk.Periodic(simNow)
	sess.start()

	const step = 5 * time.Millisecond

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if resp := sess.dispatch(line); resp != "ok" && resp != "" {
			return fmt.Errorf("command %q: %s", line, resp)
		}
		for d := time.Duration(0); d < sess.barDuration(); d += step {
			simNow = simNow.Add(step)
			if _, err := sess.stk.Periodic(simNow); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	outFile, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output %q: %w", out, err)
	}
	defer outFile.Close()
	_, err = rec.Export().WriteTo(outFile)
	return err
}
