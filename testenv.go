package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"voxsheet/audio"
	"voxsheet/beep"
	"voxsheet/config"
	"voxsheet/hotkey"
	"voxsheet/log"
	"voxsheet/transcriber"
)

const defaultFakeConfidence = 0.9

// runTestMode replays wavPath as the microphone and drives the app from
// stdin commands. Transcripts are saved to the CSV file only.
func runTestMode(wavPath string, opts config.Options, cell string, longPress time.Duration) {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	client, err := testClient(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m, err := newMic(fakeCtx, audio.DefaultCaptureConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()
	fakeCapture := m.dev.(*audio.FakeCapture)

	a, err := newApp(appConfig{opts: opts, cell: cell, open: m.Open, device: "fake", client: client})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	go a.pump(newPlainSink(os.Stdout))

	hk := hotkey.NewFake()
	go hotkeyLoop(a, hotkey.NewHybrid(hk, longPress))

	driveTestMode(os.Stdin, a, hk, fakeCapture.AudioDone)
	a.Stop()
	a.sess.Wait()
	a.Close()
	log.Close()
}

// testClient uses a scripted client when VOXSHEET_FAKE_TRANSCRIPT is set.
func testClient(opts config.Options) (transcriber.Client, error) {
	text, ok := os.LookupEnv("VOXSHEET_FAKE_TRANSCRIPT")
	if !ok {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	conf := defaultFakeConfidence
	if v := os.Getenv("VOXSHEET_FAKE_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("VOXSHEET_FAKE_CONFIDENCE: %w", err)
		}
		conf = f
	}
	if text == "" {
		return transcriber.NewFakeFailure(transcriber.NoResult, ""), nil
	}
	return transcriber.NewFake(text, conf), nil
}

// driveTestMode runs stdin commands until QUIT or end of input.
func driveTestMode(r io.Reader, a *app, hk *hotkey.FakeHotkey, audioDone func() <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "START":
			a.Start()
		case cmd == "STOP":
			a.Stop()
		case cmd == "KEYDOWN":
			hk.SimKeydown()
		case cmd == "KEYUP":
			hk.SimKeyup()
		case cmd == "TAP":
			hk.Tap()
		case strings.HasPrefix(cmd, "HOLD "):
			if ms, err := strconv.Atoi(strings.TrimSpace(cmd[5:])); err == nil {
				hk.Hold(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "WAIT":
			a.sess.Wait()
		case cmd == "WAIT_AUDIO_DONE":
			<-audioDone()
		case cmd == "QUIT":
			return
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimSpace(cmd[6:])); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case strings.HasPrefix(cmd, "CELL "):
			a.SetCell(cmd[5:])
		case cmd == "":
		default:
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
}
