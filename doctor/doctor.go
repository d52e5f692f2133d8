package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"voxsheet/audio"
	"voxsheet/clipboard"
	"voxsheet/config"
	"voxsheet/hotkey"
	"voxsheet/sheet"
	"voxsheet/transcriber"
)

const (
	recordSeconds = 3
	// peak RMS below this means the microphone is muted or unplugged
	minLevel = 0.005
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts config.Options) int {
	saveTerminal()
	setupInterruptHandler()

	fmt.Println("voxsheet doctor - interactive system diagnostics")
	fmt.Println("================================================")

	allPass := true

	if !checkHotkey(opts.Combo()) {
		allPass = false
	}
	pcm, ok := checkMicrophone()
	if !ok {
		allPass = false
	}
	if ok && !checkTranscription(opts, pcm) {
		allPass = false
	}
	if !checkSpreadsheets(opts) {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(combo hotkey.Combo) bool {
	fmt.Println()
	fmt.Println("[1/5] Hotkey detection")

	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)
	fmt.Printf("Press %s...\n", combo)

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// the hotkey backend may leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone() ([]byte, bool) {
	fmt.Println()
	fmt.Println("[2/5] Microphone")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, false
	}
	defer ctx.Close()

	device, err := audio.SelectDevice(ctx)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil, false
	}
	fmt.Printf("Using device: %s\n", device.Name)
	if audio.IsBluetooth(device.Name) {
		fmt.Println("  Warning: Bluetooth microphones may add latency and lower quality")
	}

	fmt.Printf("Press Enter and speak for %d seconds...", recordSeconds)
	bufio.NewReader(os.Stdin).ReadString('\n')

	cfg := audio.DefaultCaptureConfig()
	pcm, peak, err := record(ctx, device, cfg, recordSeconds*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return nil, false
	}
	if len(pcm) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return nil, false
	}
	fmt.Printf("  Recorded %.1fs, peak level %.3f\n", cfg.Seconds(len(pcm)), peak)
	if peak < minLevel {
		fmt.Println("  FAIL: level too low, check that the microphone is not muted")
		return pcm, false
	}
	fmt.Println("  PASS: microphone is capturing sound")
	return pcm, true
}

func record(ctx audio.Context, device *audio.DeviceInfo, cfg audio.CaptureConfig, d time.Duration) ([]byte, float64, error) {
	dev, err := ctx.NewCapture(device, cfg)
	if err != nil {
		return nil, 0, err
	}
	defer dev.Close()

	stream, err := audio.OpenStream(dev, cfg)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	fmt.Print("  Recording")
	var pcm []byte
	var peak float64
	deadline := time.Now().Add(d)
	for i := 0; time.Now().Before(deadline); i++ {
		frame, err := stream.ReadFrame()
		if errors.Is(err, audio.ErrReadTimeout) {
			continue
		}
		if err != nil {
			fmt.Println()
			return nil, 0, err
		}
		pcm = append(pcm, frame...)
		peak = max(peak, audio.RMS(frame))
		if i%8 == 0 {
			fmt.Print(".")
		}
	}
	fmt.Println(" done")
	return pcm, peak, nil
}

func checkTranscription(opts config.Options, pcm []byte) bool {
	fmt.Println()
	fmt.Println("[3/5] Transcription")

	if err := opts.Validate(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := transcriber.New(ctx, opts.Transcriber())
	if err != nil {
		fmt.Printf("  FAIL: %s client: %v\n", opts.Backend, err)
		return false
	}
	if c, ok := client.(interface{ Close() error }); ok {
		defer c.Close()
	}

	fmt.Printf("  Sending %.1f KB to %s...\n", float64(len(pcm))/1024, client.Name())
	start := time.Now()
	res := client.Transcribe(ctx, pcm, audio.DefaultCaptureConfig())
	if !res.Ok() {
		fmt.Printf("  FAIL: %s\n", res.Failure.Display())
		return false
	}

	fmt.Printf("\n  %s\n\n", transcriber.Line(time.Now(), res.Text, res.Confidence))
	fmt.Printf("  Round trip: %v\n", time.Since(start).Round(time.Millisecond))

	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkSpreadsheets(opts config.Options) bool {
	fmt.Println()
	fmt.Println("[4/5] Google Sheets")

	settings := config.LoadSettings(opts.SettingsPath)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gs, err := sheet.NewGoogleSheets(ctx, opts.Credentials, settings.AllowedSpreadsheets())
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Printf("  Transcripts will be saved to %s instead\n", opts.CSVPath)
		return false
	}
	list, err := gs.Spreadsheets(ctx)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if len(list) == 0 {
		fmt.Println("  FAIL: no spreadsheets are shared with this account")
		return false
	}
	for _, s := range list {
		mark := " "
		if s.Name == settings.LastSpreadsheet() {
			mark = "*"
		}
		fmt.Printf("  %s %s\n", mark, s.Name)
	}
	fmt.Printf("  PASS: %d spreadsheet(s) available\n", len(list))
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[5/5] Clipboard")

	if !clipboard.Available() {
		fmt.Println("  FAIL: no clipboard utility found (install xclip, xsel or wl-clipboard)")
		return false
	}

	testStr := fmt.Sprintf("voxsheet-doctor-%d", time.Now().UnixNano())
	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out")
		return false
	}
}
