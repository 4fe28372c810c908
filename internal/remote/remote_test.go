package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monocle-remote/internal/joystick"
)

type fakeCamera struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCamera) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeCamera) Drive(pan, tilt, zoom joystick.Level) error {
	return f.record(fmt.Sprintf("drive %d %d %d", pan, tilt, zoom))
}
func (f *fakeCamera) Home() error { return f.record("home") }
func (f *fakeCamera) Stop() error { return f.record("stop") }
func (f *fakeCamera) RecallPreset(n int) error { return f.record(fmt.Sprintf("preset %d", n)) }
func (f *fakeCamera) Close() error { return nil }

func (f *fakeCamera) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeJoystick struct {
	mu     sync.Mutex
	ticks  int
	ptz    func(joystick.Event)
	button func()
}

func (f *fakeJoystick) Tick() {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}
func (f *fakeJoystick) OnPTZ(fn func(joystick.Event)) { f.ptz = fn }
func (f *fakeJoystick) OnButtonPress(fn func()) { f.button = fn }

func (f *fakeJoystick) tickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"home", "stop", "preset", "none"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.Equal(t, Action(s), a)
	}

	a, err := ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, ActionHome, a)

	_, err = ParseAction("zoom")
	assert.Error(t, err)
}

func TestEventsDriveCamera(t *testing.T) {
	js := &fakeJoystick{}
	cam := &fakeCamera{}
	_, err := New(js, cam, Config{}, nil)
	require.NoError(t, err)

	js.ptz(joystick.Event{Pan: joystick.Low, Zoom: -joystick.High})
	js.button()

	assert.Equal(t, []string{"drive 1 0 -3", "home"}, cam.recorded())
}

func TestButtonActions(t *testing.T) {
	cases := []struct {
		action Action
		want   []string
	}{
		{ActionHome, []string{"home"}},
		{ActionStop, []string{"stop"}},
		{ActionPreset, []string{"preset 7"}},
		{ActionNone, nil},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			js := &fakeJoystick{}
			cam := &fakeCamera{}
			_, err := New(js, cam, Config{ButtonAction: tc.action, ButtonPreset: 7}, nil)
			require.NoError(t, err)

			js.button()
			assert.Equal(t, tc.want, cam.recorded())
		})
	}
}

func TestNewRejectsUnknownAction(t *testing.T) {
	_, err := New(&fakeJoystick{}, &fakeCamera{}, Config{ButtonAction: "jump"}, nil)
	assert.Error(t, err)
}

func TestCameraErrorsAreNotFatal(t *testing.T) {
	js := &fakeJoystick{}
	cam := &fakeCamera{err: errors.New("camera offline")}
	_, err := New(js, cam, Config{}, nil)
	require.NoError(t, err)

	js.ptz(joystick.Event{Tilt: joystick.Med})
	js.button()
	assert.Len(t, cam.recorded(), 2)
}

func TestRunTicksUntilCanceledThenStops(t *testing.T) {
	js := &fakeJoystick{}
	cam := &fakeCamera{}
	r, err := New(js, cam, Config{TickInterval: time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return js.tickCount() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"stop"}, cam.recorded())
}

// lockedInput is a joystick.Input the test goroutine can move
type lockedInput struct {
	mu  sync.Mutex
	raw map[int]int
}

func (l *lockedInput) set(pin, v int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw[pin] = v
}

func (l *lockedInput) ReadRaw(pin int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.raw[pin]
}

func (l *lockedInput) ReadDigital(int) bool { return true }

func TestRunWithJoystick(t *testing.T) {
	in := &lockedInput{raw: map[int]int{0: 512}}
	js := joystick.New(in)
	js.SetupAxis(joystick.Pan, 0, 10)
	js.SetAllThresholds(100, 200, 400)
	js.SetBuffer(joystick.Pan, 5)
	js.SetPTZEventDelay(0)

	cam := &fakeCamera{}
	r, err := New(js, cam, Config{TickInterval: time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	in.set(0, 512+250)
	require.Eventually(t, func() bool {
		calls := cam.recorded()
		return len(calls) > 0 && calls[len(calls)-1] == "drive 2 0 0"
	}, 2*time.Second, time.Millisecond)

	cancel()
	<-done
	calls := cam.recorded()
	assert.Equal(t, "stop", calls[len(calls)-1])
}
