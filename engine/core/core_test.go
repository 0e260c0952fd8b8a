package core

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierFactoryIsStrictlyIncreasing(t *testing.T) {
	f := &IdentifierFactory{}
	prev := f.Next()
	assert.Equal(t, uint32(0), prev)
	for i := 0; i < 100; i++ {
		id := f.Next()
		assert.Greater(t, id, prev)
		prev = id
	}
	assert.Equal(t, prev+1, f.Next())
}

func TestIdentifierFactoriesAreIndependent(t *testing.T) {
	a, b := &IdentifierFactory{}, &IdentifierFactory{}
	a.Next()
	a.Next()
	assert.Equal(t, uint32(0), b.Next())
}

func TestPreconditionIsAssertionFailure(t *testing.T) {
	err := Precondition("frame %d already started", 3)
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "frame 3 already started")

	assert.False(t, IsPrecondition(ErrWindowClosed))
	assert.True(t, IsPrecondition(errors.Wrap(err, "begin frame")))
}

func TestMetricsAveragesFrameTime(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 1e-9)
}

func TestMetricsReportsFPSOncePerSecond(t *testing.T) {
	m := NewMetrics()
	reported := 0
	for i := 0; i < 120; i++ {
		if m.Update(0.010) {
			reported++
		}
	}
	assert.Equal(t, 1, reported)
	assert.InDelta(t, 101, m.FPS(), 1)
}

func TestEventFireDispatchesToListeners(t *testing.T) {
	EventSystemShutdown()
	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()

	var got []EventCode
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(ctx EventContext) {
		got = append(got, ctx.Type)
	})

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Equal(t, []EventCode{EVENT_CODE_APPLICATION_QUIT}, got)
}

func TestEventSystemNotInitialized(t *testing.T) {
	EventSystemShutdown()
	assert.False(t, EventRegister(EVENT_CODE_KEY_PRESSED, func(EventContext) {}))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED}))
}

func TestEventFireRacesShutdown(t *testing.T) {
	EventSystemShutdown()
	require.True(t, EventSystemInitialize())
	assert.False(t, EventSystemInitialize())

	var fired atomic.Int32
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(EventContext) { fired.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT})
			}
		}()
	}
	EventSystemShutdown()
	wg.Wait()

	assert.LessOrEqual(t, fired.Load(), int32(800))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("info")

	SetLogLevel("debug")
	assert.Equal(t, log.DebugLevel, LogLevel())
	SetLogLevel(" WARN ")
	assert.Equal(t, log.WarnLevel, LogLevel())
	SetLogLevel("error")
	assert.Equal(t, log.ErrorLevel, LogLevel())
	SetLogLevel("verbose")
	assert.Equal(t, log.InfoLevel, LogLevel())
	SetLogLevel("")
	assert.Equal(t, log.InfoLevel, LogLevel())
}

func TestInputProcessKeyFiresOnChange(t *testing.T) {
	EventSystemShutdown()
	require.True(t, EventSystemInitialize())
	defer EventSystemShutdown()

	pressed := 0
	released := 0
	EventRegister(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) {
		ke, ok := ctx.Data.(*KeyEvent)
		require.True(t, ok)
		assert.Equal(t, KEY_W, ke.KeyCode)
		pressed++
	})
	EventRegister(EVENT_CODE_KEY_RELEASED, func(EventContext) { released++ })

	in := NewInput()
	in.ProcessKey(KEY_W, true)
	in.ProcessKey(KEY_W, true)
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.False(t, in.WasKeyDown(KEY_W))

	in.Update()
	assert.True(t, in.WasKeyDown(KEY_W))

	in.ProcessKey(KEY_W, false)
	assert.True(t, in.IsKeyUp(KEY_W))
	assert.Equal(t, 1, pressed)
	assert.Equal(t, 1, released)
}
