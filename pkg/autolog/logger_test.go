package autolog

import (
	"bytes"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu      sync.Mutex
	records []Record
}

func (c *captureSink) Write(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *captureSink) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.Level.String() + " " + r.Message
	}
	return out
}

func withSink(t *testing.T, s Sink) {
	t.Helper()
	prev := SetSink(s)
	t.Cleanup(func() {
		SetSink(prev)
		SetMinLevel(LevelTrace)
	})
}

// OrderService mirrors what the instrumenter emits for a type annotated
// with //autolog::log and one method placeOrder.
type OrderService struct {
	fail bool
}

var autologOrderService = New("OrderService")

func (s *OrderService) placeOrder() error {
	autologOrderService.Log(LevelInfo, "OrderService->placeOrder - ENTER")
	defer autologOrderService.Leave(LevelInfo, "OrderService->placeOrder - LEAVE")
	if s.fail {
		panic(errors.New("out of stock"))
	}
	return nil
}

func TestInstrumentedMethod_NormalReturn(t *testing.T) {
	capture := &captureSink{}
	withSink(t, capture)

	require.NoError(t, (&OrderService{}).placeOrder())

	assert.Equal(t, []string{
		"INFO OrderService->placeOrder - ENTER",
		"INFO OrderService->placeOrder - LEAVE",
	}, capture.messages())
}

func TestInstrumentedMethod_Panic(t *testing.T) {
	capture := &captureSink{}
	withSink(t, capture)

	assert.Panics(t, func() {
		_ = (&OrderService{fail: true}).placeOrder()
	})

	assert.Equal(t, []string{
		"INFO OrderService->placeOrder - ENTER",
		"INFO OrderService->placeOrder - LEAVE",
	}, capture.messages())
}

func TestLeaveTimed(t *testing.T) {
	capture := &captureSink{}
	withSink(t, capture)

	logger := New("Clock")
	start := Now().Add(-1500 * time.Millisecond)
	logger.LeaveTimed(LevelDebug, "Clock->Tick - LEAVE", start)

	require.Len(t, capture.records, 1)
	msg := capture.records[0].Message
	require.True(t, strings.HasPrefix(msg, "Clock->Tick - LEAVE, time taken: "), msg)
	require.True(t, strings.HasSuffix(msg, "s"), msg)

	num := strings.TrimSuffix(strings.TrimPrefix(msg, "Clock->Tick - LEAVE, time taken: "), "s")
	seconds, err := strconv.ParseFloat(num, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, seconds, 1.5)
	assert.Equal(t, LevelDebug, capture.records[0].Level)
}

func TestElapsedSuffix(t *testing.T) {
	assert.Equal(t, ", time taken: 0.125s", ElapsedSuffix(125*time.Millisecond+900*time.Microsecond))
	assert.Equal(t, ", time taken: 2.000s", ElapsedSuffix(2*time.Second))
}

func TestSetMinLevel(t *testing.T) {
	capture := &captureSink{}
	withSink(t, capture)
	SetMinLevel(LevelWarn)

	logger := New("Filtered")
	logger.Log(LevelInfo, "dropped")
	logger.Log(LevelWarn, "kept")
	logger.LeaveTimed(LevelDebug, "dropped too", Now())

	assert.Equal(t, []string{"WARN kept"}, capture.messages())
}

func TestSetSinkNil(t *testing.T) {
	withSink(t, nil)
	assert.NotPanics(t, func() {
		New("Quiet").Log(LevelError, "nobody listens")
	})
}

func TestLoggerRecordFields(t *testing.T) {
	capture := &captureSink{}
	withSink(t, capture)

	New("Cart", WithPattern("%msg%n")).Log(LevelTrace, "hello")

	require.Len(t, capture.records, 1)
	r := capture.records[0]
	assert.Equal(t, "Cart", r.Logger)
	assert.Equal(t, "%msg%n", r.Pattern)
	assert.NotZero(t, r.Goroutine)
	assert.False(t, r.Time.IsZero())
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.Level(-8)})
	withSink(t, NewSlogSink(slog.New(handler)))

	New("Inventory").Log(LevelWarn, "low stock")
	New("Inventory").Log(LevelTrace, "deep detail")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="low stock"`)
	assert.Contains(t, out, "logger=Inventory")
	assert.Contains(t, out, "level=DEBUG-4")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{" Error ", LevelError, false},
		{"FATAL", LevelFatal, false},
		{"debug", LevelDebug, false},
		{"TRACE", LevelTrace, false},
		{"NOTICE", LevelInfo, true},
		{"", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToUpper(strings.TrimSpace(tt.in)), got.String())
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	assert.Less(t, LevelTrace, LevelDebug)
	assert.Less(t, LevelDebug, LevelInfo)
	assert.Less(t, LevelInfo, LevelWarn)
	assert.Less(t, LevelWarn, LevelError)
	assert.Less(t, LevelError, LevelFatal)
}
