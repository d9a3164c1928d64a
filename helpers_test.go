package nanitws

import (
	"io"
	"testing"
	"time"
)

const (
	testTimeout = 2 * time.Second

	milaJSON = `{"name":"Mila","dob":1673784000000,"theme":"fox"}`
	noaJSON  = `{"name":"Noa","dob":1673784000000,"theme":"elephant"}`
)

var testEndpoint = Endpoint{Host: "127.0.0.1", Port: 9}

func discardLogger() logger {
	return newTestLogger(io.Discard)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.PingInterval = 0
	return cfg
}

func milaRecord() BirthdayRecord {
	return BirthdayRecord{
		Name:      "Mila",
		BirthDate: Date{Year: 2023, Month: time.January, Day: 15},
		Theme:     ThemeFox,
	}
}

func recv[T any](t testing.TB, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for a value")
		}
		return v
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for a value")
	}
	var zero T
	return zero
}

// drain reads ch until it is closed and returns what it read.
func drain[T any](t testing.TB, ch <-chan T) []T {
	t.Helper()
	var out []T
	deadline := time.After(testTimeout)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		case <-deadline:
			t.Fatalf("timed out waiting for channel to close, read %d values", len(out))
			return out
		}
	}
}

// waitClosed waits until ch is closed, discarding any value sent before.
func waitClosed[T any](t testing.TB, ch <-chan T) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for channel to close")
			return
		}
	}
}
