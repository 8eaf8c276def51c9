package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo("test", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestSanitizeLogPath(t *testing.T) {
	assert.Equal(t, "temp_upload/a.jpg", SanitizeLogPath("temp_upload/a.jpg"))
	assert.Equal(t, "ab", SanitizeLogPath("a\x00b"))
	assert.Equal(t, "...", SanitizeLogPath(string(make([]byte, 300))))
}
