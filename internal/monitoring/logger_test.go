package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("frames=%d", 3)
	assert.Equal(t, []string{"frames=3"}, got)

	// nil installs a no-op, which must not panic
	SetLogger(nil)
	Logf("ignored")
	assert.Len(t, got, 1)
}

func TestDebugf(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetDebug(false)
	}()

	count := 0
	SetLogger(func(string, ...interface{}) { count++ })

	SetDebug(false)
	Debugf("suppressed")
	assert.Equal(t, 0, count)
	assert.False(t, DebugEnabled())

	SetDebug(true)
	Debugf("emitted %s", "once")
	assert.Equal(t, 1, count)
	assert.True(t, DebugEnabled())
}
