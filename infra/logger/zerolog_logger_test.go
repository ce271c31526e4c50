package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZerologLogger(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	assert.NotNil(t, l)
	l.Infof("hello %s", "world")
	l.Infow("structured", map[string]any{"key": "value"})

	t.Setenv("APP_ENV", "prod")
	l = NewZerologLogger("test")
	assert.NotNil(t, l)
	l.Warnf("warn %d", 1)
	l.Errorf("err %d", 2)
	l.Debugf("debug %d", 3)
}
