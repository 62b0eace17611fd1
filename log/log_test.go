package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggers(t *testing.T) {
	require.NotNil(t, Trace)
	require.NotNil(t, Info)
	require.NotNil(t, Warn)
	require.NotNil(t, Error)
}

func TestWarnIfErr(t *testing.T) {
	//must not panic either way
	WarnIfErr("oops", errors.New("boom"))
	WarnIfErr("oops", nil)
}

func TestErrIfErr(t *testing.T) {
	ErrIfErr("oops", errors.New("boom"))
	ErrIfErr("oops", nil)
}

func TestInitZap(t *testing.T) {
	sync := InitZap()
	require.NotNil(t, sync)
	sync()
}
