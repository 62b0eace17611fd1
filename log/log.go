package log

import (
	"io"
	stdlog "log"
	"os"

	"go.uber.org/zap"
)

var (
	Trace = stdlog.New(io.Discard,
		"TRACE: ",
		stdlog.Ldate|stdlog.Ltime|stdlog.Lshortfile)

	Info = stdlog.New(os.Stdout,
		"INFO: ",
		stdlog.Ldate|stdlog.Ltime|stdlog.Lshortfile)

	Warn = stdlog.New(os.Stdout,
		"WARNING: ",
		stdlog.Ldate|stdlog.Ltime|stdlog.Lshortfile)

	Error = stdlog.New(os.Stderr,
		"ERROR: ",
		stdlog.Ldate|stdlog.Ltime|stdlog.Lshortfile)
)

// InitZap installs the process-wide zap logger used by the service layer via zap.L().
func InitZap() func() {
	logger, err := zap.NewProduction()
	if err != nil {
		stdlog.Fatal(err)
	}
	zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
	}
}

func Fatal(v ...interface{}) {
	stdlog.Fatal(v...)
}

func WarnIfErr(description string, err error) {
	if err != nil {
		Warn.Println(description, err)
	}
}

func ErrIfErr(description string, err error) {
	if err != nil {
		Error.Println(description, err)
	}
}
