package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const (
	maxCallDepth    = 6
	loggingPackage  = "github.com/cashvm/authvm/logging."
	logrusPackage   = "github.com/sirupsen/logrus."
	defaultRotation = 24 * time.Hour
)

// NewFileRotateHooker returns a hook writing every level to a daily rotated
// file under path. age is the retention in days, 0 keeps rotatelogs' default.
// A nil hook is returned when the file cannot be opened.
func NewFileRotateHooker(path, filename string, age uint32, formatter logrus.Formatter) logrus.Hook {
	if err := os.MkdirAll(path, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory %s: %v\n", path, err)
		return nil
	}
	base := filepath.Join(path, filename)
	options := []rotatelogs.Option{
		rotatelogs.WithLinkName(base),
		rotatelogs.WithRotationTime(defaultRotation),
	}
	if age > 0 {
		options = append(options, rotatelogs.WithMaxAge(time.Duration(age)*24*time.Hour))
	}
	writer, err := rotatelogs.New(base+".%Y%m%d", options...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open rotated log %s: %v\n", base, err)
		return nil
	}
	if formatter == nil {
		formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	}
	return lfshook.NewHook(lfshook.WriterMap{
		logrus.PanicLevel: writer,
		logrus.FatalLevel: writer,
		logrus.ErrorLevel: writer,
		logrus.WarnLevel:  writer,
		logrus.InfoLevel:  writer,
		logrus.DebugLevel: writer,
		logrus.TraceLevel: writer,
	}, formatter)
}

// functionHook tags entries with the function that logged them. Error and
// above carry the call chain.
type functionHook struct{}

func (functionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (functionHook) Fire(entry *logrus.Entry) error {
	relation := MsgFormatSingle
	if entry.Level <= logrus.ErrorLevel {
		relation = MsgFormatMulti
	}
	chain := callChain(relation)
	if len(chain) > 0 {
		entry.Data["func"] = strings.Join(chain, " <- ")
	}
	return nil
}

// LoadFunctionHooker attaches the caller reporting hook to logger.
func LoadFunctionHooker(logger *logrus.Logger) {
	logger.Hooks.Add(functionHook{})
}

func callChain(relation uint32) []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var chain []string
	for {
		frame, more := frames.Next()
		if !skipFrame(frame.Function) {
			chain = append(chain, fmt.Sprintf("%s:%d", shortFunction(frame.Function), frame.Line))
			if relation == MsgFormatSingle || len(chain) == maxCallDepth {
				break
			}
		}
		if !more {
			break
		}
	}
	return chain
}

func skipFrame(function string) bool {
	return function == "" ||
		strings.HasPrefix(function, logrusPackage) ||
		strings.HasPrefix(function, loggingPackage) ||
		strings.HasPrefix(function, "runtime.")
}

func shortFunction(function string) string {
	if i := strings.LastIndex(function, "/"); i >= 0 {
		return function[i+1:]
	}
	return function
}
