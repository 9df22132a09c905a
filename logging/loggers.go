package logging

import (
	"bytes"
	"io/ioutil"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// const
const (
	PanicLevel = "panic"
	FatalLevel = "fatal"
	ErrorLevel = "error"
	WarnLevel  = "warn"
	InfoLevel  = "info"
	DebugLevel = "debug"
	TraceLevel = "trace"
)

const (
	//PANIC log level
	PANIC uint32 = iota
	//FATAL has list msg
	FATAL
	//ERROR has list msg
	ERROR
	//WARN only log
	WARN
	//INFO only log
	INFO
	//DEBUG only log
	DEBUG
	//TRACE only log
	TRACE
)

const (
	//MsgFormatSingle reports the calling function only
	MsgFormatSingle uint32 = iota
	//MsgFormatMulti reports the whole call chain
	MsgFormatMulti
)

//LogFormat is to log format
type LogFormat = map[string]interface{}

var (
	mtx  sync.Mutex
	clog *logrus.Logger
	vlog *logrus.Logger
)

// IsValidLevel reports whether level names a known log level.
func IsValidLevel(level string) bool {
	switch level {
	case PanicLevel, FatalLevel, ErrorLevel, WarnLevel, InfoLevel, DebugLevel, TraceLevel:
		return true
	}
	return false
}

func convertLevel(level string) logrus.Level {
	switch level {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	case TraceLevel:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// Init loggers. clog writes to stdout and the rotated file, vlog to the file only.
func Init(path, filename string, level string, age uint32) {
	mtx.Lock()
	defer mtx.Unlock()
	initLocked(path, filename, level, age)
}

func initLocked(path, filename string, level string, age uint32) {
	fileHooker := NewFileRotateHooker(path, filename, age, nil)

	clog = logrus.New()
	LoadFunctionHooker(clog)
	if fileHooker != nil {
		clog.Hooks.Add(fileHooker)
	}
	clog.Out = os.Stdout
	clog.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	clog.Level = convertLevel(level)

	vlog = logrus.New()
	LoadFunctionHooker(vlog)
	if fileHooker != nil {
		vlog.Hooks.Add(fileHooker)
	}
	vlog.Out = ioutil.Discard
	vlog.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	vlog.Level = convertLevel(level)

	vlog.WithFields(logrus.Fields{
		"path":  path,
		"level": level,
	}).Info("Logger Configuration.")
}

func loggers() (*logrus.Logger, *logrus.Logger) {
	mtx.Lock()
	defer mtx.Unlock()
	if clog == nil || vlog == nil {
		initLocked(os.TempDir(), "authvm.log", InfoLevel, 0)
	}
	return clog, vlog
}

//GetGID return gid
func GetGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

func output(logger *logrus.Logger, level uint32, msg string, data LogFormat) {
	fields := make(logrus.Fields, len(data)+1)
	for k, v := range data {
		fields[k] = v
	}
	fields["tid"] = GetGID()
	entry := logger.WithFields(fields)
	switch level {
	case PANIC:
		entry.Panic(msg)
	case FATAL:
		entry.Fatal(msg)
	case ERROR:
		entry.Error(msg)
	case WARN:
		entry.Warn(msg)
	case INFO:
		entry.Info(msg)
	case DEBUG:
		entry.Debug(msg)
	case TRACE:
		entry.Trace(msg)
	default:
		entry.Error(msg)
	}
}

//CPrint into stdout + log
func CPrint(level uint32, msg string, data LogFormat) {
	c, _ := loggers()
	output(c, level, msg, data)
}

//VPrint into log
func VPrint(level uint32, msg string, data LogFormat) {
	_, v := loggers()
	output(v, level, msg, data)
}
