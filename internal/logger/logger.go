package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (lv LogLevel) String() string {
	if lv < DEBUG || lv > FATAL {
		return "INFO"
	}
	return levelNames[lv]
}

// ParseLevel maps a LOG_LEVEL value to a level; unknown values mean INFO.
func ParseLevel(s string) LogLevel {
	for i, name := range levelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return LogLevel(i)
		}
	}
	return INFO
}

type levelStyle struct {
	level    *color.Color
	category *color.Color
}

var levelStyles = map[LogLevel]levelStyle{
	DEBUG: {color.New(color.FgCyan), color.New(color.FgCyan, color.Bold)},
	INFO:  {color.New(color.FgGreen), color.New(color.FgGreen, color.Bold)},
	WARN:  {color.New(color.FgYellow), color.New(color.FgYellow, color.Bold)},
	ERROR: {color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
	FATAL: {color.New(color.FgRed), color.New(color.FgRed, color.Bold)},
}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	service      string
	minLevel     LogLevel
	out          io.Writer
	jsonOut      io.Writer
	logFile      *os.File
	colorEnabled bool
}

// NewLogger writes coloured lines to stdout and JSON lines to
// logs/<service>-<date>.log. LOG_LEVEL sets the minimum level.
func NewLogger(service string) *Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatal("Failed to create logs directory:", err)
	}

	logFileName := fmt.Sprintf("logs/%s-%s.log", service, time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("Failed to create log file:", err)
	}

	l := &Logger{
		service:      service,
		minLevel:     ParseLevel(os.Getenv("LOG_LEVEL")),
		out:          os.Stdout,
		jsonOut:      logFile,
		logFile:      logFile,
		colorEnabled: true,
	}
	l.Info("LOGGER", fmt.Sprintf("Logging %s at %s and above to %s", service, l.minLevel, logFileName))
	return l
}

// New returns a logger that writes uncoloured lines of every level to w only.
func New(w io.Writer) *Logger {
	return &Logger{out: w, minLevel: DEBUG}
}

// Discard is used where a component needs a logger but output is irrelevant.
func Discard() *Logger {
	return New(io.Discard)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.minLevel = level
}

func (l *Logger) log(level LogLevel, category, message string) {
	if l == nil || level < l.minLevel {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level.String(),
		Service:   l.service,
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	fmt.Fprint(l.out, l.terminalLine(level, entry))
	if l.jsonOut != nil {
		if b, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(l.jsonOut, string(b))
		}
	}
}

func (l *Logger) terminalLine(level LogLevel, entry LogEntry) string {
	ts := entry.Timestamp[11:19]
	where := ""
	if entry.File != "" && entry.Line > 0 {
		where = fmt.Sprintf(" (%s:%d)", entry.File, entry.Line)
	}

	if !l.colorEnabled {
		return fmt.Sprintf("%s %-5s [%-10s] %s%s\n", ts, entry.Level, entry.Category, entry.Message, where)
	}

	style := levelStyles[level]
	if where != "" {
		where = color.New(color.FgMagenta).Sprint(where)
	}
	return fmt.Sprintf("%s %s %s %s%s\n",
		color.New(color.FgBlue).Sprint(ts),
		style.level.Sprintf("%-5s", entry.Level),
		style.category.Sprintf("[%-10s]", entry.Category),
		entry.Message,
		where,
	)
}

func (l *Logger) Debug(category, message string) {
	l.log(DEBUG, category, message)
}

func (l *Logger) Info(category, message string) {
	l.log(INFO, category, message)
}

func (l *Logger) Warn(category, message string) {
	l.log(WARN, category, message)
}

func (l *Logger) Error(category, message string) {
	l.log(ERROR, category, message)
}

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	os.Exit(1)
}

// Domain helpers keep message shapes consistent so the JSON log can be grepped.

func (l *Logger) LogCheckIn(action, userID, eventID, message string) {
	l.Info("CHECKIN", fmt.Sprintf("[%s] user=%s event=%s - %s", action, userID, eventID, message))
}

func (l *Logger) LogAuth(action, subject, message string) {
	l.Info("AUTH", fmt.Sprintf("[%s] %s - %s", action, subject, message))
}

// LogAPI logs one served request; 5xx at ERROR and 4xx at WARN.
func (l *Logger) LogAPI(method, path string, status int, duration time.Duration, requestID string) {
	msg := fmt.Sprintf("%s %s - %d (%s)", method, path, status, duration.Round(time.Microsecond))
	if requestID != "" {
		msg += " req=" + requestID
	}
	switch {
	case status >= 500:
		l.Error("API", msg)
	case status >= 400:
		l.Warn("API", msg)
	default:
		l.Info("API", msg)
	}
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogSecurity(event, message string) {
	l.Warn("SECURITY", fmt.Sprintf("[%s] %s", event, message))
}

func (l *Logger) Close() {
	if l == nil || l.logFile == nil {
		return
	}
	l.Info("LOGGER", "Closing log file")
	l.logFile.Close()
	l.logFile, l.jsonOut = nil, nil
}
