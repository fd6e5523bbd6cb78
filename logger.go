/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Logging
 */

package ippclient

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logMessagePool = sync.Pool{New: func() interface{} { return &LogMessage{} }}
	logBufferPool  = sync.Pool{New: func() interface{} { return &bytes.Buffer{} }}
)

// LogLevel enumerates possible log levels. Levels are bits,
// so LogLevel may be used as a mask of enabled levels
type LogLevel int

const (
	LogError LogLevel = 1 << iota
	LogInfo
	LogDebug
	LogTraceIPP
	LogTraceHTTP

	LogAll = LogError | LogInfo | LogDebug | LogTraceIPP | LogTraceHTTP
)

// ANSI colors, by level
var logColors = map[LogLevel]string{
	LogError:     "\033[31;1m",
	LogDebug:     "\033[37;1m",
	LogTraceIPP:  "\033[37m",
	LogTraceHTTP: "\033[37m",
}

const logColorReset = "\033[0m"

// Logger implements logging facilities.
//
// nil *Logger is valid and discards everything
type Logger struct {
	lock       sync.Mutex   // Write lock
	out        io.Writer    // Output stream
	closer     io.Closer    // Closed by Close, if not nil
	levels     LogLevel     // Mask of enabled levels
	time       bytes.Buffer // Time prefix buffer
	timestamps bool         // Prepend lines with time
	color      bool         // Use ANSI colors
	cc         *Logger      // Messages copied here, if not nil
}

// NewLogger creates a new logger that writes to out, with time
// prefix at each line
func NewLogger(out io.Writer, levels LogLevel) *Logger {
	return &Logger{
		out:        out,
		levels:     levels,
		timestamps: true,
	}
}

// NewConsoleLogger creates a new logger that writes to os.Stderr.
// Colors are enabled if os.Stderr is a terminal
func NewConsoleLogger(levels LogLevel) *Logger {
	return &Logger{
		out:    os.Stderr,
		levels: levels,
		color:  term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// NewFileLogger creates a new logger that writes to the file.
// When file size exceeds maxSize, the file is rotated, and up to
// backups gzipped copies are preserved
func NewFileLogger(path string, levels LogLevel,
	maxSize int64, backups int) *Logger {

	const mb = 1024 * 1024

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    int((maxSize + mb - 1) / mb),
		MaxBackups: backups,
		Compress:   true,
	}

	return &Logger{
		out:        file,
		closer:     file,
		levels:     levels,
		timestamps: true,
	}
}

// Close the logger and its Cc logger
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.lock.Lock()
	closer, cc := l.closer, l.cc
	l.lock.Unlock()

	var err error
	if closer != nil {
		err = closer.Close()
	}

	if err2 := cc.Close(); err == nil {
		err = err2
	}

	return err
}

// Cc sets the logger, where all messages are copied to
// with its own level mask. It returns l
func (l *Logger) Cc(cc *Logger) *Logger {
	l.lock.Lock()
	l.cc = cc
	l.lock.Unlock()
	return l
}

// SetLevels sets mask of enabled levels
func (l *Logger) SetLevels(levels LogLevel) {
	l.lock.Lock()
	l.levels = levels
	l.lock.Unlock()
}

// SetColor enables or disables ANSI colors
func (l *Logger) SetColor(enable bool) {
	l.lock.Lock()
	l.color = enable
	l.lock.Unlock()
}

// Enabled tells if any of the specified levels is enabled,
// either by this logger or by its Cc logger
func (l *Logger) Enabled(level LogLevel) bool {
	if l == nil {
		return false
	}

	l.lock.Lock()
	enabled, cc := l.levels&level != 0, l.cc
	l.lock.Unlock()

	return enabled || cc.Enabled(level)
}

// Begin new log message
func (l *Logger) Begin() *LogMessage {
	msg := logMessagePool.Get().(*LogMessage)
	msg.logger = l
	return msg
}

// Debug writes a LogDebug message
func (l *Logger) Debug(prefix byte, format string, args ...interface{}) {
	l.Begin().Debug(prefix, format, args...).Commit()
}

// Info writes a LogInfo message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Begin().Info(format, args...).Commit()
}

// Error writes a LogError message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Begin().Error(format, args...).Commit()
}

// Dump writes HEX dump with optional title at the specified level.
// If title is not "", it is formatted, as fmt.Printf does, and
// prepended to the dump
func (l *Logger) Dump(level LogLevel, data []byte, title string, args ...interface{}) {
	l.Begin().Dump(level, data, title, args...).Commit()
}

// Format a time prefix
func (l *Logger) fmtTime() {
	l.time.Reset()
	if !l.timestamps {
		return
	}

	now := time.Now()

	year, month, day := now.Date()
	fmt.Fprintf(&l.time, "%2.2d-%2.2d-%4.4d ", day, month, year)

	hour, min, sec := now.Clock()
	fmt.Fprintf(&l.time, "%2.2d:%2.2d:%2.2d", hour, min, sec)

	l.time.WriteString(": ")
}

// LogMessage represents a single (possible multi line) log
// message, which will appear in the output log atomically,
// and will not be interrupted in the middle by other log activity
type LogMessage struct {
	logger *Logger   // Underlying logger
	lines  []logLine // One entry per line
}

// logLine is the single line of the LogMessage
type logLine struct {
	level LogLevel      // Line level
	buf   *bytes.Buffer // Line text
}

// add formats a next line of log message, with level and prefix char
func (msg *LogMessage) add(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {

	buf := logBufAlloc()
	buf.Write([]byte{prefix, ' '})
	fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')
	msg.lines = append(msg.lines, logLine{level, buf})
	return msg
}

// Debug writes a LogDebug message
func (msg *LogMessage) Debug(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.add(LogDebug, prefix, format, args...)
}

// Info writes a LogInfo message
func (msg *LogMessage) Info(format string, args ...interface{}) *LogMessage {
	return msg.add(LogInfo, ' ', format, args...)
}

// Error writes a LogError message
func (msg *LogMessage) Error(format string, args ...interface{}) *LogMessage {
	return msg.add(LogError, '!', format, args...)
}

// Trace writes a line at the specified trace level
func (msg *LogMessage) Trace(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {
	return msg.add(level, prefix, format, args...)
}

// Writer returns io.Writer that appends text to the message at
// the specified level. Text is automatically split into lines
func (msg *LogMessage) Writer(level LogLevel) io.Writer {
	return logWriter{msg, level}
}

// logWriter implements io.Writer on a top of LogMessage
type logWriter struct {
	msg   *LogMessage
	level LogLevel
}

// Write implements io.Writer interface
func (w logWriter) Write(text []byte) (n int, err error) {
	msg := w.msg
	n, err = len(text), nil

	for len(text) > 0 {
		// Fetch next line
		var line []byte

		if l := bytes.IndexByte(text, '\n'); l >= 0 {
			l++
			line = text[:l]
			text = text[l:]
		} else {
			line = text
			text = nil
		}

		// Save the line
		if cnt := len(msg.lines); cnt > 0 &&
			msg.lines[cnt-1].level == w.level &&
			!logBufTerminated(msg.lines[cnt-1].buf) {
			buf := msg.lines[cnt-1].buf
			if buf.Len() == 0 {
				buf.Write([]byte("  "))
			}
			buf.Write(line)
		} else {
			buf := logBufAlloc()
			if len(line) != 0 {
				buf.Write([]byte("  "))
				buf.Write(line)
			}
			msg.lines = append(msg.lines, logLine{w.level, buf})
		}
	}

	return
}

// Dump writes HEX dump with optional title. If title is not "",
// it is formatted, as fmt.Printf does, and prepended to the dump
func (msg *LogMessage) Dump(level LogLevel, data []byte,
	title string, args ...interface{}) *LogMessage {

	if title != "" {
		msg.add(level, ' ', title, args...)
	}

	hex := logBufAlloc()
	chr := logBufAlloc()

	defer logBufFree(hex)
	defer logBufFree(chr)

	off := 0

	for len(data) > 0 {
		hex.Reset()
		chr.Reset()

		sz := len(data)
		if sz > 16 {
			sz = 16
		}

		i := 0
		for ; i < sz; i++ {
			c := data[i]
			fmt.Fprintf(hex, "%2.2x", data[i])
			if i%4 == 3 {
				hex.Write([]byte(":"))
			} else {
				hex.Write([]byte(" "))
			}

			if 0x20 <= c && c < 0x80 {
				chr.WriteByte(c)
			} else {
				chr.WriteByte('.')
			}
		}

		for ; i < 16; i++ {
			hex.WriteString("   ")
		}

		msg.add(level, ' ', "%4.4x: %s %s", off, hex, chr)

		off += sz
		data = data[sz:]
	}

	return msg
}

// Commit message to the log
func (msg *LogMessage) Commit() {
	// Don't forget to free the message
	defer msg.free()

	if len(msg.lines) == 0 {
		return
	}

	for l := msg.logger; l != nil; {
		l = l.write(msg.lines)
	}
}

// write writes lines to the logger output and returns
// the Cc logger
func (l *Logger) write(lines []logLine) *Logger {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.out == nil {
		return l.cc
	}

	l.fmtTime()
	for _, line := range lines {
		if l.levels&line.level == 0 {
			continue
		}

		text := line.buf.Bytes()
		if !logBufTerminated(line.buf) {
			text = append(text[:len(text):len(text)], '\n')
		}

		color := ""
		if l.color {
			color = logColors[line.level]
		}

		l.out.Write(l.time.Bytes())
		if color != "" {
			io.WriteString(l.out, color)
			l.out.Write(text[:len(text)-1])
			io.WriteString(l.out, logColorReset+"\n")
		} else {
			l.out.Write(text)
		}
	}

	return l.cc
}

// Reject the message
func (msg *LogMessage) Reject() {
	msg.free()
}

// Return message to the logMessagePool
func (msg *LogMessage) free() {
	for _, l := range msg.lines {
		logBufFree(l.buf)
	}

	// Reset the message and put it to the pool
	if len(msg.lines) < 16 {
		msg.lines = msg.lines[:0] // Keep memory, reset content
	} else {
		msg.lines = nil
	}

	msg.logger = nil

	logMessagePool.Put(msg)
}

// Check if line buffer is '\n'-terminated
func logBufTerminated(buf *bytes.Buffer) bool {
	if l := buf.Len(); l > 0 {
		return buf.Bytes()[l-1] == '\n'
	}
	return false
}

// Allocate a buffer
func logBufAlloc() *bytes.Buffer {
	return logBufferPool.Get().(*bytes.Buffer)
}

// Free a buffer
func logBufFree(buf *bytes.Buffer) {
	if buf.Cap() <= 256 {
		buf.Reset()
		logBufferPool.Put(buf)
	}
}
