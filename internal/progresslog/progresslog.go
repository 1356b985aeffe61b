// Package progresslog maintains render.log, the append-only CSV record of
// completed frames.
//
// Each line is written and fsynced before the session counter advances, so
// the log never lags behind the session file. The command column is the
// renderer argv joined with spaces; commas and line breaks are replaced so
// every row keeps exactly four columns.
package progresslog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FileName is the log file inside a render directory.
const FileName = "render.log"

// Header is the first line of every log.
const Header = "frame,zoom_level,time_seconds,command"

// Entry is one completed frame.
type Entry struct {
	Frame     int
	ZoomLevel float64
	Elapsed   time.Duration
	Command   string
}

var commandReplacer = strings.NewReplacer(",", ";", "\r\n", " ", "\n", " ", "\r", " ")

// EscapeCommand joins argv for the command column.
func EscapeCommand(argv []string) string {
	return commandReplacer.Replace(strings.Join(argv, " "))
}

// Line renders e without a trailing newline.
func (e Entry) Line() string {
	return fmt.Sprintf("%d,%.6f,%.6f,%s", e.Frame, e.ZoomLevel, e.Elapsed.Seconds(), commandReplacer.Replace(e.Command))
}

// Writer appends entries to a log file.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens path for appending, writing the header when the file is new or
// empty.
func Open(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat progress log: %w", err)
	}
	w := &Writer{path: path, file: file}
	if info.Size() == 0 {
		if err := w.writeLine(Header); err != nil {
			file.Close()
			return nil, err
		}
	}
	return w, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one entry and syncs it to disk.
func (w *Writer) Append(e Entry) error {
	return w.writeLine(e.Line())
}

func (w *Writer) writeLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return errors.New("progress log closed")
	}
	if _, err := w.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write progress log: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync progress log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Read parses a progress log. A missing file yields no entries. Header lines
// and a torn final line are skipped.
func Read(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	var pending error
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == Header {
			continue
		}
		if pending != nil {
			return entries, pending
		}
		entry, err := parseLine(line)
		if err != nil {
			pending = fmt.Errorf("progress log line %d: %w", lineNo, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read progress log: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	parts := strings.SplitN(line, ",", 4)
	if len(parts) != 4 {
		return Entry{}, fmt.Errorf("expected 4 columns, got %d", len(parts))
	}
	frame, err := strconv.Atoi(parts[0])
	if err != nil {
		return Entry{}, fmt.Errorf("frame: %w", err)
	}
	zoom, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("zoom_level: %w", err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("time_seconds: %w", err)
	}
	return Entry{
		Frame:     frame,
		ZoomLevel: zoom,
		Elapsed:   time.Duration(seconds * float64(time.Second)),
		Command:   parts[3],
	}, nil
}
