package logging

import (
	"sync"
)

// Entry is one message captured by MemoryLogger.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// MemoryLogger keeps entries in memory. Children created with With share
// the same entry buffer.
type MemoryLogger struct {
	store  *memoryStore
	fields []Field
	level  Level
}

type memoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger returns a MemoryLogger that captures every level.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{store: &memoryStore{}, level: DebugLevel}
}

func (m *MemoryLogger) record(level Level, msg string, fields []Field) {
	if level < m.level {
		return
	}
	fm := fieldMap(m.fields, fields)
	if fm == nil {
		fm = map[string]any{}
	}
	m.store.mu.Lock()
	m.store.entries = append(m.store.entries, Entry{Level: level, Message: msg, Fields: fm})
	m.store.mu.Unlock()
}

func (m *MemoryLogger) Debug(msg string, fields ...Field) { m.record(DebugLevel, msg, fields) }
func (m *MemoryLogger) Info(msg string, fields ...Field)  { m.record(InfoLevel, msg, fields) }
func (m *MemoryLogger) Warn(msg string, fields ...Field)  { m.record(WarnLevel, msg, fields) }
func (m *MemoryLogger) Error(msg string, fields ...Field) { m.record(ErrorLevel, msg, fields) }

func (m *MemoryLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(m.fields)+len(fields))
	merged = append(merged, m.fields...)
	merged = append(merged, fields...)
	return &MemoryLogger{store: m.store, fields: merged, level: m.level}
}

func (m *MemoryLogger) SetLevel(level Level) { m.level = level }
func (m *MemoryLogger) GetLevel() Level      { return m.level }

// Entries returns a copy of everything captured so far.
func (m *MemoryLogger) Entries() []Entry {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := make([]Entry, len(m.store.entries))
	copy(out, m.store.entries)
	return out
}

// AtLevel returns captured entries with exactly the given level.
func (m *MemoryLogger) AtLevel(level Level) []Entry {
	var out []Entry
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
