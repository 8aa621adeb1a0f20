// Package stats keeps monthly usage counters for the dashboard and persists
// them to disk. Writes are debounced through a background writer so request
// handlers never block on the filesystem.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/webinsight/dashboard/logging"
)

// MonthlyStats holds the counters for one month.
type MonthlyStats struct {
	Analyses    int       `json:"analyses"`
	Articles    int       `json:"articles"`
	Rewrites    int       `json:"rewrites"`
	Exports     int       `json:"exports"`
	Errors      int       `json:"errors"`
	LastUpdated time.Time `json:"last_updated"`
}

// Storage accumulates usage counters keyed by "YYYY-MM" and flushes them to
// stats.json under the data directory.
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats
	filePath    string
	writeBuffer chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	logger      logging.Logger
}

// writeDelay batches bursts of counter updates into one file write.
const writeDelay = 30 * time.Second

// NewStorage opens (or creates) the statistics store under dataDir.
func NewStorage(dataDir string, logger logging.Logger) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		logger:      logger,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.stats)
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Temp file then rename, so a crash mid-write cannot corrupt the store.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// backgroundWriter coalesces write requests: one save per delay window no
// matter how many counters changed.
func (s *Storage) backgroundWriter() {
	for {
		select {
		case <-s.writeBuffer:
		case <-s.done:
			return
		}
		select {
		case <-time.After(writeDelay):
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("could not persist statistics", logging.Error(err))
		}
	}
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

func monthKey() string {
	return time.Now().Format("2006-01")
}

func (s *Storage) current() *MonthlyStats {
	key := monthKey()
	m, ok := s.stats[key]
	if !ok {
		m = &MonthlyStats{}
		s.stats[key] = m
	}
	return m
}

func (s *Storage) record(update func(*MonthlyStats)) {
	s.mutex.Lock()
	m := s.current()
	update(m)
	m.LastUpdated = time.Now()
	s.mutex.Unlock()
	s.requestWrite()
}

// RecordAnalysis counts one website analysis; failed requests also bump the
// error counter.
func (s *Storage) RecordAnalysis(failed bool) {
	s.record(func(m *MonthlyStats) {
		m.Analyses++
		if failed {
			m.Errors++
		}
	})
}

// RecordArticle counts one article analysis.
func (s *Storage) RecordArticle(failed bool) {
	s.record(func(m *MonthlyStats) {
		m.Articles++
		if failed {
			m.Errors++
		}
	})
}

// RecordRewrite counts one article rewrite.
func (s *Storage) RecordRewrite(failed bool) {
	s.record(func(m *MonthlyStats) {
		m.Rewrites++
		if failed {
			m.Errors++
		}
	})
}

// RecordExport counts one report export.
func (s *Storage) RecordExport(failed bool) {
	s.record(func(m *MonthlyStats) {
		m.Exports++
		if failed {
			m.Errors++
		}
	})
}

// Snapshot returns a copy of all monthly counters, newest month first.
func (s *Storage) Snapshot() []MonthSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]MonthSnapshot, 0, len(s.stats))
	for month, m := range s.stats {
		out = append(out, MonthSnapshot{Month: month, MonthlyStats: *m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// MonthSnapshot pairs a month key with its counters.
type MonthSnapshot struct {
	Month string `json:"month"`
	MonthlyStats
}

// Flush forces a synchronous save. Used on shutdown.
func (s *Storage) Flush() error {
	return s.save()
}

// Close stops the background writer and flushes pending counters. Safe to
// call more than once.
func (s *Storage) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.save()
}
