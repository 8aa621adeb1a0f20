// Package export turns a completed analysis into a downloadable PDF report.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/apperr"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/session"
)

// ExportTimeout bounds a single report generation round-trip.
const ExportTimeout = 120 * time.Second

// SaveFunc persists generated PDF bytes under the given filename.
type SaveFunc func(filename string, data []byte) error

// Orchestrator drives report generation off the controller's last
// successful analysis. At most one export runs at a time.
type Orchestrator struct {
	engine     analysis.Engine
	controller *session.Controller
	save       SaveFunc
	logger     logging.Logger
	timeout    time.Duration

	mu   sync.Mutex
	busy bool
}

// NewOrchestrator creates an export orchestrator saving into downloadsDir.
// Pass a custom save function via SetSave to redirect output.
func NewOrchestrator(engine analysis.Engine, controller *session.Controller, downloadsDir string, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		engine:     engine,
		controller: controller,
		save:       dirSaver(downloadsDir),
		logger:     logger,
		timeout:    ExportTimeout,
	}
}

// SetSave replaces the save destination.
func (o *Orchestrator) SetSave(save SaveFunc) { o.save = save }

// SetTimeout overrides the report generation timeout.
func (o *Orchestrator) SetTimeout(d time.Duration) { o.timeout = d }

// Busy reports whether an export is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Export generates a PDF report for the last successful analysis and saves
// it. It fails before any network activity when no analysis result is
// cached or when an export is already running. The busy flag clears on
// every exit path.
func (o *Orchestrator) Export(ctx context.Context) (filename string, data []byte, err error) {
	doc, identifier, ok := o.controller.LastSuccess()
	if !ok {
		return "", nil, apperr.ErrNoAnalysis
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return "", nil, apperr.ErrBusy
	}
	o.busy = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	o.logger.Info("generating report", logging.String("url", identifier))
	data, err = o.engine.GenerateReport(ctx, identifier, doc)
	if err != nil {
		o.logger.Error("report generation failed", logging.String("url", identifier), logging.Error(err))
		return "", nil, err
	}

	filename = ReportFilename(identifier)
	if o.save != nil {
		if err := o.save(filename, data); err != nil {
			o.logger.Error("could not save report", logging.String("filename", filename), logging.Error(err))
			return "", nil, err
		}
	}

	o.logger.Info("report saved", logging.String("filename", filename), logging.Int("bytes", len(data)))
	return filename, data, nil
}

var (
	schemePrefix = regexp.MustCompile(`^(https?://)?(www\.)?`)
)

// ReportFilename derives the download filename from the analyzed URL: the
// scheme and a leading www. are stripped, every slash becomes an
// underscore, and the report suffix is appended.
func ReportFilename(identifier string) string {
	base := schemePrefix.ReplaceAllString(identifier, "")
	base = strings.ReplaceAll(base, "/", "_")
	return base + "_analysis_report.pdf"
}

// dirSaver writes reports into dir with a temp-file then rename, so a
// half-written PDF never lands under the final name.
func dirSaver(dir string) SaveFunc {
	return func(filename string, data []byte) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating downloads dir: %w", err)
		}
		target := filepath.Join(dir, filename)
		tmp := target + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		if err := os.Rename(tmp, target); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("saving report: %w", err)
		}
		return nil
	}
}
