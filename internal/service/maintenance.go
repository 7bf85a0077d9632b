package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bankassist/banking-agent/internal/bank"
	"github.com/bankassist/banking-agent/internal/config"
	"github.com/bankassist/banking-agent/internal/rag"
	"github.com/bankassist/banking-agent/pkg/file"
	"github.com/bankassist/banking-agent/pkg/icron"
	"github.com/bankassist/banking-agent/pkg/log"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

type conversationExpirer interface {
	DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceService runs the periodic housekeeping pass: expiring idle
// conversations and rebuilding the retrieval index when corpus files change.
type MaintenanceService struct {
	cronExpr  string
	cron      *cron.Cron
	store     conversationExpirer
	retriever *rag.Retriever
	dataDir   string
	ttl       time.Duration

	mu        sync.Mutex
	lastCheck time.Time
}

func NewMaintenanceService(
	cfg config.Config,
	store conversationExpirer,
	retriever *rag.Retriever,
	c *cron.Cron,
) *MaintenanceService {
	return &MaintenanceService{
		cronExpr:  cfg.Maintenance.CronExpr,
		cron:      c,
		store:     store,
		retriever: retriever,
		dataDir:   cfg.Data.Dir,
		ttl:       time.Duration(cfg.Maintenance.ConversationTTLMin) * time.Minute,
		lastCheck: time.Now(),
	}
}

var maintenanceGroup singleflight.Group

// Schedule registers the maintenance pass on the cron schedule. Overlapping
// fires collapse into one run.
func (s *MaintenanceService) Schedule(ctx context.Context) error {
	log.Info("Scheduling maintenance on %q", s.cronExpr)

	runFunc := func() {
		_, _, _ = maintenanceGroup.Do("maintenance", func() (any, error) {
			s.run(ctx)
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

// TriggerInfo reports the schedule's last and next firing times.
func (s *MaintenanceService) TriggerInfo() (*icron.TriggerInfo, error) {
	return icron.GetTriggerInfo(s.cronExpr, time.Now())
}

func (s *MaintenanceService) run(ctx context.Context) {
	now := time.Now()

	if s.store != nil && s.ttl > 0 {
		removed, err := s.store.DeleteConversationsBefore(ctx, now.Add(-s.ttl))
		if err != nil {
			log.Error("Failed to expire conversations: %v", err)
		} else if removed > 0 {
			log.Info("Expired %d idle conversations", removed)
		}
	}

	s.maybeReindex(ctx, now)
}

// maybeReindex rebuilds the retrieval index when a corpus file changed since
// the last successful check.
func (s *MaintenanceService) maybeReindex(ctx context.Context, now time.Time) {
	if s.retriever == nil || s.dataDir == "" {
		return
	}
	s.mu.Lock()
	since := s.lastCheck
	s.mu.Unlock()

	recent, err := file.FindRecentAfter(s.dataDir, since)
	if err != nil {
		log.Error("Failed to scan data dir %s: %v", s.dataDir, err)
		return
	}
	changed := corpusFiles(recent)
	if len(changed) == 0 {
		return
	}

	log.Info("Corpus changed (%d files), rebuilding retrieval index", len(changed))
	if err := s.retriever.Build(ctx); err != nil {
		log.Error("Failed to rebuild retrieval index: %v", err)
		return
	}
	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()
}

// corpusFiles filters a recent-files listing down to the retrieval corpus:
// the branch directory plus every .txt and .md document the retriever
// indexes. The SQLite database lives in the same directory and churns
// constantly.
func corpusFiles(paths []string) []string {
	var ret []string
	for _, p := range paths {
		if filepath.Base(p) == bank.BranchDataFile {
			ret = append(ret, p)
			continue
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt", ".md":
			ret = append(ret, p)
		}
	}
	return ret
}
