package services

import (
	"context"
	"errors"
	"log"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/models"

	"github.com/gofrs/uuid"
)

const dashboardKeyPattern = "dashboard:*"

// CachedTaskService serves dashboards from cache and drops every cached
// dashboard when a task changes. The global dashboard is then rebuilt on the
// worker pool so the next admin request is a hit.
type CachedTaskService struct {
	TaskService
	dashboards *DashboardServiceImpl
	cache      cache.Cache
	pool       *cache.WorkerPool
	ttl        time.Duration
}

func NewCachedTaskService(tasks TaskService, dashboards *DashboardServiceImpl, c cache.Cache, pool *cache.WorkerPool, ttl time.Duration) *CachedTaskService {
	return &CachedTaskService{
		TaskService: tasks,
		dashboards:  dashboards,
		cache:       c,
		pool:        pool,
		ttl:         ttl,
	}
}

func (s *CachedTaskService) GlobalDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error) {
	if err := authorizeGlobalDashboard(s.dashboards.policy, caller); err != nil {
		return nil, err
	}
	return s.Summary(ctx, GlobalScope())
}

func (s *CachedTaskService) UserDashboard(ctx context.Context, caller auth.Identity) (*Dashboard, error) {
	return s.Summary(ctx, UserScope(caller.UserID))
}

// Summary reads through the cache. Cache failures fall back to the store.
func (s *CachedTaskService) Summary(ctx context.Context, scope DashboardScope) (*Dashboard, error) {
	key := scope.CacheKey()

	var cached Dashboard
	err := s.cache.Get(key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("⚠️  Dashboard cache read failed for %s: %v", key, err)
	}

	dashboard, err := s.dashboards.Summary(ctx, scope)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, dashboard, s.ttl); err != nil {
		log.Printf("⚠️  Dashboard cache write failed for %s: %v", key, err)
	}
	return dashboard, nil
}

// WarmupJob rebuilds the dashboard for scope on a pool worker.
func (s *CachedTaskService) WarmupJob(scope DashboardScope) cache.WarmupJob {
	return cache.WarmupJob{
		Key: scope.CacheKey(),
		TTL: s.ttl,
		Load: func(ctx context.Context) (interface{}, error) {
			return s.dashboards.Summary(ctx, scope)
		},
	}
}

func (s *CachedTaskService) invalidate() {
	if err := s.cache.DeletePattern(dashboardKeyPattern); err != nil {
		log.Printf("⚠️  Failed to invalidate dashboards: %v", err)
	}
	if s.pool != nil {
		s.pool.SubmitJob(s.WarmupJob(GlobalScope()))
	}
}

func (s *CachedTaskService) CreateTask(ctx context.Context, caller auth.Identity, input TaskInput) (*TaskView, error) {
	view, err := s.TaskService.CreateTask(ctx, caller, input)
	if err == nil {
		s.invalidate()
	}
	return view, err
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, caller auth.Identity, id uuid.UUID, update TaskUpdate) (*TaskView, error) {
	view, err := s.TaskService.UpdateTask(ctx, caller, id, update)
	if err == nil {
		s.invalidate()
	}
	return view, err
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	err := s.TaskService.DeleteTask(ctx, caller, id)
	if err == nil {
		s.invalidate()
	}
	return err
}

func (s *CachedTaskService) UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status string) (*TaskView, error) {
	view, err := s.TaskService.UpdateStatus(ctx, caller, id, status)
	if err == nil {
		s.invalidate()
	}
	return view, err
}

func (s *CachedTaskService) UpdateChecklist(ctx context.Context, caller auth.Identity, id uuid.UUID, checklist models.Checklist) (*TaskView, error) {
	view, err := s.TaskService.UpdateChecklist(ctx, caller, id, checklist)
	if err == nil {
		s.invalidate()
	}
	return view, err
}

// ClearDashboards drops every cached dashboard without rebuilding any.
func (s *CachedTaskService) ClearDashboards() error {
	return s.cache.DeletePattern(dashboardKeyPattern)
}

// WarmGlobalDashboard queues a rebuild of the global dashboard. It reports
// false when there is no running pool or its queue is full.
func (s *CachedTaskService) WarmGlobalDashboard() bool {
	if s.pool == nil {
		return false
	}
	return s.pool.SubmitJob(s.WarmupJob(GlobalScope()))
}

func (s *CachedTaskService) CacheStats() map[string]interface{} {
	stats := map[string]interface{}{
		"cache": s.cache.Stats(),
		"ttl":   s.ttl.String(),
	}
	if s.pool != nil {
		stats["worker_pool"] = s.pool.GetStats()
	}
	return stats
}
