package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/crm"
	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/gateway"
)

// CrmCache keeps the most recent CRM snapshot so the control plane can
// answer immediately while the cron job refreshes in the background.
type CrmCache struct {
	adapter *crm.Adapter

	mu        sync.RWMutex
	leads     []domain.Lead
	pipelines []domain.Pipeline
	organized map[string][]domain.Lead
	fetchedAt time.Time
}

func NewCrmCache(adapter *crm.Adapter) *CrmCache {
	return &CrmCache{adapter: adapter}
}

// Refresh fetches leads and pipelines and rebuilds the grouped view.
// The adapter never fails, so neither does this.
func (c *CrmCache) Refresh(ctx context.Context) {
	leads := c.adapter.FetchLeads(ctx)
	pipelines := c.adapter.FetchPipelines(ctx)
	organized := crm.OrganizeByStage(leads, pipelines)

	c.mu.Lock()
	c.leads = leads
	c.pipelines = pipelines
	c.organized = organized
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	zap.L().Info("crm: cache refreshed",
		zap.Int("leads", len(leads)), zap.Int("pipelines", len(pipelines)))
}

// Snapshot returns the cached CRM view, refreshing first when empty.
func (c *CrmCache) Snapshot(ctx context.Context) ([]domain.Lead, []domain.Pipeline, map[string][]domain.Lead) {
	c.mu.RLock()
	empty := c.fetchedAt.IsZero()
	c.mu.RUnlock()
	if empty {
		c.Refresh(ctx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leads, c.pipelines, c.organized
}

// Adapter exposes the underlying CRM adapter for direct lookups.
func (c *CrmCache) Adapter() *crm.Adapter { return c.adapter }

func (a *Application) initJob() {
	a.sched = cron.New()

	spec := a.appConfig.Crm.RefreshSpec
	if spec == "" {
		spec = "@every 300s"
	}
	if _, err := a.sched.AddFunc(spec, func() {
		a.crmCache.Refresh(context.Background())
		a.bus.Publish(gateway.TopicOperLog, domain.OperLog{
			Level: "info", Message: "CRM data refreshed",
		})
	}); err != nil {
		zap.L().Error("failed to schedule crm refresh", zap.Error(err))
	}

	// Mirror live session status into the persisted account records so a
	// restarted process knows which sessions to re-create.
	if _, err := a.sched.AddFunc("@every 60s", func() {
		a.sweepAccounts()
	}); err != nil {
		zap.L().Error("failed to schedule account sweep", zap.Error(err))
	}

	a.sched.Start()
}

func (a *Application) sweepAccounts() {
	if a.registry == nil || a.gormDB == nil {
		return
	}
	for _, info := range a.registry.List() {
		updates := map[string]interface{}{"status": string(info.Status)}
		if info.Status == domain.StatusConnected {
			updates["last_online"] = time.Now()
		}
		if err := a.gormDB.Model(&domain.ChatAccount{}).
			Where("id = ?", info.ID).Updates(updates).Error; err != nil {
			zap.L().Warn("account sweep update failed",
				zap.String("session", info.ID), zap.Error(err))
		}
	}
}
