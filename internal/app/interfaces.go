package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/talkincode/botgate/config"
	"github.com/talkincode/botgate/internal/gateway"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// BusProvider provides the in-process event bus used for observer fan-out
type BusProvider interface {
	Bus() EventBus.Bus
}

// RegistryProvider provides the session registry
type RegistryProvider interface {
	Registry() *gateway.Registry
}

// SchedulerProvider provides the cron scheduler
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context.
// Services should depend on specific providers or this combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	BusProvider
	RegistryProvider
	SchedulerProvider

	CrmCache() *CrmCache
	MigrateDB() error
	InitDb()
}
