package actions

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/gemtracker/src/actions/core"
	apimodule "github.com/stake-plus/gemtracker/src/actions/api"
	trackingmodule "github.com/stake-plus/gemtracker/src/actions/tracking"
	sharedconfig "github.com/stake-plus/gemtracker/src/config"
	shareddata "github.com/stake-plus/gemtracker/src/data"
	"gorm.io/gorm"
)

// Manager is the module manager returned by StartAll.
type Manager = core.Manager

// StartAll wires up enabled action modules and starts the manager.
func StartAll(ctx context.Context, db *gorm.DB) (*Manager, error) {
	mgr := core.NewManager()

	trackingCfg := sharedconfig.LoadTrackingConfig(db)
	rdb := connectRedis(ctx, trackingCfg.Base.RedisURL)

	if trackingCfg.Enabled {
		mod, err := trackingmodule.NewModule(&trackingCfg, db, rdb)
		if err != nil {
			return nil, fmt.Errorf("actions: init tracking module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add tracking module: %w", err)
		}
	} else {
		log.Printf("actions: tracking module disabled via configuration")
	}

	apiCfg := sharedconfig.LoadAPIConfig()
	if apiCfg.Enabled {
		mod, err := apimodule.NewModule(apiCfg, db)
		if err != nil {
			return nil, fmt.Errorf("actions: init api module: %w", err)
		}
		if err := mgr.Add(mod); err != nil {
			return nil, fmt.Errorf("actions: add api module: %w", err)
		}
	} else {
		log.Printf("actions: api module disabled via configuration")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	return mgr, nil
}

// connectRedis returns nil when Redis is not configured or not reachable; the Redis
// backed features are optional.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Printf("actions: redis not configured, catalog cache and outcome stream disabled")
		return nil
	}
	rdb, err := shareddata.ConnectRedis(ctx, url)
	if err != nil {
		log.Printf("actions: %v; continuing without redis", err)
		return nil
	}
	return rdb
}
