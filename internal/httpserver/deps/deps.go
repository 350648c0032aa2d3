package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Checkmk/checkmk-sub072/internal/autochecks"
	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/index"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/rules"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AllowedCIDRS []string // clients allowed to call mutating endpoints (empty = all)
	TrustProxy   bool     // resolve client IPs from X-Forwarded-For
	RateBurst    int      // mutating requests per client before throttling
	RatePerMin   int      // refill rate of the mutating request budget

	Fleet             *discovery.Fleet           // reconciliation with host guards
	Autochecks        *autochecks.FileStore      // persisted services
	HostLabels        *autochecks.HostLabelStore // persisted host labels
	Rules             *rules.Provider            // descriptions, parameters, rediscovery, clusters
	MemoryIndex       *index.MemoryIndex         // last summary per host
	RedisClient       *redis.Client              // nil when Redis is disabled
	RediscoverTrigger chan struct{}              // starts a fleet rediscovery
}
