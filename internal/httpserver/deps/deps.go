package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/bookmark"
	"github.com/MrSnakeDoc/gitmark/internal/credential"
	"github.com/MrSnakeDoc/gitmark/internal/github"
	"github.com/MrSnakeDoc/gitmark/internal/importer"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/session"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	BaseContext    context.Context  // parent of background work (imports), cancelled on shutdown
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // IPs allowed to access healthz/readyz/infra endpoints
	AllowedOrigins []string         // CORS origins
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SearchBurst    int              // search rate limit burst per client
	SearchPerMin   int              // search rate limit refill per client and minute
	MaxUploadBytes int64            // cap on an imported CSV body

	StorageKind string             // "memory" | "redis" | "sqlite"
	Backend     storage.Backend    // persistence of accounts, identity and bookmarks
	RedisClient *redis.Client      // nil unless redis is configured
	Credentials *credential.Store  // registered accounts
	Session     *session.Holder    // active identity
	Bookmarks   *bookmark.Store    // bookmarks of the active identity
	Importer    *importer.Importer // CSV import runs
	GitHub      *github.Client     // search endpoints
	Lookup      github.Lookup      // single repository lookups, possibly cached
}
