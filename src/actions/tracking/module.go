package tracking

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/gemtracker/src/actions/core"
	sharedconfig "github.com/stake-plus/gemtracker/src/config"
	shareddiscord "github.com/stake-plus/gemtracker/src/discord"
	"github.com/stake-plus/gemtracker/src/shared/catalog"
	"github.com/stake-plus/gemtracker/src/shared/events"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
	"gorm.io/gorm"
)

var _ core.Module = (*Module)(nil)

const commandTimeout = 45 * time.Second

// Module runs the Discord side of the watch-list: slash commands, polls and the
// reconciliation loop.
type Module struct {
	config     *sharedconfig.TrackingConfig
	session    *discordgo.Session
	handler    *Handler
	reconciler *sharedtracking.Reconciler

	runtimeCtx context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewModule wires the module. rdb may be nil, which turns off the catalog cache, the
// outcome stream and the cross-process reconcile lock.
func NewModule(cfg *sharedconfig.TrackingConfig, db *gorm.DB, rdb *redis.Client) (*Module, error) {
	if cfg.Base.Token == "" {
		return nil, fmt.Errorf("tracking: discord token is not configured")
	}

	session, err := discordgo.New("Bot " + cfg.Base.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentGuildMessagePolls |
		discordgo.IntentDirectMessagePolls

	host := NewDiscordHost(session)

	var (
		publisher sharedtracking.OutcomePublisher
		lease     sharedtracking.TickLease
		cacheTTL  time.Duration
	)
	if rdb != nil {
		publisher = events.NewRedisPublisher(rdb)
		lease = events.NewRedisLease(rdb)
		cacheTTL = cfg.CatalogCacheTTL
	}
	source := catalog.NewCachedSource(catalog.NewHTTPSource(cfg.CatalogURL), rdb, cacheTTL)

	watchlist := sharedtracking.NewWatchlistManager(db)
	proposals := sharedtracking.NewProposalManager(db)
	lifecycle := sharedtracking.NewLifecycle(db, host, publisher)

	module := &Module{
		config:  cfg,
		session: session,
		handler: &Handler{
			Service:     sharedtracking.NewService(source, watchlist, proposals, host, cfg.PollDuration),
			TrackRoleID: cfg.TrackRoleID,
		},
		reconciler: sharedtracking.NewReconciler(proposals, host, lifecycle, sharedtracking.ReconcilerConfig{
			Interval:      cfg.PollWatchInterval,
			Lease:         lease,
			LeaseRequired: cfg.LeaseRequired,
		}),
	}

	module.initHandlers()
	return module, nil
}

// Name implements actions.Module.
func (m *Module) Name() string { return "tracking" }

func (m *Module) initHandlers() {
	m.session.AddHandler(m.onReady)
	m.session.AddHandler(m.onInteractionCreate)
}

func (m *Module) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("tracking: logged in as %s", s.State.User.Username)

	if err := shareddiscord.RegisterSlashCommands(s, m.config.Base.GuildID); err != nil {
		log.Printf("tracking: failed to register slash commands: %v", err)
	} else {
		log.Printf("tracking: slash commands registered")
	}
}

func (m *Module) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	if name != shareddiscord.CommandTrack && name != shareddiscord.CommandPollTrack {
		return
	}

	if err := shareddiscord.DeferResponse(s, i.Interaction, false); err != nil {
		log.Printf("tracking: failed to acknowledge interaction: %v", err)
		return
	}

	parent := m.runtimeCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	reply := m.handler.Execute(ctx, parseRequest(i.Interaction))
	if err := shareddiscord.EditResponse(s, i.Interaction, reply); err != nil {
		log.Printf("tracking: failed to send reply: %v", err)
	}
}

func (m *Module) Start(ctx context.Context) error {
	runtimeCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.runtimeCtx = runtimeCtx

	if err := m.session.Open(); err != nil {
		cancel()
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reconciler.Run(runtimeCtx)
	}()

	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	if m.session != nil {
		if err := m.session.Close(); err != nil {
			log.Printf("tracking: closing Discord session: %v", err)
		}
	}
}
