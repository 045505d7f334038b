package dependency

import (
	"context"
	"database/sql"
	"time"

	"mentoring-svc/src/clients"
	"mentoring-svc/src/internal/activity"
	"mentoring-svc/src/internal/auth"
	"mentoring-svc/src/internal/cache"
	"mentoring-svc/src/internal/calendar"
	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/credential"
	"mentoring-svc/src/internal/dashboard"
	"mentoring-svc/src/internal/database"
	"mentoring-svc/src/internal/expertise"
	"mentoring-svc/src/internal/meeting"
	"mentoring-svc/src/internal/middleware"
	"mentoring-svc/src/internal/notification"
	"mentoring-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Manager struct {
	Router *gin.Engine
	Config *config.Configuration

	DB       *sql.DB
	Mongodb  *clients.MongoDB
	Redis    *clients.RedisClient
	RabbitMQ *clients.RabbitMQ

	CredentialService credential.Service
	SessionService    session.Service
	MeetingService    meeting.Service
	ExpertiseService  expertise.Service
	CalendarService   calendar.Service
	ActivityService   activity.Service
	CacheService      cache.Service

	AuthHandler       auth.Handler
	CredentialHandler credential.Handler
	DashboardHandler  dashboard.Handler
	MeetingHandler    meeting.Handler
	ExpertiseHandler  expertise.Handler
	CalendarHandler   calendar.Handler
	ActivityHandler   activity.Handler

	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencyManager opens the store and wires every service and handler.
// Redis, MongoDB, RabbitMQ and the identity provider are optional: when a URL is
// empty or the connection fails the matching no-op stands in.
func NewDependencyManager(router *gin.Engine, cfg *config.Configuration) (*Manager, error) {
	db, err := database.Open(cfg.Storage.SqlitePath)
	if err != nil {
		return nil, err
	}
	if err := database.RunSqliteMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m := &Manager{Router: router, Config: cfg, DB: db}
	timeout := cfg.RequestTimeout()

	m.CacheService = m.connectCache()
	publisher := m.connectQueue()
	activityRepo := m.connectActivityStore()

	m.CredentialService = credential.NewService(credential.NewRepository(db), credential.DefaultCost)
	m.SessionService = session.NewService(session.NewRepository(db), m.CacheService, session.Options{
		Lifetime:   cfg.SessionLifetime(),
		TokenBytes: cfg.Session.TokenBytes,
	})
	m.MeetingService = meeting.NewService(meeting.NewRepository(db), publisher, m.CredentialService, meeting.Options{
		ShowExpired: cfg.App.ShowExpired,
	})
	m.ExpertiseService = expertise.NewService(expertise.NewRepository(db))
	m.CalendarService = calendar.NewService(m.MeetingService, calendar.Options{
		MailDomain:     cfg.Calendar.MailDomain,
		MeetingBaseURL: cfg.Calendar.MeetingBaseURL,
		LegacyOffset:   time.Duration(cfg.Calendar.LegacyOffsetHours) * time.Hour,
		SigningKey:     []byte(cfg.Security.JwtKey),
		TokenTTL:       time.Duration(cfg.Calendar.FeedTokenDays) * 24 * time.Hour,
	})
	m.ActivityService = activity.NewService(activityRepo)

	if err := m.syncSubjects(); err != nil {
		m.Close(context.Background())
		return nil, err
	}

	cookie := middleware.CookieSettings{
		Name:     cfg.Session.CookieName,
		Secure:   cfg.Security.SecureCookies,
		Lifetime: cfg.SessionLifetime(),
	}

	m.AuthHandler = auth.NewHandler(m.CredentialService, m.SessionService, m.identityProvider(),
		m.ActivityService, cookie, timeout)
	m.CredentialHandler = credential.NewHandler(m.CredentialService, timeout)
	m.MeetingHandler = meeting.NewHandler(m.MeetingService, m.ExpertiseService, m.ActivityService, cfg.Location(), timeout)
	m.ExpertiseHandler = expertise.NewHandler(m.ExpertiseService, m.ActivityService, timeout)
	m.DashboardHandler = dashboard.NewHandler(m.CredentialService, m.MeetingService, m.ExpertiseService,
		m.MeetingHandler, m.ExpertiseHandler, timeout)
	m.CalendarHandler = calendar.NewHandler(m.CalendarService, cfg.App.HostLink, timeout)
	m.ActivityHandler = activity.NewHandler(m.ActivityService, timeout)

	m.AuthMiddleware = middleware.NewAuthMiddleware(m.SessionService, cfg, cfg.Session.CookieName, timeout)

	return m, nil
}

func (m *Manager) connectCache() cache.Service {
	if m.Config.Redis.Url == "" {
		logrus.Info("Redis not configured, session cache disabled")
		return cache.NewNoop()
	}
	redisClient, err := clients.NewRedis(&m.Config.Redis)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, session cache disabled")
		return cache.NewNoop()
	}
	m.Redis = redisClient
	return cache.NewCacheService(redisClient.Client, m.Config)
}

func (m *Manager) connectQueue() notification.Publisher {
	rabbitCfg := &m.Config.Queue.RabbitMQ
	if rabbitCfg.Url == "" {
		logrus.Info("RabbitMQ not configured, notifications disabled")
		return notification.NewNoop()
	}
	rabbit, err := clients.NewRabbitMQ(rabbitCfg)
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, notifications disabled")
		return notification.NewNoop()
	}
	if err := rabbit.SetupExchange(); err != nil {
		logrus.WithError(err).Warn("Failed to declare exchange, notifications disabled")
		_ = rabbit.Close()
		return notification.NewNoop()
	}
	m.RabbitMQ = rabbit
	return notification.NewPublisher(rabbit.Channel, rabbitCfg)
}

func (m *Manager) connectActivityStore() activity.Repository {
	if m.Config.Database.Url == "" {
		logrus.Info("MongoDB not configured, activity log disabled")
		return activity.NewNoopRepository()
	}
	mongodb, err := clients.NewMongoDB(&m.Config.Database)
	if err != nil {
		logrus.WithError(err).Warn("MongoDB unavailable, activity log disabled")
		return activity.NewNoopRepository()
	}
	m.Mongodb = mongodb
	return activity.NewRepository(mongodb.Database.Collection(m.Config.Database.ActivityCollection))
}

// identityProvider returns nil when external login is off, so callers can test for it.
func (m *Manager) identityProvider() auth.IdentityProvider {
	if m.Config.Identity.Url == "" {
		return nil
	}
	client, err := clients.NewIdentityClient(&m.Config.Identity)
	if err != nil {
		logrus.WithError(err).Warn("External login disabled")
		return nil
	}
	return client
}

func (m *Manager) syncSubjects() error {
	if len(m.Config.Subjects) == 0 {
		return nil
	}
	subjects := make([]expertise.Subject, 0, len(m.Config.Subjects))
	for _, s := range m.Config.Subjects {
		subjects = append(subjects, expertise.Subject{ID: s.ID, Name: s.Name})
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.Config.RequestTimeout())
	defer cancel()
	return m.ExpertiseService.SyncCatalog(ctx, subjects)
}

// Close releases every connection the manager opened.
func (m *Manager) Close(ctx context.Context) {
	if m.RabbitMQ != nil {
		if err := m.RabbitMQ.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing RabbitMQ")
		}
	}
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing Redis")
		}
	}
	if m.Mongodb != nil {
		if err := m.Mongodb.Close(ctx); err != nil {
			logrus.WithError(err).Warn("Error closing MongoDB")
		}
	}
	if m.DB != nil {
		if err := m.DB.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing database")
		}
	}
}
