package main

import (
	"context"
	"fmt"
	"io"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/jrsteele09/saas-admin-client/admin"
	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/jrsteele09/saas-admin-client/auth"
	"github.com/jrsteele09/saas-admin-client/billing"
	"github.com/jrsteele09/saas-admin-client/cookie"
	"github.com/jrsteele09/saas-admin-client/files"
	"github.com/jrsteele09/saas-admin-client/guard"
	"github.com/jrsteele09/saas-admin-client/internal/config"
	"github.com/jrsteele09/saas-admin-client/internal/logger"
	"github.com/jrsteele09/saas-admin-client/session"
	"github.com/jrsteele09/saas-admin-client/storage"
	"github.com/jrsteele09/saas-admin-client/storage/filestore"
	"github.com/jrsteele09/saas-admin-client/storage/memstore"
	"github.com/jrsteele09/saas-admin-client/storage/redisstore"
	"github.com/jrsteele09/saas-admin-client/tenants"
	"github.com/jrsteele09/saas-admin-client/users"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// settings is the resolved configuration of one invocation
type settings struct {
	config.Config
	apiURL   string
	storage  string
	dataDir  string
	logLevel string
}

func resolveSettings(c config.Config, flags globalFlags) settings {
	s := settings{
		Config:   c,
		apiURL:   c.GetAPIURL(),
		storage:  c.GetStorageBackend(),
		dataDir:  c.GetDataFolder(),
		logLevel: c.GetLogLevel(),
	}
	if flags.apiURL != "" {
		s.apiURL = flags.apiURL
	}
	if flags.storage != "" {
		s.storage = flags.storage
	}
	if flags.dataDir != "" {
		s.dataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		s.logLevel = flags.logLevel
	}
	return s
}

// app is the client stack of one invocation
type app struct {
	settings settings
	out      io.Writer
	logger   zerolog.Logger

	redis  *redis.Client
	tenant *tenants.Context
	mirror cookie.Mirror
	store  *session.Store
	client *apiclient.Client
	rules  guard.Rules

	auth    *auth.Service
	users   *users.Service
	tenants *tenants.Service
	billing *billing.Service
	files   *files.Service
	admin   *admin.Service
}

func newApp(ctx context.Context, s settings, stdout, stderr io.Writer) (*app, error) {
	a := &app{
		settings: s,
		out:      stdout,
		logger:   logger.NewWithWriter(stderr, s.logLevel, s.GetEnv()),
		rules:    guard.RulesFromConfig(s),
	}

	persister, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	appURL, err := url.Parse(s.GetAppURL())
	if err != nil {
		return nil, fmt.Errorf("[saasctl] invalid app url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	a.mirror = cookie.NewJarMirror(appURL, jar)

	a.tenant = tenants.NewContext(persister,
		tenants.WithStorageName(s.GetCompanyStorageName()),
		tenants.WithLogger(a.logger),
	)
	a.store, err = session.New(persister, a.mirror,
		session.WithTenantContext(a.tenant),
		session.WithStorageName(s.GetAuthStorageName()),
		session.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	if err := a.tenant.Rehydrate(ctx); err != nil {
		return nil, err
	}
	if err := a.store.Rehydrate(ctx); err != nil {
		return nil, err
	}

	a.client, err = apiclient.New(s.apiURL, a.store,
		apiclient.WithTenantContext(a.tenant),
		apiclient.WithTimeout(s.GetRequestTimeout()),
		apiclient.WithRefreshTimeout(s.GetRefreshTimeout()),
		apiclient.WithUserAgent(s.GetUserAgent()),
		apiclient.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	if a.auth, err = auth.NewService(a.client, a.store, auth.WithLogger(a.logger)); err != nil {
		return nil, err
	}
	if a.users, err = users.NewService(a.client, a.store); err != nil {
		return nil, err
	}
	if a.tenants, err = tenants.NewService(a.client, a.tenant); err != nil {
		return nil, err
	}
	if a.billing, err = billing.NewService(a.client); err != nil {
		return nil, err
	}
	if a.files, err = files.NewService(a.client); err != nil {
		return nil, err
	}
	if a.admin, err = admin.NewService(a.client); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (storage.Persister, error) {
	switch a.settings.storage {
	case "memory":
		return memstore.New(), nil
	case "redis":
		client, err := redisstore.Dial(ctx, a.settings.GetRedisAddr(), a.settings.GetRedisPassword(), a.settings.GetRedisDB())
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisstore.New(client, a.settings.GetRedisPrefix(), redisstore.WithTTL(30*24*time.Hour)), nil
	case "file", "":
		return filestore.New(a.settings.dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.settings.storage)
	}
}

// close flushes pending session writes before the process exits
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := a.store.Close(ctx)
	if tenantErr := a.tenant.Close(ctx); err == nil {
		err = tenantErr
	}
	if a.redis != nil {
		if redisErr := a.redis.Close(); err == nil {
			err = redisErr
		}
	}
	return err
}
