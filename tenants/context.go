package tenants

import (
	"context"
	"sync"

	"github.com/jrsteele09/saas-admin-client/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultStorageName = "company-storage"

// State is the persisted company context
type State struct {
	CurrentCompanyID string   `json:"currentCompanyId,omitempty"`
	CurrentCompany   *Company `json:"currentCompany,omitempty"`
}

// Context tracks which company the signed-in user is acting for. The API client
// reads it to scope requests with the X-Company-Id header.
type Context struct {
	state       State
	lock        sync.RWMutex
	persister   storage.Persister
	writer      *storage.Writer
	storageName string
	logger      zerolog.Logger
}

// ContextOption defines a function type to modify the Context instance.
type ContextOption func(*Context)

func WithStorageName(name string) ContextOption {
	return func(c *Context) {
		c.storageName = name
	}
}

func WithLogger(logger zerolog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// NewContext creates an empty company context. A nil persister keeps the
// context in memory only.
func NewContext(persister storage.Persister, options ...ContextOption) *Context {
	c := &Context{
		persister:   persister,
		storageName: defaultStorageName,
		logger:      log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if persister != nil {
		c.writer = storage.NewWriter(persister, storage.WithWriterLogger(c.logger))
	}
	return c
}

// Rehydrate loads the persisted company context
func (c *Context) Rehydrate(ctx context.Context) error {
	if c.persister == nil {
		return nil
	}
	var loaded State
	found, err := c.persister.Load(ctx, c.storageName, &loaded)
	if err != nil || !found {
		return err
	}

	c.lock.Lock()
	c.state = loaded
	c.lock.Unlock()
	return nil
}

func (c *Context) SetCurrentCompany(company *Company) {
	if company == nil {
		c.Clear()
		return
	}
	copied := *company

	c.lock.Lock()
	c.state = State{CurrentCompanyID: copied.ID, CurrentCompany: &copied}
	c.persistLocked()
	c.lock.Unlock()
}

// UpdateCurrentCompany patches the current company in place. It does nothing
// when no company is selected.
func (c *Context) UpdateCurrentCompany(patch CompanyPatch) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state.CurrentCompany == nil {
		return
	}
	updated := patch.Apply(*c.state.CurrentCompany)
	c.state.CurrentCompany = &updated
	c.persistLocked()
}

func (c *Context) Clear() {
	c.lock.Lock()
	c.state = State{}
	c.persistLocked()
	c.lock.Unlock()
}

func (c *Context) CurrentCompanyID() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.CurrentCompanyID
}

// CurrentCompany returns a copy of the current company, or nil
func (c *Context) CurrentCompany() *Company {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if c.state.CurrentCompany == nil {
		return nil
	}
	copied := *c.state.CurrentCompany
	return &copied
}

// Flush waits for pending writes to reach the persister
func (c *Context) Flush(ctx context.Context) error {
	if c.writer == nil {
		return nil
	}
	return c.writer.Flush(ctx)
}

func (c *Context) Close(ctx context.Context) error {
	if c.writer == nil {
		return nil
	}
	return c.writer.Close(ctx)
}

func (c *Context) persistLocked() {
	if c.writer == nil {
		return
	}
	if c.state.CurrentCompanyID == "" {
		c.writer.Enqueue(c.storageName, nil)
		return
	}
	c.writer.Enqueue(c.storageName, c.state)
}
