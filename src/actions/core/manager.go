package core

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Module is a self-contained part of the bot that can be started and stopped.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager starts modules in registration order and stops them in reverse.
type Manager struct {
	mu      sync.Mutex
	modules []Module
	started []Module
}

func NewManager(mods ...Module) *Manager {
	m := &Manager{}
	for _, mod := range mods {
		if mod != nil {
			m.modules = append(m.modules, mod)
		}
	}
	return m
}

// Add registers a module. Modules cannot be added once the manager runs.
func (m *Manager) Add(mod Module) error {
	if mod == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("actions.Manager: cannot add %s after start", mod.Name())
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Names lists the registered modules.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.modules))
	for i, mod := range m.modules {
		names[i] = mod.Name()
	}
	return names
}

// Start starts every module. If one fails, the ones already running are stopped again.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("actions.Manager already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if err := mod.Start(ctx); err != nil {
			stopAll(ctx, started)
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		log.Printf("actions: %s module started", mod.Name())
		started = append(started, mod)
	}

	m.started = started
	return nil
}

// Stop shuts down the running modules in reverse order. Calling it twice is harmless.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopAll(ctx, m.started)
	m.started = nil
}

func stopAll(ctx context.Context, mods []Module) {
	for i := len(mods) - 1; i >= 0; i-- {
		mods[i].Stop(ctx)
		log.Printf("actions: %s module stopped", mods[i].Name())
	}
}
