package offline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

// Tipos de mensajes de control.
const (
	MsgSkipWaiting  = "SKIP_WAITING"
	MsgClearCache   = "CLEAR_CACHE"
	MsgGetCacheInfo = "GET_CACHE_INFO"
)

// Message es un mensaje de control de una página. Si Reply no es nil recibe
// la respuesta de CLEAR_CACHE y GET_CACHE_INFO.
type Message struct {
	Type  string     `json:"type"`
	Reply chan<- any `json:"-"`
}

// HandleMessage aplica un mensaje de control. La respuesta es nil para
// SKIP_WAITING y para tipos desconocidos, que se ignoran.
func (m *Manager) HandleMessage(ctx context.Context, msg Message) (any, error) {
	switch msg.Type {
	case MsgSkipWaiting:
		if err := m.Activate(ctx); err != nil {
			return nil, fmt.Errorf("offline.HandleMessage %s: %w", msg.Type, err)
		}
		return nil, nil

	case MsgClearCache:
		name := m.currentName()
		deleted, err := m.registry.Delete(ctx, name)
		if err != nil {
			slog.Warn("clear cache failed", "cache", name, "err", err)
			return domain.ClearCacheResult{Success: false}, nil
		}
		slog.Info("cache cleared", "cache", name, "deleted", deleted)
		return domain.ClearCacheResult{Success: deleted}, nil

	case MsgGetCacheInfo:
		info, err := m.CacheInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("offline.HandleMessage %s: %w", msg.Type, err)
		}
		return info, nil

	default:
		slog.Debug("ignoring unknown control message", "type", msg.Type)
		return nil, nil
	}
}

// CacheInfo reporta la generación actual y cuántas entradas tiene.
func (m *Manager) CacheInfo(ctx context.Context) (domain.CacheInfo, error) {
	version, name := m.current()
	info := domain.CacheInfo{Version: version, CacheName: name}

	has, err := m.registry.Has(ctx, name)
	if err != nil {
		return info, fmt.Errorf("offline.CacheInfo: %w", err)
	}
	if !has {
		return info, nil
	}
	store, err := m.registry.Open(ctx, name)
	if err != nil {
		return info, fmt.Errorf("offline.CacheInfo: %w", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		return info, fmt.Errorf("offline.CacheInfo: %w", err)
	}
	info.CacheSize = len(keys)
	return info, nil
}

// Run aplica mensajes hasta que ctx termina o se cierra ch.
func (m *Manager) Run(ctx context.Context, ch <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			reply, err := m.HandleMessage(ctx, msg)
			if err != nil {
				slog.Warn("control message failed", "type", msg.Type, "err", err)
			}
			if msg.Reply == nil || reply == nil {
				continue
			}
			select {
			case msg.Reply <- reply:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// current devuelve versión y nombre del store de la generación en uso:
// primero la activa, después la que espera, después la última pedida.
func (m *Manager) current() (string, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.active != nil:
		return m.active.Version, m.active.CacheName
	case m.waiting != nil:
		return m.waiting.Version, m.waiting.CacheName
	default:
		return m.version, domain.CacheName(m.cfg.Prefix, m.version)
	}
}

func (m *Manager) currentName() string {
	_, name := m.current()
	return name
}
