package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Provider отдает текущий классификатор и подменяет его при изменении файла определений
type Provider struct {
	path    string
	current atomic.Pointer[Categorizer]
	logger  *zap.Logger

	mu        sync.Mutex
	listeners []func()
}

// NewProvider загружает определения из path (при пустом пути только встроенная таблица)
func NewProvider(path string, logger *zap.Logger) *Provider {
	p := &Provider{path: path, logger: logger}
	p.Reload()
	return p
}

// Current возвращает действующий классификатор
func (p *Provider) Current() *Categorizer {
	return p.current.Load()
}

// OnReload регистрирует функцию, вызываемую после каждой перезагрузки
func (p *Provider) OnReload(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Reload перечитывает определения; при ошибке остается встроенная таблица
func (p *Provider) Reload() {
	defs, err := LoadDefinitions(p.path)
	if err != nil {
		p.logger.Warn("Failed to load category definitions, using built-in table",
			zap.String("path", p.path),
			zap.Error(err),
		)
		defs = nil
	}
	p.current.Store(New(defs))
	p.logger.Info("Category definitions loaded",
		zap.String("path", p.path),
		zap.Int("definitions", len(defs)),
	)

	p.mu.Lock()
	listeners := append([]func(){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Watch следит за файлом определений до отмены контекста
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Следим за каталогом: редакторы часто заменяют файл целиком
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		return err
	}

	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				p.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("Category definitions watcher error", zap.Error(err))
		}
	}
}
