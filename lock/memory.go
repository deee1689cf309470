package lock

import (
	"context"
	"sync"
)

// MemoryProvider 进程内互斥锁实现，用于单机部署与测试场景。
type MemoryProvider struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryProvider 构造。
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{locks: map[string]*sync.Mutex{}}
}

// New 实现 Provider；同一 key 始终返回绑定同一把底层锁的句柄。
func (p *MemoryProvider) New(key string) Locker {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	return &memoryLock{m: m}
}

type memoryLock struct{ m *sync.Mutex }

func (l *memoryLock) Lock(ctx context.Context) error   { l.m.Lock(); return nil }
func (l *memoryLock) Unlock(ctx context.Context) error { l.m.Unlock(); return nil }
