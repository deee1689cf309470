package memstore

import (
	"context"
	"sync"

	"github.com/mengeric/flowtask-go/flowtask"
)

// InstanceStore 线程安全的内存实例存储，仅用于开发/轻量场景。
type InstanceStore struct {
	mu sync.RWMutex
	m  map[string]*flowtask.Instance
}

// NewInstanceStore 创建内存实例存储。
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{m: map[string]*flowtask.Instance{}}
}

func key(taskID, instanceID string) string { return taskID + "/" + instanceID }

func (s *InstanceStore) Get(ctx context.Context, taskID, instanceID string) (*flowtask.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ins, ok := s.m[key(taskID, instanceID)]; ok {
		cp := *ins
		return &cp, nil
	}
	return nil, flowtask.ErrInstanceNotFound
}

func (s *InstanceStore) Patch(ctx context.Context, taskID, instanceID string, p *flowtask.Patch) error {
	if p.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ins, ok := s.m[key(taskID, instanceID)]
	if !ok {
		return flowtask.ErrInstanceNotFound
	}
	p.Apply(ins)
	return nil
}

func (s *InstanceStore) Save(ctx context.Context, ins *flowtask.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ins
	s.m[key(ins.TaskID, ins.InstanceID)] = &cp
	return nil
}

func (s *InstanceStore) Delete(ctx context.Context, taskID, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key(taskID, instanceID))
	return nil
}

func (s *InstanceStore) ListRunning(ctx context.Context) ([]flowtask.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]flowtask.Instance, 0)
	for _, v := range s.m {
		if v.Status == flowtask.StatusRunning {
			out = append(out, *v)
		}
	}
	return out, nil
}

// ContextStore 线程安全的内存结果记录存储。
type ContextStore struct {
	mu   sync.RWMutex
	rows []flowtask.ItemContext
}

// NewContextStore 创建内存结果记录存储。
func NewContextStore() *ContextStore { return &ContextStore{} }

// Put 写入一条结果记录。
func (s *ContextStore) Put(cc flowtask.ItemContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, cc)
}

func (s *ContextStore) match(q flowtask.ContextQuery) []flowtask.ItemContext {
	out := make([]flowtask.ItemContext, 0)
	for _, r := range s.rows {
		if r.FlowContextID != q.FlowContextID {
			continue
		}
		if q.TraceID != "" && r.TraceID != q.TraceID {
			continue
		}
		if q.NodeID != "" && r.NodeID != q.NodeID {
			continue
		}
		switch q.Filter {
		case flowtask.FilterArchived:
			if r.Status != flowtask.StatusArchived {
				continue
			}
		case flowtask.FilterError:
			if r.Status != flowtask.StatusError && r.Status != flowtask.StatusPartialError {
				continue
			}
		case flowtask.FilterFinished:
			if !r.Status.Terminal() {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (s *ContextStore) Page(ctx context.Context, q flowtask.ContextQuery) ([]flowtask.ItemContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.match(q)
	if q.PageSize <= 0 {
		return rows, nil
	}
	start := (q.PageNum - 1) * q.PageSize
	if start < 0 {
		start = 0
	}
	if start >= len(rows) {
		return []flowtask.ItemContext{}, nil
	}
	end := start + q.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (s *ContextStore) Count(ctx context.Context, q flowtask.ContextQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(q))), nil
}

func (s *ContextStore) DeleteByFlowContext(ctx context.Context, flowContextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.FlowContextID != flowContextID {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}
