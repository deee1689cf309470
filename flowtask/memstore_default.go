package flowtask

import (
	"context"
	"sort"
	"sync"
)

// inMemoryStore 是包内置的线程安全内存实例存储，仅用于默认与测试场景。
// 设计：为了避免 import cycle，不依赖外部子包，实现最小的 InstanceStore 接口。
type inMemoryStore struct {
	mu sync.RWMutex
	m  map[string]*Instance
}

// newDefaultMemStore 创建内置内存实例存储。
func newDefaultMemStore() InstanceStore { return &inMemoryStore{m: map[string]*Instance{}} }

func instanceKey(taskID, instanceID string) string { return taskID + "/" + instanceID }

func (s *inMemoryStore) Get(ctx context.Context, taskID, instanceID string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ins, ok := s.m[instanceKey(taskID, instanceID)]; ok {
		cp := *ins
		return &cp, nil
	}
	return nil, ErrInstanceNotFound
}

func (s *inMemoryStore) Patch(ctx context.Context, taskID, instanceID string, p *Patch) error {
	if p.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ins, ok := s.m[instanceKey(taskID, instanceID)]
	if !ok {
		return ErrInstanceNotFound
	}
	p.Apply(ins)
	return nil
}

func (s *inMemoryStore) Save(ctx context.Context, ins *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ins
	s.m[instanceKey(ins.TaskID, ins.InstanceID)] = &cp
	return nil
}

func (s *inMemoryStore) Delete(ctx context.Context, taskID, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, instanceKey(taskID, instanceID))
	return nil
}

func (s *inMemoryStore) ListRunning(ctx context.Context) ([]Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Instance, 0)
	for _, v := range s.m {
		if v.Status == StatusRunning {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID < out[j].InstanceID })
	return out, nil
}

// inMemoryContextStore 内置的结果记录内存实现，默认与测试场景使用。
type inMemoryContextStore struct {
	mu   sync.RWMutex
	rows []ItemContext
}

func newDefaultContextStore() *inMemoryContextStore { return &inMemoryContextStore{} }

// Put 写入一条结果记录（测试与引擎适配层使用）。
func (s *inMemoryContextStore) Put(cc ItemContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, cc)
}

func (s *inMemoryContextStore) match(q ContextQuery) []ItemContext {
	out := make([]ItemContext, 0)
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
		if !filterMatch(q.Filter, r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// filterMatch 过滤类别与记录状态的匹配关系。
func filterMatch(f StatusFilter, st Status) bool {
	switch f {
	case FilterArchived:
		return st == StatusArchived
	case FilterError:
		return st == StatusError || st == StatusPartialError
	case FilterFinished:
		return st.Terminal()
	default:
		return true
	}
}

func (s *inMemoryContextStore) Page(ctx context.Context, q ContextQuery) ([]ItemContext, error) {
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
		return []ItemContext{}, nil
	}
	end := start + q.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (s *inMemoryContextStore) Count(ctx context.Context, q ContextQuery) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q.PageSize = 0
	return int64(len(s.match(q))), nil
}

func (s *inMemoryContextStore) DeleteByFlowContext(ctx context.Context, flowContextID string) error {
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
