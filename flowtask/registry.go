package flowtask

import (
	"context"
	"fmt"
	"sync"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/delivery"
)

// AppendPoint 一个已注册的插入点：把 (流程定义, 版本) 绑定到入口节点上的投递通道。
// 生命周期与编排器进程一致，同一流程/版本的所有后续追加复用同一个通道，
// 与当前活跃的事务无关。
type AppendPoint struct {
	StreamID string
	FlowID   string
	Version  int
	// NodeID 在首次创建时固定；后续调用方传入的节点 ID 不再生效
	NodeID string
	Ch     *delivery.Bounded
}

// Registry 追加点注册表。
// 说明：显式持有、依赖注入的线程安全缓存，而非包级全局变量；
// 同一 key 只向引擎注册一次。
type Registry struct {
	mu       sync.RWMutex
	points   map[string]*AppendPoint
	engine   client.FlowEngine
	capacity int
}

// NewRegistry 构造；capacity 为每个追加点通道的缓冲容量。
func NewRegistry(engine client.FlowEngine, capacity int) *Registry {
	return &Registry{points: map[string]*AppendPoint{}, engine: engine, capacity: capacity}
}

// StreamID 追加点的缓存键，同时作为引擎侧的流标识。
func StreamID(flowID string, version int) string {
	return fmt.Sprintf("%s-%d", flowID, version)
}

// GetOrCreate 懒创建追加点。
// 功能：双重检查后创建新通道并向引擎注册（恰好一次）；
// 已存在时直接返回缓存，nodeID 以首次创建为准。
func (r *Registry) GetOrCreate(ctx context.Context, flowID string, version int, nodeID string) (*AppendPoint, error) {
	key := StreamID(flowID, version)

	r.mu.RLock()
	if p, ok := r.points[key]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.points[key]; ok {
		return p, nil
	}
	ch := delivery.NewBounded(r.capacity)
	if err := r.engine.RegisterInsertionPoint(ctx, key, flowID, version, nodeID, ch); err != nil {
		ch.Close()
		return nil, err
	}
	p := &AppendPoint{StreamID: key, FlowID: flowID, Version: version, NodeID: nodeID, Ch: ch}
	r.points[key] = p
	return p, nil
}

// Close 关闭全部追加点通道（进程退出时调用）。
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.points {
		p.Ch.Close()
	}
}
