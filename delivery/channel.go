package delivery

import (
	"context"
	"errors"
	"sync"
)

// Message 一次投递（publish）的载体：一条 trace 对应一批数据项。
type Message struct {
	// TraceID 本次投递的唯一标识，引擎侧据此落每条数据的来源
	TraceID string
	// FlowContextID 产生该批数据时处于活跃状态的事务 ID
	FlowContextID string
	// Items 业务数据项
	Items []map[string]any
}

// Publisher 背压感知的发布端。
// 约定：缓冲满时 Publish 阻塞而非丢弃，直至消费方取走或 ctx 取消。
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close()
}

// Source 消费端视图，供引擎适配层拉取数据。
type Source interface {
	Recv() <-chan Message
	Done() <-chan struct{}
}

// ErrClosed 通道已关闭后继续发布。
var ErrClosed = errors.New("delivery: channel closed")

// Bounded 有界的进程内发布通道，是追加点（append point）背后的投递原语。
type Bounded struct {
	ch   chan Message
	done chan struct{}
	once sync.Once
}

// NewBounded 创建容量为 capacity 的通道；capacity<=0 时取默认 64。
func NewBounded(capacity int) *Bounded {
	if capacity <= 0 {
		capacity = 64
	}
	return &Bounded{ch: make(chan Message, capacity), done: make(chan struct{})}
}

// Publish 投递一条消息。
// 功能：缓冲未满立即返回；缓冲已满阻塞等待（背压），ctx 取消或通道关闭时返回错误。
func (b *Bounded) Publish(ctx context.Context, msg Message) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.ch <- msg:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv 返回消费端通道，供引擎适配层拉取投递的数据。
func (b *Bounded) Recv() <-chan Message { return b.ch }

// Done 通道关闭信号。
func (b *Bounded) Done() <-chan struct{} { return b.done }

// Close 关闭通道；幂等。已入缓冲的消息仍可被消费端取完。
func (b *Bounded) Close() { b.once.Do(func() { close(b.done) }) }
