package flowtask

import (
	"context"

	"github.com/mengeric/flowtask-go/lock"
	"github.com/mengeric/flowtask-go/logging"
)

// UpdateFn 在锁内基于当前状态计算补丁；返回 nil 或空补丁表示弃权（不落库）。
type UpdateFn func(cur *Instance) *Patch

// Updater 带锁状态更新器：实例状态唯一合法的修改通道。
// 约定：每次调用恰好一次加锁、至多一次持久化写；临界区内只做
// 读-算-写，不嵌套其他临界区。
type Updater struct {
	store InstanceStore
	locks lock.Provider
}

// NewUpdater 构造。
func NewUpdater(store InstanceStore, locks lock.Provider) *Updater {
	return &Updater{store: store, locks: locks}
}

// Update 对指定实例执行一次锁保护的读-改-写。
// 功能：加锁 → 读当前状态 → fn 计算补丁 → 非空则落库 → 解锁。
// 返回：更新前的状态快照（fn 弃权时即当前状态）。
// 异常：加锁失败、实例不存在或落库失败时返回错误；fn 弃权不是错误。
func (u *Updater) Update(ctx context.Context, taskID, instanceID string, fn UpdateFn) (*Instance, error) {
	lk := u.locks.New(instanceID)
	if err := lk.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := lk.Unlock(ctx); err != nil {
			logging.L().Warnf(ctx, "unlock failed: instance=%s err=%v", instanceID, err)
		}
	}()

	cur, err := u.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return nil, err
	}
	p := fn(cur)
	if p.Empty() {
		return cur, nil
	}
	if err := u.store.Patch(ctx, taskID, instanceID, p); err != nil {
		return nil, err
	}
	return cur, nil
}
