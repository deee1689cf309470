package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mengeric/flowtask-go/flowtask"
)

// contextModel 终端节点结果记录表映射。
type contextModel struct {
	ID            string    `gorm:"primaryKey;size:64"`
	TraceID       string    `gorm:"index;size:64"`
	FlowContextID string    `gorm:"index;size:64"`
	NodeID        string    `gorm:"index;size:64"`
	Status        string    `gorm:"index;size:32"`
	ErrorMsg      string    `gorm:"type:text"`
	Data          string    `gorm:"type:text"`
	CreatedAt     time.Time ``
}

func (contextModel) TableName() string { return "flowtask_item_contexts" }

// ContextStore 基于 GORM 的 flowtask.ContextStore 实现。
// 分页与总数分别走独立查询，每个过滤类别有一条专用计数。
type ContextStore struct{ db *gorm.DB }

// NewContextStore 创建 ContextStore。
func NewContextStore(db *gorm.DB) *ContextStore { return &ContextStore{db: db} }

// Put 写入一条结果记录（引擎同步作业使用）。
func (s *ContextStore) Put(ctx context.Context, cc flowtask.ItemContext) error {
	m := contextModel{
		ID:            cc.ID,
		TraceID:       cc.TraceID,
		FlowContextID: cc.FlowContextID,
		NodeID:        cc.NodeID,
		Status:        string(cc.Status),
		ErrorMsg:      cc.ErrorMsg,
		Data:          cc.Data,
	}
	return s.db.WithContext(ctx).Save(&m).Error
}

// Page 实现 ContextStore.Page。
func (s *ContextStore) Page(ctx context.Context, q flowtask.ContextQuery) ([]flowtask.ItemContext, error) {
	tx := s.where(s.db.WithContext(ctx), q)
	if q.PageSize > 0 {
		pageNum := q.PageNum
		if pageNum <= 0 {
			pageNum = 1
		}
		tx = tx.Offset((pageNum - 1) * q.PageSize).Limit(q.PageSize)
	}
	var list []contextModel
	if err := tx.Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]flowtask.ItemContext, 0, len(list))
	for _, m := range list {
		out = append(out, flowtask.ItemContext{
			ID:            m.ID,
			TraceID:       m.TraceID,
			FlowContextID: m.FlowContextID,
			NodeID:        m.NodeID,
			Status:        flowtask.Status(m.Status),
			ErrorMsg:      m.ErrorMsg,
			Data:          m.Data,
		})
	}
	return out, nil
}

// Count 实现 ContextStore.Count。
func (s *ContextStore) Count(ctx context.Context, q flowtask.ContextQuery) (int64, error) {
	var n int64
	err := s.where(s.db.WithContext(ctx).Model(&contextModel{}), q).Count(&n).Error
	return n, err
}

// DeleteByFlowContext 实现 ContextStore.DeleteByFlowContext。
func (s *ContextStore) DeleteByFlowContext(ctx context.Context, flowContextID string) error {
	return s.db.WithContext(ctx).
		Where("flow_context_id = ?", flowContextID).
		Delete(&contextModel{}).Error
}

// where 组装查询条件；过滤类别到状态集合的映射在此收敛。
func (s *ContextStore) where(tx *gorm.DB, q flowtask.ContextQuery) *gorm.DB {
	tx = tx.Where("flow_context_id = ?", q.FlowContextID)
	if q.TraceID != "" {
		tx = tx.Where("trace_id = ?", q.TraceID)
	}
	if q.NodeID != "" {
		tx = tx.Where("node_id = ?", q.NodeID)
	}
	switch q.Filter {
	case flowtask.FilterArchived:
		tx = tx.Where("status = ?", string(flowtask.StatusArchived))
	case flowtask.FilterError:
		tx = tx.Where("status IN ?", []string{string(flowtask.StatusError), string(flowtask.StatusPartialError)})
	case flowtask.FilterFinished:
		tx = tx.Where("status IN ?", []string{
			string(flowtask.StatusArchived), string(flowtask.StatusError), string(flowtask.StatusTerminate),
		})
	}
	return tx
}
