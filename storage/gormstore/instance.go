package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mengeric/flowtask-go/flowtask"
)

// instanceModel 任务实例表映射。
type instanceModel struct {
	ID              uint       `gorm:"primaryKey"`
	TaskID          string     `gorm:"uniqueIndex:idx_task_instance;size:64"`
	InstanceID      string     `gorm:"uniqueIndex:idx_task_instance;size:64"`
	Status          string     `gorm:"index;size:32"`
	FlowID          string     `gorm:"size:64"`
	FlowVersion     int        ``
	FlowContextID   string     `gorm:"index;size:64"`
	FlowParams      string     `gorm:"type:text"`
	FileNum         int64      `gorm:"default:0"`
	ProcessedNum    int64      `gorm:"default:0"`
	CleaningData    int64      `gorm:"default:0"`
	ProgressPercent float64    `gorm:"default:0"`
	Extensions      string     `gorm:"type:text"`
	StartTime       time.Time  ``
	FinishTime      *time.Time ``
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (instanceModel) TableName() string { return "flowtask_instances" }

// InstanceStore 基于 GORM 的 flowtask.InstanceStore 实现。
type InstanceStore struct{ db *gorm.DB }

// NewInstanceStore 创建 InstanceStore；建表见 AutoMigrate。
func NewInstanceStore(db *gorm.DB) *InstanceStore { return &InstanceStore{db: db} }

// AutoMigrate 建表/迁移本包全部模型。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&instanceModel{}, &contextModel{})
}

// Get 实现 InstanceStore.Get。
func (s *InstanceStore) Get(ctx context.Context, taskID, instanceID string) (*flowtask.Instance, error) {
	var m instanceModel
	err := s.db.WithContext(ctx).
		Where("task_id = ? AND instance_id = ?", taskID, instanceID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, flowtask.ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromModel(&m)
}

// Patch 实现 InstanceStore.Patch：只更新补丁携带的列。
func (s *InstanceStore) Patch(ctx context.Context, taskID, instanceID string, p *flowtask.Patch) error {
	if p.Empty() {
		return nil
	}
	fields := map[string]any{}
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	if p.FlowContextID != nil {
		fields["flow_context_id"] = *p.FlowContextID
	}
	if p.FileNum != nil {
		fields["file_num"] = *p.FileNum
	}
	if p.ProcessedNum != nil {
		fields["processed_num"] = *p.ProcessedNum
	}
	if p.CleaningData != nil {
		fields["cleaning_data"] = *p.CleaningData
	}
	if p.ProgressPercent != nil {
		fields["progress_percent"] = *p.ProgressPercent
	}
	if p.Extensions != nil {
		b, err := json.Marshal(p.Extensions)
		if err != nil {
			return err
		}
		fields["extensions"] = string(b)
	}
	if p.StartTime != nil {
		fields["start_time"] = *p.StartTime
	}
	if p.FinishTime != nil {
		fields["finish_time"] = *p.FinishTime
	}
	if p.ClearFinishTime {
		fields["finish_time"] = nil
	}
	res := s.db.WithContext(ctx).Model(&instanceModel{}).
		Where("task_id = ? AND instance_id = ?", taskID, instanceID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return flowtask.ErrInstanceNotFound
	}
	return nil
}

// Save 实现 InstanceStore.Save。
func (s *InstanceStore) Save(ctx context.Context, ins *flowtask.Instance) error {
	m, err := toModel(ins)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("task_id = ? AND instance_id = ?", ins.TaskID, ins.InstanceID).
		Assign(m).FirstOrCreate(&m).Error
}

// Delete 实现 InstanceStore.Delete。
func (s *InstanceStore) Delete(ctx context.Context, taskID, instanceID string) error {
	return s.db.WithContext(ctx).
		Where("task_id = ? AND instance_id = ?", taskID, instanceID).
		Delete(&instanceModel{}).Error
}

// ListRunning 实现 InstanceStore.ListRunning。
func (s *InstanceStore) ListRunning(ctx context.Context) ([]flowtask.Instance, error) {
	var list []instanceModel
	err := s.db.WithContext(ctx).
		Where("status = ?", string(flowtask.StatusRunning)).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	out := make([]flowtask.Instance, 0, len(list))
	for i := range list {
		ins, cerr := fromModel(&list[i])
		if cerr != nil {
			return nil, cerr
		}
		out = append(out, *ins)
	}
	return out, nil
}

func toModel(ins *flowtask.Instance) (instanceModel, error) {
	var params, ext []byte
	var err error
	if ins.FlowParams != nil {
		if params, err = json.Marshal(ins.FlowParams); err != nil {
			return instanceModel{}, err
		}
	}
	if ext, err = json.Marshal(ins.Extensions); err != nil {
		return instanceModel{}, err
	}
	return instanceModel{
		TaskID:          ins.TaskID,
		InstanceID:      ins.InstanceID,
		Status:          string(ins.Status),
		FlowID:          ins.FlowID,
		FlowVersion:     ins.FlowVersion,
		FlowContextID:   ins.FlowContextID,
		FlowParams:      string(params),
		FileNum:         ins.FileNum,
		ProcessedNum:    ins.ProcessedNum,
		CleaningData:    ins.CleaningData,
		ProgressPercent: ins.ProgressPercent,
		Extensions:      string(ext),
		StartTime:       ins.StartTime,
		FinishTime:      ins.FinishTime,
	}, nil
}

func fromModel(m *instanceModel) (*flowtask.Instance, error) {
	ins := &flowtask.Instance{
		TaskID:          m.TaskID,
		InstanceID:      m.InstanceID,
		Status:          flowtask.Status(m.Status),
		FlowID:          m.FlowID,
		FlowVersion:     m.FlowVersion,
		FlowContextID:   m.FlowContextID,
		FileNum:         m.FileNum,
		ProcessedNum:    m.ProcessedNum,
		CleaningData:    m.CleaningData,
		ProgressPercent: m.ProgressPercent,
		StartTime:       m.StartTime,
		FinishTime:      m.FinishTime,
	}
	if m.FlowParams != "" {
		if err := json.Unmarshal([]byte(m.FlowParams), &ins.FlowParams); err != nil {
			return nil, err
		}
	}
	if m.Extensions != "" {
		if err := json.Unmarshal([]byte(m.Extensions), &ins.Extensions); err != nil {
			return nil, err
		}
	}
	return ins, nil
}
