package repository

import (
	"context"
	"time"

	"smpctl/model"

	"gorm.io/gorm"
)

// DefaultJournalLimit 未指定数量时返回的记录数
const DefaultJournalLimit = 50

// MaxJournalLimit 单次查询的上限
const MaxJournalLimit = 1000

// JournalQuery 过滤条件
type JournalQuery struct {
	SessionID string
	Name      string
	Limit     int
}

// JournalRepository 命令日志数据访问接口
type JournalRepository interface {
	// 会话
	CreateSession(ctx context.Context, s *model.Session) error
	EndSession(ctx context.Context, id string, at time.Time) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	RecentSessions(ctx context.Context, limit int) ([]*model.Session, error)

	// 命令记录
	Record(ctx context.Context, rec *model.CommandRecord) error
	Recent(ctx context.Context, q JournalQuery) ([]*model.CommandRecord, error)
}

// gormJournalRepository GORM 实现
type gormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository 创建 GORM 日志仓库
func NewGormJournalRepository(db *gorm.DB) JournalRepository {
	return &gormJournalRepository{db: db}
}

// CreateSession 创建会话
func (r *gormJournalRepository) CreateSession(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// EndSession 标记会话结束
func (r *gormJournalRepository) EndSession(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", id).
		Update("ended_at", at).Error
}

// GetSession 根据ID获取会话, 不存在时返回 nil, nil
func (r *gormJournalRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RecentSessions 最近的会话, 新的在前
func (r *gormJournalRepository) RecentSessions(ctx context.Context, limit int) ([]*model.Session, error) {
	var sessions []*model.Session
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(clampLimit(limit)).
		Find(&sessions).Error
	return sessions, err
}

// Record 写入一条命令记录
func (r *gormJournalRepository) Record(ctx context.Context, rec *model.CommandRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Recent 最近的命令记录, 新的在前
func (r *gormJournalRepository) Recent(ctx context.Context, q JournalQuery) ([]*model.CommandRecord, error) {
	var records []*model.CommandRecord
	err := recentQuery(r.db.WithContext(ctx), q).Find(&records).Error
	return records, err
}

func recentQuery(tx *gorm.DB, q JournalQuery) *gorm.DB {
	tx = tx.Model(&model.CommandRecord{})
	if q.SessionID != "" {
		tx = tx.Where("session_id = ?", q.SessionID)
	}
	if q.Name != "" {
		tx = tx.Where("name = ?", q.Name)
	}
	return tx.Order("started_at DESC").Order("id DESC").Limit(clampLimit(q.Limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultJournalLimit
	}
	if limit > MaxJournalLimit {
		return MaxJournalLimit
	}
	return limit
}
