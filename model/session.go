package model

import "time"

// Session origins
const (
	SessionOriginCLI    = "cli"
	SessionOriginServer = "server"
	SessionOriginScript = "script"
)

// Session 一次引擎库加载到卸载的生命周期
type Session struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Origin    string     `json:"origin" gorm:"size:16;index"`
	Host      string     `json:"host" gorm:"size:255"`
	Library   string     `json:"library" gorm:"size:1024"`
	Symbol    string     `json:"symbol" gorm:"size:64"`
	StartedAt time.Time  `json:"startedAt" gorm:"index"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}
