package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ValueMap 响应值, 以 JSON 存储
type ValueMap map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (m *ValueMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*m = nil
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value 实现 driver.Valuer 接口
func (m ValueMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// CommandRecord 一条已执行的引擎命令
type CommandRecord struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID  string    `json:"sessionId" gorm:"size:36;index"`
	Name       string    `json:"name" gorm:"size:64;index"`
	Command    string    `json:"command" gorm:"type:text"`
	Status     int32     `json:"status"`
	Response   string    `json:"response" gorm:"type:text"`
	Truncated  bool      `json:"truncated"`
	Values     ValueMap  `json:"values,omitempty" gorm:"type:json"`
	StartedAt  time.Time `json:"startedAt" gorm:"index"`
	DurationUs int64     `json:"durationUs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName 指定表名
func (CommandRecord) TableName() string {
	return "command_records"
}

// OK reports whether the engine accepted the command.
func (r *CommandRecord) OK() bool {
	return r.Status == 1
}
