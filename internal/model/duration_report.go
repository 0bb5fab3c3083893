package model

import "time"

// DurationReport 会话时长上报
// (session_id, epoch) 唯一，epoch 为会话开始的 unix 秒，同一会话只能入账一次
type DurationReport struct {
	ID         uint      `gorm:"primarykey"`
	SessionId  string    `gorm:"column:session_id;type:varchar(40);not null;uniqueIndex:idx_duration_session_epoch;comment:房间名"`
	Epoch      int64     `gorm:"column:epoch;not null;uniqueIndex:idx_duration_session_epoch;comment:会话开始时间戳"`
	ReporterId string    `gorm:"column:reporter_id;type:varchar(40);not null;comment:上报人"`
	Seconds    int64     `gorm:"column:seconds;not null;comment:时长（秒）"`
	Earnings   int64     `gorm:"column:earnings;not null;comment:本次入账收益"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (DurationReport) TableName() string {
	return "duration_report"
}
