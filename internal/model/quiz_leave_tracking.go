package model

import "time"

// swagger:model QuizLeaveTracking
type QuizLeaveTracking struct {
	UUIDBase
	AttemptID         string    `gorm:"uniqueIndex;type:varchar(36);not null" json:"attemptId"`
	LeaveCount        int       `gorm:"not null;default:0" json:"leaveCount"`
	TotalLeaveSeconds int       `gorm:"not null;default:0" json:"totalLeaveSeconds"`
	LastLeaveAt       time.Time `json:"lastLeaveAt"`
}

func (QuizLeaveTracking) TableName() string {
	return "quiz_leave_trackings"
}
