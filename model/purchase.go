package model

import "time"

// Purchase records a one-time grant of access by a user to a beat.
// The composite unique index backs the application-level duplicate check,
// so concurrent identical requests cannot slip a second row in.
type Purchase struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:uq_user_beat"`
	BeatID    int64     `json:"beatId" gorm:"not null;uniqueIndex:uq_user_beat"`
	CreatedAt time.Time `json:"createdAt"`

	Beat *Beat `json:"beat,omitempty" gorm:"foreignKey:BeatID"`
}

// TableName sets the table name for Purchase.
func (Purchase) TableName() string {
	return "purchases"
}
