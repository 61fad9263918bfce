package model

import "time"

// Beat represents an uploaded audio track listing. A beat is immutable after
// upload and belongs to the user that uploaded it. AudioFile and CoverImage
// hold stored filenames, resolved against the storage driver at serve time.
type Beat struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	BPM         int       `json:"bpm" gorm:"not null"`
	Genre       string    `json:"genre" gorm:"size:100;index"`
	AudioFile   string    `json:"-" gorm:"size:512;not null"`
	CoverImage  string    `json:"coverImage,omitempty" gorm:"size:512"` // empty when no cover was uploaded
	UserID      int64     `json:"userId" gorm:"index;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}

// TableName sets the table name for Beat.
func (Beat) TableName() string {
	return "beats"
}

// Marketplace sort keys.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
)
