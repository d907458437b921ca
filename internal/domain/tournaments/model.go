package tournaments

import "time"

// Tournament is the slice of the tournament record this service reads.
// Rows are owned by the tournament subsystem.
type Tournament struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Organizer string `gorm:"index" json:"organizer"` // username of the organizing account

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
