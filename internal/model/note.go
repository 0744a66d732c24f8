package model

import "time"

// Note is a piece of study material published by staff.
type Note struct {
	ID            string    `db:"id"`
	Subject       string    `db:"subject"`
	Title         string    `db:"title"`
	Caption       string    `db:"caption"`
	SubjectCode   string    `db:"subject_code"`
	ClassroomLink string    `db:"classroom_link"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`

	Author UserRef
}

func (n *Note) CanManage(u *User) bool {
	return u.IsAdmin() || n.CreatedBy == u.ID
}
