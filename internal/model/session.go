package model

import "time"

// DateLayout is the wire format of Session.Date.
const DateLayout = "2006-01-02"

// Session is a scheduled class run by a teacher.
type Session struct {
	ID          string    `db:"id"`
	Subject     string    `db:"subject"`
	Description string    `db:"description"`
	Date        time.Time `db:"date"`
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	MaxStudents int       `db:"max_students"`
	Link        string    `db:"link"`
	Code        string    `db:"code"`
	TeacherID   string    `db:"teacher_id"`
	IsCancelled bool      `db:"is_cancelled"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Teacher          UserRef
	EnrolledStudents []string
	// Students is only filled for the teacher's own listing.
	Students []UserRef
}

func (s *Session) HasStudent(userID string) bool {
	for _, id := range s.EnrolledStudents {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *Session) IsFull() bool {
	return len(s.EnrolledStudents) >= s.MaxStudents
}

// CanManage reports whether u may edit or delete the session.
func (s *Session) CanManage(u *User) bool {
	return u.IsAdmin() || s.TeacherID == u.ID
}
