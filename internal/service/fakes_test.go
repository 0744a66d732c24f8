package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"lms/internal/mail"
	"lms/internal/model"
	"lms/internal/repository"

	"github.com/google/uuid"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.AccessibleSubjects = []string{}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.User{}
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) DeleteUser(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
	students map[string][]model.UserRef
}

func newFakeSessionRepo(sessions ...*model.Session) *fakeSessionRepo {
	r := &fakeSessionRepo{sessions: map[string]*model.Session{}, students: map[string][]model.UserRef{}}
	for _, s := range sessions {
		if s.EnrolledStudents == nil {
			s.EnrolledStudents = []string{}
		}
		r.sessions[s.ID] = s
	}
	return r
}

func (r *fakeSessionRepo) CreateSession(ctx context.Context, s *model.Session) error {
	s.ID = uuid.NewString()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetSessionByID(ctx context.Context, id string) (*model.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.EnrolledStudents = append([]string{}, s.EnrolledStudents...)
	return &cp, nil
}

func (r *fakeSessionRepo) ListSessions(ctx context.Context, f repository.SessionFilter) ([]model.Session, error) {
	out := []model.Session{}
	for _, s := range r.sessions {
		if f.TeacherID != "" && s.TeacherID != f.TeacherID {
			continue
		}
		if f.StudentID != "" && !s.HasStudent(f.StudentID) {
			continue
		}
		if f.Subject != "" && s.Subject != f.Subject {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeSessionRepo) UpdateSession(ctx context.Context, s *model.Session) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) AddStudent(ctx context.Context, sessionID, studentID string) (bool, error) {
	s, ok := r.sessions[sessionID]
	if !ok || s.HasStudent(studentID) || s.IsFull() {
		return false, nil
	}
	s.EnrolledStudents = append(s.EnrolledStudents, studentID)
	r.students[sessionID] = append(r.students[sessionID], model.UserRef{ID: studentID})
	return true, nil
}

func (r *fakeSessionRepo) RemoveStudent(ctx context.Context, sessionID, studentID string) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	kept := []string{}
	for _, id := range s.EnrolledStudents {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	s.EnrolledStudents = kept
	return nil
}

func (r *fakeSessionRepo) ListStudents(ctx context.Context, sessionID string) ([]model.UserRef, error) {
	out := []model.UserRef{}
	for _, id := range r.sessions[sessionID].EnrolledStudents {
		out = append(out, model.UserRef{ID: id})
	}
	return out, nil
}

type fakeNoteRepo struct {
	notes map[string]*model.Note
}

func newFakeNoteRepo(notes ...*model.Note) *fakeNoteRepo {
	r := &fakeNoteRepo{notes: map[string]*model.Note{}}
	for _, n := range notes {
		r.notes[n.ID] = n
	}
	return r
}

func (r *fakeNoteRepo) CreateNote(ctx context.Context, n *model.Note) error {
	n.ID = uuid.NewString()
	n.Author = model.UserRef{ID: n.CreatedBy}
	cp := *n
	r.notes[n.ID] = &cp
	return nil
}

func (r *fakeNoteRepo) GetNoteByID(ctx context.Context, id string) (*model.Note, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNoteRepo) ListNotes(ctx context.Context, f repository.NoteFilter) ([]model.Note, error) {
	out := []model.Note{}
	for _, n := range r.notes {
		if f.CreatedBy != "" && n.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Subject != "" && n.Subject != f.Subject {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeNoteRepo) UpdateNote(ctx context.Context, n *model.Note) error {
	cp := *n
	r.notes[n.ID] = &cp
	return nil
}

func (r *fakeNoteRepo) DeleteNote(ctx context.Context, id string) error {
	delete(r.notes, id)
	return nil
}

// fakeEnrollmentRepo mirrors the approval cascade against a fake user and
// session store so service tests can observe it.
type fakeEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment
	users       *fakeUserRepo
	sessions    *fakeSessionRepo
	approveErr  error
}

func newFakeEnrollmentRepo(users *fakeUserRepo, sessions *fakeSessionRepo) *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: map[string]*model.Enrollment{}, users: users, sessions: sessions}
}

func (r *fakeEnrollmentRepo) populate(e *model.Enrollment) *model.Enrollment {
	cp := *e
	if u, ok := r.users.users[e.UserID]; ok {
		ref := u.Ref()
		cp.User = &ref
	}
	if e.ReviewedBy != nil {
		if u, ok := r.users.users[*e.ReviewedBy]; ok {
			ref := u.Ref()
			cp.Reviewer = &ref
		}
	}
	return &cp
}

func (r *fakeEnrollmentRepo) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	for _, existing := range r.enrollments {
		if existing.UserID == e.UserID && existing.Subject == e.Subject &&
			existing.Month == e.Month && existing.Year == e.Year &&
			existing.Status != model.EnrollmentRejected {
			return repository.ErrDuplicate
		}
	}
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	cp := *e
	r.enrollments[e.ID] = &cp
	*e = *r.populate(&cp)
	return nil
}

func (r *fakeEnrollmentRepo) GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error) {
	e, ok := r.enrollments[id]
	if !ok {
		return nil, nil
	}
	return r.populate(e), nil
}

func (r *fakeEnrollmentRepo) FindActiveEnrollment(ctx context.Context, userID, subject string, month, year int) (*model.Enrollment, error) {
	for _, e := range r.enrollments {
		if e.UserID == userID && e.Subject == subject && e.Month == month && e.Year == year &&
			e.Status != model.EnrollmentRejected {
			return r.populate(e), nil
		}
	}
	return nil, nil
}

func (r *fakeEnrollmentRepo) ListEnrollments(ctx context.Context, f repository.EnrollmentFilter) ([]model.Enrollment, error) {
	out := []model.Enrollment{}
	for _, e := range r.enrollments {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, *r.populate(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeEnrollmentRepo) UpdateEnrollment(ctx context.Context, e *model.Enrollment) error {
	stored := r.enrollments[e.ID]
	stored.Subject, stored.Month, stored.Year, stored.Message = e.Subject, e.Month, e.Year, e.Message
	*e = *r.populate(stored)
	return nil
}

func (r *fakeEnrollmentRepo) DeleteEnrollment(ctx context.Context, id string) (bool, error) {
	if _, ok := r.enrollments[id]; !ok {
		return false, nil
	}
	delete(r.enrollments, id)
	return true, nil
}

func (r *fakeEnrollmentRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	n := 0
	for _, e := range r.enrollments {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeEnrollmentRepo) HasApprovedEnrollment(ctx context.Context, userID, subject string) (bool, error) {
	for _, e := range r.enrollments {
		if e.UserID == userID && e.Subject == subject && e.Status == model.EnrollmentApproved {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEnrollmentRepo) review(id, status, reviewerID, notes string) *model.Enrollment {
	e, ok := r.enrollments[id]
	if !ok {
		return nil
	}
	now := time.Now()
	e.Status = status
	e.ReviewedBy = &reviewerID
	e.ReviewedAt = &now
	e.ReviewNotes = notes
	return e
}

func (r *fakeEnrollmentRepo) ApproveEnrollment(ctx context.Context, id, reviewerID, notes string) (*repository.ReviewResult, error) {
	if r.approveErr != nil {
		return nil, r.approveErr
	}
	if target, ok := r.enrollments[id]; ok {
		for otherID, other := range r.enrollments {
			if otherID != id && other.UserID == target.UserID && other.Subject == target.Subject &&
				other.Month == target.Month && other.Year == target.Year &&
				other.Status != model.EnrollmentRejected {
				return nil, repository.ErrDuplicate
			}
		}
	}
	e := r.review(id, model.EnrollmentApproved, reviewerID, notes)
	if e == nil {
		return nil, nil
	}
	res := &repository.ReviewResult{}
	u := r.users.users[e.UserID]
	if !u.HasSubject(e.Subject) {
		u.AccessibleSubjects = append(u.AccessibleSubjects, e.Subject)
		res.SubjectGranted = true
	}
	start, end := e.PeriodBounds()
	for _, s := range r.sessions.sessions {
		if s.Subject != e.Subject || s.Date.Before(start) || !s.Date.Before(end) || s.HasStudent(e.UserID) {
			continue
		}
		s.EnrolledStudents = append(s.EnrolledStudents, e.UserID)
		res.SessionsJoined++
	}
	return res, nil
}

func (r *fakeEnrollmentRepo) RejectEnrollment(ctx context.Context, id, reviewerID, notes string) (*repository.ReviewResult, error) {
	e := r.review(id, model.EnrollmentRejected, reviewerID, notes)
	if e == nil {
		return nil, nil
	}
	res := &repository.ReviewResult{}
	if still, _ := r.HasApprovedEnrollment(ctx, e.UserID, e.Subject); still {
		return res, nil
	}
	u := r.users.users[e.UserID]
	kept := []string{}
	for _, s := range u.AccessibleSubjects {
		if s != e.Subject {
			kept = append(kept, s)
		} else {
			res.SubjectRevoked = true
		}
	}
	u.AccessibleSubjects = kept
	return res, nil
}

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "msg-1", nil
}

type fakeMailer struct {
	sent []mail.Message
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeLimiter struct {
	max   int64
	fails map[string]int64
}

func newFakeLimiter(max int64) *fakeLimiter {
	return &fakeLimiter{max: max, fails: map[string]int64{}}
}

func (l *fakeLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	return l.fails[key] >= l.max, nil
}

func (l *fakeLimiter) Fail(ctx context.Context, key string) (int64, error) {
	l.fails[key]++
	return l.fails[key], nil
}

func (l *fakeLimiter) Reset(ctx context.Context, key string) error {
	delete(l.fails, key)
	return nil
}

type fakeReceipts struct{}

func (fakeReceipts) UploadURL(ctx context.Context, userID, filename string) (*ReceiptUpload, error) {
	return &ReceiptUpload{UploadURL: "https://s3.example.com/put", ImageURL: "https://s3.example.com/receipts/" + userID + "/r.png"}, nil
}

func (fakeReceipts) ViewURL(ctx context.Context, imageURL string) (string, error) {
	return imageURL + "?signed=1", nil
}
