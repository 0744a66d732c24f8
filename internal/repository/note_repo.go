package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lms/internal/model"
)

// NoteFilter narrows ListNotes. Zero fields are ignored.
type NoteFilter struct {
	CreatedBy string
	Subject   string
}

type NoteRepository interface {
	CreateNote(ctx context.Context, n *model.Note) error
	GetNoteByID(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	UpdateNote(ctx context.Context, n *model.Note) error
	DeleteNote(ctx context.Context, id string) error
}

type noteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

const noteSelect = `
	SELECT n.id, n.subject, n.title, n.caption, n.subject_code, n.classroom_link,
	       n.created_by, n.created_at, n.updated_at,
	       u.first_name, u.last_name, u.role
	FROM notes n
	JOIN users u ON u.id = n.created_by`

func scanNote(row rowScanner) (*model.Note, error) {
	var n model.Note
	err := row.Scan(
		&n.ID,
		&n.Subject,
		&n.Title,
		&n.Caption,
		&n.SubjectCode,
		&n.ClassroomLink,
		&n.CreatedBy,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.Author.FirstName,
		&n.Author.LastName,
		&n.Author.Role,
	)
	if err != nil {
		return nil, err
	}
	n.Author.ID = n.CreatedBy
	return &n, nil
}

func (r *noteRepository) CreateNote(ctx context.Context, n *model.Note) error {
	query := `
		INSERT INTO notes (subject, title, caption, subject_code, classroom_link, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		n.Subject, n.Title, n.Caption, n.SubjectCode, n.ClassroomLink, n.CreatedBy,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	created, err := r.GetNoteByID(ctx, id)
	if err != nil {
		return err
	}
	if created == nil {
		return fmt.Errorf("note %s vanished after insert", id)
	}
	*n = *created
	return nil
}

func (r *noteRepository) GetNoteByID(ctx context.Context, id string) (*model.Note, error) {
	if !validID(id) {
		return nil, nil
	}
	n, err := scanNote(r.db.QueryRowContext(ctx, noteSelect+` WHERE n.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *noteRepository) ListNotes(ctx context.Context, filter NoteFilter) ([]model.Note, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CreatedBy != "" {
		if !validID(filter.CreatedBy) {
			return []model.Note{}, nil
		}
		args = append(args, filter.CreatedBy)
		conds = append(conds, fmt.Sprintf("n.created_by = $%d", len(args)))
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conds = append(conds, fmt.Sprintf("n.subject = $%d", len(args)))
	}

	query := noteSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY n.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) UpdateNote(ctx context.Context, n *model.Note) error {
	query := `
		UPDATE notes
		SET subject = $1, title = $2, caption = $3, subject_code = $4, classroom_link = $5, updated_at = NOW()
		WHERE id = $6`
	_, err := r.db.ExecContext(ctx, query, n.Subject, n.Title, n.Caption, n.SubjectCode, n.ClassroomLink, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	updated, err := r.GetNoteByID(ctx, n.ID)
	if err != nil {
		return err
	}
	if updated != nil {
		*n = *updated
	}
	return nil
}

func (r *noteRepository) DeleteNote(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}
