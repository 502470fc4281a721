package core

import (
	"context"
	"fmt"
)

type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

type (
	// Form tracks whether the in-progress summary is new or an edit of an
	// existing one.
	Form struct {
		Mode     FormMode
		TargetID string
		Fields   Fields
	}

	// Saver persists form fields.
	Saver interface {
		Create(ctx context.Context, f Fields) (string, error)
		Update(ctx context.Context, id string, f Fields) error
	}
)

// NewForm returns an empty form in create mode.
func NewForm() Form {
	return Form{Mode: FormCreate}
}

// IsEditing reports whether the form targets an existing summary.
func (f *Form) IsEditing() bool {
	return f.Mode == FormEdit && f.TargetID != ""
}

// Select loads an existing summary for editing.
func (f *Form) Select(s Summary) {
	f.Mode = FormEdit
	f.TargetID = s.ID
	f.Fields = s.Fields
}

// Cancel discards edits and returns to create mode.
func (f *Form) Cancel() {
	*f = NewForm()
}

// Save validates the fields and then creates or updates through s. On
// success the form is reset to create mode and the affected id is
// returned. On failure the form is left exactly as it was.
func (f *Form) Save(ctx context.Context, s Saver) (string, error) {
	if err := f.Fields.Validate(); err != nil {
		return "", err
	}

	var id string
	if f.IsEditing() {
		if err := s.Update(ctx, f.TargetID, f.Fields); err != nil {
			return "", fmt.Errorf("update summary %s: %w", f.TargetID, err)
		}
		id = f.TargetID
	} else {
		created, err := s.Create(ctx, f.Fields)
		if err != nil {
			return "", fmt.Errorf("create summary: %w", err)
		}
		id = created
	}

	f.Cancel()
	return id, nil
}
