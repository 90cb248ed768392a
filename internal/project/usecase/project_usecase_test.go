package usecase

import (
	"context"
	"testing"

	"flowdesk-backend/internal/project/domain"
)

type fakeProjectRepo struct {
	projects map[string]*domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*domain.Project)}
}

func (r *fakeProjectRepo) Create(p *domain.Project) error {
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) FindByID(id string) (*domain.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) FindByUserID(userID string, status *domain.Status) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) FindByClientID(userID, clientID string) ([]*domain.Project, error) {
	return nil, nil
}

func (r *fakeProjectRepo) SumPriceByClientID(userID, clientID string) (float64, error) {
	return 0, nil
}

func (r *fakeProjectRepo) Update(p *domain.Project) error {
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) Delete(id string) error {
	delete(r.projects, id)
	return nil
}

type noteCall struct {
	userID, entityType, entityID, title, body string
}

type fakeNoteIndexer struct {
	upserts []noteCall
	deletes []string
}

func (f *fakeNoteIndexer) UpsertNote(ctx context.Context, userID, entityType, entityID, title, body string) error {
	f.upserts = append(f.upserts, noteCall{userID, entityType, entityID, title, body})
	return nil
}

func (f *fakeNoteIndexer) DeleteNote(ctx context.Context, entityID string) error {
	f.deletes = append(f.deletes, entityID)
	return nil
}

func TestProjectWritesMirrorIntoNoteIndex(t *testing.T) {
	repo := newFakeProjectRepo()
	uc := NewProjectUsecase(repo)
	notes := &fakeNoteIndexer{}
	uc.SetNoteIndexer(notes)

	created, err := uc.CreateProject("u1", ProjectCreateRequest{
		Title: "Logo refresh",
		Notes: "Client wants something bold",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notes.upserts) != 1 {
		t.Fatalf("expected 1 upsert after create, got %d", len(notes.upserts))
	}
	up := notes.upserts[0]
	if up.userID != "u1" || up.entityType != "project" || up.entityID != created.ID {
		t.Errorf("upsert = %+v", up)
	}
	if up.body != "Client wants something bold" {
		t.Errorf("body = %q", up.body)
	}

	newNotes := "Bold but not loud"
	if _, err := uc.UpdateProject("u1", created.ID, ProjectUpdateRequest{Notes: &newNotes}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(notes.upserts) != 2 || notes.upserts[1].body != newNotes {
		t.Fatalf("expected the update to re-index, got %+v", notes.upserts)
	}

	if err := uc.DeleteProject("u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(notes.deletes) != 1 || notes.deletes[0] != created.ID {
		t.Errorf("expected the delete to drop the note, got %v", notes.deletes)
	}
}

func TestProjectWritesWorkWithoutNoteIndex(t *testing.T) {
	uc := NewProjectUsecase(newFakeProjectRepo())

	created, err := uc.CreateProject("u1", ProjectCreateRequest{Title: "No index"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := uc.DeleteProject("u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
