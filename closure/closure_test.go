package closure

import (
	"context"
	"errors"
	"testing"

	"github.com/veridoc/qatrack/report"
	"github.com/veridoc/qatrack/store"
)

type fakeStore struct {
	project   *store.Project
	docs      []*store.Document
	items     []*store.KnowledgeBankItem
	requested string
	closed    bool
	reopened  bool
}

func (f *fakeStore) Project(_ context.Context, id int64) (*store.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, store.ErrNotFound
	}
	return f.project, nil
}

func (f *fakeStore) InsertDocument(_ context.Context, d *store.Document) (int64, error) {
	f.docs = append(f.docs, d)
	return int64(len(f.docs)), nil
}

func (f *fakeStore) InsertKnowledgeItem(_ context.Context, k *store.KnowledgeBankItem) (int64, error) {
	f.items = append(f.items, k)
	return int64(len(f.items)), nil
}

func (f *fakeStore) RequestClosure(_ context.Context, _ int64, remarks string) error {
	f.requested = remarks
	return nil
}

func (f *fakeStore) CloseProject(context.Context, int64) error {
	f.closed = true
	return nil
}

func (f *fakeStore) ReopenProject(context.Context, int64) error {
	f.reopened = true
	return nil
}

type fakeCompiler struct {
	result *report.Result
	err    error
}

func (f *fakeCompiler) Compile(context.Context, int64) (*report.Result, error) {
	return f.result, f.err
}

func TestFinalize(t *testing.T) {
	st := &fakeStore{project: &store.Project{ID: 4, PONumber: "PO-9", OPAName: "Radar Upgrade"}}
	comp := &fakeCompiler{result: &report.Result{
		Filename:     "Closure_Report_PO-9_123.pdf",
		RelativePath: "uploads/4/reports/Closure_Report_PO-9_123.pdf",
	}}
	o := New(st, comp, Config{})

	res, err := o.Finalize(context.Background(), 4, 11)
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "Closure_Report_PO-9_123.pdf" {
		t.Errorf("filename = %q", res.Filename)
	}

	if len(st.docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(st.docs))
	}
	doc := st.docs[0]
	if doc.Type != store.DocProjectReport || doc.ProjectID != 4 {
		t.Errorf("document = %+v", doc)
	}
	if doc.Path != res.RelativePath {
		t.Errorf("document path = %q", doc.Path)
	}

	if len(st.items) != 1 {
		t.Fatalf("expected 1 knowledge item, got %d", len(st.items))
	}
	item := st.items[0]
	if item.Category != "reports" {
		t.Errorf("category = %q", item.Category)
	}
	if item.Title != "Closure Report - Radar Upgrade (PO-9)" {
		t.Errorf("title = %q", item.Title)
	}
	if item.UploadedBy != 11 {
		t.Errorf("uploaded_by = %d", item.UploadedBy)
	}

	// Finalize alone never closes the project.
	if st.closed {
		t.Fatal("project must not be closed by Finalize")
	}
	if err := o.Archive(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if !st.closed {
		t.Fatal("Archive should close the project")
	}
}

func TestFinalizeCompileFailure(t *testing.T) {
	st := &fakeStore{project: &store.Project{ID: 4, PONumber: "PO-9"}}
	comp := &fakeCompiler{err: errors.New("merge blew up")}
	o := New(st, comp, Config{})

	if _, err := o.Finalize(context.Background(), 4, 1); err == nil {
		t.Fatal("expected error")
	}
	// Nothing recorded, nothing closed.
	if len(st.docs) != 0 || len(st.items) != 0 || st.closed {
		t.Fatal("failed compilation must leave no trace")
	}
}

func TestFinalizeUnknownProject(t *testing.T) {
	st := &fakeStore{}
	o := New(st, &fakeCompiler{}, Config{})

	if _, err := o.Finalize(context.Background(), 99, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestAndReopen(t *testing.T) {
	st := &fakeStore{project: &store.Project{ID: 1}}
	o := New(st, &fakeCompiler{}, Config{})

	if err := o.Request(context.Background(), 1, "all items done"); err != nil {
		t.Fatal(err)
	}
	if st.requested != "all items done" {
		t.Errorf("remarks = %q", st.requested)
	}

	if err := o.Reopen(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if !st.reopened {
		t.Fatal("reopen not forwarded")
	}
}
