package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// fakeBackend is an in-memory stand-in for the Drive/Sheets wrapper.
type fakeBackend struct {
	mu      sync.Mutex
	blobs   map[string]string // folder/name -> id
	uploads int
	docs    map[string]*fakeDoc // id -> contents
	docIDs  map[string]string   // folder/name -> id
	nextID  int
}

type fakeDoc struct {
	header []string
	rows   []map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		blobs:  map[string]string{},
		docs:   map[string]*fakeDoc{},
		docIDs: map[string]string{},
	}
}

func (f *fakeBackend) key(folderID, name string) string { return folderID + "/" + name }

func (f *fakeBackend) BlobExists(_ context.Context, name, folderID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.blobs[f.key(folderID, name)]
	return id, ok, nil
}

func (f *fakeBackend) UploadBlob(_ context.Context, _ []byte, name, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.uploads++
	id := fmt.Sprintf("blob-%d", f.nextID)
	f.blobs[f.key(folderID, name)] = id
	return id, nil
}

func (f *fakeBackend) EnsureSpreadsheet(_ context.Context, name, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.docIDs[f.key(folderID, name)]; ok {
		return id, nil
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.docIDs[f.key(folderID, name)] = id
	f.docs[id] = &fakeDoc{}
	return id, nil
}

func (f *fakeBackend) ReadRows(_ context.Context, spreadsheetID string) ([]string, []map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[spreadsheetID]
	if !ok {
		return nil, nil, fmt.Errorf("no such document: %s", spreadsheetID)
	}
	header := append([]string(nil), doc.header...)
	rows := make([]map[string]string, 0, len(doc.rows))
	for _, row := range doc.rows {
		copied := map[string]string{}
		for k, v := range row {
			copied[k] = v
		}
		rows = append(rows, copied)
	}
	return header, rows, nil
}

func (f *fakeBackend) WriteRows(_ context.Context, spreadsheetID string, header []string, rows []map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[spreadsheetID]
	if !ok {
		return fmt.Errorf("no such document: %s", spreadsheetID)
	}
	doc.header = append([]string(nil), header...)
	doc.rows = make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		copied := map[string]string{}
		for k, v := range row {
			copied[k] = v
		}
		doc.rows = append(doc.rows, copied)
	}
	return nil
}

func (f *fakeBackend) docRows(spreadsheetID string) []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[spreadsheetID].rows
}
