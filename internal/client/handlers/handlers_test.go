package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/provider/drive"
)

// fakeCloud is an in-memory Forked Cloud: just enough of the file and
// container API for a full sync session through the real provider. It
// accepts any bearer token.
type fakeCloud struct {
	srv *httptest.Server

	mu    sync.Mutex
	files map[string]cloudFile
	seq   int
	gate  chan struct{} // when set, container lookups block until closed
}

type cloudFile struct {
	ID           string
	Name         string
	Class        string
	Content      []byte
	LastModified int64
}

func newFakeCloud(t *testing.T) *fakeCloud {
	t.Helper()

	f := &fakeCloud{files: make(map[string]cloudFile)}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/v1/containers/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		gate := f.gate
		f.mu.Unlock()
		if gate != nil {
			<-gate
		}
		writeJSON(t, w, http.StatusOK, &drive.ContainerInfo{ID: r.PathValue("id"), Name: "Kitchen"})
	})

	mux.HandleFunc("GET /api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		class := r.URL.Query().Get("class")
		listing := &drive.ListFilesResponse{Files: []drive.FileInfo{}}
		f.mu.Lock()
		for _, file := range f.files {
			if file.Class != class {
				continue
			}
			listing.Files = append(listing.Files, drive.FileInfo{
				ID:           file.ID,
				Name:         file.Name,
				LastModified: file.LastModified,
				Size:         int64(len(file.Content)),
			})
		}
		f.mu.Unlock()
		writeJSON(t, w, http.StatusOK, listing)
	})

	mux.HandleFunc("PUT /api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		lastModified, _ := strconv.ParseInt(r.URL.Query().Get("lastModified"), 10, 64)

		id := f.put(r.URL.Query().Get("class"), header.Filename, body, lastModified)
		writeJSON(t, w, http.StatusOK, &drive.UploadResponse{File: drive.FileInfo{
			ID: id, Name: header.Filename, LastModified: lastModified, Size: int64(len(body)),
		}})
	})

	mux.HandleFunc("GET /api/v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		file, ok := f.files[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			writeJSON(t, w, http.StatusNotFound, &drive.APIError{Code: drive.CodeFileNotFound, Message: "missing"})
			return
		}
		writeJSON(t, w, http.StatusOK, &drive.FileContentResponse{
			ID: file.ID, Name: file.Name, Content: file.Content, LastModified: file.LastModified,
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// put creates or replaces by (class, name), like the real API.
func (f *fakeCloud) put(class, name string, content []byte, lastModified int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, file := range f.files {
		if file.Class == class && file.Name == name {
			file.Content = content
			file.LastModified = lastModified
			f.files[id] = file
			return id
		}
	}

	f.seq++
	id := fmt.Sprintf("f-%d", f.seq)
	f.files[id] = cloudFile{ID: id, Name: name, Class: class, Content: content, LastModified: lastModified}
	return id
}

func (f *fakeCloud) file(class, name string) (cloudFile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.Class == class && file.Name == name {
			return file, true
		}
	}
	return cloudFile{}, false
}

func (f *fakeCloud) setGate(gate chan struct{}) {
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
}

func newTestApp(t *testing.T, cloud *fakeCloud) *app.App {
	t.Helper()

	cfg := &config.Config{
		DataDir: t.TempDir(),
		Drive:   drive.Config{BaseURL: cloud.srv.URL},
	}
	cfg.ApplyDefaults()

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Store().SetContainerID("c1"))
	return a
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
