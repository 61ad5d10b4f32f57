package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() Document {
	return Document{
		SubjectID:   "patient-42",
		DocumentID:  "doc-1",
		FileName:    "scan.JPG",
		Format:      "jpeg",
		ContentType: "image/jpeg",
		Data:        []byte("jpeg-bytes"),
	}
}

func TestHTTPUploader_Upload(t *testing.T) {
	var (
		subject, document, filename, partType, auth string
		payload                                     []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		subject = r.FormValue("subject_id")
		document = r.FormValue("document_id")
		auth = r.Header.Get("Authorization")

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		filename = hdr.Filename
		partType = hdr.Header.Get("Content-Type")
		payload, _ = io.ReadAll(f)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	u, err := NewHTTPUploader(srv.URL, 5*time.Second)
	require.NoError(t, err)
	u.SetHeader("Authorization", "Bearer token")

	require.NoError(t, u.Upload(context.Background(), testDoc()))
	assert.Equal(t, "patient-42", subject)
	assert.Equal(t, "doc-1", document)
	assert.Equal(t, "doc-1.jpg", filename)
	assert.Equal(t, "image/jpeg", partType)
	assert.Equal(t, "Bearer token", auth)
	assert.Equal(t, []byte("jpeg-bytes"), payload)
}

func TestHTTPUploader_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u, err := NewHTTPUploader(srv.URL, time.Second)
	require.NoError(t, err)

	err = u.Upload(context.Background(), testDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "storage full")
}

func TestHTTPUploader_Validation(t *testing.T) {
	_, err := NewHTTPUploader("", time.Second)
	assert.Error(t, err)

	u, err := NewHTTPUploader("http://127.0.0.1:1", time.Second)
	require.NoError(t, err)

	noSubject := testDoc()
	noSubject.SubjectID = " "
	assert.Error(t, u.Upload(context.Background(), noSubject))

	noData := testDoc()
	noData.Data = nil
	assert.Error(t, u.Upload(context.Background(), noData))
}

func TestDirUploader_Upload(t *testing.T) {
	root := t.TempDir()
	u, err := NewDirUploader(root)
	require.NoError(t, err)

	doc := testDoc()
	require.NoError(t, u.Upload(context.Background(), doc))

	path := filepath.Join(root, "patient-42", "doc-1.jpg")
	assert.Equal(t, path, u.Path(doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	entries, err := os.ReadDir(filepath.Join(root, "patient-42"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestDirUploader_Overwrite(t *testing.T) {
	u, err := NewDirUploader(t.TempDir())
	require.NoError(t, err)

	doc := testDoc()
	require.NoError(t, u.Upload(context.Background(), doc))
	doc.Data = []byte("second")
	require.NoError(t, u.Upload(context.Background(), doc))

	data, err := os.ReadFile(u.Path(doc))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestDirUploader_Errors(t *testing.T) {
	_, err := NewDirUploader("")
	assert.Error(t, err)

	u, err := NewDirUploader(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, u.Upload(ctx, testDoc()))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"jpeg", Document{DocumentID: "a", Format: "jpeg"}, "a.jpg"},
		{"tiff", Document{DocumentID: "a", Format: "tiff"}, "a.tif"},
		{"png", Document{DocumentID: "a", Format: "png"}, "a.png"},
		{"from file name", Document{DocumentID: "a", FileName: "scan.webp"}, "a.webp"},
		{"no extension", Document{DocumentID: "a"}, "a"},
		{"unsafe id", Document{DocumentID: "../../etc/passwd", Format: "png"}, "etc_passwd.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.doc))
		})
	}
}

func TestPrepare_GeneratesDocumentID(t *testing.T) {
	doc, err := prepare(Document{SubjectID: "s", Data: []byte{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.DocumentID)
	assert.Equal(t, "application/octet-stream", doc.ContentType)
}
