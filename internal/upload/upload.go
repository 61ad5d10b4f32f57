// Package upload hands a redacted document to its destination.
//
// The Uploader contract is deliberately small: the document either arrives
// or the call returns an error. HTTPUploader posts a multipart form to a
// document service and DirUploader files documents under a local directory.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is one baked asset addressed to a subject.
type Document struct {
	// SubjectID identifies who the document belongs to.
	SubjectID string

	// DocumentID identifies the document. A random id is used when empty.
	DocumentID string

	// FileName is the name the user selected the source under.
	FileName string

	// Format is the encoder name of Data ("png", "jpeg", ...).
	Format string

	ContentType string
	Data        []byte
}

// Uploader stores a document.
type Uploader interface {
	Upload(ctx context.Context, doc Document) error
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// prepare validates doc and fills in its defaults.
func prepare(doc Document) (Document, error) {
	if strings.TrimSpace(doc.SubjectID) == "" {
		return doc, fmt.Errorf("subject id is required")
	}
	if len(doc.Data) == 0 {
		return doc, fmt.Errorf("document has no data")
	}
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	if doc.ContentType == "" {
		doc.ContentType = "application/octet-stream"
	}
	return doc, nil
}

// fileName returns the stored name: the document id plus the format's
// extension.
func fileName(doc Document) string {
	ext := doc.Format
	switch ext {
	case "":
		ext = strings.TrimPrefix(filepath.Ext(doc.FileName), ".")
	case "jpeg":
		ext = "jpg"
	case "tiff":
		ext = "tif"
	}
	name := sanitize(doc.DocumentID)
	if ext == "" {
		return name
	}
	return name + "." + ext
}

func sanitize(s string) string {
	s = unsafeName.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "_"
	}
	return s
}

// HTTPUploader posts documents as multipart/form-data with subject_id,
// document_id and a "file" part.
type HTTPUploader struct {
	url        string
	httpClient *http.Client
	headers    map[string]string
}

// NewHTTPUploader returns an uploader posting to url.
func NewHTTPUploader(url string, timeout time.Duration) (*HTTPUploader, error) {
	if url == "" {
		return nil, fmt.Errorf("upload URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPUploader{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		headers:    map[string]string{},
	}, nil
}

// SetHeader adds a header sent with every upload, such as Authorization.
func (u *HTTPUploader) SetHeader(key, value string) {
	u.headers[key] = value
}

// Upload sends doc. Any status outside 2xx is an error.
func (u *HTTPUploader) Upload(ctx context.Context, doc Document) error {
	doc, err := prepare(doc)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("subject_id", doc.SubjectID); err != nil {
		return fmt.Errorf("failed to write form: %w", err)
	}
	if err := mw.WriteField("document_id", doc.DocumentID); err != nil {
		return fmt.Errorf("failed to write form: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName(doc)))
	h.Set("Content-Type", doc.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range u.headers {
		req.Header.Set(k, v)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// DirUploader writes documents to <root>/<subject>/<document>.<ext>.
type DirUploader struct {
	root string
}

// NewDirUploader returns an uploader filing under root.
func NewDirUploader(root string) (*DirUploader, error) {
	if root == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	return &DirUploader{root: root}, nil
}

// Upload writes doc atomically: a temp file in the target directory is
// renamed into place once fully written.
func (u *DirUploader) Upload(ctx context.Context, doc Document) error {
	doc, err := prepare(doc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(u.root, sanitize(doc.SubjectID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create subject directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close document: %w", err)
	}

	target := filepath.Join(dir, fileName(doc))
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Path returns where doc would be stored.
func (u *DirUploader) Path(doc Document) string {
	return filepath.Join(u.root, sanitize(doc.SubjectID), fileName(doc))
}
