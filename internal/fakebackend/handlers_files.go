package fakebackend

import (
	"io"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/saas-admin-client/files"
)

const bucket = "saas-files"

func (b *Backend) initFileRoutes() {
	b.handle("POST /files", b.authenticated(b.handleUploadFile))
	b.handle("POST /files/presigned-upload", b.authenticated(b.handlePresignedUpload))
	b.handle("POST /files/confirm", b.authenticated(b.handleConfirmUpload))
	b.handle("GET /files", b.authenticated(b.handleListFiles))
	b.handle("GET /files/{id}", b.authenticated(b.handleGetFile))
	b.handle("GET /files/{id}/download", b.authenticated(b.handleDownloadFile))
	b.handle("DELETE /files/{id}", b.authenticated(b.handleDeleteFile))
}

func (b *Backend) handleUploadFile(w http.ResponseWriter, r *http.Request, p principal) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		b.fail(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		b.fail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	mimeType := header.Header.Get("Content-Type")
	if byExt := mime.TypeByExtension(path.Ext(header.Filename)); byExt != "" {
		mimeType = byExt
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	record := b.storeFileLocked(p, files.ConfirmUploadRequest{
		Key:          p.companyID + "/" + uuid.NewString() + "/" + header.Filename,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         size,
		ResourceType: r.FormValue("resourceType"),
		ResourceID:   r.FormValue("resourceId"),
	})
	b.respond(w, http.StatusCreated, record)
}

func (b *Backend) handlePresignedUpload(w http.ResponseWriter, r *http.Request, p principal) {
	var req files.PresignedUploadRequest
	if err := decodeBody(r, &req); err != nil || req.OriginalName == "" || req.MimeType == "" {
		b.fail(w, http.StatusBadRequest, []string{"originalName should not be empty", "mimeType should not be empty"})
		return
	}
	key := p.companyID + "/" + uuid.NewString() + "/" + req.OriginalName
	b.respond(w, http.StatusCreated, files.PresignedUpload{
		UploadURL: "https://storage.example.test/" + bucket + "/" + key + "?signature=fake",
		Key:       key,
		ExpiresIn: 900,
	})
}

func (b *Backend) handleConfirmUpload(w http.ResponseWriter, r *http.Request, p principal) {
	var req files.ConfirmUploadRequest
	if err := decodeBody(r, &req); err != nil || req.Key == "" {
		b.fail(w, http.StatusBadRequest, []string{"key should not be empty"})
		return
	}
	if !strings.HasPrefix(req.Key, p.companyID+"/") {
		b.fail(w, http.StatusForbidden, "Key does not belong to this company")
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.respond(w, http.StatusCreated, b.storeFileLocked(p, req))
}

func (b *Backend) storeFileLocked(p principal, req files.ConfirmUploadRequest) *files.Record {
	now := b.nowTime()
	u := p.account.user
	record := &files.Record{
		ID:           uuid.NewString(),
		CompanyID:    p.companyID,
		UploadedByID: u.ID,
		Key:          req.Key,
		Bucket:       bucket,
		OriginalName: req.OriginalName,
		MimeType:     req.MimeType,
		Size:         req.Size,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		CreatedAt:    now,
		UpdatedAt:    now,
		UploadedBy:   &files.Uploader{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email},
	}
	b.files[record.ID] = record
	return record
}

func (b *Backend) handleListFiles(w http.ResponseWriter, r *http.Request, p principal) {
	q := r.URL.Query()

	b.lock.Lock()
	defer b.lock.Unlock()

	var records []files.Record
	for _, f := range b.files {
		if f.CompanyID != p.companyID {
			continue
		}
		if rt := q.Get("resourceType"); rt != "" && f.ResourceType != rt {
			continue
		}
		if id := q.Get("resourceId"); id != "" && f.ResourceID != id {
			continue
		}
		records = append(records, *f)
	}
	slices.SortFunc(records, func(x, y files.Record) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(x.OriginalName, y.OriginalName)
	})
	b.respond(w, http.StatusOK, paginate(r, records))
}

func (b *Backend) fileLocked(w http.ResponseWriter, r *http.Request, p principal) *files.Record {
	f, ok := b.files[r.PathValue("id")]
	if !ok || f.CompanyID != p.companyID {
		b.fail(w, http.StatusNotFound, "File not found")
		return nil
	}
	return f
}

func (b *Backend) handleGetFile(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if f := b.fileLocked(w, r, p); f != nil {
		b.respond(w, http.StatusOK, f)
	}
}

func (b *Backend) handleDownloadFile(w http.ResponseWriter, r *http.Request, p principal) {
	expiresIn := queryInt(r, "expiresIn", 3600)

	b.lock.Lock()
	defer b.lock.Unlock()
	if f := b.fileLocked(w, r, p); f != nil {
		b.respond(w, http.StatusOK, map[string]string{
			"url": "https://storage.example.test/" + f.Bucket + "/" + f.Key + "?expires=" + strconv.Itoa(expiresIn),
		})
	}
}

func (b *Backend) handleDeleteFile(w http.ResponseWriter, r *http.Request, p principal) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if f := b.fileLocked(w, r, p); f != nil {
		delete(b.files, f.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}
