package apiclient

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
)

// FilePart is a file field of a multipart upload
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// PostMultipart uploads file along with plain form fields. The form is
// buffered so the request can be replayed after a refresh.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file FilePart, out any, options ...RequestOption) error {
	r, err := newRequest(http.MethodPost, path, options...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(name, value); err != nil {
			return apperrors.Wrapf(err, "[apiclient PostMultipart] failed to write field %s", name)
		}
	}
	part, err := form.CreateFormFile(file.Field, file.FileName)
	if err != nil {
		return apperrors.Wrapf(err, "[apiclient PostMultipart] failed to create file part")
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return apperrors.Wrapf(err, "[apiclient PostMultipart] failed to read %s", file.FileName)
	}
	if err := form.Close(); err != nil {
		return apperrors.Wrapf(err, "[apiclient PostMultipart] failed to finish form")
	}

	r.payload = buf.Bytes()
	r.contentType = form.FormDataContentType()
	return c.execute(ctx, r, out)
}
