package files

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/pkg/errors"
)

// Service wraps the file storage endpoints
type Service struct {
	api apiclient.Requester
}

func NewService(api apiclient.Requester) (*Service, error) {
	if api == nil {
		return nil, errors.New("[files NewService] api client is required")
	}
	return &Service{api: api}, nil
}

// Resource optionally attaches a file to a domain object
type Resource struct {
	Type string
	ID   string
}

// Upload sends content as a multipart form through the backend
func (s *Service) Upload(ctx context.Context, name string, content io.Reader, resource Resource) (*Record, error) {
	var record Record
	err := s.api.PostMultipart(ctx, apiclient.FilesRoute,
		map[string]string{"resourceType": resource.Type, "resourceId": resource.ID},
		apiclient.FilePart{Field: "file", FileName: name, Content: content},
		&record,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// PresignedUpload reserves a key for a direct-to-storage upload. Call Confirm
// once the object has been written.
func (s *Service) PresignedUpload(ctx context.Context, req PresignedUploadRequest) (*PresignedUpload, error) {
	var out PresignedUpload
	if err := s.api.Post(ctx, apiclient.FilesPresignedUploadRoute, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Confirm(ctx context.Context, req ConfirmUploadRequest) (*Record, error) {
	var record Record
	if err := s.api.Post(ctx, apiclient.FilesConfirmRoute, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListParams filters the file list
type ListParams struct {
	apiclient.PageParams
	Resource Resource
}

func (s *Service) List(ctx context.Context, params ListParams) (*apiclient.Page[Record], error) {
	query := params.Values()
	if params.Resource.Type != "" {
		query.Set("resourceType", params.Resource.Type)
	}
	if params.Resource.ID != "" {
		query.Set("resourceId", params.Resource.ID)
	}

	var page apiclient.Page[Record]
	if err := s.api.Get(ctx, apiclient.FilesRoute, &page, apiclient.WithQuery(query)); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	var record Record
	if err := s.api.Get(ctx, fmt.Sprintf(apiclient.FileRoute, url.PathEscape(id)), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DownloadURL returns a time-limited download link. expiresIn of zero uses
// the backend default.
func (s *Service) DownloadURL(ctx context.Context, id string, expiresIn int) (string, error) {
	var options []apiclient.RequestOption
	if expiresIn > 0 {
		options = append(options, apiclient.WithQuery(url.Values{"expiresIn": {strconv.Itoa(expiresIn)}}))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := s.api.Get(ctx, fmt.Sprintf(apiclient.FileDownloadRoute, url.PathEscape(id)), &out, options...); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Delete(ctx, fmt.Sprintf(apiclient.FileRoute, url.PathEscape(id)), nil, nil)
}
