package users

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/saas-admin-client/apiclient"
	"github.com/pkg/errors"
)

// IdentityStore is the session the service keeps in step with profile edits
type IdentityStore interface {
	SetIdentity(user *User)
	Logout() bool
}

// Service wraps the profile and member management endpoints
type Service struct {
	api      apiclient.Requester
	identity IdentityStore
}

func NewService(api apiclient.Requester, identity IdentityStore) (*Service, error) {
	if api == nil {
		return nil, errors.New("[users NewService] api client is required")
	}
	if identity == nil {
		return nil, errors.New("[users NewService] identity store is required")
	}
	return &Service{api: api, identity: identity}, nil
}

// ProfileUpdate holds the self-editable fields; nil fields are unchanged
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// UpdateUserRequest is an admin edit of a member; nil fields are unchanged
type UpdateUserRequest struct {
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Role      *RoleType `json:"role,omitempty"`
	IsActive  *bool     `json:"isActive,omitempty"`
}

// InviteRequest creates a member who completes sign-up from an emailed invite
type InviteRequest struct {
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      RoleType `json:"role"`
}

// ListParams filters the member list
type ListParams struct {
	apiclient.PageParams
	Role     RoleType
	IsActive *bool
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.api.Get(ctx, apiclient.UsersMeRoute, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe edits the signed-in user's profile and refreshes the session identity
func (s *Service) UpdateMe(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	if err := s.api.Patch(ctx, apiclient.UsersMeRoute, update, &user); err != nil {
		return nil, err
	}
	s.identity.SetIdentity(&user)
	return &user, nil
}

// DeleteMe removes the signed-in account and ends the session
func (s *Service) DeleteMe(ctx context.Context, password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	if err := s.api.Delete(ctx, apiclient.UsersMeRoute, map[string]string{"password": password}, nil); err != nil {
		return err
	}
	s.identity.Logout()
	return nil
}

func (s *Service) List(ctx context.Context, params ListParams) (*apiclient.Page[User], error) {
	query := params.Values()
	if params.Role != "" {
		query.Set("role", string(params.Role))
	}
	if params.IsActive != nil {
		query.Set("isActive", strconv.FormatBool(*params.IsActive))
	}

	var page apiclient.Page[User]
	if err := s.api.Get(ctx, apiclient.UsersRoute, &page, apiclient.WithQuery(query)); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.api.Get(ctx, userPath(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Invite(ctx context.Context, req InviteRequest) (*User, error) {
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	if req.Role == "" {
		req.Role = RoleMember
	}
	var user User
	if err := s.api.Post(ctx, apiclient.UsersRoute, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	var user User
	if err := s.api.Patch(ctx, userPath(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.api.Delete(ctx, userPath(id), nil, nil)
}

func (s *Service) ResendInvite(ctx context.Context, id string) error {
	return s.api.Post(ctx, fmt.Sprintf(apiclient.UserResendInviteRoute, url.PathEscape(id)), nil, nil)
}

func userPath(id string) string {
	return fmt.Sprintf(apiclient.UserRoute, url.PathEscape(id))
}
