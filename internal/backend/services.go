// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/validation"
)

// Backend API paths.
const (
	PathPublicPosts     = "/api/blog/posts"
	PathAdminPosts      = "/api/admin/blog-posts"
	PathAdminCategories = "/api/admin/blog-categories"
	PathRaces           = "/api/races"
	PathUsers           = "/api/users"
	PathMembershipTypes = "/api/membership-types"
	PathLogin           = "/api/auth/login"
	PathRegister        = "/api/auth/register"
)

// BlogService reads published posts and manages posts from the dashboard.
type BlogService struct {
	client *Client
	admin  resource[models.BlogPost, models.PostInput]
}

// NewBlogService creates a BlogService.
func NewBlogService(c *Client) *BlogService {
	return &BlogService{client: c, admin: resource[models.BlogPost, models.PostInput]{client: c, path: PathAdminPosts}}
}

// ListPublished returns the posts shown on the public blog.
func (s *BlogService) ListPublished(ctx context.Context) ([]models.BlogPost, error) {
	return resource[models.BlogPost, models.PostInput]{client: s.client, path: PathPublicPosts}.list(ctx)
}

// GetBySlug returns a published post.
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var out models.BlogPost
	if err := s.client.Do(ctx, http.MethodGet, PathPublicPosts+"/"+url.PathEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPosts returns every post, drafts included.
func (s *BlogService) ListPosts(ctx context.Context) ([]models.BlogPost, error) {
	return s.admin.list(ctx)
}

// GetPost returns a post by id.
func (s *BlogService) GetPost(ctx context.Context, id string) (*models.BlogPost, error) {
	return s.admin.get(ctx, id)
}

// CreatePost creates a post.
func (s *BlogService) CreatePost(ctx context.Context, in *models.PostInput) (*models.BlogPost, error) {
	return s.admin.create(ctx, in)
}

// UpdatePost replaces a post.
func (s *BlogService) UpdatePost(ctx context.Context, id string, in *models.PostInput) (*models.BlogPost, error) {
	return s.admin.update(ctx, id, in)
}

// DeletePost deletes a post.
func (s *BlogService) DeletePost(ctx context.Context, id string) error {
	return s.admin.remove(ctx, id)
}

// CategoryService manages blog categories.
type CategoryService struct {
	res resource[models.BlogCategory, models.CategoryInput]
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(c *Client) *CategoryService {
	return &CategoryService{res: resource[models.BlogCategory, models.CategoryInput]{client: c, path: PathAdminCategories}}
}

// GetAllCategories returns every category.
func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.BlogCategory, error) {
	return s.res.list(ctx)
}

// GetCategory returns a category by id.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*models.BlogCategory, error) {
	return s.res.get(ctx, id)
}

// CreateCategory creates a category. An empty slug is derived from the name.
func (s *CategoryService) CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.BlogCategory, error) {
	withSlug(in)
	return s.res.create(ctx, in)
}

// UpdateCategory replaces a category. An empty slug is derived from the name.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in *models.CategoryInput) (*models.BlogCategory, error) {
	withSlug(in)
	return s.res.update(ctx, id, in)
}

// DeleteCategory deletes a category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	return s.res.remove(ctx, id)
}

func withSlug(in *models.CategoryInput) {
	if in.Slug == "" {
		in.Slug = validation.Slugify(in.Name)
	}
	if in.Active == nil {
		active := true
		in.Active = &active
	}
}

// RaceService manages the race directory.
type RaceService struct {
	res resource[models.Race, models.RaceInput]
}

// NewRaceService creates a RaceService.
func NewRaceService(c *Client) *RaceService {
	return &RaceService{res: resource[models.Race, models.RaceInput]{client: c, path: PathRaces}}
}

// ListRaces returns every race.
func (s *RaceService) ListRaces(ctx context.Context) ([]models.Race, error) {
	return s.res.list(ctx)
}

// GetRace returns a race by id.
func (s *RaceService) GetRace(ctx context.Context, id string) (*models.Race, error) {
	return s.res.get(ctx, id)
}

// CreateRace creates a race.
func (s *RaceService) CreateRace(ctx context.Context, in *models.RaceInput) (*models.Race, error) {
	return s.res.create(ctx, in)
}

// UpdateRace replaces a race.
func (s *RaceService) UpdateRace(ctx context.Context, id string, in *models.RaceInput) (*models.Race, error) {
	return s.res.update(ctx, id, in)
}

// DeleteRace deletes a race.
func (s *RaceService) DeleteRace(ctx context.Context, id string) error {
	return s.res.remove(ctx, id)
}

// UserService manages platform users.
type UserService struct {
	res resource[models.User, models.UserInput]
}

// NewUserService creates a UserService.
func NewUserService(c *Client) *UserService {
	return &UserService{res: resource[models.User, models.UserInput]{client: c, path: PathUsers}}
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.res.list(ctx)
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.res.get(ctx, id)
}

// CreateUser creates a user.
func (s *UserService) CreateUser(ctx context.Context, in *models.UserInput) (*models.User, error) {
	return s.res.create(ctx, in)
}

// UpdateUser replaces a user.
func (s *UserService) UpdateUser(ctx context.Context, id string, in *models.UserInput) (*models.User, error) {
	return s.res.update(ctx, id, in)
}

// DeleteUser deletes a user.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.res.remove(ctx, id)
}

// MembershipTypeService manages membership plans.
type MembershipTypeService struct {
	res resource[models.MembershipType, models.MembershipTypeInput]
}

// NewMembershipTypeService creates a MembershipTypeService.
func NewMembershipTypeService(c *Client) *MembershipTypeService {
	return &MembershipTypeService{res: resource[models.MembershipType, models.MembershipTypeInput]{client: c, path: PathMembershipTypes}}
}

// ListMembershipTypes returns every membership type.
func (s *MembershipTypeService) ListMembershipTypes(ctx context.Context) ([]models.MembershipType, error) {
	return s.res.list(ctx)
}

// GetMembershipType returns a membership type by id.
func (s *MembershipTypeService) GetMembershipType(ctx context.Context, id string) (*models.MembershipType, error) {
	return s.res.get(ctx, id)
}

// CreateMembershipType creates a membership type.
func (s *MembershipTypeService) CreateMembershipType(ctx context.Context, in *models.MembershipTypeInput) (*models.MembershipType, error) {
	return s.res.create(ctx, in)
}

// UpdateMembershipType replaces a membership type.
func (s *MembershipTypeService) UpdateMembershipType(ctx context.Context, id string, in *models.MembershipTypeInput) (*models.MembershipType, error) {
	return s.res.update(ctx, id, in)
}

// DeleteMembershipType deletes a membership type.
func (s *MembershipTypeService) DeleteMembershipType(ctx context.Context, id string) error {
	return s.res.remove(ctx, id)
}

// AuthService performs credential checks against the backend.
type AuthService struct {
	client *Client
}

// NewAuthService creates an AuthService.
func NewAuthService(c *Client) *AuthService {
	return &AuthService{client: c}
}

// Login exchanges credentials for a token and user.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := s.client.Do(ctx, http.MethodPost, PathLogin, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its token and user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := s.client.Do(ctx, http.MethodPost, PathRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Services bundles every backend service.
type Services struct {
	Blog        *BlogService
	Categories  *CategoryService
	Races       *RaceService
	Users       *UserService
	Memberships *MembershipTypeService
	Auth        *AuthService
}

// NewServices creates every service over one Client.
func NewServices(c *Client) *Services {
	return &Services{
		Blog:        NewBlogService(c),
		Categories:  NewCategoryService(c),
		Races:       NewRaceService(c),
		Users:       NewUserService(c),
		Memberships: NewMembershipTypeService(c),
		Auth:        NewAuthService(c),
	}
}
