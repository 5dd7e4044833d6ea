// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package admin

import (
	"fmt"
	"time"

	"github.com/tomtom215/runit/internal/backend"
	"github.com/tomtom215/runit/internal/models"
	"github.com/tomtom215/runit/internal/validation"
)

// Resource names used in routes, metrics and authorization policies.
const (
	ResourcePosts       = "posts"
	ResourceCategories  = "categories"
	ResourceRaces       = "races"
	ResourceUsers       = "users"
	ResourceMemberships = "memberships"
	ResourceAnalytics   = "analytics"
	ResourceAudit       = "audit"
)

// Screens holds one Screen per managed resource.
type Screens struct {
	Posts       *Screen[models.BlogPost, models.PostInput]
	Categories  *Screen[models.BlogCategory, models.CategoryInput]
	Races       *Screen[models.Race, models.RaceInput]
	Users       *Screen[models.User, models.UserInput]
	Memberships *Screen[models.MembershipType, models.MembershipTypeInput]
}

// NewScreens wires every screen to its backend service.
func NewScreens(svc *backend.Services, confirmTTL time.Duration) *Screens {
	return &Screens{
		Posts: NewScreen(ResourcePosts,
			Ops[models.BlogPost, models.PostInput]{
				List:   svc.Blog.ListPosts,
				Create: svc.Blog.CreatePost,
				Update: svc.Blog.UpdatePost,
				Delete: svc.Blog.DeletePost,
			},
			ignoreCreate(validation.ValidatePost),
			func(p models.BlogPost) []string {
				fields := []string{p.Title, p.Slug, p.Excerpt, p.Status}
				for _, c := range p.Categories {
					fields = append(fields, c.Name)
				}
				return fields
			},
			confirmTTL),

		Categories: NewScreen(ResourceCategories,
			Ops[models.BlogCategory, models.CategoryInput]{
				List:   svc.Categories.GetAllCategories,
				Create: svc.Categories.CreateCategory,
				Update: svc.Categories.UpdateCategory,
				Delete: svc.Categories.DeleteCategory,
			},
			ignoreCreate(validation.ValidateCategory),
			func(c models.BlogCategory) []string { return []string{c.Name, c.Slug, c.Description} },
			confirmTTL),

		Races: NewScreen(ResourceRaces,
			Ops[models.Race, models.RaceInput]{
				List:   svc.Races.ListRaces,
				Create: svc.Races.CreateRace,
				Update: svc.Races.UpdateRace,
				Delete: svc.Races.DeleteRace,
			},
			ignoreCreate(validation.ValidateRace),
			func(r models.Race) []string { return []string{r.Name, r.City, r.State, r.Status} },
			confirmTTL),

		Users: NewScreen(ResourceUsers,
			Ops[models.User, models.UserInput]{
				List:   svc.Users.ListUsers,
				Create: svc.Users.CreateUser,
				Update: svc.Users.UpdateUser,
				Delete: svc.Users.DeleteUser,
			},
			validation.ValidateUser,
			func(u models.User) []string { return []string{u.Name, u.LastName, u.Email, u.Role} },
			confirmTTL),

		Memberships: NewScreen(ResourceMemberships,
			Ops[models.MembershipType, models.MembershipTypeInput]{
				List:   svc.Memberships.ListMembershipTypes,
				Create: svc.Memberships.CreateMembershipType,
				Update: svc.Memberships.UpdateMembershipType,
				Delete: svc.Memberships.DeleteMembershipType,
			},
			ignoreCreate(validation.ValidateMembershipType),
			func(m models.MembershipType) []string {
				return []string{m.Name, m.Description, fmt.Sprintf("%.2f", m.MonthlyPrice)}
			},
			confirmTTL),
	}
}

func ignoreCreate[In any](fn func(*In) error) func(*In, bool) error {
	return func(in *In, _ bool) error { return fn(in) }
}

// Sweep drops expired delete confirmations on every screen.
func (s *Screens) Sweep() int {
	return s.Posts.Sweep() + s.Categories.Sweep() + s.Races.Sweep() + s.Users.Sweep() + s.Memberships.Sweep()
}
