package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userhub/internal/cache"
	"userhub/internal/models"
	"userhub/internal/repository"
)

const listCachePrefix = "users:list:"

const (
	defaultPage    = 1
	defaultPerPage = 20
	maxPerPage     = 100
)

type UserService struct {
	users   UserStore
	cache   *cache.Store
	listTTL time.Duration
	log     zerolog.Logger
}

func NewUserService(users UserStore, cacheStore *cache.Store, listTTL time.Duration, log zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		cache:   cacheStore,
		listTTL: listTTL,
		log:     log,
	}
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies the patch. Emails are stored lowercase so the unique
// constraint and the case-insensitive login lookup agree on one row.
func (s *UserService) Update(ctx context.Context, id int64, patch repository.UserPatch) (models.User, error) {
	if patch.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*patch.Email))
		patch.Email = &email
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return models.User{}, err
	}
	s.cache.InvalidatePrefix(ctx, listCachePrefix)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(ctx, listCachePrefix)
	s.log.Info().Int64("user_id", id).Msg("user soft-deleted")
	return nil
}

type ListQuery struct {
	Page    int
	PerPage int
	Name    string
	Email   string
	Sort    string
	SortBy  string
}

// Clamp normalizes out-of-range paging values to defaults instead of
// rejecting them, and pins the sort direction to asc/desc.
func (q *ListQuery) Clamp() {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.PerPage < 1 || q.PerPage > maxPerPage {
		q.PerPage = defaultPerPage
	}
	if q.Sort != "asc" && q.Sort != "desc" {
		q.Sort = "desc"
	}
	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
}

type ListMeta struct {
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
	Pages   int    `json:"pages"`
	Sort    string `json:"sort"`
	SortBy  string `json:"sort_by"`
}

type UserView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ListResult struct {
	Items []UserView `json:"items"`
	Meta  ListMeta   `json:"meta"`
}

// List serves paginated users through the read-through cache. Cache failures
// degrade to a direct store read.
func (s *UserService) List(ctx context.Context, query ListQuery) (ListResult, error) {
	query.Clamp()

	cacheKey := fmt.Sprintf("%spage=%d&per=%d&name=%s&email=%s&sort=%s&sort_by=%s",
		listCachePrefix, query.Page, query.PerPage, query.Name, query.Email, query.Sort, query.SortBy)

	var cached ListResult
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	users, total, err := s.users.List(ctx, repository.ListFilter{
		Name:    query.Name,
		Email:   query.Email,
		SortBy:  query.SortBy,
		SortDir: query.Sort,
		Offset:  (query.Page - 1) * query.PerPage,
		Limit:   query.PerPage,
	})
	if err != nil {
		return ListResult{}, err
	}

	items := make([]UserView, 0, len(users))
	for _, u := range users {
		items = append(items, NewUserView(u))
	}

	result := ListResult{
		Items: items,
		Meta: ListMeta{
			Page:    query.Page,
			PerPage: query.PerPage,
			Total:   total,
			Pages:   int(math.Ceil(float64(total) / float64(query.PerPage))),
			Sort:    query.Sort,
			SortBy:  query.SortBy,
		},
	}

	s.cache.Set(ctx, cacheKey, result, s.listTTL)
	return result, nil
}

func NewUserView(u models.User) UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}
