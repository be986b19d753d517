package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository     = (*MockUserRepository)(nil)
	_ repository.ArticleRepository  = (*MockArticleRepository)(nil)
	_ repository.FavoriteRepository = (*MockFavoriteRepository)(nil)
	_ repository.FollowRepository   = (*MockFollowRepository)(nil)
	_ repository.CommentRepository  = (*MockCommentRepository)(nil)
	_ repository.TagRepository      = (*MockTagRepository)(nil)
)

// Store is the in-memory state shared by the mock repositories.
// Transactions are serialized and rolled back on error.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users     map[int64]*models.User
	articles  map[int64]*models.Article
	favorites map[models.Favorite]bool
	follows   map[models.Follow]bool
	comments  map[int64]*models.Comment
	tags      map[string]bool

	lastID int64
	now    time.Time
}

// NewStore creates an empty store whose clock starts at a fixed instant
func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*models.User),
		articles:  make(map[int64]*models.Article),
		favorites: make(map[models.Favorite]bool),
		follows:   make(map[models.Follow]bool),
		comments:  make(map[int64]*models.Comment),
		tags:      make(map[string]bool),
		now:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the store clock so that timestamps strictly increase.
// Callers hold s.mu.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

type snapshot struct {
	users     map[int64]*models.User
	articles  map[int64]*models.Article
	favorites map[models.Favorite]bool
	follows   map[models.Follow]bool
	comments  map[int64]*models.Comment
	tags      map[string]bool
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		users:     make(map[int64]*models.User, len(s.users)),
		articles:  make(map[int64]*models.Article, len(s.articles)),
		favorites: make(map[models.Favorite]bool, len(s.favorites)),
		follows:   make(map[models.Follow]bool, len(s.follows)),
		comments:  make(map[int64]*models.Comment, len(s.comments)),
		tags:      make(map[string]bool, len(s.tags)),
	}
	for k, v := range s.users {
		u := *v
		snap.users[k] = &u
	}
	for k, v := range s.articles {
		snap.articles[k] = cloneArticle(v)
	}
	for k, v := range s.favorites {
		snap.favorites[k] = v
	}
	for k, v := range s.follows {
		snap.follows[k] = v
	}
	for k, v := range s.comments {
		c := *v
		snap.comments[k] = &c
	}
	for k, v := range s.tags {
		snap.tags[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.articles = snap.articles
	s.favorites = snap.favorites
	s.follows = snap.follows
	s.comments = snap.comments
	s.tags = snap.tags
}

func cloneArticle(a *models.Article) *models.Article {
	c := *a
	c.TagList = append([]string{}, a.TagList...)
	c.Author = nil
	return &c
}

// MockRepositories bundles the mock repositories over one Store
type MockRepositories struct {
	Store    *Store
	User     *MockUserRepository
	Article  *MockArticleRepository
	Favorite *MockFavoriteRepository
	Follow   *MockFollowRepository
	Comment  *MockCommentRepository
	Tag      *MockTagRepository

	TxCalls       int
	SnapshotCalls int
}

func NewMockRepositories() *MockRepositories {
	store := NewStore()
	return &MockRepositories{
		Store:    store,
		User:     &MockUserRepository{store: store},
		Article:  &MockArticleRepository{store: store},
		Favorite: &MockFavoriteRepository{store: store},
		Follow:   &MockFollowRepository{store: store},
		Comment:  &MockCommentRepository{store: store},
		Tag:      &MockTagRepository{store: store},
	}
}

// Repositories exposes the mocks through the repository aggregate
func (m *MockRepositories) Repositories() *repository.Repositories {
	repos := &repository.Repositories{
		User:     m.User,
		Article:  m.Article,
		Favorite: m.Favorite,
		Follow:   m.Follow,
		Comment:  m.Comment,
		Tag:      m.Tag,
	}
	repos.Tx = func(ctx context.Context, fn func(*repository.Repositories) error) error {
		m.Store.txMu.Lock()
		defer m.Store.txMu.Unlock()
		m.TxCalls++

		bound := *repos
		bound.Tx = nil
		bound.Snapshot = nil

		snap := m.Store.snapshot()
		if err := fn(&bound); err != nil {
			m.Store.restore(snap)
			return err
		}
		return nil
	}
	repos.Snapshot = func(ctx context.Context, fn func(*repository.Repositories) error) error {
		m.Store.txMu.Lock()
		defer m.Store.txMu.Unlock()
		m.SnapshotCalls++

		bound := *repos
		bound.Tx = nil
		bound.Snapshot = nil
		return fn(&bound)
	}
	return repos
}

// SeedUser inserts a user and returns it with its generated ID
func (m *MockRepositories) SeedUser(username string) *models.User {
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash-" + username,
		Bio:          "bio of " + username,
		Image:        "https://img.example.com/" + username + ".png",
	}
	_ = m.User.Create(context.Background(), u)
	return u
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	store *Store
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	u := *user
	s.users[u.ID] = &u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user.ID]
	if !ok {
		return repository.ErrMissingReference
	}
	u.Bio = user.Bio
	u.Image = user.Image
	u.UpdatedAt = s.tick()
	user.UpdatedAt = u.UpdatedAt
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	store *Store

	ListError error
	ListCalls int
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[article.AuthorID]; !ok {
		return repository.ErrMissingReference
	}
	for _, a := range s.articles {
		if a.Slug == article.Slug {
			return repository.ErrDuplicate
		}
	}
	article.ID = s.nextID()
	article.TagList = models.NormalizeTags(article.TagList)
	article.FavouritesCount = 0
	article.CreatedAt = s.tick()
	article.UpdatedAt = article.CreatedAt
	s.articles[article.ID] = cloneArticle(article)
	return nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.articles {
		if a.Slug == slug {
			return s.withAuthor(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) GetBySlugForUpdate(ctx context.Context, slug string) (*models.Article, error) {
	return m.GetBySlug(ctx, slug)
}

// withAuthor returns a copy of a joined with its author. Callers hold s.mu.
func (s *Store) withAuthor(a *models.Article) *models.Article {
	c := cloneArticle(a)
	if u, ok := s.users[a.AuthorID]; ok {
		author := *u
		c.Author = &author
	}
	return c
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.articles[article.ID]
	if !ok {
		return repository.ErrMissingReference
	}
	stored.Title = article.Title
	stored.Description = article.Description
	stored.Body = article.Body
	stored.TagList = append([]string{}, models.NormalizeTags(article.TagList)...)
	stored.UpdatedAt = s.tick()
	article.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.articles, id)
	for f := range s.favorites {
		if f.ArticleID == id {
			delete(s.favorites, f)
		}
	}
	for cid, c := range s.comments {
		if c.ArticleID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (m *MockArticleRepository) AdjustFavoritesCount(ctx context.Context, id int64, delta int) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.articles[id]
	if !ok {
		return 0, repository.ErrMissingReference
	}
	stored.FavouritesCount += delta
	return stored.FavouritesCount, nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, 0, m.ListError
	}

	matched := make([]*models.Article, 0)
	for _, a := range s.articles {
		if filter.AuthorIDs != nil && !containsID(filter.AuthorIDs, a.AuthorID) {
			continue
		}
		if filter.ArticleIDs != nil && !containsID(filter.ArticleIDs, a.ID) {
			continue
		}
		if filter.Tag != "" && !strings.Contains(strings.Join(a.TagList, ","), filter.Tag) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	page := make([]*models.Article, 0, end-start)
	for _, a := range matched[start:end] {
		page = append(page, s.withAuthor(a))
	}
	return page, total, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles), nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MockFavoriteRepository is a mock implementation of FavoriteRepository
type MockFavoriteRepository struct {
	store *Store

	AddError error
}

func (m *MockFavoriteRepository) Add(ctx context.Context, userID, articleID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.AddError != nil {
		return false, m.AddError
	}
	if _, ok := s.articles[articleID]; !ok {
		return false, repository.ErrMissingReference
	}
	key := models.Favorite{UserID: userID, ArticleID: articleID}
	if s.favorites[key] {
		return false, nil
	}
	s.favorites[key] = true
	return true, nil
}

func (m *MockFavoriteRepository) Remove(ctx context.Context, userID, articleID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.Favorite{UserID: userID, ArticleID: articleID}
	if !s.favorites[key] {
		return false, nil
	}
	delete(s.favorites, key)
	return true, nil
}

func (m *MockFavoriteRepository) Exists(ctx context.Context, userID, articleID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[models.Favorite{UserID: userID, ArticleID: articleID}], nil
}

func (m *MockFavoriteRepository) ArticleIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int64{}
	for f := range s.favorites {
		if f.UserID == userID {
			ids = append(ids, f.ArticleID)
		}
	}
	return ids, nil
}

func (m *MockFavoriteRepository) FavoritedAmong(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[int64]bool, len(articleIDs))
	for _, id := range articleIDs {
		if s.favorites[models.Favorite{UserID: userID, ArticleID: id}] {
			result[id] = true
		}
	}
	return result, nil
}

func (m *MockFavoriteRepository) CountByArticle(ctx context.Context, articleID int64) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for f := range s.favorites {
		if f.ArticleID == articleID {
			count++
		}
	}
	return count, nil
}

// MockFollowRepository is a mock implementation of FollowRepository
type MockFollowRepository struct {
	store *Store
}

func (m *MockFollowRepository) Create(ctx context.Context, followerID, followingID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[followingID]; !ok {
		return false, repository.ErrMissingReference
	}
	key := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if s.follows[key] {
		return false, nil
	}
	s.follows[key] = true
	return true, nil
}

func (m *MockFollowRepository) Delete(ctx context.Context, followerID, followingID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if !s.follows[key] {
		return false, nil
	}
	delete(s.follows, key)
	return true, nil
}

func (m *MockFollowRepository) Exists(ctx context.Context, followerID, followingID int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows[models.Follow{FollowerID: followerID, FollowingID: followingID}], nil
}

func (m *MockFollowRepository) FollowingIDs(ctx context.Context, followerID int64) ([]int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []int64{}
	for f := range s.follows {
		if f.FollowerID == followerID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *Store
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[comment.ArticleID]; !ok {
		return repository.ErrMissingReference
	}
	comment.ID = s.nextID()
	comment.CreatedAt = s.tick()
	comment.UpdatedAt = comment.CreatedAt
	c := *comment
	c.Author = nil
	s.comments[c.ID] = &c
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	return s.commentWithAuthor(c), nil
}

func (m *MockCommentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Comment, error) {
	return m.GetByID(ctx, id)
}

func (s *Store) commentWithAuthor(c *models.Comment) *models.Comment {
	out := *c
	if u, ok := s.users[c.AuthorID]; ok {
		author := *u
		out.Author = &author
	}
	return &out
}

func (m *MockCommentRepository) ListByArticle(ctx context.Context, articleID int64) ([]*models.Comment, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := []*models.Comment{}
	for _, c := range s.comments {
		if c.ArticleID == articleID {
			comments = append(comments, s.commentWithAuthor(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments), nil
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	store *Store

	RegisterError error
}

func (m *MockTagRepository) List(ctx context.Context) ([]string, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := make([]string, 0, len(s.tags))
	for t := range s.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (m *MockTagRepository) Register(ctx context.Context, names []string) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.RegisterError != nil {
		return m.RegisterError
	}
	for _, n := range names {
		if n != "" {
			s.tags[n] = true
		}
	}
	return nil
}
