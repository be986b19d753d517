package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-api/internal/api"
	"github.com/conduit-api/internal/apperror"
	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/mocks"
	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

type testServer struct {
	router   *gin.Engine
	repos    *mocks.MockRepositories
	services *service.Services
	health   *mocks.MockHealthChecker
}

func setupTestRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	repos := mocks.NewMockRepositories()
	services := service.NewServices(repos.Repositories(), cfg, zerolog.Nop())
	health := &mocks.MockHealthChecker{}

	return &testServer{
		router:   api.NewRouter(services, health, cfg, zerolog.Nop()),
		repos:    repos,
		services: services,
		health:   health,
	}
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != service.AnonymousUserID {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createArticle(t *testing.T, author *models.User, title string, tags ...string) models.ArticleView {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/articles", author.ID, gin.H{"article": gin.H{
		"title":       title,
		"description": "about " + title,
		"body":        "body of " + title,
		"tagList":     tags,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res models.ArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Article
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorDetail {
	t.Helper()
	var body struct {
		Error api.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "conduit-api", response["service"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReadyEndpoint(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodGet, "/ready", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.health.Err = errors.New("connection refused")
	w = s.do(t, http.MethodGet, "/ready", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 2, s.health.Calls)

	w = s.do(t, http.MethodGet, "/live", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	s.do(t, http.MethodGet, "/api/tags", 0, nil)

	w := s.do(t, http.MethodGet, "/metrics", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "conduit_http_requests_total")
}

func TestStatsEndpoint(t *testing.T) {
	s := setupTestRouter(t)
	s.services.Stats = &mocks.MockStatsService{Stats: models.Stats{Users: 1000, Articles: 500, Comments: 2000}}
	s.router = api.NewRouter(s.services, s.health, config.Defaults(), zerolog.Nop())

	w := s.do(t, http.MethodGet, "/stats", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	db := response["database"].(map[string]interface{})
	assert.Equal(t, float64(1000), db["users"])
	assert.Equal(t, float64(2000), db["comments"])
}

func TestInternalErrorsAreMasked(t *testing.T) {
	s := setupTestRouter(t)
	s.services.Tag = &mocks.MockTagService{ListFunc: func(ctx context.Context) ([]string, error) {
		return nil, errors.New("pq: relation \"tags\" does not exist")
	}}
	s.router = api.NewRouter(s.services, s.health, config.Defaults(), zerolog.Nop())

	w := s.do(t, http.MethodGet, "/api/tags", 0, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	detail := decodeError(t, w)
	assert.Equal(t, apperror.KindInternal, detail.Kind)
	assert.NotContains(t, detail.Message, "pq:")
}

func TestCreateArticle(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")

	article := s.createArticle(t, alice, "Hello World", "go")
	assert.Regexp(t, `^hello-world-[0-9a-f-]{36}$`, article.Slug)
	assert.Equal(t, []string{"go"}, article.TagList)
	assert.Equal(t, "alice", article.Author.Username)

	w := s.do(t, http.MethodGet, "/api/tags", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tags":["go"]}`, w.Body.String())
}

func TestCreateArticle_RequiresIdentity(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodPost, "/api/articles", 0, gin.H{"article": gin.H{"title": "t"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.KindUnauthorized, decodeError(t, w).Kind)
}

func TestCreateArticle_MalformedIdentity(t *testing.T) {
	s := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("X-User-ID", "not-a-number")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateArticle_Validation(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")

	w := s.do(t, http.MethodPost, "/api/articles", alice.ID, gin.H{"article": gin.H{"title": "", "body": "b"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	detail := decodeError(t, w)
	assert.Equal(t, apperror.KindValidation, detail.Kind)
	assert.Contains(t, detail.Fields, "title")
	assert.Contains(t, detail.Fields, "description")
}

func TestCreateArticle_MalformedBody(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")

	req := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatInt(alice.ID, 10))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetArticle(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	article := s.createArticle(t, alice, "Readable")

	w := s.do(t, http.MethodGet, "/api/articles/"+article.Slug, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, article.Slug, res.Article.Slug)
	assert.NotContains(t, w.Body.String(), "alice@example.com")
	assert.NotContains(t, w.Body.String(), "hash-alice")

	w = s.do(t, http.MethodGet, "/api/articles/unknown", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateArticle(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	bob := s.repos.SeedUser("bob")
	article := s.createArticle(t, alice, "Draft")

	w := s.do(t, http.MethodPut, "/api/articles/"+article.Slug, bob.ID, gin.H{"article": gin.H{"title": "Stolen"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/articles/"+article.Slug, alice.ID, gin.H{"article": gin.H{"body": "Final body"}})
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, article.Slug, res.Article.Slug)
	assert.Equal(t, "Draft", res.Article.Title)
	assert.Equal(t, "Final body", res.Article.Body)
}

func TestDeleteArticle(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	article := s.createArticle(t, alice, "Temporary")

	w := s.do(t, http.MethodDelete, "/api/articles/"+article.Slug, alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Article successfully deleted", res.Message)
	assert.Equal(t, article.Slug, res.Article.Slug)

	w = s.do(t, http.MethodGet, "/api/articles/"+article.Slug, 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteArticle(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	bob := s.repos.SeedUser("bob")
	article := s.createArticle(t, alice, "Likeable")
	path := "/api/articles/" + article.Slug + "/favorite"

	w := s.do(t, http.MethodPost, path, bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Article successfully favourited", res.Message)
	assert.True(t, res.Article.Favourited)
	assert.Equal(t, 1, res.Article.FavouritesCount)

	w = s.do(t, http.MethodPost, path, bob.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.KindConflict, decodeError(t, w).Kind)

	w = s.do(t, http.MethodDelete, path, bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Article.FavouritesCount)

	w = s.do(t, http.MethodDelete, path, bob.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListArticles(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	bob := s.repos.SeedUser("bob")
	s.createArticle(t, alice, "One", "go")
	s.createArticle(t, bob, "Two", "rust")
	three := s.createArticle(t, alice, "Three", "go")

	w := s.do(t, http.MethodGet, "/api/articles?author=alice&limit=1", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Articles, 1)
	assert.Equal(t, 2, res.ArticlesCount)
	assert.Equal(t, three.Slug, res.Articles[0].Slug)

	w = s.do(t, http.MethodGet, "/api/articles?favouritedBy=bob", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[],"articlesCount":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/articles?offset=-1", 0, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/api/articles?limit=abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeed(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	bob := s.repos.SeedUser("bob")
	article := s.createArticle(t, bob, "For followers")

	w := s.do(t, http.MethodGet, "/api/articles/feed", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/articles/feed", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[],"articlesCount":0}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/profiles/bob/follow", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/articles/feed", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res models.ArticlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Articles, 1)
	assert.Equal(t, article.Slug, res.Articles[0].Slug)
	assert.True(t, res.Articles[0].Author.Following)
}

func TestProfiles(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	s.repos.SeedUser("bob")

	w := s.do(t, http.MethodGet, "/api/profiles/bob", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"profile":{"username":"bob","bio":"bio of bob","image":"https://img.example.com/bob.png","following":false}}`,
		w.Body.String())

	w = s.do(t, http.MethodPost, "/api/profiles/bob/follow", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res models.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Profile.Following)

	w = s.do(t, http.MethodPost, "/api/profiles/bob/follow", alice.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/profiles/alice/follow", alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/profiles/bob/follow", alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Profile.Following)

	w = s.do(t, http.MethodGet, "/api/profiles/ghost", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")
	bob := s.repos.SeedUser("bob")
	article := s.createArticle(t, alice, "Discussed")
	base := "/api/articles/" + article.Slug + "/comments"

	w := s.do(t, http.MethodPost, base, bob.ID, gin.H{"comment": gin.H{"body": "Great read"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Great read", created.Comment.Body)
	assert.Equal(t, "bob", created.Comment.Author.Username)

	w = s.do(t, http.MethodGet, base, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.CommentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Comments, 1)

	commentPath := base + "/" + strconv.FormatInt(created.Comment.ID, 10)
	w = s.do(t, http.MethodDelete, commentPath, alice.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, base+"/abc", bob.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, commentPath, bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted models.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, "Comment successfully deleted", deleted.Message)

	w = s.do(t, http.MethodGet, "/api/articles/unknown/comments", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsers_CreateAndCurrent(t *testing.T) {
	s := setupTestRouter(t)

	w := s.do(t, http.MethodPost, "/api/users", 0, gin.H{"user": gin.H{
		"username": "alice",
		"email":    "Alice@Example.com",
		"bio":      "writes about Go",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "email")

	var created models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.User.ID)
	assert.Equal(t, "alice", created.User.Username)

	w = s.do(t, http.MethodGet, "/api/user", created.User.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, created.User, current.User)

	w = s.do(t, http.MethodPost, "/api/users", 0, gin.H{"user": gin.H{
		"username": "alice",
		"email":    "other@example.com",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/users", 0, gin.H{"user": gin.H{
		"username": "bob",
		"email":    "alice@example.com",
	}})
	assert.Equal(t, http.StatusConflict, w.Code, "email comparison ignores case")

	w = s.do(t, http.MethodPost, "/api/users", 0, gin.H{"user": gin.H{"username": "carol"}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "email")
}

func TestUsers_ResponsesNeverCarryCredentials(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")

	responses := []*httptest.ResponseRecorder{
		s.do(t, http.MethodGet, "/api/user", alice.ID, nil),
		s.do(t, http.MethodPut, "/api/user", alice.ID, gin.H{"user": gin.H{"bio": "updated"}}),
		s.do(t, http.MethodGet, "/api/profiles/alice", 0, nil),
	}
	for _, w := range responses {
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), alice.PasswordHash)
		assert.NotContains(t, w.Body.String(), alice.Email)
		assert.NotContains(t, w.Body.String(), "password")
	}
}

func TestUsers_Update(t *testing.T) {
	s := setupTestRouter(t)
	alice := s.repos.SeedUser("alice")

	w := s.do(t, http.MethodPut, "/api/user", alice.ID, gin.H{"user": gin.H{
		"image": "https://img.example.com/new.png",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "https://img.example.com/new.png", res.User.Image)
	assert.Equal(t, "bio of alice", res.User.Bio, "absent fields are unchanged")

	w = s.do(t, http.MethodPut, "/api/user", alice.ID, gin.H{"user": gin.H{"image": "not a url"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPut, "/api/user", 0, gin.H{"user": gin.H{"bio": "anon"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/user", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/user", 4242, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
