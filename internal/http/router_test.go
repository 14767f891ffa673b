package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	repotest "github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos/testutil"
	domainagg "github.com/Stari-kolomoni/kolomoni-backend/internal/domain/aggregates"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/auth"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/domain/edit"
	kolhttp "github.com/Stari-kolomoni/kolomoni-backend/internal/http"
	httpH "github.com/Stari-kolomoni/kolomoni-backend/internal/http/handlers"
	httpMW "github.com/Stari-kolomoni/kolomoni-backend/internal/http/middleware"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/indexer"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/search"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/services"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/utils"
)

type apiFixture struct {
	t      *testing.T
	ctx    context.Context
	router *gin.Engine
	users  domainagg.UserAggregate
	auth   services.AuthService
	ix     *indexer.Indexer
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	idx := search.NewMemoryIndex(log)
	ix := indexer.New(indexer.Deps{Log: log, Repos: set, Index: idx}, indexer.Config{Owner: "api-test"})

	base := aggregates.BaseDeps{DB: db, Log: log, Repos: set, Notifier: aggregates.FeedNotifiers{ix}}
	lex := aggregates.NewLexiconAggregate(aggregates.LexiconAggregateDeps{Base: base})
	users := aggregates.NewUserAggregate(aggregates.UserAggregateDeps{Base: base})
	authSvc := services.NewAuthService(log, set, users, "router-test-secret", 0)

	router := kolhttp.NewRouter(kolhttp.RouterConfig{
		Log:                log,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, authSvc),
		AuthHandler:        httpH.NewAuthHandler(authSvc),
		UserHandler:        httpH.NewUserHandler(users, set),
		WordHandler:        httpH.NewWordHandler(lex, set),
		MeaningHandler:     httpH.NewMeaningHandler(lex, set),
		CategoryHandler:    httpH.NewCategoryHandler(lex, set),
		TranslationHandler: httpH.NewTranslationHandler(lex, set),
		SearchHandler:      httpH.NewSearchHandler(idx, ix),
		HealthHandler:      httpH.NewHealthHandler(db, idx),
	})
	return &apiFixture{t: t, ctx: context.Background(), router: router, users: users, auth: authSvc, ix: ix}
}

// account creates a user with roles and returns its id and a bearer token.
func (f *apiFixture) account(username string, roles ...auth.Role) (uuid.UUID, string) {
	f.t.Helper()
	hash, err := utils.HashPassword("correct horse")
	require.NoError(f.t, err)
	res, err := f.users.CreateUser(f.ctx, auth.SystemCaller(), domainagg.CreateUserInput{
		Username: username, DisplayName: username, HashedPassword: hash, Roles: roles,
	})
	require.NoError(f.t, err)
	token, _, err := f.auth.IssueAccessToken(res.User.ID)
	require.NoError(f.t, err)
	return res.User.ID, token
}

func (f *apiFixture) do(method, path, token string, body any) (int, map[string]any) {
	f.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func nested(body map[string]any, keys ...string) any {
	var cur any = body
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	status, body := f.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestLoginThenReadMe(t *testing.T) {
	f := newAPIFixture(t)
	id, _ := f.account("marija")

	status, body := f.do(http.MethodPost, "/api/v1/login", "", map[string]string{"username": "marija", "password": "correct horse"})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	status, body = f.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, id.String(), nested(body, "user", "id"))
	assert.Equal(t, []any{"user"}, nested(body, "user", "roles"))

	status, body = f.do(http.MethodPost, "/api/v1/login", "", map[string]string{"username": "marija", "password": "wrong horse"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", errorCode(body))
}

func TestAuthFailures(t *testing.T) {
	f := newAPIFixture(t)
	_, userToken := f.account("janez")
	word := map[string]string{"language": "sl", "lemma": "jezik"}

	status, body := f.do(http.MethodPost, "/api/v1/dictionary/words", "", word)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(body))

	status, body = f.do(http.MethodGet, "/api/v1/search?q=jezik", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(body))

	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words", userToken, word)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "denied", errorCode(body))

	// A token in the query string is not a credential.
	_, adminToken := f.account("admin", auth.RoleAdministrator)
	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words?token="+adminToken, "", word)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorCode(body))
	status, _ = f.do(http.MethodGet, "/api/v1/me?token="+adminToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDictionaryWritesReachSearch(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)

	status, body := f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "sl", "lemma": "jezik"})
	require.Equal(t, http.StatusCreated, status, body)
	slWord := nested(body, "word", "id").(string)
	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "en", "lemma": "language"})
	require.Equal(t, http.StatusCreated, status, body)
	enWord := nested(body, "word", "id").(string)

	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words/"+slWord+"/meanings", admin, map[string]any{"description": "sistem sporazumevanja"})
	require.Equal(t, http.StatusCreated, status, body)
	slMeaning := nested(body, "meaning", "id").(string)
	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words/"+enWord+"/meanings", admin, map[string]any{"description": "system of communication"})
	require.Equal(t, http.StatusCreated, status, body)
	enMeaning := nested(body, "meaning", "id").(string)

	status, body = f.do(http.MethodPost, "/api/v1/dictionary/translations", admin, map[string]string{
		"slovene_meaning_id": slMeaning, "english_meaning_id": enMeaning,
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = f.do(http.MethodGet, "/api/v1/dictionary/words/"+slWord, "", nil)
	require.Equal(t, http.StatusOK, status, body)
	meanings := body["meanings"].([]any)
	require.Len(t, meanings, 1)
	translations := meanings[0].(map[string]any)["translations"].([]any)
	require.Len(t, translations, 1)
	assert.Equal(t, "language", translations[0].(map[string]any)["lemma"])

	_, err := f.ix.CatchUp(f.ctx)
	require.NoError(t, err)

	status, body = f.do(http.MethodGet, "/api/v1/search?q=jezik&lang=en", "", nil)
	require.Equal(t, http.StatusOK, status, body)
	hits := body["hits"].([]any)
	require.Len(t, hits, 1)
	assert.Equal(t, enMeaning, hits[0].(map[string]any)["key"])
	assert.EqualValues(t, f.ix.Position(), body["indexed_through"])

	status, body = f.do(http.MethodGet, "/api/v1/search?q=jezik&lang=de", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorCode(body))
}

func TestErrorStatusMapping(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)

	status, body := f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "de", "lemma": "Sprache"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorCode(body))

	status, _ = f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "sl", "lemma": "miza"})
	require.Equal(t, http.StatusCreated, status)
	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "sl", "lemma": "miza"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "constraint_violation", errorCode(body))

	status, body = f.do(http.MethodGet, "/api/v1/dictionary/words/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(body))

	status, body = f.do(http.MethodGet, "/api/v1/dictionary/words/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorCode(body))
}

func TestCategoryCycleIsConflict(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)

	status, body := f.do(http.MethodPost, "/api/v1/dictionary/categories", admin, map[string]any{"slovene_name": "Narava", "english_name": "Nature"})
	require.Equal(t, http.StatusCreated, status, body)
	parent := nested(body, "category", "id").(string)
	status, body = f.do(http.MethodPost, "/api/v1/dictionary/categories", admin, map[string]any{
		"slovene_name": "Živali", "english_name": "Animals", "parent_id": parent,
	})
	require.Equal(t, http.StatusCreated, status, body)
	child := nested(body, "category", "id").(string)

	status, body = f.do(http.MethodPatch, "/api/v1/dictionary/categories/"+parent, admin, map[string]any{"parent_id": child})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "cycle_detected", errorCode(body))

	status, body = f.do(http.MethodPatch, "/api/v1/dictionary/categories/"+child, admin, map[string]any{"parent_id": nil})
	require.Equal(t, http.StatusOK, status, body)
	assert.Nil(t, nested(body, "category", "parent_category_id"))
}

func TestMeaningPatchKeepsAbsentFields(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)

	_, body := f.do(http.MethodPost, "/api/v1/dictionary/words", admin, map[string]string{"language": "sl", "lemma": "pes"})
	word := nested(body, "word", "id").(string)
	status, body := f.do(http.MethodPost, "/api/v1/dictionary/words/"+word+"/meanings", admin, map[string]any{
		"description": "domača žival", "abbreviation": "p.",
	})
	require.Equal(t, http.StatusCreated, status, body)
	meaning := nested(body, "meaning", "id").(string)

	status, body = f.do(http.MethodPatch, "/api/v1/dictionary/meanings/"+meaning, admin, map[string]any{"abbreviation": nil})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "domača žival", nested(body, "meaning", "detail", "description"))
	assert.Nil(t, nested(body, "meaning", "detail", "abbreviation"))
}

func TestHistoryLabelsDeletedAuthor(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)
	editorID, editor := f.account("editor", auth.AllRoles()...)

	status, body := f.do(http.MethodPost, "/api/v1/dictionary/words", editor, map[string]string{"language": "en", "lemma": "tree"})
	require.Equal(t, http.StatusCreated, status, body)
	word := nested(body, "word", "id").(string)

	status, body = f.do(http.MethodGet, "/api/v1/dictionary/words/"+word+"/history", "", nil)
	require.Equal(t, http.StatusOK, status, body)
	edits := body["edits"].([]any)
	require.Len(t, edits, 1)
	assert.Equal(t, "editor", edits[0].(map[string]any)["author"])

	status, body = f.do(http.MethodDelete, "/api/v1/users/"+editorID.String(), admin, nil)
	require.Equal(t, http.StatusOK, status, body)

	status, body = f.do(http.MethodGet, "/api/v1/dictionary/words/"+word+"/history", "", nil)
	require.Equal(t, http.StatusOK, status, body)
	edits = body["edits"].([]any)
	require.Len(t, edits, 1)
	assert.Equal(t, edit.DeletedAuthorLabel, edits[0].(map[string]any)["author"])
	assert.Nil(t, edits[0].(map[string]any)["author_id"])
}

func TestRoleAssignmentTakesEffectImmediately(t *testing.T) {
	f := newAPIFixture(t)
	_, admin := f.account("admin", auth.AllRoles()...)
	userID, user := f.account("janez")
	word := map[string]string{"language": "sl", "lemma": "hiša"}

	status, _ := f.do(http.MethodPost, "/api/v1/dictionary/words", user, word)
	require.Equal(t, http.StatusForbidden, status)

	status, body := f.do(http.MethodPost, "/api/v1/users/"+userID.String()+"/roles", admin, map[string]string{"role": "administrator"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = f.do(http.MethodPost, "/api/v1/dictionary/words", user, word)
	require.Equal(t, http.StatusCreated, status, body)
	wordID := nested(body, "word", "id").(string)

	status, body = f.do(http.MethodDelete, "/api/v1/users/"+userID.String()+"/roles/administrator", admin, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []any{"user"}, nested(body, "user", "roles"))

	status, _ = f.do(http.MethodDelete, "/api/v1/dictionary/words/"+wordID, user, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
