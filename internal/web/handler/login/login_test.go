package login_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tabledeck/tabledeck/internal/acl"
	"github.com/tabledeck/tabledeck/internal/audit"
	"github.com/tabledeck/tabledeck/internal/authz"
	"github.com/tabledeck/tabledeck/internal/config"
	"github.com/tabledeck/tabledeck/internal/db/models"
	"github.com/tabledeck/tabledeck/internal/group"
	"github.com/tabledeck/tabledeck/internal/schema"
	"github.com/tabledeck/tabledeck/internal/table"
	"github.com/tabledeck/tabledeck/internal/token"
	"github.com/tabledeck/tabledeck/internal/user"
	"github.com/tabledeck/tabledeck/internal/web"
)

const testTimeoutMs = 5000

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Table{},
		&models.TableGroup{},
		&models.TableGroupCreate{},
		&models.TableGroupDelete{},
		&models.Column{},
		&models.ColumnGroup{},
		&models.Row{},
		&models.Cell{},
		&models.AuditLog{},
	)
	require.NoError(t, err, "failed to migrate test database")

	// a second pooled connection would see its own memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.Auth{
			TokenSecret:     "test-secret",
			TokenTTLMinutes: 60,
		},
		Webserver: config.Webserver{
			Port:         8080,
			ShutDownTime: 1,
		},
	}
}

// newTestApp wires the full service the way the daemon does.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	cfg := newTestConfig()
	db := newTestDB(t)
	recorder := audit.NewStore()

	deps := web.Deps{
		Tokens:      token.NewService(cfg.Auth.TokenSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute),
		Resolver:    authz.NewResolver(db),
		Engine:      authz.NewEngine(db, cfg.Auth.CellWriteUsesColumnACL),
		Coordinator: schema.NewCoordinator(db, recorder),
		Grants:      acl.NewStore(db, recorder),
		Audit:       recorder,
		Users:       user.NewService(db, recorder),
		Groups:      group.NewService(db, recorder),
	}
	deps.Tables = table.NewService(db, deps.Engine, deps.Coordinator, recorder)

	return web.New(cfg, db, deps).App, db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, admin bool) *models.User {
	t.Helper()

	u := models.User{
		Username: username,
		Password: models.HashPassword(password),
		Admin:    admin,
	}
	require.NoError(t, db.Create(&u).Error)

	return &u
}

func jsonRequest(t *testing.T, method, target, bearer string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	return req
}

func obtainToken(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/auth/token", "", fiber.Map{
		"username": username,
		"password": password,
	}), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)

	return body.Token
}

func TestIssueToken(t *testing.T) {
	app, db := newTestApp(t)
	seedUser(t, db, "admin", "changeme", true)

	testCases := []struct {
		name           string
		payload        fiber.Map
		expectedStatus int
	}{
		{
			name:           "valid credentials",
			payload:        fiber.Map{"username": "admin", "password": "changeme"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			payload:        fiber.Map{"username": "admin", "password": "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			payload:        fiber.Map{"username": "ghost", "password": "x"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing fields",
			payload:        fiber.Map{"username": "admin"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/auth/token", "", tc.payload), testTimeoutMs)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}

func TestMe(t *testing.T) {
	app, db := newTestApp(t)
	seedUser(t, db, "admin", "changeme", true)

	bearer := obtainToken(t, app, "admin", "changeme")

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/auth/me", bearer, nil), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "admin", me.Username)

	// the stored credential never leaves the server
	assert.Empty(t, me.Password)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/auth/me", "", nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/auth/me", "garbage", nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// A token stays cryptographically valid after its user is deleted; the
// middleware still has to reject it.
func TestDeletedUserTokenIsRejected(t *testing.T) {
	app, db := newTestApp(t)
	seedUser(t, db, "admin", "changeme", true)
	mortal := seedUser(t, db, "mortal", "pass", false)

	bearer := obtainToken(t, app, "mortal", "pass")

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", mortal.ID).Update("deleted", true).Error)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/auth/me", bearer, nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// End to end: an admin creates a table, a plain user cannot see it until
// their group is granted visibility.
func TestVisibilityRoundTrip(t *testing.T) {
	app, db := newTestApp(t)
	seedUser(t, db, "admin", "changeme", true)
	viewer := seedUser(t, db, "viewer", "pass", false)

	adminToken := obtainToken(t, app, "admin", "changeme")
	viewerToken := obtainToken(t, app, "viewer", "pass")

	// admin creates a table
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/tables", adminToken, fiber.Map{
		"name": "inventory",
	}), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Table
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// a plain user cannot create tables
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/tables", viewerToken, fiber.Map{
		"name": "mine",
	}), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// and sees nothing yet
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/tables", viewerToken, nil), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var visible []models.Table
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&visible))
	assert.Empty(t, visible)

	// admin creates a group, adds the viewer, grants visibility
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/groups", adminToken, fiber.Map{
		"name": "viewers",
	}), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var viewers models.Group
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&viewers))

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/users/group", adminToken, fiber.Map{
		"userId":  viewer.ID,
		"groupId": viewers.ID,
	}), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/tables/group", adminToken, fiber.Map{
		"tableId": created.ID,
		"groupId": viewers.ID,
	}), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// granting twice conflicts
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/tables/group", adminToken, fiber.Map{
		"tableId": created.ID,
		"groupId": viewers.ID,
	}), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// now the viewer sees the table
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/tables", viewerToken, nil), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&visible))
	require.Len(t, visible, 1)
	assert.Equal(t, created.ID, visible[0].ID)

	// its columns include the bootstrap action column
	resp, err = app.Test(jsonRequest(t, http.MethodGet,
		fmt.Sprintf("/api/tables/%d/columns", created.ID), viewerToken, nil), testTimeoutMs)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var columns []models.Column
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&columns))
	require.Len(t, columns, 1)
	assert.Equal(t, "action", columns[0].Name)

	// visibility does not imply the row-create grant
	resp, err = app.Test(jsonRequest(t, http.MethodPost,
		fmt.Sprintf("/api/tables/%d/rows", created.ID), viewerToken, nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the audit trail stays admin-only
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/audit", viewerToken, nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/audit", adminToken, nil), testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
