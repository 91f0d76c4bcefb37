package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"solar-fleet-backend/config"
	"solar-fleet-backend/internal/api"
	"solar-fleet-backend/internal/audit"
	"solar-fleet-backend/internal/auth"
	"solar-fleet-backend/internal/db"
	"solar-fleet-backend/internal/entitlement"
	"solar-fleet-backend/internal/ingest"
	"solar-fleet-backend/internal/integrations"
	"solar-fleet-backend/internal/model"
	"solar-fleet-backend/internal/store"
)

type testEnv struct {
	router  *gin.Engine
	store   store.Store
	cfg     *config.Config
	paToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 10000
	cfg.Server.RateLimitBurst = 10000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.JWTSecret = "integration-test-secret"
	cfg.Auth.JWTExpiresIn = time.Hour
	cfg.Auth.DeviceHMACSecret = "device-test-secret"

	s := store.NewGormStore(gormDB)
	logger := zap.NewNop()
	sink := audit.NewSink(s, logger)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	handler := api.NewHandler(
		s, cfg, issuer,
		entitlement.NewResolver(s),
		sink,
		ingest.NewService(s, sink, logger),
		integrations.StubSim{},
		logger,
	)

	env := &testEnv{router: api.NewRouter(handler), store: s, cfg: cfg}
	env.paToken = env.seedPlatformAdmin(t, issuer)
	return env
}

// seedPlatformAdmin creates the bootstrap operator directly in the store.
func (e *testEnv) seedPlatformAdmin(t *testing.T, issuer *auth.TokenIssuer) string {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword("platform-password")
	require.NoError(t, err)
	user := &model.User{
		ID:           model.NewID(),
		Email:        "root@platform.example",
		Name:         "Platform Root",
		PasswordHash: hash,
		Status:       model.UserStatusActive,
	}
	require.NoError(t, e.store.CreateUser(ctx, user))

	platform := &model.Tenant{ID: model.NewID(), Name: "platform", Type: model.TenantTypeManufacturer}
	require.NoError(t, e.store.CreateTenant(ctx, platform))
	require.NoError(t, e.store.CreateMembership(ctx, &model.Membership{
		ID:       model.NewID(),
		UserID:   user.ID,
		TenantID: platform.ID,
		Role:     model.RolePlatformAdmin,
	}))

	token, err := issuer.Mint(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doHeader(t, method, path, token, nil, body)
}

func (e *testEnv) doHeader(t *testing.T, method, path, token string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// registerAndInvite registers a user, creates a tenant, and binds the
// user to it under the given role. Returns the user token and tenant id.
func (e *testEnv) registerAndInvite(t *testing.T, email string, role model.Role) (string, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "password-123", "name": "User " + email,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode(t, w)["token"].(string)

	w = e.do(t, http.MethodPost, "/api/tenants", e.paToken, gin.H{
		"name": "Tenant for " + email, "type": "INSTALLER",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tenantID := decode(t, w)["id"].(string)

	w = e.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/users/invite", e.paToken, gin.H{
		"email": email, "role": string(role),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return token, tenantID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@example.com", "password": "password-123", "name": "A",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate email conflicts.
	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@example.com", "password": "password-123", "name": "A2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Short password is a validation error.
	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "b@example.com", "password": "short", "name": "B",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "a@example.com", "password": "password-123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "a@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Protected routes need a token.
	w = env.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t)

	tokenA, tenantA := env.registerAndInvite(t, "admin-a@example.com", model.RoleTenantAdmin)
	tokenB, tenantB := env.registerAndInvite(t, "admin-b@example.com", model.RoleTenantAdmin)

	// A provisions a device in tenant A.
	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantA+"/devices", tokenA, gin.H{
		"serialNumber": "SN-A-1", "name": "Rooftop A1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deviceA := decode(t, w)["device"].(map[string]any)["id"].(string)

	// B cannot act in tenant A at all.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantA+"/devices", tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantA+"/devices/"+deviceA, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// B's own listing does not include A's device.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantB+"/devices", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	// A device id from tenant A does not resolve inside tenant B.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantB+"/devices/"+deviceA, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The flat surface resolves the tenant from the x-tenant-id header and
	// enforces the same membership guard.
	w = env.doHeader(t, http.MethodGet, "/api/devices", tokenB,
		map[string]string{"x-tenant-id": tenantA}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doHeader(t, http.MethodGet, "/api/devices", tokenA,
		map[string]string{"x-tenant-id": tenantA}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// The tenantId query value works the same way.
	w = env.do(t, http.MethodGet, "/api/devices?tenantId="+tenantA, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// Without any tenant context, a regular member is refused outright.
	w = env.do(t, http.MethodGet, "/api/devices", tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeviceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	// Site without coordinates; the first geo-bearing reading fills it.
	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/sites", token, gin.H{
		"name": "Block C", "city": "Lisbon",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	siteID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-100", "name": "Rooftop", "siteId": siteID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	deviceID := created["device"].(map[string]any)["id"].(string)
	deviceToken := created["deviceToken"].(string)
	require.NotEmpty(t, deviceToken)

	// Duplicate serial in the tenant conflicts.
	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-100",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Device pushes telemetry with a geo fix.
	w = env.do(t, http.MethodPost, "/api/ingest/telemetry", deviceToken, gin.H{
		"deviceId": deviceID,
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"metrics":  gin.H{"tankTempC": 58.5, "heaterOn": true, "powerW": 1100},
		"geo":      gin.H{"lat": 38.7223, "lon": -9.1393, "source": "EDGE_GNSS"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// A garbage device token is rejected.
	w = env.do(t, http.MethodPost, "/api/ingest/telemetry", deviceID+":deadbeef", gin.H{
		"deviceId": deviceID, "ts": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The twin now carries the derived state.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/devices/"+deviceID+"/twin", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	derived := decode(t, w)["derivedState"].(map[string]any)
	assert.InDelta(t, 58.5, derived["lastTankTempC"], 1e-9)

	// The site inherited the device's first fix.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/sites/"+siteID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	site := decode(t, w)
	require.NotNil(t, site["latitude"])
	assert.InDelta(t, 38.7223, site["latitude"].(float64), 1e-6)

	// The device shows up in the map bbox query.
	w = env.do(t, http.MethodGet,
		"/api/tenants/"+tenantID+"/map/devices?bbox=-10,38,-9,39", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["items"], 1)

	w = env.do(t, http.MethodGet,
		"/api/tenants/"+tenantID+"/map/devices?bbox=nonsense", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommandLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-200",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	deviceID := created["device"].(map[string]any)["id"].(string)
	deviceToken := created["deviceToken"].(string)

	// Queue a boost command; the default entitlement allows it.
	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/devices/"+deviceID+"/commands", token, gin.H{
			"type": "REMOTE_BOOST_SET", "payload": gin.H{"targetTempC": 65},
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commandID := decode(t, w)["id"].(string)

	// The device pulls it and it flips to DELIVERED.
	w = env.do(t, http.MethodGet,
		"/api/devices/"+deviceID+"/commands/pending", deviceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "DELIVERED", items[0].(map[string]any)["status"])

	// Acking a command for a device the token does not match is refused.
	w = env.do(t, http.MethodPost,
		"/api/devices/other-device/commands/"+commandID+"/ack", deviceToken, gin.H{"status": "ACKED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The device acks it.
	w = env.do(t, http.MethodPost,
		"/api/devices/"+deviceID+"/commands/"+commandID+"/ack", deviceToken, gin.H{"status": "ACKED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ACKED", decode(t, w)["status"])

	// A second ack conflicts.
	w = env.do(t, http.MethodPost,
		"/api/devices/"+deviceID+"/commands/"+commandID+"/ack", deviceToken, gin.H{"status": "ACKED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Repolling returns nothing.
	w = env.do(t, http.MethodGet,
		"/api/devices/"+deviceID+"/commands/pending", deviceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestEntitlementGate(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-300",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	deviceID := decode(t, w)["device"].(map[string]any)["id"].(string)

	// A tenant admin may write entitlements for their tenant.
	w = env.do(t, http.MethodPut, "/api/tenants/"+tenantID+"/entitlements", token, gin.H{
		"scope": "TENANT", "key": "BASIC_REMOTE_BOOST", "enabled": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Boost commands are now feature-gated.
	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/devices/"+deviceID+"/commands", token, gin.H{
			"type": "REMOTE_BOOST_SET",
		})
	require.Equal(t, http.StatusForbidden, w.Code)
	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "FEATURE_DISABLED", errBody["code"])

	// Other command types are unaffected.
	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/devices/"+deviceID+"/commands", token, gin.H{
			"type": "SET_CONFIG", "payload": gin.H{"mode": "eco"},
		})
	assert.Equal(t, http.StatusCreated, w.Code)

	// A device-scope override re-enables the flag for one device.
	w = env.do(t, http.MethodPut, "/api/tenants/"+tenantID+"/entitlements", token, gin.H{
		"scope": "DEVICE", "key": "BASIC_REMOTE_BOOST", "deviceId": deviceID, "enabled": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/devices/"+deviceID+"/commands", token, gin.H{
			"type": "REMOTE_BOOST_SET",
		})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestOtaReportStartsScheduledJob(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-401",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	deviceID := created["device"].(map[string]any)["id"].(string)
	deviceToken := created["deviceToken"].(string)

	w = env.do(t, http.MethodPost, "/api/firmware", env.paToken, gin.H{
		"version": "2.5.0", "downloadUrl": "https://firmware.example.com/2.5.0.bin",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	firmwareID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/ota/jobs", token, gin.H{
		"targetType": "DEVICE", "deviceId": deviceID, "firmwareId": firmwareID,
		"scheduledAt": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	jobID := decode(t, w)["id"].(string)

	// An IN_PROGRESS report on a scheduled job starts it without a pull.
	w = env.do(t, http.MethodPost, "/api/devices/"+deviceID+"/ota/report", deviceToken, gin.H{
		"jobId": jobID, "status": "IN_PROGRESS", "progress": gin.H{"pct": 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	job := decode(t, w)
	assert.Equal(t, "IN_PROGRESS", job["status"])
	assert.NotNil(t, job["startedAt"])

	// Once the job is terminal, further reports conflict.
	w = env.do(t, http.MethodPost, "/api/devices/"+deviceID+"/ota/report", deviceToken, gin.H{
		"jobId": jobID, "status": "FAILED", "errorMsg": "flash write error",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/devices/"+deviceID+"/ota/report", deviceToken, gin.H{
		"jobId": jobID, "status": "IN_PROGRESS",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMemberRoleAccess(t *testing.T) {
	env := newTestEnv(t)
	adminToken, tenantID := env.registerAndInvite(t, "admin@example.com", model.RoleTenantAdmin)

	invite := func(email string, role model.Role) string {
		w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"email": email, "password": "password-123", "name": "User " + email,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		memberToken := decode(t, w)["token"].(string)
		w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/users/invite", env.paToken, gin.H{
			"email": email, "role": string(role),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return memberToken
	}
	installerToken := invite("installer@example.com", model.RoleInstaller)
	supportToken := invite("support@example.com", model.RoleSupportAgent)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/sites", adminToken, gin.H{
		"name": "Block D",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	siteID := decode(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", adminToken, gin.H{
		"serialNumber": "SN-500", "siteId": siteID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	deviceID := decode(t, w)["device"].(map[string]any)["id"].(string)

	// Installers queue commands.
	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/devices/"+deviceID+"/commands", installerToken, gin.H{
			"type": "SET_CONFIG", "payload": gin.H{"mode": "eco"},
		})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Support agents adjust site locations.
	w = env.do(t, http.MethodPatch,
		"/api/tenants/"+tenantID+"/sites/"+siteID+"/location", supportToken, gin.H{
			"latitude": 38.71, "longitude": -9.14,
		})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Any tenant member may ack and close alerts.
	ctx := context.Background()
	rule := &model.AlertRule{
		ID:       model.NewID(),
		TenantID: tenantID,
		Name:     "overheat",
		Enabled:  true,
		Type:     model.AlertRuleOverTemp,
		Severity: model.SeverityWarning,
	}
	require.NoError(t, env.store.CreateAlertRule(ctx, rule))
	key := deviceID + ":" + rule.ID
	event := &model.AlertEvent{
		ID:        model.NewID(),
		TenantID:  tenantID,
		DeviceID:  deviceID,
		RuleID:    rule.ID,
		Severity:  model.SeverityWarning,
		Status:    model.AlertEventOpen,
		DedupeKey: &key,
		OpenedAt:  time.Now().UTC(),
	}
	require.NoError(t, env.store.CreateAlertEvent(ctx, event))

	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/alerts/"+event.ID+"/ack", supportToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost,
		"/api/tenants/"+tenantID+"/alerts/"+event.ID+"/close", installerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Entitlement writes stay with admins.
	w = env.do(t, http.MethodPut, "/api/tenants/"+tenantID+"/entitlements", supportToken, gin.H{
		"scope": "TENANT", "key": "BASIC_REMOTE_BOOST", "enabled": false,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)
	_, tenantID := env.registerAndInvite(t, "admin@example.com", model.RoleTenantAdmin)

	// Register a support agent and bind them to the same tenant.
	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "support@example.com", "password": "password-123", "name": "Support",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	supportToken := decode(t, w)["token"].(string)

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/users/invite", env.paToken, gin.H{
		"email": "support@example.com", "role": "SUPPORT_AGENT",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Support agents read devices but cannot provision them.
	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/devices", supportToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", supportToken, gin.H{
		"serialNumber": "SN-X",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nor create tenants.
	w = env.do(t, http.MethodPost, "/api/tenants", supportToken, gin.H{
		"name": "rogue", "type": "INSTALLER",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOtaFlow(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/devices", token, gin.H{
		"serialNumber": "SN-400",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	deviceID := created["device"].(map[string]any)["id"].(string)
	deviceToken := created["deviceToken"].(string)

	// Firmware registration is platform-level.
	w = env.do(t, http.MethodPost, "/api/firmware", token, gin.H{
		"version": "2.4.0", "downloadUrl": "https://firmware.example.com/2.4.0.bin",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/firmware", env.paToken, gin.H{
		"version": "2.4.0", "downloadUrl": "https://firmware.example.com/2.4.0.bin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	firmwareID := decode(t, w)["id"].(string)

	// Scheduling in the past is rejected.
	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/ota/jobs", token, gin.H{
		"targetType": "DEVICE", "deviceId": deviceID, "firmwareId": firmwareID,
		"scheduledAt": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/ota/jobs", token, gin.H{
		"targetType": "DEVICE", "deviceId": deviceID, "firmwareId": firmwareID,
		"scheduledAt": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	jobID := decode(t, w)["id"].(string)

	// The device pulls the job and it moves to IN_PROGRESS.
	w = env.do(t, http.MethodGet, "/api/devices/"+deviceID+"/ota/pending", deviceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	require.NotNil(t, body["job"])
	job := body["job"].(map[string]any)
	assert.Equal(t, jobID, job["id"])
	assert.Equal(t, "IN_PROGRESS", job["status"])
	assert.Equal(t, "2.4.0", body["firmware"].(map[string]any)["version"])

	// Canceling an in-progress job conflicts.
	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/ota/jobs/"+jobID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Progress reports update the job in place.
	w = env.do(t, http.MethodPost, "/api/devices/"+deviceID+"/ota/report", deviceToken, gin.H{
		"jobId": jobID, "status": "IN_PROGRESS", "progress": gin.H{"pct": 40},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reported := decode(t, w)
	assert.Equal(t, "IN_PROGRESS", reported["status"])
	assert.EqualValues(t, 40, reported["progress"].(map[string]any)["pct"])

	// The device reports success and its firmware version updates.
	w = env.do(t, http.MethodPost, "/api/devices/"+deviceID+"/ota/report", deviceToken, gin.H{
		"jobId": jobID, "status": "SUCCESS",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SUCCESS", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/devices/"+deviceID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2.4.0", decode(t, w)["firmwareVersion"])
}

func TestAlertEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token, tenantID := env.registerAndInvite(t, "ops@example.com", model.RoleTenantAdmin)

	w := env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/alert-rules", token, gin.H{
		"name": "tank overheat", "type": "OVER_TEMP",
		"params": gin.H{"thresholdC": 80}, "severity": "CRITICAL",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/tenants/"+tenantID+"/alert-rules", token, gin.H{
		"name": "bogus", "type": "NOT_A_RULE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/alert-rules", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = env.do(t, http.MethodGet, "/api/tenants/"+tenantID+"/alerts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
}
