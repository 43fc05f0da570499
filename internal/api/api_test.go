package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/db"
	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/pictures"
)

const (
	testSecret   = "test-secret"
	testTokenKey = "test-token-key"
)

type testServer struct {
	*httptest.Server
	t    *testing.T
	pics string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)

	secret, err := auth.NewSharedSecret(testSecret)
	require.NoError(t, err)
	picDir := t.TempDir()
	pics, err := pictures.NewDir(picDir)
	require.NoError(t, err)

	router := NewRouter(Options{
		DB:       database,
		Pictures: pics,
		Secret:   secret,
		TokenKey: testTokenKey,
		Clock:    func() time.Time { return time.Unix(1000, 0) },
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, t: t, pics: picDir}
}

// do sends a request with the given Authorization header and decodes a JSON
// response into out if it is non-nil.
func (s *testServer) do(method, path, authz string, body, out any) int {
	s.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+Prefix+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) call(method, path string, body, out any) int {
	s.t.Helper()
	return s.do(method, path, testSecret, body, out)
}

func (s *testServer) seed() {
	s.t.Helper()
	for _, id := range []string{"A1", "A2", "C1", "C2", "V1"} {
		require.Equal(s.t, http.StatusOK, s.call("POST", "/items/"+id, map[string]string{"name": id}, nil))
	}
	require.Equal(s.t, http.StatusOK, s.call("POST", "/users", map[string]string{"barcode_id": "U1", "name": "Ana"}, nil))
	require.Equal(s.t, http.StatusOK, s.call("POST", "/users", map[string]string{"barcode_id": "U2", "name": "Bor"}, nil))
}

func TestAuthRequired(t *testing.T) {
	s := setupTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/items", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/items", "wrong", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/items", "Bearer garbage", nil, nil))
	assert.Equal(t, http.StatusOK, s.do("GET", "/items", testSecret, nil, nil))
}

func TestItemsAndUsers(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	var item model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/items/A1", nil, &item))
	assert.Equal(t, "A1", item.Name)

	assert.Equal(t, http.StatusNotFound, s.call("GET", "/items/ghost", nil, nil))

	var items []model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/items", nil, &items))
	assert.Len(t, items, 5)

	var users []model.User
	require.Equal(t, http.StatusOK, s.call("GET", "/users/", nil, &users), "trailing slash")
	assert.Len(t, users, 2)

	var user model.User
	require.Equal(t, http.StatusOK, s.call("GET", "/users/U1", nil, &user))
	assert.Equal(t, "Ana", user.Name)

	assert.Equal(t, http.StatusBadRequest, s.call("POST", "/users", map[string]string{"name": "no barcode"}, nil))
}

func TestPlacement(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	require.Equal(t, http.StatusOK, s.call("POST", "/containers/C1", []string{"A1", "A2"}, nil))
	require.Equal(t, http.StatusOK, s.call("POST", "/containers/C2", []string{"C1"}, nil))
	require.Equal(t, http.StatusOK, s.call("POST", "/vehicles/V1", []string{"A1"}, nil))

	var loc struct {
		ContainerPath []string        `json:"container_path"`
		Vehicle       *string         `json:"vehicle"`
		Placement     model.Placement `json:"placement"`
	}
	require.Equal(t, http.StatusOK, s.call("GET", "/full-location/A1", nil, &loc))
	assert.Equal(t, []string{"C1", "C2"}, loc.ContainerPath)
	require.NotNil(t, loc.Vehicle)
	assert.Equal(t, "V1", *loc.Vehicle)
	assert.Equal(t, model.PlacementContainer, loc.Placement)

	var parent string
	require.Equal(t, http.StatusOK, s.call("GET", "/item-parent/A1", nil, &parent))
	assert.Equal(t, "C1", parent)
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/item-parent/C2", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/full-location/ghost", nil, nil))

	var held []model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/containers/C1", nil, &held))
	assert.Len(t, held, 2)

	assert.Equal(t, http.StatusUnprocessableEntity, s.call("POST", "/containers/A1", []string{"C2"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.call("POST", "/containers/C1", []string{}, nil))
	assert.Equal(t, http.StatusNotFound, s.call("POST", "/containers/C1", []string{"ghost"}, nil))

	require.Equal(t, http.StatusOK, s.call("DELETE", "/containers/C1/A2", nil, nil))
	require.Equal(t, http.StatusOK, s.call("GET", "/containers/C1", nil, &held))
	assert.Len(t, held, 1)

	var loose []model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/items-not-in-containers", nil, &loose))
	assert.Len(t, loose, 3) // A2, C2, V1
}

func TestToolshedFlow(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	var c model.Checkout
	require.Equal(t, http.StatusCreated, s.call("POST", "/toolshed-checkout",
		map[string]string{"item_id": "A1", "user_id": "U1"}, &c))
	assert.Equal(t, int64(1000), c.UnixTime)

	assert.Equal(t, http.StatusConflict, s.call("POST", "/toolshed-checkout",
		map[string]string{"item_id": "A1", "user_id": "U2"}, nil))
	assert.Equal(t, http.StatusNotFound, s.call("POST", "/toolshed-checkout",
		map[string]string{"item_id": "ghost", "user_id": "U2"}, nil))
	assert.Equal(t, http.StatusBadRequest, s.call("POST", "/toolshed-checkout",
		map[string]string{"item_id": "A1"}, nil))

	var out model.Checkout
	require.Equal(t, http.StatusOK, s.call("GET", "/toolshed-checkout/A1/last-outstanding", nil, &out))
	assert.Equal(t, c.CheckoutID, out.CheckoutID)

	var mine []model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/users/U1/toolshed-checkout-outstanding", nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "A1", mine[0].BarcodeID)

	var holders []model.User
	require.Equal(t, http.StatusOK, s.call("GET", "/users-toolshed-checkout-outstanding", nil, &holders))
	assert.Len(t, holders, 1)

	require.Equal(t, http.StatusCreated, s.call("POST", "/toolshed-checkin",
		map[string]any{"checkout_id": c.CheckoutID, "item_id": "A1", "user_id": "U1"}, nil))
	assert.Equal(t, http.StatusConflict, s.call("POST", "/toolshed-checkin",
		map[string]any{"checkout_id": c.CheckoutID, "item_id": "A1", "user_id": "U1"}, nil))
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/toolshed-checkout/A1/last-outstanding", nil, nil))

	var history []model.LedgerEntry
	require.Equal(t, http.StatusOK, s.call("GET", "/toolshed-history/A1", nil, &history))
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].Checkin)
}

func TestPresence(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	require.Equal(t, http.StatusCreated, s.call("POST", "/user-checkin/U1", nil, nil))
	require.Equal(t, http.StatusCreated, s.call("POST", "/user-checkin/U2", nil, nil))
	require.Equal(t, http.StatusCreated, s.call("POST", "/user-checkout/U2", nil, nil))
	assert.Equal(t, http.StatusNotFound, s.call("POST", "/user-checkin/ghost", nil, nil))

	// Same timestamp for U2: checkin wins the tie.
	var present []model.User
	require.Equal(t, http.StatusOK, s.call("GET", "/users-checkedin/", nil, &present))
	assert.Len(t, present, 2)
}

func TestAuditFlow(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	var ev model.InventoryEvent
	require.Equal(t, http.StatusCreated, s.call("POST", "/inventory-events", nil, &ev))
	assert.Equal(t, model.AuditOpen, ev.State())

	obs := map[string]any{"inventory_id": ev.ID, "item_id": "A1", "status": "GOOD"}
	require.Equal(t, http.StatusOK, s.call("POST", "/inventoried-items", obs, nil))

	bad := map[string]any{"inventory_id": ev.ID, "item_id": "A1", "status": "LOST"}
	assert.Equal(t, http.StatusBadRequest, s.call("POST", "/inventoried-items", bad, nil))

	unknown := map[string]any{"inventory_id": 999, "item_id": "A1", "status": "GOOD"}
	assert.Equal(t, http.StatusNotFound, s.call("POST", "/inventoried-items", unknown, nil))

	var got model.InventoriedItem
	require.Equal(t, http.StatusOK, s.call("GET", "/inventoried-items/1/A1", nil, &got))
	assert.Equal(t, model.StatusGood, got.Status)
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/inventoried-items/1/A2", nil, nil))

	var unscanned []model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/inventoried-items-uninventoried/1", nil, &unscanned))
	assert.Len(t, unscanned, 4)

	var notGood []model.InventoriedItem
	require.Equal(t, http.StatusOK, s.call("GET", "/inventoried-items-not-good/1", nil, &notGood))
	assert.Empty(t, notGood)

	var done model.InventoryEvent
	require.Equal(t, http.StatusOK, s.call("PATCH", "/inventory-events", map[string]any{"id": ev.ID, "notes": "ok"}, &done))
	assert.Equal(t, model.AuditClosed, done.State())

	var rec model.Reconciliation
	require.Equal(t, http.StatusOK, s.call("GET", "/inventory-events/1/summary", nil, &rec))
	assert.Equal(t, 1, rec.Scanned)
	assert.Equal(t, 1, rec.ByStatus[model.StatusGood])

	assert.Equal(t, http.StatusNotFound, s.call("PATCH", "/inventory-events", map[string]any{"id": 42}, nil))
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/inventoried-items-not-good/42", nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.call("GET", "/inventoried-items-not-good/abc", nil, nil))
}

func TestDeviceTokenFlow(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	require.Equal(t, http.StatusOK, s.call("PUT", "/unregistered-devices/phone-1", nil, nil))

	var pending []string
	require.Equal(t, http.StatusOK, s.call("GET", "/unregistered-devices", nil, &pending))
	assert.Equal(t, []string{"phone-1"}, pending)

	assert.Equal(t, http.StatusForbidden, s.call("POST", "/auth/token", map[string]string{"android_id": "phone-1"}, nil))
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/registered-devices/phone-1", nil, nil))

	require.Equal(t, http.StatusOK, s.call("POST", "/registered-devices/phone-1/U1", nil, nil))

	var user string
	require.Equal(t, http.StatusOK, s.call("GET", "/registered-devices/phone-1", nil, &user))
	assert.Equal(t, "U1", user)

	var tok tokenResponse
	require.Equal(t, http.StatusOK, s.call("POST", "/auth/token", map[string]string{"android_id": "phone-1"}, &tok))
	assert.Equal(t, "U1", tok.UserBarcode)

	bearer := "Bearer " + tok.Token
	assert.Equal(t, http.StatusOK, s.do("GET", "/items", bearer, nil, nil))
	assert.Equal(t, http.StatusBadRequest, s.call("POST", "/auth/logout", nil, nil), "secret is not a token")
	assert.Equal(t, http.StatusOK, s.do("POST", "/auth/logout", bearer, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, s.do("GET", "/items", bearer, nil, nil))
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (s *testServer) upload(path string, fields map[string]string, picture []byte) int {
	s.t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if picture != nil {
		fw, err := mw.CreateFormFile("picture", "photo.png")
		require.NoError(s.t, err)
		fw.Write(picture)
	}
	require.NoError(s.t, mw.Close())

	req, err := http.NewRequest("POST", s.URL+Prefix+path, &body)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", testSecret)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestPictures(t *testing.T) {
	s := setupTestServer(t)
	s.seed()

	// Item upsert with a picture, the way the scanner app sends it.
	require.Equal(t, http.StatusOK, s.upload("/items/A9", map[string]string{"name": "Saw"}, testPNG(t)))

	var item model.Item
	require.Equal(t, http.StatusOK, s.call("GET", "/items/A9", nil, &item))
	assert.Equal(t, "Saw", item.Name)
	assert.True(t, pictures.ValidName(item.PicturePath))

	req, _ := http.NewRequest("GET", s.URL+Prefix+"/item-picture/A9", nil)
	req.Header.Set("Authorization", testSecret)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, s.call("GET", "/item-picture/A1", nil, nil), "no picture yet")
	assert.Equal(t, http.StatusBadRequest, s.upload("/user-picture/U1", nil, []byte("not a picture")))
	assert.Equal(t, http.StatusOK, s.upload("/user-picture/U1", nil, testPNG(t)))
	assert.Equal(t, http.StatusNotFound, s.upload("/user-picture/ghost", nil, testPNG(t)))
}

func TestItemUpsertRejectsFieldsBeforeStoringPicture(t *testing.T) {
	s := setupTestServer(t)

	fields := map[string]string{"name": strings.Repeat("x", 257)}
	assert.Equal(t, http.StatusBadRequest, s.upload("/items/A9", fields, testPNG(t)))
	assert.Equal(t, http.StatusNotFound, s.call("GET", "/items/A9", nil, nil))

	stored, err := os.ReadDir(s.pics)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
