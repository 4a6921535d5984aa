package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelperfect/internal/model"
)

type galleryList struct {
	Items []model.GalleryItem `json:"items"`
}

func (ts *testServer) listGallery(t *testing.T, path, token string) []model.GalleryItem {
	t.Helper()
	rr := ts.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var list galleryList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	return list.Items
}

func TestPublicGallery(t *testing.T) {
	ts := newTestServer(t, Options{})

	items := ts.listGallery(t, "/api/gallery", "")
	require.Len(t, items, 3)
	for _, it := range items {
		assert.True(t, it.IsPublished, it.Title)
	}

	items = ts.listGallery(t, "/api/gallery?category=Wedding", "")
	require.Len(t, items, 1)
	assert.Equal(t, "Elegant Wedding Ceremony", items[0].Title)

	assert.Len(t, ts.listGallery(t, "/api/gallery?category=all&search=headshot", ""), 1)
	assert.Empty(t, ts.listGallery(t, "/api/gallery?search=product", ""))
}

func TestAdminGallery(t *testing.T) {
	ts := newTestServer(t, Options{})
	client := ts.login(t, "jane@example.com")
	adminToken := ts.login(t, "admin@pixelperfect.com")

	rr := ts.do(t, http.MethodGet, "/api/admin/gallery", client, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Len(t, ts.listGallery(t, "/api/admin/gallery", adminToken), 4)

	rr = ts.do(t, http.MethodPost, "/api/admin/gallery", adminToken, map[string]any{
		"title":     "Maternity Session",
		"category":  "Portrait",
		"image_url": "https://example.com/m.jpg",
		"tags":      []string{"Family", "studio"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created model.GalleryItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, []string{"family", "studio"}, created.Tags)
	assert.False(t, created.IsPublished)
	assert.Len(t, ts.listGallery(t, "/api/gallery", ""), 3)

	rr = ts.do(t, http.MethodPost, "/api/admin/gallery/"+created.ID+"/publish", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, ts.listGallery(t, "/api/gallery", ""), 4)

	rr = ts.do(t, http.MethodPost, "/api/admin/gallery", adminToken, map[string]any{"category": "Portrait"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "Title is required", resp.Fields["title"])
	assert.Equal(t, "Image is required", resp.Fields["image_url"])

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{name: "rename", method: http.MethodPatch, path: "/api/admin/gallery/" + created.ID, body: map[string]string{"title": "Maternity"}, expectedStatus: http.StatusOK},
		{name: "unknown category", method: http.MethodPatch, path: "/api/admin/gallery/" + created.ID, body: map[string]string{"category": "Food"}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "unknown field", method: http.MethodPatch, path: "/api/admin/gallery/" + created.ID, body: map[string]string{"colour": "red"}, expectedStatus: http.StatusBadRequest},
		{name: "feature", method: http.MethodPost, path: "/api/admin/gallery/" + created.ID + "/feature", expectedStatus: http.StatusOK},
		{name: "delete", method: http.MethodDelete, path: "/api/admin/gallery/" + created.ID, expectedStatus: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/api/admin/gallery/" + created.ID, expectedStatus: http.StatusNotFound},
		{name: "publish missing", method: http.MethodPost, path: "/api/admin/gallery/missing/publish", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, tt.method, tt.path, adminToken, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestContactAPI(t *testing.T) {
	ts := newTestServer(t, Options{})
	adminToken := ts.login(t, "admin@pixelperfect.com")

	rr := ts.do(t, http.MethodPost, "/api/contact", "", map[string]string{"name": "Jane", "email": "jane"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "Invalid email address", resp.Fields["email"])
	assert.Equal(t, "Subject is required", resp.Fields["subject"])
	assert.Equal(t, "Message is required", resp.Fields["message"])

	rr = ts.do(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"subject": "pricing",
		"message": "How much is a half-day event?",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var c model.Contact
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	assert.Equal(t, model.ContactNew, c.Status)

	rr = ts.do(t, http.MethodGet, "/api/admin/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tests := []struct {
		name           string
		status         string
		expectedStatus int
	}{
		{name: "unknown status", status: "archived", expectedStatus: http.StatusBadRequest},
		{name: "respond", status: "responded", expectedStatus: http.StatusOK},
		{name: "close", status: "closed", expectedStatus: http.StatusOK},
		{name: "reopen", status: "new", expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, http.MethodPatch, "/api/admin/contacts/"+c.ID, adminToken, map[string]string{"status": tt.status})
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}

	rr = ts.do(t, http.MethodPatch, "/api/admin/contacts/missing", adminToken, map[string]string{"status": "closed"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/admin/contacts?status=closed", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Contacts []model.Contact `json:"contacts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Contacts, 1)
	assert.Equal(t, c.ID, list.Contacts[0].ID)
}
