package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumina/internal/config"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/handler"
	"github.com/lumina/internal/limiter"
	"github.com/lumina/internal/media"
	"github.com/lumina/internal/router"
	"github.com/lumina/internal/service"
	"github.com/lumina/internal/store"
	"github.com/lumina/internal/store/sqlstore"
)

type e2eSuite struct {
	handler   http.Handler
	public    httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	adminUser string
	adminPass string
	store     store.Store
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_GuestPostLifecycle(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	categoryID := suite.createCategory(t, "Technology")
	suite.createBlog(t, "Editorial launch", categoryID)

	guestID, guestSlug := suite.submitGuestPost(t)

	t.Run("pending post hidden from feed", func(t *testing.T) {
		feed := suite.feed(t, "")
		for _, item := range feed.Blogs {
			if item.Slug == guestSlug {
				t.Fatalf("pending guest post visible in feed")
			}
		}
		resp := suite.mustRequest(t, suite.public, http.MethodGet, "/posts/"+guestSlug, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for pending detail, got %d", resp.StatusCode)
		}
	})

	t.Run("moderation queue", func(t *testing.T) {
		resp := suite.mustRequest(t, suite.admin, http.MethodGet, "/admin/guestposts?status=pending", nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list guest posts expected 200, got %d", resp.StatusCode)
		}
		var posts []db.GuestPost
		decodeJSON(t, resp, &posts)
		if len(posts) != 1 || posts[0].ID != guestID {
			t.Fatalf("unexpected pending queue: %+v", posts)
		}
	})

	t.Run("publish before approve is rejected", func(t *testing.T) {
		resp := suite.mustRequest(t, suite.admin, http.MethodPut, "/admin/guestposts/"+guestID+"/publish", nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("approve and publish", func(t *testing.T) {
		for _, step := range []struct {
			action string
			status string
		}{
			{"approve", "approved"},
			{"publish", "published"},
		} {
			resp := suite.mustRequest(t, suite.admin, http.MethodPut, "/admin/guestposts/"+guestID+"/"+step.action, nil, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("%s expected 200, got %d", step.action, resp.StatusCode)
			}
			var payload struct {
				ID     string `json:"_id"`
				Status string `json:"status"`
			}
			decodeJSON(t, resp, &payload)
			resp.Body.Close()
			if payload.ID != guestID || payload.Status != step.status {
				t.Fatalf("%s: unexpected payload %+v", step.action, payload)
			}
		}
	})

	t.Run("feed merges both collections", func(t *testing.T) {
		feed := suite.feed(t, "")
		if len(feed.Blogs) != 2 {
			t.Fatalf("expected 2 posts in feed, got %d", len(feed.Blogs))
		}
		if feed.Blogs[0].Slug != guestSlug || feed.Blogs[0].Type != "guest" {
			t.Fatalf("expected newest guest post first, got %+v", feed.Blogs[0])
		}
		if feed.Blogs[1].Type != "admin" {
			t.Fatalf("expected editorial post second, got %+v", feed.Blogs[1])
		}

		filtered := suite.feed(t, "Technology")
		if len(filtered.Blogs) != 2 {
			t.Fatalf("expected category filter to match both posts, got %d", len(filtered.Blogs))
		}
	})

	t.Run("detail counts views", func(t *testing.T) {
		for want := int64(1); want <= 2; want++ {
			resp := suite.mustRequest(t, suite.public, http.MethodGet, "/posts/"+guestSlug, nil, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("detail expected 200, got %d", resp.StatusCode)
			}
			var detail struct {
				Post struct {
					Views int64 `json:"views"`
				} `json:"post"`
				Category string `json:"category"`
				Related  []struct {
					Slug string `json:"slug"`
				} `json:"related"`
			}
			decodeJSON(t, resp, &detail)
			resp.Body.Close()
			if detail.Post.Views != want {
				t.Fatalf("expected %d views, got %d", want, detail.Post.Views)
			}
			if detail.Category != "Technology" {
				t.Fatalf("unexpected category %q", detail.Category)
			}
			if len(detail.Related) != 1 {
				t.Fatalf("expected 1 related post, got %d", len(detail.Related))
			}
		}
	})

	t.Run("stats", func(t *testing.T) {
		resp := suite.mustRequest(t, suite.admin, http.MethodGet, "/admin/stats", nil, nil)
		defer resp.Body.Close()
		var dashboard struct {
			Stats struct {
				TotalViews    int64 `json:"totalViews"`
				ActivePosts   int64 `json:"activePosts"`
				PendingGuests int64 `json:"pendingGuests"`
			} `json:"stats"`
			RecentArticles []struct {
				Type string `json:"type"`
			} `json:"recentArticles"`
		}
		decodeJSON(t, resp, &dashboard)
		if dashboard.Stats.TotalViews != 2 || dashboard.Stats.ActivePosts != 2 || dashboard.Stats.PendingGuests != 0 {
			t.Fatalf("unexpected stats: %+v", dashboard.Stats)
		}
		if len(dashboard.RecentArticles) != 2 {
			t.Fatalf("expected 2 recent articles, got %d", len(dashboard.RecentArticles))
		}
	})

	t.Run("category in use cannot be deleted", func(t *testing.T) {
		resp := suite.mustRequest(t, suite.admin, http.MethodDelete, "/admin/categories/"+categoryID, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestE2E_SettingsAndUploads(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	resp := suite.mustRequestJSON(t, suite.admin, http.MethodPut, "/admin/settings", map[string]interface{}{
		"siteName":     "Lumina",
		"contactEmail": "hello@lumina.test",
		"socialLinks":  map[string]string{"twitter": "https://twitter.com/lumina"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update settings expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = suite.mustRequest(t, suite.public, http.MethodGet, "/settings", nil, nil)
	var settings service.SiteSettings
	decodeJSON(t, resp, &settings)
	resp.Body.Close()
	if settings.SiteName != "Lumina" || settings.SocialLinks.Twitter != "https://twitter.com/lumina" {
		t.Fatalf("unexpected public settings: %+v", settings)
	}

	resp = suite.uploadTestImage(t)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var upload struct {
		Success int `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &upload)
	resp.Body.Close()
	if upload.Success != 1 || !strings.HasPrefix(upload.Data.URL, "/uploads/") {
		t.Fatalf("unexpected upload payload: %+v", upload)
	}

	resp = suite.mustRequest(t, suite.public, http.MethodGet, upload.Data.URL, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("uploaded file expected 200, got %d", resp.StatusCode)
	}
}

func TestE2E_LogoutRevokesAccess(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	resp := suite.mustRequest(t, suite.admin, http.MethodGet, "/admin/me", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me expected 200, got %d", resp.StatusCode)
	}

	resp = suite.mustRequest(t, suite.admin, http.MethodPost, "/admin/logout", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", resp.StatusCode)
	}

	resp = suite.mustRequest(t, suite.admin, http.MethodGet, "/admin/me", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout expected 401, got %d", resp.StatusCode)
	}
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano()), db.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	st := sqlstore.New(gdb)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	const adminUser, adminPass = "admin", "e2e-secret-password"
	if err := service.NewAccountService(st).EnsureUser(context.Background(), adminUser, adminPass); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	uploadDir := t.TempDir()
	cfg := config.AppConfig{
		SessionSecret: "test-session-secret",
		SiteBaseURL:   "http://example.test",
		MediaDriver:   config.MediaLocal,
		UploadDir:     uploadDir,
		UploadURLPath: "/uploads",
	}
	engine := router.SetupRouter(cfg, handler.Options{
		Store:        st,
		Uploader:     media.NewUploader(media.NewLocalStorage(uploadDir, cfg.UploadURLPath), 1<<20),
		GuestLimiter: limiter.NewMemory(5, time.Hour),
		LoginLimiter: limiter.NewMemory(10, time.Minute),
	})

	return &e2eSuite{
		handler:   engine,
		public:    newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "http://example.test",
		uploadDir: uploadDir,
		adminUser: adminUser,
		adminPass: adminPass,
		store:     st,
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{
		"username": {s.adminUser},
		"password": {s.adminPass},
	}

	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	resp := s.mustRequest(t, s.admin, http.MethodPost, "/admin/login", strings.NewReader(form.Encode()), headers)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) createCategory(t *testing.T, name string) string {
	t.Helper()
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/admin/categories", map[string]interface{}{
		"name": name,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category expected 201, got %d", resp.StatusCode)
	}
	var payload struct {
		Category db.Category `json:"category"`
	}
	decodeJSON(t, resp, &payload)
	return payload.Category.ID
}

func (s *e2eSuite) createBlog(t *testing.T, title, categoryID string) {
	t.Helper()
	resp := s.mustRequestJSON(t, s.admin, http.MethodPost, "/admin/blogs", map[string]interface{}{
		"title":    title,
		"content":  "<p>Welcome to the new blog.</p>",
		"category": categoryID,
		"status":   "published",
		"tags":     []string{"news"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create blog expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
}

func (s *e2eSuite) submitGuestPost(t *testing.T) (string, string) {
	t.Helper()
	// 保证投稿晚于编辑文章创建
	time.Sleep(10 * time.Millisecond)

	resp := s.mustRequestJSON(t, s.public, http.MethodPost, "/guest-post", map[string]interface{}{
		"name":           "Ada",
		"email":          "ada@example.com",
		"articleTitle":   "Guest insight",
		"articleContent": "Some **markdown** body.",
		"contentFormat":  "markdown",
		"category":       "technology",
		"backlink":       "https://ada.example.com",
		"anchorText":     "Ada's site",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit guest post expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var payload struct {
		Post db.GuestPost `json:"post"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Post.Status != db.GuestPending {
		t.Fatalf("expected pending, got %q", payload.Post.Status)
	}
	return payload.Post.ID, payload.Post.Slug
}

type feedPayload struct {
	Blogs []struct {
		Slug string `json:"slug"`
		Type string `json:"type"`
	} `json:"blogs"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

func (s *e2eSuite) feed(t *testing.T, category string) feedPayload {
	t.Helper()
	path := "/posts"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	resp := s.mustRequest(t, s.public, http.MethodGet, path, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("feed expected 200, got %d", resp.StatusCode)
	}
	var payload feedPayload
	decodeJSON(t, resp, &payload)
	return payload
}

func (s *e2eSuite) uploadTestImage(t *testing.T) *http.Response {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, "image", "test.png"))
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	headers := map[string]string{
		"Content-Type": writer.FormDataContentType(),
	}
	return s.mustRequest(t, s.admin, http.MethodPost, "/admin/uploads", body, headers)
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) mustRequestJSON(t *testing.T, client httpClient, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return s.mustRequest(t, client, method, path, bytes.NewReader(data), headers)
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}
