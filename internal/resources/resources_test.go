package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/device"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/testutil"
	"github.com/fjmerc/studiodesk/internal/upload"
)

func newTestAPI(t *testing.T, fake *testutil.FakeAPI) (*API, *apiclient.Client) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := apiclient.New(apiclient.Config{
		BaseURL: fake.BaseURL(),
		Device:  device.NewIdentity(device.NewMemoryStore(), logger),
		Logger:  logger,
	}, apiclient.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	testutil.AssertNoError(t, err)

	return New(c, WithRetry(apiclient.RetryOptions{MaxRetries: 2, RetryDelay: time.Millisecond})), c
}

func TestPageQueryValues(t *testing.T) {
	tests := []struct {
		q    PageQuery
		base apiclient.PageBase
		want string
	}{
		{PageQuery{}, apiclient.OneBased, ""},
		{PageQuery{Page: 2, Size: 20}, apiclient.OneBased, "page=2&size=20"},
		{PageQuery{Page: 1, Sort: "createdAt,desc", Search: "bride"}, apiclient.OneBased, "page=1&search=bride&sort=createdAt%2Cdesc"},
		{PageQuery{Size: 20}, apiclient.ZeroBased, "page=0&size=20"},
		{PageQuery{Page: 3}, apiclient.ZeroBased, "page=3"},
		{PageQuery{Page: -1}, apiclient.ZeroBased, ""},
	}

	for _, tt := range tests {
		if got := tt.q.ValuesFor(tt.base).Encode(); got != tt.want {
			t.Errorf("ValuesFor(%+v, %v) = %q, want %q", tt.q, tt.base, got, tt.want)
		}
	}
	if got := (PageQuery{}).Values().Encode(); got != "" {
		t.Errorf("Values() = %q, want empty", got)
	}
}

func TestZeroBasedListSendsFirstPage(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("GET /v3/categories", testutil.Page(testutil.SampleCategories(), 0, 3, 3))
	fake.Handle("GET /v3/services", testutil.OK([]models.Service{}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := apiclient.New(apiclient.Config{
		BaseURL:  fake.BaseURL(),
		Logger:   logger,
		PageBase: apiclient.ZeroBased,
	})
	testutil.AssertNoError(t, err)
	api := New(c)
	ctx := context.Background()

	list := api.Categories.List(ctx, PageQuery{Page: 0, Size: 3})
	if !list.Success || list.Pagination == nil {
		t.Fatalf("List = %+v", list)
	}
	testutil.AssertEqual(t, list.Pagination.HasPrevious, false)
	testutil.AssertEqual(t, list.Pagination.HasNext, false)

	api.Services.ListByCategory(ctx, 7, PageQuery{})

	reqs := fake.Requests()
	testutil.AssertEqual(t, reqs[0].Query, "page=0&size=3")
	testutil.AssertEqual(t, reqs[1].Query, "categoryId=7&page=0")
}

func TestCollectionCRUD(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("GET /v3/categories", testutil.Page(testutil.SampleCategories(), 1, 2, 3))
	fake.Handle("GET /v3/categories/2", testutil.OK(testutil.SampleCategories()[1]))
	fake.Handle("POST /v3/categories", testutil.OK(models.Category{ID: 4, Name: "Events"}))
	fake.Handle("PUT /v3/categories/4", testutil.OK(models.Category{ID: 4, Name: "Live Events"}))
	fake.Handle("DELETE /v3/categories/4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	fake.Handle("PUT /v3/categories/reorder", testutil.OK(testutil.SampleCategories()))

	api, _ := newTestAPI(t, fake)
	ctx := context.Background()

	list := api.Categories.List(ctx, PageQuery{Page: 1, Size: 2})
	if !list.Success || len(list.Data) != 3 {
		t.Fatalf("List = %+v", list)
	}
	if p := list.Pagination; p == nil || p.TotalPages != 2 || !p.HasNext || p.HasPrevious {
		t.Errorf("Pagination = %+v", list.Pagination)
	}

	got := api.Categories.Get(ctx, 2)
	testutil.AssertEqual(t, got.Data.Name, "Portraits")

	created := api.Categories.Create(ctx, models.CategoryRequest{Name: "Events"})
	testutil.AssertEqual(t, created.Data.ID, int64(4))

	updated := api.Categories.Update(ctx, 4, models.CategoryRequest{Name: "Live Events"})
	testutil.AssertEqual(t, updated.Data.Name, "Live Events")

	deleted := api.Categories.Delete(ctx, 4)
	if !deleted.Success {
		t.Errorf("Delete = %+v", deleted)
	}

	reordered := api.Categories.Reorder(ctx, []int64{3, 1, 2})
	if !reordered.Success {
		t.Errorf("Reorder = %+v", reordered)
	}

	reqs := fake.Requests()
	testutil.AssertEqual(t, reqs[0].Query, "page=1&size=2")
	testutil.AssertContains(t, string(reqs[2].Body), `"name":"Events"`)
	testutil.AssertContains(t, string(reqs[5].Body), `"ids":[3,1,2]`)
}

func TestServicesListByCategory(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("GET /v3/services", testutil.OK([]models.Service{{ID: 1, CategoryID: 7, Name: "Engagement shoot"}}))

	api, _ := newTestAPI(t, fake)
	env := api.Services.ListByCategory(context.Background(), 7, PageQuery{Size: 50})

	if !env.Success || len(env.Data) != 1 {
		t.Fatalf("got %+v", env)
	}
	testutil.AssertEqual(t, fake.Requests()[0].Query, "categoryId=7&size=50")
}

func TestUploadLogo(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("POST /v3/clients/5/logo", testutil.OK(models.Client{ID: 5, Name: "Acme", LogoURL: "/logos/5.png"}))

	api, _ := newTestAPI(t, fake)
	file := testutil.CreateUploadFile(t, "acme.png", testutil.PNG)

	var (
		mu      sync.Mutex
		reports []apiclient.UploadProgress
	)
	env := api.Clients.UploadLogo(context.Background(), 5, file, func(p apiclient.UploadProgress) {
		mu.Lock()
		reports = append(reports, p)
		mu.Unlock()
	})

	if !env.Success || env.Data.LogoURL != "/logos/5.png" {
		t.Fatalf("got %+v", env)
	}
	req := fake.Requests()[0]
	if len(req.Files) != 1 || req.Files[0].Field != "logo" || req.Files[0].Name != "acme.png" {
		t.Errorf("files = %+v", req.Files)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 || reports[len(reports)-1].Percentage != 100 {
		t.Errorf("progress reports = %+v", reports)
	}
}

func TestUploadValidationSkipsNetwork(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	api, _ := newTestAPI(t, fake)
	ctx := context.Background()

	tooBig := upload.FileInfo{Name: "huge.png", Size: 6 * 1024 * 1024, MimeType: "image/png"}
	env := api.Reviews.UploadImage(ctx, 1, tooBig, nil)
	if env.Success || env.StatusCode != http.StatusBadRequest {
		t.Fatalf("got %+v, want 400 failure", env)
	}
	if !strings.Contains(env.Message, "5 MB") {
		t.Errorf("Message = %q, want size limit", env.Message)
	}
	if len(env.Errors) != 1 || env.Errors[0].Field != "image" || env.Errors[0].RejectedValue != "huge.png" {
		t.Errorf("Errors = %+v", env.Errors)
	}

	pdf := upload.FileInfo{Name: "brief.pdf", Size: 1024, MimeType: "application/pdf"}
	if env := api.Galleries.Upload(ctx, 1, []upload.FileInfo{pdf}, nil); env.Success {
		t.Error("gallery accepted a PDF")
	}

	if env := api.Works.UploadMedia(ctx, 1, nil, nil); env.Success || env.StatusCode != http.StatusBadRequest {
		t.Errorf("UploadMedia with no files = %+v", env)
	}

	if n := len(fake.Requests()); n != 0 {
		t.Errorf("%d requests sent for invalid uploads, want 0", n)
	}
}

func TestCreateWorkWithMedia(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("POST /v3/works", testutil.OK(testutil.SampleWork()))

	api, _ := newTestAPI(t, fake)
	files := []upload.FileInfo{
		testutil.CreateUploadFile(t, "cover.png", testutil.PNG),
		testutil.CreateUploadFile(t, "teaser.mp4", testutil.MP4),
	}

	env := api.Works.CreateWithMedia(context.Background(), models.WorkRequest{Title: "Harbour Launch", Published: true}, files, nil)
	if !env.Success || env.Data.Title != "Harbour Launch" {
		t.Fatalf("got %+v", env)
	}

	req := fake.Requests()[0]
	var work models.WorkRequest
	testutil.AssertNoError(t, json.Unmarshal([]byte(req.Fields["data"]), &work))
	testutil.AssertEqual(t, work.Title, "Harbour Launch")
	if len(req.Files) != 2 {
		t.Errorf("files = %+v, want 2", req.Files)
	}
}

func TestUploadRetriesServerErrors(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	var calls atomic.Int32
	fake.Handle("POST /v3/works/3/galleries", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			testutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false})
			return
		}
		testutil.OK([]models.GalleryImage{{ID: 1, WorkID: 3}})(w, r)
	})

	api, _ := newTestAPI(t, fake)
	file := testutil.CreateUploadFile(t, "g1.png", testutil.PNG)

	env := api.Galleries.Upload(context.Background(), 3, []upload.FileInfo{file}, nil)
	if !env.Success || len(env.Data) != 1 {
		t.Fatalf("got %+v", env)
	}
	testutil.AssertEqual(t, fake.Count("/v3/works/3/galleries"), 3)
	for _, req := range fake.Requests() {
		if len(req.Files) != 1 || req.Files[0].Size != int64(len(testutil.PNG)) {
			t.Errorf("attempt carried %+v, want full file", req.Files)
		}
	}
}

func TestGalleryAndContacts(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("GET /v3/works/3/galleries", testutil.OK([]models.GalleryImage{{ID: 1}, {ID: 2}}))
	fake.Handle("DELETE /v3/works/3/galleries/2", testutil.OK(nil))
	fake.Handle("PATCH /v3/contacts/8/read", testutil.OK(models.Contact{ID: 8, Read: true}))
	fake.Handle("POST /v3/contacts/8/reply", testutil.OK(models.Contact{ID: 8, Read: true}))
	fake.Handle("PATCH /v3/reviews/4/publish", testutil.OK(models.Review{ID: 4, Published: true}))

	api, _ := newTestAPI(t, fake)
	ctx := context.Background()

	if env := api.Galleries.List(ctx, 3); len(env.Data) != 2 {
		t.Errorf("List = %+v", env)
	}
	if env := api.Galleries.DeleteImage(ctx, 3, 2); !env.Success {
		t.Errorf("DeleteImage = %+v", env)
	}
	if env := api.Contacts.MarkRead(ctx, 8); !env.Data.Read {
		t.Errorf("MarkRead = %+v", env)
	}
	if env := api.Contacts.Reply(ctx, 8, models.ContactReply{Message: "Thanks, booked!"}); !env.Success {
		t.Errorf("Reply = %+v", env)
	}
	if env := api.Reviews.SetPublished(ctx, 4, true); !env.Data.Published {
		t.Errorf("SetPublished = %+v", env)
	}

	reqs := fake.Requests()
	testutil.AssertContains(t, string(reqs[3].Body), "Thanks, booked!")
	testutil.AssertContains(t, string(reqs[4].Body), `"published":true`)
}

func TestProfileAndSettings(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("GET /v3/users/me", testutil.OK(testutil.SampleUser()))
	fake.Handle("PUT /v3/users/me/avatar", testutil.OK(testutil.SampleUser()))
	fake.Handle("PUT /v3/users/me/password", testutil.OK(nil))
	fake.Handle("GET /v3/settings", testutil.OK(testutil.SampleSettings()))
	fake.Handle("PUT /v3/settings", testutil.OK(testutil.SampleSettings()))

	api, _ := newTestAPI(t, fake)
	ctx := context.Background()

	testutil.AssertEqual(t, api.Profile.Get(ctx).Data.Email, "editor@example.com")

	avatar := testutil.CreateUploadFile(t, "me.png", testutil.PNG)
	if env := api.Profile.UploadAvatar(ctx, avatar, nil); !env.Success {
		t.Errorf("UploadAvatar = %+v", env)
	}
	if env := api.Profile.ChangePassword(ctx, models.PasswordChange{CurrentPassword: "old", NewPassword: "n3w-Secret"}); !env.Success {
		t.Errorf("ChangePassword = %+v", env)
	}

	settings := api.Settings.Get(ctx)
	testutil.AssertEqual(t, settings.Data.StudioName, "North Light Studio")
	settings.Data.Maintenance = true
	if env := api.Settings.Update(ctx, settings.Data); !env.Success {
		t.Errorf("Settings.Update = %+v", env)
	}
}

func TestLogoutClearsDevice(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("POST /v3/auth/logout/{deviceId}", testutil.OK(nil))

	api, c := newTestAPI(t, fake)
	before := c.Device().ID()

	if env := api.Auth.Logout(context.Background()); !env.Success {
		t.Fatalf("Logout = %+v", env)
	}
	testutil.AssertEqual(t, fake.Requests()[0].Path, "/api/v3/auth/logout/"+before)
	if c.Device().ID() == before {
		t.Error("device id survived logout")
	}
}

func TestLogoutClearsDeviceOnFailure(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Handle("POST /v3/auth/logout/{deviceId}", testutil.Fail(http.StatusInternalServerError, "Logout failed"))

	api, c := newTestAPI(t, fake)
	before := c.Device().ID()

	if env := api.Auth.Logout(context.Background()); env.Success {
		t.Fatal("expected failure")
	}
	if c.Device().ID() == before {
		t.Error("device id survived failed logout")
	}
}
