package bot

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"post-assist-bot/internal/chat"
	"post-assist-bot/internal/config"
	"post-assist-bot/internal/database"
	"post-assist-bot/internal/knowledge"
	"post-assist-bot/internal/ledger"
	"post-assist-bot/internal/metrics"
	"post-assist-bot/internal/postal"
	"post-assist-bot/internal/uploads"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKnowledgeBase = `[
	{"keywords": ["hi"], "answer": "Hello from the counter.", "options": ["Track & Trace"]},
	{"keywords": ["complaint"], "answer": "Please upload a photo of the parcel.", "options": []}
]`

const testPincodeAnswer = `[{
	"Message": "Number of pincode(s) found:1",
	"Status": "Success",
	"PostOffice": [{"Name": "Connaught Place", "BranchType": "Sub Post Office", "Pincode": "110001"}]
}]`

type testEnv struct {
	app      *gin.Engine
	sessions *bigcache.BigCache
	ledger   *ledger.Ledger
	uploads  string
	cookie   *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pincode/110001"):
			_, _ = w.Write([]byte(testPincodeAnswer))
		case strings.HasPrefix(r.URL.Path, "/pincode/"):
			_, _ = w.Write([]byte(`[{"Message": "No records found", "Status": "Error", "PostOffice": null}]`))
		case r.URL.Path == "/reverse":
			_, _ = w.Write([]byte(`{"address": {"postcode": "110001"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	dir := t.TempDir()
	kbPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(kbPath, []byte(testKnowledgeBase), 0644))
	uploadsDir := filepath.Join(dir, "uploaded_images")
	require.NoError(t, os.MkdirAll(uploadsDir, 0755))

	enabled := true
	cnf := &config.Conf{
		Server:  config.Server{PublicURL: "http://bot.test"},
		Session: config.Session{TTL: config.Duration(time.Hour), Cookie: "postbot_session"},
		Upload:  config.Upload{MaxBytes: 1 << 20, Extensions: []string{"png", "jpg", "jpeg", "gif"}},
		Metrics: config.Metrics{Enabled: &enabled},

		KnowledgeBase:  kbPath,
		ComplaintsFile: filepath.Join(dir, "complaints.json"),
		UploadsDir:     uploadsDir,
		StaticDir:      dir,
	}

	sessions, err := database.NewInMemoryCache(time.Hour)
	require.NoError(t, err)
	offices, err := database.NewInMemoryCache(time.Hour)
	require.NoError(t, err)

	rec := metrics.New(true)
	l := ledger.New(cnf.ComplaintsFile)
	cl := postal.NewClient(5*time.Second, "postbot-test")
	machine := chat.New(
		knowledgeBase(t, kbPath),
		postal.NewPincodeResolver(cl, upstream.URL+"/pincode/", postal.NewOfficeCache(offices), time.Hour, rec),
		postal.NewGeoResolver(cl, upstream.URL+"/reverse", rec),
		l,
		cnf.Server.PublicURL,
		rec,
	)

	app := gin.New()
	app.Use(
		config.Inject(database.CTX_CONFIG, cnf),
		database.InjectInMemoryCache(database.CTX_SESSIONS, sessions),
		chat.Inject(database.CTX_MACHINE, machine),
		uploads.Inject(database.CTX_UPLOADS, uploads.NewStore(uploadsDir, cnf.Upload.Extensions)),
		metrics.Inject(database.CTX_METRICS, rec),
	)
	InitHooks(app, cnf, rec)

	return &testEnv{app: app, sessions: sessions, ledger: l, uploads: uploadsDir}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.app.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "postbot_session" {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) chat(t *testing.T, body string) (int, chat.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chatbot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := e.do(t, req)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) (int, chat.Response) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-image", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := e.do(t, req)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.uploads)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func knowledgeBase(t *testing.T, path string) *knowledge.Base {
	t.Helper()
	kb := knowledge.NewBase(path)
	require.NotEmpty(t, kb.Entries())
	return kb
}

func TestChatbot_Greeting(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.chat(t, `{"message": " HI "}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Hello from the counter.", resp.Response)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, "track_&_trace", resp.Options[0].Value)
	require.NotNil(t, env.cookie)
}

func TestChatbot_EmptyBody(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.chat(t, ``)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "I'm not sure I understand. How can I help you?", resp.Response)
}

func TestChatbot_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.chat(t, `{"message": `)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request.", resp.Response)
}

func TestUploadThenDescribe(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.chat(t, `{"message": "I have a complaint"}`)
	assert.True(t, resp.ShowUpload)

	code, resp := env.upload(t, "Parcel Photo.JPG", []byte("fake jpeg"))
	require.Equal(t, http.StatusOK, code, resp.Response)
	assert.Contains(t, resp.Response, "Image 'Parcel_Photo.jpg' uploaded successfully")

	files := env.storedFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "_Parcel_Photo.jpg"), files[0])

	code, resp = env.chat(t, `{"message": "  Box arrived crushed  "}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, resp.Response, "Complaint successfully logged!")
	assert.Contains(t, resp.Response, "Box arrived crushed")

	records, err := env.ledger.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Box arrived crushed", records[0].Description)
	imageID := strconv.FormatInt(records[0].ImageID, 10)
	assert.True(t, strings.HasPrefix(files[0], imageID+"_"), files[0])
	assert.Contains(t, resp.Response, "Reference ID: "+imageID+".")
	assert.Equal(t, "http://bot.test/uploads/"+imageID+"_[filename].ext", records[0].FileReference)

	// the session is idle again
	_, err = env.sessions.Get(env.cookie.Value)
	assert.ErrorIs(t, err, bigcache.ErrEntryNotFound)

	_, resp = env.chat(t, `{"message": "one more note"}`)
	assert.Equal(t, "I'm not sure I understand. How can I help you?", resp.Response)
	records, err = env.ledger.Records()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpload_DisallowedExtension(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.upload(t, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The file type (TXT) is not allowed. Please upload a PNG, JPG, or GIF image.", resp.Response)
	assert.Empty(t, env.storedFiles(t))

	code, resp = env.upload(t, "noextension", []byte("data"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Response, "(N/A)")

	// nothing is waiting for a description
	_, resp = env.chat(t, `{"message": "box arrived crushed"}`)
	assert.NotContains(t, resp.Response, "Complaint successfully logged!")
	records, err := env.ledger.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.upload(t, "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No image file provided for upload.", resp.Response)
}

func TestPincodeFlow(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.chat(t, `{"message": "find_by_pincode"}`)
	assert.Equal(t, "Please enter the 6-digit pincode to search for post offices:", resp.Response)

	_, resp = env.chat(t, `{"message": "11000"}`)
	assert.Equal(t, "That doesn't look like a valid Pincode. Please enter a 6-digit number.", resp.Response)

	_, resp = env.chat(t, `{"message": "110001"}`)
	assert.Equal(t, "Found 1 post offices for 110001. Main offices:", resp.Response)
	require.Len(t, resp.Options, 1)
	assert.Equal(t, "Connaught Place (Sub Post Office)", resp.Options[0].Text)
	assert.Equal(t, "post_office_Connaught_Place", resp.Options[0].Value)
	require.Len(t, resp.FullData, 1)

	// state was cleared, a pincode is plain text now
	_, resp = env.chat(t, `{"message": "110001"}`)
	assert.Equal(t, "I'm not sure I understand. How can I help you?", resp.Response)

	_, _ = env.chat(t, `{"message": "find_by_pincode"}`)
	_, resp = env.chat(t, `{"message": "999999"}`)
	assert.Equal(t, "Error: No records found. Please choose Find by Pincode to try another pincode.", resp.Response)
}

func TestLocationSearch(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.chat(t, `{"message": "", "latitude": 28.63, "longitude": 77.21}`)
	assert.Equal(t, "Found 1 post offices for your location (pincode 110001):", resp.Response)
}

func TestUploadedFile(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.upload(t, "photo.png", []byte("png bytes"))
	require.Equal(t, http.StatusOK, code)
	files := env.storedFiles(t)
	require.Len(t, files, 1)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/"+files[0], nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png bytes", w.Body.String())

	for _, name := range []string{"missing.png", ".hidden", "..%2Fcomplaints.json"} {
		w = env.do(t, httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, name)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	_, _ = env.chat(t, `{"message": "hi"}`)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "postbot_chat_rules_total")
}

func TestSessionCookie_Reissued(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = &http.Cookie{Name: "postbot_session", Value: "not-a-uuid"}

	_ = env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotNil(t, env.cookie)
	assert.NotEqual(t, "not-a-uuid", env.cookie.Value)
}
