package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonboulle/clockwork"

	"github.com/rallykat/rallykat/internal/api/content"
	"github.com/rallykat/rallykat/internal/gpx"
	"github.com/rallykat/rallykat/internal/models"
	"github.com/rallykat/rallykat/internal/repository/memory"
	"github.com/rallykat/rallykat/internal/service"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const sampleGPX = `<gpx><trk><trkseg>
<trkpt lat="40.1" lon="-73.9"/><trkpt lat="40.2" lon="-73.8"/><trkpt lat="40.3" lon="-73.7"/>
</trkseg></trk></gpx>`

type fakeContent struct {
	events  []models.Event
	players []models.Player
	series  []models.Series
	heats   map[string]*models.EventWithHeats
}

func (f *fakeContent) GetEvents(context.Context) ([]models.Event, error) { return f.events, nil }

func (f *fakeContent) GetEventWithHeats(_ context.Context, slug string) (*models.EventWithHeats, error) {
	if e, ok := f.heats[slug]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", content.ErrEventNotFound, slug)
}

func (f *fakeContent) GetPlayers(context.Context) ([]models.Player, error) { return f.players, nil }

func (f *fakeContent) GetSeries(context.Context) ([]models.Series, error) { return f.series, nil }

func intPtr(v int) *int { return &v }

var (
	ace  = &models.Player{ID: "a", Handle: "ace", Emoji: "🚀", Score: 30}
	bolt = &models.Player{ID: "b", Handle: "bolt", Score: 30}
	cog  = &models.Player{ID: "c", Name: "Casey Cog", Score: 12}
)

func newFixture() *fakeContent {
	summer := &models.SeriesInfo{ID: "s", Name: "Summer Series", StartDate: baseTime.AddDate(0, -1, 0)}
	return &fakeContent{
		events: []models.Event{
			{ID: "e1", Name: "Circle", Emoji: "⭕️", Slug: "circle", Date: baseTime.Add(90 * time.Second), Series: summer},
			{ID: "e2", Name: "Snake", Emoji: "🐍", Slug: "snake", Date: baseTime.AddDate(0, 0, 20), Series: summer},
			{ID: "e3", Name: "Test", Emoji: "🧪", Slug: "test", Date: baseTime.AddDate(0, 0, -3)},
		},
		players: []models.Player{*ace, *bolt, *cog},
		heats: map[string]*models.EventWithHeats{
			"circle": {
				Event: models.Event{ID: "e1", Name: "Circle", Emoji: "⭕️", Slug: "circle"},
				Heats: []models.Heat{
					{Key: "h1", Level: intPtr(1), Round: intPtr(1), Players: []*models.Player{ace, bolt}, Winner: ace},
					{Key: "h2", Level: intPtr(1), Round: intPtr(2), Players: []*models.Player{cog}, Redemption: true},
					{Key: "f", Level: intPtr(2), Round: intPtr(1), Players: []*models.Player{ace, cog}, Winner: cog},
				},
			},
			"empty": {Event: models.Event{Name: "Empty"}},
		},
	}
}

func newTestServer(t *testing.T, src *fakeContent, gpxDir string) *Server {
	t.Helper()
	clock := clockwork.NewFakeClockAt(baseTime)
	cache := service.NewCache(memory.NewRepository(), time.Minute, clock)

	if gpxDir == "" {
		gpxDir = t.TempDir()
	}
	srv, err := New(
		service.NewEventService(src, cache, clock),
		service.NewPlayerService(src, cache),
		service.NewTrackService(gpx.NewDirSource(gpxDir), gpx.NewUploads()),
		Options{MapboxToken: "pk.test", MapboxStyle: "mapbox://styles/test", Clock: clock},
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func gpxDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	return do(t, h, httptest.NewRequest(http.MethodGet, target, nil))
}

func document(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

func TestEventsPage(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	doc := document(t, w)

	var groups []string
	doc.Find(".series-name").Each(func(_ int, s *goquery.Selection) {
		groups = append(groups, s.Text())
	})
	if strings.Join(groups, "|") != "Summer Series|Other Events" {
		t.Errorf("groups = %v", groups)
	}

	circle := doc.Find(`.race-countdown[data-countdown="e1"]`)
	if circle.Text() != "00:00:01:30" {
		t.Errorf("countdown = %q", circle.Text())
	}
	if href, _ := doc.Find(".race-name a").First().Attr("href"); href != "/event/circle" {
		t.Errorf("bracket link = %q", href)
	}

	snake := doc.Find(".race-item.masked .race-name")
	if snake.Length() != 1 || strings.Contains(snake.Text(), "Snake") || snake.Find("a").Length() != 0 {
		t.Errorf("far event should be masked without a link: %q", snake.Text())
	}
	if doc.Find(`.nav-link.active`).Text() != "Events" {
		t.Errorf("expected Events to be the active nav link")
	}
}

func TestEventPageRendersBracket(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	w := get(t, h, "/event/circle")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	doc := document(t, w)

	if got := doc.Find(".match").Length(); got != 3 {
		t.Errorf("expected 3 heat cards, got %d", got)
	}
	if got := doc.Find("path.connector").Length(); got != 2 {
		t.Errorf("expected 2 connectors, got %d", got)
	}
	var headers []string
	doc.Find(".round-header").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	if strings.Join(headers, ",") != "Round 1,Final" {
		t.Errorf("headers = %v", headers)
	}

	if doc.Find(".redemption").Length() != 1 {
		t.Errorf("expected one redemption badge")
	}
	if tbd := doc.Find(".player-row.tbd").Length(); tbd != 1 {
		t.Errorf("expected 1 TBD row, got %d", tbd)
	}

	final := doc.Find(".match.final")
	gold := final.Find(".player-row.winner.gold")
	if !strings.Contains(gold.Text(), "Casey Cog") || gold.Find(".rank-mark").Text() != "👑" {
		t.Errorf("unexpected gold row %q", gold.Text())
	}
	if final.Find(".player-row.silver .player-handle").Text() != "ace" {
		t.Errorf("expected ace in second place")
	}
	if d, _ := doc.Find("path.connector").First().Attr("d"); !strings.HasPrefix(d, "M ") || !strings.Contains(d, " C ") {
		t.Errorf("unexpected connector path %q", d)
	}
}

func TestEventPageNotFound(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	w := get(t, h, "/event/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := document(t, w).Find("h1").Text(); got != "Event not found" {
		t.Errorf("heading = %q", got)
	}
}

func TestEventPageEmptyBracket(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	doc := document(t, get(t, h, "/event/empty"))
	if doc.Find(".empty").Text() != "No bracket data" {
		t.Errorf("expected empty bracket message")
	}
}

func TestLeaderboardPage(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	doc := document(t, get(t, h, "/leaderboard"))

	var ranks []string
	doc.Find(".player-item:not(.header) .rank").Each(func(_ int, s *goquery.Selection) {
		ranks = append(ranks, s.Text())
	})
	if strings.Join(ranks, ",") != "1st,1st,2nd" {
		t.Errorf("ranks = %v", ranks)
	}
	if got := strings.TrimSpace(doc.Find(".player-item:not(.header) .player").Last().Text()); got != "Casey Cog" {
		t.Errorf("expected name fallback, got %q", got)
	}
}

func TestAboutAndNotFound(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	if w := get(t, h, "/about"); w.Code != http.StatusOK || document(t, w).Find("h1").Text() != "About" {
		t.Errorf("about page not rendered")
	}
	if w := get(t, h, "/nowhere"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := get(t, h, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("expected healthy, got %d", w.Code)
	}
}

func TestBracketAPI(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()

	w := get(t, h, "/api/events/circle/bracket")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body bracketResponse
	decode(t, w, &body)
	if len(body.Columns) != 2 || len(body.Connectors) != 2 {
		t.Fatalf("unexpected bracket %+v", body)
	}
	if body.Connectors[0].From != "1-0" || body.Connectors[0].To != "2-0" {
		t.Errorf("unexpected connector %+v", body.Connectors[0])
	}

	w = get(t, h, "/api/events/nope/bracket")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestEventsAPI(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()
	var body struct {
		Groups []models.EventGroup `json:"groups"`
	}
	decode(t, get(t, h, "/api/events"), &body)
	if len(body.Groups) != 2 || !body.Groups[1].Other {
		t.Errorf("unexpected groups %+v", body.Groups)
	}
}

func TestPlayerSearchAPI(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()

	if w := get(t, h, "/api/players/search"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without query, got %d", w.Code)
	}

	var body struct {
		Found   bool                  `json:"found"`
		Results []models.RankedPlayer `json:"results"`
	}
	decode(t, get(t, h, "/api/players/search?q=casey"), &body)
	if !body.Found || body.Results[0].ID != "c" || body.Results[0].Rank != 2 {
		t.Errorf("unexpected search result %+v", body)
	}
}

func TestCountdownStream(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/countdown/stream", nil).WithContext(ctx)
	w := do(t, h, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	frames := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	if len(frames) != 1 {
		t.Fatalf("expected exactly one frame, got %d: %q", len(frames), w.Body.String())
	}
	data, ok := strings.CutPrefix(frames[0], "event: countdown\ndata: ")
	if !ok {
		t.Fatalf("unexpected frame %q", frames[0])
	}
	var frame countdownFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		t.Fatal(err)
	}
	if len(frame.Events) != 3 || frame.Events[0].TimeLeft != "00:00:01:30" || frame.Events[2].TimeLeft != "00:00:00:00" {
		t.Errorf("unexpected frame %+v", frame)
	}
}

func TestGPXFiles(t *testing.T) {
	dir := gpxDir(t, map[string]string{
		"b.gpx":    sampleGPX,
		"A.GPX":    sampleGPX,
		"note.txt": "x",
	})
	h := newTestServer(t, newFixture(), dir).Router()

	var body struct {
		Files []string `json:"files"`
	}
	decode(t, get(t, h, "/api/gpx-files"), &body)
	if strings.Join(body.Files, ",") != "A.GPX,b.gpx" {
		t.Errorf("files = %v", body.Files)
	}

	w := get(t, h, "/gpx/b.gpx")
	if w.Code != http.StatusOK || w.Body.String() != sampleGPX {
		t.Errorf("unexpected GPX response %d", w.Code)
	}
	if w := get(t, h, "/gpx/missing.gpx"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGPXFilesMissingDirectory(t *testing.T) {
	h := newTestServer(t, newFixture(), filepath.Join(t.TempDir(), "gone")).Router()
	w := get(t, h, "/api/gpx-files")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] == "" {
		t.Errorf("expected an error message")
	}
}

func TestTrackAPI(t *testing.T) {
	dir := gpxDir(t, map[string]string{"summer-1-harbor.gpx": sampleGPX})
	h := newTestServer(t, newFixture(), dir).Router()

	w := get(t, h, "/api/tracks/summer-1-harbor.gpx?start=red&end=bogus")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var view gpx.MapView
	decode(t, w, &view)
	if view.StartColor != "red" || view.EndColor != gpx.DefaultEndColor || view.Camera.Pitch != 45 {
		t.Errorf("unexpected view %+v", view)
	}

	w = get(t, h, "/api/tracks/nope.gpx")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var errBody map[string]string
	decode(t, w, &errBody)
	if errBody["error"] != "failed to load GPX file: 404" {
		t.Errorf("error = %q", errBody["error"])
	}
}

func TestTrackAPIRemoteFailure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer remote.Close()

	clock := clockwork.NewFakeClockAt(baseTime)
	cache := service.NewCache(memory.NewRepository(), time.Minute, clock)
	src := newFixture()
	srv, err := New(
		service.NewEventService(src, cache, clock),
		service.NewPlayerService(src, cache),
		service.NewTrackService(gpx.NewHTTPSource(remote.URL), gpx.NewUploads()),
		Options{Clock: clock},
	)
	if err != nil {
		t.Fatal(err)
	}

	w := get(t, srv.Router(), "/api/tracks/summer-1-harbor.gpx")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var errBody map[string]string
	decode(t, w, &errBody)
	if errBody["error"] != "failed to load GPX file: 503" {
		t.Errorf("error = %q", errBody["error"])
	}
}

func TestEscapedTrackNames(t *testing.T) {
	dir := gpxDir(t, map[string]string{"night+day.gpx": sampleGPX})
	h := newTestServer(t, newFixture(), dir).Router()

	if w := get(t, h, "/api/tracks/night%2Bday.gpx"); w.Code != http.StatusOK {
		t.Errorf("track lookup: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := get(t, h, "/gpx/night%2Bday.gpx"); w.Code != http.StatusOK || w.Body.String() != sampleGPX {
		t.Errorf("raw file: expected 200, got %d", w.Code)
	}
}

func uploadRequest(t *testing.T, name, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("gpx", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(body))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tracks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTrackUpload(t *testing.T) {
	h := newTestServer(t, newFixture(), "").Router()

	w := do(t, h, uploadRequest(t, "empty.gpx", "<gpx></gpx>"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var errBody map[string]string
	decode(t, w, &errBody)
	if errBody["error"] != "No track points found in GPX" {
		t.Errorf("error = %q", errBody["error"])
	}

	w = do(t, h, uploadRequest(t, "night loop.gpx", sampleGPX))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var item gpx.Item
	decode(t, w, &item)
	if item.FileName != "upload-night-loop" || item.SeriesName != gpx.UploadsSeries {
		t.Errorf("unexpected item %+v", item)
	}

	if w := get(t, h, "/api/tracks/"+item.FileName); w.Code != http.StatusOK {
		t.Errorf("uploaded track not served: %d", w.Code)
	}

	if w := do(t, h, httptest.NewRequest(http.MethodPost, "/api/tracks", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a file, got %d", w.Code)
	}
}

func TestMapPage(t *testing.T) {
	dir := gpxDir(t, map[string]string{
		"summer-2-bridge.gpx": sampleGPX,
		"summer-1-harbor.gpx": sampleGPX,
		"loose.gpx":           sampleGPX,
	})
	h := newTestServer(t, newFixture(), dir).Router()
	doc := document(t, get(t, h, "/map"))

	var groups []string
	doc.Find("#gpxSelect optgroup").Each(func(_ int, s *goquery.Selection) {
		label, _ := s.Attr("label")
		groups = append(groups, label)
	})
	if strings.Join(groups, ",") != "Other,Summer" {
		t.Errorf("optgroups = %v", groups)
	}
	if selected, _ := doc.Find("#gpxSelect option[selected]").Attr("value"); selected != "loose.gpx" {
		t.Errorf("selected = %q", selected)
	}
	if n := doc.Find("#palette option").Length(); n != len(gpx.Palette) {
		t.Errorf("expected %d palette options, got %d", len(gpx.Palette), n)
	}
	if token, _ := doc.Find("#map").Attr("data-token"); token != "pk.test" {
		t.Errorf("token = %q", token)
	}
	if v, _ := doc.Find("#startColor").Attr("value"); v != gpx.DefaultStartColor {
		t.Errorf("start color = %q", v)
	}
}
