package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/okian/monopad/internal/adapters/audio"
	"github.com/okian/monopad/internal/adapters/http/api"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/internal/adapters/repository"
	service "github.com/okian/monopad/internal/app"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/rating"
	"github.com/okian/monopad/internal/domain/trust"
	"github.com/okian/monopad/internal/domain/types"
	"github.com/okian/monopad/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps is a hand-written stand-in for the service.
type mockDeps struct {
	entities   map[string]*model.Entity
	triggers   []model.Trigger
	pingErr    error
	statsErr   error
	dismissed  bool
	lastLimit  int
	subscribed int
}

func newMockDeps() *mockDeps {
	return &mockDeps{entities: make(map[string]*model.Entity)}
}

func (m *mockDeps) Register(_ context.Context, id, name string) (*model.Entity, error) {
	if id == "" {
		id = "generated"
	}
	if _, ok := m.entities[id]; ok {
		return nil, fmt.Errorf("register %s: %w", id, service.ErrAlreadyExists)
	}
	e := model.NewEntity(id, name)
	m.entities[id] = e
	return e, nil
}

func (m *mockDeps) Entity(_ context.Context, id string) (*model.Entity, error) {
	e, ok := m.entities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *mockDeps) Rank(_ context.Context, id string) (types.Entry, error) {
	e, ok := m.entities[id]
	if !ok {
		return types.Entry{}, repository.ErrNotFound
	}
	return types.Entry{Rank: 1, EntityID: id, Name: e.Name, Rating: e.Rating, Mode: e.Mode()}, nil
}

func (m *mockDeps) Roster(_ context.Context, limit int) ([]types.Entry, error) {
	m.lastLimit = limit
	return []types.Entry{{Rank: 1, EntityID: "ayla", Rating: 3}}, nil
}

func (m *mockDeps) Remove(_ context.Context, id string) error {
	if _, ok := m.entities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.entities, id)
	return nil
}

func (m *mockDeps) step(id string, up bool) (trust.Outcome, error) {
	e, ok := m.entities[id]
	if !ok {
		return trust.Outcome{}, fmt.Errorf("load %s: %w", id, repository.ErrNotFound)
	}
	prev := e.Rating
	next := rating.Clamp(rating.NextDown(prev))
	if up {
		next = rating.Clamp(rating.NextUp(prev))
	}
	kind, changed := rating.Classify(prev, next)
	e.Rating = next
	return trust.Outcome{EntityID: id, Previous: prev, Current: next, Kind: kind, Changed: changed}, nil
}

func (m *mockDeps) Increase(_ context.Context, id string) (trust.Outcome, error) { return m.step(id, true) }
func (m *mockDeps) Decrease(_ context.Context, id string) (trust.Outcome, error) { return m.step(id, false) }

func (m *mockDeps) Trigger(_ context.Context, t model.Trigger) (trust.Outcome, error) {
	for _, seen := range m.triggers {
		if seen.Signature == t.Signature {
			return trust.Outcome{EntityID: t.EntityID, Duplicate: true}, nil
		}
	}
	m.triggers = append(m.triggers, t)
	return m.step(t.EntityID, t.Direction == model.Increase)
}

func (m *mockDeps) Overlay() overlay.Snapshot {
	return overlay.Snapshot{Visible: true, Mode: rating.Distrust}
}

func (m *mockDeps) Sounds() []audio.Channel {
	return []audio.Channel{{Category: "maxed", Volume: 0.5, Loaded: true}}
}

func (m *mockDeps) Dismiss(context.Context) bool {
	was := !m.dismissed
	m.dismissed = true
	return was
}

func (m *mockDeps) Subscribe(*websocket.Conn) error { m.subscribed++; return nil }
func (m *mockDeps) Unsubscribe(*websocket.Conn) {}

func (m *mockDeps) GetStats(context.Context) (types.Stats, error) {
	if m.statsErr != nil {
		return types.Stats{}, m.statsErr
	}
	return types.Stats{Entities: len(m.entities), Lingering: "trust_maxed"}, nil
}

func (m *mockDeps) Ping(context.Context) error { return m.pingErr }

func newRouter(deps api.Dependencies, opts ...api.Option) *mux.Router {
	router := mux.NewRouter()
	opts = append([]api.Option{api.WithLogger(logger.Nop())}, opts...)
	api.NewServer(deps, opts...).Register(context.Background(), router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Health(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		router := newRouter(deps)

		Convey("Health is ok while the store answers", func() {
			w := do(router, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Health degrades when the store is down", func() {
			deps.pingErr = errors.New("connection refused")
			w := do(router, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Metrics are served in the Prometheus format", func() {
			_ = do(router, http.MethodGet, "/healthz", "")
			w := do(router, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "monopad_http_requests_total")
		})

		Convey("Stats are served as JSON", func() {
			w := do(router, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats types.Stats
			decode(w, &stats)
			So(stats.Lingering, ShouldEqual, "trust_maxed")

			deps.statsErr = errors.New("boom")
			So(do(router, http.MethodGet, "/stats", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Unknown methods are rejected", func() {
			So(do(router, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("The overlay page is embedded", func() {
			w := do(router, http.MethodGet, "/overlay/view", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "/overlay/ws")
		})
	})
}

func TestServer_Entities(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		router := newRouter(deps, api.WithMaxRosterLimit(50))

		Convey("Creating an entity returns it with its rank and gauge", func() {
			w := do(router, http.MethodPost, "/entities", `{"id":"ayla","name":"Ayla"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var body map[string]any
			decode(w, &body)
			So(body["id"], ShouldEqual, "ayla")
			So(body["rating"], ShouldEqual, 1)
			So(body["mode"], ShouldEqual, "trust")
			So(body["rank"], ShouldEqual, 1)
			So(body["gauge"], ShouldNotBeNil)

			Convey("And a second registration conflicts", func() {
				w := do(router, http.MethodPost, "/entities", `{"id":"ayla","name":"Again"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("And it can be fetched and removed", func() {
				So(do(router, http.MethodGet, "/entities/ayla", "").Code, ShouldEqual, http.StatusOK)
				So(do(router, http.MethodDelete, "/entities/ayla", "").Code, ShouldEqual, http.StatusNoContent)
				So(do(router, http.MethodGet, "/entities/ayla", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(router, http.MethodDelete, "/entities/ayla", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("Creating without a name or with bad JSON is a bad request", func() {
			So(do(router, http.MethodPost, "/entities", `{"id":"x"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(router, http.MethodPost, "/entities", `{`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The roster honours and caps the limit", func() {
			So(do(router, http.MethodGet, "/entities", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 50)
			So(do(router, http.MethodGet, "/entities?limit=5", "").Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 5)
			So(do(router, http.MethodGet, "/entities?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(router, http.MethodGet, "/entities?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)

			w := do(router, http.MethodGet, "/entities?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})
	})
}

func TestServer_Ratings(t *testing.T) {
	Convey("Given a registered entity", t, func() {
		deps := newMockDeps()
		_, _ = deps.Register(context.Background(), "ayla", "Ayla")
		router := newRouter(deps)

		Convey("Decrease crosses into distrust", func() {
			w := do(router, http.MethodPost, "/entities/ayla/decrease", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var out map[string]any
			decode(w, &out)
			So(out["current"], ShouldEqual, -1)
			So(out["kind"], ShouldEqual, "trust_to_distrust")
		})

		Convey("Increase steps up", func() {
			w := do(router, http.MethodPost, "/entities/ayla/increase", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.entities["ayla"].Rating, ShouldEqual, 2)
		})

		Convey("Unknown entities are not found", func() {
			So(do(router, http.MethodPost, "/entities/nobody/increase", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Triggers are accepted once and acknowledged as duplicates after", func() {
			body := `{"entity_id":"ayla","signature":"V3C|1","direction":"up"}`
			w := do(router, http.MethodPost, "/triggers", body)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(w.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
			So(deps.triggers[0].Direction, ShouldEqual, model.Increase)

			w = do(router, http.MethodPost, "/triggers", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"duplicate"`)
		})

		Convey("Malformed triggers are bad requests", func() {
			for _, body := range []string{
				`{`,
				`{"signature":"s","direction":"up"}`,
				`{"entity_id":"ayla","direction":"up"}`,
				`{"entity_id":"ayla","signature":"s","direction":"sideways"}`,
			} {
				So(do(router, http.MethodPost, "/triggers", body).Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestServer_Overlay(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		router := newRouter(deps)

		Convey("The snapshot carries the overlay and the sound channels", func() {
			w := do(router, http.MethodGet, "/overlay", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"mode":"distrust"`)
			So(w.Body.String(), ShouldContainSubstring, `"category":"maxed"`)
		})

		Convey("Dismiss reports whether anything was dismissed", func() {
			So(do(router, http.MethodPost, "/overlay/dismiss", "").Body.String(), ShouldContainSubstring, `"dismissed":true`)
			So(do(router, http.MethodPost, "/overlay/dismiss", "").Body.String(), ShouldContainSubstring, `"dismissed":false`)
		})
	})
}

func TestServer_OverlayFeed(t *testing.T) {
	Convey("Given a running service behind the API", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newRouter(svc))
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/overlay/ws", nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		read := func() overlay.Frame {
			var f overlay.Frame
			_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			_, data, err := conn.ReadMessage()
			So(err, ShouldBeNil)
			So(json.Unmarshal(data, &f), ShouldBeNil)
			return f
		}

		Convey("A client first receives the current overlay state", func() {
			f := read()
			So(f.Type, ShouldEqual, overlay.FrameOverlay)
			So(f.Overlay.Visible, ShouldBeFalse)

			Convey("And then the frames of a rating change", func() {
				_, err := svc.Register(context.Background(), "ayla", "Ayla")
				So(err, ShouldBeNil)
				_, err = svc.Increase(context.Background(), "ayla")
				So(err, ShouldBeNil)

				seen := map[overlay.FrameType]bool{}
				for i := 0; i < 40 && !(seen[overlay.FrameSound] && seen[overlay.FrameRefresh] && seen[overlay.FrameOverlay]); i++ {
					seen[read().Type] = true
				}
				So(seen[overlay.FrameSound], ShouldBeTrue)
				So(seen[overlay.FrameRefresh], ShouldBeTrue)
				So(seen[overlay.FrameOverlay], ShouldBeTrue)
			})
		})
	})
}
