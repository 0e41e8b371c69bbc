package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/okian/monopad/internal/adapters/http/api"
	"github.com/okian/monopad/internal/adapters/http/swagger"
	"github.com/okian/monopad/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a router with the docs routes", t, func() {
		router := mux.NewRouter()
		swagger.Register(context.Background(), router)

		convey.Convey("Then it serves the OpenAPI document", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "/triggers")
		})

		convey.Convey("And it serves the docs page", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody))

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
		})
	})

	convey.Convey("Given a nil router", t, func() {
		convey.So(func() { swagger.Register(context.Background(), nil) }, convey.ShouldPanic)
	})
}

func TestDocumentCoversRoutes(t *testing.T) {
	convey.Convey("Given the API routes", t, func() {
		router := mux.NewRouter()
		api.NewServer(nil, api.WithLogger(logger.Nop())).Register(context.Background(), router)

		paths, err := swagger.Paths()
		convey.So(err, convey.ShouldBeNil)
		documented := make(map[string]bool, len(paths))
		for _, p := range paths {
			documented[p] = true
		}

		convey.Convey("Then every route is documented", func() {
			err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
				tpl, err := route.GetPathTemplate()
				if err != nil {
					return err
				}
				convey.So(documented[tpl], convey.ShouldBeTrue)
				return nil
			})
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
