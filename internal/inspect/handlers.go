package inspect

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/mock"
	"github.com/oxjest/mockgraph/runtime/modules"
	"github.com/oxjest/mockgraph/runtime/value"
)

// ModuleStatus is one entry of GET /modules.
type ModuleStatus struct {
	Specifier string `json:"specifier"`
	Mocked    bool   `json:"mocked"`
	Version   string `json:"version,omitempty"`
}

// MockSummary is the body of POST /modules/{specifier}/mock.
type MockSummary struct {
	Specifier string   `json:"specifier"`
	Root      string   `json:"root"`
	Nodes     int      `json:"nodes"`
	Stubs     []string `json:"stubs"`
	Installed bool     `json:"installed"`
}

// rootName labels the root node in stub paths.
const rootName = "(root)"

func specifierParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "specifier")
	spec, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid specifier %q: %w", raw, err)
	}
	return spec, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"modules": len(s.registry.Specifiers()),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	specs := s.registry.Specifiers()
	out := make([]ModuleStatus, 0, len(specs))
	for _, spec := range specs {
		out = append(out, ModuleStatus{
			Specifier: spec,
			Mocked:    s.registry.Mocked(spec),
			Version:   s.registry.Version(spec),
		})
	}
	renderJSON(w, http.StatusOK, out)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	spec, err := specifierParam(r)
	if err != nil {
		renderError(w, http.StatusBadRequest, err, "bad_request")
		return
	}

	build := func() (*mock.Metadata, error) { return s.registry.Metadata(spec) }

	var (
		md  *mock.Metadata
		hit bool
	)
	if s.metadata != nil {
		md, hit, err = s.metadata.GetOrBuild(r.Context(), spec, s.registry.Version(spec), build)
	} else {
		md, err = build()
	}
	if err != nil {
		s.renderRegistryError(w, spec, err)
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	renderJSON(w, http.StatusOK, md)
}

func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	spec, err := specifierParam(r)
	if err != nil {
		renderError(w, http.StatusBadRequest, err, "bad_request")
		return
	}
	install, _ := strconv.ParseBool(r.URL.Query().Get("install"))

	actual, err := s.registry.RequireActual(spec)
	if err != nil {
		s.renderRegistryError(w, spec, err)
		return
	}
	md, err := mock.BuildMetadata(actual)
	if err != nil {
		s.renderRegistryError(w, spec, err)
		return
	}
	mirrored, err := mock.GenerateMock(md)
	if err != nil {
		s.renderRegistryError(w, spec, err)
		return
	}

	summary := MockSummary{Specifier: spec, Root: string(md.Type), Stubs: []string{}}
	md.Walk(func(path []string, node *mock.Metadata) bool {
		summary.Nodes++
		if node.Type != mock.CategoryFunction {
			return true
		}
		if _, ok := mock.AsStub(resolvePath(mirrored, path)); ok {
			name := rootName
			if len(path) > 0 {
				name = strings.Join(path, ".")
			}
			summary.Stubs = append(summary.Stubs, name)
		}
		return true
	})

	if install {
		s.registry.Mock(spec, nil)
		summary.Installed = true
	}
	renderJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(conn, s.hub)
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}

func (s *Server) renderRegistryError(w http.ResponseWriter, spec string, err error) {
	switch {
	case errors.Is(err, modules.ErrModuleNotFound):
		renderError(w, http.StatusNotFound, err, "not_found")
	case errors.Is(err, mock.ErrUnclassifiable), errors.Is(err, mock.ErrSlotRead):
		renderError(w, http.StatusUnprocessableEntity, err, "unmirrorable")
	default:
		s.logger.Error("inspect request failed", zap.String("specifier", spec), zap.Error(err))
		renderError(w, http.StatusInternalServerError, err, "internal")
	}
}

// resolvePath follows path through the mirrored graph. It returns nil when a
// step is missing or cannot be read.
func resolvePath(v value.Value, path []string) value.Value {
	for _, name := range path {
		obj, ok := v.(*value.Object)
		if !ok || obj == nil {
			return nil
		}
		next, err := obj.Get(name)
		if err != nil {
			return nil
		}
		v = next
	}
	return v
}
