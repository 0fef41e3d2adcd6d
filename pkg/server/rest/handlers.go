package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/engine/routingalgorithm"
	"lintang/routeplanner/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	ShortestPath(ctx context.Context, startX, startY, endX, endY float64) (datastructure.SearchResult, error)
	ShortestPathLatLon(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64) (datastructure.SearchResult, error)
}

type NavigationHandler struct {
	svc          NavigationService
	promeMetrics *metrics
	validate     *validator.Validate
	trans        ut.Translator
}

func NavigatorRouter(r chi.Router, svc NavigationService, m *metrics) {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &NavigationHandler{svc: svc, promeMetrics: m, validate: validate, trans: trans}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/shortest-path", handler.shortestPath)
			r.Post("/shortest-path-latlon", handler.shortestPathLatLon)
			r.Get("/hello", handler.Hello)
		})
	})
}

// ShortestPathRequest koordinat start & end dalam skala 0-100 dari ukuran map.
type ShortestPathRequest struct {
	StartX *float64 `json:"start_x" validate:"required,gte=0,lte=100"`
	StartY *float64 `json:"start_y" validate:"required,gte=0,lte=100"`
	EndX   *float64 `json:"end_x" validate:"required,gte=0,lte=100"`
	EndY   *float64 `json:"end_y" validate:"required,gte=0,lte=100"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	return nil
}

// ShortestPathLatLonRequest pointer biar lat/lon 0 (ekuator, greenwich) tetap valid, required cuma cek field ada.
type ShortestPathLatLonRequest struct {
	SrcLat *float64 `json:"src_lat" validate:"required,lt=90,gt=-90"`
	SrcLon *float64 `json:"src_lon" validate:"required,lt=180,gt=-180"`
	DstLat *float64 `json:"dst_lat" validate:"required,lt=90,gt=-90"`
	DstLon *float64 `json:"dst_lon" validate:"required,lt=180,gt=-180"`
}

func (s *ShortestPathLatLonRequest) Bind(r *http.Request) error {
	return nil
}

type ShortestPathResponse struct {
	Path          string                     `json:"path"`
	Dist          float64                    `json:"distance"`
	Found         bool                       `json:"found"`
	Route         []datastructure.Coordinate `json:"route,omitempty"`
	ExpandedNodes int                        `json:"expanded_nodes"`
	Alg           string                     `json:"algorithm"`
}

func NewShortestPathResponse(res datastructure.SearchResult) *ShortestPathResponse {
	resp := &ShortestPathResponse{
		Dist:          res.RoundedDistance(2),
		Found:         res.Found,
		ExpandedNodes: res.ExpandedNodes,
		Alg:           "A* Algorithm",
	}
	if res.Found {
		resp.Path = datastructure.RenderPath(res.Path)
		resp.Route = res.Coordinates()
	}
	return resp
}

func (h *NavigationHandler) shortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := h.validate.Struct(*data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return
	}

	h.promeMetrics.SPQueryCount.WithLabelValues("astar").Inc()
	res, err := h.svc.ShortestPath(r.Context(), *data.StartX, *data.StartY, *data.EndX, *data.EndY)
	h.renderResult(w, r, res, err)
}

func (h *NavigationHandler) shortestPathLatLon(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathLatLonRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := h.validate.Struct(*data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return
	}

	h.promeMetrics.SPQueryCount.WithLabelValues("astar_latlon").Inc()
	res, err := h.svc.ShortestPathLatLon(r.Context(), *data.SrcLat, *data.SrcLon, *data.DstLat, *data.DstLon)
	h.renderResult(w, r, res, err)
}

// renderResult rute yang gak ketemu tetap 200 dengan found=false.
func (h *NavigationHandler) renderResult(w http.ResponseWriter, r *http.Request, res datastructure.SearchResult, err error) {
	if err != nil && !errors.Is(err, routingalgorithm.ErrPathNotFound) {
		render.Render(w, r, ErrChi(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(res))
}

func (h *NavigationHandler) Hello(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, "Hello, World!")
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case server.ErrInternalServerError:
		return http.StatusInternalServerError
	case server.ErrNotFound:
		return http.StatusNotFound
	case server.ErrBadParamInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
