// Package settings provides HTTP handlers for theme and dashboard view
// settings.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/views"
	"github.com/HerbHall/fleetdeck/pkg/models"
)

// ThemeService is the theme store surface the handlers use.
type ThemeService interface {
	SetTheme(ctx context.Context, id models.ThemeID) (models.ThemeID, error)
	CurrentThemeID() models.ThemeID
	ThemeColors() models.Palette
	Themes() []models.Theme
}

// ViewService is the view registry surface the handlers use.
type ViewService interface {
	Views() []models.View
	ListUserViews() []models.View
	ListDefaultViews() []models.View
	ViewsForGroups(groups ...string) []models.View
	View(id string) (models.View, error)
	CurrentView() (models.View, error)
	SetCurrentView(ctx context.Context, id string) error
	SaveView(ctx context.Context, v models.View) (models.View, error)
	CreateView(ctx context.Context, v models.View) (models.View, error)
	DeleteView(ctx context.Context, id string) error
}

// StylesheetRenderer writes the applied theme as CSS.
type StylesheetRenderer interface {
	io.WriterTo
}

// SettingsProblemDetail represents an RFC 7807 error response for settings endpoints.
// @Description RFC 7807 Problem Details error response.
type SettingsProblemDetail struct {
	Type   string   `json:"type" example:"https://fleetdeck.dev/problems/validation"`
	Title  string   `json:"title" example:"Bad Request"`
	Status int      `json:"status" example:"400"`
	Detail string   `json:"detail" example:"invalid view \"dispatch\": duplicate section ids: map"`
	Errors []string `json:"errors,omitempty"`
}

// ThemeResponse describes one selectable theme.
// @Description A theme with its resolved palette.
type ThemeResponse struct {
	ID      models.ThemeID `json:"id" example:"dark"`
	Name    string         `json:"name" example:"Dark"`
	Palette models.Palette `json:"palette"`
	Active  bool           `json:"active"`
}

// ActiveThemeResponse represents the currently active theme.
// @Description Response containing the active theme ID and its palette.
type ActiveThemeResponse struct {
	ThemeID  models.ThemeID `json:"theme_id" example:"dark"`
	Fallback bool           `json:"fallback"`
	Palette  models.Palette `json:"palette"`
}

// ActiveThemeRequest represents a request to set the active theme.
// @Description Request body for setting the active theme.
type ActiveThemeRequest struct {
	ThemeID string `json:"theme_id" example:"dark"`
}

// CurrentViewRequest represents a request to switch the current view.
// @Description Request body for selecting the current view.
type CurrentViewRequest struct {
	ViewID string `json:"view_id" example:"maintenance"`
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	themes ThemeService
	views  ViewService
	css    StylesheetRenderer
	logger *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(themes ThemeService, vs ViewService, css StylesheetRenderer, logger *zap.Logger) *Handler {
	return &Handler{
		themes: themes,
		views:  vs,
		css:    css,
		logger: logger,
	}
}

// RegisterRoutes registers settings-related routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings/themes", h.handleListThemes)
	mux.HandleFunc("GET /api/v1/settings/themes/active", h.handleGetActiveTheme)
	mux.HandleFunc("PUT /api/v1/settings/themes/active", h.handleSetActiveTheme)
	mux.HandleFunc("GET /api/v1/settings/theme.css", h.handleThemeCSS)

	mux.HandleFunc("GET /api/v1/views", h.handleListViews)
	mux.HandleFunc("POST /api/v1/views", h.handleCreateView)
	mux.HandleFunc("GET /api/v1/views/current", h.handleGetCurrentView)
	mux.HandleFunc("PUT /api/v1/views/current", h.handleSetCurrentView)
	mux.HandleFunc("GET /api/v1/views/{id}", h.handleGetView)
	mux.HandleFunc("PUT /api/v1/views/{id}", h.handleUpdateView)
	mux.HandleFunc("DELETE /api/v1/views/{id}", h.handleDeleteView)
}

// ---------- Theme endpoints ----------

// handleListThemes returns every selectable theme.
//
//	@Summary		List themes
//	@Description	Get all themes with their palettes.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{array}	ThemeResponse	"List of themes"
//	@Router			/settings/themes [get]
func (h *Handler) handleListThemes(w http.ResponseWriter, _ *http.Request) {
	active := h.themes.CurrentThemeID()
	all := h.themes.Themes()
	out := make([]ThemeResponse, 0, len(all))
	for i := range all {
		out = append(out, ThemeResponse{
			ID:      all[i].ID,
			Name:    all[i].Name,
			Palette: all[i].Palette,
			Active:  all[i].ID == active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetActiveTheme returns the active theme.
//
//	@Summary		Get active theme
//	@Description	Get the ID and palette of the active theme.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	ActiveThemeResponse	"Active theme"
//	@Router			/settings/themes/active [get]
func (h *Handler) handleGetActiveTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ActiveThemeResponse{
		ThemeID: h.themes.CurrentThemeID(),
		Palette: h.themes.ThemeColors(),
	})
}

// handleSetActiveTheme sets the active theme. Unknown ids activate the light
// theme and report fallback=true.
//
//	@Summary		Set active theme
//	@Description	Set which theme is active. Unknown theme IDs fall back to "light".
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ActiveThemeRequest		true	"Theme ID to activate"
//	@Success		200		{object}	ActiveThemeResponse		"Theme applied"
//	@Failure		400		{object}	SettingsProblemDetail	"Validation error"
//	@Failure		500		{object}	SettingsProblemDetail	"Internal server error"
//	@Router			/settings/themes/active [put]
func (h *Handler) handleSetActiveTheme(w http.ResponseWriter, r *http.Request) {
	var req ActiveThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ThemeID) == "" {
		writeSettingsError(w, http.StatusBadRequest, "theme_id is required")
		return
	}

	applied, err := h.themes.SetTheme(r.Context(), models.ThemeID(req.ThemeID))
	if err != nil {
		h.logger.Error("failed to set active theme", zap.String("theme_id", req.ThemeID), zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to set active theme")
		return
	}

	writeJSON(w, http.StatusOK, ActiveThemeResponse{
		ThemeID:  applied,
		Fallback: string(applied) != req.ThemeID,
		Palette:  h.themes.ThemeColors(),
	})
}

// handleThemeCSS serves the applied palette as CSS custom properties.
//
//	@Summary		Theme stylesheet
//	@Description	CSS variables for the active theme.
//	@Tags			settings
//	@Produce		text/css
//	@Success		200	{string}	string	"Stylesheet"
//	@Router			/settings/theme.css [get]
func (h *Handler) handleThemeCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := h.css.WriteTo(w); err != nil {
		h.logger.Debug("theme.css write aborted", zap.Error(err))
	}
}

// ---------- View endpoints ----------

// handleListViews returns the view catalog.
//
//	@Summary		List views
//	@Description	List dashboard views in catalog order, optionally filtered.
//	@Tags			views
//	@Produce		json
//	@Param			kind	query		string	false	"user or default"
//	@Param			group	query		string	false	"Only views visible to this user group (repeatable)"
//	@Success		200		{array}		models.View				"Views"
//	@Failure		400		{object}	SettingsProblemDetail	"Invalid filter"
//	@Router			/views [get]
func (h *Handler) handleListViews(w http.ResponseWriter, r *http.Request) {
	kind, groups := r.URL.Query().Get("kind"), r.URL.Query()["group"]
	var list []models.View
	switch {
	case kind == "" && len(groups) > 0:
		list = h.views.ViewsForGroups(groups...)
	case kind == "":
		list = h.views.Views()
	case kind == "user":
		list = h.views.ListUserViews()
	case kind == "default":
		list = h.views.ListDefaultViews()
	default:
		writeSettingsError(w, http.StatusBadRequest, "kind must be \"user\" or \"default\"")
		return
	}
	if kind != "" && len(groups) > 0 {
		list = views.FilterVisible(list, groups...)
	}
	if list == nil {
		list = []models.View{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetView returns a single view.
//
//	@Summary		Get view
//	@Description	Get a view by its ID.
//	@Tags			views
//	@Produce		json
//	@Param			id	path		string					true	"View ID"
//	@Success		200	{object}	models.View				"View"
//	@Failure		404	{object}	SettingsProblemDetail	"View not found"
//	@Router			/views/{id} [get]
func (h *Handler) handleGetView(w http.ResponseWriter, r *http.Request) {
	v, err := h.views.View(r.PathValue("id"))
	if err != nil {
		h.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleCreateView adds a user view. An ID is generated when omitted.
//
//	@Summary		Create view
//	@Description	Create a user view. isDefault is ignored.
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.View				true	"View definition"
//	@Success		201		{object}	models.View				"Created view"
//	@Failure		400		{object}	SettingsProblemDetail	"Validation error"
//	@Failure		409		{object}	SettingsProblemDetail	"View ID already exists"
//	@Router			/views [post]
func (h *Handler) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req models.View
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	stored, err := h.views.CreateView(r.Context(), req)
	if err != nil {
		h.writeViewError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/views/"+stored.ID)
	writeJSON(w, http.StatusCreated, stored)
}

// handleUpdateView replaces a view. Default views keep their default flag.
//
//	@Summary		Update view
//	@Description	Replace a view by ID, creating it if absent.
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"View ID"
//	@Param			request	body		models.View				true	"View definition"
//	@Success		200		{object}	models.View				"Stored view"
//	@Failure		400		{object}	SettingsProblemDetail	"Validation error"
//	@Router			/views/{id} [put]
func (h *Handler) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req models.View
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = id
	}
	if req.ID != id {
		writeSettingsError(w, http.StatusBadRequest, "body id does not match path")
		return
	}

	stored, err := h.views.SaveView(r.Context(), req)
	if err != nil {
		h.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleDeleteView removes a user view.
//
//	@Summary		Delete view
//	@Description	Delete a user view. Default views cannot be deleted.
//	@Tags			views
//	@Param			id	path	string	true	"View ID"
//	@Success		204	"View deleted"
//	@Failure		403	{object}	SettingsProblemDetail	"Default views are protected"
//	@Failure		404	{object}	SettingsProblemDetail	"View not found"
//	@Router			/views/{id} [delete]
func (h *Handler) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := h.views.DeleteView(r.Context(), r.PathValue("id")); err != nil {
		h.writeViewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCurrentView returns the current view with sections in render
// order.
//
//	@Summary		Get current view
//	@Description	The selected view, sections sorted for rendering.
//	@Tags			views
//	@Produce		json
//	@Success		200	{object}	models.View				"Current view"
//	@Failure		500	{object}	SettingsProblemDetail	"Catalog invariant violated"
//	@Router			/views/current [get]
func (h *Handler) handleGetCurrentView(w http.ResponseWriter, _ *http.Request) {
	v, err := h.views.CurrentView()
	if err != nil {
		h.writeViewError(w, err)
		return
	}
	v.Sections = views.OrderedSections(v)
	writeJSON(w, http.StatusOK, v)
}

// handleSetCurrentView switches the current view.
//
//	@Summary		Set current view
//	@Description	Select which view the dashboard shows.
//	@Tags			views
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CurrentViewRequest		true	"View to select"
//	@Success		200		{object}	models.View				"Current view"
//	@Failure		400		{object}	SettingsProblemDetail	"Validation error"
//	@Failure		404		{object}	SettingsProblemDetail	"View not found"
//	@Router			/views/current [put]
func (h *Handler) handleSetCurrentView(w http.ResponseWriter, r *http.Request) {
	var req CurrentViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ViewID) == "" {
		writeSettingsError(w, http.StatusBadRequest, "view_id is required")
		return
	}
	if err := h.views.SetCurrentView(r.Context(), req.ViewID); err != nil {
		h.writeViewError(w, err)
		return
	}
	h.handleGetCurrentView(w, r)
}

// writeViewError maps view registry errors onto problem responses.
func (h *Handler) writeViewError(w http.ResponseWriter, err error) {
	var nf *views.NotFoundError
	var conflict *views.ConflictError
	var verr *views.ValidationError
	switch {
	case errors.As(err, &nf):
		writeSettingsError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		writeSettingsError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr) && verr.Protected:
		writeSettingsError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &verr):
		writeProblem(w, SettingsProblemDetail{
			Type:   problemType(http.StatusBadRequest),
			Title:  http.StatusText(http.StatusBadRequest),
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Errors: verr.Problems,
		})
	case errors.Is(err, views.ErrInvariant):
		h.logger.Error("view catalog invariant violated", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error("view operation failed", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "view operation failed")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSettingsError writes an RFC 7807 problem response.
func writeSettingsError(w http.ResponseWriter, status int, detail string) {
	writeProblem(w, SettingsProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

func writeProblem(w http.ResponseWriter, p SettingsProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problemType(status int) string {
	const base = "https://fleetdeck.dev/problems/"
	switch status {
	case http.StatusNotFound:
		return base + "not-found"
	case http.StatusBadRequest:
		return base + "validation"
	case http.StatusForbidden:
		return base + "protected"
	case http.StatusConflict:
		return base + "conflict"
	default:
		return base + "internal-error"
	}
}
