// Package httpapi serves the group protocol over HTTP: auth credential
// issuance, group create/modify/fetch, change logs and avatar uploads.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

type ctxKey struct{}

type Handler struct {
	accounts *services.AccountService
	groups   *services.GroupService
	avatars  *services.LocalAvatarStore
	logger   logging.Logger
}

// NewHandler wires the services. avatars may be nil when uploads go to S3.
func NewHandler(accounts *services.AccountService, groups *services.GroupService, avatars *services.LocalAvatarStore, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Handler{accounts: accounts, groups: groups, avatars: avatars, logger: logger.With("module", "httpapi")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/certificate/group/{from}/{to}", h.authCredentials)

	r.Route("/v1/groups", func(r chi.Router) {
		r.Use(h.groupAuth)
		r.Put("/", h.createGroup)
		r.Patch("/", h.modifyGroup)
		r.Get("/", h.getGroup)
		r.Get("/logs/{from}", h.groupLog)
		r.Get("/avatar/form", h.avatarForm)
	})

	if h.avatars != nil {
		r.Put(services.AvatarUploadPath+"*", h.putAvatar)
		r.Get(services.AvatarUploadPath+"*", h.getAvatar)
	}
}

// NewRouter returns a router with the handler's routes and the standard
// middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	h.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", code, "error", err)
	http.Error(w, err.Error(), code)
}

func writeProto(w http.ResponseWriter, m interface{ Marshal() []byte }) {
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m.Marshal())
}

func readBody(w http.ResponseWriter, r *http.Request, m interface{ Unmarshal([]byte) error }) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %w", services.ErrBadRequest, err)
	}
	if err := m.Unmarshal(data); err != nil {
		return fmt.Errorf("%w: %w", services.ErrBadRequest, err)
	}
	return nil
}

type credentialResponse struct {
	Credentials []credentialEntry `json:"credentials"`
}

type credentialEntry struct {
	Credential     []byte `json:"credential"`
	RedemptionTime uint32 `json:"redemptionTime"`
}

func uintParam(r *http.Request, name string) (uint32, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", services.ErrBadRequest, name, err)
	}
	return uint32(v), nil
}

// authCredentials issues a credential per day in [from, to]. The caller
// authenticates with "Basic base64(uid:hex(verifier))".
func (h *Handler) authCredentials(w http.ResponseWriter, r *http.Request) {
	user, verifier, err := cryptox.ParseBasicAuth(r.Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", common.ErrUnauthorized, err))
		return
	}
	uid, err := uuid.Parse(user)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", common.ErrUnauthorized, err))
		return
	}
	if _, err := h.accounts.Authenticate(r.Context(), uid, verifier); err != nil {
		h.fail(w, r, err)
		return
	}

	from, err := uintParam(r, "from")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := uintParam(r, "to")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	issued, err := h.accounts.AuthCredentials(r.Context(), uid, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := credentialResponse{Credentials: make([]credentialEntry, 0, len(issued))}
	for _, c := range issued {
		resp.Credentials = append(resp.Credentials, credentialEntry{Credential: c.Credential, RedemptionTime: c.RedemptionDay})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error(r.Context(), "encode credentials", "error", err)
	}
}

func (h *Handler) groupAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := h.groups.Authenticate(r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, auth)))
	})
}

func authFrom(r *http.Request) services.GroupAuth {
	auth, _ := r.Context().Value(ctxKey{}).(services.GroupAuth)
	return auth
}

// conflict writes the current group state with a 409.
func (h *Handler) conflict(w http.ResponseWriter, r *http.Request, err error) bool {
	var ce *services.ConflictError
	if !errors.As(err, &ce) {
		return false
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusConflict)
	_, _ = w.Write(ce.Current.Marshal())
	return true
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var g pb.Group
	if err := readBody(w, r, &g); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.groups.Create(r.Context(), authFrom(r), &g); err != nil {
		if !h.conflict(w, r, err) {
			h.fail(w, r, err)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) modifyGroup(w http.ResponseWriter, r *http.Request) {
	var a pb.GroupChangeActions
	if err := readBody(w, r, &a); err != nil {
		h.fail(w, r, err)
		return
	}
	change, err := h.groups.Modify(r.Context(), authFrom(r), &a)
	if err != nil {
		if !h.conflict(w, r, err) {
			h.fail(w, r, err)
		}
		return
	}
	writeProto(w, change)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.groups.Get(r.Context(), authFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeProto(w, g)
}

func (h *Handler) groupLog(w http.ResponseWriter, r *http.Request) {
	from, err := uintParam(r, "from")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	changes, err := h.groups.Log(r.Context(), authFrom(r), from)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeProto(w, changes)
}

func (h *Handler) avatarForm(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.groups.AvatarForm(r.Context(), authFrom(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeProto(w, attrs)
}

func (h *Handler) putAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", services.ErrBadRequest, err))
		return
	}
	if err := h.avatars.Put(chi.URLParam(r, "*"), data); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := h.avatars.Get(chi.URLParam(r, "*"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}
