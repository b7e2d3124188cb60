// Package httpapi wires the sLS HTTP surface (spec §6) onto a stdlib
// net/http ServeMux, translating request bodies/query strings into
// domain calls and apierr.Kind into HTTP status codes.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"sls/apierr"
	"sls/edit"
	"sls/lookup"
	"sls/query"
	"sls/record"
	"sls/registration"
	"sls/subscription"
)

// Handler bundles the domain services the HTTP surface fronts.
type Handler struct {
	register *registration.Service
	editor   *edit.Service
	lookup   *lookup.Service
	subs     *subscription.Manager
	log      *logrus.Entry
}

func New(register *registration.Service, editor *edit.Service, lookupSvc *lookup.Service, subs *subscription.Manager, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{register: register, editor: editor, lookup: lookupSvc, subs: subs, log: log}
}

// Mux builds the routed ServeMux per spec §6's path table.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /records", h.handleRegister)
	mux.HandleFunc("GET /records", h.handleQuery)
	mux.HandleFunc("GET /records/{uri}", h.handleGet)
	mux.HandleFunc("POST /records/{uri}", h.handleRenew)
	mux.HandleFunc("DELETE /records/{uri}", h.handleDelete)
	mux.HandleFunc("POST /subscribe", h.handleSubscribe)
	mux.HandleFunc("DELETE /subscribe/{id}", h.handleUnsubscribe)
	mux.HandleFunc("GET /lookup/services/archive", h.handleArchiveQuery)
	return mux
}

type registerRequest struct {
	Type        string                   `json:"record-type"`
	TTL         string                   `json:"record-ttl"`
	AccessToken string                   `json:"client-uuid"`
	Attrs       map[string]record.Value `json:"attributes"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.Wrap(apierr.BadRequest, err, "decode request body"))
		return
	}

	rec, err := h.register.Register(r.Context(), registration.Proposed{
		Type:        req.Type,
		TTL:         req.TTL,
		AccessToken: req.AccessToken,
		Attrs:       req.Attrs,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := query.FromQueryString(r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	results, err := h.lookup.Find(r.Context(), lookup.NamespaceLive, q)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleArchiveQuery(w http.ResponseWriter, r *http.Request) {
	q, err := query.FromQueryString(r.URL.Query())
	if err != nil {
		writeErr(w, err)
		return
	}
	results, err := h.lookup.Find(r.Context(), lookup.NamespaceArchive, q)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	uri := r.PathValue("uri")
	rec, err := h.lookup.Get(r.Context(), lookup.NamespaceLive, uri)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type editRequest struct {
	TTL         string                   `json:"record-ttl"`
	AccessToken string                   `json:"client-uuid"`
	Attrs       map[string]record.Value `json:"attributes"`
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	uri := r.PathValue("uri")
	var req editRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeErr(w, apierr.Wrap(apierr.BadRequest, err, "decode request body"))
		return
	}

	rec, err := h.editor.Renew(r.Context(), uri, edit.Delta{TTL: req.TTL, AccessToken: req.AccessToken, Attrs: req.Attrs})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	uri := r.PathValue("uri")
	token := r.URL.Query().Get("client-uuid")

	rec, err := h.editor.Delete(r.Context(), uri, edit.Delta{AccessToken: token})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type subscribeRequest struct {
	ID       string            `json:"subscription-id"`
	Endpoint string            `json:"delivery-endpoint"`
	Operator string            `json:"record-operator"`
	Clauses  map[string]any    `json:"query"`
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, apierr.Wrap(apierr.BadRequest, err, "decode request body"))
		return
	}
	if req.ID == "" || req.Endpoint == "" {
		writeErr(w, apierr.New(apierr.BadRequest, "subscription-id and delivery-endpoint are required"))
		return
	}

	fields := make(map[string]record.Value, len(req.Clauses)+1)
	if req.Operator != "" {
		fields[record.KeyOperator] = record.String(req.Operator)
	}
	for k, raw := range req.Clauses {
		v, err := record.FromAny(raw)
		if err != nil {
			writeErr(w, apierr.Wrap(apierr.BadRequest, err, k))
			return
		}
		fields[k] = v
	}

	q, err := query.FromValues(fields)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.subs.Subscribe(subscription.Definition{ID: req.ID, Query: q, Endpoint: req.Endpoint})
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	h.subs.Unsubscribe(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func decodeOptionalBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}
