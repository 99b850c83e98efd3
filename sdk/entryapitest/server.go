// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Package entryapitest provides an in-process fake of the remote entry API.
package entryapitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
)

// Upload is one received binary upload.
type Upload struct {
	ID        string
	DatasetID string
	FileName  string
	Size      int
}

// Rejection makes the fake answer with Status and Body.
type Rejection struct {
	Status int
	Body   string
}

// API records what clients send and answers like the real service.
type API struct {
	// Token, when set, must be sent as a bearer token.
	Token string
	// RejectValidation is consulted with the payload's dataName.
	RejectValidation func(dataName string) *Rejection
	// RejectUpload is consulted with the decoded file name.
	RejectUpload func(fileName string) *Rejection
	// RejectSubmit is consulted with the payload's dataName.
	RejectSubmit func(dataName string) *Rejection
	// RequestLog enables chi's request logger.
	RequestLog bool

	// Datasets, Samples (by group id) and Schemas (by template id) back the read endpoints.
	Datasets map[string]map[string]any
	Samples  map[string][]map[string]any
	Schemas  map[string]map[string]any

	mu          sync.Mutex
	uploads     []Upload
	validations []map[string]any
	entries     []map[string]any
}

func NewAPI() *API { return &API{} }

// Router builds the chi router serving the API.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()
	if a.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(a.auth)

	r.Post("/uploads", a.upload)
	r.Post("/entries", a.entry)
	r.Get("/datasets/{id}", a.dataset)
	r.Get("/invoiceSchemas/{id}", a.schema)
	r.Get("/samples", a.samples)
	return r
}

func (a *API) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if a.Token != "" && req.Header.Get("Authorization") != "Bearer "+a.Token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (a *API) upload(w http.ResponseWriter, req *http.Request) {
	datasetID := req.URL.Query().Get("datasetId")
	if datasetID == "" {
		writeError(w, http.StatusBadRequest, "datasetId is required")
		return
	}
	if ct := req.Header.Get("Content-Type"); ct != config.ContentTypeBinary {
		writeError(w, http.StatusUnsupportedMediaType, "unexpected content type "+ct)
		return
	}
	name, err := url.PathUnescape(req.Header.Get("X-File-Name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "X-File-Name is required")
		return
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if a.RejectUpload != nil {
		if rj := a.RejectUpload(name); rj != nil {
			writeRaw(w, rj)
			return
		}
	}

	up := Upload{ID: utils.UUIDv4NoDash(), DatasetID: datasetID, FileName: name, Size: len(body)}
	a.mu.Lock()
	a.uploads = append(a.uploads, up)
	a.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"uploadId": up.ID})
}

func (a *API) entry(w http.ResponseWriter, req *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dataName := utils.GetPathString(payload, "data", "attributes", "invoice", "basic", "dataName")

	if req.URL.Query().Get("validationOnly") == "true" {
		if a.RejectValidation != nil {
			if rj := a.RejectValidation(dataName); rj != nil {
				writeRaw(w, rj)
				return
			}
		}
		a.mu.Lock()
		a.validations = append(a.validations, payload)
		a.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"meta": map[string]any{"valid": true}})
		return
	}

	if a.RejectSubmit != nil {
		if rj := a.RejectSubmit(dataName); rj != nil {
			writeRaw(w, rj)
			return
		}
	}
	a.mu.Lock()
	a.entries = append(a.entries, payload)
	n := len(a.entries)
	a.mu.Unlock()

	sampleID := utils.GetPathString(payload, "data", "attributes", "invoice", "sample", "sampleId")
	if sampleID == "" {
		sampleID = fmt.Sprintf("sample-%d", n)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"type": "entry",
			"id":   fmt.Sprintf("entry-%d", n),
			"relationships": map[string]any{
				"sample": map[string]any{"data": map[string]any{"type": "sample", "id": sampleID}},
			},
		},
	})
}

func (a *API) dataset(w http.ResponseWriter, req *http.Request) {
	d, ok := a.Datasets[chi.URLParam(req, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (a *API) schema(w http.ResponseWriter, req *http.Request) {
	s, ok := a.Schemas[chi.URLParam(req, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "schema not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) samples(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	all := a.Samples[q.Get("groupId")]
	limit, err := strconv.Atoi(q.Get("page[limit]"))
	if err != nil || limit <= 0 {
		limit = len(all)
	}
	offset, _ := strconv.Atoi(q.Get("page[offset]"))
	page := []map[string]any{}
	if offset < len(all) {
		page = all[offset:min(offset+limit, len(all))]
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": page, "meta": map[string]any{"totalCounts": len(all)}})
}

// Uploads returns the accepted uploads in arrival order.
func (a *API) Uploads() []Upload {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Upload(nil), a.uploads...)
}

// Entries returns the created entry payloads in arrival order.
func (a *API) Entries() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]map[string]any(nil), a.entries...)
}

func (a *API) Validations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.validations)
}

// Server is an API listening on a local httptest server.
type Server struct {
	*API
	*httptest.Server
}

func NewServer() *Server {
	api := NewAPI()
	return &Server{API: api, Server: httptest.NewServer(api.Router())}
}

// CoreConfig points a client at the server.
func (s *Server) CoreConfig() config.CoreConfig {
	return config.CoreConfig{BaseURL: s.URL, AccessToken: s.Token}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", config.ContentTypeJSONAPI)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{
		"errors": []any{map[string]any{"status": fmt.Sprint(status), "detail": detail}},
	})
}

func writeRaw(w http.ResponseWriter, rj *Rejection) {
	w.Header().Set("Content-Type", config.ContentTypeJSONAPI)
	w.WriteHeader(rj.Status)
	_, _ = io.WriteString(w, rj.Body)
}
