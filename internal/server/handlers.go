package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AveryRegier/actsix/internal/store"
	"github.com/AveryRegier/actsix/pkg/actsix"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	hs, err := s.store.ListHouseholds(r.Context())
	if err != nil {
		s.internalError(w, "list households", err)
		return
	}
	out := actsix.HouseholdList{Households: make([]actsix.Household, len(hs)), Count: len(hs)}
	for i, h := range hs {
		out.Households[i] = actsix.HouseholdFrom(h)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var in actsix.Household
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.LastName) == "" {
		writeError(w, http.StatusBadRequest, "lastName is required")
		return
	}
	id, err := s.store.CreateHousehold(r.Context(), in.ToModel())
	if err != nil {
		s.internalError(w, "create household", err)
		return
	}
	writeJSON(w, http.StatusCreated, actsix.Created{Message: "Household created successfully", ID: id})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, "list members", err)
		return
	}
	out := actsix.MemberList{Members: make([]actsix.Member, len(ms)), Count: len(ms)}
	for i, m := range ms {
		out.Members[i] = actsix.MemberFrom(m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.ListContacts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, "list contacts", err)
		return
	}
	out := actsix.ContactList{Contacts: make([]actsix.Contact, len(cs)), Count: len(cs)}
	for i, c := range cs {
		out.Contacts[i] = actsix.ContactFrom(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var in actsix.Member
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.FirstName == "" || in.LastName == "" {
		writeError(w, http.StatusBadRequest, "firstName and lastName are required")
		return
	}
	id, err := s.store.CreatePerson(r.Context(), in.ToModel())
	if err != nil {
		s.internalError(w, "create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, actsix.Created{Message: "Member created successfully", ID: id})
}

// handleListDeacons serves the caretaker roster. "add" names extra tags,
// comma separated, whose members join the deacons.
func (s *Server) handleListDeacons(w http.ResponseWriter, r *http.Request) {
	var extra []string
	if add := r.URL.Query().Get("add"); add != "" {
		extra = strings.Split(add, ",")
	}
	ds, err := s.store.ListCaretakers(r.Context(), extra...)
	if err != nil {
		s.internalError(w, "list deacons", err)
		return
	}
	out := actsix.DeaconList{Deacons: make([]actsix.Member, len(ds)), Count: len(ds)}
	for i, d := range ds {
		out.Deacons[i] = actsix.MemberFrom(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in actsix.Contact
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(in.MemberID) == 0 || len(in.DeaconID) == 0 || in.ContactType == "" || in.Summary == "" || in.ContactDate == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: memberId, deaconId, contactType, summary, contactDate")
		return
	}
	rec := in.ToModel()
	rec.ID = ""
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.CreateContact(r.Context(), rec)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		s.internalError(w, "create contact", err)
		return
	}
	writeJSON(w, http.StatusCreated, actsix.Created{Message: "Contact logged successfully", ID: id})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("server: "+op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, actsix.ErrorBody{Error: msg})
}
