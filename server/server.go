// Package server exposes the search facade over HTTP.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/otomedia/oto/domain"
	"github.com/otomedia/oto/search"
	"github.com/otomedia/oto/storage"
)

type Server struct {
	service *search.Service
	store   *storage.Store
	router  *mux.Router
}

func New(service *search.Service, store *storage.Store) *Server {
	s := &Server{service: service, store: store}
	r := mux.NewRouter()
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/upnp", s.handleUPnP).Methods(http.MethodGet)
	r.HandleFunc("/api/random/songs", s.handleRandomSongs).Methods(http.MethodGet)
	r.HandleFunc("/api/random/albums", s.handleRandomAlbums).Methods(http.MethodGet)
	r.HandleFunc("/api/genres", s.handleGenres).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	log.Printf("server: listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func intParam(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// folders resolves the folderId query parameter against the configured
// content roots; absent means all of them.
func (s *Server) folders(r *http.Request) ([]domain.MusicFolder, error) {
	all, err := s.store.MusicFolders()
	if err != nil {
		return nil, err
	}
	raw := r.URL.Query().Get("folderId")
	if raw == "" {
		return all, nil
	}
	wanted := map[int]bool{}
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			wanted[id] = true
		}
	}
	var out []domain.MusicFolder
	for _, f := range all {
		if wanted[f.ID] {
			out = append(out, f)
		}
	}
	return out, nil
}

func parseCollection(name string) (search.Collection, bool) {
	for _, c := range search.Collections() {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	c, ok := parseCollection(r.URL.Query().Get("collection"))
	if !ok {
		c = search.CollectionSong
	}
	folders, err := s.folders(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	result, err := s.service.Search(c, r.URL.Query().Get("q"), folders,
		intParam(r, "offset", 0), intParam(r, "count", 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleUPnP(w http.ResponseWriter, r *http.Request) {
	folders, err := s.folders(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id3 := r.URL.Query().Get("id3") == "true"
	result, err := s.service.UPnPSearch(r.URL.Query().Get("criteria"), folders,
		intParam(r, "offset", 0), intParam(r, "count", 20), id3)
	if err != nil {
		if _, bad := err.(*search.CriteriaError); bad {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleRandomSongs(w http.ResponseWriter, r *http.Request) {
	folders, err := s.folders(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	criteria := domain.RandomCriteria{
		Count:    intParam(r, "count", 10),
		FromYear: intParam(r, "fromYear", 0),
		ToYear:   intParam(r, "toYear", 0),
		Folders:  folders,
	}
	if g := r.URL.Query().Get("genre"); g != "" {
		criteria.Genres = strings.Split(g, ",")
	}
	songs, err := s.service.RandomSongs(criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, songs)
}

func (s *Server) handleRandomAlbums(w http.ResponseWriter, r *http.Request) {
	folders, err := s.folders(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	count := intParam(r, "count", 10)
	if r.URL.Query().Get("id3") == "true" {
		albums, err := s.service.RandomAlbumsID3(count, folders)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, albums)
		return
	}
	albums, err := s.service.RandomAlbums(count, folders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, albums)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.store.Genres()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, genres)
}
