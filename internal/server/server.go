package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"metaQuery/internal/ingest"
	"metaQuery/internal/metaquery"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cDefaultMaxUploadBytes = 32 << 20
	cXlsxContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Config struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	cache *ingest.Cache
	cfg   Config
	tmpl  *template.Template
}

func New(cache *ingest.Cache, cfg Config) (*Server, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = cDefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s := new(Server)
	s.cache = cache
	s.cfg = cfg
	s.tmpl = tmpl
	return s, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"metaquery"}`))
	})
	r.Get("/", s.index)
	r.Post("/upload", s.upload)
	r.Route("/datasets/{id}", func(r chi.Router) {
		r.Get("/", s.dataset)
		r.Post("/export", s.export)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"requestID": chimiddleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start).String(),
		}).Info("request")
	})
}

type indexPage struct {
	Error  string
	Prompt string
}

type datasetPage struct {
	ID            string
	Result        *metaquery.Result
	RemovedParent string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logrus.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", indexPage{Prompt: ingest.ErrNoInput.Error()})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.render(w, http.StatusBadRequest, "index.html", indexPage{Error: "invalid upload: " + err.Error()})
		return
	}
	files := make([]ingest.File, 0)
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			s.render(w, http.StatusBadRequest, "index.html", indexPage{Error: err.Error()})
			return
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(f)
		f.Close()
		if err != nil {
			s.render(w, http.StatusBadRequest, "index.html", indexPage{Error: err.Error()})
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: buf.Bytes()})
	}

	id, err := s.cache.Load(files)
	if errors.Is(err, ingest.ErrNoInput) {
		s.render(w, http.StatusOK, "index.html", indexPage{Prompt: err.Error()})
		return
	}
	if err != nil {
		logrus.WithError(err).Warn("upload rejected")
		s.render(w, http.StatusBadRequest, "index.html", indexPage{Error: err.Error()})
		return
	}
	http.Redirect(w, r, "/datasets/"+id+"/", http.StatusSeeOther)
}

// run recomputes the whole pipeline for one request.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (string, *metaquery.Result, bool) {
	id := chi.URLParam(r, "id")
	t, err := s.cache.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return "", nil, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	indexes := make([]int, 0)
	for _, v := range r.Form["select"] {
		i, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad selection: "+v, http.StatusBadRequest)
			return "", nil, false
		}
		indexes = append(indexes, i)
	}
	return id, metaquery.Run(t, r.Form.Get("q"), metaquery.NewSelection(indexes)), true
}

func (s *Server) dataset(w http.ResponseWriter, r *http.Request) {
	id, res, ok := s.run(w, r)
	if !ok {
		return
	}
	page := datasetPage{ID: id, Result: res}
	if removed := res.Dedupe.Removed; removed.ParentColumn() >= 0 {
		page.RemovedParent = removed.Columns[removed.ParentColumn()].Name
	}
	s.render(w, http.StatusOK, "dataset.html", page)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.run(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := metaquery.WriteExport(&buf, res.Export); err != nil {
		logrus.WithError(err).Error("export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", cXlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+metaquery.CExportFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
