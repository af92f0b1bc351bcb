// Package httpapi предоставляет HTTP API только для чтения сохраненных историй навигации.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-navigator/internal/codec"
	"telegram-navigator/internal/domain"
	"telegram-navigator/internal/pkg/config"
	"telegram-navigator/internal/ports"
)

// Store определяет хранилище, которое умеет отдавать сохраненные документы областей.
type Store interface {
	ports.StorageProvider
	Keys(ctx context.Context) ([]string, error)
	Raw(ctx context.Context, key domain.ScopeKey) (json.RawMessage, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	store      Store
	logger     *slog.Logger
}

// historyResponse — ответ на запрос истории области.
type historyResponse struct {
	Key       string          `json:"key"`
	Size      int             `json:"size"`
	Last      *int            `json:"last"`
	Namespace json.RawMessage `json:"namespace"`
}

// lastResponse — ответ на запрос маркера последнего сообщения.
type lastResponse struct {
	Key  string `json:"key"`
	Last *int   `json:"last"`
}

// New создает новый экземпляр Server
func New(cfg *config.Config, store Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, logger: logger.With(slog.String("component", "httpapi"))}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(s.requestLogger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Get("/scopes", s.listScopes)
		r.Route("/scopes/{chat}", func(r chi.Router) {
			r.Get("/history", s.history)
			r.Get("/last", s.last)
		})
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  config.DefaultReadTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}
	return s
}

// Handler возвращает корневой обработчик маршрутов.
func (s *Server) Handler() http.Handler {
	return s.HTTPServer.Handler
}

func (s *Server) listScopes(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.Keys(r.Context())
	if err != nil {
		s.logger.Error("Не удалось получить список областей", "error", err)
		http.Error(w, "Не удалось получить список областей", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	key, ok := scopeKey(w, r)
	if !ok {
		return
	}
	raw, err := s.store.Raw(r.Context(), key)
	if err != nil {
		s.logger.Error("Не удалось загрузить документ области", "key", key.String(), "error", err)
		http.Error(w, "Не удалось загрузить историю", http.StatusInternalServerError)
		return
	}
	if len(raw) == 0 {
		http.Error(w, "История не найдена", http.StatusNotFound)
		return
	}
	history, last, err := codec.DecodeNamespace(raw)
	if err != nil {
		s.logger.Warn("Сохраненная история повреждена", "key", key.String(), "error", err)
		http.Error(w, "Сохраненная история повреждена", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Key: key.String(), Size: len(history), Last: last, Namespace: raw})
}

func (s *Server) last(w http.ResponseWriter, r *http.Request) {
	key, ok := scopeKey(w, r)
	if !ok {
		return
	}
	marker, err := s.store.For(domain.Scope{Chat: key.Chat, Inline: key.Inline}).Peek(r.Context())
	if err != nil {
		s.logger.Error("Не удалось загрузить маркер", "key", key.String(), "error", err)
		http.Error(w, "Не удалось загрузить маркер", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lastResponse{Key: key.String(), Last: marker})
}

// scopeKey разбирает ключ области из пути и параметра inline.
func scopeKey(w http.ResponseWriter, r *http.Request) (domain.ScopeKey, bool) {
	chat, err := strconv.ParseInt(chi.URLParam(r, "chat"), 10, 64)
	if err != nil {
		http.Error(w, "Неверный идентификатор чата", http.StatusBadRequest)
		return domain.ScopeKey{}, false
	}
	return domain.ScopeKey{Chat: chat, Inline: r.URL.Query().Get("inline")}, true
}

// requestLogger пишет одну запись slog на каждый запрос.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP-запрос обработан",
			slog.String("method", r.Method),
			slog.String("route", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}
