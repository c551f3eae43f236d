package bot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"librarian/internal/browse"
	"librarian/internal/i18n"
	"librarian/internal/metrics"
	"librarian/internal/models"
	"librarian/internal/screens"
	"librarian/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// initDataMaxAge bounds how old a Mini App launch may be
const initDataMaxAge = 24 * time.Hour

// devUserHeader carries the user id when authentication is skipped in polling mode
const devUserHeader = "X-Telegram-User-ID"

const loopbackHost = "127.0.0.1"

type userIDKey struct{}

// HTTPServer serves the webhook, health and metrics endpoints and the Mini App API
type HTTPServer struct {
	bot            *Bot
	token          string
	webhookMode    bool // If false (polling mode), skip initData validation for easier local dev
	metricsEnabled bool
	now            func() time.Time
}

// NewHTTPServer creates the HTTP surface of the bot
func NewHTTPServer(bot *Bot, webhookMode, metricsEnabled bool) *HTTPServer {
	hs := &HTTPServer{
		bot:            bot,
		webhookMode:    webhookMode,
		metricsEnabled: metricsEnabled,
		now:            time.Now,
	}
	if bot.api != nil {
		hs.token = bot.api.Token
	}
	if !webhookMode {
		bot.logger.Warn("Mini App API trusts the "+devUserHeader+" header, listening on loopback only",
			zap.String("host", loopbackHost))
	}
	return hs
}

// Addr returns the address to listen on. Without webhooks the Mini App API is reachable
// from this machine only.
func (hs *HTTPServer) Addr(port string) string {
	if hs.webhookMode {
		return ":" + port
	}
	return net.JoinHostPort(loopbackHost, port)
}

// Handler returns the routes wrapped in the common middleware
func (hs *HTTPServer) Handler() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.errorResponse(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	hs.handle(router, http.MethodGet, "/health", hs.handleHealth)
	hs.handle(router, http.MethodGet, "/", hs.handleRoot)
	hs.handle(router, http.MethodPost, "/telegram-webhook", hs.handleWebhook)
	if hs.metricsEnabled {
		router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	}

	hs.handle(router, http.MethodGet, "/api/history", hs.authenticate(hs.handleHistory))
	hs.handle(router, http.MethodDelete, "/api/history", hs.authenticate(hs.handleClearHistory))
	hs.handle(router, http.MethodDelete, "/api/history/:query", hs.authenticate(hs.handleRemoveHistory))
	hs.handle(router, http.MethodGet, "/api/search", hs.authenticate(hs.handleSearch))
	hs.handle(router, http.MethodGet, "/api/preferences", hs.authenticate(hs.handlePreferences))
	hs.handle(router, http.MethodPut, "/api/preferences", hs.authenticate(hs.handleUpdatePreferences))

	return hs.recoverPanic(router)
}

// handle registers h and counts its responses under the route pattern
func (hs *HTTPServer) handle(router *httprouter.Router, method, path string, h http.HandlerFunc) {
	router.HandlerFunc(method, path, func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(h, w, r)
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(m.Code)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path).Observe(m.Duration.Seconds())
	})
}

// recoverPanic middleware recovers from panics and will always be run in the event of a panic
func (hs *HTTPServer) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				hs.bot.logger.Error("Recovered from panic in HTTP handler",
					zap.Any("panic", err),
					zap.String("path", r.URL.Path),
				)
				hs.errorResponse(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (hs *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	mode := "polling"
	if hs.webhookMode {
		mode = "webhook"
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Librarian bot is running (mode: %s)", mode)
}

func (hs *HTTPServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		hs.bot.logger.Warn("Error decoding webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Process update in background to respond quickly to Telegram
	go hs.bot.HandleWebhookUpdate(context.WithoutCancel(r.Context()), update)

	w.WriteHeader(http.StatusOK)
}

// validateTelegramInitData validates the Telegram Mini App initData and returns the user id
func (hs *HTTPServer) validateTelegramInitData(initData string) (int64, error) {
	if initData == "" {
		return 0, errors.New("missing initData")
	}

	// Parse the initData
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	// Extract hash
	hash := values.Get("hash")
	if hash == "" {
		return 0, errors.New("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(signInitData(hs.token, values)), []byte(hash)) {
		return 0, errors.New("invalid hash")
	}

	// Check auth_date (data should be recent, within 24 hours)
	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, errors.New("missing auth_date")
	}
	if hs.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, errors.New("initData is too old")
	}

	// Extract user ID
	userStr := values.Get("user")
	if userStr == "" {
		return 0, errors.New("missing user data")
	}
	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	return userData.ID, nil
}

// signInitData computes the hash Telegram puts into initData
func signInitData(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// authenticate validates Telegram Mini App authentication.
// In polling mode (webhookMode=false), the user id is read from a plain header for easier local development.
func (hs *HTTPServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			userID int64
			err    error
		)
		if hs.webhookMode {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "tma ") {
				hs.bot.logger.Warn("Missing or invalid authorization header")
				hs.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			userID, err = hs.validateTelegramInitData(strings.TrimPrefix(authHeader, "tma "))
		} else {
			userID, err = strconv.ParseInt(r.Header.Get(devUserHeader), 10, 64)
		}
		if err != nil {
			hs.bot.logger.Warn("Failed to authenticate request",
				zap.Error(err),
				zap.String("remote_addr", r.RemoteAddr),
			)
			hs.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// Check if user is allowed
		if !hs.bot.allowedUsers[userID] {
			hs.bot.logger.Warn("Unauthorized Mini App access attempt", zap.Int64("user_id", userID))
			hs.errorResponse(w, http.StatusForbidden, "Forbidden")
			return
		}

		hs.bot.logger.Debug("Authenticated request",
			zap.Int64("user_id", userID),
			zap.String("path", r.URL.Path),
		)
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
	}
}

// requestDesk returns the desk of the authenticated user
func (hs *HTTPServer) requestDesk(w http.ResponseWriter, r *http.Request) (*chatDesk, bool) {
	userID, _ := r.Context().Value(userIDKey{}).(int64)
	d, err := hs.bot.desk(r.Context(), userID, "", 0)
	if err != nil {
		hs.bot.logger.Error("Failed to open desk", zap.Int64("user_id", userID), zap.Error(err))
		hs.errorResponse(w, http.StatusInternalServerError, "Storage is unavailable")
		return nil, false
	}
	return d, true
}

func (hs *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}
	hs.writeJSON(w, http.StatusOK, historyResponse(d.Search.View().History))
}

func (hs *HTTPServer) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}
	if err := d.Search.ClearRecent(r.Context()); err != nil {
		hs.bot.logger.Error("Failed to clear recent searches", zap.Error(err))
		hs.errorResponse(w, http.StatusInternalServerError, "Failed to clear recent searches")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (hs *HTTPServer) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}
	query := httprouter.ParamsFromContext(r.Context()).ByName("query")
	if err := d.Search.RemoveRecent(r.Context(), query); err != nil {
		hs.bot.logger.Error("Failed to remove recent search", zap.String("query", query), zap.Error(err))
		hs.errorResponse(w, http.StatusInternalServerError, "Failed to remove recent search")
		return
	}
	hs.writeJSON(w, http.StatusOK, historyResponse(d.Search.View().History))
}

// pageResponse is one page of a result list
type pageResponse[T any] struct {
	Items     []T `json:"items"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func newPageResponse[T any](p browse.Page[T]) pageResponse[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return pageResponse[T]{Items: items, Page: p.Number, PageCount: p.Count, Total: p.Total}
}

type searchResponse struct {
	Query   string                      `json:"query"`
	Books   pageResponse[models.Book]   `json:"books"`
	Readers pageResponse[models.Reader] `json:"readers"`

	BooksError   string `json:"booksError,omitempty"`
	ReadersError string `json:"readersError,omitempty"`
}

// handleSearch runs a search at once, without the typing delay, and returns the requested pages
func (hs *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}
	if !d.session.SignedIn() {
		hs.errorResponse(w, http.StatusUnauthorized, "Please sign in with /login")
		return
	}

	q := r.URL.Query()
	// a failed section is reported in the response, the other one is still useful
	if err := d.Search.Submit(r.Context(), q.Get("q")); err != nil {
		hs.bot.logger.Debug("Mini App search failed", zap.String("query", q.Get("q")), zap.Error(err))
	}
	if n, err := strconv.Atoi(q.Get("booksPage")); err == nil {
		d.Search.GoTo(screens.SectionBooks, n)
	}
	if n, err := strconv.Atoi(q.Get("readersPage")); err == nil {
		d.Search.GoTo(screens.SectionReaders, n)
	}

	v := d.Search.View()
	if v.Books.Err != nil && v.Readers.Err != nil {
		hs.errorResponse(w, http.StatusBadGateway, "Search failed")
		return
	}
	res := searchResponse{
		Query:   v.Query,
		Books:   newPageResponse(v.Books.Page),
		Readers: newPageResponse(v.Readers.Page),
	}
	if v.Books.Err != nil {
		res.BooksError = "unavailable"
	}
	if v.Readers.Err != nil {
		res.ReadersError = "unavailable"
	}
	hs.writeJSON(w, http.StatusOK, res)
}

func (hs *HTTPServer) handlePreferences(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}
	hs.writeJSON(w, http.StatusOK, d.session.Preferences())
}

func (hs *HTTPServer) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	d, ok := hs.requestDesk(w, r)
	if !ok {
		return
	}

	var req session.Preferences
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		hs.bot.logger.Warn("Failed to decode request body", zap.Error(err))
		hs.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := d.session.SetDarkMode(r.Context(), req.DarkMode); err != nil {
		hs.bot.logger.Error("Failed to store dark mode", zap.Error(err))
		hs.errorResponse(w, http.StatusInternalServerError, "Failed to store preferences")
		return
	}
	if req.Language != "" {
		if err := d.session.SetLanguage(r.Context(), i18n.Match(req.Language).String()); err != nil {
			hs.bot.logger.Error("Failed to store language", zap.Error(err))
			hs.errorResponse(w, http.StatusInternalServerError, "Failed to store preferences")
			return
		}
	}
	hs.writeJSON(w, http.StatusOK, d.session.Preferences())
}

func historyResponse(history []browse.RecentSearch) []browse.RecentSearch {
	if history == nil {
		return []browse.RecentSearch{}
	}
	return history
}

func (hs *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hs.bot.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (hs *HTTPServer) errorResponse(w http.ResponseWriter, status int, message string) {
	hs.writeJSON(w, status, map[string]string{"error": message})
}
