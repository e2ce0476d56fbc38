package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeChat struct {
	cleared  []string
	reply    *agent.Reply
	err      error
	title    string
	titleErr error
	requests []agent.Request
	titled   []model.ChatRecord
}

func (f *fakeChat) Send(ctx context.Context, req agent.Request) (*agent.Reply, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChat) GenerateTitle(ctx context.Context, record model.ChatRecord) (string, error) {
	f.titled = append(f.titled, record)
	return f.title, f.titleErr
}

func (f *fakeChat) GetSession(ctx context.Context, sessionID string) ([]model.Content, error) {
	return []model.Content{model.NewTextContent(model.RoleUser, "oi")}, nil
}

func (f *fakeChat) ClearSession(ctx context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

type fakeHistory struct {
	records map[string]*model.ChatRecord
	err     error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{records: map[string]*model.ChatRecord{}}
}

func (f *fakeHistory) Create(ctx context.Context, record *model.ChatRecord) error {
	if f.err != nil {
		return f.err
	}
	record.ID = primitive.NewObjectID()
	f.records[record.ID.Hex()] = record
	return nil
}

func (f *fakeHistory) ListByUser(ctx context.Context, userID string, limit int64) ([]model.ChatRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.ChatRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeHistory) Get(ctx context.Context, id string) (*model.ChatRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeHistory) UpdateTitle(ctx context.Context, id string, title string) (*model.ChatRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.Title = title
	return r, nil
}

func (f *fakeHistory) Delete(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

type fakePreferences struct {
	prefs map[string]string
}

func (f *fakePreferences) Get(ctx context.Context, userID string) (*model.Preferences, error) {
	return &model.Preferences{UserID: userID, CustomSystemInstruction: f.prefs[userID]}, nil
}

func (f *fakePreferences) SetCustomInstruction(ctx context.Context, userID, instruction string) (*model.Preferences, error) {
	f.prefs[userID] = instruction
	return &model.Preferences{UserID: userID, CustomSystemInstruction: instruction}, nil
}

func newTestServer(chat *fakeChat, history *fakeHistory, prefs *fakePreferences) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	static := fstest.MapFS{"index.html": {Data: []byte("<h1>Musashi</h1>")}}
	s := New(":0", chat, logger, WithHistory(history), WithPreferences(prefs), WithStatic(static))
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return out
}

func TestChat(t *testing.T) {
	chat := &fakeChat{reply: &agent.Reply{Text: "Paciência, gafanhoto.", SessionID: "s-1"}}
	h := newTestServer(chat, newFakeHistory(), &fakePreferences{prefs: map[string]string{}})

	for _, path := range []string{"/chat", "/api/chat"} {
		w := do(t, h, http.MethodPost, path, `{"message":"Olá","sessionId":"s-1","userId":"u1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", path, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["reply"] != "Paciência, gafanhoto." || body["sessionId"] != "s-1" {
			t.Errorf("%s: body = %v", path, body)
		}
	}

	got := chat.requests[0]
	if got.Message != "Olá" || got.SessionID != "s-1" || got.UserID != "u1" {
		t.Errorf("request = %+v", got)
	}
}

func TestChat_PromptField(t *testing.T) {
	chat := &fakeChat{reply: &agent.Reply{Text: "ok", SessionID: "new"}}
	h := newTestServer(chat, newFakeHistory(), &fakePreferences{prefs: map[string]string{}})

	w := do(t, h, http.MethodPost, "/chat", `{"prompt":"Que horas são?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if chat.requests[0].Message != "Que horas são?" {
		t.Errorf("message = %q", chat.requests[0].Message)
	}
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "empty message", body: `{"message":"  "}`, wantCode: http.StatusBadRequest, wantMsg: msgMissingMessage},
		{name: "malformed body", body: `{"message":`, wantCode: http.StatusBadRequest},
		{name: "rate limited", body: `{"message":"oi"}`, err: &agent.ProviderError{Kind: agent.ErrProviderRateLimited, Err: errors.New("429")}, wantCode: http.StatusTooManyRequests, wantMsg: msgRateLimited},
		{name: "overloaded", body: `{"message":"oi"}`, err: &agent.ProviderError{Kind: agent.ErrProviderOverloaded, Err: errors.New("503")}, wantCode: http.StatusServiceUnavailable, wantMsg: msgOverloaded},
		{name: "other", body: `{"message":"oi"}`, err: errors.New("secret detail"), wantCode: http.StatusInternalServerError, wantMsg: msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{err: tt.err}
			h := newTestServer(chat, newFakeHistory(), &fakePreferences{prefs: map[string]string{}})

			w := do(t, h, http.MethodPost, "/chat", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			body := decodeBody(t, w)
			if tt.wantMsg != "" && body["error"] != tt.wantMsg {
				t.Errorf("error = %v, want %q", body["error"], tt.wantMsg)
			}
			if strings.Contains(w.Body.String(), "secret detail") {
				t.Error("internal error detail leaked to the client")
			}
		})
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(":0", &fakeChat{}, logger).Handler()
	if w := do(t, h, http.MethodGet, "/chat", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	chat := &fakeChat{title: "O Caminho"}
	history := newFakeHistory()
	h := newTestServer(chat, history, &fakePreferences{prefs: map[string]string{}})

	w := do(t, h, http.MethodPost, "/api/chat/history",
		`{"sessionId":"s-1","userId":"u1","botId":"musashi","messages":[{"role":"user","parts":[{"text":"oi"}]}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	created := decodeBody(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created record has no id: %v", created)
	}
	if created["startTime"] != "2024-01-01T12:00:00Z" {
		t.Errorf("startTime = %v", created["startTime"])
	}

	w = do(t, h, http.MethodGet, "/api/chat/history?userId=u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list []model.ChatRecord
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Fatalf("list = %v, err %v", list, err)
	}

	w = do(t, h, http.MethodPost, "/api/chat/history/"+id+"/title", "")
	if w.Code != http.StatusOK {
		t.Fatalf("title status = %d", w.Code)
	}
	if body := decodeBody(t, w); body["suggestedTitle"] != "O Caminho" {
		t.Errorf("suggested title = %v", body)
	}
	if len(chat.titled) != 1 || chat.titled[0].Messages[0].Text() != "oi" {
		t.Errorf("title generated from %+v", chat.titled)
	}

	w = do(t, h, http.MethodPut, "/api/chat/history/"+id, `{"title":"Novo título"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d", w.Code)
	}
	if history.records[id].Title != "Novo título" {
		t.Errorf("title = %q", history.records[id].Title)
	}

	w = do(t, h, http.MethodDelete, "/api/chat/history/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if len(history.records) != 0 {
		t.Error("record not deleted")
	}
}

func TestHistoryErrors(t *testing.T) {
	history := newFakeHistory()
	h := newTestServer(&fakeChat{}, history, &fakePreferences{prefs: map[string]string{}})

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"list without user", http.MethodGet, "/api/chat/history", "", http.StatusBadRequest},
		{"create without messages", http.MethodPost, "/api/chat/history", `{"sessionId":"s"}`, http.StatusBadRequest},
		{"rename with empty title", http.MethodPut, "/api/chat/history/abc", `{"title":" "}`, http.StatusBadRequest},
		{"rename unknown", http.MethodPut, "/api/chat/history/abc", `{"title":"x"}`, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/chat/history/abc", "", http.StatusNotFound},
		{"title unknown", http.MethodPost, "/api/chat/history/abc/title", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, h, tt.method, tt.path, tt.body); w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestHistoryTitle_ProviderError(t *testing.T) {
	chat := &fakeChat{titleErr: &agent.ProviderError{Kind: agent.ErrProviderRateLimited, Err: errors.New("429")}}
	history := newFakeHistory()
	record := &model.ChatRecord{Messages: []model.Content{model.NewTextContent(model.RoleUser, "oi")}}
	if err := history.Create(context.Background(), record); err != nil {
		t.Fatal(err)
	}
	h := newTestServer(chat, history, &fakePreferences{prefs: map[string]string{}})

	w := do(t, h, http.MethodPost, "/api/chat/history/"+record.ID.Hex()+"/title", "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	prefs := &fakePreferences{prefs: map[string]string{}}
	h := newTestServer(&fakeChat{}, newFakeHistory(), prefs)

	w := do(t, h, http.MethodPut, "/api/user/preferences?userId=u1", `{"customSystemInstruction":"Seja breve."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d", w.Code)
	}
	if prefs.prefs["u1"] != "Seja breve." {
		t.Errorf("stored = %q", prefs.prefs["u1"])
	}

	w = do(t, h, http.MethodGet, "/api/user/preferences?userId=u1", "")
	if body := decodeBody(t, w); body["customSystemInstruction"] != "Seja breve." {
		t.Errorf("get body = %v", body)
	}

	long := strings.Repeat("é", model.MaxCustomInstructionLength+1)
	w = do(t, h, http.MethodPut, "/api/user/preferences?userId=u1", `{"customSystemInstruction":"`+long+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("too long: status = %d", w.Code)
	}

	atLimit := strings.Repeat("é", model.MaxCustomInstructionLength)
	w = do(t, h, http.MethodPut, "/api/user/preferences?userId=u1", `{"customSystemInstruction":"`+atLimit+`"}`)
	if w.Code != http.StatusOK {
		t.Errorf("at limit: status = %d", w.Code)
	}

	if w := do(t, h, http.MethodGet, "/api/user/preferences", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing user: status = %d", w.Code)
	}
}

func TestHealthAndStatic(t *testing.T) {
	h := newTestServer(&fakeChat{}, newFakeHistory(), &fakePreferences{prefs: map[string]string{}})

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || decodeBody(t, w)["status"] != "ok" {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Musashi") {
		t.Errorf("index = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/sessions/s-1", "")
	if w.Code != http.StatusOK {
		t.Errorf("session status = %d", w.Code)
	}
}

func TestSessionDelete(t *testing.T) {
	chat := &fakeChat{}
	h := newTestServer(chat, newFakeHistory(), &fakePreferences{prefs: map[string]string{}})

	w := do(t, h, http.MethodDelete, "/api/sessions/s-1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(chat.cleared) != 1 || chat.cleared[0] != "s-1" {
		t.Errorf("cleared = %v", chat.cleared)
	}
}

func TestOptionalRoutesDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(":0", &fakeChat{}, logger).Handler()

	if w := do(t, h, http.MethodGet, "/api/chat/history?userId=u1", ""); w.Code != http.StatusNotFound {
		t.Errorf("history without repository: status = %d", w.Code)
	}
}
