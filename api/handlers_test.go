package api

import (
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/search"
	"batepapo/services"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blugeWriter, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = blugeWriter.Close() })

	moderator, err := moderation.NewModerator([]string{"palavrao"}, '*', log)
	require.NoError(t, err)

	presence := services.NewPresenceService(repositories.NewParticipantRepository(db, log), log)
	messages := services.NewMessageService(
		repositories.NewMessageRepository(db, log),
		presence,
		&moderator,
		search.NewMessageIndex(blugeWriter, log),
		log,
	)
	return NewRouter(NewHandler(presence, messages, log), log)
}

func do(t *testing.T, router *chi.Mux, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	if user != "" {
		r.Header.Set("User", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func listMessages(t *testing.T, router *chi.Mux, target, user string) []messageResponse {
	t.Helper()
	w := do(t, router, http.MethodGet, target, user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	return listed
}

func TestRegisterParticipant(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})
	req.Equal(http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})
	req.Equal(http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: ""})
	req.Equal(http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodGet, "/participants", "", nil)
	req.Equal(http.StatusOK, w.Code)
	var participants []participantResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &participants))
	req.Len(participants, 1)
	req.Equal("Ana", participants[0].Name)
	req.Positive(participants[0].LastStatus)
}

func TestHeartbeat(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/status", "Ana", nil)
	req.Equal(http.StatusNotFound, w.Code)

	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})
	w = do(t, router, http.MethodPost, "/status", "Ana", nil)
	req.Equal(http.StatusOK, w.Code)
}

func TestSendAndListMessages(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Bob"})

	// Unregistered sender.
	w := do(t, router, http.MethodPost, "/messages", "Clara",
		messageRequest{To: "Todos", Text: "oi", Type: "message"})
	req.Equal(http.StatusUnprocessableEntity, w.Code)

	// Missing text.
	w = do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Todos", Text: "", Type: "message"})
	req.Equal(http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Todos", Text: "oi galera", Type: "message"})
	req.Equal(http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Bob", Text: "so pra voce", Type: "private_message"})
	req.Equal(http.StatusCreated, w.Code)

	// Bob sees both join notices, the broadcast and his private message.
	forBob := listMessages(t, router, "/messages", "Bob")
	req.Len(forBob, 4)

	// Clara is not a recipient of the private message.
	forClara := listMessages(t, router, "/messages", "Clara")
	req.Len(forClara, 3)

	// Last two visible entries, original order.
	limited := listMessages(t, router, "/messages?limit=2", "Bob")
	req.Len(limited, 2)
	req.Equal("oi galera", limited[0].Text)
	req.Equal("so pra voce", limited[1].Text)

	w = do(t, router, http.MethodGet, "/messages?limit=0", "Bob", nil)
	req.Equal(http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodGet, "/messages?limit=abc", "Bob", nil)
	req.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestEditAndDeleteMessage(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Bob"})

	w := do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Todos", Text: "oi", Type: "message"})
	req.Equal(http.StatusCreated, w.Code)

	listed := listMessages(t, router, "/messages?limit=1", "Ana")
	req.Len(listed, 1)
	id := listed[0].ID

	w = do(t, router, http.MethodPut, "/messages/"+id, "Bob",
		messageRequest{To: "Todos", Text: "hack", Type: "message"})
	req.Equal(http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodPut, "/messages/"+id, "Ana",
		messageRequest{To: "Todos", Text: "corrigido", Type: "message"})
	req.Equal(http.StatusOK, w.Code)

	listed = listMessages(t, router, "/messages?limit=1", "Ana")
	req.Equal("corrigido", listed[0].Text)
	req.Equal(id, listed[0].ID)

	w = do(t, router, http.MethodDelete, "/messages/"+id, "Bob", nil)
	req.Equal(http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodDelete, "/messages/"+id, "Ana", nil)
	req.Equal(http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, "/messages/"+id, "Ana", nil)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestSearchMessages(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})

	w := do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Todos", Text: "almoco no refeitorio", Type: "message"})
	req.Equal(http.StatusCreated, w.Code)

	found := listMessages(t, router, "/messages/search?q=refeitorio", "Ana")
	req.Len(found, 1)
	req.Equal("almoco no refeitorio", found[0].Text)

	w = do(t, router, http.MethodGet, "/messages/search", "Ana", nil)
	req.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestCensoredMessage(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/participants", "", registerRequest{Name: "Ana"})

	w := do(t, router, http.MethodPost, "/messages", "Ana",
		messageRequest{To: "Todos", Text: "seu palavrao", Type: "message"})
	req.Equal(http.StatusCreated, w.Code)

	listed := listMessages(t, router, "/messages?limit=1", "Ana")
	req.Equal("seu ********", listed[0].Text)
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/health", "", nil)
	req.Equal(http.StatusOK, w.Code)
}
