package e2e

import (
	"batepapo/api"
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/search"
	"batepapo/services"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseChatSuite boots the whole service in-process (store, index,
// moderation, sweeper, HTTP router) and drives it through the public API,
// the way a polling client would.
type BaseChatSuite struct {
	suite.Suite
	Config Config

	server *httptest.Server
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// StartServer assembles the full stack and runs the eviction sweeper with
// the configured window and period.
func (s *BaseChatSuite) StartServer(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	blugeWriter, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	s.Require().NoError(err)
	t.Cleanup(func() { _ = blugeWriter.Close() })

	censored, err := moderation.LoadWords()
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(censored.Words, '*', log)
	s.Require().NoError(err)

	presence := services.NewPresenceService(repositories.NewParticipantRepository(db, log), log)
	messages := services.NewMessageService(
		repositories.NewMessageRepository(db, log),
		presence,
		&moderator,
		search.NewMessageIndex(blugeWriter, log),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sweeper := workers.NewSweeperWorker(presence, s.Config.InactivityWindow, s.Config.SweepInterval, log)
	sup := workers.NewSupervisor(log, 10*s.Config.SweepInterval)
	sup.Add(sweeper)
	go sup.Run(ctx)
	t.Cleanup(sup.Stop)

	s.server = httptest.NewServer(api.NewRouter(api.NewHandler(presence, messages, log), log))
	t.Cleanup(s.server.Close)
}

// Step prints a colorized header for one scenario step in the logs.
func (s *BaseChatSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Do sends one request to the running server with the given ambient
// identity and returns the status code plus the decoded body.
func (s *BaseChatSuite) Do(method, path, user string, body any) (int, []byte) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if user != "" {
		req.Header.Set("User", user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, payload
}
