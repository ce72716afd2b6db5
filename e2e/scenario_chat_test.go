package e2e

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

type ChatScenarioSuite struct {
	BaseChatSuite
}

func TestChatScenario(t *testing.T) {
	suite.Run(t, new(ChatScenarioSuite))
}

// TestRoomJourney follows one full room lifecycle: Ana registers, posts a
// broadcast, exchanges a private message, stops sending heartbeats and is
// swept out of the room.
func (s *ChatScenarioSuite) TestRoomJourney() {
	t := s.T()
	s.StartServer(t)

	s.Step(t, "Ana enters the room")
	status, _ := s.Do(http.MethodPost, "/participants", "", map[string]string{"name": "Ana"})
	s.Equal(http.StatusCreated, status)

	status, _ = s.Do(http.MethodPost, "/participants", "", map[string]string{"name": "Ana"})
	s.Equal(http.StatusConflict, status)

	s.Step(t, "Bob cannot post before registering")
	status, _ = s.Do(http.MethodPost, "/messages", "Bob",
		map[string]string{"to": "Todos", "text": "oi", "type": "message"})
	s.Equal(http.StatusUnprocessableEntity, status)

	status, _ = s.Do(http.MethodPost, "/participants", "", map[string]string{"name": "Bob"})
	s.Equal(http.StatusCreated, status)

	s.Step(t, "Ana broadcasts, then whispers to Bob")
	status, _ = s.Do(http.MethodPost, "/messages", "Ana",
		map[string]string{"to": "Todos", "text": "oi pessoal", "type": "message"})
	s.Equal(http.StatusCreated, status)

	status, _ = s.Do(http.MethodPost, "/messages", "Ana",
		map[string]string{"to": "Bob", "text": "so entre nos", "type": "private_message"})
	s.Equal(http.StatusCreated, status)

	s.Step(t, "Visibility per identity")
	listFor := s.messages("/messages")
	s.True(lo.ContainsBy(listFor("Bob"), func(m message) bool { return m.Text == "so entre nos" }))
	s.False(lo.ContainsBy(listFor("Clara"), func(m message) bool { return m.Text == "so entre nos" }))

	s.Step(t, "Bob keeps his seat with heartbeats while Ana goes silent")
	deadline := time.Now().Add(3 * s.Config.InactivityWindow)
	for time.Now().Before(deadline) {
		status, _ = s.Do(http.MethodPost, "/status", "Bob", nil)
		s.Equal(http.StatusOK, status)
		time.Sleep(s.Config.InactivityWindow / 4)
	}

	s.Step(t, "The sweeper evicted Ana and broadcast her departure")
	s.Require().Eventually(func() bool {
		return !lo.ContainsBy(s.participants(), func(name string) bool { return name == "Ana" })
	}, 10*s.Config.InactivityWindow, s.Config.SweepInterval)

	s.True(lo.ContainsBy(s.participants(), func(name string) bool { return name == "Bob" }))
	s.True(lo.ContainsBy(listFor("Clara"), func(m message) bool {
		return m.From == "Ana" && m.Type == "status" && m.Text == "sai da sala..."
	}))

	s.Step(t, "Ana is gone: her heartbeat now fails")
	status, _ = s.Do(http.MethodPost, "/status", "Ana", nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *ChatScenarioSuite) participants() []string {
	status, payload := s.Do(http.MethodGet, "/participants", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var listed []struct {
		Name string `json:"name"`
	}
	s.Require().NoError(json.Unmarshal(payload, &listed))
	names := make([]string, 0, len(listed))
	for _, p := range listed {
		names = append(names, p.Name)
	}
	return names
}

func (s *ChatScenarioSuite) messages(path string) func(user string) []message {
	return func(user string) []message {
		status, payload := s.Do(http.MethodGet, path, user, nil)
		s.Require().Equal(http.StatusOK, status)
		var listed []message
		s.Require().NoError(json.Unmarshal(payload, &listed))
		return listed
	}
}
