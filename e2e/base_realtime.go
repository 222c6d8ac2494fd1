package e2e

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"

	"artisan-chat/auth"
	"artisan-chat/client"
	"artisan-chat/domain"
	"artisan-chat/moderation"
	"artisan-chat/realtime"
	"artisan-chat/repositories"
	"artisan-chat/services"
)

// BaseRealtimeSuite boots the full realtime stack in-process: BadgerDB and
// the search index on temp dirs, the moderation automaton from the
// embedded dictionaries, and the websocket endpoint on an httptest server.
type BaseRealtimeSuite struct {
	suite.Suite
	Config Config

	log      *slog.Logger
	db       *badger.DB
	writer   *bluge.Writer
	sessions *repositories.SessionRepository
	tickets  *auth.TicketIssuer
	registry *realtime.Registry
	Hub      *realtime.Hub
	server   *httptest.Server
	URL      string
}

func (s *BaseRealtimeSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	s.log = logs.GetLoggerFromLevel(slog.LevelDebug)

	s.db, err = badger.Open(badger.DefaultOptions(s.T().TempDir()).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.writer, err = bluge.OpenWriter(bluge.DefaultConfig(s.T().TempDir()))
	s.Require().NoError(err)

	banned, err := moderation.LoadBannedWords()
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator(banned.Words, '*', s.log)
	s.Require().NoError(err)

	messageRepository := repositories.NewMessageRepository(s.db, s.log, nil)
	searchRepository := repositories.NewMessageSearchRepository(s.writer, s.log)
	messaging := services.NewMessagingService(messageRepository, searchRepository, moderator, s.log, 2000)

	s.sessions = repositories.NewSessionRepository(s.db)
	s.tickets = auth.NewTicketIssuer([]byte(s.Config.TicketSecret), time.Minute)
	authenticator := auth.NewAuthenticator(
		auth.NewSessionAuthenticator(s.sessions, s.log), s.tickets, s.log)

	s.registry = realtime.NewRegistry(s.log)
	router := realtime.NewRouter(s.log, s.registry, messaging)
	s.Hub = realtime.NewHub(s.log, s.registry, router, authenticator, 64, 5*time.Second, 5*time.Second)

	s.server = httptest.NewServer(http.HandlerFunc(s.Hub.ServeWS))
	s.URL = "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *BaseRealtimeSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.writer != nil {
		_ = s.writer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// SeedSession stores a server-side session for the user and returns the
// cookie header a browser holding that session would send.
func (s *BaseRealtimeSuite) SeedSession(sessionID, userID string) http.Header {
	blob := []byte(fmt.Sprintf(`{"cookie":{"path":"/"},"passport":{"user":%q}}`, userID))
	s.Require().NoError(s.sessions.PutSession(sessionID, blob, time.Hour))

	header := http.Header{}
	header.Set("Cookie", auth.SessionCookieName+"=s%3A"+sessionID+".e2e-signature")
	return header
}

// NewClient starts a managed connection for a seeded session.
func (s *BaseRealtimeSuite) NewClient(header http.Header,
	onMessage func(domain.Message), onNotification func(map[string]any)) *client.Manager {
	manager := client.NewManager(s.log, s.URL, header, onMessage, onNotification)
	manager.Start()
	s.T().Cleanup(manager.Stop)
	return manager
}

// Step prints a colorized banner so scenario progress stands out in logs.
func (s *BaseRealtimeSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Eventually wraps the configured wait timeout around an assertion poll.
func (s *BaseRealtimeSuite) Eventually(condition func() bool, msgAndArgs ...any) {
	s.Require().Eventually(condition, s.Config.WaitTimeout, 20*time.Millisecond, msgAndArgs...)
}
