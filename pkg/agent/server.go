// Package agent HTTP API управления линией и коннекторами бэкенда.
package agent

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/call"
	"github.com/arzzra/calling_client/pkg/callhistory"
	"github.com/arzzra/calling_client/pkg/callsettings"
	"github.com/arzzra/calling_client/pkg/line"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/mobius"
	"github.com/arzzra/calling_client/pkg/registration"
	"github.com/arzzra/calling_client/pkg/voicemail"
	"github.com/arzzra/calling_client/pkg/webapi"
)

// Line операции линии, доступные через API
type Line interface {
	LineID() string
	UserID() string
	DeviceURI() string
	Status() line.ProvisioningStatus
	RegistrationStatus() registration.Status
	ActiveServerURL() string
	DeviceID() string
	Register(ctx context.Context) error
	Deregister(ctx context.Context) error
	MakeCall(raw string, t call.Type) (*call.Call, error)
	GetCall(correlationID string) (*call.Call, bool)
	Calls() []*call.Call
	HandleCallEvent(ctx context.Context, ev mobius.CallEvent) error
}

// Config зависимости сервера. Коннекторы необязательны,
// маршруты для отсутствующих не регистрируются.
type Config struct {
	Line         Line
	CallSettings callsettings.Connector
	Voicemail    *voicemail.Client
	CallHistory  *callhistory.Client

	// Gatherer источник метрик для /metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server HTTP API агента
type Server struct {
	cfg    Config
	engine *gin.Engine
	logger *slog.Logger
}

// New собирает маршруты
func New(cfg Config) (*Server, error) {
	if cfg.Line == nil {
		return nil, errors.New("agent: линия не указана")
	}
	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
		logger: logger.OrDefault(cfg.Logger).With("component", "agent"),
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger(s.logger))
	s.routes()
	return s, nil
}

// Handler возвращает http.Handler для http.Server
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/line", s.getLine)
	r.POST("/line/register", s.register)
	r.POST("/line/deregister", s.deregister)
	r.POST("/line/events", s.callEvent)

	r.GET("/calls", s.listCalls)
	r.POST("/calls", s.makeCall)
	r.GET("/calls/:id", s.getCall)
	r.DELETE("/calls/:id", s.endCall)

	if s.cfg.CallSettings != nil {
		g := r.Group("/settings")
		g.GET("/call-waiting", s.getCallWaiting)
		g.GET("/dnd", s.getDoNotDisturb)
		g.PUT("/dnd", s.setDoNotDisturb)
		g.GET("/call-forward", s.getCallForward)
		g.GET("/call-forward-always", s.getCallForwardAlways)
		g.GET("/voicemail", s.getVoicemailSetting)
	}
	if s.cfg.Voicemail != nil {
		g := r.Group("/voicemail")
		g.GET("", s.listVoicemail)
		g.GET("/summary", s.voicemailSummary)
		g.GET("/content", s.voicemailContent)
		g.GET("/transcript", s.voicemailTranscript)
		g.POST("/read", s.markVoicemail(true))
		g.POST("/unread", s.markVoicemail(false))
		g.DELETE("", s.deleteVoicemail)
	}
	if s.cfg.CallHistory != nil {
		r.GET("/history", s.callHistory)
		r.POST("/history/events", s.sessionEvent)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

// abort отвечает ошибкой линии в форме *webapi.Error
func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	switch {
	case errors.Is(err, registration.ErrDeactivated):
		status = http.StatusConflict
	case errors.Is(err, line.ErrCallNotFound), errors.Is(err, line.ErrForeignDevice):
		status = http.StatusNotFound
	default:
		apiErr := webapi.Classify(err)
		body = errorBody{Error: apiErr.Message, Kind: apiErr.Kind.String()}
		if apiErr.Cause != nil {
			body.Details = apiErr.Cause.Error()
		}
		if apiErr.StatusCode != 0 {
			status = apiErr.StatusCode
		} else {
			status = http.StatusServiceUnavailable
		}
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// respond пишет ответ коннектора с его кодом статуса
func respond[T any](c *gin.Context, resp backend.Response[T]) {
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
