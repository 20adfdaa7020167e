package agent

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arzzra/calling_client/pkg/call"
	"github.com/arzzra/calling_client/pkg/mobius"
)

type lineView struct {
	LineID             string `json:"lineId"`
	UserID             string `json:"userId"`
	DeviceURI          string `json:"clientDeviceUri"`
	Status             string `json:"status"`
	RegistrationStatus string `json:"registrationStatus"`
	ActiveServer       string `json:"activeMobiusUrl,omitempty"`
	DeviceID           string `json:"deviceId,omitempty"`
	Calls              int    `json:"calls"`
}

func (s *Server) lineView() lineView {
	l := s.cfg.Line
	return lineView{
		LineID:             l.LineID(),
		UserID:             l.UserID(),
		DeviceURI:          l.DeviceURI(),
		Status:             string(l.Status()),
		RegistrationStatus: string(l.RegistrationStatus()),
		ActiveServer:       l.ActiveServerURL(),
		DeviceID:           l.DeviceID(),
		Calls:              len(l.Calls()),
	}
}

func (s *Server) getLine(c *gin.Context) {
	c.JSON(http.StatusOK, s.lineView())
}

func (s *Server) register(c *gin.Context) {
	if err := s.cfg.Line.Register(c.Request.Context()); err != nil {
		loggerFrom(c).Warn("register failed", slog.Any("error", err))
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s.lineView())
}

func (s *Server) deregister(c *gin.Context) {
	if err := s.cfg.Line.Deregister(c.Request.Context()); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s.lineView())
}

// callEvent принимает событие вызова Mobius от транспорта уведомлений
func (s *Server) callEvent(c *gin.Context) {
	var ev mobius.CallEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid event"})
		return
	}
	if err := s.cfg.Line.HandleCallEvent(c.Request.Context(), ev); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type makeCallRequest struct {
	Destination string    `json:"destination" binding:"required"`
	Type        call.Type `json:"type"`
}

func (s *Server) makeCall(c *gin.Context) {
	var req makeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "destination is required"})
		return
	}
	if req.Type == "" {
		req.Type = call.TypeURI
	}

	created, err := s.cfg.Line.MakeCall(req.Destination, req.Type)
	if err != nil {
		abort(c, err)
		return
	}
	loggerFrom(c).Info("call created",
		slog.String("correlation_id", created.CorrelationID()),
		slog.String("destination", created.Destination().String()))
	c.JSON(http.StatusCreated, created.Info())
}

func (s *Server) listCalls(c *gin.Context) {
	calls := s.cfg.Line.Calls()
	out := make([]call.Info, 0, len(calls))
	for _, cl := range calls {
		out = append(out, cl.Info())
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getCall(c *gin.Context) {
	cl, ok := s.cfg.Line.GetCall(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "call not found"})
		return
	}
	c.JSON(http.StatusOK, cl.Info())
}

func (s *Server) endCall(c *gin.Context) {
	cl, ok := s.cfg.Line.GetCall(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "call not found"})
		return
	}
	cl.End()
	c.JSON(http.StatusOK, cl.Info())
}
