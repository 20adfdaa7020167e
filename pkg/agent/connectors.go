package agent

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/callhistory"
	"github.com/arzzra/calling_client/pkg/voicemail"
)

var errBadQuery = errors.New("agent: неверный параметр запроса")

func (s *Server) getCallWaiting(c *gin.Context) {
	respond(c, s.cfg.CallSettings.GetCallWaitingSetting(c.Request.Context()))
}

func (s *Server) getDoNotDisturb(c *gin.Context) {
	respond(c, s.cfg.CallSettings.GetDoNotDisturbSetting(c.Request.Context()))
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) setDoNotDisturb(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "enabled is required"})
		return
	}
	respond(c, s.cfg.CallSettings.SetDoNotDisturbSetting(c.Request.Context(), *req.Enabled))
}

func (s *Server) getCallForward(c *gin.Context) {
	respond(c, s.cfg.CallSettings.GetCallForwardSetting(c.Request.Context()))
}

func (s *Server) getCallForwardAlways(c *gin.Context) {
	respond(c, s.cfg.CallSettings.GetCallForwardAlwaysSetting(c.Request.Context(), c.Query("dn")))
}

func (s *Server) getVoicemailSetting(c *gin.Context) {
	respond(c, s.cfg.CallSettings.GetVoicemailSetting(c.Request.Context()))
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(errBadQuery, key)
	}
	return n, nil
}

func (s *Server) listVoicemail(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	order := voicemail.Sort(c.DefaultQuery("sort", string(voicemail.SortDESC)))

	respond(c, s.cfg.Voicemail.GetVoicemailList(c.Request.Context(), offset, limit, order, refresh))
}

func (s *Server) voicemailSummary(c *gin.Context) {
	respond(c, s.cfg.Voicemail.GetVoicemailSummary(c.Request.Context()))
}

// messageID идентификатор сообщения передается параметром id, в XSI он содержит '/'
func messageID(c *gin.Context) (string, bool) {
	id := c.Query("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "id is required"})
		return "", false
	}
	return id, true
}

func (s *Server) voicemailContent(c *gin.Context) {
	if id, ok := messageID(c); ok {
		respond(c, s.cfg.Voicemail.GetVoicemailContent(c.Request.Context(), id))
	}
}

func (s *Server) voicemailTranscript(c *gin.Context) {
	if id, ok := messageID(c); ok {
		respond(c, s.cfg.Voicemail.GetTranscript(c.Request.Context(), id))
	}
}

func (s *Server) markVoicemail(read bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := messageID(c)
		if !ok {
			return
		}
		if read {
			respond(c, s.cfg.Voicemail.MarkAsRead(c.Request.Context(), id))
			return
		}
		respond(c, s.cfg.Voicemail.MarkAsUnread(c.Request.Context(), id))
	}
}

func (s *Server) deleteVoicemail(c *gin.Context) {
	if id, ok := messageID(c); ok {
		respond(c, s.cfg.Voicemail.Delete(c.Request.Context(), id))
	}
}

func (s *Server) callHistory(c *gin.Context) {
	days, err := queryInt(c, "days", callhistory.DefaultDays)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", callhistory.DefaultLimit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	order := callhistory.Sort(c.DefaultQuery("sort", string(callhistory.SortDESC)))
	sortBy := callhistory.SortBy(c.DefaultQuery("sortBy", string(callhistory.SortByEndTime)))

	respond(c, s.cfg.CallHistory.GetCallHistoryData(c.Request.Context(), days, limit, order, sortBy))
}

// sessionEvent принимает событие сессий пользователя от транспорта уведомлений
func (s *Server) sessionEvent(c *gin.Context) {
	var ev callhistory.SessionEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid event"})
		return
	}
	if !s.cfg.CallHistory.HandleSessionEvent(ev) {
		c.Status(http.StatusAccepted)
		return
	}
	c.Status(http.StatusNoContent)
}
