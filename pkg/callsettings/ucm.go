package callsettings

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/arzzra/calling_client/pkg/backend"
)

const (
	MsgDirectoryNumberRequired    = "Directory Number is mandatory for UCM backend"
	MsgDirectoryNumberNotAssigned = "Directory Number is not assigned to the user"
)

// ucmConnector поддерживает только безусловную переадресацию по номеру линии
type ucmConnector struct {
	client
}

func (c *ucmConnector) callForwardingURL() string {
	return fmt.Sprintf("%s/people/%s/callforwarding?orgId=%s",
		c.cfg.WebexAPIsInt, url.PathEscape(c.cfg.UserID), url.QueryEscape(c.cfg.OrgID))
}

func (c *ucmConnector) GetCallForwardAlwaysSetting(ctx context.Context, directoryNumber string) backend.Response[Data[CallForwardAlwaysSetting]] {
	if directoryNumber == "" {
		return backend.Failure(http.StatusBadRequest, MsgDirectoryNumberRequired, setError[CallForwardAlwaysSetting])
	}

	var forwarding ucmCallForwarding
	if err := c.getJSON(ctx, c.callForwardingURL(), &forwarding); err != nil {
		return failure[CallForwardAlwaysSetting](&c.client, "GetCallForwardAlwaysSetting", err)
	}

	for _, entry := range forwarding.CallForwarding.Always {
		if entry.DN != directoryNumber {
			continue
		}
		setting := CallForwardAlwaysSetting{DestinationVoicemailEnabled: entry.DestinationVoicemailEnabled}
		switch {
		case entry.DestinationVoicemailEnabled:
			setting.Enabled = true
			setting.Destination = DestinationVoicemail
		case entry.Destination != "":
			setting.Enabled = true
			setting.Destination = entry.Destination
		}
		return success(&setting)
	}

	c.logger.Info("directory number not assigned", slog.String("dn", directoryNumber))
	return backend.Failure(http.StatusNotFound, MsgDirectoryNumberNotAssigned, setError[CallForwardAlwaysSetting])
}

func (c *ucmConnector) GetCallWaitingSetting(context.Context) backend.Response[Data[ToggleSetting]] {
	return notImplemented[ToggleSetting]()
}

func (c *ucmConnector) GetDoNotDisturbSetting(context.Context) backend.Response[Data[ToggleSetting]] {
	return notImplemented[ToggleSetting]()
}

func (c *ucmConnector) SetDoNotDisturbSetting(context.Context, bool) backend.Response[Data[ToggleSetting]] {
	return notImplemented[ToggleSetting]()
}

func (c *ucmConnector) GetCallForwardSetting(context.Context) backend.Response[Data[CallForwardSetting]] {
	return notImplemented[CallForwardSetting]()
}

func (c *ucmConnector) SetCallForwardSetting(context.Context, CallForwardSetting) backend.Response[Data[CallForwardSetting]] {
	return notImplemented[CallForwardSetting]()
}

func (c *ucmConnector) GetVoicemailSetting(context.Context) backend.Response[Data[VoicemailSetting]] {
	return notImplemented[VoicemailSetting]()
}

func (c *ucmConnector) SetVoicemailSetting(context.Context, VoicemailSetting) backend.Response[Data[VoicemailSetting]] {
	return notImplemented[VoicemailSetting]()
}
