package callsettings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/arzzra/calling_client/pkg/backend"
)

// Webex Calling: /people/<userId>/features/<feature>?orgId=<orgId>
const (
	featureCallWaiting    = "callWaiting"
	featureDoNotDisturb   = "doNotDisturb"
	featureCallForwarding = "callForwarding"
	featureVoicemail      = "voicemail"
)

type wxcConnector struct {
	client
}

func (c *wxcConnector) featureURL(feature string) string {
	return fmt.Sprintf("%s/people/%s/features/%s?orgId=%s",
		c.cfg.WebexAPIs, url.PathEscape(c.cfg.UserID), feature, url.QueryEscape(c.cfg.OrgID))
}

func (c *wxcConnector) GetCallWaitingSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	var setting ToggleSetting
	if err := c.getJSON(ctx, c.featureURL(featureCallWaiting), &setting); err != nil {
		return failure[ToggleSetting](&c.client, "GetCallWaitingSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) GetDoNotDisturbSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	var setting ToggleSetting
	if err := c.getJSON(ctx, c.featureURL(featureDoNotDisturb), &setting); err != nil {
		return failure[ToggleSetting](&c.client, "GetDoNotDisturbSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) SetDoNotDisturbSetting(ctx context.Context, enabled bool) backend.Response[Data[ToggleSetting]] {
	setting := ToggleSetting{Enabled: enabled}
	if err := c.send(ctx, http.MethodPut, c.featureURL(featureDoNotDisturb), setting, ""); err != nil {
		return failure[ToggleSetting](&c.client, "SetDoNotDisturbSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) GetCallForwardSetting(ctx context.Context) backend.Response[Data[CallForwardSetting]] {
	var setting CallForwardSetting
	if err := c.getJSON(ctx, c.featureURL(featureCallForwarding), &setting); err != nil {
		return failure[CallForwardSetting](&c.client, "GetCallForwardSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) SetCallForwardSetting(ctx context.Context, setting CallForwardSetting) backend.Response[Data[CallForwardSetting]] {
	if err := c.send(ctx, http.MethodPut, c.featureURL(featureCallForwarding), setting, ""); err != nil {
		return failure[CallForwardSetting](&c.client, "SetCallForwardSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) GetVoicemailSetting(ctx context.Context) backend.Response[Data[VoicemailSetting]] {
	var setting VoicemailSetting
	if err := c.getJSON(ctx, c.featureURL(featureVoicemail), &setting); err != nil {
		return failure[VoicemailSetting](&c.client, "GetVoicemailSetting", err)
	}
	return success(&setting)
}

func (c *wxcConnector) SetVoicemailSetting(ctx context.Context, setting VoicemailSetting) backend.Response[Data[VoicemailSetting]] {
	if err := c.send(ctx, http.MethodPut, c.featureURL(featureVoicemail), setting, ""); err != nil {
		return failure[VoicemailSetting](&c.client, "SetVoicemailSetting", err)
	}
	return success(&setting)
}

// GetCallForwardAlwaysSetting извлекает безусловную переадресацию из общей настройки.
// Номер линии для Webex Calling не нужен.
func (c *wxcConnector) GetCallForwardAlwaysSetting(ctx context.Context, _ string) backend.Response[Data[CallForwardAlwaysSetting]] {
	var forward CallForwardSetting
	if err := c.getJSON(ctx, c.featureURL(featureCallForwarding), &forward); err != nil {
		return failure[CallForwardAlwaysSetting](&c.client, "GetCallForwardAlwaysSetting", err)
	}

	always := forward.CallForwarding.Always
	if always.Enabled && always.DestinationVoicemailEnabled {
		always.Destination = DestinationVoicemail
	}
	return success(&always)
}
