package callsettings

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/backend"
)

// Broadworks XSI: <xsi>/v2.0/user/<userId>/services/<service>
const (
	xsiCallWaiting          = "CallWaiting"
	xsiDoNotDisturb         = "DoNotDisturb"
	xsiCallForwardingAlways = "CallForwardingAlways"

	xsiNamespace   = "http://schema.broadsoft.com/xsi"
	xmlContentType = "application/xml; charset=UTF-8"
)

// xsiValue значение в JSON представлении XSI: {"$": "..."}
type xsiValue struct {
	Value string `json:"$"`
}

func (v xsiValue) bool() bool {
	return strings.EqualFold(v.Value, "true")
}

type xsiCallWaitingResponse struct {
	CallWaiting struct {
		Active xsiValue `json:"active"`
	} `json:"CallWaiting"`
}

type xsiDoNotDisturbResponse struct {
	DoNotDisturb struct {
		Active     xsiValue `json:"active"`
		RingSplash xsiValue `json:"ringSplash"`
	} `json:"DoNotDisturb"`
}

type xsiCallForwardingAlwaysResponse struct {
	CallForwardingAlways struct {
		Active               xsiValue `json:"active"`
		ForwardToPhoneNumber xsiValue `json:"forwardToPhoneNumber"`
		RingSplash           xsiValue `json:"ringSplash"`
	} `json:"CallForwardingAlways"`
}

type xsiDoNotDisturbRequest struct {
	XMLName    xml.Name `xml:"DoNotDisturb"`
	Xmlns      string   `xml:"xmlns,attr"`
	Active     bool     `xml:"active"`
	RingSplash bool     `xml:"ringSplash"`
}

type broadworksConnector struct {
	client
}

func (c *broadworksConnector) serviceURL(service string) string {
	return fmt.Sprintf("%s/v2.0/user/%s/services/%s",
		strings.TrimSuffix(c.cfg.XSIEndpoint, "/"), url.PathEscape(c.cfg.UserID), service)
}

func (c *broadworksConnector) GetCallWaitingSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	var resp xsiCallWaitingResponse
	if err := c.getJSON(ctx, c.serviceURL(xsiCallWaiting)+"?format=json", &resp); err != nil {
		return failure[ToggleSetting](&c.client, "GetCallWaitingSetting", err)
	}
	return success(&ToggleSetting{Enabled: resp.CallWaiting.Active.bool()})
}

func (c *broadworksConnector) GetDoNotDisturbSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	var resp xsiDoNotDisturbResponse
	if err := c.getJSON(ctx, c.serviceURL(xsiDoNotDisturb)+"?format=json", &resp); err != nil {
		return failure[ToggleSetting](&c.client, "GetDoNotDisturbSetting", err)
	}
	return success(&ToggleSetting{
		Enabled:           resp.DoNotDisturb.Active.bool(),
		RingSplashEnabled: resp.DoNotDisturb.RingSplash.bool(),
	})
}

func (c *broadworksConnector) SetDoNotDisturbSetting(ctx context.Context, enabled bool) backend.Response[Data[ToggleSetting]] {
	body, err := xml.Marshal(xsiDoNotDisturbRequest{Xmlns: xsiNamespace, Active: enabled})
	if err != nil {
		return failure[ToggleSetting](&c.client, "SetDoNotDisturbSetting", errors.Wrap(err, "callsettings: кодирование XML"))
	}
	payload := append([]byte(xml.Header), body...)

	if err := c.send(ctx, http.MethodPut, c.serviceURL(xsiDoNotDisturb), payload, xmlContentType); err != nil {
		return failure[ToggleSetting](&c.client, "SetDoNotDisturbSetting", err)
	}
	return success(&ToggleSetting{Enabled: enabled})
}

func (c *broadworksConnector) GetCallForwardAlwaysSetting(ctx context.Context, _ string) backend.Response[Data[CallForwardAlwaysSetting]] {
	var resp xsiCallForwardingAlwaysResponse
	if err := c.getJSON(ctx, c.serviceURL(xsiCallForwardingAlways)+"?format=json", &resp); err != nil {
		return failure[CallForwardAlwaysSetting](&c.client, "GetCallForwardAlwaysSetting", err)
	}
	cfa := resp.CallForwardingAlways
	return success(&CallForwardAlwaysSetting{
		Enabled:             cfa.Active.bool(),
		RingReminderEnabled: cfa.RingSplash.bool(),
		Destination:         cfa.ForwardToPhoneNumber.Value,
	})
}

func (c *broadworksConnector) GetCallForwardSetting(context.Context) backend.Response[Data[CallForwardSetting]] {
	return notImplemented[CallForwardSetting]()
}

func (c *broadworksConnector) SetCallForwardSetting(context.Context, CallForwardSetting) backend.Response[Data[CallForwardSetting]] {
	return notImplemented[CallForwardSetting]()
}

func (c *broadworksConnector) GetVoicemailSetting(context.Context) backend.Response[Data[VoicemailSetting]] {
	return notImplemented[VoicemailSetting]()
}

func (c *broadworksConnector) SetVoicemailSetting(context.Context, VoicemailSetting) backend.Response[Data[VoicemailSetting]] {
	return notImplemented[VoicemailSetting]()
}
