package callsettings

import (
	"context"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/metrics"
)

// metered учитывает результат каждой операции в метриках
type metered struct {
	next    Connector
	metrics *metrics.Collector
}

func observe[T any](m *metered, action string, resp backend.Response[T]) backend.Response[T] {
	m.metrics.BackendRequest(connectorName, action, backend.Result(resp.StatusCode))
	return resp
}

func (m *metered) GetCallWaitingSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	return observe(m, "getCallWaitingSetting", m.next.GetCallWaitingSetting(ctx))
}

func (m *metered) GetDoNotDisturbSetting(ctx context.Context) backend.Response[Data[ToggleSetting]] {
	return observe(m, "getDoNotDisturbSetting", m.next.GetDoNotDisturbSetting(ctx))
}

func (m *metered) SetDoNotDisturbSetting(ctx context.Context, enabled bool) backend.Response[Data[ToggleSetting]] {
	return observe(m, "setDoNotDisturbSetting", m.next.SetDoNotDisturbSetting(ctx, enabled))
}

func (m *metered) GetCallForwardSetting(ctx context.Context) backend.Response[Data[CallForwardSetting]] {
	return observe(m, "getCallForwardSetting", m.next.GetCallForwardSetting(ctx))
}

func (m *metered) SetCallForwardSetting(ctx context.Context, setting CallForwardSetting) backend.Response[Data[CallForwardSetting]] {
	return observe(m, "setCallForwardSetting", m.next.SetCallForwardSetting(ctx, setting))
}

func (m *metered) GetVoicemailSetting(ctx context.Context) backend.Response[Data[VoicemailSetting]] {
	return observe(m, "getVoicemailSetting", m.next.GetVoicemailSetting(ctx))
}

func (m *metered) SetVoicemailSetting(ctx context.Context, setting VoicemailSetting) backend.Response[Data[VoicemailSetting]] {
	return observe(m, "setVoicemailSetting", m.next.SetVoicemailSetting(ctx, setting))
}

func (m *metered) GetCallForwardAlwaysSetting(ctx context.Context, directoryNumber string) backend.Response[Data[CallForwardAlwaysSetting]] {
	return observe(m, "getCallForwardAlwaysSetting", m.next.GetCallForwardAlwaysSetting(ctx, directoryNumber))
}
