package handlers

import (
	"context"

	"github.com/jmylchreest/radiotoggle/pkg/settings"
)

// SettingBody is a single integer setting.
type SettingBody struct {
	Key   string `json:"key" doc:"Setting key"`
	Value int    `json:"value" doc:"Integer value"`
}

// GetSettingInput names the setting to read.
type GetSettingInput struct {
	Key string `path:"key" doc:"Setting key, e.g. screen_brightness"`
}

// GetSettingOutput is the stored value.
type GetSettingOutput struct {
	Body SettingBody
}

// PutSettingInput writes a setting. Watchers of the key run before the response.
type PutSettingInput struct {
	Key  string `path:"key" doc:"Setting key"`
	Body struct {
		Value int `json:"value" doc:"New integer value"`
	}
}

// PutSettingOutput echoes the stored value.
type PutSettingOutput struct {
	Body SettingBody
}

// SettingsHandler exposes the settings store.
type SettingsHandler struct {
	Store settings.Store
}

// GetSetting reads a key.
func (h *SettingsHandler) GetSetting(_ context.Context, input *GetSettingInput) (*GetSettingOutput, error) {
	v, err := h.Store.GetInt(input.Key)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &GetSettingOutput{Body: SettingBody{Key: input.Key, Value: v}}, nil
}

// PutSetting writes a key.
func (h *SettingsHandler) PutSetting(_ context.Context, input *PutSettingInput) (*PutSettingOutput, error) {
	if err := h.Store.PutInt(input.Key, input.Body.Value); err != nil {
		return nil, toHTTPError(err)
	}
	return &PutSettingOutput{Body: SettingBody{Key: input.Key, Value: input.Body.Value}}, nil
}

// Ensure SettingsHandler implements the interface at compile time.
var _ SettingsHandlers = (*SettingsHandler)(nil)

// SettingsHandlers defines the interface for settings operations.
type SettingsHandlers interface {
	GetSetting(ctx context.Context, input *GetSettingInput) (*GetSettingOutput, error)
	PutSetting(ctx context.Context, input *PutSettingInput) (*PutSettingOutput, error)
}
