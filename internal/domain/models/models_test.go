package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/uats/internal/domain/models"
)

func TestDeviceRecord_AcceptsBothFieldStyles(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.DeviceRecord
	}{
		{
			name: "camelCase",
			body: `{"id":"1","name":"YubiKey 5C","createdAt":"2024-01-15T10:30:00Z","lastUsed":null}`,
			want: models.DeviceRecord{ID: "1", Name: "YubiKey 5C", CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		},
		{
			name: "serializer snake_case with numeric id",
			body: `{"id":7,"name":"Backup","created_at":"2024-01-15T10:30:00Z","last_used_at":"2024-02-01T08:00:00Z","sign_count":12,"device_type":"cross-platform"}`,
			want: models.DeviceRecord{
				ID:         "7",
				Name:       "Backup",
				CreatedAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				LastUsed:   timePtr(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)),
				DeviceType: "cross-platform",
				SignCount:  12,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.DeviceRecord
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.True(t, tt.want.CreatedAt.Equal(got.CreatedAt))
			if tt.want.LastUsed == nil {
				assert.Nil(t, got.LastUsed)
			} else {
				require.NotNil(t, got.LastUsed)
				assert.True(t, tt.want.LastUsed.Equal(*got.LastUsed))
			}
			assert.Equal(t, tt.want.DeviceType, got.DeviceType)
			assert.Equal(t, tt.want.SignCount, got.SignCount)
		})
	}
}

func TestByteArray_WireFormats(t *testing.T) {
	out, err := json.Marshal(models.ByteArray{1, 2, 255})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,255]`, string(out))

	var fromNumbers models.ByteArray
	require.NoError(t, json.Unmarshal([]byte(`[104,105]`), &fromNumbers))
	assert.Equal(t, []byte("hi"), []byte(fromNumbers))

	var fromBase64URL models.ByteArray
	require.NoError(t, json.Unmarshal([]byte(`"aGk"`), &fromBase64URL))
	assert.Equal(t, []byte("hi"), []byte(fromBase64URL))

	var outOfRange models.ByteArray
	assert.Error(t, json.Unmarshal([]byte(`[256]`), &outOfRange))
}

func TestCreationOptions_ConvertsChallengeAndUserID(t *testing.T) {
	body := `{"challenge":[1,2,3],"rp":{"id":"localhost","name":"UATS"},"user":{"id":[117,49],"name":"a@b.c","displayName":"A"},"pubKeyCredParams":[{"type":"public-key","alg":-7}]}`

	var opts models.CredentialCreationOptions
	require.NoError(t, json.Unmarshal([]byte(body), &opts))
	assert.Equal(t, []byte{1, 2, 3}, []byte(opts.Challenge))
	assert.Equal(t, []byte("u1"), []byte(opts.User.ID))
	assert.Equal(t, -7, opts.PubKeyCredParams[0].Alg)
}

func TestUser_Names(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&models.User{ID: "u1", FullName: "Ada Lovelace"}).DisplayName())
	assert.Equal(t, "Ada L", (&models.User{ID: "u1", FirstName: "Ada", LastName: "L"}).DisplayName())
	assert.Equal(t, "ada@example.com", (&models.User{ID: "u1", Email: "ada@example.com"}).DisplayName())
	assert.Equal(t, "u1", (&models.User{ID: "u1"}).Username())
	assert.Equal(t, "", (*models.User)(nil).DisplayName())
}

func TestAppState_CloneIsDeep(t *testing.T) {
	used := time.Now()
	s := models.InitialState()
	s.User = &models.User{ID: "u1"}
	s.WebAuthnDevices = []models.DeviceRecord{{ID: "1", LastUsed: &used}}
	s.APIErrors["jwt"] = "boom"
	s.Notifications = append(s.Notifications, models.Notification{ID: 1})

	cp := s.Clone()
	cp.User.ID = "changed"
	cp.WebAuthnDevices[0].Name = "changed"
	*cp.WebAuthnDevices[0].LastUsed = time.Time{}
	cp.APIErrors["jwt"] = "changed"
	cp.Notifications[0].Message = "changed"

	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "", s.WebAuthnDevices[0].Name)
	assert.False(t, s.WebAuthnDevices[0].LastUsed.IsZero())
	assert.Equal(t, "boom", s.APIErrors["jwt"])
	assert.Equal(t, "", s.Notifications[0].Message)
}

func timePtr(t time.Time) *time.Time { return &t }
