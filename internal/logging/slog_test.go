package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "empty", phone: "", want: ""},
		{name: "us number", phone: "+15551234567", want: "+1********67"},
		{name: "no plus", phone: "5551234567", want: "5*******67"},
		{name: "short", phone: "+123", want: "****"},
		{name: "whitespace trimmed", phone: " +4915112345678 ", want: "+4**********78"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPhone(tt.phone))
		})
	}
}

func TestHashPhone(t *testing.T) {
	assert.Equal(t, "", HashPhone(""))

	first := HashPhone("+15551234567")
	second := HashPhone("+15551234567")
	other := HashPhone("+15557654321")

	assert.True(t, strings.HasPrefix(first, "phone:"))
	assert.Equal(t, first, second, "hash must be stable")
	assert.NotEqual(t, first, other)
	assert.NotContains(t, first, "5551234567")
}

func TestErr(t *testing.T) {
	attr := Err(nil)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())

	attr = Err(errors.New("boom"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "boom", attr.Value.String())
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, KeyTool, Tool("send_sms").Key)
	assert.Equal(t, KeyOperation, Operation("submit").Key)
	assert.Equal(t, KeyStatus, Status("queued").Key)
	assert.Equal(t, KeyMessageSID, MessageSID("SM123").Key)
	assert.Equal(t, int64(3), Attempt(3).Value.Int64())
	assert.Equal(t, "+1********67", Recipient("+15551234567").Value.String())
	assert.Equal(t, HashPhone("+15551234567"), PhoneHash("+15551234567").Value.String())
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeSecret(""))
	assert.Equal(t, "[secret:6 chars]", SanitizeSecret("abcdef"))
}

func TestSetOrMissing(t *testing.T) {
	assert.Equal(t, "not set", SetOrMissing(""))
	assert.Equal(t, "set", SetOrMissing("AC123"))
}
