package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signManifest(manifest, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(manifest))
	return hex.EncodeToString(h.Sum(nil))
}

func TestValidateSignatureAcceptsValidHeader(t *testing.T) {
	v := NewValidator()
	secret := "webhook-secret"
	ts := "1704908010"

	manifest := "id:mp-100;request-id:req-1;ts:" + ts + ";"
	header := fmt.Sprintf("ts=%s,v1=%s", ts, signManifest(manifest, secret))

	assert.True(t, v.ValidateSignature(header, "req-1", "mp-100", secret))
}

func TestValidateSignatureRejectsTamperedDataID(t *testing.T) {
	v := NewValidator()
	secret := "webhook-secret"
	ts := "1704908010"

	manifest := "id:mp-100;request-id:req-1;ts:" + ts + ";"
	header := fmt.Sprintf("ts=%s,v1=%s", ts, signManifest(manifest, secret))

	assert.False(t, v.ValidateSignature(header, "req-1", "mp-999", secret))
}

func TestValidateSignatureRejectsWrongSecret(t *testing.T) {
	v := NewValidator()
	ts := "1704908010"

	manifest := "id:mp-100;request-id:req-1;ts:" + ts + ";"
	header := fmt.Sprintf("ts=%s,v1=%s", ts, signManifest(manifest, "other-secret"))

	assert.False(t, v.ValidateSignature(header, "req-1", "mp-100", "webhook-secret"))
}

func TestValidateSignatureRejectsMissingParts(t *testing.T) {
	v := NewValidator()

	assert.False(t, v.ValidateSignature("", "req-1", "mp-100", "secret"))
	assert.False(t, v.ValidateSignature("ts=123", "req-1", "mp-100", "secret"))
	assert.False(t, v.ValidateSignature("v1=deadbeef", "req-1", "mp-100", "secret"))
	assert.False(t, v.ValidateSignature("ts=123,v1=deadbeef", "req-1", "mp-100", ""))
}
