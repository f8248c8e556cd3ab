package mpesa

import (
	"errors"
	"strings"
	"testing"

	"water-delivery-api/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const successCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_123",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 100.0},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20260831140509},
          {"Name": "PhoneNumber", "Value": 254712345678}
        ]
      }
    }
  }
}`

const failedCallback = `{
  "Body": {
    "stkCallback": {
      "MerchantRequestID": "29115-34620561-1",
      "CheckoutRequestID": "ws_CO_456",
      "ResultCode": 1032,
      "ResultDesc": "Request cancelled by user."
    }
  }
}`

func TestParseCallbackSuccess(t *testing.T) {
	result, err := ParseCallback(strings.NewReader(successCallback))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ws_CO_123", result.CheckoutRequestID)
	assert.Equal(t, 100.0, result.Amount)
	assert.Equal(t, "NLJ7RT61SV", result.ReceiptNumber)
	assert.Equal(t, "254712345678", result.PhoneNumber)
}

func TestParseCallbackFailure(t *testing.T) {
	result, err := ParseCallback(strings.NewReader(failedCallback))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "ws_CO_456", result.CheckoutRequestID)
	assert.Equal(t, "Request cancelled by user.", result.ResultDesc)
}

func TestParseCallbackInvalid(t *testing.T) {
	for _, body := range []string{"not json", "{}", `{"Body":{}}`} {
		_, err := ParseCallback(strings.NewReader(body))
		require.Error(t, err, "body %q", body)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	}
}
