package mpesa

import (
	"encoding/json"
	"fmt"
	"io"

	"water-delivery-api/apperrors"
)

// CallbackEnvelope mirrors the gateway's asynchronous result push.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string      `json:"MerchantRequestID"`
	CheckoutRequestID string      `json:"CheckoutRequestID"`
	ResultCode        json.Number `json:"ResultCode"`
	ResultDesc        string      `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// CallbackResult is the settled view of a callback: ResultCode "0" means
// the charge went through; anything else is a terminal failure for the
// attempt (the customer must re-initiate).
type CallbackResult struct {
	CheckoutRequestID string
	Success           bool
	ResultDesc        string
	Amount            float64
	ReceiptNumber     string
	PhoneNumber       string
}

// ParseCallback decodes and flattens a gateway callback body.
func ParseCallback(r io.Reader) (*CallbackResult, error) {
	var envelope CallbackEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid callback body: %v", apperrors.ErrValidation, err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: invalid callback format", apperrors.ErrValidation)
	}

	result := &CallbackResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		Success:           cb.ResultCode.String() == "0",
		ResultDesc:        cb.ResultDesc,
	}

	if result.Success && cb.CallbackMetadata != nil {
		for _, item := range cb.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				if v, ok := item.Value.(float64); ok {
					result.Amount = v
				}
			case "MpesaReceiptNumber":
				if v, ok := item.Value.(string); ok {
					result.ReceiptNumber = v
				}
			case "PhoneNumber":
				switch v := item.Value.(type) {
				case string:
					result.PhoneNumber = v
				case float64:
					result.PhoneNumber = fmt.Sprintf("%.0f", v)
				}
			}
		}
	}

	return result, nil
}
