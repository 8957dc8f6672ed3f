// Package envelope collapses the backend's response envelopes into one
// canonical record.
//
// The same logical endpoint may answer in any of four shapes:
//
//	nested_success_double  {"success":b, "data":{"status":b, "code":n, "message":s, "data":{...}}}
//	success_single         {"success":b, "message":s, "data":{...}}       (data optional)
//	status_single          {"status":b, "code":n, "message":s, "data":{...}}
//	status_flat            {"status":b, "code":n, "message":s, ...payload}
//
// Shapes are tried in that order and the first structurally valid one wins.
// Deeper shapes go first because a shallow shape would otherwise accept a
// nested envelope as its payload.
package envelope

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"kycflow/internal/onboarding/models"
)

// Variant identifies which envelope shape matched.
type Variant string

const (
	VariantNestedSuccessDouble Variant = "nested_success_double"
	VariantSuccessSingle       Variant = "success_single"
	VariantStatusSingle        Variant = "status_single"
	VariantStatusFlat          Variant = "status_flat"
)

// Kind names the logical call a response belongs to. It selects the payload
// fields a positive response must carry.
type Kind string

const (
	KindStartOnboarding Kind = "start_onboarding"
	KindSendOTP         Kind = "send_otp"
	KindVerifyOTP       Kind = "verify_otp"
	KindMetaData        Kind = "meta_data"
	KindAboutYou        Kind = "about_you"
	KindVerifyPAN       Kind = "verify_pan"
	KindVerifyBank      Kind = "verify_bank"
	KindVerifyGST       Kind = "verify_gst"
	KindVerifySRN       Kind = "verify_srn"
	KindUploadDocument  Kind = "upload_document"
	KindKeyPersons      Kind = "key_persons"
	KindEsignURL        Kind = "esign_url"
)

// Each inner slice is a set of alternatives; one of them must be present.
var requiredPayload = map[Kind][][]string{
	KindStartOnboarding: {{"userId"}, {"userType"}},
	KindVerifyOTP:       {{"token"}, {"userId", "partnerId"}},
	KindMetaData:        {{"current_page"}},
	KindEsignURL:        {{"esignUrl"}},
	KindUploadDocument:  {{"filename"}},
}

// ShapeMismatchError reports that no known envelope matched. Reasons holds
// one entry per rejected shape, in priority order.
type ShapeMismatchError struct {
	Kind    Kind
	Reasons []string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: response matches no known envelope (%s)", e.Kind, strings.Join(e.Reasons, "; "))
}

type shape struct {
	variant Variant
	match   func(root gjson.Result) (models.CanonicalResponse, error)
}

var shapes = []shape{
	{VariantNestedSuccessDouble, matchNestedSuccessDouble},
	{VariantSuccessSingle, matchSuccessSingle},
	{VariantStatusSingle, matchStatusSingle},
	{VariantStatusFlat, matchStatusFlat},
}

// Normalize converts a raw JSON reply into a CanonicalResponse. It is pure:
// the same input always yields the same output and nothing is written.
func Normalize(raw []byte, kind Kind) (models.CanonicalResponse, Variant, error) {
	if !gjson.ValidBytes(raw) {
		return models.CanonicalResponse{}, "", &ShapeMismatchError{Kind: kind, Reasons: []string{"body is not valid JSON"}}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return models.CanonicalResponse{}, "", &ShapeMismatchError{Kind: kind, Reasons: []string{"body is not a JSON object"}}
	}

	reasons := make([]string, 0, len(shapes))
	for _, s := range shapes {
		resp, err := s.match(root)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", s.variant, err))
			continue
		}
		if err := checkPayload(kind, resp); err != nil {
			return models.CanonicalResponse{}, "", &ShapeMismatchError{
				Kind:    kind,
				Reasons: []string{fmt.Sprintf("%s: %v", s.variant, err)},
			}
		}
		return resp, s.variant, nil
	}
	return models.CanonicalResponse{}, "", &ShapeMismatchError{Kind: kind, Reasons: reasons}
}

func matchNestedSuccessDouble(root gjson.Result) (models.CanonicalResponse, error) {
	success, err := requireBool(root, "success")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	data := root.Get("data")
	if !data.IsObject() {
		return models.CanonicalResponse{}, fmt.Errorf("data is not an object")
	}
	inner := data.Get("data")
	if !inner.IsObject() {
		return models.CanonicalResponse{}, fmt.Errorf("data.data is not an object")
	}
	status, hasStatus, err := optionalBool(data, "status")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	code, err := optionalInt(data, "code")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	message, err := optionalString(data, "message")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	if message == "" {
		if message, err = optionalString(root, "message"); err != nil {
			return models.CanonicalResponse{}, err
		}
	}
	payload, err := payloadOf(inner, nil)
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	ok := success
	if hasStatus {
		ok = ok && status
	}
	return models.CanonicalResponse{OK: ok, Code: code, Message: message, Payload: payload}, nil
}

func matchSuccessSingle(root gjson.Result) (models.CanonicalResponse, error) {
	success, err := requireBool(root, "success")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	data := root.Get("data")
	if data.Exists() && data.Type != gjson.Null {
		if !data.IsObject() {
			return models.CanonicalResponse{}, fmt.Errorf("data is not an object")
		}
		if looksNested(data) {
			return models.CanonicalResponse{}, fmt.Errorf("data is itself an envelope")
		}
	}
	return flatFields(root, success, data)
}

func matchStatusSingle(root gjson.Result) (models.CanonicalResponse, error) {
	if root.Get("success").Exists() {
		return models.CanonicalResponse{}, fmt.Errorf("success present but not a boolean")
	}
	status, err := requireBool(root, "status")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	data := root.Get("data")
	if !data.IsObject() {
		return models.CanonicalResponse{}, fmt.Errorf("data is not an object")
	}
	if looksNested(data) {
		return models.CanonicalResponse{}, fmt.Errorf("data is itself an envelope")
	}
	return flatFields(root, status, data)
}

func matchStatusFlat(root gjson.Result) (models.CanonicalResponse, error) {
	if root.Get("success").Exists() {
		return models.CanonicalResponse{}, fmt.Errorf("success present but not a boolean")
	}
	status, err := requireBool(root, "status")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	if data := root.Get("data"); data.Exists() && data.Type != gjson.Null {
		return models.CanonicalResponse{}, fmt.Errorf("data present but not an object")
	}
	code, err := optionalInt(root, "code")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	message, err := optionalString(root, "message")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	payload, err := payloadOf(root, envelopeKeys)
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	return models.CanonicalResponse{OK: status, Code: code, Message: message, Payload: payload}, nil
}

var envelopeKeys = map[string]struct{}{
	"status":  {},
	"success": {},
	"code":    {},
	"message": {},
	"data":    {},
}

func flatFields(root gjson.Result, ok bool, data gjson.Result) (models.CanonicalResponse, error) {
	code, err := optionalInt(root, "code")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	message, err := optionalString(root, "message")
	if err != nil {
		return models.CanonicalResponse{}, err
	}
	payload := map[string]any{}
	if data.IsObject() {
		if payload, err = payloadOf(data, nil); err != nil {
			return models.CanonicalResponse{}, err
		}
	}
	return models.CanonicalResponse{OK: ok, Code: code, Message: message, Payload: payload}, nil
}

// looksNested reports whether obj is an envelope rather than a payload: it
// carries its own object-valued data next to envelope keys.
func looksNested(obj gjson.Result) bool {
	if !obj.Get("data").IsObject() {
		return false
	}
	for _, key := range []string{"status", "success", "code", "message"} {
		if obj.Get(key).Exists() {
			return true
		}
	}
	return false
}

func payloadOf(obj gjson.Result, skip map[string]struct{}) (map[string]any, error) {
	payload := map[string]any{}
	obj.ForEach(func(key, value gjson.Result) bool {
		if _, drop := skip[key.String()]; drop {
			return true
		}
		payload[key.String()] = value.Value()
		return true
	})
	if v, present := payload["userId"]; present {
		id, ok := models.AsInt64(v)
		if !ok {
			return nil, fmt.Errorf("userId %v is not an integer", v)
		}
		payload["userId"] = id
	}
	return payload, nil
}

func checkPayload(kind Kind, resp models.CanonicalResponse) error {
	if !resp.OK {
		return nil
	}
	for _, alternatives := range requiredPayload[kind] {
		found := false
		for _, key := range alternatives {
			if v, ok := resp.Payload[key]; ok && v != nil {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("positive payload missing %s", strings.Join(alternatives, " or "))
		}
	}
	return nil
}

func requireBool(obj gjson.Result, key string) (bool, error) {
	v, present, err := optionalBool(obj, key)
	if err != nil {
		return false, err
	}
	if !present {
		return false, fmt.Errorf("%s is absent", key)
	}
	return v, nil
}

func optionalBool(obj gjson.Result, key string) (bool, bool, error) {
	v := obj.Get(key)
	switch {
	case !v.Exists():
		return false, false, nil
	case v.Type == gjson.True:
		return true, true, nil
	case v.Type == gjson.False:
		return false, true, nil
	default:
		return false, true, fmt.Errorf("%s is not a boolean", key)
	}
}

func optionalInt(obj gjson.Result, key string) (int, error) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%s is not a number", key)
	}
	n, ok := models.AsInt64(v.Num)
	if !ok {
		return 0, fmt.Errorf("%s is not an integer", key)
	}
	return int(n), nil
}

func optionalString(obj gjson.Result, key string) (string, error) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return "", nil
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%s is not a string", key)
	}
	return v.Str, nil
}
