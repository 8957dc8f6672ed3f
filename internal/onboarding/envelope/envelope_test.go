package envelope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVariantsYieldIdenticalPayload(t *testing.T) {
	wantPayload := map[string]any{
		"pan":      "ABCDE1234F",
		"fullName": "ASHA RAO",
		"userId":   int64(7),
	}

	cases := []struct {
		name    string
		raw     string
		variant Variant
	}{
		{
			name:    "nested success with data.data",
			raw:     `{"success":true,"data":{"status":true,"code":200,"message":"PAN verified","data":{"pan":"ABCDE1234F","fullName":"ASHA RAO","userId":7}}}`,
			variant: VariantNestedSuccessDouble,
		},
		{
			name:    "success with single data",
			raw:     `{"success":true,"code":200,"message":"PAN verified","data":{"pan":"ABCDE1234F","fullName":"ASHA RAO","userId":"7"}}`,
			variant: VariantSuccessSingle,
		},
		{
			name:    "status with single data",
			raw:     `{"status":true,"code":200,"message":"PAN verified","data":{"pan":"ABCDE1234F","fullName":"ASHA RAO","userId":7}}`,
			variant: VariantStatusSingle,
		},
		{
			name:    "flat status",
			raw:     `{"status":true,"code":200,"message":"PAN verified","pan":"ABCDE1234F","fullName":"ASHA RAO","userId":7.0}`,
			variant: VariantStatusFlat,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, variant, err := Normalize([]byte(tc.raw), KindVerifyPAN)
			require.NoError(t, err)
			assert.Equal(t, tc.variant, variant)
			assert.True(t, resp.OK)
			assert.Equal(t, 200, resp.Code)
			assert.Equal(t, "PAN verified", resp.Message)
			assert.Equal(t, wantPayload, resp.Payload)
		})
	}
}

func TestNormalizeNegativeResults(t *testing.T) {
	t.Run("nested status false overrides success", func(t *testing.T) {
		raw := `{"success":true,"data":{"status":false,"message":"OTP expired","data":{}}}`
		resp, _, err := Normalize([]byte(raw), KindVerifyOTP)
		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Equal(t, "OTP expired", resp.Message)
	})

	t.Run("gst rejection without data", func(t *testing.T) {
		raw := `{"success":false,"message":"GSTIN not active"}`
		resp, variant, err := Normalize([]byte(raw), KindVerifyGST)
		require.NoError(t, err)
		assert.Equal(t, VariantSuccessSingle, variant)
		assert.False(t, resp.OK)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, "GSTIN not active", resp.Message)
		assert.Empty(t, resp.Payload)
	})

	t.Run("negative result skips payload contract", func(t *testing.T) {
		raw := `{"status":false,"message":"no esign yet"}`
		resp, _, err := Normalize([]byte(raw), KindEsignURL)
		require.NoError(t, err)
		assert.False(t, resp.OK)
	})
}

func TestNormalizeJourneyScenarios(t *testing.T) {
	raw := `{"success":true,"data":{"status":true,"data":{"token":"t1","userId":7,"userType":"PARTNER"}}}`
	resp, variant, err := Normalize([]byte(raw), KindVerifyOTP)
	require.NoError(t, err)
	assert.Equal(t, VariantNestedSuccessDouble, variant)
	assert.True(t, resp.OK)
	id, ok := resp.Int64("userId")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	token, _ := resp.String("token")
	assert.Equal(t, "t1", token)

	start := `{"status":true,"data":{"userId":1,"userType":"TEMP"}}`
	resp, _, err = Normalize([]byte(start), KindStartOnboarding)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Payload["userId"])
	assert.Equal(t, "TEMP", resp.Payload["userType"])
}

func TestNormalizeShapeMismatch(t *testing.T) {
	cases := map[string]struct {
		raw  string
		kind Kind
	}{
		"not json":                 {`{"status":`, KindVerifyPAN},
		"array body":               {`[{"status":true}]`, KindVerifyPAN},
		"no discriminator":         {`{"ok":true,"data":{}}`, KindVerifyPAN},
		"success wrong type":       {`{"success":"true","data":{}}`, KindVerifyPAN},
		"status wrong type":        {`{"status":1,"data":{}}`, KindVerifyPAN},
		"data wrong type":          {`{"status":true,"data":"x"}`, KindVerifyPAN},
		"message wrong type":       {`{"status":true,"message":42,"data":{}}`, KindVerifyPAN},
		"code not integral":        {`{"status":true,"code":2.5,"data":{}}`, KindVerifyPAN},
		"nested status wrong type": {`{"success":true,"data":{"status":"yes","data":{"pan":"X"}}}`, KindVerifyPAN},
		"userId not integral":      {`{"status":true,"data":{"userId":"abc"}}`, KindVerifyPAN},
		"positive start missing userType": {
			`{"status":true,"data":{"userId":1}}`, KindStartOnboarding,
		},
		"positive verify missing token": {
			`{"success":true,"data":{"status":true,"data":{"userId":7}}}`, KindVerifyOTP,
		},
		"positive meta without current_page": {
			`{"status":true,"data":{"name":"x"}}`, KindMetaData,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tc.raw), tc.kind)
			require.Error(t, err)
			var mismatch *ShapeMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, tc.kind, mismatch.Kind)
			assert.NotEmpty(t, mismatch.Reasons)
		})
	}
}

func TestNormalizeAcceptsPartnerIDInsteadOfUserID(t *testing.T) {
	raw := `{"status":true,"data":{"token":"t2","partnerId":"P-9"}}`
	resp, _, err := Normalize([]byte(raw), KindVerifyOTP)
	require.NoError(t, err)
	assert.Equal(t, "P-9", resp.Payload["partnerId"])
}

func TestNormalizeIsPure(t *testing.T) {
	raw := []byte(`{"success":true,"message":"ok","data":{"filename":"gst.pdf"}}`)
	first, _, err := Normalize(raw, KindUploadDocument)
	require.NoError(t, err)
	second, _, err := Normalize(raw, KindUploadDocument)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
