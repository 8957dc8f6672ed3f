// Package backend is the thin transport to the onboarding backend. It
// serializes requests and returns raw reply bodies; interpreting them is the
// envelope package's job.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycflow/internal/onboarding/models"
)

const (
	pathStartOnboarding = "/auth/onboarding"
	pathSendOTP         = "/auth/send-otp"
	pathVerifyOTP       = "/auth/verify-otp"
	pathMetaData        = "/partner/data"
	pathAboutYou        = "/about/persist"
	pathVerifyPAN       = "/kyc/verifyPan"
	pathVerifyBank      = "/kyc/verifyBank"
	pathVerifyGST       = "/kyc/verifyGst"
	pathVerifySRN       = "/kyc/verifySrn"
	pathUploadPDF       = "/kyc/uploadPdf"
	pathKeyPersons      = "/key-person-details/addKeyPersonDetails"
	pathEsign           = "/partner/esign"
)

// StatusError is a non-2xx reply.
type StatusError struct {
	Call   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: backend returned status %d", e.Call, e.Status)
}

// Config holds the transport settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// Client talks JSON to the backend. Only the read-only metadata fetch is
// retried on timeouts and 5xx. Every other call may have side effects (an OTP
// sent, a paid KYC check) and is retried only when the request provably never
// reached the backend. Document uploads are sent once.
type Client struct {
	read       *resty.Client
	write      *resty.Client
	upload     *resty.Client
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		tracer: otel.Tracer("kycflow.onboarding.backend"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.read = c.buildClient(cfg, cfg.Retries, retryRead)
	c.write = c.buildClient(cfg, cfg.Retries, retryUnsent)
	c.upload = c.buildClient(cfg, 0, retryUnsent)
	return c
}

func (c *Client) buildClient(cfg Config, retries int, condition resty.RetryConditionFunc) *resty.Client {
	client := resty.New()
	if c.httpClient != nil {
		client = resty.NewWithClient(c.httpClient)
	}
	client.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	client.AddRetryCondition(condition)
	return client
}

// retryRead retries any transport failure, 5xx, 408 and 429.
func retryRead(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// retryUnsent retries only failures where the backend cannot have acted:
// the connection was never established, or the request was rate limited.
// Timeouts and 5xx are not retried because the work may already be done.
func retryUnsent(r *resty.Response, err error) bool {
	if err != nil {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial"
	}
	return r != nil && r.StatusCode() == http.StatusTooManyRequests
}

func (c *Client) StartOnboarding(ctx context.Context, mobile string) ([]byte, error) {
	return c.post(ctx, "start_onboarding", pathStartOnboarding, nil, map[string]any{"mobile": mobile})
}

func (c *Client) SendOTP(ctx context.Context, caller models.Caller, channel models.Channel, value string) ([]byte, error) {
	body := contactBody(channel, value)
	body["userId"] = caller.UserID
	body["userType"] = caller.UserType
	return c.post(ctx, "send_otp", pathSendOTP, &caller, body)
}

func (c *Client) VerifyOTP(ctx context.Context, caller models.Caller, channel models.Channel, value, otp string) ([]byte, error) {
	code, err := strconv.Atoi(otp)
	if err != nil {
		return nil, fmt.Errorf("verify_otp: otp is not numeric: %w", err)
	}
	body := contactBody(channel, value)
	body["otp"] = code
	body["type"] = channel
	body["userId"] = caller.UserID
	body["userType"] = caller.UserType
	return c.post(ctx, "verify_otp", pathVerifyOTP, &caller, body)
}

func contactBody(channel models.Channel, value string) map[string]any {
	if channel == models.ChannelEmail {
		return map[string]any{"email": value}
	}
	return map[string]any{"mobile": value}
}

// FetchMetaData only reads, so it is the one JSON call retried on timeouts
// and server errors.
func (c *Client) FetchMetaData(ctx context.Context, caller models.Caller) ([]byte, error) {
	return c.send(ctx, c.read, "meta_data", pathMetaData, &caller, map[string]any{
		"userId":   caller.UserID,
		"userType": caller.UserType,
	})
}

func (c *Client) SubmitAboutYou(ctx context.Context, caller models.Caller, in models.AboutInput) ([]byte, error) {
	body := map[string]any{
		"partnerIdentity": in.PartnerIdentity,
		"businessType":    in.BusinessType,
		"userId":          caller.UserID,
		"userType":        caller.UserType,
	}
	if in.BusinessCategory != "" {
		body["businessCategory"] = in.BusinessCategory
	}
	return c.post(ctx, "about_you", pathAboutYou, &caller, body)
}

func (c *Client) VerifyPAN(ctx context.Context, caller models.Caller, in models.PANInput) ([]byte, error) {
	return c.post(ctx, "verify_pan", pathVerifyPAN, &caller, map[string]any{
		"pan":      in.PAN,
		"userId":   caller.UserID,
		"userType": caller.UserType,
	})
}

func (c *Client) VerifyBank(ctx context.Context, caller models.Caller, in models.BankInput) ([]byte, error) {
	return c.post(ctx, "verify_bank", pathVerifyBank, &caller, map[string]any{
		"account_number": in.AccountNumber,
		"ifsc_code":      in.IFSC,
		"userId":         caller.UserID,
	})
}

func (c *Client) VerifyGST(ctx context.Context, caller models.Caller, in models.GSTInput) ([]byte, error) {
	return c.post(ctx, "verify_gst", pathVerifyGST, &caller, map[string]any{
		"gst_number": in.GSTNumber,
		"userId":     caller.UserID,
	})
}

func (c *Client) VerifySRN(ctx context.Context, caller models.Caller, in models.SRNInput) ([]byte, error) {
	return c.post(ctx, "verify_srn", pathVerifySRN, &caller, map[string]any{
		"srn_number": in.SRNNumber,
		"userId":     caller.UserID,
	})
}

func (c *Client) SubmitKeyPersons(ctx context.Context, caller models.Caller, in models.KeyPersons) ([]byte, error) {
	return c.post(ctx, "key_persons", pathKeyPersons, &caller, map[string]any{
		"userId":        caller.UserID,
		"personDetails": in.People,
	})
}

func (c *Client) FetchEsignURL(ctx context.Context, caller models.Caller) ([]byte, error) {
	return c.post(ctx, "esign_url", pathEsign, &caller, map[string]any{
		"userId":   caller.UserID,
		"userType": caller.UserType,
	})
}

// UploadDocument sends the GST declaration as multipart field "pdf".
func (c *Client) UploadDocument(ctx context.Context, caller models.Caller, doc models.Document) ([]byte, error) {
	ctx, span := c.startSpan(ctx, "upload_document", pathUploadPDF)
	defer span.End()

	req := c.upload.R().
		SetContext(ctx).
		SetFileReader("pdf", doc.Filename, bytes.NewReader(doc.Content)).
		SetFormData(map[string]string{"userId": strconv.FormatInt(caller.UserID, 10)})
	if caller.Token != "" {
		req.SetAuthToken(caller.Token)
	}
	resp, err := req.Post(pathUploadPDF)
	return c.finish(ctx, span, "upload_document", resp, err)
}

func (c *Client) post(ctx context.Context, call, path string, caller *models.Caller, body any) ([]byte, error) {
	return c.send(ctx, c.write, call, path, caller, body)
}

func (c *Client) send(ctx context.Context, client *resty.Client, call, path string, caller *models.Caller, body any) ([]byte, error) {
	ctx, span := c.startSpan(ctx, call, path)
	defer span.End()

	req := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if caller != nil && caller.Token != "" {
		req.SetAuthToken(caller.Token)
	}
	resp, err := req.Post(path)
	return c.finish(ctx, span, call, resp, err)
}

func (c *Client) startSpan(ctx context.Context, call, path string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "kycflow.backend."+call, trace.WithAttributes(
		attribute.String("backend.call", call),
		attribute.String("backend.path", path),
	))
}

func (c *Client) finish(ctx context.Context, span trace.Span, call string, resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "backend call failed", "call", call, "error", err)
		return nil, fmt.Errorf("%s: %w", call, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		statusErr := &StatusError{Call: call, Status: resp.StatusCode(), Body: resp.Body()}
		span.SetStatus(codes.Error, statusErr.Error())
		c.logger.WarnContext(ctx, "backend call returned error status", "call", call, "status", resp.StatusCode())
		return nil, statusErr
	}
	return resp.Body(), nil
}
