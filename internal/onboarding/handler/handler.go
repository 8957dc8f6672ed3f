// Package handler exposes the onboarding coordinator as a JSON API for the
// UI layer. Every session-scoped route lives under /sessions/{id}.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycflow/internal/onboarding/coordinator"
	"kycflow/internal/onboarding/models"
	"kycflow/internal/platform/metrics"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/device"
	"kycflow/pkg/requestcontext"
)

// Sessions opens and resolves onboarding sessions.
type Sessions interface {
	Open(ctx context.Context, device string) (*coordinator.Coordinator, error)
	Get(ctx context.Context, sessionID string) (*coordinator.Coordinator, error)
	Close(ctx context.Context, sessionID string) error
}

const uploadField = "file"

type Handler struct {
	sessions       Sessions
	logger         *slog.Logger
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func New(sessions Sessions, logger *slog.Logger, metrics *metrics.Metrics, maxUploadBytes int64) *Handler {
	return &Handler{
		sessions:       sessions,
		logger:         logger,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the onboarding routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.handleOpen)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(h.loadSession)
		r.Get("/state", h.handleState)
		r.Delete("/", h.handleClose)
		r.Post("/navigate", h.handleNavigate)

		r.Post("/login", h.handleStart)
		r.Post("/login/otp/verify", h.handleVerifyLoginOTP)
		r.Post("/login/otp/resend", h.handleResendLoginOTP)

		r.Post("/about", h.handleAbout)

		r.Post("/contact/otp/send", h.handleSendOTP)
		r.Post("/contact/otp/send-all", h.handleSendAllOTPs)
		r.Post("/contact/otp/verify", h.handleVerifyOTP)

		r.Post("/kyc/pan", h.handlePAN)
		r.Post("/kyc/bank", h.handleBank)
		r.Post("/kyc/gst", h.handleGST)
		r.Post("/kyc/gst/declaration", h.handleGSTDeclaration)
		r.Post("/kyc/srn", h.handleSRN)

		r.Post("/key-persons", h.handleKeyPersons)
		r.Post("/esign", h.handleEsign)
	})
}

type coordinatorKey struct{}

func (h *Handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := chi.URLParam(r, "id")
		c, err := h.sessions.Get(ctx, sessionID)
		if err != nil {
			h.fail(ctx, "load session", err)
			httputil.WriteError(w, err)
			return
		}
		ctx = requestcontext.WithSessionID(ctx, sessionID)
		ctx = context.WithValue(ctx, coordinatorKey{}, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func session(ctx context.Context) *coordinator.Coordinator {
	c, _ := ctx.Value(coordinatorKey{}).(*coordinator.Coordinator)
	return c
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.sessions.Open(ctx, device.Describe(requestcontext.UserAgent(ctx)))
	if err != nil {
		h.fail(ctx, "open session", err)
		httputil.WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.IncrementSessionsOpened()
	}
	h.logger.InfoContext(ctx, "session opened",
		"session_id", c.SessionID(),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, openResponse{SessionID: c.SessionID(), Navigation: c.State()})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := session(ctx)
	records, err := c.Records(ctx)
	if err != nil {
		h.fail(ctx, "load records", err)
		httputil.WriteError(w, err)
		return
	}
	channels, err := c.Channels(ctx)
	if err != nil {
		h.fail(ctx, "load channels", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stateResponse{
		Navigation: c.State(),
		Records:    records,
		Channels:   channels,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Close(ctx, session(ctx).SessionID()); err != nil {
		h.fail(ctx, "close session", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[navigateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	state, err := session(ctx).Navigate(ctx, models.StepID(req.Step))
	if err != nil {
		h.fail(ctx, "navigate", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[startRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).Start(ctx, req.Mobile)
	h.respond(w, r, "start onboarding", res, err)
}

func (h *Handler) handleVerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[otpRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).VerifyLoginOTP(ctx, req.OTP)
	h.respond(w, r, "verify login otp", res, err)
}

func (h *Handler) handleResendLoginOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := session(ctx).ResendLoginOTP(ctx)
	h.respond(w, r, "resend login otp", res, err)
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[aboutRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).SubmitAbout(ctx, req.AboutInput)
	h.respond(w, r, "submit about", res, err)
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[sendOTPRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	channel, ok := models.ParseChannel(req.Channel)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "channel must be MOBILE or EMAIL"))
		return
	}
	res, err := session(ctx).SendOTP(ctx, channel, req.Value, req.Resend)
	h.respond(w, r, "send otp", res, err)
}

func (h *Handler) handleSendAllOTPs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[sendAllRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).SendContactOTPs(ctx, req.Mobile, req.Email, req.Resend)
	if err != nil {
		h.fail(ctx, "send contact otps", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[verifyContactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	channel, ok := models.ParseChannel(req.Channel)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "channel must be MOBILE or EMAIL"))
		return
	}
	res, err := session(ctx).VerifyOTP(ctx, channel, req.OTP)
	h.respond(w, r, "verify otp", res, err)
}

func (h *Handler) handlePAN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[panRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).VerifyPAN(ctx, req.PANInput)
	h.respond(w, r, "verify pan", res, err)
}

func (h *Handler) handleBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[bankRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).VerifyBank(ctx, req.BankInput)
	h.respond(w, r, "verify bank", res, err)
}

func (h *Handler) handleGST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[gstRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).VerifyGST(ctx, req.GSTInput)
	h.respond(w, r, "verify gst", res, err)
}

func (h *Handler) handleGSTDeclaration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid upload", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing "+uploadField+" field"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read upload"))
		return
	}
	res, err := session(ctx).UploadGSTDeclaration(ctx, models.Document{Filename: header.Filename, Content: content})
	h.respond(w, r, "upload gst declaration", res, err)
}

func (h *Handler) handleSRN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[srnRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).VerifySRN(ctx, req.SRNInput)
	h.respond(w, r, "verify srn", res, err)
}

func (h *Handler) handleKeyPersons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[keyPersonsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := session(ctx).SubmitKeyPersons(ctx, req.KeyPersons)
	h.respond(w, r, "submit key persons", res, err)
}

func (h *Handler) handleEsign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := session(ctx).FetchEsignURL(ctx)
	h.respond(w, r, "fetch esign url", res, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, res coordinator.Result, err error) {
	if err != nil {
		h.fail(r.Context(), op, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// fail logs at warn for errors the user can act on and at error otherwise.
func (h *Handler) fail(ctx context.Context, op string, err error) {
	attrs := []any{
		"op", op,
		"code", dErrors.CodeOf(err),
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	}
	if dErrors.Fatal(err) {
		h.logger.ErrorContext(ctx, "request failed", attrs...)
		return
	}
	h.logger.WarnContext(ctx, "request rejected", attrs...)
}
