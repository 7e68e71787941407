package transcript

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mshnjffr/azure-openai/internal/retry"
)

// Transport is an http.RoundTripper that records every physical attempt
// to the transcript and retries failed attempts per the retry policy.
// Each attempt — successful, failed, or retried — produces exactly one
// record.
//
// Layer it over the base transport with httpkit.WithRoundTripper.
type Transport struct {
	// Base performs the actual round trips. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Recorder receives one record per attempt. Nil disables recording.
	Recorder *Recorder

	// Policy authorizes re-attempts after failures.
	Policy retry.Policy

	// Logger receives retry and recording diagnostics.
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper. The request body is snapshotted
// once so it can be both transcribed and rewound for retries.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reqBody, err := snapshotBody(req)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	for attempt := 1; ; attempt++ {
		attemptReq := req.Clone(req.Context())
		if reqBody != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(reqBody))
			attemptReq.ContentLength = int64(len(reqBody))
		}

		start := time.Now()
		resp, err = base.RoundTrip(attemptReq)
		duration := time.Since(start)

		rec := &Record{
			Timestamp:      start,
			Endpoint:       req.URL.String(),
			Method:         req.Method,
			RequestHeaders: RedactHeaders(attemptReq.Header),
			RequestBody:    reqBody,
			Duration:       duration,
		}

		var kind retry.Kind
		if err != nil {
			rec.Err = err.Error()
			kind = retry.ClassifyErr(err)
		} else {
			// Buffer the response body so it can be transcribed and
			// still handed to the caller intact.
			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				rec.Err = readErr.Error()
				kind = retry.KindTransient
				err = readErr
			} else {
				resp.Body = io.NopCloser(bytes.NewReader(respBody))
				rec.Status = resp.StatusCode
				rec.ResponseHeaders = RedactHeaders(resp.Header)
				rec.ResponseBody = respBody
				kind = retry.Classify(resp.StatusCode)
			}
		}

		t.record(logger, rec)

		if kind == retry.KindNone {
			return resp, nil
		}

		// A request whose context is gone must not be re-issued.
		if ctxErr := req.Context().Err(); ctxErr != nil {
			if err == nil {
				return resp, nil
			}
			return nil, err
		}

		delay, again := t.Policy.Decide(attempt, kind)
		if !again {
			// HTTP-level failures return the response so the API client
			// can surface status and body; transport errors propagate.
			return resp, err
		}

		logger.Warn("retrying API call",
			"method", req.Method,
			"url", req.URL.String(),
			"attempt", attempt,
			"max_attempts", t.Policy.MaxAttempts,
			"kind", kind.String(),
			"delay", delay,
		)

		if sleepErr := retry.Sleep(req.Context(), delay); sleepErr != nil {
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
	}
}

// record hands the attempt to the recorder. Recording is best-effort:
// failures are logged and never surface to the API caller.
func (t *Transport) record(logger *slog.Logger, rec *Record) {
	if t.Recorder == nil {
		return
	}
	if err := t.Recorder.Record(rec); err != nil {
		logger.Warn("transcript write failed",
			"path", t.Recorder.Path(),
			"error", err,
		)
	}
}

// snapshotBody reads the request body into memory, preferring GetBody
// (which http.NewRequest sets for common body types). Returns nil for
// bodyless requests.
func snapshotBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	defer req.Body.Close()
	return io.ReadAll(req.Body)
}
