package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/Tutortoise/stackblur-service/models"
	"github.com/Tutortoise/stackblur-service/raster"
	"github.com/Tutortoise/stackblur-service/stackblur"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var errInvalidOption = errors.New("invalid option")

type AppState struct {
	Config  *Config
	Blurrer *stackblur.Blurrer
	Logger  *zap.Logger
	Filter  imaging.ResampleFilter
	Format  raster.Format
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// blurRequest is the JSON body form of POST /blur.
type blurRequest struct {
	Image       string   `json:"image"`
	Radius      *int     `json:"radius,omitempty"`
	ResizeRatio *float64 `json:"resize_ratio,omitempty"`
	Format      string   `json:"format,omitempty"`
	Restore     *bool    `json:"restore,omitempty"`
}

func newRouter(state *AppState) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/blur", handleBlur(state)).Methods("POST")
	r.HandleFunc("/health", handleHealth).Methods("GET")
	state.addMonitoringRoutes(r)
	return r
}

func handleBlur(state *AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTotal := time.Now()
		requestID := uuid.NewString()
		timings := &models.ProcessingTimings{RequestID: requestID}
		logger := state.Logger.With(zap.String("request_id", requestID))

		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, state.Config.MaxUploadMB<<20)

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		var imgBytes []byte
		var req blurRequest
		var err error

		switch mediaType {
		case "application/json":
			imgBytes, err = handleJSONRequest(r, &req)
		case "multipart/form-data":
			imgBytes, err = handleMultipartRequest(r, state.Config.MaxUploadMB<<20)
		default:
			imgBytes, err = handleRawRequest(r)
		}
		if err != nil {
			sendErrorResponse(w, "invalid_request", MsgInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		opts, format, err := state.requestOptions(r, &req)
		if err != nil {
			code, status := errorStatus(err)
			sendErrorResponse(w, code, err.Error(), "", status)
			return
		}

		decodeStart := time.Now()
		img, err := raster.Decode(bytes.NewReader(imgBytes))
		timings.ImageDecode = time.Since(decodeStart)
		if err != nil {
			sendErrorResponse(w, "invalid_image", MsgInvalidImage, err.Error(), http.StatusBadRequest)
			return
		}

		out, err := processImage(ctx, state.Blurrer, state.Filter, img, opts, timings)
		if err != nil {
			code, status := errorStatus(err)
			if status >= http.StatusInternalServerError {
				logger.Error("blur failed", zap.Error(err))
			}
			message := err.Error()
			if code == "pool_unavailable" {
				message = MsgPoolUnavailable
			}
			sendErrorResponse(w, code, message, err.Error(), status)
			return
		}

		encodeStart := time.Now()
		var buf bytes.Buffer
		if err := raster.Encode(&buf, out, format, state.Config.JPEGQuality); err != nil {
			logger.Error("encode failed", zap.Error(err))
			sendErrorResponse(w, "processing_error", "Failed to encode image", err.Error(), http.StatusInternalServerError)
			return
		}
		timings.Encode = time.Since(encodeStart)
		timings.Total = time.Since(startTotal)
		logTimings(logger, timings)

		b := out.Bounds()
		w.Header().Set("Content-Type", format.ContentType)
		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Blur-Size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("write response", zap.Error(err))
		}
	}
}

// requestOptions layers JSON body fields and then query parameters over the
// configured defaults.
func (s *AppState) requestOptions(r *http.Request, req *blurRequest) (models.BlurOptions, raster.Format, error) {
	opts := models.BlurOptions{
		Radius:      s.Config.DefaultRadius,
		ResizeRatio: s.Config.ResizeRatio,
		Restore:     s.Config.RestoreSize,
	}
	format := s.Format

	if req.Radius != nil {
		opts.Radius = *req.Radius
	}
	if req.ResizeRatio != nil {
		opts.ResizeRatio = *req.ResizeRatio
	}
	if req.Restore != nil {
		opts.Restore = *req.Restore
	}
	if req.Format != "" {
		f, err := raster.ParseFormat(req.Format)
		if err != nil {
			return opts, format, err
		}
		format = f
	}

	q := r.URL.Query()
	if v := q.Get("radius"); v != "" {
		radius, err := strconv.Atoi(v)
		if err != nil {
			return opts, format, fmt.Errorf("%w: %q", stackblur.ErrInvalidRadius, v)
		}
		opts.Radius = radius
	}
	if v := q.Get("resize_ratio"); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, format, fmt.Errorf("%w: %q", raster.ErrInvalidRatio, v)
		}
		opts.ResizeRatio = ratio
	}
	if v := q.Get("restore"); v != "" {
		restore, err := strconv.ParseBool(v)
		if err != nil {
			return opts, format, fmt.Errorf("%w: restore=%q is not a boolean", errInvalidOption, v)
		}
		opts.Restore = restore
	}
	if v := q.Get("format"); v != "" {
		f, err := raster.ParseFormat(v)
		if err != nil {
			return opts, format, err
		}
		format = f
	}

	if err := raster.ValidateRatio(opts.ResizeRatio); err != nil {
		return opts, format, err
	}
	return opts, format, nil
}

func errorStatus(err error) (string, int) {
	switch {
	case errors.Is(err, stackblur.ErrInvalidRadius):
		return "invalid_radius", http.StatusBadRequest
	case errors.Is(err, stackblur.ErrInvalidDimensions), errors.Is(err, raster.ErrInvalidBuffer):
		return "invalid_dimensions", http.StatusBadRequest
	case errors.Is(err, raster.ErrInvalidRatio):
		return "invalid_ratio", http.StatusBadRequest
	case errors.Is(err, raster.ErrUnknownFormat):
		return "invalid_format", http.StatusBadRequest
	case errors.Is(err, stackblur.ErrPoolUnavailable):
		return "pool_unavailable", http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "request_cancelled", http.StatusServiceUnavailable
	case errors.Is(err, errInvalidOption):
		return "invalid_request", http.StatusBadRequest
	default:
		return "processing_error", http.StatusInternalServerError
	}
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	pool := s.Blurrer.Pool()
	metrics := pool.Metrics()
	response := map[string]interface{}{
		"pool_size":    pool.Size(),
		"pool_running": pool.IsRunning(),
		"queued_jobs":  pool.QueueLen(),
		"bands":        s.Blurrer.Threads(),
		"jobs":         metrics,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleJSONRequest(r *http.Request, req *blurRequest) ([]byte, error) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, err
	}
	if req.Image == "" {
		return nil, errors.New("missing image field")
	}
	return base64.StdEncoding.DecodeString(req.Image)
}

func handleMultipartRequest(r *http.Request, maxMemory int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func handleRawRequest(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	return data, nil
}

func sendErrorResponse(w http.ResponseWriter, code, message, details string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
