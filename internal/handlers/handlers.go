package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/edge-classifier/internal/frame"
	"github.com/Brownie44l1/edge-classifier/internal/model"
)

const maxUploadSize = 10 << 20

// Classifier is the part of *model.Classifier the HTTP surface needs.
type Classifier interface {
	Classify(px model.Pixels) ([]model.Recognition, error)
	State() model.State
	Config() model.ClassifierConfig
	Labels() model.LabelList
}

type PredictionRequest struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Pixels []uint32 `json:"pixels"`
}

type PredictionResponse struct {
	RequestID string              `json:"request_id"`
	Results   []model.Recognition `json:"results"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	State     string `json:"state"`
	Mode      string `json:"mode"`
	InputSize int    `json:"input_size"`
	Labels    int    `json:"labels"`
}

type Handler struct {
	classifier Classifier
	log        logrus.FieldLogger
}

func NewHandler(classifier Classifier, log logrus.FieldLogger) *Handler {
	return &Handler{
		classifier: classifier,
		log:        log,
	}
}

// Routes registers the classifier endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/predict", h.Predict)
	mux.HandleFunc("/predict/image", h.PredictFromImage)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.classifier.State()
	cfg := h.classifier.Config()
	resp := HealthResponse{
		State:     state.String(),
		Mode:      cfg.Mode.String(),
		InputSize: cfg.InputSize,
		Labels:    len(h.classifier.Labels()),
	}

	code := http.StatusServiceUnavailable
	switch state {
	case model.Ready:
		resp.Status = "healthy"
		code = http.StatusOK
	case model.Uninitialized:
		resp.Status = "loading"
	default:
		resp.Status = "closed"
	}
	writeJSON(w, code, resp)
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PredictionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	h.classify(w, model.Pixels{Width: req.Width, Height: req.Height, Data: req.Pixels})
}

func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	h.log.Debugf("Received file: %q, size: %d bytes", header.Filename, header.Size)

	img, err := frame.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG", http.StatusBadRequest)
		return
	}

	px, err := frame.Prepare(img, h.classifier.Config().InputSize)
	if err != nil {
		h.log.Warnf("Preprocessing error: %v", err)
		http.Error(w, "Failed to preprocess image", http.StatusBadRequest)
		return
	}

	h.classify(w, px)
}

func (h *Handler) classify(w http.ResponseWriter, px model.Pixels) {
	requestID := uuid.NewString()
	log := h.log.WithField("request_id", requestID)

	results, err := h.classifier.Classify(px)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			log.Errorf("Classification failed: %v", err)
		} else {
			log.Infof("Classification rejected: %v", err)
		}
		http.Error(w, errorMessage(err), code)
		return
	}

	log.WithField("results", len(results)).Debug("Classification done")
	writeJSON(w, http.StatusOK, PredictionResponse{
		RequestID: requestID,
		Results:   results,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrShape):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrState):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrShape):
		return fmt.Sprintf("Invalid input: %v", err)
	case errors.Is(err, model.ErrState):
		return "Classifier is not ready"
	default:
		return "Prediction failed"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
