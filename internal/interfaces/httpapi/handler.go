package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// Services groups the use cases the handler serves. Sync may be nil when no feed is configured.
type Services struct {
	Fixtures    *usecase.FixtureService
	Predictions *usecase.PredictionService
	Results     *usecase.ResultService
	Leaderboard *usecase.LeaderboardService
	Leagues     *usecase.LeagueService
	Users       *usecase.UserService
	Sync        *usecase.SyncService
}

type Handler struct {
	fixtureService     *usecase.FixtureService
	predictionService  *usecase.PredictionService
	resultService      *usecase.ResultService
	leaderboardService *usecase.LeaderboardService
	leagueService      *usecase.LeagueService
	userService        *usecase.UserService
	syncService        *usecase.SyncService
	logger             *logging.Logger
	validator          *validator.Validate
	heartbeat          time.Duration
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		fixtureService:     services.Fixtures,
		predictionService:  services.Predictions,
		resultService:      services.Results,
		leaderboardService: services.Leaderboard,
		leagueService:      services.Leagues,
		userService:        services.Users,
		syncService:        services.Sync,
		logger:             logger.Named("httpapi"),
		validator:          validator.New(validator.WithRequiredStructEnabled()),
		heartbeat:          15 * time.Second,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON rejects unknown fields. An empty body decodes to the zero value when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := strictJSON.NewDecoder(body).Decode(target); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", usecase.ErrInvalidInput, key)
	}
	return value, nil
}
