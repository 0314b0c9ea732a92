package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/bingo/internal/middleware"
	"github.com/hitoshi/bingo/internal/model"
)

// BoardServiceInterface は盤面ハンドラーが必要とするサービスインターフェース。
type BoardServiceInterface interface {
	GetOrCreateCurrentBoard(ctx context.Context, userID int64) (*model.Board, error)
	CreateBoard(ctx context.Context, userID int64) (*model.Board, error)
	FlipCell(ctx context.Context, userID int64, index int) (*model.Board, error)
	// CurrentBoard はflipが無視された場合の再描画に使用する。
	CurrentBoard(ctx context.Context, userID int64) (*model.Board, error)
	ListBoards(ctx context.Context, userID int64) ([]model.BoardSummary, error)
}

// BoardHandler はトップページと盤面操作のHTTPハンドラー。
type BoardHandler struct {
	service BoardServiceInterface
}

// NewBoardHandler はBoardHandlerを生成する。
func NewBoardHandler(service BoardServiceInterface) *BoardHandler {
	return &BoardHandler{service: service}
}

// pageResponse はページ描画に渡す認可状態。
type pageResponse struct {
	User     *model.Identity `json:"user"`
	LoggedIn bool            `json:"logged_in"`
	Allowed  bool            `json:"allowed"`
}

// boardResponse は盤面描画のレスポンス。
// flipが無視された場合はErrorに理由を入れ、盤面は変更前の状態を返す。
type boardResponse struct {
	pageResponse
	Board *model.Board                  `json:"board"`
	Error *middleware.ErrorResponseBody `json:"error,omitempty"`
}

// boardListResponse は盤面履歴のレスポンス。
type boardListResponse struct {
	pageResponse
	Boards []model.BoardSummary `json:"boards"`
}

func newPageResponse(decision model.Decision) pageResponse {
	return pageResponse{
		User:     decision.Identity,
		LoggedIn: decision.LoggedIn,
		Allowed:  decision.Allowed,
	}
}

// Index はトップページを描画する。
// GET /
func (h *BoardHandler) Index(w http.ResponseWriter, r *http.Request) {
	decision := middleware.DecisionFromContext(r.Context())
	writeJSON(w, http.StatusOK, newPageResponse(decision))
}

// NewBoard は新しい盤面を作成してトップページへリダイレクトする。
// 許可されていない利用者には何もしない。
// GET /new/
func (h *BoardHandler) NewBoard(w http.ResponseWriter, r *http.Request) {
	decision := middleware.DecisionFromContext(r.Context())
	if decision.Allowed {
		if _, err := h.service.CreateBoard(r.Context(), decision.Identity.ExternalID); err != nil {
			handleServiceError(w, err)
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Board は現在の盤面を描画する。盤面がなければ作成する。
// GET /ajax/board/
func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	decision := middleware.DecisionFromContext(r.Context())
	resp := boardResponse{pageResponse: newPageResponse(decision)}

	if decision.Allowed {
		board, err := h.service.GetOrCreateCurrentBoard(r.Context(), decision.Identity.ExternalID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		resp.Board = board
	}

	writeJSON(w, http.StatusOK, resp)
}

// Flip は現在の盤面のマスを反転して描画する。
// 盤面がない場合やマス番号が不正な場合は反転を行わず、現在の盤面をそのまま返す。
// GET /ajax/board/flip/{index}
func (h *BoardHandler) Flip(w http.ResponseWriter, r *http.Request) {
	decision := middleware.DecisionFromContext(r.Context())
	resp := boardResponse{pageResponse: newPageResponse(decision)}

	if !decision.Allowed {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx := r.Context()
	userID := decision.Identity.ExternalID

	var (
		board *model.Board
		err   error
	)
	rawIndex := chi.URLParam(r, "index")
	index, parseErr := strconv.Atoi(rawIndex)
	if parseErr != nil {
		err = model.NewMalformedIndexError(rawIndex)
	} else {
		board, err = h.service.FlipCell(ctx, userID, index)
	}

	if errors.Is(err, model.ErrNoCurrentBoard) || errors.Is(err, model.ErrInvalidIndex) {
		slog.Info("flip ignored",
			slog.Int64("user_id", userID),
			slog.String("path_index", rawIndex),
			slog.String("reason", err.Error()),
		)
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			resp.Error = toErrorBody(apiErr)
		}
		board, err = h.service.CurrentBoard(ctx, userID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp.Board = board
	writeJSON(w, http.StatusOK, resp)
}

// Boards は利用者の盤面履歴を新しい順に返す。
// GET /ajax/boards/
func (h *BoardHandler) Boards(w http.ResponseWriter, r *http.Request) {
	decision := middleware.DecisionFromContext(r.Context())
	resp := boardListResponse{pageResponse: newPageResponse(decision)}

	if decision.Allowed {
		boards, err := h.service.ListBoards(r.Context(), decision.Identity.ExternalID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if boards == nil {
			boards = []model.BoardSummary{}
		}
		resp.Boards = boards
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func toErrorBody(apiErr *model.APIError) *middleware.ErrorResponseBody {
	return &middleware.ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == model.ErrCodeInsufficientPool {
			slog.Error("option pool misconfigured", slog.String("error", err.Error()))
		}
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeNoCurrentBoard:
		return http.StatusConflict
	case model.ErrCodeInvalidIndex:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
