package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"worldgen-server/internal/chunk"
	"worldgen-server/internal/shared/errors"
	"worldgen-server/internal/shared/response"
)

type ChunkHandler struct {
	service      *chunk.Service
	maxBodyBytes int64
}

func NewChunkHandler(service *chunk.Service, maxBodyBytes int64) *ChunkHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20
	}
	return &ChunkHandler{service: service, maxBodyBytes: maxBodyBytes}
}

func (h *ChunkHandler) GenerateChunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "generate_chunk")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req chunk.GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}
	if req.ScopeType == "" {
		response.Error(w, r, logger, errors.Validation("scope_type is required"))
		return
	}

	result, err := h.service.GenerateChunk(ctx, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}

func (h *ChunkHandler) ChunkStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "chunk_stats")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	chunkID := r.PathValue("id")
	if chunkID == "" {
		response.Error(w, r, logger, errors.Validation("chunk ID is required"))
		return
	}

	stats, err := h.service.ChunkStats(ctx, chunkID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, stats)
}

func (h *ChunkHandler) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "bulk_upsert")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req chunk.BulkUpsertRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	result, err := h.service.BulkUpsert(ctx, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}
